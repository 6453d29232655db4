package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftbazaar/native/market"
	"nftbazaar/observability"
	"nftbazaar/registry"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "BAZAAR_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32040
	codeForbidden      = -32041
	codeInsufficient   = -32042
	codeWrongPeriod    = -32043
)

// Server exposes the marketplace engine over JSON-RPC 2.0. Engine calls are
// serialized under a single mutex, matching the engine's expectation of a
// global operation ordering.
type Server struct {
	mu        sync.Mutex
	engine    *market.Engine
	logger    *slog.Logger
	authToken string
	sandbox   *Sandbox
}

// NewServer wraps the configured engine. The optional bearer token is read
// from BAZAAR_RPC_TOKEN.
func NewServer(engine *market.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		logger:    logger,
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
	}
}

// Router returns the HTTP surface: the JSON-RPC endpoint plus health and
// metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/", s.handle)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.Router())
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: message}})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.authToken)) == 1
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, nil, codeUnauthorized, "unauthorized")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body")
		return
	}
	if len(body) > maxRequestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large")
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid request")
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		handler, ok = s.sandboxMethods()[req.Method]
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found")
		return
	}

	start := time.Now()
	s.mu.Lock()
	result, err := handler(req.Params)
	s.mu.Unlock()
	observability.Metrics().Observe(req.Method, start, err)

	if err != nil {
		status, code := classify(err)
		s.logger.Warn("rpc call failed",
			slog.String("method", req.Method),
			slog.String("error", err.Error()))
		writeError(w, status, req.ID, code, err.Error())
		return
	}
	writeResult(w, req.ID, result)
}

// classify maps engine and registry errors onto JSON-RPC error codes.
func classify(err error) (int, int) {
	switch {
	case errors.Is(err, market.ErrDoesNotExist), errors.Is(err, registry.ErrUnknownAsset):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, market.ErrNotOwner), errors.Is(err, market.ErrNotAuthorized),
		errors.Is(err, registry.ErrNotOwner), errors.Is(err, registry.ErrNotAuthorized):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, market.ErrInsufficientBalance), errors.Is(err, registry.ErrInsufficientBalance):
		return http.StatusBadRequest, codeInsufficient
	case errors.Is(err, market.ErrWrongPeriod):
		return http.StatusBadRequest, codeWrongPeriod
	case errors.Is(err, market.ErrInvalidValue), errors.Is(err, registry.ErrInvalidValue):
		return http.StatusBadRequest, codeInvalidParams
	default:
		return http.StatusInternalServerError, codeServerError
	}
}
