package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftbazaar/native/market"
	"nftbazaar/registry"
	"nftbazaar/state"
	"nftbazaar/storage"
)

const (
	testMarketAddr = "0x00000000000000000000000000000000000baaaa"
	testSeller     = "0x0000000000000000000000000000000000000001"
	testBuyer      = "0x0000000000000000000000000000000000000002"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	items, err := registry.NewMemoryItems("https://test.local/item/")
	require.NoError(t, err)
	units, err := registry.NewMemoryUnits("https://test.local/unit/")
	require.NoError(t, err)
	payment := registry.NewMemoryPayment()

	marketAddr := common.HexToAddress(testMarketAddr)
	engine := market.NewEngine(marketAddr)
	engine.SetState(state.NewStore(storage.NewMemDB()))
	require.NoError(t, engine.Configure(items, units, payment, 180))
	items.GrantRole(registry.MinterRole, marketAddr)
	units.GrantRole(registry.MinterRole, marketAddr)
	units.RegisterReceiver(marketAddr, engine)

	server := NewServer(engine, nil)
	server.EnableSandbox(&Sandbox{Items: items, Units: units, Payment: payment})
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return server, ts
}

func call(t *testing.T, ts *httptest.Server, method string, params interface{}) (*http.Response, rpcResponse) {
	t.Helper()
	rawParams, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(rpcRequest{JSONRPC: jsonRPCVersion, Method: method, Params: rawParams, ID: 1})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func mustResult(t *testing.T, ts *httptest.Server, method string, params interface{}) map[string]interface{} {
	t.Helper()
	resp, decoded := call(t, ts, method, params)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, decoded.Error, "unexpected rpc error for %s", method)
	result, ok := decoded.Result.(map[string]interface{})
	require.True(t, ok, "result of %s is not an object", method)
	return result
}

func TestServerRejectsUnknownMethod(t *testing.T) {
	_, ts := newTestServer(t)
	resp, decoded := call(t, ts, "market_unknown", map[string]string{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeMethodNotFound, decoded.Error.Code)
}

func TestServerRejectsInvalidJSON(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerRequiresBearerToken(t *testing.T) {
	t.Setenv(authTokenEnv, "secret")
	_, ts := newTestServer(t)

	resp, decoded := call(t, ts, "market_getListing", map[string]interface{}{"kind": "single", "id": 1})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, codeUnauthorized, decoded.Error.Code)

	body, err := json.Marshal(rpcRequest{JSONRPC: jsonRPCVersion, Method: "market_getListing", Params: json.RawMessage(`{"kind":"single","id":1}`), ID: 1})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	// Authenticated but the listing does not exist.
	require.Equal(t, http.StatusNotFound, authed.StatusCode)
}

func TestServerErrorMapping(t *testing.T) {
	_, ts := newTestServer(t)

	resp, decoded := call(t, ts, "market_getListing", map[string]interface{}{"kind": "single", "id": 99})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, codeNotFound, decoded.Error.Code)

	resp, decoded = call(t, ts, "market_getListing", map[string]interface{}{"kind": "triple", "id": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, codeInvalidParams, decoded.Error.Code)

	resp, decoded = call(t, ts, "market_createListing", map[string]interface{}{
		"kind": "single", "caller": "not-an-address", "assetId": 1, "quantity": 1, "price": "100",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, codeInvalidParams, decoded.Error.Code)
}

func TestServerListingLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	mustResult(t, ts, "sandbox_approveOperator", map[string]string{"account": testSeller})
	mustResult(t, ts, "sandbox_fund", map[string]string{"account": testBuyer, "amount": "1000"})

	mustResult(t, ts, "market_createItem", map[string]interface{}{
		"kind": "single", "caller": testSeller, "assetId": 1, "quantity": 1,
	})
	created := mustResult(t, ts, "market_createListing", map[string]interface{}{
		"kind": "single", "caller": testSeller, "assetId": 1, "quantity": 1, "price": "100",
	})
	require.Equal(t, float64(1), created["id"])

	listing := mustResult(t, ts, "market_getListing", map[string]interface{}{"kind": "single", "id": 1})
	require.Equal(t, "100", listing["price"])
	require.Equal(t, common.HexToAddress(testSeller).Hex(), listing["seller"])
	require.Equal(t, float64(1), listing["remaining"])

	mustResult(t, ts, "market_buy", map[string]interface{}{
		"kind": "single", "caller": testBuyer, "id": 1,
	})
	resp, decoded := call(t, ts, "market_getListing", map[string]interface{}{"kind": "single", "id": 1})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, codeNotFound, decoded.Error.Code)
}

func TestServerAuctionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	mustResult(t, ts, "sandbox_approveOperator", map[string]string{"account": testSeller})
	mustResult(t, ts, "market_createItem", map[string]interface{}{
		"kind": "multi", "caller": testSeller, "assetId": 7, "quantity": 10,
	})
	created := mustResult(t, ts, "market_listItemOnAuction", map[string]interface{}{
		"kind": "multi", "caller": testSeller, "assetId": 7, "startPrice": "10", "quantity": 10,
	})
	require.Equal(t, float64(0), created["id"])

	bidder := "0x0000000000000000000000000000000000000003"
	mustResult(t, ts, "sandbox_fund", map[string]string{"account": bidder, "amount": "500"})
	mustResult(t, ts, "market_makeBid", map[string]interface{}{
		"kind": "multi", "caller": bidder, "id": 0, "amount": "50",
	})

	auction := mustResult(t, ts, "market_getAuction", map[string]interface{}{"kind": "multi", "id": 0})
	require.Equal(t, "50", auction["highestBid"])
	require.Equal(t, float64(1), auction["bidCount"])
	require.Equal(t, common.HexToAddress(bidder).Hex(), auction["highestBidder"])

	// The window has not elapsed yet.
	resp, decoded := call(t, ts, "market_finishAuction", map[string]interface{}{"kind": "multi", "id": 0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, codeWrongPeriod, decoded.Error.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
