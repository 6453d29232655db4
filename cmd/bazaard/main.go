package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nftbazaar/config"
	"nftbazaar/core/events"
	coretypes "nftbazaar/core/types"
	nativecommon "nftbazaar/native/common"
	"nftbazaar/native/market"
	"nftbazaar/observability/logging"
	"nftbazaar/registry"
	"nftbazaar/rpc"
	"nftbazaar/state"
	"nftbazaar/storage"
)

// logEmitter forwards marketplace events to the structured log so every
// custody change and state transition leaves an audit line.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	attrs := []any{}
	if detailed, ok := evt.(interface{ Event() *coretypes.Event }); ok {
		for k, v := range detailed.Event().Attributes {
			attrs = append(attrs, slog.String(k, v))
		}
	}
	l.logger.Info(evt.EventType(), attrs...)
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemDB(), nil
	case "bolt":
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "bazaar.db"))
	default:
		return storage.NewLevelDB(cfg.DataDir)
	}
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("BAZAAR_ENV"))
	logger := logging.Setup("bazaard", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	items, err := registry.NewMemoryItems(cfg.ItemBaseURI)
	if err != nil {
		logger.Error("failed to create item registry", slog.Any("error", err))
		os.Exit(1)
	}
	units, err := registry.NewMemoryUnits(cfg.UnitBaseURI)
	if err != nil {
		logger.Error("failed to create unit registry", slog.Any("error", err))
		os.Exit(1)
	}
	payment := registry.NewMemoryPayment()

	marketAddr := common.HexToAddress(cfg.MarketAddress)
	engine := market.NewEngine(marketAddr)
	engine.SetState(state.NewStore(db))
	engine.SetEmitter(logEmitter{logger: logger})
	engine.SetPauses(nativecommon.NewPauses(cfg.PausedModules))
	if cfg.BidThreshold > 0 {
		engine.SetBidThreshold(cfg.BidThreshold)
	}
	if err := engine.Configure(items, units, payment, cfg.AuctionDuration); err != nil {
		logger.Error("failed to configure engine", slog.Any("error", err))
		os.Exit(1)
	}

	// The marketplace mints through the registries and acknowledges
	// incoming unit transfers.
	items.GrantRole(registry.MinterRole, marketAddr)
	units.GrantRole(registry.MinterRole, marketAddr)
	units.RegisterReceiver(marketAddr, engine)

	server := rpc.NewServer(engine, logger)
	server.EnableSandbox(&rpc.Sandbox{Items: items, Units: units, Payment: payment})

	logger.Info("bazaard ready",
		slog.String("backend", cfg.Backend),
		slog.Int64("auctionDuration", cfg.AuctionDuration))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
