package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "a default config file should be written")

	require.Equal(t, ":8645", cfg.RPCAddress)
	require.Equal(t, "leveldb", cfg.Backend)
	require.Equal(t, int64(180), cfg.AuctionDuration)
	require.Equal(t, uint32(2), cfg.BidThreshold)
	require.NotEmpty(t, cfg.MarketAddress)
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `RPCAddress = ":9999"
DataDir = "/tmp/bazaar"
Backend = "memory"
MarketAddress = "0x00000000000000000000000000000000000baaaa"
AuctionDuration = 300
BidThreshold = 5
ItemBaseURI = "https://assets.local/item/"
UnitBaseURI = "https://assets.local/unit/"
PausedModules = ["market"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.RPCAddress)
	require.Equal(t, "memory", cfg.Backend)
	require.Equal(t, int64(300), cfg.AuctionDuration)
	require.Equal(t, uint32(5), cfg.BidThreshold)
	require.Equal(t, []string{"market"}, cfg.PausedModules)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			MarketAddress:   "0x00000000000000000000000000000000000baaaa",
			AuctionDuration: 180,
			ItemBaseURI:     "https://assets.local/item/",
			UnitBaseURI:     "https://assets.local/unit/",
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":8645", cfg.RPCAddress)
	require.Equal(t, "./bazaar-data", cfg.DataDir)
	require.Equal(t, "leveldb", cfg.Backend)

	cfg = base()
	cfg.Backend = "cassandra"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.AuctionDuration = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.MarketAddress = " "
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.ItemBaseURI = ""
	require.Error(t, cfg.Validate())
}
