package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the bazaard node configuration.
type Config struct {
	RPCAddress string `toml:"RPCAddress"`
	DataDir    string `toml:"DataDir"`
	// Backend selects the key-value store: "leveldb", "bolt" or "memory".
	Backend string `toml:"Backend"`
	// MarketAddress is the hex address under which the marketplace holds
	// custody of escrowed assets and funds.
	MarketAddress string `toml:"MarketAddress"`
	// AuctionDuration is the fixed auction window in seconds.
	AuctionDuration int64 `toml:"AuctionDuration"`
	// BidThreshold is the minimum-interest policy: auctions need strictly
	// more bids than this to settle in the highest bidder's favour.
	BidThreshold uint32 `toml:"BidThreshold"`
	// ItemBaseURI and UnitBaseURI seed the metadata locations of the
	// in-memory registries.
	ItemBaseURI string `toml:"ItemBaseURI"`
	UnitBaseURI string `toml:"UnitBaseURI"`
	// PausedModules lists engine modules to hold administratively paused,
	// e.g. ["market"] to reject all marketplace operations at boot.
	PausedModules []string `toml:"PausedModules"`
}

const defaultConfig = `RPCAddress = ":8645"
DataDir = "./bazaar-data"
Backend = "leveldb"
MarketAddress = "0x00000000000000000000000000000000000baaaa"
AuctionDuration = 180
BidThreshold = 2
ItemBaseURI = "https://assets.local/item/"
UnitBaseURI = "https://assets.local/unit/"
`

// Load reads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.Decode(defaultConfig, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate fills defaults and rejects inconsistent settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./bazaar-data"
	}
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case "":
		c.Backend = "leveldb"
	case "leveldb", "bolt", "memory":
		c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	default:
		return fmt.Errorf("config: unsupported backend %q", c.Backend)
	}
	if c.AuctionDuration <= 0 {
		return fmt.Errorf("config: auction duration must be positive")
	}
	if strings.TrimSpace(c.MarketAddress) == "" {
		return fmt.Errorf("config: market address required")
	}
	if strings.TrimSpace(c.ItemBaseURI) == "" || strings.TrimSpace(c.UnitBaseURI) == "" {
		return fmt.Errorf("config: registry base URIs required")
	}
	return nil
}
