package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/strikesim/strikesim/internal/domain"
)

// Config is the full simulator configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Selector   SelectorConfig   `yaml:"selector"`
	Data       DataConfig       `yaml:"data"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// SimulationConfig controls the replay engine and execution model.
type SimulationConfig struct {
	StartingBalance float64 `yaml:"starting_balance"`
	MaxPositionPct  float64 `yaml:"max_position_pct"` // share of cash per trade
	FeePerContract  float64 `yaml:"fee_per_contract"`
	RandomSeed      int64   `yaml:"random_seed"` // baseline strategy reseed, per hour

	// Market microstructure. Microstructure=false trades frictionless at
	// the quoted mid.
	Microstructure     bool    `yaml:"microstructure"`
	BidAskSpread       float64 `yaml:"bid_ask_spread"`
	SlippagePer100     float64 `yaml:"slippage_per_100_contracts"`
	MaxLiquidityPerMin float64 `yaml:"max_liquidity_per_minute"`
	LatencyMinutes     int     `yaml:"latency_minutes"`

	MinTradePrice float64 `yaml:"min_trade_price"`
	MaxTradePrice float64 `yaml:"max_trade_price"`
}

// SelectorConfig controls how the strike market for each hour is chosen.
type SelectorConfig struct {
	Intelligent    bool    `yaml:"intelligent"`
	MinVolumeProxy float64 `yaml:"min_volume_proxy"`
}

// DataConfig points at the three input tables.
type DataConfig struct {
	BTCPricesPath      string `yaml:"btc_prices_path"`
	MarketsPath        string `yaml:"markets_path"`
	ContractQuotesPath string `yaml:"contract_quotes_path"`
	StartDate          string `yaml:"start_date"` // YYYY-MM-DD, optional
	EndDate            string `yaml:"end_date"`   // YYYY-MM-DD, optional

	// SynthesizeQuotes prices the quote table from the ticks instead of
	// reading contract_quotes_path, for datasets with no recorded quotes.
	SynthesizeQuotes  bool    `yaml:"synthesize_quotes"`
	PricingVolatility float64 `yaml:"pricing_volatility"`
}

// StorageConfig controls where results and the selection audit log go.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present, applies env
// overrides and defaults, then validates. Configuration errors surface here,
// before any run starts.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the configuration invariants eagerly.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.StartingBalance <= 0 {
		return fmt.Errorf("config: starting balance %.2f: %w", s.StartingBalance, domain.ErrConfiguration)
	}
	if s.MaxPositionPct < 0 || s.MaxPositionPct > 1 {
		return fmt.Errorf("config: max position pct %.2f not in [0,1]: %w", s.MaxPositionPct, domain.ErrConfiguration)
	}
	if s.FeePerContract < 0 {
		return fmt.Errorf("config: fee per contract %.4f: %w", s.FeePerContract, domain.ErrConfiguration)
	}
	if s.BidAskSpread < 0 {
		return fmt.Errorf("config: bid-ask spread %.4f: %w", s.BidAskSpread, domain.ErrConfiguration)
	}
	if s.Microstructure && s.MaxLiquidityPerMin <= 0 {
		return fmt.Errorf("config: liquidity cap %.2f: %w", s.MaxLiquidityPerMin, domain.ErrConfiguration)
	}
	if s.LatencyMinutes < 0 {
		return fmt.Errorf("config: latency %d minutes: %w", s.LatencyMinutes, domain.ErrConfiguration)
	}
	if !(0 < s.MinTradePrice && s.MinTradePrice < s.MaxTradePrice && s.MaxTradePrice < 1) {
		return fmt.Errorf("config: trade price bounds must satisfy 0 < min < max < 1, got [%.2f, %.2f]: %w",
			s.MinTradePrice, s.MaxTradePrice, domain.ErrConfiguration)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Simulation.StartingBalance == 0 {
		cfg.Simulation.StartingBalance = 10000
	}
	if cfg.Simulation.MaxPositionPct == 0 {
		cfg.Simulation.MaxPositionPct = 0.1
	}
	if cfg.Simulation.RandomSeed == 0 {
		cfg.Simulation.RandomSeed = 42
	}
	if cfg.Simulation.Microstructure {
		if cfg.Simulation.BidAskSpread == 0 {
			cfg.Simulation.BidAskSpread = 0.02
		}
		if cfg.Simulation.SlippagePer100 == 0 {
			cfg.Simulation.SlippagePer100 = 0.01
		}
		if cfg.Simulation.MaxLiquidityPerMin == 0 {
			cfg.Simulation.MaxLiquidityPerMin = 500
		}
		if cfg.Simulation.LatencyMinutes == 0 {
			cfg.Simulation.LatencyMinutes = 1
		}
	}
	if cfg.Simulation.MinTradePrice == 0 {
		cfg.Simulation.MinTradePrice = 0.01
	}
	if cfg.Simulation.MaxTradePrice == 0 {
		cfg.Simulation.MaxTradePrice = 0.99
	}
	if cfg.Data.BTCPricesPath == "" {
		cfg.Data.BTCPricesPath = "data/btc_prices_minute.csv"
	}
	if cfg.Data.MarketsPath == "" {
		cfg.Data.MarketsPath = "data/kalshi_markets.csv"
	}
	if cfg.Data.ContractQuotesPath == "" {
		cfg.Data.ContractQuotesPath = "data/kalshi_contract_quotes.csv"
	}
	if cfg.Data.PricingVolatility == 0 {
		cfg.Data.PricingVolatility = 0.02
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "strikesim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
