package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cg-gdsc/gdsc8/pkg/cost"
	"github.com/cg-gdsc/gdsc8/pkg/dataset"
	"github.com/cg-gdsc/gdsc8/pkg/transport"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. GDSC_ENDPOINT.
const EnvPrefix = "GDSC"

// Config represents the application configuration.
type Config struct {
	Endpoint        string               `json:"endpoint"`
	Region          string               `json:"region"`
	Service         string               `json:"service"`
	DataDir         string               `json:"data_dir"`
	FallbackDataDir string               `json:"fallback_data_dir"`
	DefaultModel    string               `json:"default_model,omitempty"`
	Pricing         map[string]cost.Tier `json:"pricing,omitempty"`
	LedgerPath      string               `json:"ledger_path"`
	Log             LogConfig            `json:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `json:"level"`
	Env   string `json:"env"`
}

// envOverrides are read from GDSC_* variables and win over the file.
type envOverrides struct {
	Endpoint     string `envconfig:"ENDPOINT"`
	Region       string `envconfig:"REGION"`
	DataDir      string `envconfig:"DATA_DIR"`
	DefaultModel string `envconfig:"DEFAULT_MODEL"`
	LedgerPath   string `envconfig:"LEDGER_PATH"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	LogEnv       string `envconfig:"LOG_ENV"`
}

// Default returns the configuration used when no file exists.
func Default() (cfg Config) {
	ledgerPath := filepath.Join(".gdsc", "cost-ledger.json")
	if homeDir, err := os.UserHomeDir(); err == nil {
		ledgerPath = filepath.Join(homeDir, ".gdsc", "cost-ledger.json")
	}

	cfg = Config{
		Endpoint:        transport.DefaultEndpoint,
		Region:          transport.DefaultRegion,
		Service:         transport.DefaultService,
		DataDir:         dataset.DefaultPrimary,
		FallbackDataDir: dataset.DefaultFallback,
		DefaultModel:    cost.DefaultModel,
		LedgerPath:      ledgerPath,
		Log: LogConfig{
			Level: "info",
			Env:   "development",
		},
	}
	return cfg
}

// DefaultPath returns $HOME/.gdsc/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, ".gdsc", "config.json")
	return path, err
}

// GetPricing returns the built-in rate table with configured overrides applied.
func (c *Config) GetPricing() (pricing *cost.Pricing) {
	pricing = cost.DefaultPricing().Merge(c.Pricing, c.DefaultModel)
	return pricing
}

// Load reads configuration from file, then applies .env and environment overrides.
// A missing file is not an error when configPath is empty; defaults are used instead.
func Load(configPath string) (cfg Config, err error) {
	cfg = Default()

	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	var data []byte
	data, err = os.ReadFile(path)
	switch {
	case err == nil:
		err = json.Unmarshal(data, &cfg)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse config file: %s", path)
			return cfg, err
		}
	case os.IsNotExist(err) && configPath == "":
		err = nil
	case os.IsNotExist(err):
		err = errors.Errorf("config file not found: %s (run 'gdsc init' to create)", path)
		return cfg, err
	default:
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	err = applyEnv(&cfg)
	if err != nil {
		return cfg, err
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

func applyEnv(cfg *Config) (err error) {
	var env envOverrides
	err = envconfig.Process(EnvPrefix, &env)
	if err != nil {
		err = errors.Wrap(err, "failed to read environment overrides")
		return err
	}

	if env.Endpoint != "" {
		cfg.Endpoint = env.Endpoint
	}
	if env.Region != "" {
		cfg.Region = env.Region
	}
	if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}
	if env.DefaultModel != "" {
		cfg.DefaultModel = env.DefaultModel
	}
	if env.LedgerPath != "" {
		cfg.LedgerPath = env.LedgerPath
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogEnv != "" {
		cfg.Log.Env = env.LogEnv
	}

	return err
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() (err error) {
	if c.Endpoint == "" {
		err = errors.New("endpoint is required in config")
		return err
	}

	var parsed *url.URL
	parsed, err = url.Parse(c.Endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		err = errors.Errorf("endpoint must be an http(s) URL: %s", c.Endpoint)
		return err
	}

	if c.Region == "" {
		err = errors.New("region is required in config")
		return err
	}

	for name, tier := range c.Pricing {
		if tier.InputPerMillion < 0 || tier.OutputPerMillion < 0 {
			err = errors.Errorf("pricing for %s must not be negative", name)
			return err
		}
	}

	if c.DefaultModel != "" {
		if _, ok := c.GetPricing().Tiers[c.DefaultModel]; !ok {
			err = errors.Errorf("default_model %s has no pricing tier", c.DefaultModel)
			return err
		}
	}

	// Fill defaults for optional fields
	if c.Service == "" {
		c.Service = transport.DefaultService
	}
	if c.DataDir == "" {
		c.DataDir = dataset.DefaultPrimary
	}
	if c.FallbackDataDir == "" {
		c.FallbackDataDir = dataset.DefaultFallback
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (path string, err error) {
	path = configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return path, err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return path, err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return path, err
	}

	var data []byte
	data, err = json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return path, err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return path, err
	}

	return path, err
}
