package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	SeatsAero  SeatsAeroConfig  `yaml:"seatsaero" mapstructure:"seatsaero"`
	PointsYeah PointsYeahConfig `yaml:"pointsyeah" mapstructure:"pointsyeah"`
	GFlights   GFlightsConfig   `yaml:"gflights" mapstructure:"gflights"`
	Amadeus    AmadeusConfig    `yaml:"amadeus" mapstructure:"amadeus"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SeatsAeroConfig holds seats.aero session settings.
type SeatsAeroConfig struct {
	Cookie   string `yaml:"cookie" mapstructure:"cookie"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	MinSeats int    `yaml:"min_seats" mapstructure:"min_seats"`
	MaxFees  int    `yaml:"max_fees" mapstructure:"max_fees"`
}

// PointsYeahConfig holds PointsYeah API settings.
type PointsYeahConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GFlightsConfig holds the Google Flights proxy settings.
type GFlightsConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AmadeusConfig holds Amadeus Self-Service API credentials.
type AmadeusConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PricingConfig configures cash-price enrichment.
type PricingConfig struct {
	QuoteTimeoutSecs int `yaml:"quote_timeout_secs" mapstructure:"quote_timeout_secs"`
	CacheTTLHours    int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	MaxConcurrent    int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// SearchConfig configures deal search behavior.
type SearchConfig struct {
	SourceTimeoutSecs int `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
	DefaultDays       int `yaml:"default_days" mapstructure:"default_days"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POINTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "points.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("seatsaero.base_url", "https://seats.aero")
	v.SetDefault("seatsaero.min_seats", 1)
	v.SetDefault("seatsaero.max_fees", 0)
	v.SetDefault("pointsyeah.base_url", "https://api.pointsyeah.com")
	v.SetDefault("gflights.base_url", "https://api.flightproxy.dev/v1")
	v.SetDefault("amadeus.base_url", "https://test.api.amadeus.com")
	v.SetDefault("pricing.quote_timeout_secs", 30)
	v.SetDefault("pricing.cache_ttl_hours", 6)
	v.SetDefault("pricing.max_concurrent", 8)
	v.SetDefault("search.source_timeout_secs", 90)
	v.SetDefault("search.default_days", 1)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
