// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Wash        WashConfig        `yaml:"wash" mapstructure:"wash"`
	Rebuild     RebuildConfig     `yaml:"rebuild" mapstructure:"rebuild"`
	Rates       RatesConfig       `yaml:"rates" mapstructure:"rates"`
	Calibration CalibrationConfig `yaml:"calibration" mapstructure:"calibration"`
	Fusion      FusionConfig      `yaml:"fusion" mapstructure:"fusion"`
	Sampler     SamplerConfig     `yaml:"sampler" mapstructure:"sampler"`
	Trends      TrendsConfig      `yaml:"trends" mapstructure:"trends"`
	Notion      NotionConfig      `yaml:"notion" mapstructure:"notion"`
	Notify      NotifyConfig      `yaml:"notify" mapstructure:"notify"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Daemon      DaemonConfig      `yaml:"daemon" mapstructure:"daemon"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// WashConfig configures the raw-sighting wash gate.
type WashConfig struct {
	RejectThreshold     float64 `yaml:"reject_threshold" mapstructure:"reject_threshold"`
	QuarantineThreshold float64 `yaml:"quarantine_threshold" mapstructure:"quarantine_threshold"`
	MaxTextBytes        int     `yaml:"max_text_bytes" mapstructure:"max_text_bytes"`
	MinTargetTextRatio  float64 `yaml:"min_target_text_ratio" mapstructure:"min_target_text_ratio"`
	EnrichTimeoutSecs   int     `yaml:"enrich_timeout_secs" mapstructure:"enrich_timeout_secs"`
}

// RebuildConfig configures the campaign rebuild pass.
type RebuildConfig struct {
	ActiveDays       int      `yaml:"active_days" mapstructure:"active_days"`
	ExcludedChannels []string `yaml:"excluded_channels" mapstructure:"excluded_channels"`
	BatchSize        int      `yaml:"batch_size" mapstructure:"batch_size"`
}

// RatesConfig points at an optional rate-table override file for the
// spend estimation models. Compiled-in defaults are used when empty.
type RatesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// CalibrationConfig configures benchmark factor computation.
type CalibrationConfig struct {
	MinFactor float64 `yaml:"min_factor" mapstructure:"min_factor"`
	MaxFactor float64 `yaml:"max_factor" mapstructure:"max_factor"`
	FTPHost   string  `yaml:"ftp_host" mapstructure:"ftp_host"`
	FTPUser   string  `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPass   string  `yaml:"ftp_pass" mapstructure:"ftp_pass"`
	FTPPath   string  `yaml:"ftp_path" mapstructure:"ftp_path"`
}

// FusionConfig holds signal fusion weights and the panel nudge.
type FusionConfig struct {
	CommerceWeight  float64 `yaml:"commerce_weight" mapstructure:"commerce_weight"`
	TrendWeight     float64 `yaml:"trend_weight" mapstructure:"trend_weight"`
	CreativeWeight  float64 `yaml:"creative_weight" mapstructure:"creative_weight"`
	SamplingWeight  float64 `yaml:"sampling_weight" mapstructure:"sampling_weight"`
	PanelSilentBump float64 `yaml:"panel_silent_bump" mapstructure:"panel_silent_bump"`
}

// SamplerConfig holds the secondary sampling API settings.
type SamplerConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Key         string  `yaml:"key" mapstructure:"key"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// TrendsConfig holds the search-trend index API settings.
type TrendsConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Key         string  `yaml:"key" mapstructure:"key"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NotionConfig holds the benchmark database credentials.
type NotionConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	BenchmarkDB string `yaml:"benchmark_db" mapstructure:"benchmark_db"`
}

// NotifyConfig configures the rebuild-complete webhook.
type NotifyConfig struct {
	WebhookURL  string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the trigger API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// DaemonConfig holds cron schedules for the daemon command.
type DaemonConfig struct {
	WashSchedule    string `yaml:"wash_schedule" mapstructure:"wash_schedule"`
	RebuildSchedule string `yaml:"rebuild_schedule" mapstructure:"rebuild_schedule"`
	FuseSchedule    string `yaml:"fuse_schedule" mapstructure:"fuse_schedule"`
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
	v.SetEnvPrefix("SPEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("wash.reject_threshold", 0.3)
	v.SetDefault("wash.quarantine_threshold", 0.6)
	v.SetDefault("wash.max_text_bytes", 8192)
	v.SetDefault("wash.min_target_text_ratio", 0.3)
	v.SetDefault("wash.enrich_timeout_secs", 10)
	v.SetDefault("rebuild.active_days", 7)
	v.SetDefault("rebuild.batch_size", 200)
	v.SetDefault("calibration.min_factor", 0.3)
	v.SetDefault("calibration.max_factor", 3.0)
	v.SetDefault("fusion.commerce_weight", 0.25)
	v.SetDefault("fusion.trend_weight", 0.25)
	v.SetDefault("fusion.creative_weight", 0.30)
	v.SetDefault("fusion.sampling_weight", 0.20)
	v.SetDefault("fusion.panel_silent_bump", 1.1)
	v.SetDefault("sampler.rate_per_sec", 5)
	v.SetDefault("sampler.timeout_secs", 15)
	v.SetDefault("trends.rate_per_sec", 5)
	v.SetDefault("trends.timeout_secs", 15)
	v.SetDefault("notify.timeout_secs", 10)
	v.SetDefault("daemon.wash_schedule", "0 * * * *")
	v.SetDefault("daemon.rebuild_schedule", "30 2 * * *")
	v.SetDefault("daemon.fuse_schedule", "0 4 * * *")

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

// Validate checks that the configuration required by a command group is present.
func (c *Config) Validate(section string) error {
	switch section {
	case "store":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required (SPEND_STORE_DATABASE_URL)")
		}
	case "sampler":
		if c.Sampler.BaseURL == "" {
			return eris.New("config: sampler.base_url is required")
		}
	case "trends":
		if c.Trends.BaseURL == "" {
			return eris.New("config: trends.base_url is required")
		}
	case "notion":
		if c.Notion.Token == "" || c.Notion.BenchmarkDB == "" {
			return eris.New("config: notion.token and notion.benchmark_db are required")
		}
	}
	return nil
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
