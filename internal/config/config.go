package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// MonitorConfig tunes the sweep orchestrator and the per-page fetcher.
type MonitorConfig struct {
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	ScrapeDelay    time.Duration `mapstructure:"scrape_delay"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	FetchAttempts  int           `mapstructure:"fetch_attempts"`
	FetchBackoff   time.Duration `mapstructure:"fetch_backoff"`
	MaxFailures    int           `mapstructure:"max_failures"`
	OutboundRPS    float64       `mapstructure:"outbound_rps"`
	OutboundBurst  int           `mapstructure:"outbound_burst"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
	MetricsPath       string `mapstructure:"metrics_path"`
	Namespace         string `mapstructure:"namespace"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "pricewatch")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("smtp.host", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 587)

	viper.SetDefault("monitor.sweep_interval", 5*time.Minute)
	viper.SetDefault("monitor.scrape_delay", 2*time.Second)
	viper.SetDefault("monitor.fetch_timeout", 10*time.Second)
	viper.SetDefault("monitor.fetch_attempts", 3)
	viper.SetDefault("monitor.fetch_backoff", 2*time.Second)
	viper.SetDefault("monitor.max_failures", 5)
	viper.SetDefault("monitor.outbound_rps", 1)
	viper.SetDefault("monitor.outbound_burst", 1)

	viper.SetDefault("jwt.expiry_hours", 24)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_second", 50)
	viper.SetDefault("rate_limit.burst", 100)

	viper.SetDefault("monitoring.prometheus_enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.namespace", "pricewatch")
}
