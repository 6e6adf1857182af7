package config

import (
	"flag"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	defaultDatabaseDSN    = "file:drivekeeper.db"
	defaultBaseURL        = "localhost:8081"
	defaultRequestTimeout = 10 * time.Second
)

type Config struct {
	// Server-side settings
	DatabaseDSN string `env:"DATABASE_URI"`
	LogJSON     bool   `env:"LOG_JSON"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL      string        `env:"-"`
	UserID         int64         `env:"CLIENT_USER_ID"`
	ClientID       string        `env:"CLIENT_ID"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	Version        bool          `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://... или путь SQLite)")
	flag.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "писать логи в JSON (production encoder)")
	// Shared flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the DriveKeeper server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.Int64Var(&cfg.UserID, "user", cfg.UserID, "user id sent in X-User-ID")
	flag.StringVar(&cfg.ClientID, "client", cfg.ClientID, "client id sent in X-Client-ID (default: hostname)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "HTTP request timeout (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

// hostPortRe — BaseURL только в виде "address:port" (без схемы и пути).
var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func (cfg *Config) applyDefaults() {
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDatabaseDSN
	}
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.ClientID == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.ClientID = host
		}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
}
