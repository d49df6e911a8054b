// config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/scraper"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig selects the provenance store. Driver "none" disables it.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, mysql, none
	Path     string `yaml:"path"`   // sqlite only
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// Enabled reports whether a store should be opened.
func (c DatabaseConfig) Enabled() bool {
	return c.Driver != "" && c.Driver != "none"
}

type DataPathsConfig struct {
	Flights     string `yaml:"flights"`
	Airports    string `yaml:"airports"`
	MasterCache string `yaml:"master_cache"`
}

type MasterConfig struct {
	URL             string        `yaml:"url"`
	FetchTimeoutStr string        `yaml:"fetch_timeout"`
	ForceRefresh    bool          `yaml:"force_refresh"`
	FetchTimeout    time.Duration `yaml:"-"` // parsed from FetchTimeoutStr
}

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Data     DataPathsConfig `yaml:"data"`
	Master   MasterConfig    `yaml:"master"`
	Logging  logger.Config   `yaml:"logging"`
}

// Default keeps every data file under data/.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "sqlite", Path: "data/flightlog.db"},
		Data: DataPathsConfig{
			Flights:     "data/my_flights.csv",
			Airports:    "data/airports.csv",
			MasterCache: "data/airports_master.csv",
		},
		Master: MasterConfig{
			URL:             scraper.DefaultMasterURL,
			FetchTimeoutStr: "60s",
		},
		Logging: logger.Config{Level: "info", Format: "console"},
	}
}

// LoadConfig reads the YAML file at configPath over the defaults, then applies
// FLIGHTLOG_* environment overrides (a .env file in the working directory is
// loaded first if present). An empty configPath uses defaults and env only.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// a missing .env is normal
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Master.FetchTimeoutStr != "" {
		d, err := time.ParseDuration(cfg.Master.FetchTimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse master.fetch_timeout: %w", err)
		}
		cfg.Master.FetchTimeout = d
	}

	if cfg.Data.Flights == "" || cfg.Data.Airports == "" || cfg.Data.MasterCache == "" {
		return nil, fmt.Errorf("data.flights, data.airports and data.master_cache must be set")
	}

	// the master cache and the sqlite file may live in directories that do not exist yet
	if err := os.MkdirAll(filepath.Dir(cfg.Data.MasterCache), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for master cache: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	overrides := map[string]*string{
		"FLIGHTLOG_PORT":          &cfg.Server.Port,
		"FLIGHTLOG_FLIGHTS":       &cfg.Data.Flights,
		"FLIGHTLOG_AIRPORTS":      &cfg.Data.Airports,
		"FLIGHTLOG_MASTER_CACHE":  &cfg.Data.MasterCache,
		"FLIGHTLOG_MASTER_URL":    &cfg.Master.URL,
		"FLIGHTLOG_FETCH_TIMEOUT": &cfg.Master.FetchTimeoutStr,
		"FLIGHTLOG_DB_DRIVER":     &cfg.Database.Driver,
		"FLIGHTLOG_DB_PATH":       &cfg.Database.Path,
		"FLIGHTLOG_DB_HOST":       &cfg.Database.Host,
		"FLIGHTLOG_DB_PORT":       &cfg.Database.Port,
		"FLIGHTLOG_DB_USER":       &cfg.Database.User,
		"FLIGHTLOG_DB_PASSWORD":   &cfg.Database.Password,
		"FLIGHTLOG_DB_NAME":       &cfg.Database.DBName,
		"FLIGHTLOG_LOG_LEVEL":     &cfg.Logging.Level,
		"FLIGHTLOG_LOG_FORMAT":    &cfg.Logging.Format,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("FLIGHTLOG_FORCE_REFRESH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FLIGHTLOG_FORCE_REFRESH %q: %w", v, err)
		}
		cfg.Master.ForceRefresh = b
	}
	return nil
}
