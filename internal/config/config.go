package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/photo-map/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Gallery  GalleryConfig  `yaml:"gallery"`
	Scan     ScanConfig     `yaml:"scan"`
	Map      MapConfig      `yaml:"map"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Web      WebConfig      `yaml:"web"`
}

type GalleryConfig struct {
	Dir string `yaml:"dir"` // where captures are saved and scans start
}

type ScanConfig struct {
	Workers     int           `yaml:"workers"`      // parallel metadata reads
	ReadTimeout time.Duration `yaml:"read_timeout"` // per photo, 0 disables
}

type MapConfig struct {
	Zoom float64 `yaml:"zoom"`
}

type DatabaseConfig struct {
	URL          string `yaml:"-"` // PostgreSQL connection URL for the media index
	MariaDBDSN   string `yaml:"-"` // MariaDB DSN, used when URL is empty
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Enabled reports whether a media index database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.MariaDBDSN != ""
}

// PoolLimits returns the connection pool sizes, falling back to the package
// defaults for unset values. Idle connections never exceed open ones.
func (c *DatabaseConfig) PoolLimits() (maxOpen, maxIdle int) {
	maxOpen, maxIdle = c.MaxOpenConns, c.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = constants.DefaultMaxOpenConns
	}
	if maxIdle <= 0 {
		maxIdle = constants.DefaultMaxIdleConns
	}
	return maxOpen, min(maxIdle, maxOpen)
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration parses a Go duration ("5s", "750ms"). Zero is accepted and
// disables the limit; negative or invalid values keep the default.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

// envFloat parses a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma separated list, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// Defaults returns the embedded defaults without looking at the environment.
func Defaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return cfg
}

func Load() *Config {
	d := Defaults()

	return &Config{
		Gallery: GalleryConfig{
			Dir: envString("GALLERY_DIR", d.Gallery.Dir),
		},
		Scan: ScanConfig{
			Workers:     envInt("SCAN_WORKERS", d.Scan.Workers),
			ReadTimeout: envDuration("SCAN_READ_TIMEOUT", d.Scan.ReadTimeout),
		},
		Map: MapConfig{
			Zoom: envFloat("MAP_ZOOM", d.Map.Zoom),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MariaDBDSN:   os.Getenv("MARIADB_DSN"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", d.Log.Level),
			Format: envString("LOG_FORMAT", d.Log.Format),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", d.Web.Host),
			Port:           envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
	}
}
