package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "CUNYDASH"

// Dashboard variants.
const (
	VariantEnrollment = "enrollment"
	VariantRetention  = "retention"
)

// Config represents the complete application configuration.
//
// Fields carry no envconfig defaults: Default() is the single source of
// defaults, the YAML file overlays it and the environment overlays both.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	Debug           bool          `yaml:"debug" envconfig:"DEBUG"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DataConfig locates the CSV sources loaded at startup.
type DataConfig struct {
	Dir            string `yaml:"dir" envconfig:"DIR"`
	EnrollmentFile string `yaml:"enrollment_file" envconfig:"ENROLLMENT_FILE"`
	LocationFile   string `yaml:"location_file" envconfig:"LOCATION_FILE"`
	RetentionFile  string `yaml:"retention_file" envconfig:"RETENTION_FILE"`
	// EnrollmentIndexColumn drops the leading unnamed index column of the
	// enrollment export before any other processing.
	EnrollmentIndexColumn bool `yaml:"enrollment_index_column" envconfig:"ENROLLMENT_INDEX_COLUMN"`
}

// DashboardConfig holds presentation settings.
type DashboardConfig struct {
	// Variant is fixed by the binary; files and env cannot change it.
	Variant         string  `yaml:"-" ignored:"true"`
	Title           string  `yaml:"title" envconfig:"TITLE"`
	Template        string  `yaml:"template" envconfig:"TEMPLATE"`
	HistogramColor  string  `yaml:"histogram_color" envconfig:"HISTOGRAM_COLOR"`
	MarkerScale     float64 `yaml:"marker_scale" envconfig:"MARKER_SCALE"`
	ProjectionScale float64 `yaml:"projection_scale" envconfig:"PROJECTION_SCALE"`
	MapEmbedURL     string  `yaml:"map_embed_url" envconfig:"MAP_EMBED_URL"`
	ChartWidth      int     `yaml:"chart_width" envconfig:"CHART_WIDTH"`
	ChartHeight     int     `yaml:"chart_height" envconfig:"CHART_HEIGHT"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"` // "prometheus", "none"
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`   // "stdout", "none"
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load loads configuration for the given dashboard variant from defaults,
// an optional YAML file and the environment (including a .env file).
func Load(variant string) (*Config, error) {
	loadDotEnv()

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	cfg.Dashboard.Variant = variant

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the first .env file found. Existing environment values win.
func loadDotEnv() {
	locations := []string{
		".env",
		"configs/.env",
		"../configs/.env",
	}
	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			slog.Debug("Loaded environment file", slog.String("path", location))
			return
		}
	}
}

// loadFromFile overlays YAML configuration onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive")
	}

	switch c.Dashboard.Variant {
	case VariantEnrollment:
	case VariantRetention:
		if c.Data.RetentionFile == "" {
			return fmt.Errorf("retention dashboard requires a retention file")
		}
	default:
		return fmt.Errorf("unknown dashboard variant: %q", c.Dashboard.Variant)
	}

	if c.Data.EnrollmentFile == "" || c.Data.LocationFile == "" {
		return fmt.Errorf("enrollment and location files must be configured")
	}

	if c.Dashboard.MarkerScale <= 0 {
		return fmt.Errorf("marker scale must be positive, got %v", c.Dashboard.MarkerScale)
	}

	if c.Dashboard.ChartWidth <= 0 || c.Dashboard.ChartHeight <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive when enabled")
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EnrollmentPath returns the resolved enrollment CSV path
func (c *Config) EnrollmentPath() string {
	return c.resolveDataPath(c.Data.EnrollmentFile)
}

// LocationPath returns the resolved location CSV path
func (c *Config) LocationPath() string {
	return c.resolveDataPath(c.Data.LocationFile)
}

// RetentionPath returns the resolved retention CSV path. It is empty for the
// enrollment dashboard, which never reads retention data.
func (c *Config) RetentionPath() string {
	if c.Dashboard.Variant != VariantRetention {
		return ""
	}
	return c.resolveDataPath(c.Data.RetentionFile)
}

func (c *Config) resolveDataPath(name string) string {
	if name == "" || filepath.IsAbs(name) || c.Data.Dir == "" {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8050,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  10 * time.Second,
			Debug:           true,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Data: DataConfig{
			Dir:                   "",
			EnrollmentFile:        "cuny_attendance.csv",
			LocationFile:          "college_location.csv",
			RetentionFile:         "cuny_retention.csv",
			EnrollmentIndexColumn: true,
		},
		Dashboard: DashboardConfig{
			Variant:         VariantEnrollment,
			Title:           "College Data",
			Template:        "plotly_dark",
			HistogramColor:  "#98FB98",
			MarkerScale:     500,
			ProjectionScale: 10,
			ChartWidth:      1024,
			ChartHeight:     480,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "cunydash",
			Environment:    "development",
			MetricExporter: "prometheus",
			TraceExporter:  "none",
			SampleRatio:    1.0,
		},
	}
}
