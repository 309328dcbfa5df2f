package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"sspyviz/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Storage    StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Datasets   DatasetsConfig   `yaml:"datasets" envconfig:"DATASETS"`
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration. Relative
// directories are resolved against BaseDir, or the executable's directory
// when BaseDir is empty.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	CacheDir   string `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// StorageConfig selects where loaded datasets are kept
type StorageConfig struct {
	Driver          string `yaml:"driver" envconfig:"DRIVER"`
	SQLitePath      string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	ResultCacheSize int    `yaml:"result_cache_size" envconfig:"RESULT_CACHE_SIZE"`
}

// DatasetsConfig locates the bundled datasets
type DatasetsConfig struct {
	ISDURL       string        `yaml:"isd_url" envconfig:"ISD_URL"`
	ISDPath      string        `yaml:"isd_path" envconfig:"ISD_PATH"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
}

// ValidationConfig holds the default pipeline parameters
type ValidationConfig struct {
	PAQMin        float64           `yaml:"paq_min" envconfig:"PAQ_MIN"`
	PAQMax        float64           `yaml:"paq_max" envconfig:"PAQ_MAX"`
	PAQAliases    map[string]string `yaml:"paq_aliases" envconfig:"PAQ_ALIASES"`
	IDColumn      string            `yaml:"id_column" envconfig:"ID_COLUMN"`
	RejectUniform bool              `yaml:"reject_uniform" envconfig:"REJECT_UNIFORM"`
}

// TelemetryConfig switches tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Range returns the configured PAQ response range
func (v ValidationConfig) Range() domain.ValueRange {
	return domain.ValueRange{Min: v.PAQMin, Max: v.PAQMax}
}

// Aliases resolves the configured PAQ columns, keyed by attribute name, over
// the defaults
func (v ValidationConfig) Aliases() (domain.PAQAliases, error) {
	aliases, err := domain.DefaultPAQAliases().Override(v.PAQAliases)
	if err != nil {
		return aliases, fmt.Errorf("paq_aliases: %w", err)
	}
	return aliases, nil
}

// Load reads configuration from the first config file found and the environment
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom builds the configuration in layers: defaults, then the YAML file at
// path (if any), then SSPY_* environment variables.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage driver sqlite requires sqlite_path")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Storage.ResultCacheSize < 0 {
		return fmt.Errorf("result cache size must not be negative")
	}

	if !(c.Validation.PAQMin < c.Validation.PAQMax) {
		return fmt.Errorf("paq_min %g must be less than paq_max %g", c.Validation.PAQMin, c.Validation.PAQMax)
	}

	if _, err := c.Validation.Aliases(); err != nil {
		return err
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Format = strings.ToLower(c.Logging.Format); c.Logging.Format {
	case "json", "text":
	default:
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
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

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			Output:      "console",
			FilePath:    "logs/app.log",
			Development: true,
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			CacheDir:   DefaultCacheDir,
			ExportsDir: DefaultExportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Storage: StorageConfig{
			Driver:          StorageMemory,
			SQLitePath:      "data/datasets.db",
			ResultCacheSize: DefaultResultCacheSize,
		},
		Datasets: DatasetsConfig{
			ISDPath:      DefaultISDPath,
			FetchTimeout: DefaultFetchTimeout,
		},
		Validation: ValidationConfig{
			PAQMin: 1,
			PAQMax: 5,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TracingEnabled: false,
			TraceExporter:  "stdout",
			MetricsEnabled: true,
		},
	}
}
