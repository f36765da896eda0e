package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. SALES_SERVER_PORT.
const EnvPrefix = "SALES"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"60s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"110s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080,http://localhost:5173"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/salespulse.log"`
}

// PathsConfig holds directory and file locations. Relative entries are
// resolved against BaseDir, which defaults to the executable directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	UploadsDir string `yaml:"uploads_dir" envconfig:"UPLOADS_DIR" default:"data/uploads"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"data/exports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	Database   string `yaml:"database" envconfig:"DATABASE" default:"data/salespulse.db"`
}

// StorageConfig tunes the SQLite connection.
type StorageConfig struct {
	BusyTimeout  time.Duration `yaml:"busy_timeout" envconfig:"BUSY_TIMEOUT" default:"5s"`
	JournalMode  string        `yaml:"journal_mode" envconfig:"JOURNAL_MODE" default:"WAL"`
	MaxOpenConns int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"1"`
}

// IngestConfig carries upload limits and the per-layout constants the
// extractors stamp onto records.
type IngestConfig struct {
	MaxUploadBytes  int64  `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	MaxFileBytes    int64  `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES" default:"20971520"`
	MaxFiles        int    `yaml:"max_files" envconfig:"MAX_FILES" default:"50"`
	HeaderScanRows  int    `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" default:"20"`
	TXTArea         string `yaml:"txt_area" envconfig:"TXT_AREA" default:"Thrissur"`
	Excel1Area      string `yaml:"excel1_area" envconfig:"EXCEL1_AREA" default:"INTERNATIONAL"`
	PDFBillPrefix   string `yaml:"pdf_bill_prefix" envconfig:"PDF_BILL_PREFIX" default:"P25"`
	PDFManufacturer string `yaml:"pdf_manufacturer" envconfig:"PDF_MANUFACTURER" default:"SHIRR PHARMACEUTICALA Pvt Ltd"`
	PDFDistributor  string `yaml:"pdf_distributor" envconfig:"PDF_DISTRIBUTOR" default:"M/S.PECHIYAPPA CHEMICALS"`
}

// CacheConfig controls the dashboard cache.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl" envconfig:"TTL" default:"10m"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"CLEANUP_INTERVAL" default:"20m"`
}

// ReportConfig controls PDF report rendering through headless Chrome.
type ReportConfig struct {
	ChromePath string        `yaml:"chrome_path" envconfig:"CHROME_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"60s"`
	Landscape  bool          `yaml:"landscape" envconfig:"LANDSCAPE" default:"false"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"salespulse"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE" default:"1"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load reads .env (if present), environment variables and an optional YAML
// file. Environment values win over the file; the file wins over defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs overlays non-zero file values onto envConfig for every field
// whose environment variable is not set.
func mergeConfigs(fileConfig, envConfig Config) Config {
	mergeStruct(reflect.ValueOf(fileConfig), reflect.ValueOf(&envConfig).Elem(), EnvPrefix)
	return envConfig
}

func mergeStruct(src, dst reflect.Value, prefix string) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := prefix + "_" + field.Tag.Get("envconfig")
		sv, dv := src.Field(i), dst.Field(i)

		if field.Type.Kind() == reflect.Struct {
			mergeStruct(sv, dv, key)
			continue
		}
		if _, set := os.LookupEnv(key); set || sv.IsZero() {
			continue
		}
		dv.Set(sv)
	}
}

// validate rejects values the server cannot run with and normalizes the rest.
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
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}
	if c.Ingest.MaxFileBytes <= 0 || c.Ingest.MaxUploadBytes <= 0 {
		return fmt.Errorf("upload size limits must be positive")
	}
	if c.Ingest.MaxFileBytes > c.Ingest.MaxUploadBytes {
		return fmt.Errorf("max file bytes (%d) exceeds max upload bytes (%d)", c.Ingest.MaxFileBytes, c.Ingest.MaxUploadBytes)
	}
	if c.Ingest.MaxFiles <= 0 {
		return fmt.Errorf("max files must be positive")
	}
	if c.Ingest.HeaderScanRows <= 0 {
		return fmt.Errorf("header scan rows must be positive")
	}
	if c.Report.Timeout <= 0 {
		return fmt.Errorf("report timeout must be positive")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate must be within [0,1]: %v", c.Telemetry.SampleRate)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}
	if !strings.EqualFold(c.Logging.Format, "text") {
		c.Logging.Format = "json"
	}
	switch strings.ToLower(c.Telemetry.TraceExporter) {
	case "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Telemetry.TraceExporter)
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/salespulse.log"
	}
	return nil
}

// getConfigFilePath returns the first config file found, or "".
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml", "../configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  110 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080", "http://localhost:5173"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			Format:   "json",
			FilePath: "logs/salespulse.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			UploadsDir: "data/uploads",
			ExportsDir: "data/exports",
			LogsDir:    "logs",
			Database:   "data/salespulse.db",
		},
		Storage: StorageConfig{
			BusyTimeout:  5 * time.Second,
			JournalMode:  "WAL",
			MaxOpenConns: 1,
		},
		Ingest: DefaultIngest(),
		Cache: CacheConfig{
			TTL:             10 * time.Minute,
			CleanupInterval: 20 * time.Minute,
		},
		Report: ReportConfig{
			Timeout: 60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "salespulse",
			TraceExporter:  "none",
			SampleRate:     1,
			MetricsEnabled: true,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}

// DefaultIngest returns the stock ingest settings.
func DefaultIngest() IngestConfig {
	return IngestConfig{
		MaxUploadBytes:  50 << 20,
		MaxFileBytes:    20 << 20,
		MaxFiles:        50,
		HeaderScanRows:  20,
		TXTArea:         "Thrissur",
		Excel1Area:      "INTERNATIONAL",
		PDFBillPrefix:   "P25",
		PDFManufacturer: "SHIRR PHARMACEUTICALA Pvt Ltd",
		PDFDistributor:  "M/S.PECHIYAPPA CHEMICALS",
	}
}
