package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Redis       RedisConfig
	Analyzer    AnalyzerConfig
	Extraction  ExtractionConfig
	Documents   DocumentsConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int

	// ChannelPrefix namespaces progress channels on a shared Redis
	ChannelPrefix string
}

// AnalyzerConfig holds the external text analyzer configuration
type AnalyzerConfig struct {
	Enabled        bool
	URL            string
	Model          string
	Token          string
	ProbeTimeout   time.Duration
	Timeout        time.Duration
	Temperature    float64
	MaxTokens      int
	MaxPromptChars int
}

// ExtractionConfig holds pattern extraction configuration
type ExtractionConfig struct {
	// PatternsFile overrides the embedded pattern table when set
	PatternsFile string
	// EntityRecognition enables NER for names and organizations
	EntityRecognition bool
}

// DocumentsConfig holds document upload configuration
type DocumentsConfig struct {
	UploadMaxMB   int
	PDFLicenseKey string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),

			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", ""),
		},
		Analyzer: AnalyzerConfig{
			Enabled:        getEnvAsBool("ANALYZER_ENABLED", true),
			URL:            getEnv("ANALYZER_URL", "http://localhost:11434"),
			Model:          getEnv("ANALYZER_MODEL", "llama3.1:latest"),
			Token:          getEnv("ANALYZER_TOKEN", ""),
			ProbeTimeout:   getEnvAsMillis("ANALYZER_PROBE_TIMEOUT_MS", 5000),
			Timeout:        getEnvAsMillis("ANALYZER_TIMEOUT_MS", 30000),
			Temperature:    getEnvAsFloat("ANALYZER_TEMPERATURE", 0.3),
			MaxTokens:      getEnvAsInt("ANALYZER_MAX_TOKENS", 512),
			MaxPromptChars: getEnvAsInt("ANALYZER_MAX_PROMPT_CHARS", 6000),
		},
		Extraction: ExtractionConfig{
			PatternsFile:      getEnv("EXTRACTION_PATTERNS_FILE", ""),
			EntityRecognition: getEnvAsBool("EXTRACTION_NER_ENABLED", true),
		},
		Documents: DocumentsConfig{
			UploadMaxMB:   getEnvAsInt("UPLOAD_MAX_MB", 20),
			PDFLicenseKey: getEnv("PDF_LICENSE_KEY", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medicaid-docextract"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the service unusable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Analyzer.Enabled && c.Analyzer.URL == "" {
		return fmt.Errorf("ANALYZER_URL is required when the analyzer is enabled")
	}
	if c.Analyzer.ProbeTimeout <= 0 || c.Analyzer.Timeout <= 0 {
		return fmt.Errorf("analyzer timeouts must be positive")
	}
	if c.Analyzer.MaxPromptChars <= 0 {
		return fmt.Errorf("invalid ANALYZER_MAX_PROMPT_CHARS %d", c.Analyzer.MaxPromptChars)
	}
	if c.Documents.UploadMaxMB <= 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_MB %d", c.Documents.UploadMaxMB)
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerAddr returns the HTTP listen address
func (c *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UploadMaxBytes returns the upload limit in bytes
func (c *DocumentsConfig) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}
