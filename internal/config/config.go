package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Port        string
	DBPath      string
	LogLevel    string
	LogFile     LogFileConfig
	MaxFileSize int64

	// Login
	LoginUsername     string
	LoginPassword     string
	LoginPasswordHash string

	// Storage
	StorageBackend string // "local" | "s3"
	UploadDir      string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	Scan       ScanConfig
	Classifier ClassifierConfig
}

type LogFileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ScanConfig holds the title-block heuristic and rendering settings.
type ScanConfig struct {
	RegionWidth  float64
	RegionHeight float64
	RegionAnchor string
	SheetPattern string
	RenderDPI    float64
	ThumbnailDPI float64
}

type ClassifierConfig struct {
	Provider      string // "openai" | "gemini"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
	Timeout       time.Duration
	MaxTokens     int
	MaxImageSide  int
	Concurrency   int
	RedisURL      string
	CacheTTL      time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8000"),
		DBPath:   getEnv("DATABASE_PATH", "database.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile: LogFileConfig{
			Path:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
			MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
			MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
			Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
		},
		MaxFileSize:       int64(parseInt(getEnv("MAX_UPLOAD_MB", "50"), 50)) << 20,
		LoginUsername:     getEnv("LOGIN_USERNAME", "admin"),
		LoginPassword:     getEnv("LOGIN_PASSWORD", ""),
		LoginPasswordHash: getEnv("LOGIN_PASSWORD_HASH", ""),
		StorageBackend:    strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "drawings"),
		S3UseSSL:          parseBool(getEnv("S3_USE_SSL", "false")),
		Scan: ScanConfig{
			RegionWidth:  parseFloat(getEnv("REGION_WIDTH", "200"), 200),
			RegionHeight: parseFloat(getEnv("REGION_HEIGHT", "100"), 100),
			RegionAnchor: getEnv("REGION_ANCHOR", "bottom-right"),
			SheetPattern: getEnv("SHEET_PATTERN", `(?i)\bP[A-Za-z0-9]*\d+`),
			RenderDPI:    parseFloat(getEnv("RENDER_DPI", "100"), 100),
			ThumbnailDPI: parseFloat(getEnv("THUMBNAIL_DPI", "40"), 40),
		},
		Classifier: ClassifierConfig{
			Provider:      strings.ToLower(getEnv("CLASSIFIER_PROVIDER", "openai")),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
			GeminiAPIKey:  getEnv("GOOGLE_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:       parseDuration(getEnv("CLASSIFIER_TIMEOUT", "10s"), 10*time.Second),
			MaxTokens:     parseInt(getEnv("CLASSIFIER_MAX_TOKENS", "100"), 100),
			MaxImageSide:  parseInt(getEnv("MAX_IMAGE_SIDE", "800"), 800),
			Concurrency:   parseInt(getEnv("CLASSIFY_CONCURRENCY", "1"), 1),
			RedisURL:      getEnv("REDIS_URL", ""),
			CacheTTL:      parseDuration(getEnv("CLASSIFIER_CACHE_TTL", "168h"), 168*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings that would otherwise fail late, at first upload.
func (c *Config) Validate() error {
	switch c.Classifier.Provider {
	case ProviderOpenAI:
		if c.Classifier.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderGemini:
		if c.Classifier.GeminiAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required")
		}
	default:
		return fmt.Errorf("unsupported CLASSIFIER_PROVIDER %q", c.Classifier.Provider)
	}

	switch c.StorageBackend {
	case StorageLocal, StorageS3:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.Scan.RegionWidth <= 0 || c.Scan.RegionHeight <= 0 {
		return fmt.Errorf("REGION_WIDTH and REGION_HEIGHT must be positive")
	}
	if _, err := regexp.Compile(c.Scan.SheetPattern); err != nil {
		return fmt.Errorf("invalid SHEET_PATTERN: %w", err)
	}
	if c.Scan.RenderDPI <= 0 || c.Scan.ThumbnailDPI <= 0 {
		return fmt.Errorf("RENDER_DPI and THUMBNAIL_DPI must be positive")
	}
	if c.Classifier.MaxImageSide <= 0 {
		return fmt.Errorf("MAX_IMAGE_SIDE must be positive")
	}
	if c.Classifier.Concurrency < 1 {
		c.Classifier.Concurrency = 1
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		return d
	}
	return def
}
