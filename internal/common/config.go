package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Mail     MailConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Ledger   LedgerConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// MailConfig holds IMAP-related configuration
type MailConfig struct {
	Addr     string // host:port, TLS
	Username string
	Password string
	Folder   string
	Timeout  time.Duration
}

// OCRConfig holds text-acquisition configuration
type OCRConfig struct {
	Vendor        string // auto | tesseract | cloud
	Tesseract     string // binary name or absolute path
	TessdataDir   string
	Languages     string // tesseract language set, e.g. "eng" or "eng+nor"
	CloudEndpoint string
	CloudAPIKey   string
	Timeout       time.Duration
}

// LLMConfig holds normalization-service configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
	RetryBase   time.Duration
	RetryCap    time.Duration
}

// LedgerConfig holds the accounts and warehouse the proposal builder targets
type LedgerConfig struct {
	PayableAccount   string
	InventoryAccount string
	ExpenseAccount   string
	Warehouse        string
	HomeCurrency     string
}

// IngestConfig bounds a mail batch run
type IngestConfig struct {
	FileDir        string
	SubjectFilter  string
	FromFilter     string
	MaxMessages    int
	MaxAttachments int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Mail: MailConfig{
			Addr:     getEnv("IMAP_ADDR", ""),
			Username: getEnv("IMAP_USERNAME", ""),
			Password: getEnv("IMAP_PASSWORD", ""),
			Folder:   getEnv("IMAP_FOLDER", "INBOX"),
			Timeout:  getEnvAsDuration("IMAP_TIMEOUT", 30*time.Second),
		},
		OCR: OCRConfig{
			Vendor:        getEnv("OCR_VENDOR", "auto"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			Languages:     getEnv("OCR_LANGS", "eng"),
			CloudEndpoint: getEnv("CLOUD_OCR_ENDPOINT", "https://api.ocr.space/parse/image"),
			CloudAPIKey:   getEnv("CLOUD_OCR_API_KEY", ""),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxAttempts: getEnvAsInt("OPENAI_MAX_ATTEMPTS", 3),
			RetryBase:   getEnvAsDuration("OPENAI_RETRY_BASE", 500*time.Millisecond),
			RetryCap:    getEnvAsDuration("OPENAI_RETRY_CAP", 8*time.Second),
		},
		Ledger: LedgerConfig{
			PayableAccount:   getEnv("LEDGER_PAYABLE_ACCOUNT", "2400"),
			InventoryAccount: getEnv("LEDGER_INVENTORY_ACCOUNT", "1460"),
			ExpenseAccount:   getEnv("LEDGER_EXPENSE_ACCOUNT", "4300"),
			Warehouse:        getEnv("MAIN_WAREHOUSE", "MAIN"),
			HomeCurrency:     getEnv("HOME_CURRENCY", "NOK"),
		},
		Ingest: IngestConfig{
			FileDir:        getEnv("FILE_DIR", "./files"),
			SubjectFilter:  getEnv("MAIL_SUBJECT_FILTER", ""),
			FromFilter:     getEnv("MAIL_FROM_FILTER", ""),
			MaxMessages:    getEnvAsInt("MAIL_MAX_MESSAGES", 25),
			MaxAttachments: getEnvAsInt("MAIL_MAX_ATTACHMENTS", 10),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration for the pieces that have no
// sensible fallback. The LLM key is deliberately NOT required: an absent
// credential switches the pipeline to heuristics-only mode.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfigError, "DB_URL is required", ErrInvalidInput)
	}
	if c.Mail.Addr == "" {
		return NewAppError(CodeConfigError, "IMAP_ADDR is required", ErrInvalidInput)
	}
	if c.Mail.Username == "" || c.Mail.Password == "" {
		return NewAppError(CodeConfigError, "IMAP_USERNAME and IMAP_PASSWORD are required", ErrInvalidInput)
	}
	return nil
}
