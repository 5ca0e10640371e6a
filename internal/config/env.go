package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	WebDir         string
	LogLevel       string

	AIAPIKey       string
	GenModel       string
	BackendRPM     int
	BackendTimeout time.Duration

	JWTSecret  string
	ReglinkKey string

	DatabaseURL string
	SslCertPath string

	IdentityStore string // memory | sqlite | s3
	SQLitePath    string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	SheetsCredentialsFile string
	SheetID               string
	SheetName             string

	AdvisorPhone string
	MaxMessages  int
	FormDelay    time.Duration
	SessionTTL   time.Duration

	CatalogPath  string
	CatalogS3Key string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		WebDir:         getEnv("WEB_DIR", "./web"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GenModel:       getEnv("GEN_MODEL", "gemini-1.5-flash"),
		BackendRPM:     getEnvInt("BACKEND_RPM", 5),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 2*time.Minute),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		ReglinkKey: getEnv("REGLINK_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),

		IdentityStore: getEnv("IDENTITY_STORE", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "./data/identities.db"),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "alemana-chat"),

		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
		SheetID:               getEnv("SHEET_ID", ""),
		SheetName:             getEnv("SHEET_NAME", "ControlAccesoWeb"),

		AdvisorPhone: getEnv("ADVISOR_PHONE", "593968676893"),
		MaxMessages:  getEnvInt("MAX_MESSAGES", 20),
		FormDelay:    getEnvDuration("FORM_DELAY", 1500*time.Millisecond),
		SessionTTL:   getEnvDuration("SESSION_TTL", 2*time.Hour),

		CatalogPath:  getEnv("CATALOG_PATH", ""),
		CatalogS3Key: getEnv("CATALOG_S3_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings every deployment needs.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.AIAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.MaxMessages <= 0 {
		return fmt.Errorf("MAX_MESSAGES must be > 0")
	}
	if c.AdvisorPhone == "" {
		return fmt.Errorf("ADVISOR_PHONE cannot be empty")
	}
	switch c.IdentityStore {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty")
		}
	case "s3":
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME cannot be empty")
		}
	default:
		return fmt.Errorf("IDENTITY_STORE %q is not one of memory, sqlite, s3", c.IdentityStore)
	}
	return nil
}

// SheetsEnabled reports whether the spreadsheet registrar is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsCredentialsFile != "" && c.SheetID != ""
}

// DatabaseEnabled reports whether the hosted registration database is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
