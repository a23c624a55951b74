package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis. An empty RedisAddr selects the in-process store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret         string
	JWTExpirationDur  time.Duration
	JWTRefreshDur     time.Duration
	PasswordResetDur  time.Duration
	PipelineAPIKey    string
	RateLimitPerMin   int
	MaxLoginAttempts  int
	LoginLockDuration time.Duration

	// OTP
	OTPTTL            time.Duration
	OTPResendCooldown time.Duration
	OTPMaxAttempts    int

	// Wizard
	DraftTTL           time.Duration
	DocumentStorageDir string
	MaxDocumentBytes   int64

	// Loan
	RateCatalogPath       string
	AffordabilityDTIRatio float64
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "kpr"),
		DBPassword: getEnv("DB_PASSWORD", "kpr"),
		DBName:     getEnv("DB_NAME", "kpr"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		// JWT
		JWTSecret:         getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur:  getDuration("JWT_EXPIRES_IN", 24*time.Hour),
		JWTRefreshDur:     getDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		PasswordResetDur:  getDuration("PASSWORD_RESET_EXPIRES_IN", 15*time.Minute),
		PipelineAPIKey:    getEnv("PIPELINE_API_KEY", ""),
		RateLimitPerMin:   getInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxLoginAttempts:  getInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginLockDuration: getDuration("LOGIN_LOCK_DURATION", 15*time.Minute),

		OTPTTL:            getDuration("OTP_TTL", 5*time.Minute),
		OTPResendCooldown: getDuration("OTP_RESEND_COOLDOWN", 60*time.Second),
		OTPMaxAttempts:    getInt("OTP_MAX_ATTEMPTS", 5),

		DraftTTL:           getDuration("DRAFT_TTL", 30*24*time.Hour),
		DocumentStorageDir: getEnv("DOCUMENT_STORAGE_DIR", "./data/documents"),
		MaxDocumentBytes:   int64(getInt("MAX_DOCUMENT_MB", 2)) << 20,

		RateCatalogPath:       getEnv("RATE_CATALOG_PATH", ""),
		AffordabilityDTIRatio: getFloat("AFFORDABILITY_DTI_RATIO", 0.30),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 || f > 1 {
		log.Printf("Warning: invalid %s value '%s', falling back to %.2f\n", key, raw, defaultValue)
		return defaultValue
	}
	return f
}
