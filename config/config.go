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
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Certificate CertificateConfig
	S3          S3Config
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	RabbitMQ    RabbitMQConfig
	ExpiryJob   ExpiryJobConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig only carries the verification secret. Tokens are minted by the
// identity service in front of this API.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CertificateConfig struct {
	Prefix         string // e.g. "HAL"
	ValidityMonths int
	SequenceStart  int64
	MaxAttempts    int
	PublicBaseURL  string // QR codes embed {PublicBaseURL}/verify/{number}
	APIBaseURL     string // used to build qrCodeUrl in verification payloads
	QRSize         int
	IssuerName     string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

type RabbitMQConfig struct {
	URL   string // empty disables publishing; events are logged instead
	Queue string
}

type ExpiryJobConfig struct {
	Enabled bool
	Cron    string
	Days    int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "halal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Certificate: CertificateConfig{
			Prefix:         strings.ToUpper(getEnv("CERT_PREFIX", "HAL")),
			ValidityMonths: parseInt(getEnv("CERT_VALIDITY_MONTHS", "12"), 12),
			SequenceStart:  int64(parseInt(getEnv("CERT_SEQUENCE_START", "1001"), 1001)),
			MaxAttempts:    parseInt(getEnv("CERT_MAX_NUMBER_ATTEMPTS", "5"), 5),
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
			APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
			QRSize:         parseInt(getEnv("CERT_QR_SIZE", "300"), 300),
			IssuerName:     getEnv("CERT_ISSUER_NAME", "Halal Certification Authority"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "halal-certificates"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			LockTTL:  parseDuration(getEnv("REDIS_LOCK_TTL", "10s"), 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:        parseBool(getEnv("RATE_LIMIT_ENABLED", "true")),
			Capacity:       parseInt(getEnv("RATE_LIMIT_CAPACITY", "60"), 60),
			RefillTokens:   parseInt(getEnv("RATE_LIMIT_REFILL_TOKENS", "1"), 1),
			RefillInterval: parseDuration(getEnv("RATE_LIMIT_REFILL_INTERVAL", "1s"), time.Second),
			TTL:            parseDuration(getEnv("RATE_LIMIT_TTL", "10m"), 10*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "ratelimit:verify"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_EXPIRY_QUEUE", "certificate.expiring"),
		},
		ExpiryJob: ExpiryJobConfig{
			Enabled: parseBool(getEnv("EXPIRY_NOTICE_ENABLED", "true")),
			Cron:    getEnv("EXPIRY_NOTICE_CRON", "0 6 * * *"),
			Days:    parseInt(getEnv("EXPIRY_NOTICE_DAYS", "30"), 30),
		},
	}

	if err := config.Certificate.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MaxPrefixLength matches the certificate_sequences.prefix column.
const MaxPrefixLength = 16

// Validate rejects certificate settings that would produce numbers outside
// the PREFIX-YEAR-SEQ format or artifacts below the minimum QR resolution.
func (c *CertificateConfig) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("CERT_PREFIX must not be empty")
	}
	if len(c.Prefix) > MaxPrefixLength {
		return fmt.Errorf("CERT_PREFIX must be at most %d letters, got %d", MaxPrefixLength, len(c.Prefix))
	}
	for _, r := range c.Prefix {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("CERT_PREFIX must contain only letters A-Z, got %q", c.Prefix)
		}
	}
	if c.ValidityMonths <= 0 {
		return fmt.Errorf("CERT_VALIDITY_MONTHS must be positive")
	}
	if c.SequenceStart < 0 {
		return fmt.Errorf("CERT_SEQUENCE_START must not be negative")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("CERT_MAX_NUMBER_ATTEMPTS must be positive")
	}
	if c.QRSize < 300 {
		c.QRSize = 300
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, def time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, def)
		return def
	}
	return duration
}

func parseInt(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, def)
		return def
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
