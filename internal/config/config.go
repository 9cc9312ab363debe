package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-wide configuration, loaded once at startup.
type Config struct {
	Environment string

	Server        ServerConfig
	Scylla        ScyllaConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	Clickhouse    ClickhouseConfig
	JWT           JWTConfig
	Hashing       HashingConfig
	OTP           OTPConfig
	SMS           SMSConfig
	Upload        UploadConfig
	Bucketing     BucketingConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
	EnableTLS      bool
	CertFile       string
	KeyFile        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type ScyllaConfig struct {
	Nodes    []string
	Keyspace string
	Username string
	Password string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ElasticsearchConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

type ClickhouseConfig struct {
	URL      string
	Database string
	Username string
	Password string
}

// JWTConfig configures the session token issuer. The secret is read-only
// after startup; rotating it invalidates every outstanding token.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type HashingConfig struct {
	BcryptCost int
}

type OTPConfig struct {
	TTL        time.Duration
	CodeLength int
}

type SMSConfig struct {
	APIKey  string
	BaseURL string
	Route   string
	Timeout time.Duration
}

type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

type BucketingConfig struct {
	UserBuckets int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is merged in first, matching the original deployment
// setup.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 4000),
			AllowedOrigins: getEnvList("SERVER_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),
			EnableTLS:      getEnvBool("SERVER_ENABLE_TLS", false),
			CertFile:       getEnv("SERVER_CERT_FILE", ""),
			KeyFile:        getEnv("SERVER_KEY_FILE", ""),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Scylla: ScyllaConfig{
			Nodes:    getEnvList("SCYLLA_NODES", []string{"127.0.0.1:9042"}),
			Keyspace: getEnv("SCYLLA_KEYSPACE", "signals"),
			Username: getEnv("SCYLLA_USERNAME", ""),
			Password: getEnv("SCYLLA_PASSWORD", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 50),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_AUTH_TOPIC", "auth-events"),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:      getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username: getEnv("ELASTICSEARCH_USERNAME", ""),
			Password: getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:    getEnv("ELASTICSEARCH_SIGNAL_INDEX", "signals"),
		},
		Clickhouse: ClickhouseConfig{
			URL:      getEnv("CLICKHOUSE_URL", "localhost:9000"),
			Database: getEnv("CLICKHOUSE_DATABASE", "audit"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("JWT_TTL", time.Hour),
		},
		Hashing: HashingConfig{
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
		},
		OTP: OTPConfig{
			TTL:        getEnvDuration("OTP_TTL", 10*time.Minute),
			CodeLength: getEnvInt("OTP_CODE_LENGTH", 6),
		},
		SMS: SMSConfig{
			APIKey:  getEnv("SMS_API_KEY", ""),
			BaseURL: getEnv("SMS_BASE_URL", "https://www.fast2sms.com/dev/bulkV2"),
			Route:   getEnv("SMS_ROUTE", "otp"),
			Timeout: getEnvDuration("SMS_TIMEOUT", 10*time.Second),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeBytes: int64(getEnvInt("UPLOAD_MAX_SIZE_BYTES", 10<<20)),
		},
		Bucketing: BucketingConfig{
			UserBuckets: getEnvInt("USER_BUCKETS", 64),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Hashing.BcryptCost < 10 {
		return fmt.Errorf("BCRYPT_COST must be at least 10, got %d", c.Hashing.BcryptCost)
	}
	if c.OTP.CodeLength < 4 {
		return fmt.Errorf("OTP_CODE_LENGTH must be at least 4, got %d", c.OTP.CodeLength)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
