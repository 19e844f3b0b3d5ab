package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	OpenAI    OpenAIConfig
	Model     ModelConfig
	Monitor   MonitorConfig
	Log       LogConfig
	Portfolio PortfolioConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	Host           string
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	PortfolioTopic string
	AlertTopic     string
	CommandTopic   string
	GroupID        string
}

// RedisConfig holds the narration cache settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// OpenAIConfig holds the narration provider settings. An empty key disables narration.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// ModelConfig locates the score model artifact: a file path or s3://bucket/key
type ModelConfig struct {
	Artifact  string
	AWSRegion string
}

// MonitorConfig holds the risk sweep schedule
type MonitorConfig struct {
	Enabled  bool
	Schedule string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Pretty bool
}

// PortfolioConfig holds the single owner's settings
type PortfolioConfig struct {
	Owner       string
	SeedOnStart bool
}

// Load reads configuration from environment variables, after a .env file if one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "portfolio"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		},
		Kafka: KafkaConfig{
			Enabled:        getEnvAsBool("KAFKA_ENABLED", true),
			Brokers:        getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			PortfolioTopic: getEnv("KAFKA_PORTFOLIO_TOPIC", "portfolio-events"),
			AlertTopic:     getEnv("KAFKA_ALERT_TOPIC", "risk-alerts"),
			CommandTopic:   getEnv("KAFKA_COMMAND_TOPIC", "trade-commands"),
			GroupID:        getEnv("KAFKA_GROUP_ID", "portfolio-advisor"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("NARRATION_CACHE_TTL", 6*time.Hour),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Model: ModelConfig{
			Artifact:  getEnv("MODEL_ARTIFACT", "models/portfolio_model.msgpack"),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		},
		Monitor: MonitorConfig{
			Enabled:  getEnvAsBool("MONITOR_ENABLED", true),
			Schedule: getEnv("MONITOR_SCHEDULE", "0 */15 * * * *"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Portfolio: PortfolioConfig{
			Owner:       getEnv("PORTFOLIO_OWNER", "Soham G"),
			SeedOnStart: getEnvAsBool("SEED_ON_START", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Model.Artifact == "" {
		return fmt.Errorf("MODEL_ARTIFACT is required")
	}
	if strings.TrimSpace(c.Portfolio.Owner) == "" {
		return fmt.Errorf("PORTFOLIO_OWNER is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Address returns host:port for the HTTP server
func (s *ServerConfig) Address() string {
	return s.Host + ":" + s.Port
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
