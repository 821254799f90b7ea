package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `json:"server"`
	Database      DatabaseConfig      `json:"database"`
	Logging       LoggingConfig       `json:"logging"`
	Storage       StorageConfig       `json:"storage"`
	Notifications NotificationsConfig `json:"notifications"`
	Cache         CacheConfig         `json:"cache"`
	Scheduler     SchedulerConfig     `json:"scheduler"`
	RateLimit     RateLimitConfig     `json:"rate_limit"`
	Financing     FinancingConfig     `json:"financing"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Mode           string        `json:"mode"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
	AllowedOrigins []string      `json:"allowed_origins"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	AutoMigrate    bool          `json:"auto_migrate"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// StorageConfig configures the S3 bucket for proposals and exports.
// An empty bucket keeps documents in memory.
type StorageConfig struct {
	Bucket          string        `json:"bucket"`
	Region          string        `json:"region"`
	Endpoint        string        `json:"endpoint"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	UsePathStyle    bool          `json:"use_path_style"`
	PresignTTL      time.Duration `json:"presign_ttl"`
}

// NotificationsConfig
type NotificationsConfig struct {
	Region      string `json:"region"`
	EmailSender string `json:"email_sender"`
	SMSEnabled  bool   `json:"sms_enabled"`
}

// CacheConfig selects the dashboard cache backend
type CacheConfig struct {
	Backend       string        `json:"backend"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	TTL           time.Duration `json:"ttl"`
}

// SchedulerConfig holds cron specs for background jobs
type SchedulerConfig struct {
	AggregateRefreshSpec string        `json:"aggregate_refresh_spec"`
	NightlyExportSpec    string        `json:"nightly_export_spec"`
	JobTimeout           time.Duration `json:"job_timeout"`
	WorkerInterval       time.Duration `json:"worker_interval"`
}

// RateLimitConfig configures the public POST rate limiter
type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Capacity int           `json:"capacity"`
	Refill   time.Duration `json:"refill"`
}

// FinancingConfig overrides the vehicle rate tiers, in percent per month
type FinancingConfig struct {
	VehicleRates map[int]float64 `json:"vehicle_rates"`
}

// Default returns the configuration used before file and environment overrides
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Mode:           "debug",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			DBName:         "simulation_portal",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    5 * time.Minute,
			AutoMigrate:    true,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Development: true,
		},
		Storage: StorageConfig{
			Region:     "sa-east-1",
			PresignTTL: 15 * time.Minute,
		},
		Notifications: NotificationsConfig{
			Region: "sa-east-1",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     5 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			AggregateRefreshSpec: "0 */5 * * * *",
			NightlyExportSpec:    "0 0 2 * * *",
			JobTimeout:           10 * time.Minute,
			WorkerInterval:       time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Capacity: 30,
			Refill:   2 * time.Second,
		},
	}
}

// LoadConfig loads configuration from defaults, the file, a .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

func overrideWithEnv(config *Config) error {
	setString(&config.Server.Host, "SERVER_HOST")
	setInt(&config.Server.Port, "SERVER_PORT")
	setString(&config.Server.Mode, "GIN_MODE")
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")
	setBool(&config.Database.AutoMigrate, "DATABASE_AUTO_MIGRATE")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setBool(&config.Logging.Development, "LOG_DEVELOPMENT")

	setString(&config.Storage.Bucket, "S3_BUCKET")
	setString(&config.Storage.Region, "AWS_REGION")
	setString(&config.Storage.Endpoint, "S3_ENDPOINT")
	setString(&config.Storage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&config.Storage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setBool(&config.Storage.UsePathStyle, "S3_USE_PATH_STYLE")
	setDuration(&config.Storage.PresignTTL, "S3_PRESIGN_TTL")

	setString(&config.Notifications.Region, "AWS_REGION")
	setString(&config.Notifications.EmailSender, "SES_SENDER")
	setBool(&config.Notifications.SMSEnabled, "SNS_SMS_ENABLED")

	setString(&config.Cache.Backend, "CACHE_BACKEND")
	setString(&config.Cache.RedisAddr, "REDIS_ADDR")
	setString(&config.Cache.RedisPassword, "REDIS_PASSWORD")
	setInt(&config.Cache.RedisDB, "REDIS_DB")
	setDuration(&config.Cache.TTL, "CACHE_TTL")

	setString(&config.Scheduler.AggregateRefreshSpec, "SCHEDULE_AGGREGATE_REFRESH")
	setString(&config.Scheduler.NightlyExportSpec, "SCHEDULE_NIGHTLY_EXPORT")
	setDuration(&config.Scheduler.JobTimeout, "SCHEDULE_JOB_TIMEOUT")
	setDuration(&config.Scheduler.WorkerInterval, "WORKER_INTERVAL")

	setBool(&config.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	setInt(&config.RateLimit.Capacity, "RATE_LIMIT_CAPACITY")
	setDuration(&config.RateLimit.Refill, "RATE_LIMIT_REFILL")

	if raw := os.Getenv("FINANCING_VEHICLE_RATES"); raw != "" {
		rates, err := ParseRates(raw)
		if err != nil {
			return fmt.Errorf("failed to parse FINANCING_VEHICLE_RATES: %w", err)
		}
		config.Financing.VehicleRates = rates
	}

	return nil
}

// ParseRates reads "12:1.29,24:1.39" into a term to percent map
func ParseRates(raw string) (map[int]float64, error) {
	rates := make(map[int]float64)
	for _, pair := range strings.Split(raw, ",") {
		term, rate, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("invalid rate entry %q", pair)
		}
		months, err := strconv.Atoi(strings.TrimSpace(term))
		if err != nil {
			return nil, fmt.Errorf("invalid term in %q: %w", pair, err)
		}
		percent, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate in %q: %w", pair, err)
		}
		rates[months] = percent
	}
	return rates, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
