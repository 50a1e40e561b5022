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

type HTTPConfig struct {
	Port        string
	Mode        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN assembles the postgres connection string
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig drives the token bucket on sensitive routes
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type OTPConfig struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

type UploadConfig struct {
	MaxBytes int64
}

// Config is loaded once in main and passed down explicitly
type Config struct {
	HTTP       HTTPConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	RabbitMQ   RabbitMQConfig
	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
	Admin      AdminConfig
	OTP        OTPConfig
	Upload     UploadConfig
}

// Load reads configs/.env (optional) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:        getEnv("PORT", "8080"),
			Mode:        getEnv("GIN_MODE", "debug"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "handyhub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			AccessTTL:  getDuration("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getBool("RATE_LIMIT_ENABLED", true),
			Capacity:       getInt("RATE_LIMIT_CAPACITY", 10),
			RefillTokens:   getInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: getDuration("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
			TTL:            getDuration("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "handyhub:rl"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   os.Getenv("RABBITMQ_URL"),
			Queue: getEnv("RABBITMQ_EMAIL_QUEUE", "notifications.email"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "HandyHub <no-reply@handyhub.local>"),
			Timeout:  getDuration("SMTP_TIMEOUT", 15*time.Second),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_FOLDER", "handyhub"),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "HandyHub Admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@handyhub.local"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		OTP: OTPConfig{
			TTL:            getDuration("OTP_TTL", 10*time.Minute),
			MaxAttempts:    getInt("OTP_MAX_ATTEMPTS", 3),
			ResendCooldown: getDuration("OTP_RESEND_COOLDOWN", time.Minute),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getInt("UPLOAD_MAX_BYTES", 5<<20)),
		},
	}

	if cfg.JWT.Secret == "" {
		if cfg.HTTP.Mode == "release" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		cfg.JWT.Secret = "default_super_secret_key" // development fallback only
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("config: invalid integer for %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("config: invalid duration for %s=%q, using %s", key, v, fallback)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
