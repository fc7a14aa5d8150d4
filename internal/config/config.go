package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/models"
)

type Config struct {
	PORT          string
	DATABASE_URL  string
	DATABASE_PATH string
	JWT_SECRET    string
	TOKEN_TTL     time.Duration
	SMTP_HOST     string
	SMTP_PORT     string
	SMTP_USER     string
	SMTP_PASSWORD string
	MAIL_FROM     string
	KAFKA_ADDRESS string
	ES_URL        string
	ES_USER       string
	ES_PASSWORD   string
	STATIC_DIR    string
	BASE_URL      string
	LOG_LEVEL     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:          getenvDefault("PORT", "8000"),
		DATABASE_URL:  os.Getenv("DATABASE_URL"),
		DATABASE_PATH: getenvDefault("DATABASE_PATH", "database.sqlite3"),
		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		TOKEN_TTL:     parseTTL(os.Getenv("TOKEN_TTL")),
		SMTP_HOST:     getenvDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTP_PORT:     getenvDefault("SMTP_PORT", "587"),
		SMTP_USER:     os.Getenv("SMTP_USER"),
		SMTP_PASSWORD: os.Getenv("SMTP_PASSWORD"),
		MAIL_FROM:     os.Getenv("MAIL_FROM"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		ES_URL:        os.Getenv("ES_URL"),
		ES_USER:       os.Getenv("ES_USER"),
		ES_PASSWORD:   os.Getenv("ES_PASSWORD"),
		STATIC_DIR:    getenvDefault("STATIC_DIR", "static"),
		BASE_URL:      getenvDefault("BASE_URL", "http://localhost:8000"),
		LOG_LEVEL:     getenvDefault("LOG_LEVEL", "info"),
	}

	if config.MAIL_FROM == "" {
		config.MAIL_FROM = config.SMTP_USER
	}

	return config, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Tokens stay valid for 24h unless TOKEN_TTL overrides it.
func parseTTL(raw string) time.Duration {
	if raw == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Notice: invalid TOKEN_TTL %q, falling back to 24h", raw)
		return 24 * time.Hour
	}
	return d
}

// InitDB opens postgres when DATABASE_URL is set, a local sqlite file otherwise.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.DATABASE_URL != "" {
		dialector = postgres.Open(cfg.DATABASE_URL)
	} else {
		dialector = sqlite.Open(cfg.DATABASE_PATH)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Business{}, &models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
