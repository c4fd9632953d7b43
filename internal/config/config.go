package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"keydesk/internal/domain"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Notification backends
const (
	NotifyLog      = "log"
	NotifySlack    = "slack"
	NotifyTelegram = "telegram"
)

// Config holds all application configuration
type Config struct {
	BotToken    string
	BotPassword string
	Store       string
	Database    DatabaseConfig
	Notify      NotifyConfig
	Drafts      DraftConfig
	Editor      EditorConfig

	DefaultProject domain.Project
	AutoTranslate  bool
	Notifications  bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// NotifyConfig selects where batch requests and reminders are posted
type NotifyConfig struct {
	Backend         string
	SlackWebhookURL string
	Channel         string
	Retries         uint64
}

// DraftConfig configures machine draft generation
type DraftConfig struct {
	// TranslatorURL selects the HTTP generator; empty uses the built-in stub
	TranslatorURL    string
	TranslatorAPIKey string
	Timeout          time.Duration
	Latency          time.Duration
}

// EditorConfig points batch messages at the translation editor
type EditorConfig struct {
	URL       string
	ProjectID string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		BotPassword: os.Getenv("BOT_PASSWORD"),
		Store:       getEnv("STORE_BACKEND", StoreMemory),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "keydesk"),
			User:     getEnv("DB_USER", "keydesk"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Notify: NotifyConfig{
			Backend:         getEnv("NOTIFY_BACKEND", NotifyLog),
			SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
			Channel:         getEnv("NOTIFY_CHANNEL", "#translations"),
		},
		Drafts: DraftConfig{
			TranslatorURL:    os.Getenv("TRANSLATOR_URL"),
			TranslatorAPIKey: os.Getenv("TRANSLATOR_API_KEY"),
		},
		Editor: EditorConfig{
			URL:       getEnv("POEDITOR_URL", "https://poeditor.com/projects/view"),
			ProjectID: getEnv("POEDITOR_PROJECT_ID", "123456"),
		},
	}

	var err error
	if cfg.Notify.Retries, err = getEnvUint("NOTIFY_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.Drafts.Timeout, err = getEnvDuration("DRAFT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Drafts.Latency, err = getEnvDuration("DRAFT_LATENCY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoTranslate, err = getEnvBool("AUTO_TRANSLATE", true); err != nil {
		return nil, err
	}
	if cfg.Notifications, err = getEnvBool("NOTIFICATIONS", true); err != nil {
		return nil, err
	}
	if cfg.DefaultProject, err = domain.ParseProject(getEnv("DEFAULT_PROJECT", string(domain.ProjectWeb))); err != nil {
		return nil, fmt.Errorf("DEFAULT_PROJECT: %w", err)
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.BotPassword == "" {
		return nil, fmt.Errorf("BOT_PASSWORD is required")
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required")
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.Store)
	}

	switch cfg.Notify.Backend {
	case NotifyLog:
	case NotifyTelegram:
		if _, err := strconv.ParseInt(cfg.Notify.Channel, 10, 64); err != nil {
			return nil, fmt.Errorf("NOTIFY_CHANNEL must be a numeric chat id for telegram, got %q", cfg.Notify.Channel)
		}
	case NotifySlack:
		if cfg.Notify.SlackWebhookURL == "" {
			return nil, fmt.Errorf("SLACK_WEBHOOK_URL is required")
		}
	default:
		return nil, fmt.Errorf("NOTIFY_BACKEND must be one of log, slack, telegram, got %q", cfg.Notify.Backend)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}
