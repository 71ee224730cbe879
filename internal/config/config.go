package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Google   GoogleConfig
	Database DatabaseConfig
	Slack    SlackConfig
	JWT      JWTConfig
	Upstream UpstreamConfig
	Reminder ReminderConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	Location       *time.Location
	AllowedOrigins []string
	AsyncRangeDays int
}

type StoreConfig struct {
	Driver string
}

// GoogleConfig locates the spreadsheet used by the sheets driver.
type GoogleConfig struct {
	SheetID         string
	CredentialsFile string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SlackConfig struct {
	BotToken      string
	SigningSecret string
	ApproverIDs   []string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// UpstreamConfig bounds calls to Slack and Google.
type UpstreamConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

type ReminderConfig struct {
	Enabled bool
	Hour    int
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Debug("No .env file found, using environment only")
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FromEnv parses the environment without validating it.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	asyncRangeDays, err := getEnvInt("ASYNC_RANGE_DAYS", 14)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Manila"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
		AsyncRangeDays: asyncRangeDays,
	}
	config.App.Location, err = time.LoadLocation(config.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	config.Store = StoreConfig{
		Driver: strings.ToLower(getEnv("STORE_DRIVER", DriverSheets)),
	}

	config.Google = GoogleConfig{
		SheetID:         getEnv("GOOGLE_SHEET_ID", ""),
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
	}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.Slack = SlackConfig{
		BotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		ApproverIDs:   getEnvSlice("SLACK_APPROVER_IDS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	timeout, err := getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxRetries, err := getEnvInt("UPSTREAM_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	initialBackoff, err := getEnvDuration("UPSTREAM_INITIAL_BACKOFF", 250*time.Millisecond)
	if err != nil {
		return nil, err
	}
	config.Upstream = UpstreamConfig{
		Timeout:        timeout,
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
	}

	reminderHour, err := getEnvInt("REMINDER_HOUR", 18)
	if err != nil {
		return nil, err
	}
	remindersEnabled, err := strconv.ParseBool(getEnv("REMINDERS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDERS_ENABLED: %w", err)
	}
	config.Reminder = ReminderConfig{
		Enabled: remindersEnabled,
		Hour:    reminderHour,
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverSheets:
		if c.Google.SheetID == "" {
			errs = append(errs, fmt.Errorf("GOOGLE_SHEET_ID is required for the sheets driver"))
		}
		if c.Google.CredentialsFile == "" {
			errs = append(errs, fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required for the sheets driver"))
		}
	case DriverPostgres:
		if c.Database.Password == "" {
			errs = append(errs, fmt.Errorf("DB_PASSWORD is required for the postgres driver"))
		}
		if c.Database.Name == "" {
			errs = append(errs, fmt.Errorf("DB_NAME is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s", DriverSheets, DriverPostgres, DriverMemory))
	}

	if c.Slack.BotToken == "" {
		errs = append(errs, fmt.Errorf("SLACK_BOT_TOKEN is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET_KEY is required"))
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is not a duration: %w", err))
	}

	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error"))
	}

	if c.Reminder.Hour < 0 || c.Reminder.Hour > 23 {
		errs = append(errs, fmt.Errorf("REMINDER_HOUR must be between 0 and 23"))
	}
	if c.Upstream.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative"))
	}
	if c.App.AsyncRangeDays < 1 {
		errs = append(errs, fmt.Errorf("ASYNC_RANGE_DAYS must be at least 1"))
	}

	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.App.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
