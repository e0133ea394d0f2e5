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

// Config holds all configuration for the application
type Config struct {
	AppMode    string
	Port       string
	Database   DatabaseConfig
	JWT        JWTConfig
	Reminder   ReminderConfig
	AI         AIConfig
	WhatsApp   WhatsAppConfig
	Redis      RedisConfig
	LineNotify LineNotifyConfig
	Seed       SeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// ReminderConfig holds loan reminder scheduling configuration
type ReminderConfig struct {
	Enabled    bool
	Cron       string // standard 5-field cron spec, evaluated in Location
	Location   *time.Location
	CronSecret string // shared secret for the internal trigger endpoint
	Signature  string // appended to outbound messages
}

// AIConfig holds text-generation configuration
type AIConfig struct {
	GeminiAPIKey string
	Model        string
	BaseURL      string
	Timeout      time.Duration
}

// WhatsApp delivery modes
const (
	WhatsAppModeCloud  = "cloud"
	WhatsAppModeDevice = "device"
	WhatsAppModeOff    = "off"
)

// WhatsAppConfig holds WhatsApp delivery configuration
type WhatsAppConfig struct {
	Mode              string
	CloudToken        string
	PhoneNumberID     string
	CloudBaseURL      string
	DeviceStorePath   string
	MessagesPerSecond float64
}

// RedisConfig holds Redis configuration for the reminder run lock
type RedisConfig struct {
	URL     string // empty disables the lock
	LockTTL time.Duration
}

// LineNotifyConfig holds the staff LINE Notify configuration
type LineNotifyConfig struct {
	Token string
}

// SeedConfig holds initial data configuration
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	DemoData      bool
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	reminder, err := loadReminderConfig()
	if err != nil {
		return nil, err
	}

	whatsapp, err := loadWhatsAppConfig()
	if err != nil {
		return nil, err
	}

	// Build config based on APP_MODE
	config := &Config{
		AppMode:    appMode,
		Port:       getEnv("PORT", "3000"),
		Database:   loadDatabaseConfig(appMode),
		JWT:        loadJWTConfig(appMode),
		Reminder:   reminder,
		AI:         loadAIConfig(),
		WhatsApp:   whatsapp,
		Redis:      loadRedisConfig(),
		LineNotify: LineNotifyConfig{Token: getEnv("LINE_NOTIFY_TOKEN", "")},
		Seed:       loadSeedConfig(appMode),
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "posdesk"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "480"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

// loadReminderConfig loads the reminder schedule
func loadReminderConfig() (ReminderConfig, error) {
	tz := getEnv("REMINDER_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return ReminderConfig{}, fmt.Errorf("invalid REMINDER_TIMEZONE '%s': %w", tz, err)
	}

	enabled, _ := strconv.ParseBool(getEnv("REMINDER_ENABLED", "true"))

	return ReminderConfig{
		Enabled:    enabled,
		Cron:       getEnv("REMINDER_CRON", "30 8 * * *"),
		Location:   loc,
		CronSecret: getEnv("REMINDER_CRON_SECRET", ""),
		Signature:  getEnv("REMINDER_SIGNATURE", ""),
	}, nil
}

// loadAIConfig loads text-generation config
func loadAIConfig() AIConfig {
	timeoutSecs, _ := strconv.Atoi(getEnv("AI_TIMEOUT_SECONDS", "15"))

	return AIConfig{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		Model:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		BaseURL:      getEnv("GEMINI_BASE_URL", ""),
		Timeout:      time.Duration(timeoutSecs) * time.Second,
	}
}

// loadWhatsAppConfig loads WhatsApp delivery config
func loadWhatsAppConfig() (WhatsAppConfig, error) {
	mode := strings.ToLower(strings.TrimSpace(getEnv("WHATSAPP_MODE", WhatsAppModeOff)))
	switch mode {
	case WhatsAppModeCloud, WhatsAppModeDevice, WhatsAppModeOff:
	default:
		return WhatsAppConfig{}, fmt.Errorf("invalid WHATSAPP_MODE: '%s' (must be 'cloud', 'device' or 'off')", mode)
	}

	rate, err := strconv.ParseFloat(getEnv("WHATSAPP_MESSAGES_PER_SECOND", "1"), 64)
	if err != nil || rate <= 0 {
		rate = 1
	}

	return WhatsAppConfig{
		Mode:              mode,
		CloudToken:        getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:     getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		CloudBaseURL:      getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v21.0"),
		DeviceStorePath:   getEnv("WHATSAPP_STORE_PATH", "whatsapp.db"),
		MessagesPerSecond: rate,
	}, nil
}

// loadRedisConfig loads Redis config
func loadRedisConfig() RedisConfig {
	ttlMins, _ := strconv.Atoi(getEnv("REMINDER_LOCK_TTL_MINUTES", "30"))
	if ttlMins <= 0 {
		ttlMins = 30
	}

	return RedisConfig{
		URL:     getEnv("REDIS_URL", ""),
		LockTTL: time.Duration(ttlMins) * time.Minute,
	}
}

// loadSeedConfig loads seeding config based on mode
func loadSeedConfig(mode string) SeedConfig {
	demo, _ := strconv.ParseBool(getEnv("SEED_DEMO_DATA", strconv.FormatBool(mode == "dev")))

	return SeedConfig{
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@posdesk.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		DemoData:      demo,
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:5173"
	}
	return origins
}
