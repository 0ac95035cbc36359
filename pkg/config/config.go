package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Commerce providers understood by the payment-link collaborator.
const (
	CommerceProviderStub     = "stub"
	CommerceProviderMidtrans = "midtrans"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Portal     PortalConfig
	Outbox     OutboxConfig
	Commerce   CommerceConfig
	Cache      CacheConfig
	Export     ExportConfig
	Migrations MigrationsConfig
	Seed       SeedConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds signing material and per-audience token lifetimes.
type JWTConfig struct {
	Secret           string
	Issuer           string
	AdminExpiration  time.Duration
	InstructorExpiry time.Duration
	PortalExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PortalConfig tunes portal access codes and login throttling.
type PortalConfig struct {
	CodeTTL          time.Duration
	CodeHashCost     int
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// OutboxConfig controls the notification outbox relay.
type OutboxConfig struct {
	Enabled      bool
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
	MaxBackoff   time.Duration
	PollInterval time.Duration
	BatchSize    int
}

// CommerceConfig selects the payment-link provider.
type CommerceConfig struct {
	Provider           string
	DefaultTitle       string
	MidtransServerKey  string
	MidtransProduction bool
}

// CacheConfig governs the public instructor catalog cache.
type CacheConfig struct {
	Enabled       bool
	InstructorTTL time.Duration
}

// ExportConfig points the PDF renderer at a UTF-8 TTF font. Empty keeps the Latin-1 core font.
type ExportConfig struct {
	PDFFontPath string
}

// MigrationsConfig toggles schema migration at boot.
type MigrationsConfig struct {
	AutoMigrate bool
}

// SeedConfig holds the passwords given to seeded demo accounts. A non-empty
// DemoPortalPhone also seeds a demo enrollment with a portal code for it.
type SeedConfig struct {
	AdminPassword      string
	InstructorPassword string
	DemoPortalPhone    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:           v.GetString("JWT_SECRET"),
		Issuer:           v.GetString("JWT_ISSUER"),
		AdminExpiration:  parseDuration(v.GetString("JWT_ADMIN_EXPIRATION"), 7*24*time.Hour),
		InstructorExpiry: parseDuration(v.GetString("JWT_INSTRUCTOR_EXPIRATION"), 14*24*time.Hour),
		PortalExpiration: parseDuration(v.GetString("JWT_PORTAL_EXPIRATION"), 14*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Portal = PortalConfig{
		CodeTTL:          parseDuration(v.GetString("PORTAL_CODE_TTL"), 120*24*time.Hour),
		CodeHashCost:     v.GetInt("PORTAL_CODE_HASH_COST"),
		LoginMaxAttempts: v.GetInt("PORTAL_LOGIN_MAX_ATTEMPTS"),
		LoginWindow:      parseDuration(v.GetString("PORTAL_LOGIN_WINDOW"), 15*time.Minute),
	}

	cfg.Outbox = OutboxConfig{
		Enabled:      v.GetBool("OUTBOX_ENABLED"),
		Workers:      v.GetInt("OUTBOX_WORKERS"),
		MaxRetries:   v.GetInt("OUTBOX_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("OUTBOX_RETRY_DELAY"), 2*time.Second),
		MaxBackoff:   parseDuration(v.GetString("OUTBOX_MAX_BACKOFF"), 10*time.Minute),
		PollInterval: parseDuration(v.GetString("OUTBOX_POLL_INTERVAL"), 5*time.Second),
		BatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
	}

	cfg.Commerce = CommerceConfig{
		Provider:           strings.ToLower(strings.TrimSpace(v.GetString("COMMERCE_PROVIDER"))),
		DefaultTitle:       v.GetString("COMMERCE_DEFAULT_TITLE"),
		MidtransServerKey:  v.GetString("MIDTRANS_SERVER_KEY"),
		MidtransProduction: v.GetBool("MIDTRANS_PRODUCTION"),
	}

	cfg.Cache = CacheConfig{
		Enabled:       v.GetBool("ENABLE_INSTRUCTOR_CACHE"),
		InstructorTTL: parseDuration(v.GetString("INSTRUCTOR_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Export = ExportConfig{PDFFontPath: v.GetString("EXPORT_PDF_FONT_PATH")}

	cfg.Migrations = MigrationsConfig{
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),
	}

	cfg.Seed = SeedConfig{
		AdminPassword:      v.GetString("SEED_ADMIN_PASSWORD"),
		InstructorPassword: v.GetString("SEED_INSTRUCTOR_PASSWORD"),
		DemoPortalPhone:    v.GetString("SEED_DEMO_PORTAL_PHONE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "codeai")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "codeai-api")
	v.SetDefault("JWT_ADMIN_EXPIRATION", "168h")
	v.SetDefault("JWT_INSTRUCTOR_EXPIRATION", "336h")
	v.SetDefault("JWT_PORTAL_EXPIRATION", "336h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PORTAL_CODE_TTL", "2880h")
	v.SetDefault("PORTAL_CODE_HASH_COST", 10)
	v.SetDefault("PORTAL_LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("PORTAL_LOGIN_WINDOW", "15m")

	v.SetDefault("OUTBOX_ENABLED", true)
	v.SetDefault("OUTBOX_WORKERS", 2)
	v.SetDefault("OUTBOX_MAX_RETRIES", 5)
	v.SetDefault("OUTBOX_RETRY_DELAY", "2s")
	v.SetDefault("OUTBOX_MAX_BACKOFF", "10m")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "5s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 50)

	v.SetDefault("COMMERCE_PROVIDER", CommerceProviderStub)
	v.SetDefault("COMMERCE_DEFAULT_TITLE", "CodeAI 수강결제")
	v.SetDefault("MIDTRANS_SERVER_KEY", "")
	v.SetDefault("MIDTRANS_PRODUCTION", false)

	v.SetDefault("ENABLE_INSTRUCTOR_CACHE", false)
	v.SetDefault("INSTRUCTOR_CACHE_TTL", "5m")

	v.SetDefault("EXPORT_PDF_FONT_PATH", "")
	v.SetDefault("AUTO_MIGRATE", false)

	v.SetDefault("SEED_ADMIN_PASSWORD", "admin1234!")
	v.SetDefault("SEED_INSTRUCTOR_PASSWORD", "teacher1234!")
	v.SetDefault("SEED_DEMO_PORTAL_PHONE", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
