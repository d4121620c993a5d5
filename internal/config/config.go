package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	StoreDriver string

	DatabaseURL   string
	DBLockTimeout time.Duration
	SeedAccounts  bool

	RedisAddress  string
	RedisPassword string
	LockTTL       time.Duration

	JWTSecret       string
	PrivilegedRoles []string
	CORSOrigins     []string

	// CreditEscalationBPS is the usage threshold in basis points (8000 = 80%).
	CreditEscalationBPS int64

	PubSubProjectID       string
	PubSubTopic           string
	PubSubCredentialsJSON string
}

// LoadConfig loads configuration from environment variables and a .env file if present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		_ = godotenv.Load()
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "postgres")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_LOCK_TIMEOUT", "5s")
	viper.SetDefault("SEED_CHART_OF_ACCOUNTS", false)
	viper.SetDefault("REDIS_ADDRESS", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("LOCK_TTL", "30s")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("PRIVILEGED_ROLES", "admin,accountant,manager")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	viper.SetDefault("CREDIT_ESCALATION_BPS", 8000)
	viper.SetDefault("PUBSUB_PROJECT_ID", "")
	viper.SetDefault("PUBSUB_TOPIC", "order-events")
	viper.SetDefault("PUBSUB_CREDENTIALS_JSON", "")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:                  viper.GetString("PORT"),
		GinMode:               viper.GetString("GIN_MODE"),
		LogLevel:              viper.GetString("LOG_LEVEL"),
		StoreDriver:           strings.ToLower(viper.GetString("STORE_DRIVER")),
		DatabaseURL:           viper.GetString("DATABASE_URL"),
		SeedAccounts:          viper.GetBool("SEED_CHART_OF_ACCOUNTS"),
		RedisAddress:          viper.GetString("REDIS_ADDRESS"),
		RedisPassword:         viper.GetString("REDIS_PASSWORD"),
		JWTSecret:             viper.GetString("JWT_SECRET"),
		PrivilegedRoles:       splitList(viper.GetString("PRIVILEGED_ROLES")),
		CORSOrigins:           splitList(viper.GetString("CORS_ORIGINS")),
		CreditEscalationBPS:   viper.GetInt64("CREDIT_ESCALATION_BPS"),
		PubSubProjectID:       viper.GetString("PUBSUB_PROJECT_ID"),
		PubSubTopic:           viper.GetString("PUBSUB_TOPIC"),
		PubSubCredentialsJSON: viper.GetString("PUBSUB_CREDENTIALS_JSON"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			viper.GetString("DB_USER"), viper.GetString("DB_PASSWORD"),
			viper.GetString("DB_HOST"), viper.GetString("DB_PORT"),
			viper.GetString("DB_NAME"), viper.GetString("DB_SSLMODE"))
	}

	var err error
	if cfg.DBLockTimeout, err = time.ParseDuration(viper.GetString("DB_LOCK_TIMEOUT")); err != nil {
		return nil, fmt.Errorf("invalid DB_LOCK_TIMEOUT: %w", err)
	}
	if cfg.LockTTL, err = time.ParseDuration(viper.GetString("LOCK_TTL")); err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.CreditEscalationBPS <= 0 || cfg.CreditEscalationBPS > 10000 {
		return nil, fmt.Errorf("CREDIT_ESCALATION_BPS must be in (0, 10000], got %d", cfg.CreditEscalationBPS)
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = "default_super_secret_key"
		logrus.Warn("JWT_SECRET not set, using development key")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
