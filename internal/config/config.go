package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	APIKey         string // X-API-Key for general API routes
	AdminKey       string // X-Admin-Key for settle/verify/unverify; falls back to APIKey
	DatabaseURL    string
	RedisURL       string
	AllowedOrigins []string
	SettleTimeout  time.Duration // upper bound on the settlement transaction
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8000"
	}
	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = viper.GetString("DATABASE_URL")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	adminKey := viper.GetString("ADMIN_KEY")
	if adminKey == "" {
		adminKey = viper.GetString("API_KEY")
	}

	settleTimeout := viper.GetInt("SETTLE_TIMEOUT_SECONDS")
	if settleTimeout <= 0 {
		settleTimeout = 10
	}

	return &Config{
		Env:            env,
		Port:           port,
		APIKey:         viper.GetString("API_KEY"),
		AdminKey:       adminKey,
		DatabaseURL:    dbURL,
		RedisURL:       viper.GetString("REDIS_URL"),
		AllowedOrigins: allowedOrigins(viper.GetString("ALLOWED_ORIGINS")),
		SettleTimeout:  time.Duration(settleTimeout) * time.Second,
	}, nil
}

func allowedOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{"https://micropaper.vercel.app"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
