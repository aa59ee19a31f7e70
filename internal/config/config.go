package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIURL es el despliegue web del API_Handler usado por el frontend original.
const DefaultAPIURL = "https://script.google.com/macros/s/AKfycbxfHHUGrAPAJGCGLnX4LPoqsE4OECHO4jYuWkprw2FJHsgNHaCfy9-YCEOZ-PsMMbFa/exec"

// Config groups the front-end server settings.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	API     APIConfig
	Session SessionConfig
}

// AppConfig general settings.
type AppConfig struct {
	Env string `validate:"required,oneof=development staging production test"`
}

// HTTPConfig listen address of the local front-end server.
type HTTPConfig struct {
	Host string
	Port int `validate:"gte=1,lte=65535"`
}

// Addr returns host:port.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig points at the single remote backend endpoint.
type APIConfig struct {
	URL     string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// SessionConfig controls where the logged-in user is persisted.
type SessionConfig struct {
	File             string // empty keeps the session in memory only
	SellerFallbackID string `validate:"required"`
}

// Load reads configuration from environment variables, optionally seeded from a .env file.
// Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env: v.GetString("APP_ENV"),
		},
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: getInt(v, "HTTP_PORT"),
		},
		API: APIConfig{
			URL:     v.GetString("ERP_API_URL"),
			Timeout: time.Duration(getInt(v, "ERP_API_TIMEOUT_SECONDS")) * time.Second,
		},
		Session: SessionConfig{
			File:             sessionFile(v),
			SellerFallbackID: v.GetString("SELLER_FALLBACK_ID"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8081)
	v.SetDefault("ERP_API_URL", DefaultAPIURL)
	v.SetDefault("ERP_API_TIMEOUT_SECONDS", 20)
	v.SetDefault("SESSION_FILE", ".erp_session.json")
	v.SetDefault("SELLER_FALLBACK_ID", "USER-WEB")
}

// sessionFile distingue SESSION_FILE="" (solo memoria) de la variable ausente:
// viper trata un valor vacío como no definido y devolvería el default.
func sessionFile(v *viper.Viper) string {
	if raw, ok := os.LookupEnv("SESSION_FILE"); ok {
		return strings.TrimSpace(raw)
	}
	return v.GetString("SESSION_FILE")
}

// getInt tolera valores de entorno como string ("8081") o int (defaults).
func getInt(v *viper.Viper, key string) int {
	switch val := v.Get(key).(type) {
	case int:
		return val
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return v.GetInt(key)
	}
}
