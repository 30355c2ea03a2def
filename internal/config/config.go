package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	PaymentAPIKey        string
	PaymentCallbackToken string

	// DefaultShippingFee is the flat shipping fee applied to every order,
	// in minor currency units.
	DefaultShippingFee int64
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:               os.Getenv("DB_HOST"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		DBPort:               os.Getenv("DB_PORT"),
		AppPort:              os.Getenv("APP_PORT"),
		AppEnv:               os.Getenv("APP_ENV"),
		PaymentAPIKey:        os.Getenv("PAYMENT_APIKEY"),
		PaymentCallbackToken: os.Getenv("PAYMENT_CALLBACK_TOKEN"),
		DefaultShippingFee:   envInt64("DEFAULT_SHIPPING_FEE", 3000),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
