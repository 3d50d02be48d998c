package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Checkout CheckoutConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

// APIConfig points at the remote Kasseapparat backend.
type APIConfig struct {
	BaseURL      string
	SocketURL    string // WebSocket base, e.g. ws://host/ws
	Timeout      time.Duration
	ReaderID     string // card reader identity reported on cancellation
	RefreshToken string
}

// CheckoutConfig holds the payment confirmation timing knobs. The defaults
// match the card terminal's behaviour: three minutes for a customer to
// complete a payment, three seconds to establish the socket, three seconds
// of display grace before the confirmation dialog is torn down.
type CheckoutConfig struct {
	ConfirmationTimeout time.Duration
	ConnectTimeout      time.Duration
	GracePeriod         time.Duration
}

type CacheConfig struct {
	Path string // sqlite file for the purchase history cache
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		API: APIConfig{
			BaseURL:      getEnv("API_BASE_URL", "http://localhost:3000/api/v2"),
			SocketURL:    getEnv("API_SOCKET_URL", "ws://localhost:3000/ws"),
			Timeout:      getEnvAsDuration("API_TIMEOUT", 30*time.Second),
			ReaderID:     getEnv("CARD_READER_ID", ""),
			RefreshToken: getEnv("API_REFRESH_TOKEN", ""),
		},
		Checkout: CheckoutConfig{
			ConfirmationTimeout: getEnvAsDuration("CONFIRMATION_TIMEOUT", 3*time.Minute),
			ConnectTimeout:      getEnvAsDuration("CONFIRMATION_CONNECT_TIMEOUT", 3*time.Second),
			GracePeriod:         getEnvAsDuration("CONFIRMATION_GRACE_PERIOD", 3*time.Second),
		},
		Cache: CacheConfig{
			Path: getEnv("CACHE_PATH", "kasseapparat.db"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
