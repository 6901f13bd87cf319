// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the API process. Every field has a
// default suitable for local development.
type Config struct {
	Addr            string
	Env             string
	DataDir         string
	AllowedOrigins  []string
	RequestsPerSec  float64
	RequestBurst    int
	LockTimeout     time.Duration
	ShutdownTimeout time.Duration
	OTLPEndpoint    string
}

// Load reads configuration from the environment, after loading a .env file
// when one is present next to the binary.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            getEnv("ADDR", ":5079"),
		Env:             getEnv("ENV", "dev"),
		DataDir:         getEnv("DATA_DIR", "./data"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RequestsPerSec:  getEnvFloat("REQUESTS_PER_SEC", 50),
		RequestBurst:    getEnvInt("REQUEST_BURST", 100),
		LockTimeout:     getEnvDuration("LOCK_TIMEOUT", 2*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		OTLPEndpoint:    getEnv("OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
