package bootstrap

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	BackendURL string

	// CaptureDevice is the byte stream audio is read from: a device node,
	// a FIFO fed by an OS recorder, or a file during development.
	CaptureDevice    string
	CaptureChunkSize int
	CaptureInterval  time.Duration

	ReconnectDelay time.Duration
	AlertLifetime  time.Duration
	RequestTimeout time.Duration

	DatabaseDSN string

	LogLevel string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8090"),
		BackendURL: getEnv("BACKEND_URL", "http://localhost:8000"),

		CaptureDevice:    getEnv("CAPTURE_DEVICE", ""),
		CaptureChunkSize: getEnvInt("CAPTURE_CHUNK_SIZE", 3200),
		CaptureInterval:  getEnvDurationMS("CAPTURE_INTERVAL_MS", 100*time.Millisecond),

		ReconnectDelay: getEnvDurationMS("RECONNECT_DELAY_MS", 3*time.Second),
		AlertLifetime:  getEnvDurationMS("ALERT_LIFETIME_MS", 8*time.Second),
		RequestTimeout: getEnvDurationMS("REQUEST_TIMEOUT_MS", 10*time.Second),

		DatabaseDSN: getEnv("DATABASE_DSN", "transcripts.db"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationMS(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
