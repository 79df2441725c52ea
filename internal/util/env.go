package util

import (
	"os"
	"strconv"
	"time"

	"github.com/OFFIS-RIT/ned/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file from the working directory if there is one.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnv returns the raw value of key, or "" when it is unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// envOr parses the value of key with parse and falls back to def when the
// variable is unset, empty or unparsable.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Debug("Ignoring invalid environment value", "key", key, "value", raw)
		return def
	}
	return v
}

func GetEnvString(key string, defaultValue string) string {
	return envOr(key, defaultValue, func(s string) (string, error) { return s, nil })
}

func GetEnvNumeric(key string, defaultValue float64) float64 {
	return envOr(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetEnvInt is GetEnvNumeric truncated to an int.
func GetEnvInt(key string, defaultValue int) int {
	return int(GetEnvNumeric(key, float64(defaultValue)))
}

// GetEnvBool accepts only the literals "true" and "false".
func GetEnvBool(key string, defaultValue bool) bool {
	return envOr(key, defaultValue, func(s string) (bool, error) {
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, strconv.ErrSyntax
	})
}

// GetEnvDuration parses values like "15s" or "250ms".
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return envOr(key, defaultValue, time.ParseDuration)
}
