// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	// DATABASE_URL is a Postgres DSN. When empty the server falls back
	// to a local SQLite file, which is what development and tests use.
	DatabaseURL  string
	SQLitePath   string
	JWTSecretKey string
	// PushEndpoint is the base URL of the external push relay. Empty
	// disables push notifications entirely.
	PushEndpoint   string
	AllowedOrigins string
	Environment    string
	// WriteBufferSize bounds the per-connection outbound event queue.
	SocketSendBuffer int
}

// Load reads configuration from environment variables or a .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "chat.db"),
		JWTSecretKey:     getEnv("JWT_SECRET_KEY", ""),
		PushEndpoint:     getEnv("PUSH_ENDPOINT", ""),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "*"),
		Environment:      env,
		SocketSendBuffer: getEnvAsInt("SOCKET_SEND_BUFFER", 64),
	}

	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
