package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	ServerPort string

	// Relay is the external form-to-email service results are posted to.
	// An empty RelayURL disables submission.
	RelayURL   string
	RelayEmail string

	// SessionTTLMinutes bounds how long an idle quiz attempt is kept alive.
	SessionTTLMinutes int

	// SeedDemo loads the built-in demo quiz on startup.
	SeedDemo bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "quizhub"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		RelayURL:          getEnv("RELAY_URL", ""),
		RelayEmail:        getEnv("RELAY_EMAIL", ""),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 120),
		SeedDemo:          getEnv("SEED_DEMO", "") == "true",
	}, nil
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
