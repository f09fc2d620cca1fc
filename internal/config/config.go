package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config is populated from environment variables, with a .env file loaded
// first when present.
type Config struct {
	ServerPort  string
	BankName    string
	StoreDriver string // file | postgres | memory
	DataDir     string

	// Postgres settings, used when StoreDriver is "postgres".
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Base URL the CLI probes for a remote server.
	RemoteBaseURL string
}

func Load() *Config {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	return &Config{
		ServerPort:    getEnv("BANK_SERVER_PORT", "8001"),
		BankName:      getEnv("BANK_NAME", "OOP Bank"),
		StoreDriver:   getEnv("BANK_STORE_DRIVER", "file"),
		DataDir:       getEnv("BANK_DATA_DIR", "data"),
		DatabaseURL:   getEnv("BANK_DATABASE_URL", ""),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "passbook"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		RemoteBaseURL: getEnv("BANK_REMOTE_URL", "http://localhost:8001"),
	}
}

// DBConnectionString prefers the full URL when set, otherwise assembles one
// from the individual settings.
func (c *Config) DBConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
