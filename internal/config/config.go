package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is picked up automatically.
func Load() Config {
	cfg := Config{
		Port:     os.Getenv("PANTRYLIST_PORT"),
		DBPath:   os.Getenv("PANTRYLIST_DB_PATH"),
		LogLevel: os.Getenv("PANTRYLIST_LOG_LEVEL"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "pantrylist.db"
	}
	return cfg
}
