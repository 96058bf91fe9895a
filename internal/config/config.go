package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JWTSecret     string
	MongoURI      string
	DBName        string
	SkipAuth      bool
	Environment   string
	AppId         string
	OfficeCode    string // Prefix stamped into application numbers (e.g. PMDQ)
	SweepSchedule string // Cron expression for the certificate expiration sweep
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "go-permits"),
		SkipAuth:      getEnv("SKIP_AUTH", "false") == "true",
		Environment:   getEnv("ENVIRONMENT", "development"),
		AppId:         getEnv("APP_ID", "go-permits"),
		OfficeCode:    getEnv("OFFICE_CODE", "PMDQ"),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@hourly"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
