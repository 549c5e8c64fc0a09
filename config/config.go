package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

var SecretKey []byte

func Init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file: %v", err)
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("JWT secret key not set")
	}
	SecretKey = []byte(secret)
}

func Port() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "database/migrations"
}

// RedisURL is optional; an empty value selects the in-memory session store.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

func SessionTTL() time.Duration {
	ttl, err := time.ParseDuration(os.Getenv("SESSION_TTL"))
	if err != nil || ttl <= 0 {
		return 4 * time.Hour
	}
	return ttl
}

// CustomerBaseURL is the public origin embedded in per-table QR links.
func CustomerBaseURL() string {
	if base := os.Getenv("CUSTOMER_BASE_URL"); base != "" {
		return base
	}
	return "http://localhost:8080"
}
