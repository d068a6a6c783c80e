package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	MongoURI     string
	MongoDB      string
	RabbitMQURL  string
	JWTExpire    time.Duration
	CookieExpire time.Duration
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvHours(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
		log.Printf("[WARN] Invalid %s=%q, using default %dh", key, v, fallback)
	}
	return time.Duration(fallback) * time.Hour
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file loaded:", err)
		}
	}

	mongoURI := os.Getenv("MONGO_URL")
	if mongoURI == "" {
		mongoURI = fmt.Sprintf("mongodb://%s:%s@%s:%s",
			getenv("MONGO_USER", "admin"),
			getenv("MONGO_PASSWORD", "password"),
			getenv("MONGO_HOST", "localhost"),
			getenv("MONGO_PORT", "27017"),
		)
	}

	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" && os.Getenv("RABBITMQ_HOST") != "" {
		rabbitURL = fmt.Sprintf("amqp://%s:%s@%s:%s/",
			getenv("RABBITMQ_USER", "guest"),
			getenv("RABBITMQ_PASS", "guest"),
			os.Getenv("RABBITMQ_HOST"),
			getenv("RABBITMQ_PORT", "5672"),
		)
	}

	return Config{
		Port:         getenv("PORT", "5000"),
		MongoURI:     mongoURI,
		MongoDB:      getenv("MONGO_DB", "foodshare"),
		RabbitMQURL:  rabbitURL,
		JWTExpire:    getenvHours("JWT_EXPIRE_HOURS", 24),
		CookieExpire: getenvHours("COOKIE_EXPIRE_HOURS", 24),
	}
}
