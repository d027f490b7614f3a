package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP configuration
	HTTPPort string
	Env      string

	// Postgres configuration
	DatabaseURL string

	// Telegram configuration
	TelegramBotToken    string
	TelegramAdminChatID string

	// Grading webhook (n8n) configuration
	GradingWebhookURL string

	// Kinescope configuration
	KinescopeAPIURL   string
	KinescopeAPIToken string

	// R2/S3 configuration
	R2Endpoint        string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2PublicURL       string

	// JWT configuration
	JWTSecretKey string

	// Начальная учётная запись админ-панели (создаётся при старте, если нет)
	AdminEmail    string
	AdminPassword string

	// Booking configuration
	SlotStepMinutes int

	// Lesson unlock configuration
	UnlockCooldown string // "none" | "next-day"
	Timezone       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	r2Endpoint := getEnvOptional("R2_ENDPOINT", "")
	if r2Endpoint == "" {
		r2Endpoint = "https://" + getEnv("R2_ACCOUNT_ID", "") + ".r2.cloudflarestorage.com"
	}
	if !strings.HasPrefix(r2Endpoint, "http://") && !strings.HasPrefix(r2Endpoint, "https://") {
		r2Endpoint = "https://" + r2Endpoint
		log.Printf("WARN: R2_ENDPOINT was missing a protocol scheme. Prepending 'https://'. New endpoint: %s", r2Endpoint)
	}

	return &Config{
		HTTPPort: getEnvOptional("HTTP_PORT", "8080"),
		Env:      getEnvOptional("ENV", "production"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChatID: getEnvOptional("TELEGRAM_ADMIN_CHAT_ID", ""),

		GradingWebhookURL: getEnv("N8N_WEBHOOK_URL", ""),

		KinescopeAPIURL:   getEnvOptional("KINESCOPE_API_URL", "https://api.kinescope.io/v1"),
		KinescopeAPIToken: getEnvOptional("KINESCOPE_API_TOKEN", ""),

		R2Endpoint:        r2Endpoint,
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:          getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),

		AdminEmail:    getEnvOptional("ADMIN_EMAIL", ""),
		AdminPassword: getEnvOptional("ADMIN_PASSWORD", ""),

		SlotStepMinutes: getEnvInt("SLOT_STEP_MINUTES", 60, 30, 60),

		UnlockCooldown: getEnvOptional("UNLOCK_COOLDOWN", "next-day"),
		Timezone:       getEnvOptional("TIMEZONE", "Europe/Moscow"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	if fallback == "" {
		log.Fatalf("FATAL: Environment variable %s is not set.", key)
	}
	return fallback
}

// getEnvOptional читает переменную окружения без fail-fast
func getEnvOptional(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback, min, max int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			if n < min {
				return min
			}
			if n > max {
				return max
			}
			return n
		}
		log.Printf("WARN: %s=%q is not an integer, using default %d", key, v, fallback)
	}

	if fallback < min {
		return min
	}
	if fallback > max {
		return max
	}
	return fallback
}
