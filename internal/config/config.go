package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all environment-level configuration for the server.
type Config struct {
	Port        string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	TokenExpiry time.Duration

	// Shared secret carried as a bearer credential by the external
	// scheduler that triggers the cron endpoints.
	CronSecret string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// Optional in-process scheduling mode. The primary trigger remains
	// the external scheduler hitting the cron endpoints.
	EnableInternalCron bool
	CronSpecDday       string
	CronSpecGenerate   string
}

// LoadConfig reads configuration from the environment, loading a .env
// file first when present. Missing required values are fatal.
func LoadConfig() *Config {
	// Errors are ignored if the file doesn't exist; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "maternote"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		CronSecret:       os.Getenv("CRON_SECRET"),
		VAPIDPublicKey:   os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:  os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:     getEnv("VAPID_SUBJECT", "mailto:admin@maternote.app"),
		CronSpecDday:     getEnv("CRON_SPEC_DDAY", "0 9 * * *"),
		CronSpecGenerate: getEnv("CRON_SPEC_GENERATE", "0 5 * * *"),
	}

	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI is not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if cfg.CronSecret == "" {
		log.Fatal("CRON_SECRET is not set")
	}

	expiryHours, err := strconv.Atoi(getEnv("TOKEN_EXPIRY_HOURS", "72"))
	if err != nil {
		log.Fatalf("invalid TOKEN_EXPIRY_HOURS: %v", err)
	}
	cfg.TokenExpiry = time.Duration(expiryHours) * time.Hour

	cfg.EnableInternalCron, _ = strconv.ParseBool(getEnv("ENABLE_INTERNAL_CRON", "false"))

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
