package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Processing ProcessingConfig
	Intake     IntakeConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type ProcessingConfig struct {
	// BaseURL of the remote Requirements Engineering API.
	BaseURL string
	// CompletedTopic carries completion events to the SRS generation
	// consumer.
	CompletedTopic string
}

type IntakeConfig struct {
	// ValidationPolicy is "strict" or "lenient"; two rule sets shipped in
	// different upstream revisions, selectable here.
	ValidationPolicy string
	// SessionTTL is how long an idle intake session survives in memory.
	SessionTTL time.Duration
	// MaxUploadBytes caps the request body for file staging and audio.
	MaxUploadBytes int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "intake.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Processing: ProcessingConfig{
			BaseURL:        getEnv("PROCESSING_API_BASE_URL", "http://localhost:8000"),
			CompletedTopic: getEnv("SUBMISSION_COMPLETED_TOPIC_NAME", "SUBMISSION_COMPLETED"),
		},
		Intake: IntakeConfig{
			ValidationPolicy: getEnv("TEXT_VALIDATION_POLICY", "strict"),
			SessionTTL:       getEnvAsDuration("INTAKE_SESSION_TTL", 1*time.Hour),
			MaxUploadBytes:   getEnvAsInt("MAX_UPLOAD_BYTES", 25*1024*1024),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
