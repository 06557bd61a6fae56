package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Diagnosis DiagnosisConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	PlantID     string
	PlantIDURL  string
	PlantIDLang string
	PlantIDVia  string // "kindwise" or "plantid"
	HuggingFace string
	ResultTopic string // watermill topic for finished diagnoses
}

type AIConfig struct {
	LLMProvider string // "ollama" or "huggingface"
	LLMModel    string
	LLMBaseURL  string
	LLMTimeout  time.Duration
}

type DiagnosisConfig struct {
	RequestTimeout       time.Duration
	IdentifyTimeout      time.Duration
	AdvisoryTimeout      time.Duration
	Heartbeat            time.Duration
	MinDiseaseConfidence float64
	MaxDiseases          int
	EmitProgress         bool
	LogFilePath          string
}

type RateLimitConfig struct {
	Backend string // "redis" or "memory"
	Max     int
	Window  time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			PlantID:     getEnv("PLANT_ID_API_KEY", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
			ResultTopic: getEnv("DIAGNOSIS_RESULT_TOPIC_NAME", "DIAGNOSIS_RESULT"),
			PlantIDURL:  getEnv("PLANT_ID_BASE_URL", "https://crop.kindwise.com"),
			PlantIDLang: getEnv("PLANT_ID_LANGUAGE", "vi"),
			PlantIDVia:  getEnv("PLANT_ID_PROVIDER", "kindwise"),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:    getEnv("LLM_MODEL", "qwen2.5"),
			LLMBaseURL:  getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMTimeout:  getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Diagnosis: DiagnosisConfig{
			RequestTimeout:       getEnvAsDuration("DIAGNOSIS_REQUEST_TIMEOUT", 2*time.Minute),
			IdentifyTimeout:      getEnvAsDuration("DIAGNOSIS_IDENTIFY_TIMEOUT", 30*time.Second),
			AdvisoryTimeout:      getEnvAsDuration("DIAGNOSIS_ADVISORY_TIMEOUT", 20*time.Second),
			Heartbeat:            getEnvAsDuration("DIAGNOSIS_HEARTBEAT", 15*time.Second),
			MinDiseaseConfidence: getEnvAsFloat("DIAGNOSIS_MIN_DISEASE_CONFIDENCE", 0.2),
			MaxDiseases:          getEnvAsInt("DIAGNOSIS_MAX_DISEASES", 3),
			EmitProgress:         getEnvAsBool("DIAGNOSIS_EMIT_PROGRESS", true),
			LogFilePath:          getEnv("DIAGNOSIS_LOG_FILE_PATH", "logs/diagnosis.log"),
		},
		RateLimit: RateLimitConfig{
			Backend: getEnv("RATE_LIMIT_BACKEND", "memory"),
			Max:     getEnvAsInt("RATE_LIMIT_MAX", 10),
			Window:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
