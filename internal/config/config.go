package config

import (
	"os"
	"strings"
	"time"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	PublicBaseURL   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DedupWindow     time.Duration

	Esewa  gateway.EsewaConfig
	Khalti gateway.KhaltiConfig
}

// Load reads every setting from the environment. Gateway secrets live here
// and are injected into the adapters at construction; nothing reads them as
// ambient globals.
func Load() *Config {
	baseURL := getEnv("PUBLIC_BASE_URL", "http://localhost:8080")

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "haatbazar"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    splitCSV(getEnv("KAFKA_BROKERS", "")),
		PublicBaseURL:   baseURL,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DedupWindow:     2 * time.Minute,

		Esewa: gateway.EsewaConfig{
			ProductCode: getEnv("ESEWA_PRODUCT_CODE", "EPAYTEST"),
			SecretKey:   getEnv("ESEWA_SECRET_KEY", ""),
			FormURL:     getEnv("ESEWA_FORM_URL", "https://rc-epay.esewa.com.np/api/epay/main/v2/form"),
			SuccessURL:  baseURL + "/api/v1/payments/esewa/return",
			FailureURL:  baseURL + "/api/v1/payments/esewa/return",
		},
		Khalti: gateway.KhaltiConfig{
			SecretKey:  getEnv("KHALTI_SECRET_KEY", ""),
			BaseURL:    getEnv("KHALTI_BASE_URL", "https://a.khalti.com/api/v2"),
			ReturnURL:  baseURL + "/api/v1/payments/khalti/return",
			WebsiteURL: baseURL,
			Timeout:    10 * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
