package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	Environment    string
	Port           string
	LogLevel       string
	RequestTimeout time.Duration
	CORSOrigins    []string
	MaxUploadBytes int64

	// Storage
	StoreDriver       string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	// Identity provider
	ClerkSecretKey         string
	ClerkJWTKey            string
	ClerkAuthorizedParties []string

	// Image hosting
	CloudinaryURL    string
	CloudinaryFolder string
}

// LoadEnv loads environment variables from a .env file
func LoadEnv() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file loaded, using process environment")
	}
}

// GetEnv retrieves environment variables with a fallback
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(GetEnv(key, ""), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads the environment (after LoadEnv) into a Config.
func Load() *Config {
	return &Config{
		Environment:    GetEnv("ENVIRONMENT", "development"),
		Port:           GetEnv("PORT", "5000"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		CORSOrigins:    getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 5<<20),

		StoreDriver:       GetEnv("STORE_DRIVER", "mongo"),
		MongoURI:          GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     GetEnv("MONGODB_DATABASE", "shopnest"),
		MongoTransactions: getBool("MONGODB_TRANSACTIONS", true),

		ClerkSecretKey:         GetEnv("CLERK_SECRET_KEY", ""),
		ClerkJWTKey:            strings.ReplaceAll(GetEnv("CLERK_JWT_KEY", ""), `\n`, "\n"),
		ClerkAuthorizedParties: getList("CLERK_AUTHORIZED_PARTIES", nil),

		CloudinaryURL:    GetEnv("CLOUDINARY_URL", ""),
		CloudinaryFolder: GetEnv("CLOUDINARY_FOLDER", "shopnest"),
	}
}
