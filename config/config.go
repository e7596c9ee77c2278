package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	AppMode       string
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// External identity provider. The URL and API key are supplied
	// out-of-band and must never appear in logs or responses.
	IdentityURL       string
	IdentityAPIKey    string
	IdentityJWTSecret string

	AuthLimit        int
	AuthWindowSec    int
	CreateLimit      int
	CreateWindowSec  int
	VoteLimit        int
	VoteWindowSec    int
	PollListCacheSec int

	VoteRequireAuth   bool
	VoteSinglePerUser bool
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		AppMode:       getEnv("APP_MODE", "debug"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "pollbox"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		IdentityURL:       getEnv("IDENTITY_URL", "http://localhost:9999"),
		IdentityAPIKey:    getEnv("IDENTITY_API_KEY", ""),
		IdentityJWTSecret: getEnv("IDENTITY_JWT_SECRET", "change-me"),

		AuthLimit:        getEnvAsInt("RATE_AUTH_LIMIT", 5),
		AuthWindowSec:    getEnvAsInt("RATE_AUTH_WINDOW_SEC", 60),
		CreateLimit:      getEnvAsInt("RATE_CREATE_POLL_LIMIT", 3),
		CreateWindowSec:  getEnvAsInt("RATE_CREATE_POLL_WINDOW_SEC", 60),
		VoteLimit:        getEnvAsInt("RATE_VOTE_LIMIT", 10),
		VoteWindowSec:    getEnvAsInt("RATE_VOTE_WINDOW_SEC", 60),
		PollListCacheSec: getEnvAsInt("POLL_LIST_CACHE_SEC", 60),

		VoteRequireAuth:   getEnvAsBool("VOTE_REQUIRE_AUTH", false),
		VoteSinglePerUser: getEnvAsBool("VOTE_SINGLE_PER_USER", false),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
