package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	AppPort string
	Version string
	// "postgres" (default) or "memory" for throwaway dev runs
	Store       string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	// Telegram WebApp login is enabled only when set
	BotToken string
	DevMode  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ListCacheTTL  time.Duration

	PageSize      int
	StorageDir    string
	PublicURL     string
	MaxCoverBytes int64

	APIRateLimit      int
	APIRateWindow     time.Duration
	MutationRateLimit int
	AllowedOrigin     string

	LogLevel string
	LogJSON  bool
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	store := strings.ToLower(envString("STORE", StorePostgres))
	if store != StorePostgres && store != StoreMemory {
		logger.Fatal("unknown STORE", "store", store)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" && store == StorePostgres {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	return &Config{
		AppPort:     envString("APP_PORT", "8080"),
		Version:     envString("VERSION", "dev"),
		Store:       store,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,
		JWTTTL:      time.Duration(envInt("JWT_TTL_HOURS", 24)) * time.Hour,
		BotToken:    os.Getenv("BOT_TOKEN"),
		DevMode:     os.Getenv("DEV_MODE") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		ListCacheTTL:  time.Duration(envInt("LIST_CACHE_TTL_SECONDS", 60)) * time.Second,

		PageSize:      envInt("PAGE_SIZE", 15),
		StorageDir:    envString("STORAGE_DIR", "storage/public"),
		PublicURL:     strings.TrimRight(envString("PUBLIC_URL", "http://localhost:8080"), "/"),
		MaxCoverBytes: int64(envInt("MAX_COVER_BYTES", domain.DefaultMaxCoverBytes)),

		APIRateLimit:      envInt("API_RATE_LIMIT", 120),
		APIRateWindow:     time.Duration(envInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		MutationRateLimit: envInt("MUTATION_RATE_LIMIT", 60),
		AllowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),

		LogLevel: envString("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt falls back to def for missing, malformed or non-positive values.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
