package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"shoezclean/backend/internal/logger"
)

type Config struct {
	Port               string
	AllowedOrigin      string
	DatabaseURL        string
	DatabaseMigrate    bool
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	AuthSecret         string
	SessionTTL         time.Duration
	IdleTimeout        time.Duration
	Timezone           string
	TelegramBotToken   string
	TelegramChatID     int64
	RateLimitPerMinute int
	Log                logger.Config
}

// Load reads the process environment, after merging a .env file from the
// working directory when one exists. Values already set in the environment
// win over the file.
func Load() Config {
	_ = godotenv.Load()

	logCfg := logger.DefaultConfig()
	logCfg.Format = getEnv("LOG_FORMAT", logCfg.Format)
	logCfg.Level = getEnv("LOG_LEVEL", logCfg.Level)
	logCfg.Output = getEnv("LOG_OUTPUT", logCfg.Output)
	logCfg.Path = getEnv("LOG_PATH", logCfg.Path)
	logCfg.MaxSize = getInt("LOG_MAX_SIZE", logCfg.MaxSize)
	logCfg.MaxBackups = getInt("LOG_MAX_BACKUPS", logCfg.MaxBackups)
	logCfg.MaxAge = getInt("LOG_MAX_AGE", logCfg.MaxAge)
	logCfg.Compress = getBool("LOG_COMPRESS", logCfg.Compress)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		redisDB = 0
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")), 10, 64)
	if err != nil {
		chatID = 0
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigin:      getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:5173"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DatabaseMigrate:    getBool("DATABASE_MIGRATE", true),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		AuthSecret:         strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		SessionTTL:         time.Duration(getInt("SESSION_TTL_MINUTES", 720)) * time.Minute,
		IdleTimeout:        time.Duration(getInt("IDLE_TIMEOUT_MINUTES", 30)) * time.Minute,
		Timezone:           getEnv("TIMEZONE", "Asia/Jakarta"),
		TelegramBotToken:   strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		TelegramChatID:     chatID,
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),
		Log:                logCfg,
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves Timezone, falling back to a fixed UTC+7 zone when the
// tz database is unavailable.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

func getEnv(key string, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

// getInt returns fallback for missing, malformed or non-positive values.
func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}
