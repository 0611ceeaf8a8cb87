package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	TelegramToken   string
	BaseAdminChatID int64
	DatabaseURL     string
	CalendarFile    string
	TelegramDebug   bool

	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	RequirePermissionReason bool

	DefaultEntryTime    string
	DefaultExitTime     string
	DefaultLunchMinutes int
	DefaultWorkingHours float64
}

var instance *Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Warnf("could not load .env, using process environment: %s", err.Error())
		}

		instance = Load()

		if instance.TelegramToken == "" {
			logrus.Fatal("could not get bot token")
		}
		if instance.BaseAdminChatID == -2 {
			logrus.Fatal("could not get admin chat id")
		}
		if instance.APIBaseURL == "" {
			logrus.Fatal("could not get attendance api url")
		}
	})

	return instance
}

// Load reads the configuration from the environment without validating it.
func Load() *Config {
	return &Config{
		TelegramToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		BaseAdminChatID: getEnvAsInt("BASE_ADMIN_CHAT_ID", -2),
		DatabaseURL:     getEnv("DATABASE_URL", "registrar.db"),
		CalendarFile:    getEnv("CALENDAR_FILE", ""),
		TelegramDebug:   getEnvAsBool("TELEGRAM_DEBUG", false),

		APIBaseURL: getEnv("API_BASE_URL", ""),
		APIToken:   getEnv("API_TOKEN", ""),
		APITimeout: time.Duration(getEnvAsInt("API_TIMEOUT_SECONDS", 60)) * time.Second,

		RequirePermissionReason: getEnvAsBool("REQUIRE_PERMISSION_REASON", true),

		DefaultEntryTime:    getEnv("DEFAULT_ENTRY_TIME", "06:30"),
		DefaultExitTime:     getEnv("DEFAULT_EXIT_TIME", "16:00"),
		DefaultLunchMinutes: int(getEnvAsInt("DEFAULT_LUNCH_MINUTES", 30)),
		DefaultWorkingHours: getEnvAsFloat("DEFAULT_WORKING_HOURS", 8),
	}
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseFloat(valStr, 64); err == nil {
		return val
	}

	return defaultVal
}
