package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/chatledger/src/data"
	"gorm.io/gorm"
)

// Base contains common configuration fields
type Base struct {
	Token    string
	GuildID  string
	MySQLDSN string
	RedisURL string
}

// LoadEnv reads .env files into the process environment; existing
// variables win.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// LoadBase loads common configuration (discord token, guild ID, MySQL DSN,
// Redis URL). db may be nil before the database is reachable.
func LoadBase(db *gorm.DB) Base {
	if db != nil {
		if err := data.LoadSettings(db); err != nil {
			logrus.WithError(err).Debug("config: settings table unavailable, using environment")
		}
	}

	dsn, _ := data.GetMySQLDSN()
	return Base{
		Token:    GetSetting("discord_token", "DISCORD_TOKEN", ""),
		GuildID:  GetSetting("guild_id", "GUILD_ID", ""),
		MySQLDSN: dsn,
		RedisURL: GetSetting("redis_url", "REDIS_URL", "redis://localhost:6379/0"),
	}
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" && envKey != "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(name, envKey string, def bool) bool {
	return parseBoolDefault(GetSetting(name, envKey, ""), def)
}

func getIntSetting(name, envKey string, def int) int {
	raw := strings.TrimSpace(GetSetting(name, envKey, ""))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func parseBoolDefault(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
