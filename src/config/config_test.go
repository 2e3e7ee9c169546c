package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stake-plus/chatledger/src/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestParseBoolDefault(t *testing.T) {
	assert.True(t, parseBoolDefault("YES", false))
	assert.False(t, parseBoolDefault("off", true))
	assert.True(t, parseBoolDefault("", true))
	assert.False(t, parseBoolDefault("maybe", false))
}

func TestGetSettingFallsBackToEnv(t *testing.T) {
	t.Setenv("CHATLEDGER_TEST_KEY", "from-env")
	assert.Equal(t, "from-env", GetSetting("chatledger_test_key", "CHATLEDGER_TEST_KEY", "def"))
	assert.Equal(t, "def", GetSetting("chatledger_missing", "CHATLEDGER_MISSING", "def"))
}

func TestLoadBaseWithoutSettingsTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	std := logrus.StandardLogger()
	hooks, level, out := std.ReplaceHooks(make(logrus.LevelHooks)), std.GetLevel(), std.Out
	t.Cleanup(func() {
		std.ReplaceHooks(hooks)
		std.SetLevel(level)
		std.SetOutput(out)
	})
	hook := new(logtest.Hook)
	std.AddHook(hook)
	std.SetLevel(logrus.DebugLevel)
	std.SetOutput(io.Discard)

	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	base := LoadBase(db)
	assert.Equal(t, "redis://cache:6379/1", base.RedisURL)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Contains(t, entry.Message, "settings table unavailable")
	assert.Error(t, entry.Data[logrus.ErrorKey].(error))
}

func TestLoadFeedBotConfig(t *testing.T) {
	t.Setenv("FEED_CHANNEL_ID", "12345")
	t.Setenv("FEED_ACTIONS", "post.star, idea.update,")
	t.Setenv("FEED_BLOCK_SECONDS", "-3")
	t.Setenv("ENABLE_FEED", "0")

	cfg := LoadFeedBotConfig(nil)
	assert.Equal(t, "12345", cfg.ChannelID)
	assert.Equal(t, []string{"post.star", "idea.update"}, cfg.Actions)
	assert.Equal(t, 5*time.Second, cfg.BlockTimeout)
	assert.Equal(t, "chatledger.events", cfg.StreamKey)
	assert.False(t, cfg.Enabled)
}

func TestParseFeesOverridesDefaults(t *testing.T) {
	fees, err := ParseFees([]byte("post: \"0.25\"\nvotes:\n  target: \"0.5\"\n"))
	require.NoError(t, err)
	assert.True(t, fees.Post.Equal(decimal.RequireFromString("0.25")))
	assert.True(t, fees.TargetVoteRate.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, fees.Reply.Equal(ledger.DefaultFees().Reply))
}

func TestParseFeesRejectsBadValues(t *testing.T) {
	_, err := ParseFees([]byte("edit: \"-1\"\n"))
	assert.Error(t, err)
	_, err = ParseFees([]byte("edit: \"ten\"\n"))
	assert.Error(t, err)
}

func TestLoadFeesFromFile(t *testing.T) {
	fees, err := LoadFees("")
	require.NoError(t, err)
	assert.True(t, fees.Post.Equal(ledger.DefaultFees().Post))

	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delete: \"0\"\n"), 0o600))
	fees, err = LoadFees(path)
	require.NoError(t, err)
	assert.True(t, fees.Delete.IsZero())

	_, err = LoadFees(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
