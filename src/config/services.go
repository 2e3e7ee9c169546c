package config

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// FeedBotConfig holds the Discord feed bot configuration
type FeedBotConfig struct {
	Base
	ChannelID    string
	StreamKey    string
	Group        string
	Consumer     string
	Actions      []string
	BlockTimeout time.Duration
	Enabled      bool
}

// DefaultFeedActions are the ledger events the feed bot relays.
var DefaultFeedActions = []string{"post.star", "post.fed", "idea.implemented", "idea.update"}

// LoadFeedBotConfig loads feed bot configuration
func LoadFeedBotConfig(db *gorm.DB) FeedBotConfig {
	base := LoadBase(db)
	blockSeconds := getIntSetting("feed_block_seconds", "FEED_BLOCK_SECONDS", 5)
	if blockSeconds <= 0 {
		blockSeconds = 5
	}

	return FeedBotConfig{
		Base:         base,
		ChannelID:    GetSetting("feed_channel_id", "FEED_CHANNEL_ID", ""),
		StreamKey:    GetSetting("event_stream", "EVENT_STREAM", "chatledger.events"),
		Group:        GetSetting("feed_group", "FEED_GROUP", "feedbot"),
		Consumer:     GetSetting("feed_consumer", "FEED_CONSUMER", "feedbot-1"),
		Actions:      splitList(GetSetting("feed_actions", "FEED_ACTIONS", ""), DefaultFeedActions),
		BlockTimeout: time.Duration(blockSeconds) * time.Second,
		Enabled:      getBoolSetting("enable_feed", "ENABLE_FEED", true),
	}
}

func splitList(raw string, def []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
