package actions

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	feedmodule "github.com/stake-plus/chatledger/src/actions/feed"
	sharedconfig "github.com/stake-plus/chatledger/src/config"
	shareddiscord "github.com/stake-plus/chatledger/src/discord"
)

// StartAll wires up enabled action modules and starts the manager. A nil
// sender makes the feed open its own bot session.
func StartAll(ctx context.Context, cfg sharedconfig.FeedBotConfig, rdb *redis.Client, sender shareddiscord.ChannelSender, log *logrus.Logger) (*Manager, error) {
	mgr := NewManager(log)

	if cfg.Enabled {
		var (
			mod *feedmodule.Module
			err error
		)
		if sender != nil {
			mod, err = feedmodule.NewModuleWithSender(&cfg, rdb, sender, log)
		} else {
			mod, err = feedmodule.NewModule(&cfg, rdb, log)
		}
		if err != nil {
			return nil, fmt.Errorf("actions: init feed module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add feed module: %w", err)
		}
	} else {
		log.Info("actions: feed module disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
