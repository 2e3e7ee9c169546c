package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/chatledger/src/actions"
	sharedconfig "github.com/stake-plus/chatledger/src/config"
	shareddata "github.com/stake-plus/chatledger/src/data"
	"github.com/stake-plus/chatledger/src/logging"
	"gorm.io/gorm"
)

func main() {
	sharedconfig.LoadEnv()
	log := logging.FromEnv()

	// settings rows are optional; env covers everything without a database
	var db *gorm.DB
	if dsn, err := shareddata.GetMySQLDSN(); err == nil {
		db, err = shareddata.ConnectMySQL(dsn, log)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
	}

	cfg := sharedconfig.LoadFeedBotConfig(db)
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := actions.StartAll(ctx, cfg, rdb, nil, log)
	if err != nil {
		log.Fatalf("actions start: %v", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	stopCtx, stop := context.WithTimeout(ctx, 10*time.Second)
	defer stop()
	manager.Stop(stopCtx)
}
