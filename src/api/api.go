package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stake-plus/chatledger/src/api/config"
	"github.com/stake-plus/chatledger/src/api/data"
	"github.com/stake-plus/chatledger/src/api/webserver"
	sharedconfig "github.com/stake-plus/chatledger/src/config"
	shareddata "github.com/stake-plus/chatledger/src/data"
	"github.com/stake-plus/chatledger/src/ledger"
	"github.com/stake-plus/chatledger/src/logging"
	"gorm.io/gorm"
)

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&shareddata.Setting{}); err != nil {
		return err
	}
	return ledger.NewStore(db).Migrate()
}

func main() {
	sharedconfig.LoadEnv()
	log := logging.FromEnv()

	dsn, err := shareddata.GetMySQLDSN()
	if err != nil {
		log.Fatal(err)
	}
	db := data.MustMySQL(dsn, log)
	if err := migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	cfg, err := config.Load(db)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	rdb := data.MustRedis(cfg.RedisURL, log)

	metrics := webserver.NewMetrics()
	cache := data.NewTallyCache(rdb, cfg.TallyCacheTTL, log)
	stream := shareddata.NewStreamPublisher(rdb, cfg.EventStream, cfg.EventStreamLen)
	l, err := ledger.New(ledger.NewStore(db), cfg.Roles(),
		ledger.WithFees(cfg.Fees),
		ledger.WithLogger(log),
		ledger.WithSinks(stream, cache, metrics),
	)
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := webserver.New(webserver.Deps{Config: cfg, Ledger: l, Redis: rdb, Cache: cache, Metrics: metrics, Log: log})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLSCertFile != "" {
			reloader, rerr := webserver.NewTLSReloader(cfg.TLSCertFile, cfg.TLSKeyFile, log)
			if rerr != nil {
				log.Fatalf("tls: %v", rerr)
			}
			go reloader.Watch(ctx, 5*time.Minute)
			httpSrv.TLSConfig = reloader.GetConfig()
			err = httpSrv.ListenAndServeTLS("", "")
		} else {
			err = httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()
	log.WithField("port", cfg.Port).Info("chat ledger API listening")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
	_ = rdb.Close()
}
