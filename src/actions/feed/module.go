package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/chatledger/src/actions/core"
	sharedconfig "github.com/stake-plus/chatledger/src/config"
	shareddata "github.com/stake-plus/chatledger/src/data"
	shareddiscord "github.com/stake-plus/chatledger/src/discord"
	"github.com/stake-plus/chatledger/src/logging"
)

var _ core.Module = (*Module)(nil)

const (
	readCount      = 10
	maxSendRetries = 5
	baseBackoff    = time.Second
)

// Module relays moderation events from the ledger stream to a Discord channel.
type Module struct {
	config  *sharedconfig.FeedBotConfig
	rdb     *redis.Client
	session *discordgo.Session
	sender  shareddiscord.ChannelSender
	log     logrus.FieldLogger
	actions map[string]bool
	backoff time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewModule opens a bot session for cfg.Token.
func NewModule(cfg *sharedconfig.FeedBotConfig, rdb *redis.Client, log logrus.FieldLogger) (*Module, error) {
	if cfg.Token == "" {
		return nil, errors.New("feed: discord token is not configured")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	m, err := NewModuleWithSender(cfg, rdb, session, log)
	if err != nil {
		return nil, err
	}
	m.session = session
	return m, nil
}

// NewModuleWithSender relays through an existing sender; nothing is opened
// or closed.
func NewModuleWithSender(cfg *sharedconfig.FeedBotConfig, rdb *redis.Client, sender shareddiscord.ChannelSender, log logrus.FieldLogger) (*Module, error) {
	if cfg.ChannelID == "" {
		return nil, errors.New("feed: channel id is not configured")
	}
	actions := make(map[string]bool, len(cfg.Actions))
	for _, a := range cfg.Actions {
		actions[a] = true
	}
	return &Module{
		config:  cfg,
		rdb:     rdb,
		sender:  sender,
		log:     log.WithField("module", "feed"),
		actions: actions,
		backoff: baseBackoff,
	}, nil
}

// Name implements actions.Module.
func (m *Module) Name() string { return "feed" }

func (m *Module) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return errors.New("feed: already started")
	}

	err := m.rdb.XGroupCreateMkStream(ctx, m.config.StreamKey, m.config.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("feed: create consumer group: %w", err)
	}
	if m.session != nil {
		if err := m.session.Open(); err != nil {
			return fmt.Errorf("feed: open discord session: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx, m.done)
	m.log.WithFields(logrus.Fields{"stream": m.config.StreamKey, "channel": m.config.ChannelID}).Info("feed started")
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if m.session != nil {
		_ = m.session.Close()
	}
	m.log.Info("feed stopped")
}

// run drains this consumer's pending entries, then follows new ones. A
// failed relay sends it back to the pending list after a pause.
func (m *Module) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	cursor := "0"
	for ctx.Err() == nil {
		acked, failed, err := m.poll(ctx, cursor)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			m.log.WithError(err).Warn("stream read failed")
		}
		if err != nil || failed {
			if sleep(ctx, m.backoff) != nil {
				return
			}
		}
		switch {
		case failed:
			cursor = "0"
		case cursor == "0" && acked == 0:
			cursor = ">"
		}
	}
}

// poll reads one batch from cursor. It stops at the first entry that cannot
// be relayed and leaves it pending.
func (m *Module) poll(ctx context.Context, cursor string) (acked int, failed bool, err error) {
	block := m.config.BlockTimeout
	if cursor == "0" {
		block = -1
	}
	streams, err := m.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    m.config.Group,
		Consumer: m.config.Consumer,
		Streams:  []string{m.config.StreamKey, cursor},
		Count:    readCount,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	for _, s := range streams {
		for _, msg := range s.Messages {
			if err := m.handle(ctx, msg); err != nil {
				m.log.WithError(err).WithField("entry", msg.ID).Error("relay failed")
				return acked, true, nil
			}
			if err := m.rdb.XAck(ctx, m.config.StreamKey, m.config.Group, msg.ID).Err(); err != nil {
				return acked, false, err
			}
			acked++
		}
	}
	return acked, false, nil
}

// handle relays one entry. Malformed and unsubscribed entries succeed so
// they are acknowledged.
func (m *Module) handle(ctx context.Context, msg redis.XMessage) error {
	ev, err := shareddata.DecodeEvent(msg.Values)
	if err != nil {
		m.log.WithError(err).WithField("entry", msg.ID).Warn("skipping malformed entry")
		return nil
	}
	if !m.actions[ev.Action] {
		return nil
	}
	title, body, ok := Format(ev)
	if !ok {
		return nil
	}
	return m.deliver(ctx, title, body)
}

// deliver sends a card, waiting out Discord rate limits.
func (m *Module) deliver(ctx context.Context, title, body string) error {
	for attempt := 0; ; attempt++ {
		_, err := shareddiscord.SendCard(m.sender, m.config.ChannelID, title, body)
		if err == nil {
			return nil
		}
		if !logging.IsRateLimit(err) || attempt >= maxSendRetries {
			return err
		}
		wait := logging.RetryAfter(err)
		if wait <= 0 {
			wait = m.backoff << attempt
		}
		m.log.WithField("wait", wait).Warn("discord rate limited")
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
