package data

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/chatledger/src/ledger"
)

// Levels is a scope's total (index 0) followed by its per-depth tallies.
type Levels = [ledger.MaxDepth + 1]ledger.Tally

// TallyCache keeps tally reads in redis for a short TTL.
type TallyCache struct {
	rdb *redis.Client
	ttl time.Duration
	log logrus.FieldLogger
}

func NewTallyCache(rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *TallyCache {
	return &TallyCache{rdb: rdb, ttl: ttl, log: log}
}

// TallyKey derives the redis key of one (scope, key, domain) counter set.
func TallyKey(scope ledger.Scope, key string, domain ledger.Domain) string {
	h := xxhash.New64()
	_, _ = h.WriteString(string(scope))
	_, _ = h.WriteString("\x00" + key)
	_, _ = h.WriteString("\x00" + string(domain))
	return "tally:" + strconv.FormatUint(h.Sum64(), 16)
}

// Levels returns the cached tallies or fills the cache from load.
func (c *TallyCache) Levels(ctx context.Context, scope ledger.Scope, key string, domain ledger.Domain,
	load func(context.Context) (Levels, error)) (Levels, error) {
	k := TallyKey(scope, key, domain)
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err == nil {
		var out Levels
		if jerr := json.Unmarshal(raw, &out); jerr == nil {
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.WithError(err).Warn("tally cache read failed")
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if buf, jerr := json.Marshal(out); jerr == nil {
		if serr := c.rdb.Set(ctx, k, buf, c.ttl).Err(); serr != nil {
			c.log.WithError(serr).Warn("tally cache write failed")
		}
	}
	return out, nil
}

// Publish drops every cached counter set a committed post event touched.
func (c *TallyCache) Publish(ctx context.Context, ev ledger.Event) error {
	if ev.Section == "" {
		return nil
	}
	keys := []string{
		TallyKey(ledger.ScopeProtocol, "", ""),
		TallyKey(ledger.ScopeSection, ev.Section, ""),
	}
	if ev.Domain != "" {
		keys = append(keys,
			TallyKey(ledger.ScopeDomain, "", ev.Domain),
			TallyKey(ledger.ScopeSection, ev.Section, ev.Domain))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
