package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/chatledger/src/ledger"
)

// EventStream is the redis stream committed ledger events are appended to.
const EventStream = "chatledger.events"

// StreamPublisher appends ledger events to a redis stream. It is a
// ledger.EventSink.
type StreamPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(rdb *redis.Client, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = EventStream
	}
	return &StreamPublisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev ledger.Event) error {
	values, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: p.stream, Values: values}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return p.rdb.XAdd(ctx, args).Err()
}

// EncodeEvent flattens an event into stream field values.
func EncodeEvent(ev ledger.Event) (map[string]interface{}, error) {
	fields, err := json.Marshal(ev.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode event fields: %w", err)
	}
	return map[string]interface{}{
		"id":      ev.ID,
		"action":  ev.Action,
		"caller":  string(ev.Caller),
		"target":  ev.Target,
		"domain":  string(ev.Domain),
		"section": ev.Section,
		"fields":  string(fields),
		"at":      ev.At.UTC().Format(time.RFC3339Nano),
	}, nil
}

// DecodeEvent rebuilds an event from a stream entry.
func DecodeEvent(values map[string]interface{}) (ledger.Event, error) {
	str := func(k string) string {
		if v, ok := values[k].(string); ok {
			return v
		}
		return ""
	}
	ev := ledger.Event{
		ID:      str("id"),
		Action:  str("action"),
		Caller:  ledger.Identity(str("caller")),
		Target:  str("target"),
		Domain:  ledger.Domain(str("domain")),
		Section: str("section"),
	}
	if ev.Action == "" {
		return ev, fmt.Errorf("stream entry has no action")
	}
	if raw := str("fields"); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &ev.Fields); err != nil {
			return ev, fmt.Errorf("decode event fields: %w", err)
		}
	}
	if raw := str("at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return ev, fmt.Errorf("decode event time: %w", err)
		}
		ev.At = at
	}
	return ev, nil
}
