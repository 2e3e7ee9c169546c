package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event describes one committed ledger call.
type Event struct {
	ID      string            `json:"id"`
	Action  string            `json:"action"`
	Caller  Identity          `json:"caller"`
	Target  string            `json:"target,omitempty"`
	Domain  Domain            `json:"domain,omitempty"`
	Section string            `json:"section,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	At      time.Time         `json:"at"`
}

func newEvent(action string, caller Identity) *Event {
	return &Event{ID: uuid.NewString(), Action: action, Caller: caller}
}

func (e *Event) set(key string, v any) *Event {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[key] = fmt.Sprint(v)
	return e
}

func (e *Event) post(p *Post) *Event {
	e.Target = p.Address().String()
	e.Domain = p.Domain
	e.Section = SectionKey{Prefix: p.SectionPrefix, Name: p.SectionName}.String()
	return e.set("post_id", p.ID)
}

// EventSink receives events after commit. Errors are logged and never undo
// the call.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
