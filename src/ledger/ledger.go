// Package ledger implements the discussion ledger: accounts, sections, the
// five-level post tree with fee-weighted votes, moderator annotations, polls
// and the counter tallies kept at protocol, domain, section and account scope.
//
// Every mutating call runs in a single database transaction. A failed check,
// counter update or fee transfer rolls back the whole call.
package ledger

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

type Ledger struct {
	store *Store
	roles Roles
	fees  FeeSchedule
	log   logrus.FieldLogger
	sinks []EventSink
}

type Option func(*Ledger)

func WithFees(f FeeSchedule) Option {
	return func(l *Ledger) { l.fees = f }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithSinks adds event sinks, called in order after each commit.
func WithSinks(sinks ...EventSink) Option {
	return func(l *Ledger) { l.sinks = append(l.sinks, sinks...) }
}

func New(store *Store, roles Roles, opts ...Option) (*Ledger, error) {
	if roles.Moderator == "" || roles.Treasurer == "" {
		return nil, errors.New("ledger: moderator and treasurer identities are required")
	}
	l := &Ledger{
		store: store,
		roles: roles,
		fees:  DefaultFees(),
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.fees.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Roles() Roles      { return l.roles }
func (l *Ledger) Fees() FeeSchedule { return l.fees }
func (l *Ledger) Store() *Store     { return l.store }

func (l *Ledger) requireModerator(caller Identity) error {
	if caller != l.roles.Moderator {
		return fail(ErrNotModerator, "%s is not the moderator", caller)
	}
	return nil
}

// exec runs fn atomically, then logs and publishes the event fn filled in.
func (l *Ledger) exec(ctx context.Context, action string, caller Identity, fn func(tx *Tx, ev *Event) error) error {
	ev := newEvent(action, caller)
	err := l.store.Atomic(ctx, func(tx *Tx) error {
		ev.At = tx.now
		return fn(tx, ev)
	})
	if err != nil {
		l.log.WithFields(logrus.Fields{
			"action": action,
			"caller": caller,
			"code":   CodeOf(err),
		}).Debug("ledger call rejected")
		return err
	}
	l.emit(ctx, *ev)
	return nil
}

func (l *Ledger) emit(ctx context.Context, ev Event) {
	fields := logrus.Fields{
		"event":  ev.ID,
		"action": ev.Action,
		"caller": ev.Caller,
	}
	if ev.Target != "" {
		fields["target"] = ev.Target
	}
	for k, v := range ev.Fields {
		fields[k] = v
	}
	l.log.WithFields(fields).Info("ledger")
	for _, sink := range l.sinks {
		if err := sink.Publish(ctx, ev); err != nil {
			l.log.WithError(err).WithField("event", ev.ID).Warn("event sink failed")
		}
	}
}
