package ledger

import (
	"context"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Page bounds list reads.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return db.Limit(limit).Offset(offset)
}

// Tally reads one counter set. Missing rows read as zero.
func (l *Ledger) Tally(ctx context.Context, ref TallyRef) (Tally, error) {
	return readTally(l.store.db.WithContext(ctx), ref)
}

// TallyLevels returns the per-depth tallies of a scope, index 0 holding the
// total and 1..MaxDepth the levels.
func (l *Ledger) TallyLevels(ctx context.Context, scope Scope, key string, domain Domain) ([MaxDepth + 1]Tally, error) {
	var out [MaxDepth + 1]Tally
	var rows []tallyRow
	err := l.store.db.WithContext(ctx).
		Where("scope = ? AND scope_key = ? AND domain = ?", scope, key, domain).
		Find(&rows).Error
	if err != nil {
		return out, err
	}
	for _, r := range rows {
		if int(r.Depth) < len(out) {
			out[r.Depth] = r.Tally
		}
	}
	return out, nil
}

// SectionTally is the all-domain total of a section.
func (l *Ledger) SectionTally(ctx context.Context, key SectionKey) (Tally, error) {
	return l.Tally(ctx, TallyRef{Scope: ScopeSection, Key: key.String()})
}

// DomainTally is the total of one domain.
func (l *Ledger) DomainTally(ctx context.Context, domain Domain) (Tally, error) {
	return l.Tally(ctx, TallyRef{Scope: ScopeDomain, Domain: domain})
}

// ProtocolState reads the protocol-wide sequence counters.
func (l *Ledger) ProtocolState(ctx context.Context) (*ProtocolState, error) {
	var ps ProtocolState
	err := l.store.db.WithContext(ctx).Limit(1).Find(&ps, "id = ?", protocolStateID).Error
	return &ps, err
}

// CheckTallies reports whether the total row of a scope equals the sum of its
// levels for every counter family.
func (l *Ledger) CheckTallies(ctx context.Context, scope Scope, key string, domain Domain) (bool, error) {
	db := l.store.db.WithContext(ctx)
	total, err := readTally(db, TallyRef{Scope: scope, Key: key, Domain: domain})
	if err != nil {
		return false, err
	}
	sum, err := sumLevels(db, TallyRef{Scope: scope, Key: key, Domain: domain})
	if err != nil {
		return false, err
	}
	return total == sum, nil
}
