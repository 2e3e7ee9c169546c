package ledger

import (
	"context"
)

// CreateSection registers a section. Any account holder may create one.
func (l *Ledger) CreateSection(ctx context.Context, caller Identity, key SectionKey) (*Section, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	var sec *Section
	err := l.exec(ctx, "section.create", caller, func(tx *Tx, ev *Event) error {
		if _, err := tx.account(caller); err != nil {
			return err
		}
		found, err := tx.exists(&Section{}, "prefix = ? AND name = ?", key.Prefix, key.Name)
		if err != nil {
			return err
		}
		if found {
			return fail(ErrSectionExists, "section %s already exists", key)
		}
		ps, err := tx.protocol()
		if err != nil {
			return err
		}
		ps.SectionCount++
		sec = &Section{
			Prefix:    key.Prefix,
			Name:      key.Name,
			SectionID: ps.SectionCount,
			Creator:   caller,
			CreatedAt: tx.now,
			UpdatedAt: tx.now,
		}
		if err := tx.create(sec); err != nil {
			return err
		}
		ev.Target = key.String()
		ev.Section = key.String()
		return tx.save(ps)
	})
	if err != nil {
		return nil, err
	}
	return sec, nil
}

// SetSectionDisabled enables or disables posting in a section.
func (l *Ledger) SetSectionDisabled(ctx context.Context, caller Identity, key SectionKey, disabled bool) (*Section, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	var sec *Section
	err := l.exec(ctx, "section.disable", caller, func(tx *Tx, ev *Event) error {
		var err error
		if sec, err = tx.section(key); err != nil {
			return err
		}
		if sec.Disabled == disabled {
			return fail(ErrFlagSameState, "section %s disabled is already %t", key, disabled)
		}
		sec.Disabled = disabled
		sec.UpdatedAt = tx.now
		ev.Target = key.String()
		ev.Section = key.String()
		ev.set("disabled", disabled)
		return tx.save(sec)
	})
	if err != nil {
		return nil, err
	}
	return sec, nil
}

// DeleteSection removes a section that holds no live posts. Its tallies stay.
func (l *Ledger) DeleteSection(ctx context.Context, caller Identity, key SectionKey) error {
	if err := l.requireModerator(caller); err != nil {
		return err
	}
	return l.exec(ctx, "section.delete", caller, func(tx *Tx, ev *Event) error {
		if _, err := tx.section(key); err != nil {
			return err
		}
		live, err := tx.exists(&Post{}, "section_prefix = ? AND section_name = ? AND deleted = ?", key.Prefix, key.Name, false)
		if err != nil {
			return err
		}
		if live {
			return fail(ErrActiveChildren, "section %s still has active posts", key)
		}
		ev.Target = key.String()
		ev.Section = key.String()
		return tx.db.Delete(&Section{}, "prefix = ? AND name = ?", key.Prefix, key.Name).Error
	})
}

// VoteSection casts a video vote on the section's subject. The fee goes to the
// treasury only.
func (l *Ledger) VoteSection(ctx context.Context, caller Identity, key SectionKey, weight int64, mint string) (*Section, error) {
	if err := checkWeight(weight); err != nil {
		return nil, err
	}
	var sec *Section
	err := l.exec(ctx, "section.vote", caller, func(tx *Tx, ev *Event) error {
		voter, err := tx.account(caller)
		if err != nil {
			return err
		}
		if sec, err = tx.section(key); err != nil {
			return err
		}
		if sec.Disabled {
			return fail(ErrSectionDisabled, "section %s is disabled", key)
		}
		tok, err := tx.feeToken(mint)
		if err != nil {
			return err
		}
		fee, err := l.fees.TargetVote(weight, tok.Decimals)
		if err != nil {
			return err
		}
		if err := countVote(&sec.UpVoteCount, &sec.UpVoteScore, &sec.DownVoteCount, &sec.DownVoteScore, weight); err != nil {
			return err
		}
		sec.UpdatedAt = tx.now
		if err := tx.save(sec); err != nil {
			return err
		}
		if err := l.recordVote(tx, voter, "", TargetSection, key.String(), weight); err != nil {
			return err
		}
		ev.Target = key.String()
		ev.Section = key.String()
		ev.set("weight", weight)
		return tx.transfer(mint, caller, l.roles.Treasurer, fee)
	})
	if err != nil {
		return nil, err
	}
	return sec, nil
}

func (l *Ledger) GetSection(ctx context.Context, key SectionKey) (*Section, error) {
	var sec Section
	err := l.store.db.WithContext(ctx).First(&sec, "prefix = ? AND name = ?", key.Prefix, key.Name).Error
	if err != nil {
		return nil, lookupErr(err, ErrSectionNotFound, "section %s not found", key)
	}
	return &sec, nil
}

// ListSections pages sections in creation order, optionally filtered by prefix.
func (l *Ledger) ListSections(ctx context.Context, prefix string, page Page) ([]Section, error) {
	db := l.store.db.WithContext(ctx)
	if prefix != "" {
		db = db.Where("prefix = ?", prefix)
	}
	var out []Section
	err := page.apply(db).Order("section_id").Find(&out).Error
	return out, err
}
