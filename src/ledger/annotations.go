package ledger

import (
	"context"
)

func newIdea(p *Post, tx *Tx) *Idea {
	return &Idea{
		PostID:        p.ID,
		Domain:        p.Domain,
		SectionPrefix: p.SectionPrefix,
		SectionName:   p.SectionName,
		Depth:         p.Depth,
		Owner:         p.Owner,
		Seq:           p.Seq,
		Text:          p.Message,
		CreatedAt:     tx.now,
		UpdatedAt:     tx.now,
	}
}

func newFlagRecord(p *Post, tx *Tx) *FlagRecord {
	return &FlagRecord{
		PostID:        p.ID,
		Domain:        p.Domain,
		SectionPrefix: p.SectionPrefix,
		SectionName:   p.SectionName,
		Depth:         p.Depth,
		Owner:         p.Owner,
		Seq:           p.Seq,
		Text:          p.Message,
		WasEdited:     p.Edited,
		CreatedAt:     tx.now,
	}
}

// Address returns the address of the starred post.
func (i *Idea) Address() Address {
	return Address{Domain: i.Domain, Section: SectionKey{Prefix: i.SectionPrefix, Name: i.SectionName}, Depth: i.Depth, Owner: i.Owner, Seq: i.Seq}
}

func (f *FlagRecord) Address() Address {
	return Address{Domain: f.Domain, Section: SectionKey{Prefix: f.SectionPrefix, Name: f.SectionName}, Depth: f.Depth, Owner: f.Owner, Seq: f.Seq}
}

func (tx *Tx) ideaAt(addr Address) (*Idea, error) {
	post, err := tx.post(addr)
	if err != nil {
		return nil, err
	}
	return tx.idea(post.ID)
}

// SetIdeaImplemented marks an idea implemented (stamping the time) or not.
func (l *Ledger) SetIdeaImplemented(ctx context.Context, caller Identity, addr Address, implemented bool) (*Idea, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := addr.validate(); err != nil {
		return nil, err
	}
	var idea *Idea
	err := l.exec(ctx, "idea.implemented", caller, func(tx *Tx, ev *Event) error {
		var err error
		if idea, err = tx.ideaAt(addr); err != nil {
			return err
		}
		if idea.Implemented == implemented {
			return fail(ErrFlagSameState, "idea %s implemented is already %t", addr, implemented)
		}
		idea.Implemented = implemented
		if implemented {
			at := tx.now
			idea.ImplementedAt = &at
		} else {
			idea.ImplementedAt = nil
		}
		idea.UpdatedAt = tx.now
		ev.Target = addr.String()
		ev.Domain = addr.Domain
		ev.Section = addr.Section.String()
		ev.set("implemented", implemented).set("text", idea.Text)
		return tx.save(idea)
	})
	if err != nil {
		return nil, err
	}
	return idea, nil
}

// UpdateIdea rewrites an idea's snapshot text. The post itself is untouched.
func (l *Ledger) UpdateIdea(ctx context.Context, caller Identity, addr Address, text string) (*Idea, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := checkLen("idea text", text, MaxMessageLen); err != nil {
		return nil, err
	}
	if err := addr.validate(); err != nil {
		return nil, err
	}
	var idea *Idea
	err := l.exec(ctx, "idea.update", caller, func(tx *Tx, ev *Event) error {
		var err error
		if idea, err = tx.ideaAt(addr); err != nil {
			return err
		}
		idea.Text = text
		if !idea.Updated {
			idea.Updated = true
		}
		idea.UpdatedAt = tx.now
		ev.Target = addr.String()
		ev.Domain = addr.Domain
		ev.Section = addr.Section.String()
		ev.set("text", text)
		return tx.save(idea)
	})
	if err != nil {
		return nil, err
	}
	return idea, nil
}

func (l *Ledger) GetIdea(ctx context.Context, addr Address) (*Idea, error) {
	post, err := l.GetPost(ctx, addr)
	if err != nil {
		return nil, err
	}
	var idea Idea
	if err := l.store.db.WithContext(ctx).First(&idea, "post_id = ?", post.ID).Error; err != nil {
		return nil, lookupErr(err, ErrIdeaNotFound, "no idea for post %s", addr)
	}
	return &idea, nil
}

// ListIdeas pages ideas newest first. A nil implemented matches both states.
func (l *Ledger) ListIdeas(ctx context.Context, implemented *bool, page Page) ([]Idea, error) {
	db := l.store.db.WithContext(ctx)
	if implemented != nil {
		db = db.Where("implemented = ?", *implemented)
	}
	var out []Idea
	err := page.apply(db).Order("post_id DESC").Find(&out).Error
	return out, err
}

func (l *Ledger) GetFlagRecord(ctx context.Context, addr Address) (*FlagRecord, error) {
	post, err := l.GetPost(ctx, addr)
	if err != nil {
		return nil, err
	}
	var rec FlagRecord
	if err := l.store.db.WithContext(ctx).First(&rec, "post_id = ?", post.ID).Error; err != nil {
		return nil, lookupErr(err, ErrFlagNotFound, "no flag record for post %s", addr)
	}
	return &rec, nil
}

func (l *Ledger) ListFlagRecords(ctx context.Context, page Page) ([]FlagRecord, error) {
	var out []FlagRecord
	err := page.apply(l.store.db.WithContext(ctx)).Order("post_id DESC").Find(&out).Error
	return out, err
}
