package ledger

import (
	"context"
)

// CreatePost adds a depth-1 comment to a section under one domain.
func (l *Ledger) CreatePost(ctx context.Context, caller Identity, domain Domain, key SectionKey, message, mint string) (*Post, error) {
	if _, err := ParseDomain(string(domain)); err != nil {
		return nil, err
	}
	if err := key.validate(); err != nil {
		return nil, err
	}
	if err := checkLen("message", message, MaxMessageLen); err != nil {
		return nil, err
	}
	var post *Post
	err := l.exec(ctx, "post.create", caller, func(tx *Tx, ev *Event) error {
		var err error
		if post, err = l.insertPost(tx, caller, domain, key, DepthComment, nil, message); err != nil {
			return err
		}
		ev.post(post)
		return l.charge(tx, caller, mint, FeePost)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Reply adds a post one level below parent. Replying to a deleted post or
// below the deepest level fails.
func (l *Ledger) Reply(ctx context.Context, caller Identity, parent Address, message, mint string) (*Post, error) {
	if err := parent.validate(); err != nil {
		return nil, err
	}
	if parent.Depth >= MaxDepth {
		return nil, fail(ErrMaxDepth, "%s replies are the deepest level", MaxDepth)
	}
	if err := checkLen("message", message, MaxMessageLen); err != nil {
		return nil, err
	}
	var post *Post
	err := l.exec(ctx, "post.reply", caller, func(tx *Tx, ev *Event) error {
		up, err := tx.post(parent)
		if err != nil {
			return err
		}
		if up.Deleted {
			return fail(ErrPostDeleted, "post %s is deleted", parent)
		}
		if post, err = l.insertPost(tx, caller, parent.Domain, parent.Section, parent.Depth+1, up, message); err != nil {
			return err
		}
		ev.post(post).set("parent", parent.String())
		return l.charge(tx, caller, mint, FeeReply)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (l *Ledger) insertPost(tx *Tx, owner Identity, domain Domain, key SectionKey, depth Depth, parent *Post, message string) (*Post, error) {
	acct, err := tx.account(owner)
	if err != nil {
		return nil, err
	}
	sec, err := tx.section(key)
	if err != nil {
		return nil, err
	}
	if sec.Disabled {
		return nil, fail(ErrSectionDisabled, "section %s is disabled", key)
	}
	ps, err := tx.protocol()
	if err != nil {
		return nil, err
	}
	ps.PostCount++
	post := &Post{
		ID:            ps.PostCount,
		Domain:        domain,
		SectionPrefix: key.Prefix,
		SectionName:   key.Name,
		Depth:         depth,
		Owner:         owner,
		Seq:           acct.PostSeq,
		Message:       message,
		CreatedAt:     tx.now,
		UpdatedAt:     tx.now,
	}
	if parent != nil {
		post.ParentID = parent.ID
		post.ParentOwner = parent.Owner
		post.ParentSeq = parent.Seq
		parent.ReplyCount++
		parent.UpdatedAt = tx.now
		if err := tx.save(parent); err != nil {
			return nil, err
		}
	}
	if err := tx.create(post); err != nil {
		return nil, err
	}
	acct.PostSeq++
	acct.PostCount++
	acct.UpdatedAt = tx.now
	if err := tx.save(acct); err != nil {
		return nil, err
	}
	if err := tx.save(ps); err != nil {
		return nil, err
	}
	return post, tx.bump(postScopes(domain, key), depth, Tally{Posts: 1})
}

// ownedLive loads a post the caller owns and that is not deleted.
func ownedLive(tx *Tx, caller Identity, addr Address) (*Post, error) {
	post, err := tx.post(addr)
	if err != nil {
		return nil, err
	}
	if post.Owner != caller {
		return nil, fail(ErrNotOwner, "%s does not own post %s", caller, addr)
	}
	if post.Deleted {
		return nil, fail(ErrPostDeleted, "post %s is deleted", addr)
	}
	return post, nil
}

// EditPost replaces the message of a live post the caller owns.
func (l *Ledger) EditPost(ctx context.Context, caller Identity, addr Address, message, mint string) (*Post, error) {
	if err := addr.validate(); err != nil {
		return nil, err
	}
	var post *Post
	err := l.exec(ctx, "post.edit", caller, func(tx *Tx, ev *Event) error {
		var err error
		if post, err = ownedLive(tx, caller, addr); err != nil {
			return err
		}
		if err := checkLen("message", message, MaxMessageLen); err != nil {
			return err
		}
		acct, err := tx.account(caller)
		if err != nil {
			return err
		}
		post.Message = message
		if !post.Edited {
			post.Edited = true
		}
		post.EditCount++
		post.UpdatedAt = tx.now
		acct.EditCount++
		acct.UpdatedAt = tx.now
		if err := tx.save(post); err != nil {
			return err
		}
		if err := tx.save(acct); err != nil {
			return err
		}
		if err := tx.bump(postScopes(post.Domain, addr.Section), post.Depth, Tally{Edits: 1}); err != nil {
			return err
		}
		ev.post(post)
		return l.charge(tx, caller, mint, FeeEdit)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost soft-deletes a post the caller owns. Deletion is terminal.
func (l *Ledger) DeletePost(ctx context.Context, caller Identity, addr Address, mint string) (*Post, error) {
	if err := addr.validate(); err != nil {
		return nil, err
	}
	var post *Post
	err := l.exec(ctx, "post.delete", caller, func(tx *Tx, ev *Event) error {
		var err error
		if post, err = ownedLive(tx, caller, addr); err != nil {
			return err
		}
		acct, err := tx.account(caller)
		if err != nil {
			return err
		}
		post.Deleted = true
		post.UpdatedAt = tx.now
		acct.DeleteCount++
		acct.UpdatedAt = tx.now
		if err := tx.save(post); err != nil {
			return err
		}
		if err := tx.save(acct); err != nil {
			return err
		}
		if err := tx.bump(postScopes(post.Domain, addr.Section), post.Depth, Tally{Deletes: 1}); err != nil {
			return err
		}
		ev.post(post)
		return l.charge(tx, caller, mint, FeeDelete)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// SetStar stars or unstars a post. Starring snapshots the message into an
// Idea; unstarring removes it and reverses every star counter.
func (l *Ledger) SetStar(ctx context.Context, caller Identity, addr Address, starred bool) (*Post, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := addr.validate(); err != nil {
		return nil, err
	}
	action := "post.star"
	if !starred {
		action = "post.unstar"
	}
	var post *Post
	err := l.exec(ctx, action, caller, func(tx *Tx, ev *Event) error {
		var err error
		if post, err = tx.post(addr); err != nil {
			return err
		}
		if post.Starred == starred {
			return fail(ErrFlagSameState, "post %s starred is already %t", addr, starred)
		}
		owner, err := tx.account(post.Owner)
		if err != nil {
			return err
		}
		delta := int64(1)
		if !starred {
			delta = -1
		}
		post.Starred = starred
		post.UpdatedAt = tx.now
		owner.StarCount += delta
		owner.UpdatedAt = tx.now
		if err := tx.save(post); err != nil {
			return err
		}
		if err := tx.save(owner); err != nil {
			return err
		}
		if err := tx.bump(postScopes(post.Domain, addr.Section), post.Depth, Tally{Stars: delta}); err != nil {
			return err
		}
		ev.post(post).set("message", post.Message)
		if starred {
			return tx.create(newIdea(post, tx))
		}
		return tx.db.Delete(&Idea{}, "post_id = ?", post.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// SetFed fed-marks or clears a post. Marking snapshots the message and
// whether it had been edited into a FlagRecord; clearing removes it.
func (l *Ledger) SetFed(ctx context.Context, caller Identity, addr Address, fed bool) (*Post, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := addr.validate(); err != nil {
		return nil, err
	}
	action := "post.fed"
	if !fed {
		action = "post.unfed"
	}
	var post *Post
	err := l.exec(ctx, action, caller, func(tx *Tx, ev *Event) error {
		var err error
		if post, err = tx.post(addr); err != nil {
			return err
		}
		if post.Fed == fed {
			return fail(ErrFlagSameState, "post %s fed is already %t", addr, fed)
		}
		owner, err := tx.account(post.Owner)
		if err != nil {
			return err
		}
		delta := int64(1)
		if !fed {
			delta = -1
		}
		post.Fed = fed
		post.UpdatedAt = tx.now
		owner.FedCount += delta
		owner.UpdatedAt = tx.now
		if err := tx.save(post); err != nil {
			return err
		}
		if err := tx.save(owner); err != nil {
			return err
		}
		if err := tx.bump(postScopes(post.Domain, addr.Section), post.Depth, Tally{Flags: delta}); err != nil {
			return err
		}
		ev.post(post).set("message", post.Message)
		if fed {
			return tx.create(newFlagRecord(post, tx))
		}
		return tx.db.Delete(&FlagRecord{}, "post_id = ?", post.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost looks a post up by its composite address.
func (l *Ledger) GetPost(ctx context.Context, addr Address) (*Post, error) {
	var p Post
	query, args := addr.where()
	if err := l.store.db.WithContext(ctx).Where(query, args...).First(&p).Error; err != nil {
		return nil, lookupErr(err, ErrPostNotFound, "post %s not found", addr)
	}
	return &p, nil
}

func (l *Ledger) GetPostByID(ctx context.Context, id uint64) (*Post, error) {
	var p Post
	if err := l.store.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, ErrPostNotFound, "post %d not found", id)
	}
	return &p, nil
}

// PostFilter narrows ListPosts. Zero fields match everything.
type PostFilter struct {
	Domain         Domain
	Section        SectionKey
	Depth          Depth
	Owner          Identity
	IncludeDeleted bool
}

// ListPosts pages posts in creation order.
func (l *Ledger) ListPosts(ctx context.Context, f PostFilter, page Page) ([]Post, error) {
	db := l.store.db.WithContext(ctx)
	if f.Domain != "" {
		db = db.Where("domain = ?", f.Domain)
	}
	if f.Section.Prefix != "" {
		db = db.Where("section_prefix = ? AND section_name = ?", f.Section.Prefix, f.Section.Name)
	}
	if f.Depth != 0 {
		db = db.Where("depth = ?", f.Depth)
	}
	if f.Owner != "" {
		db = db.Where("owner = ?", f.Owner)
	}
	if !f.IncludeDeleted {
		db = db.Where("deleted = ?", false)
	}
	var out []Post
	err := page.apply(db).Order("id").Find(&out).Error
	return out, err
}

// ListReplies returns the direct replies of parent, deleted ones included.
func (l *Ledger) ListReplies(ctx context.Context, parent Address, page Page) ([]Post, error) {
	up, err := l.GetPost(ctx, parent)
	if err != nil {
		return nil, err
	}
	var out []Post
	err = page.apply(l.store.db.WithContext(ctx)).Where("parent_id = ?", up.ID).Order("id").Find(&out).Error
	return out, err
}
