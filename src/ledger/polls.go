package ledger

import (
	"context"
	"fmt"
)

// PollWithOptions bundles a poll with its options in index order.
type PollWithOptions struct {
	Poll
	Options []PollOption `json:"options"`
}

func (l *Ledger) CreatePoll(ctx context.Context, caller Identity, name string) (*Poll, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := checkLen("poll name", name, MaxPollNameLen); err != nil {
		return nil, err
	}
	var poll *Poll
	err := l.exec(ctx, "poll.create", caller, func(tx *Tx, ev *Event) error {
		ps, err := tx.protocol()
		if err != nil {
			return err
		}
		ps.PollCount++
		poll = &Poll{ID: ps.PollCount, Name: name, Active: true, CreatedAt: tx.now, UpdatedAt: tx.now}
		if err := tx.create(poll); err != nil {
			return err
		}
		ev.Target = pollRef(poll.ID)
		ev.set("name", name)
		return tx.save(ps)
	})
	if err != nil {
		return nil, err
	}
	return poll, nil
}

func (l *Ledger) EditPoll(ctx context.Context, caller Identity, id uint64, name string) (*Poll, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := checkLen("poll name", name, MaxPollNameLen); err != nil {
		return nil, err
	}
	var poll *Poll
	err := l.exec(ctx, "poll.edit", caller, func(tx *Tx, ev *Event) error {
		var err error
		if poll, err = tx.poll(id); err != nil {
			return err
		}
		poll.Name = name
		poll.UpdatedAt = tx.now
		ev.Target = pollRef(id)
		ev.set("name", name)
		return tx.save(poll)
	})
	if err != nil {
		return nil, err
	}
	return poll, nil
}

func (l *Ledger) SetPollActive(ctx context.Context, caller Identity, id uint64, active bool) (*Poll, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	var poll *Poll
	err := l.exec(ctx, "poll.active", caller, func(tx *Tx, ev *Event) error {
		var err error
		if poll, err = tx.poll(id); err != nil {
			return err
		}
		if poll.Active == active {
			return fail(ErrFlagSameState, "poll %d active is already %t", id, active)
		}
		poll.Active = active
		poll.UpdatedAt = tx.now
		ev.Target = pollRef(id)
		ev.set("active", active)
		return tx.save(poll)
	})
	if err != nil {
		return nil, err
	}
	return poll, nil
}

// DeletePoll removes a poll and its options once every option is inactive.
func (l *Ledger) DeletePoll(ctx context.Context, caller Identity, id uint64) error {
	if err := l.requireModerator(caller); err != nil {
		return err
	}
	return l.exec(ctx, "poll.delete", caller, func(tx *Tx, ev *Event) error {
		if _, err := tx.poll(id); err != nil {
			return err
		}
		live, err := tx.exists(&PollOption{}, "poll_id = ? AND active = ?", id, true)
		if err != nil {
			return err
		}
		if live {
			return fail(ErrActiveChildren, "poll %d still has active options", id)
		}
		if err := tx.db.Delete(&PollOption{}, "poll_id = ?", id).Error; err != nil {
			return err
		}
		ev.Target = pollRef(id)
		return tx.db.Delete(&Poll{}, "id = ?", id).Error
	})
}

func (l *Ledger) CreatePollOption(ctx context.Context, caller Identity, pollID uint64, name string) (*PollOption, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := checkLen("poll option name", name, MaxPollNameLen); err != nil {
		return nil, err
	}
	var opt *PollOption
	err := l.exec(ctx, "poll.option.create", caller, func(tx *Tx, ev *Event) error {
		poll, err := tx.poll(pollID)
		if err != nil {
			return err
		}
		if poll.OptionCount >= MaxPollOptions {
			return invalid(CodeTooManyOptions, "poll %d already has %d options", pollID, MaxPollOptions)
		}
		poll.OptionCount++
		poll.UpdatedAt = tx.now
		opt = &PollOption{
			PollID:      pollID,
			OptionIndex: poll.OptionCount,
			Name:        name,
			Active:      true,
			CreatedAt:   tx.now,
			UpdatedAt:   tx.now,
		}
		if err := tx.create(opt); err != nil {
			return err
		}
		ev.Target = optionRef(pollID, opt.OptionIndex)
		ev.set("name", name)
		return tx.save(poll)
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func (l *Ledger) EditPollOption(ctx context.Context, caller Identity, pollID uint64, index int, name string) (*PollOption, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if err := checkLen("poll option name", name, MaxPollNameLen); err != nil {
		return nil, err
	}
	var opt *PollOption
	err := l.exec(ctx, "poll.option.edit", caller, func(tx *Tx, ev *Event) error {
		var err error
		if opt, err = tx.pollOption(pollID, index); err != nil {
			return err
		}
		opt.Name = name
		opt.UpdatedAt = tx.now
		ev.Target = optionRef(pollID, index)
		ev.set("name", name)
		return tx.save(opt)
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func (l *Ledger) SetPollOptionActive(ctx context.Context, caller Identity, pollID uint64, index int, active bool) (*PollOption, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	var opt *PollOption
	err := l.exec(ctx, "poll.option.active", caller, func(tx *Tx, ev *Event) error {
		var err error
		if opt, err = tx.pollOption(pollID, index); err != nil {
			return err
		}
		if opt.Active == active {
			return fail(ErrFlagSameState, "poll %d option %d active is already %t", pollID, index, active)
		}
		opt.Active = active
		opt.UpdatedAt = tx.now
		ev.Target = optionRef(pollID, index)
		ev.set("active", active)
		return tx.save(opt)
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

// VotePollOption casts a weighted vote on an active option of an active poll.
// The fee goes to the treasury only.
func (l *Ledger) VotePollOption(ctx context.Context, caller Identity, pollID uint64, index int, weight int64, mint string) (*PollOption, error) {
	if err := checkWeight(weight); err != nil {
		return nil, err
	}
	var opt *PollOption
	err := l.exec(ctx, "poll.option.vote", caller, func(tx *Tx, ev *Event) error {
		voter, err := tx.account(caller)
		if err != nil {
			return err
		}
		poll, err := tx.poll(pollID)
		if err != nil {
			return err
		}
		if !poll.Active {
			return fail(ErrInactive, "poll %d is inactive", pollID)
		}
		if opt, err = tx.pollOption(pollID, index); err != nil {
			return err
		}
		if !opt.Active {
			return fail(ErrInactive, "poll %d option %d is inactive", pollID, index)
		}
		tok, err := tx.feeToken(mint)
		if err != nil {
			return err
		}
		fee, err := l.fees.TargetVote(weight, tok.Decimals)
		if err != nil {
			return err
		}
		if err := countVote(&opt.UpVoteCount, &opt.UpVoteScore, &opt.DownVoteCount, &opt.DownVoteScore, weight); err != nil {
			return err
		}
		opt.UpdatedAt = tx.now
		if err := tx.save(opt); err != nil {
			return err
		}
		ref := optionRef(pollID, index)
		if err := l.recordVote(tx, voter, "", TargetPollOption, ref, weight); err != nil {
			return err
		}
		ev.Target = ref
		ev.set("weight", weight)
		return tx.transfer(mint, caller, l.roles.Treasurer, fee)
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func (l *Ledger) GetPoll(ctx context.Context, id uint64) (*PollWithOptions, error) {
	db := l.store.db.WithContext(ctx)
	var out PollWithOptions
	if err := db.First(&out.Poll, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, ErrPollNotFound, "poll %d not found", id)
	}
	err := db.Where("poll_id = ?", id).Order("option_index").Find(&out.Options).Error
	return &out, err
}

func (l *Ledger) ListPolls(ctx context.Context, page Page) ([]Poll, error) {
	var out []Poll
	err := page.apply(l.store.db.WithContext(ctx)).Order("id").Find(&out).Error
	return out, err
}

func pollRef(id uint64) string {
	return fmt.Sprintf("poll/%d", id)
}

func optionRef(pollID uint64, index int) string {
	return fmt.Sprintf("poll/%d/%d", pollID, index)
}
