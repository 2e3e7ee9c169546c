package ledger

import (
	"context"
	"math"
)

// VotePost casts a signed, fee-weighted vote on a post. candidate must name
// the post's owner. Repeat votes by the same voter are allowed.
func (l *Ledger) VotePost(ctx context.Context, caller Identity, addr Address, candidate Identity, weight int64, mint string) (*Post, error) {
	if err := checkWeight(weight); err != nil {
		return nil, err
	}
	if err := addr.validate(); err != nil {
		return nil, err
	}
	var post *Post
	err := l.exec(ctx, "post.vote", caller, func(tx *Tx, ev *Event) error {
		var err error
		if post, err = tx.post(addr); err != nil {
			return err
		}
		if post.Deleted {
			return fail(ErrPostDeleted, "post %s is deleted", addr)
		}
		if candidate != post.Owner {
			return fail(ErrWrongCandidate, "candidate %s does not own post %s", candidate, addr)
		}
		voter, err := tx.account(caller)
		if err != nil {
			return err
		}
		owner := voter
		if post.Owner != caller {
			if owner, err = tx.account(post.Owner); err != nil {
				return err
			}
		}
		tok, err := tx.feeToken(mint)
		if err != nil {
			return err
		}
		split, err := l.fees.PostVote(weight, tok.Decimals)
		if err != nil {
			return err
		}

		if err := received(owner, weight); err != nil {
			return err
		}
		if post.Owner == caller {
			// The voter's own record takes the received side a second time.
			if err := received(voter, weight); err != nil {
				return err
			}
		}
		if err := addScore(&post.VoteScore, weight); err != nil {
			return err
		}
		post.UpdatedAt = tx.now
		if err := tx.save(post); err != nil {
			return err
		}
		if owner != voter {
			owner.UpdatedAt = tx.now
			if err := tx.save(owner); err != nil {
				return err
			}
		}
		if err := l.recordVote(tx, voter, post.Owner, TargetPost, addr.String(), weight); err != nil {
			return err
		}
		if err := tx.bump(postScopes(post.Domain, addr.Section), post.Depth, voteDelta(weight)); err != nil {
			return err
		}

		if err := tx.transfer(mint, caller, l.roles.Treasurer, split.Treasury); err != nil {
			return err
		}
		if err := tx.transfer(mint, caller, post.Owner, split.Owner); err != nil {
			return err
		}
		ev.post(post).set("weight", weight).set("treasury_fee", split.Treasury).set("owner_reward", split.Owner)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// checkWeight rejects a zero weight and the one weight with no int64
// magnitude.
func checkWeight(weight int64) error {
	if weight == 0 {
		return fail(ErrZeroVote, "vote weight must be non-zero")
	}
	if weight == math.MinInt64 {
		return invalid(CodeBadAmount, "vote weight %d is out of range", weight)
	}
	return nil
}

// addScore adds delta to *dst, failing instead of wrapping.
func addScore(dst *int64, delta int64) error {
	sum := *dst + delta
	if (delta > 0 && sum < *dst) || (delta < 0 && sum > *dst) {
		return invalid(CodeBadAmount, "vote score %d%+d is out of range", *dst, delta)
	}
	*dst = sum
	return nil
}

// countVote adds one vote to an up or down count/score pair by sign.
func countVote(upCount, upScore, downCount, downScore *int64, weight int64) error {
	if weight > 0 {
		if err := addScore(upScore, weight); err != nil {
			return err
		}
		*upCount++
		return nil
	}
	if err := addScore(downScore, -weight); err != nil {
		return err
	}
	*downCount++
	return nil
}

func received(acct *ChatAccount, weight int64) error {
	return countVote(&acct.ReceivedUpVoteCount, &acct.ReceivedUpVoteScore,
		&acct.ReceivedDownVoteCount, &acct.ReceivedDownVoteScore, weight)
}

func cast(acct *ChatAccount, weight int64) error {
	return countVote(&acct.CastUpVoteCount, &acct.CastUpVoteScore,
		&acct.CastDownVoteCount, &acct.CastDownVoteScore, weight)
}

func voteDelta(weight int64) Tally {
	if weight > 0 {
		return Tally{UpVoteCount: 1, UpVoteScore: weight}
	}
	return Tally{DownVoteCount: 1, DownVoteScore: -weight}
}

// recordVote updates the voter's cast counters, appends the VoteRecord under
// the voter's current vote sequence and advances it. It saves the voter.
func (l *Ledger) recordVote(tx *Tx, voter *ChatAccount, targetOwner Identity, kind, ref string, weight int64) error {
	ps, err := tx.protocol()
	if err != nil {
		return err
	}
	if err := cast(voter, weight); err != nil {
		return err
	}
	rec := &VoteRecord{
		Voter:       voter.Owner,
		TargetOwner: targetOwner,
		VoterSeq:    voter.VoteSeq,
		TargetKind:  kind,
		TargetRef:   ref,
		Weight:      weight,
		CreatedAt:   tx.now,
	}
	if err := tx.create(rec); err != nil {
		return err
	}
	voter.VoteSeq++
	voter.UpdatedAt = tx.now
	if err := tx.save(voter); err != nil {
		return err
	}
	ps.VoteCount++
	return tx.save(ps)
}

// ListVoteRecords pages a voter's vote records in cast order.
func (l *Ledger) ListVoteRecords(ctx context.Context, voter Identity, page Page) ([]VoteRecord, error) {
	var out []VoteRecord
	err := page.apply(l.store.db.WithContext(ctx)).Where("voter = ?", voter).Order("voter_seq").Find(&out).Error
	return out, err
}
