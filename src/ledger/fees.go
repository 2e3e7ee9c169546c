package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeSchedule prices every fee-bearing action in whole token units. Vote
// rates are multiplied by the absolute vote weight.
type FeeSchedule struct {
	Post    decimal.Decimal
	Reply   decimal.Decimal
	Edit    decimal.Decimal
	Delete  decimal.Decimal
	Profile decimal.Decimal

	UpVoteTreasuryRate   decimal.Decimal
	UpVoteOwnerRate      decimal.Decimal
	DownVoteTreasuryRate decimal.Decimal
	TargetVoteRate       decimal.Decimal
}

func DefaultFees() FeeSchedule {
	return FeeSchedule{
		Post:                 decimal.RequireFromString("0.10"),
		Reply:                decimal.RequireFromString("0.05"),
		Edit:                 decimal.RequireFromString("0.02"),
		Delete:               decimal.RequireFromString("0.01"),
		Profile:              decimal.RequireFromString("0.05"),
		UpVoteTreasuryRate:   decimal.RequireFromString("0.03"),
		UpVoteOwnerRate:      decimal.RequireFromString("0.01"),
		DownVoteTreasuryRate: decimal.RequireFromString("0.04"),
		TargetVoteRate:       decimal.RequireFromString("0.04"),
	}
}

// Validate rejects negative prices.
func (f FeeSchedule) Validate() error {
	named := map[string]decimal.Decimal{
		"post": f.Post, "reply": f.Reply, "edit": f.Edit, "delete": f.Delete, "profile": f.Profile,
		"up_vote_treasury_rate": f.UpVoteTreasuryRate, "up_vote_owner_rate": f.UpVoteOwnerRate,
		"down_vote_treasury_rate": f.DownVoteTreasuryRate, "target_vote_rate": f.TargetVoteRate,
	}
	for name, v := range named {
		if v.IsNegative() {
			return fmt.Errorf("fee %s is negative: %s", name, v)
		}
	}
	return nil
}

// BaseUnits converts a token amount to base units, rounding down. Amounts
// that do not fit in uint64 fail with CodeBadAmount.
func BaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	scaled := amount.Shift(int32(decimals)).Floor()
	if scaled.IsNegative() {
		return 0, nil
	}
	n := scaled.BigInt()
	if !n.IsUint64() {
		return 0, invalid(CodeBadAmount, "fee of %s base units is out of range", scaled)
	}
	return n.Uint64(), nil
}

func weighted(rate decimal.Decimal, weight int64, decimals uint8) (uint64, error) {
	return BaseUnits(rate.Mul(decimal.NewFromInt(weight).Abs()), decimals)
}

// VoteSplit is the base-unit fee of one post vote.
type VoteSplit struct {
	Treasury uint64 `json:"treasury"`
	Owner    uint64 `json:"owner"`
}

// PostVote prices a post vote. Up-votes split between treasury and owner;
// down-votes go to the treasury only.
func (f FeeSchedule) PostVote(weight int64, decimals uint8) (VoteSplit, error) {
	if weight > 0 {
		treasury, err := weighted(f.UpVoteTreasuryRate, weight, decimals)
		if err != nil {
			return VoteSplit{}, err
		}
		owner, err := weighted(f.UpVoteOwnerRate, weight, decimals)
		if err != nil {
			return VoteSplit{}, err
		}
		return VoteSplit{Treasury: treasury, Owner: owner}, nil
	}
	treasury, err := weighted(f.DownVoteTreasuryRate, weight, decimals)
	return VoteSplit{Treasury: treasury}, err
}

// TargetVote prices a section or poll-option vote, paid to the treasury.
func (f FeeSchedule) TargetVote(weight int64, decimals uint8) (uint64, error) {
	return weighted(f.TargetVoteRate, weight, decimals)
}

// FeeKind names a flat-priced action.
type FeeKind int

const (
	FeePost FeeKind = iota
	FeeReply
	FeeEdit
	FeeDelete
	FeeProfile
)

func (k FeeKind) waivable() bool {
	return k != FeeProfile
}

func (f FeeSchedule) flat(k FeeKind) decimal.Decimal {
	switch k {
	case FeePost:
		return f.Post
	case FeeReply:
		return f.Reply
	case FeeEdit:
		return f.Edit
	case FeeDelete:
		return f.Delete
	default:
		return f.Profile
	}
}

// Flat prices a flat-fee action in base units.
func (f FeeSchedule) Flat(k FeeKind, decimals uint8) (uint64, error) {
	return BaseUnits(f.flat(k), decimals)
}
