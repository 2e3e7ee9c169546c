package ledger

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"
)

func (tx *Tx) balance(mint string, owner Identity) (*TokenBalance, error) {
	var b TokenBalance
	err := tx.locked().First(&b, "mint = ? AND owner = ?", mint, owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &TokenBalance{Mint: mint, Owner: owner}, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// transfer moves amount base units of mint. It fails without effect when the
// source balance is short.
func (tx *Tx) transfer(mint string, from, to Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}
	src, err := tx.balance(mint, from)
	if err != nil {
		return err
	}
	if src.Amount < amount {
		return fail(ErrInsufficientFunds, "%s holds %d of %s, needs %d", from, src.Amount, mint, amount)
	}
	if from == to {
		return nil
	}
	dst, err := tx.balance(mint, to)
	if err != nil {
		return err
	}
	if err := checkCredit(dst, amount); err != nil {
		return err
	}
	src.Amount -= amount
	dst.Amount += amount
	src.UpdatedAt, dst.UpdatedAt = tx.now, tx.now
	if err := tx.save(src); err != nil {
		return err
	}
	return tx.save(dst)
}

func (tx *Tx) credit(mint string, to Identity, amount uint64) error {
	dst, err := tx.balance(mint, to)
	if err != nil {
		return err
	}
	if err := checkCredit(dst, amount); err != nil {
		return err
	}
	dst.Amount += amount
	dst.UpdatedAt = tx.now
	return tx.save(dst)
}

func checkCredit(dst *TokenBalance, amount uint64) error {
	if dst.Amount > math.MaxUint64-amount {
		return invalid(CodeBadAmount, "%s balance of %s would exceed the base-unit range", dst.Owner, dst.Mint)
	}
	return nil
}

// AddFeeToken registers a mint fees may be paid in.
func (l *Ledger) AddFeeToken(ctx context.Context, caller Identity, mint string, decimals uint8) (*FeeToken, error) {
	if err := l.requireModerator(caller); err != nil {
		return nil, err
	}
	if mint == "" || decimals > 18 {
		return nil, invalid(CodeBadAmount, "mint is required and decimals must be at most 18")
	}
	tok := &FeeToken{Mint: mint, Decimals: decimals, AddedBy: caller}
	err := l.exec(ctx, "fee_token.add", caller, func(tx *Tx, ev *Event) error {
		found, err := tx.exists(&FeeToken{}, "mint = ?", mint)
		if err != nil {
			return err
		}
		if found {
			return fail(ErrFeeTokenExists, "fee token %s already registered", mint)
		}
		tok.CreatedAt = tx.now
		ev.Target = mint
		return tx.create(tok)
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// RemoveFeeToken unregisters a mint. Balances are kept.
func (l *Ledger) RemoveFeeToken(ctx context.Context, caller Identity, mint string) error {
	if err := l.requireModerator(caller); err != nil {
		return err
	}
	return l.exec(ctx, "fee_token.remove", caller, func(tx *Tx, ev *Event) error {
		if _, err := tx.feeToken(mint); err != nil {
			return err
		}
		ev.Target = mint
		return tx.db.Delete(&FeeToken{}, "mint = ?", mint).Error
	})
}

// MintTo credits amount base units of a registered mint to an owner.
func (l *Ledger) MintTo(ctx context.Context, caller Identity, mint string, to Identity, amount uint64) (uint64, error) {
	if err := l.requireModerator(caller); err != nil {
		return 0, err
	}
	if amount == 0 || to == "" {
		return 0, invalid(CodeBadAmount, "mint amount and recipient are required")
	}
	var total uint64
	err := l.exec(ctx, "balance.mint", caller, func(tx *Tx, ev *Event) error {
		if _, err := tx.feeToken(mint); err != nil {
			return err
		}
		if err := tx.credit(mint, to, amount); err != nil {
			return err
		}
		b, err := tx.balance(mint, to)
		if err != nil {
			return err
		}
		total = b.Amount
		ev.Target = string(to)
		ev.set("mint", mint).set("amount", amount)
		return nil
	})
	return total, err
}

// Balance reads an owner's balance of one mint in base units.
func (l *Ledger) Balance(ctx context.Context, mint string, owner Identity) (uint64, error) {
	var rows []TokenBalance
	err := l.store.db.WithContext(ctx).Where("mint = ? AND owner = ?", mint, owner).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Amount, nil
}

// ListFeeTokens returns every registered mint.
func (l *Ledger) ListFeeTokens(ctx context.Context) ([]FeeToken, error) {
	var toks []FeeToken
	err := l.store.db.WithContext(ctx).Order("mint").Find(&toks).Error
	return toks, err
}

// charge pays a flat fee from payer to the treasury. Post, reply, edit and
// delete fees are waived for the moderator via waivable.
func (l *Ledger) charge(tx *Tx, payer Identity, mint string, fee FeeKind) error {
	if fee.waivable() && payer == l.roles.Moderator {
		return nil
	}
	tok, err := tx.feeToken(mint)
	if err != nil {
		return err
	}
	amount, err := l.fees.Flat(fee, tok.Decimals)
	if err != nil {
		return err
	}
	return tx.transfer(mint, payer, l.roles.Treasurer, amount)
}
