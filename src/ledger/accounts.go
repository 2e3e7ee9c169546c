package ledger

import (
	"context"
)

// CreateAccount opens the profile for caller. Each identity gets exactly one.
func (l *Ledger) CreateAccount(ctx context.Context, caller Identity) (*ChatAccount, error) {
	if caller == "" {
		return nil, fail(ErrNotOwner, "caller identity is required")
	}
	var acct *ChatAccount
	err := l.exec(ctx, "account.create", caller, func(tx *Tx, ev *Event) error {
		found, err := tx.exists(&ChatAccount{}, "owner = ?", caller)
		if err != nil {
			return err
		}
		if found {
			return fail(ErrAccountExists, "account for %s already exists", caller)
		}
		ps, err := tx.protocol()
		if err != nil {
			return err
		}
		ps.AccountCount++
		acct = &ChatAccount{Owner: caller, AccountID: ps.AccountCount, CreatedAt: tx.now, UpdatedAt: tx.now}
		if err := tx.create(acct); err != nil {
			return err
		}
		ev.Target = string(caller)
		ev.set("account_id", acct.AccountID)
		return tx.save(ps)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// SetCustomName stores a display name and switches it on. Fee-bearing.
func (l *Ledger) SetCustomName(ctx context.Context, caller Identity, name, mint string) (*ChatAccount, error) {
	if err := checkLen("username", name, MaxUsernameLen); err != nil {
		return nil, err
	}
	var acct *ChatAccount
	err := l.exec(ctx, "account.name", caller, func(tx *Tx, ev *Event) error {
		var err error
		if acct, err = tx.account(caller); err != nil {
			return err
		}
		acct.Name = name
		acct.UseCustomName = true
		acct.UpdatedAt = tx.now
		if err := tx.save(acct); err != nil {
			return err
		}
		ev.Target = string(caller)
		ev.set("name", name)
		return l.charge(tx, caller, mint, FeeProfile)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// SetUseCustomName toggles whether the stored name is shown. Fee-bearing.
func (l *Ledger) SetUseCustomName(ctx context.Context, caller Identity, enabled bool, mint string) (*ChatAccount, error) {
	var acct *ChatAccount
	err := l.exec(ctx, "account.use_custom_name", caller, func(tx *Tx, ev *Event) error {
		var err error
		if acct, err = tx.account(caller); err != nil {
			return err
		}
		if acct.UseCustomName == enabled {
			return fail(ErrFlagSameState, "use-custom-name is already %t", enabled)
		}
		acct.UseCustomName = enabled
		acct.UpdatedAt = tx.now
		if err := tx.save(acct); err != nil {
			return err
		}
		ev.Target = string(caller)
		ev.set("enabled", enabled)
		return l.charge(tx, caller, mint, FeeProfile)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (l *Ledger) GetAccount(ctx context.Context, owner Identity) (*ChatAccount, error) {
	var acct ChatAccount
	err := l.store.db.WithContext(ctx).First(&acct, "owner = ?", owner).Error
	if err != nil {
		return nil, lookupErr(err, ErrAccountNotFound, "no account for %s", owner)
	}
	return &acct, nil
}

// ListAccounts pages accounts in creation order.
func (l *Ledger) ListAccounts(ctx context.Context, page Page) ([]ChatAccount, error) {
	var out []ChatAccount
	err := page.apply(l.store.db.WithContext(ctx)).Order("account_id").Find(&out).Error
	return out, err
}
