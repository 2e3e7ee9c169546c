package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns the gorm handle the ledger persists through.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read paths outside the ledger.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates every ledger table and seeds the protocol row.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	seed := ProtocolState{ID: protocolStateID}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error
}

// Atomic runs fn in one database transaction. Any error rolls back every
// write fn made, fee transfers included.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db, now: time.Now().UTC()})
	})
}

// Tx is the transaction-scoped view of the store. Loads through Tx take row
// locks so concurrent calls touching the same records serialise.
type Tx struct {
	db  *gorm.DB
	now time.Time
}

func (tx *Tx) locked() *gorm.DB {
	return tx.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (tx *Tx) save(v any) error {
	return tx.db.Save(v).Error
}

func (tx *Tx) create(v any) error {
	err := tx.db.Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fail(ErrAddressTaken, "record already exists")
	}
	return err
}

func lookupErr(err error, sentinel *Error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(sentinel, format, args...)
	}
	return err
}

func (tx *Tx) protocol() (*ProtocolState, error) {
	var ps ProtocolState
	err := tx.locked().First(&ps, "id = ?", protocolStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ps = ProtocolState{ID: protocolStateID}
		return &ps, tx.create(&ps)
	}
	return &ps, err
}

func (tx *Tx) account(owner Identity) (*ChatAccount, error) {
	var acct ChatAccount
	if err := tx.locked().First(&acct, "owner = ?", owner).Error; err != nil {
		return nil, lookupErr(err, ErrAccountNotFound, "no account for %s", owner)
	}
	return &acct, nil
}

func (tx *Tx) section(key SectionKey) (*Section, error) {
	var sec Section
	if err := tx.locked().First(&sec, "prefix = ? AND name = ?", key.Prefix, key.Name).Error; err != nil {
		return nil, lookupErr(err, ErrSectionNotFound, "section %s not found", key)
	}
	return &sec, nil
}

func (tx *Tx) post(addr Address) (*Post, error) {
	var p Post
	query, args := addr.where()
	if err := tx.locked().Where(query, args...).First(&p).Error; err != nil {
		return nil, lookupErr(err, ErrPostNotFound, "post %s not found", addr)
	}
	return &p, nil
}

func (tx *Tx) postByID(id uint64) (*Post, error) {
	var p Post
	if err := tx.locked().First(&p, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, ErrPostNotFound, "post %d not found", id)
	}
	return &p, nil
}

func (tx *Tx) idea(postID uint64) (*Idea, error) {
	var idea Idea
	if err := tx.locked().First(&idea, "post_id = ?", postID).Error; err != nil {
		return nil, lookupErr(err, ErrIdeaNotFound, "no idea for post %d", postID)
	}
	return &idea, nil
}

func (tx *Tx) feeToken(mint string) (*FeeToken, error) {
	var tok FeeToken
	if err := tx.db.First(&tok, "mint = ?", mint).Error; err != nil {
		return nil, lookupErr(err, ErrFeeTokenNotFound, "fee token %s is not registered", mint)
	}
	return &tok, nil
}

func (tx *Tx) poll(id uint64) (*Poll, error) {
	var p Poll
	if err := tx.locked().First(&p, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, ErrPollNotFound, "poll %d not found", id)
	}
	return &p, nil
}

func (tx *Tx) pollOption(pollID uint64, index int) (*PollOption, error) {
	var opt PollOption
	if err := tx.locked().First(&opt, "poll_id = ? AND option_index = ?", pollID, index).Error; err != nil {
		return nil, lookupErr(err, ErrOptionNotFound, "poll %d has no option %d", pollID, index)
	}
	return &opt, nil
}

func (tx *Tx) exists(model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
