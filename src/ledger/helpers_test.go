package ledger

import (
	"context"
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	moderator Identity = "5ModeratorModeratorModeratorModeratorModerat"
	treasurer Identity = "5TreasuryTreasuryTreasuryTreasuryTreasuryTre"
	alice     Identity = "5AliceAliceAliceAliceAliceAliceAliceAliceAli"
	bob       Identity = "5BobBobBobBobBobBobBobBobBobBobBobBobBobBobBo"
	carol     Identity = "5CarolCarolCarolCarolCarolCarolCarolCarolCar"

	testMint     = "USDC"
	testDecimals = 6
	// 100 whole tokens.
	startingFunds uint64 = 100_000_000
)

var testSection = SectionKey{Prefix: "yt", Name: "abc123"}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	l      *Ledger
	events []Event
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// newFixture returns a ledger with a registered fee token and no accounts.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewStore(openTestDB(t))
	require.NoError(t, store.Migrate())

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{t: t, ctx: context.Background()}
	sink := SinkFunc(func(_ context.Context, ev Event) error {
		f.events = append(f.events, ev)
		return nil
	})
	l, err := New(store, Roles{Moderator: moderator, Treasurer: treasurer}, WithLogger(log), WithSinks(sink))
	require.NoError(t, err)
	f.l = l

	_, err = l.AddFeeToken(f.ctx, moderator, testMint, testDecimals)
	require.NoError(t, err)
	return f
}

// newFundedFixture adds accounts for alice, bob and the moderator, funds
// alice and bob, and creates testSection.
func newFundedFixture(t *testing.T) *fixture {
	f := newFixture(t)
	for _, id := range []Identity{moderator, alice, bob} {
		f.account(id)
	}
	f.fund(alice, startingFunds)
	f.fund(bob, startingFunds)
	_, err := f.l.CreateSection(f.ctx, alice, testSection)
	require.NoError(t, err)
	return f
}

func (f *fixture) account(id Identity) *ChatAccount {
	f.t.Helper()
	acct, err := f.l.CreateAccount(f.ctx, id)
	require.NoError(f.t, err)
	return acct
}

func (f *fixture) fund(id Identity, amount uint64) {
	f.t.Helper()
	_, err := f.l.MintTo(f.ctx, moderator, testMint, id, amount)
	require.NoError(f.t, err)
}

func (f *fixture) balance(id Identity) uint64 {
	f.t.Helper()
	b, err := f.l.Balance(f.ctx, testMint, id)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) balanceOf(mint string, id Identity) uint64 {
	f.t.Helper()
	b, err := f.l.Balance(f.ctx, mint, id)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) acct(id Identity) *ChatAccount {
	f.t.Helper()
	acct, err := f.l.GetAccount(f.ctx, id)
	require.NoError(f.t, err)
	return acct
}

func (f *fixture) post(addr Address) *Post {
	f.t.Helper()
	p, err := f.l.GetPost(f.ctx, addr)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) comment(owner Identity, msg string) *Post {
	f.t.Helper()
	p, err := f.l.CreatePost(f.ctx, owner, DomainMain, testSection, msg, testMint)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) reply(owner Identity, parent *Post, msg string) *Post {
	f.t.Helper()
	p, err := f.l.Reply(f.ctx, owner, parent.Address(), msg, testMint)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) tally(ref TallyRef) Tally {
	f.t.Helper()
	tl, err := f.l.Tally(f.ctx, ref)
	require.NoError(f.t, err)
	return tl
}

func (f *fixture) sectionTotal(domain Domain) Tally {
	return f.tally(TallyRef{Scope: ScopeSection, Key: testSection.String(), Domain: domain})
}

// snapshot captures every counter a star or fed toggle touches.
type snapshot struct {
	ownerStars, ownerFeds                   int64
	protocol, domain, section, sectionLevel Tally
}

func (f *fixture) snapshot(p *Post) snapshot {
	acct := f.acct(p.Owner)
	return snapshot{
		ownerStars:   acct.StarCount,
		ownerFeds:    acct.FedCount,
		protocol:     f.tally(TallyRef{Scope: ScopeProtocol}),
		domain:       f.tally(TallyRef{Scope: ScopeDomain, Domain: p.Domain}),
		section:      f.sectionTotal(""),
		sectionLevel: f.tally(TallyRef{Scope: ScopeSection, Key: testSection.String(), Domain: p.Domain, Depth: p.Depth}),
	}
}
