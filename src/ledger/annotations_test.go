package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdeaLifecycle(t *testing.T) {
	f := newFundedFixture(t)
	c := f.comment(alice, "add dark mode")

	_, err := f.l.SetIdeaImplemented(f.ctx, moderator, c.Address(), true)
	assert.ErrorIs(t, err, ErrIdeaNotFound)

	_, err = f.l.SetStar(f.ctx, moderator, c.Address(), true)
	require.NoError(t, err)

	_, err = f.l.SetIdeaImplemented(f.ctx, alice, c.Address(), true)
	assert.ErrorIs(t, err, ErrNotModerator)
	_, err = f.l.SetIdeaImplemented(f.ctx, moderator, c.Address(), false)
	assert.ErrorIs(t, err, ErrFlagSameState)

	idea, err := f.l.SetIdeaImplemented(f.ctx, moderator, c.Address(), true)
	require.NoError(t, err)
	assert.True(t, idea.Implemented)
	require.NotNil(t, idea.ImplementedAt)

	idea, err = f.l.UpdateIdea(f.ctx, moderator, c.Address(), "dark mode shipped in v2")
	require.NoError(t, err)
	assert.True(t, idea.Updated)
	assert.Equal(t, "add dark mode", f.post(c.Address()).Message, "the post keeps its own text")

	_, err = f.l.UpdateIdea(f.ctx, moderator, c.Address(), strings.Repeat("x", MaxMessageLen+1))
	assert.ErrorIs(t, err, ErrTooLong)

	implemented := true
	list, err := f.l.ListIdeas(f.ctx, &implemented, Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.Address(), list[0].Address())

	idea, err = f.l.SetIdeaImplemented(f.ctx, moderator, c.Address(), false)
	require.NoError(t, err)
	assert.Nil(t, idea.ImplementedAt)
	list, err = f.l.ListIdeas(f.ctx, &implemented, Page{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Unstar drops the idea with everything recorded on it.
	_, err = f.l.SetStar(f.ctx, moderator, c.Address(), false)
	require.NoError(t, err)
	all, err := f.l.ListIdeas(f.ctx, nil, Page{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStarSnapshotsCurrentMessage(t *testing.T) {
	f := newFundedFixture(t)
	c := f.comment(alice, "first")
	_, err := f.l.EditPost(f.ctx, alice, c.Address(), "second", testMint)
	require.NoError(t, err)

	_, err = f.l.SetStar(f.ctx, moderator, c.Address(), true)
	require.NoError(t, err)
	_, err = f.l.EditPost(f.ctx, alice, c.Address(), "third", testMint)
	require.NoError(t, err)

	idea, err := f.l.GetIdea(f.ctx, c.Address())
	require.NoError(t, err)
	assert.Equal(t, "second", idea.Text)
}

func TestFlagRecordsOnDeletedPost(t *testing.T) {
	f := newFundedFixture(t)
	c := f.comment(bob, "spam")
	_, err := f.l.DeletePost(f.ctx, bob, c.Address(), testMint)
	require.NoError(t, err)

	_, err = f.l.SetFed(f.ctx, moderator, c.Address(), true)
	require.NoError(t, err)
	recs, err := f.l.ListFlagRecords(f.ctx, Page{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].WasEdited)
	assert.Equal(t, "spam", recs[0].Text)
	assert.Equal(t, int64(1), f.acct(bob).FedCount)
}
