package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stake-plus/chatledger/src/ledger"
)

func TestFormat(t *testing.T) {
	title, body, ok := Format(ledger.Event{
		Action:  "idea.implemented",
		Section: "p/ideas",
		Target:  "protocol/ideas/0/bob/3",
		Fields:  map[string]string{"implemented": "true", "text": "shipped in v2"},
	})
	assert.True(t, ok)
	assert.Equal(t, "💡 Idea implemented", title)
	assert.Contains(t, body, "shipped in v2")
	assert.Contains(t, body, "Post: protocol/ideas/0/bob/3")

	title, _, ok = Format(ledger.Event{Action: "idea.implemented", Fields: map[string]string{"implemented": "false"}})
	assert.True(t, ok)
	assert.Equal(t, "Idea reopened", title)

	title, body, ok = Format(ledger.Event{Action: "post.fed", Fields: map[string]string{"message": "  spam  "}})
	assert.True(t, ok)
	assert.Equal(t, "🚩 Post flagged", title)
	assert.Equal(t, "spam", body)

	_, _, ok = Format(ledger.Event{Action: "post.vote"})
	assert.False(t, ok)
}
