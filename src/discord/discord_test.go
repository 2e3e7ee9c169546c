package discord

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []*discordgo.MessageSend
}

func (r *recordingSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.sent = append(r.sent, data)
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func TestWrapURLsNoEmbed(t *testing.T) {
	assert.Equal(t, "see <https://example.com/a>.", WrapURLsNoEmbed("see https://example.com/a."))
	assert.Equal(t, "keep <https://example.com>", WrapURLsNoEmbed("keep <https://example.com>"))
	assert.Equal(t, "no links here", WrapURLsNoEmbed("no links here"))
}

func TestBuildCardSplitsLongBodies(t *testing.T) {
	cards := BuildCard("Starred", "short")
	require.Len(t, cards, 1)
	assert.Equal(t, "**Starred**\n> short", cards[0])

	long := strings.Repeat("word ", 1000)
	cards = BuildCard("Starred", long)
	require.Greater(t, len(cards), 1)
	for _, c := range cards {
		assert.LessOrEqual(t, len(c), MaxDiscordMessageLen)
		assert.True(t, strings.HasPrefix(c, "**Starred**") || strings.HasPrefix(c, "> "))
	}

	assert.Equal(t, []string{"> _No content_"}, BuildCard("", "  "))
}

func TestSendCardSuppressesEmbeds(t *testing.T) {
	rec := &recordingSender{}
	sent, err := SendCard(rec, "123", "Idea", "read https://example.com")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Len(t, rec.sent, 1)
	assert.Contains(t, rec.sent[0].Content, "<https://example.com>")
	assert.NotZero(t, rec.sent[0].Flags&discordgo.MessageFlagsSuppressEmbeds)
	assert.NotNil(t, rec.sent[0].AllowedMentions)

	_, err = SendComplexMessageNoEmbed(rec, "123", nil)
	assert.Error(t, err)
}
