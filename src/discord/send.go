package discord

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

const (
	MaxDiscordMessageLen = 2000
	SafeChunkLen         = 1900
)

// ChannelSender is the slice of *discordgo.Session the feed needs.
type ChannelSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SendComplexMessageNoEmbed sends a message payload with embeds suppressed and
// URLs wrapped.
func SendComplexMessageNoEmbed(s ChannelSender, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	if msg == nil {
		return nil, errors.New("discord: message payload cannot be nil")
	}
	msg.Content = WrapURLsNoEmbed(msg.Content)
	msg.Flags |= discordgo.MessageFlagsSuppressEmbeds
	if msg.AllowedMentions == nil {
		msg.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}
	return s.ChannelMessageSendComplex(channelID, msg)
}

// BuildCard renders a bold title and a quoted body, split into chunks that
// fit one Discord message each.
func BuildCard(title, body string) []string {
	header := ""
	if t := strings.TrimSpace(title); t != "" {
		header = "**" + t + "**\n"
	}
	body = strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	if body == "" {
		return []string{header + "> _No content_"}
	}

	var quoted strings.Builder
	for i, line := range strings.Split(body, "\n") {
		if i > 0 {
			quoted.WriteByte('\n')
		}
		quoted.WriteString("> ")
		quoted.WriteString(line)
	}

	var out []string
	rest := header + quoted.String()
	for len(rest) > SafeChunkLen {
		cut := splitPoint(rest, SafeChunkLen)
		out = append(out, rest[:cut])
		rest = strings.TrimLeft(rest[cut:], "\n")
		if !strings.HasPrefix(rest, "> ") {
			rest = "> " + rest
		}
	}
	return append(out, rest)
}

// splitPoint picks the last newline or space before limit, never inside a
// UTF-8 sequence.
func splitPoint(s string, limit int) int {
	if i := strings.LastIndexByte(s[:limit], '\n'); i > limit/2 {
		return i
	}
	if i := strings.LastIndexByte(s[:limit], ' '); i > limit/2 {
		return i
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return cut
}

// SendCard posts a card to channelID and returns the sent messages.
func SendCard(s ChannelSender, channelID, title, body string) ([]*discordgo.Message, error) {
	var sent []*discordgo.Message
	for _, chunk := range BuildCard(title, body) {
		msg, err := SendComplexMessageNoEmbed(s, channelID, &discordgo.MessageSend{Content: chunk})
		if err != nil {
			return sent, err
		}
		sent = append(sent, msg)
	}
	return sent, nil
}
