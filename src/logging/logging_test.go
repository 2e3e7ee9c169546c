package logging

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("action", "post.create").Info("ledger")
	assert.Contains(t, buf.String(), `"action":"post.create"`)
}

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("chatty", "", nil)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestIsRateLimit(t *testing.T) {
	assert.False(t, IsRateLimit(nil))
	assert.False(t, IsRateLimit(errors.New("boom")))
	assert.True(t, IsRateLimit(errors.New("HTTP 429 Too Many Requests")))
	rl := &discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{TooManyRequests: &discordgo.TooManyRequests{}}}
	assert.True(t, IsRateLimit(fmt.Errorf("send: %w", rl)))
}

func TestRetryAfter(t *testing.T) {
	assert.Zero(t, RetryAfter(errors.New("429")))
	rl := &discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{TooManyRequests: &discordgo.TooManyRequests{RetryAfter: 1500 * time.Millisecond}}}
	assert.Equal(t, 1500*time.Millisecond, RetryAfter(fmt.Errorf("send: %w", rl)))
}
