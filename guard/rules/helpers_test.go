package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsInviteLink(t *testing.T) {
	assert := assert.New(t)

	matching := []string{
		"https://discord.gg/abc123",
		"http://discord.gg/abc123",
		"discord.gg/abc123",
		"www.discord.gg/abc123",
		"HTTPS://DISCORD.GG/ABC123",
		"https://discord.com/invite/abc-123",
		"discord.com/invite/abc123",
		"join us! discord.gg/abc123 limited slots",
	}
	for _, s := range matching {
		assert.True(ContainsInviteLink(s), "expected match: %q", s)
	}

	nonMatching := []string{
		"",
		"hello world",
		"https://example.com/discord",
		"discord.gg",
		"discord.com/channels/123/456",
		"talking about discord in general",
	}
	for _, s := range nonMatching {
		assert.False(ContainsInviteLink(s), "expected no match: %q", s)
	}
}
