package rules

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/R1das67/mein-nc-bot/guard/engine"
	"github.com/R1das67/mein-nc-bot/guard/platform"
)

func inviteMessage(author, message platform.Snowflake, ts time.Time) platform.MessageEvent {
	return platform.MessageEvent{
		Community: 100,
		Channel:   500,
		MessageID: message,
		Author:    author,
		Content:   fmt.Sprintf("come join discord.gg/abc%d", message),
		Timestamp: ts,
	}
}

func TestInviteSpamEscalation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	gw := engine.FixtureGateway(&eng)
	gw.AddMember(100, platform.Member{ID: 2001})

	base := time.Now()

	// four rapid invites: deleted, but below the threshold
	for i := 0; i < 4; i++ {
		evt := inviteMessage(2001, platform.Snowflake(9000+i), base.Add(time.Duration(i)*2*time.Second))
		assert.NoError(eng.ProcessMessage(ctx, evt))
	}
	assert.Len(gw.DeletedMessages, 4)
	assert.Empty(gw.Timeouts)

	// the fifth inside the window earns the timeout
	evt := inviteMessage(2001, 9004, base.Add(8*time.Second))
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Len(gw.DeletedMessages, 5)
	if assert.Len(gw.Timeouts, 1) {
		assert.Equal(platform.Snowflake(2001), gw.Timeouts[0].Account)
		assert.Equal("Invite-Spam: >=5 invites in 15s", gw.Timeouts[0].Reason)
	}
}

func TestInviteSpamTrustedAuthor(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	gw := engine.FixtureGateway(&eng)
	gw.AddMember(100, platform.Member{ID: 1000})

	base := time.Now()

	// trusted authors still get their invite messages deleted, but are
	// never escalated against, no matter the rate
	for i := 0; i < 8; i++ {
		evt := inviteMessage(1000, platform.Snowflake(9100+i), base.Add(time.Duration(i)*time.Second))
		assert.NoError(eng.ProcessMessage(ctx, evt))
	}
	assert.Len(gw.DeletedMessages, 8)
	assert.Empty(gw.Timeouts)
	assert.Empty(gw.Kicks)
}

func TestInviteSpamIgnoresPlainMessages(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	gw := engine.FixtureGateway(&eng)
	gw.AddMember(100, platform.Member{ID: 2001})

	evt := platform.MessageEvent{
		Community: 100,
		Channel:   500,
		MessageID: 9200,
		Author:    2001,
		Content:   "hello, no links here",
		Timestamp: time.Now(),
	}
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Empty(gw.DeletedMessages)
	assert.Empty(gw.Timeouts)
}

func TestInviteSpamSkipsBotAndSelf(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	gw := engine.FixtureGateway(&eng)

	// bot-authored message
	evt := inviteMessage(2002, 9300, time.Now())
	evt.AuthorIsBot = true
	assert.NoError(eng.ProcessMessage(ctx, evt))

	// our own message (fixture SelfID is 1)
	evt = inviteMessage(1, 9301, time.Now())
	assert.NoError(eng.ProcessMessage(ctx, evt))

	assert.Empty(gw.DeletedMessages)
}

func TestInviteSpamTimeoutDeniedFallsBackToKick(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	gw := engine.FixtureGateway(&eng)
	gw.AddMember(100, platform.Member{ID: 2001})
	gw.TimeoutErr = &platform.APIError{StatusCode: 403}

	base := time.Now()
	for i := 0; i < 5; i++ {
		evt := inviteMessage(2001, platform.Snowflake(9400+i), base.Add(time.Duration(i)*time.Second))
		assert.NoError(eng.ProcessMessage(ctx, evt))
	}
	assert.Empty(gw.Timeouts)
	if assert.Len(gw.Kicks, 1) {
		assert.Equal(platform.Snowflake(2001), gw.Kicks[0].Account)
	}
}
