package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/R1das67/mein-nc-bot/guard/platform"
)

func TestEffectsCollection(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	evt := platform.MessageEvent{
		Community: 100,
		Channel:   500,
		MessageID: 9000,
		Author:    2001,
		Content:   "whatever",
	}
	c := NewMessageContext(ctx, &eng, evt)

	c.DeletePostedMessage()
	c.TimeoutAccount(2001, time.Hour, "first")
	c.TimeoutAccount(2001, 2*time.Hour, "second")
	c.KickAccount(2002, "kick a")
	c.KickAccount(2003, "kick b")

	eff := ExtractEffects(&c.BaseContext)
	assert.True(eff.DeleteMessage)
	// later timeout replaced the earlier one
	if assert.NotNil(eff.Timeout) {
		assert.Equal("second", eff.Timeout.Reason)
		assert.Equal(2*time.Hour, eff.Timeout.Duration)
	}
	// kicks keep their order
	if assert.Len(eff.Kicks, 2) {
		assert.Equal(platform.Snowflake(2002), eff.Kicks[0].Account)
		assert.Equal(platform.Snowflake(2003), eff.Kicks[1].Account)
	}
}

func TestProcessMessageRunsRulesAndPersists(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	eng.Rules = RuleSet{
		MessageRules: []MessageRuleFunc{
			func(c *MessageContext) error {
				c.DeletePostedMessage()
				return nil
			},
		},
	}
	gw := FixtureGateway(&eng)
	gw.AddMember(100, platform.Member{ID: 2001})

	evt := platform.MessageEvent{
		Community: 100,
		Channel:   500,
		MessageID: 9000,
		Author:    2001,
		Content:   "whatever",
	}
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Equal([]platform.Snowflake{9000}, gw.DeletedMessages)
}

func TestProcessMessageSkipsBots(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ran := false
	eng := EngineTestFixture()
	eng.Rules = RuleSet{
		MessageRules: []MessageRuleFunc{
			func(c *MessageContext) error {
				ran = true
				return nil
			},
		},
	}

	evt := platform.MessageEvent{
		Community:   100,
		Channel:     500,
		MessageID:   9000,
		Author:      2001,
		AuthorIsBot: true,
	}
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.False(ran)

	// own messages are skipped too (fixture SelfID is 1)
	evt.AuthorIsBot = false
	evt.Author = 1
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.False(ran)

	// direct messages (no community) are skipped
	evt.Author = 2001
	evt.Community = 0
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.False(ran)
}

func TestRulePanicIsContained(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	eng.Rules = RuleSet{
		MessageRules: []MessageRuleFunc{
			func(c *MessageContext) error {
				panic("rule bug")
			},
		},
	}

	evt := platform.MessageEvent{
		Community: 100,
		Channel:   500,
		MessageID: 9000,
		Author:    2001,
	}
	assert.NotPanics(func() {
		_ = eng.ProcessMessage(ctx, evt)
	})
}

func TestStoreErrorsRollUpNotAbort(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// trusted-set lookups that fail report untrusted and stash the error;
	// the rule keeps running and its effects still apply
	eng := EngineTestFixture()
	eng.Trusted = failingSetStore{}
	eng.Rules = RuleSet{
		MessageRules: []MessageRuleFunc{
			func(c *MessageContext) error {
				assert.False(c.IsTrusted(c.Message.Author))
				c.DeletePostedMessage()
				return nil
			},
		},
	}
	gw := FixtureGateway(&eng)

	evt := platform.MessageEvent{
		Community: 100,
		Channel:   500,
		MessageID: 9000,
		Author:    2001,
	}
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Equal([]platform.Snowflake{9000}, gw.DeletedMessages)
}

type failingSetStore struct{}

func (failingSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	return false, &platform.APIError{StatusCode: 500}
}
