package engine

import (
	"github.com/R1das67/mein-nc-bot/guard/enforcer"
	"github.com/R1das67/mein-nc-bot/guard/platform"
)

type messageTarget struct {
	channel platform.Snowflake
	message platform.Snowflake
}

// persistEffects applies everything the rules enqueued. Enforcement failures
// are absorbed inside the actuator; only store failures (counter resets)
// propagate, since losing a reset would suppress future counting.
func (eng *Engine) persistEffects(c *BaseContext, msg messageTarget) error {
	ctx := c.Ctx
	eff := c.effects

	if eff.DeleteMessage && msg.message != 0 {
		eng.Actuator.DeleteMessage(ctx, msg.channel, msg.message)
	}

	for _, ref := range eff.WebhookDeletes {
		eng.Actuator.RemoveWebhook(ctx, c.Community, ref.Channel, ref.Webhook, ref.Reason)
	}

	if eff.Timeout != nil {
		outcome := eng.Actuator.TimeoutOrKick(ctx, c.Community, eff.Timeout.Account, eff.Timeout.Duration, eff.Timeout.Reason)
		if outcome == enforcer.OutcomeNone {
			c.Logger.Debug("escalation produced no action", "account", eff.Timeout.Account)
		}
	}

	for _, ref := range eff.Kicks {
		eng.Actuator.Kick(ctx, c.Community, ref.Account, ref.Reason)
	}

	for _, ref := range eff.CounterResets {
		if err := eng.Counters.Reset(ctx, ref.Name, ref.Val); err != nil {
			return err
		}
	}
	return nil
}
