package rules

import (
	"github.com/R1das67/mein-nc-bot/guard"
	"github.com/R1das67/mein-nc-bot/guard/platform"
)

var _ guard.MemberJoinRuleFunc = UnauthorizedBotRule

// UnauthorizedBotRule expels bot accounts added by untrusted members: the bot
// is kicked, and then the member who added it. Attribution goes through the
// audit directory after a short propagation wait; if no fresh bot-add record
// resolves, nothing happens (fail open).
//
// The inviter kick relies on the actuator's membership recheck: if the
// inviter already left, it degrades to a no-op.
func UnauthorizedBotRule(c *guard.MemberJoinContext) error {
	if !c.Member.IsBot {
		return nil
	}

	c.WaitForAudit()
	actor := c.AttributeActor(platform.AuditBotAdd, c.Member.Account)
	if actor == nil || c.IsTrusted(*actor) {
		return nil
	}

	c.Logger.Info("untrusted bot add", "bot", c.Member.Account, "actor", *actor)
	c.KickAccount(c.Member.Account, "bot added by an untrusted account")
	c.KickAccount(*actor, "added a bot without authorization")
	return nil
}
