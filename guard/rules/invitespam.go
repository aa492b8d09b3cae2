package rules

import (
	"fmt"
	"time"

	"github.com/R1das67/mein-nc-bot/guard"
)

var _ guard.MessageRuleFunc = InviteSpamMessageRule

var (
	// InviteWindow and InviteWindowCap configure the window store; exported
	// so the daemon wires the store with the same values the rule assumes.
	InviteWindow    = 15 * time.Second
	InviteWindowCap = 50

	inviteMaxInWindow     = 5
	inviteTimeoutDuration = 1 * time.Hour
)

// InviteSpamMessageRule deletes invite-bearing messages and escalates against
// untrusted authors who post invites at spam rate: five or more in a trailing
// fifteen-second window earns a one-hour timeout (or a kick, if the timeout
// is not permitted).
//
// Every invite-bearing message is deleted, trusted author or not; only the
// escalation is exempt. Repeat triggers while the account keeps posting above
// threshold are tolerated redundancy, not suppressed: enforcement is already
// underway and duplicate escalations no-op at the actuator.
func InviteSpamMessageRule(c *guard.MessageContext) error {
	if !ContainsInviteLink(c.Message.Content) {
		return nil
	}
	c.DeletePostedMessage()
	c.Logger.Info("invite link posted", "message", c.Message.MessageID)

	if c.IsTrusted(c.Message.Author) {
		return nil
	}

	now := c.Message.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	count := c.ObserveInvitePost(c.Message.Author, now)
	if count >= inviteMaxInWindow {
		reason := fmt.Sprintf("Invite-Spam: >=%d invites in %.0fs", inviteMaxInWindow, InviteWindow.Seconds())
		c.TimeoutAccount(c.Message.Author, inviteTimeoutDuration, reason)
	}
	return nil
}
