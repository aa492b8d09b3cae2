package rules

import (
	"github.com/R1das67/mein-nc-bot/guard"
	"github.com/R1das67/mein-nc-bot/guard/platform"
)

var _ guard.AdminActionRuleFunc = AdminActionAttributionRule

// AdminActionAttributionRule covers the destructive administrative events:
// channel deleted, role deleted, member banned, member removed. It waits out
// audit propagation, attributes the matching audit action against the
// affected target, and kicks the actor if one resolves and is untrusted.
//
// A member-remove with no fresh kick record is a voluntary leave and takes no
// action. Attribution failure of any sort fails open.
func AdminActionAttributionRule(c *guard.AdminActionContext) error {
	c.WaitForAudit()
	actor := c.AttributeActor(c.Kind, c.Target)
	if actor == nil || c.IsTrusted(*actor) {
		return nil
	}

	c.Logger.Info("attributed untrusted admin action", "actor", *actor)
	c.KickAccount(*actor, adminKickReason(c.Kind))
	return nil
}

func adminKickReason(kind platform.AuditActionKind) string {
	switch kind {
	case platform.AuditChannelDelete:
		return "deleted a channel without authorization"
	case platform.AuditRoleDelete:
		return "deleted a role without authorization"
	case platform.AuditMemberBan:
		return "banned a member without authorization"
	case platform.AuditMemberKick:
		return "kicked a member without authorization"
	}
	return "unauthorized administrative action"
}
