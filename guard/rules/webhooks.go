package rules

import (
	"github.com/R1das67/mein-nc-bot/guard"
)

var _ guard.WebhookRuleFunc = WebhookCreationRule

var webhookMaxAttempts = 3

// WebhookCreationRule inspects every fresh webhook-create audit record after
// a webhook-set change. Webhooks created by untrusted accounts are deleted
// (searching the triggering channel first, then the rest of the community),
// each creation counts as a violation, and the third violation gets the
// creator kicked and the counter released so later offenses start a fresh
// count.
func WebhookCreationRule(c *guard.WebhookContext) error {
	c.WaitForAudit()

	for _, rec := range c.FreshWebhookCreations() {
		if rec.TargetID == nil || rec.ActorID == 0 {
			continue
		}
		if c.IsTrusted(rec.ActorID) {
			continue
		}

		c.DeleteCreatedWebhook(c.Channel, *rec.TargetID, "webhook created by an untrusted account")

		attempts := c.RecordWebhookViolation(rec.ActorID)
		c.Logger.Info("untrusted webhook creation", "actor", rec.ActorID, "webhook", *rec.TargetID, "attempts", attempts)
		if attempts >= webhookMaxAttempts {
			c.KickAccount(rec.ActorID, "repeated disallowed webhook creation")
			c.ResetWebhookViolations(rec.ActorID)
		}
	}
	return nil
}
