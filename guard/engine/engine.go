// Package engine is the moderation decision core: it routes each inbound
// platform event through the configured rules, collects the enforcement
// effects they request, and applies them through the actuator.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/R1das67/mein-nc-bot/guard/auditor"
	"github.com/R1das67/mein-nc-bot/guard/countstore"
	"github.com/R1das67/mein-nc-bot/guard/enforcer"
	"github.com/R1das67/mein-nc-bot/guard/platform"
	"github.com/R1das67/mein-nc-bot/guard/setstore"
	"github.com/R1das67/mein-nc-bot/guard/windowstore"
)

var (
	// pause before audit attribution, covering audit-record write lag
	auditPropagationWait = 1 * time.Second
	// webhook-create records are inspected with a wider freshness window
	// and a smaller page than single-action attribution
	webhookAuditFreshness = 30 * time.Second
	webhookAuditPageSize  = 6
)

// runtime for executing rules, managing state, and applying enforcement.
//
// Careful when initializing: several fields should not be nil or zero, even
// though they are pointer type.
type Engine struct {
	Logger   *slog.Logger
	Rules    RuleSet
	Trusted  setstore.SetStore
	Counters countstore.CountStore
	Windows  windowstore.WindowStore
	Auditor  *auditor.Correlator
	Actuator *enforcer.Actuator

	// SelfID is the daemon's own account; its messages are ignored.
	SelfID platform.Snowflake

	// PropagationWait overrides the audit propagation pause when non-nil
	// (tests set a zero duration here).
	PropagationWait *time.Duration
}

func (eng *Engine) waitForAudit(ctx context.Context) {
	d := auditPropagationWait
	if eng.PropagationWait != nil {
		d = *eng.PropagationWait
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// ProcessMessage runs message rules for a received message. Messages from
// bots (this process included) and messages outside any community are
// ignored.
func (eng *Engine) ProcessMessage(ctx context.Context, evt platform.MessageEvent) error {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("guard event execution exception", "err", r, "author", evt.Author, "type", "message")
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("message").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("message").Inc()

	if evt.AuthorIsBot || evt.Author == eng.SelfID || evt.Community == 0 {
		return nil
	}

	c := NewMessageContext(ctx, eng, evt)
	if err := eng.Rules.CallMessageRules(&c); err != nil {
		eventErrorCount.WithLabelValues("message").Inc()
		return err
	}
	eng.canonicalLogLine(&c.BaseContext, "message")
	return eng.persistEffects(&c.BaseContext, messageTarget{channel: evt.Channel, message: evt.MessageID})
}

// ProcessMemberJoin runs member-join rules (unauthorized bot detection).
func (eng *Engine) ProcessMemberJoin(ctx context.Context, evt platform.MemberEvent) error {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("guard event execution exception", "err", r, "account", evt.Account, "type", "member-join")
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("member-join").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("member-join").Inc()

	c := NewMemberJoinContext(ctx, eng, evt)
	if err := eng.Rules.CallMemberJoinRules(&c); err != nil {
		eventErrorCount.WithLabelValues("member-join").Inc()
		return err
	}
	eng.canonicalLogLine(&c.BaseContext, "member-join")
	return eng.persistEffects(&c.BaseContext, messageTarget{})
}

// ProcessAdminAction runs admin-action rules for an observed side-effect:
// channel deleted, role deleted, member banned, or member removed (possibly
// kicked). Kind names the audit action to attribute; target is the affected
// entity.
func (eng *Engine) ProcessAdminAction(ctx context.Context, community platform.Snowflake, kind platform.AuditActionKind, target platform.Snowflake) error {
	t := string(kind)
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("guard event execution exception", "err", r, "target", target, "type", t)
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues(t).Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues(t).Inc()

	c := NewAdminActionContext(ctx, eng, community, kind, target)
	if err := eng.Rules.CallAdminActionRules(&c); err != nil {
		eventErrorCount.WithLabelValues(t).Inc()
		return err
	}
	eng.canonicalLogLine(&c.BaseContext, t)
	return eng.persistEffects(&c.BaseContext, messageTarget{})
}

// ProcessWebhooksUpdate runs webhook rules for a webhook-set change.
func (eng *Engine) ProcessWebhooksUpdate(ctx context.Context, evt platform.WebhooksUpdateEvent) error {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("guard event execution exception", "err", r, "channel", evt.Channel, "type", "webhooks-update")
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("webhooks-update").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("webhooks-update").Inc()

	c := NewWebhookContext(ctx, eng, evt)
	if err := eng.Rules.CallWebhookRules(&c); err != nil {
		eventErrorCount.WithLabelValues("webhooks-update").Inc()
		return err
	}
	eng.canonicalLogLine(&c.BaseContext, "webhooks-update")
	return eng.persistEffects(&c.BaseContext, messageTarget{})
}

// single log line per event, summarizing the enforcement requested
func (eng *Engine) canonicalLogLine(c *BaseContext, t string) {
	if c.Err != nil {
		c.Logger.Warn("rule execution hit store errors", "type", t, "err", c.Err)
	}
	eff := c.effects
	if !eff.DeleteMessage && eff.Timeout == nil && len(eff.Kicks) == 0 && len(eff.WebhookDeletes) == 0 {
		return
	}
	c.Logger.Info("guard-event",
		"type", t,
		"deleteMessage", eff.DeleteMessage,
		"timeout", eff.Timeout != nil,
		"kicks", len(eff.Kicks),
		"webhookDeletes", len(eff.WebhookDeletes),
	)
}
