package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/R1das67/mein-nc-bot/guard/auditor"
	"github.com/R1das67/mein-nc-bot/guard/countstore"
	"github.com/R1das67/mein-nc-bot/guard/platform"
	"github.com/R1das67/mein-nc-bot/guard/setstore"
	"github.com/R1das67/mein-nc-bot/guard/windowstore"
)

// The primary interface exposed to rules. All other contexts derive from this
// "base" struct.
type BaseContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// Any errors encountered while processing methods on this struct (or
	// sub-types) get rolled up in this nullable field
	Err error
	// slog logger handle, with event-specific structured fields
	// pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger

	// Community the event happened in.
	Community platform.Snowflake

	engine  *Engine // NOTE: pointer, but expected never to be nil
	effects *Effects
}

// A message posted to a channel.
type MessageContext struct {
	BaseContext

	Message platform.MessageEvent
}

// An account joining the community.
type MemberJoinContext struct {
	BaseContext

	Member platform.MemberEvent
}

// An observed administrative side-effect (a deletion, ban, or kick) whose
// actor must be recovered from the audit directory.
type AdminActionContext struct {
	BaseContext

	Kind   platform.AuditActionKind
	Target platform.Snowflake
}

// A change to some channel's webhook set.
type WebhookContext struct {
	BaseContext

	Channel platform.Snowflake
}

// request external state via engine (indirect) ======

// IsTrusted reports whether an account is in the trusted set and therefore
// exempt from all enforcement.
func (c *BaseContext) IsTrusted(account platform.Snowflake) bool {
	out, err := c.engine.Trusted.InSet(c.Ctx, setstore.TrustedAccounts, account.String())
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return false
	}
	return out
}

// ObserveInvitePost records an invite post by the account and returns how
// many of its posts fall in the trailing detection window, this one included.
func (c *BaseContext) ObserveInvitePost(account platform.Snowflake, now time.Time) int {
	out, err := c.engine.Windows.Observe(c.Ctx, windowstore.NameInvitePost, scopedKey(c.Community, account), now)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

// RecordWebhookViolation counts a disallowed webhook creation and returns the
// post-increment count.
func (c *BaseContext) RecordWebhookViolation(account platform.Snowflake) int {
	out, err := c.engine.Counters.Increment(c.Ctx, countstore.NameWebhookViolation, scopedKey(c.Community, account))
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

// ResetWebhookViolations enqueues release of the account's violation counter.
func (c *BaseContext) ResetWebhookViolations(account platform.Snowflake) {
	c.effects.ResetCounter(countstore.NameWebhookViolation, scopedKey(c.Community, account))
}

// WaitForAudit pauses briefly before audit attribution, giving the platform's
// asynchronously-written audit records time to appear.
func (c *BaseContext) WaitForAudit() {
	c.engine.waitForAudit(c.Ctx)
}

// AttributeActor resolves the most recent fresh audit record of the given
// kind and target to its actor, or nil if attribution fails. Never errors;
// attribution is best-effort by design.
func (c *BaseContext) AttributeActor(kind platform.AuditActionKind, target platform.Snowflake) *platform.Snowflake {
	return c.engine.Auditor.Attribute(c.Ctx, c.Community, kind, &target, auditor.LookupOpts{})
}

// FreshWebhookCreations lists very recent webhook-create audit records,
// newest first.
func (c *BaseContext) FreshWebhookCreations() []platform.AuditRecord {
	return c.engine.Auditor.RecentFresh(c.Ctx, c.Community, platform.AuditWebhookCreate, webhookAuditFreshness, webhookAuditPageSize)
}

// update effects (indirect) ======

func (c *MessageContext) DeletePostedMessage() {
	c.effects.DeletePostedMessage()
}

func (c *BaseContext) TimeoutAccount(account platform.Snowflake, d time.Duration, reason string) {
	c.effects.TimeoutAccount(account, d, reason)
}

func (c *BaseContext) KickAccount(account platform.Snowflake, reason string) {
	c.effects.KickAccount(account, reason)
}

func (c *WebhookContext) DeleteCreatedWebhook(channel, webhook platform.Snowflake, reason string) {
	c.effects.DeleteCreatedWebhook(channel, webhook, reason)
}

// store keys are scoped per community, so one process can guard several
func scopedKey(community, account platform.Snowflake) string {
	return community.String() + "/" + account.String()
}

func NewMessageContext(ctx context.Context, eng *Engine, evt platform.MessageEvent) MessageContext {
	return MessageContext{
		BaseContext: newBaseContext(ctx, eng, evt.Community,
			eng.Logger.With("community", evt.Community, "channel", evt.Channel, "author", evt.Author)),
		Message: evt,
	}
}

func NewMemberJoinContext(ctx context.Context, eng *Engine, evt platform.MemberEvent) MemberJoinContext {
	return MemberJoinContext{
		BaseContext: newBaseContext(ctx, eng, evt.Community,
			eng.Logger.With("community", evt.Community, "account", evt.Account)),
		Member: evt,
	}
}

func NewAdminActionContext(ctx context.Context, eng *Engine, community platform.Snowflake, kind platform.AuditActionKind, target platform.Snowflake) AdminActionContext {
	return AdminActionContext{
		BaseContext: newBaseContext(ctx, eng, community,
			eng.Logger.With("community", community, "kind", string(kind), "target", target)),
		Kind:   kind,
		Target: target,
	}
}

func NewWebhookContext(ctx context.Context, eng *Engine, evt platform.WebhooksUpdateEvent) WebhookContext {
	return WebhookContext{
		BaseContext: newBaseContext(ctx, eng, evt.Community,
			eng.Logger.With("community", evt.Community, "channel", evt.Channel)),
		Channel: evt.Channel,
	}
}

func newBaseContext(ctx context.Context, eng *Engine, community platform.Snowflake, logger *slog.Logger) BaseContext {
	return BaseContext{
		Ctx:       ctx,
		Err:       nil,
		Logger:    logger,
		Community: community,
		engine:    eng,
		effects:   &Effects{},
	}
}
