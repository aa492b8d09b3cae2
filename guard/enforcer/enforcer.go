// Package enforcer applies graduated enforcement actions against accounts.
// Every failure is logged and swallowed: callers always get a definite
// outcome, never an error.
package enforcer

import (
	"context"
	"log/slog"
	"time"

	"github.com/R1das67/mein-nc-bot/guard/platform"
)

// Outcome of an escalating enforcement attempt.
type Outcome string

var (
	OutcomeTimedOut = Outcome("timed-out")
	OutcomeKicked   = Outcome("kicked")
	OutcomeNone     = Outcome("no-action")
)

type Actuator struct {
	Gateway platform.GatewayClient
	Logger  *slog.Logger

	// Now exists so tests can pin the timeout expiry.
	Now func() time.Time
}

func NewActuator(gw platform.GatewayClient, logger *slog.Logger) *Actuator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actuator{
		Gateway: gw,
		Logger:  logger.With("system", "enforcer"),
		Now:     time.Now,
	}
}

// isMember re-verifies current membership immediately before acting, so
// late-arriving duplicate events against an already-departed member degrade
// to silent no-ops.
func (a *Actuator) isMember(ctx context.Context, community, account platform.Snowflake) bool {
	_, err := a.Gateway.GetMember(ctx, community, account)
	if err != nil {
		if !platform.IsNotFound(err) {
			a.Logger.Warn("membership check failed", "account", account, "err", err)
		}
		return false
	}
	return true
}

// TimeoutOrKick prefers a temporary timeout over permanent removal: it
// attempts the timeout first and falls back to an immediate kick if the
// timeout fails for any reason.
func (a *Actuator) TimeoutOrKick(ctx context.Context, community, account platform.Snowflake, d time.Duration, reason string) Outcome {
	if !a.isMember(ctx, community, account) {
		return OutcomeNone
	}

	until := a.Now().Add(d)
	err := a.Gateway.TimeoutMember(ctx, community, account, until, reason)
	if err == nil {
		a.Logger.Info("timed out member", "account", account, "duration", d, "reason", reason)
		actionCount.WithLabelValues("timeout").Inc()
		return OutcomeTimedOut
	}
	if platform.IsPermissionDenied(err) {
		a.Logger.Warn("timeout not permitted, falling back to kick", "account", account)
	} else {
		a.Logger.Warn("timeout failed, falling back to kick", "account", account, "err", err)
	}
	actionFailureCount.WithLabelValues("timeout").Inc()

	if a.Kick(ctx, community, account, reason) {
		return OutcomeKicked
	}
	return OutcomeNone
}

// Kick removes a member directly, without attempting a timeout first. Used
// for bot-account expulsion and webhook-threshold escalation, and as the
// fallback leg of TimeoutOrKick. Returns whether the kick landed.
func (a *Actuator) Kick(ctx context.Context, community, account platform.Snowflake, reason string) bool {
	if !a.isMember(ctx, community, account) {
		return false
	}

	err := a.Gateway.KickMember(ctx, community, account, reason)
	if err != nil {
		if platform.IsPermissionDenied(err) {
			a.Logger.Warn("kick not permitted", "account", account)
		} else if !platform.IsNotFound(err) {
			a.Logger.Warn("kick failed", "account", account, "err", err)
		}
		actionFailureCount.WithLabelValues("kick").Inc()
		return false
	}
	a.Logger.Info("kicked member", "account", account, "reason", reason)
	actionCount.WithLabelValues("kick").Inc()
	return true
}

// DeleteMessage removes a message best-effort; "already gone" and "not
// permitted" are expected and not even warned about.
func (a *Actuator) DeleteMessage(ctx context.Context, channel, message platform.Snowflake) {
	err := a.Gateway.DeleteMessage(ctx, channel, message)
	if err == nil {
		actionCount.WithLabelValues("delete-message").Inc()
		return
	}
	if platform.IsNotFound(err) || platform.IsPermissionDenied(err) {
		return
	}
	a.Logger.Warn("message deletion failed", "channel", channel, "message", message, "err", err)
	actionFailureCount.WithLabelValues("delete-message").Inc()
}

// RemoveWebhook locates a specific webhook and deletes it. The triggering
// channel is searched first; if the hook moved or the event was coalesced,
// every text channel in the community is searched as a fallback. Returns
// whether the webhook was deleted.
//
// The fallback scan is O(channels) per violation; bounded only by the
// gateway client's request limiter.
func (a *Actuator) RemoveWebhook(ctx context.Context, community, channel, webhook platform.Snowflake, reason string) bool {
	target := a.findWebhook(ctx, channel, webhook)
	if target == nil {
		channels, err := a.Gateway.ListTextChannels(ctx, community)
		if err != nil {
			a.Logger.Warn("listing channels failed", "community", community, "err", err)
			return false
		}
		for _, ch := range channels {
			if ch.ID == channel {
				continue
			}
			if target = a.findWebhook(ctx, ch.ID, webhook); target != nil {
				break
			}
		}
	}
	if target == nil {
		return false
	}

	if err := a.Gateway.DeleteWebhook(ctx, target.ID, reason); err != nil {
		if platform.IsPermissionDenied(err) {
			a.Logger.Warn("webhook deletion not permitted", "webhook", target.ID)
		} else if !platform.IsNotFound(err) {
			a.Logger.Warn("webhook deletion failed", "webhook", target.ID, "err", err)
		}
		actionFailureCount.WithLabelValues("delete-webhook").Inc()
		return false
	}
	a.Logger.Info("deleted webhook", "webhook", target.ID, "reason", reason)
	actionCount.WithLabelValues("delete-webhook").Inc()
	return true
}

func (a *Actuator) findWebhook(ctx context.Context, channel, webhook platform.Snowflake) *platform.Webhook {
	hooks, err := a.Gateway.ListChannelWebhooks(ctx, channel)
	if err != nil {
		// channels we can't inspect are skipped, not fatal
		if !platform.IsPermissionDenied(err) {
			a.Logger.Warn("listing webhooks failed", "channel", channel, "err", err)
		}
		return nil
	}
	for _, wh := range hooks {
		if wh.ID == webhook {
			return &wh
		}
	}
	return nil
}
