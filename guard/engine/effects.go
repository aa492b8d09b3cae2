package engine

import (
	"time"

	"github.com/R1das67/mein-nc-bot/guard/platform"
)

type TimeoutRef struct {
	Account  platform.Snowflake
	Duration time.Duration
	Reason   string
}

type KickRef struct {
	Account platform.Snowflake
	Reason  string
}

type WebhookDeleteRef struct {
	Channel platform.Snowflake
	Webhook platform.Snowflake
	Reason  string
}

type CounterResetRef struct {
	Name string
	Val  string
}

// Mutable container for all the possible side-effects from rule execution.
//
// Effects are collected while rules run and applied in bulk afterwards, in a
// fixed order: message deletion, webhook deletions, the timeout (with its
// kick fallback), direct kicks, counter resets. The ordering is what makes
// the webhook escalation correct: the offending webhook is removed before its
// creator is kicked, and the violation counter is only released after the
// kick attempt.
type Effects struct {
	// If true, the triggering message is deleted (best-effort).
	DeleteMessage bool
	// At most one graduated timeout-or-kick per event.
	Timeout *TimeoutRef
	// Direct kicks, applied in order.
	Kicks []KickRef
	// Specific webhooks to locate and delete.
	WebhookDeletes []WebhookDeleteRef
	// Violation counters to release after enforcement.
	CounterResets []CounterResetRef
}

// Enqueues deletion of the triggering message.
func (e *Effects) DeletePostedMessage() {
	e.DeleteMessage = true
}

// Enqueues a graduated enforcement action: timeout preferred, kick as
// fallback. Later calls replace earlier ones; an event escalates one account
// at most once this way.
func (e *Effects) TimeoutAccount(account platform.Snowflake, d time.Duration, reason string) {
	e.Timeout = &TimeoutRef{Account: account, Duration: d, Reason: reason}
}

// Enqueues a direct kick, with no timeout attempt first.
func (e *Effects) KickAccount(account platform.Snowflake, reason string) {
	e.Kicks = append(e.Kicks, KickRef{Account: account, Reason: reason})
}

// Enqueues deletion of a specific webhook, searched starting from the given
// channel.
func (e *Effects) DeleteCreatedWebhook(channel, webhook platform.Snowflake, reason string) {
	e.WebhookDeletes = append(e.WebhookDeletes, WebhookDeleteRef{Channel: channel, Webhook: webhook, Reason: reason})
}

// Enqueues release of a violation counter, applied after all enforcement.
func (e *Effects) ResetCounter(name, val string) {
	e.CounterResets = append(e.CounterResets, CounterResetRef{Name: name, Val: val})
}
