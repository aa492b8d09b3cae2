// Moderation rules engine for a chat-community platform.
//
// This package (`github.com/R1das67/mein-nc-bot/guard`) contains a "rules
// engine" that reacts to platform events such as posted messages, member
// joins, channel or role deletions, and webhook changes. Rules can delete
// content, time out, or kick the responsible account, after attributing
// administrative side-effects to an actor via the platform's audit directory
// and exempting a fixed trusted-account set.
//
// See `cmd/guardbot` for the daemon built on this package.
package guard

import (
	"github.com/R1das67/mein-nc-bot/guard/engine"
)

type Engine = engine.Engine
type RuleSet = engine.RuleSet
type Effects = engine.Effects

type BaseContext = engine.BaseContext
type MessageContext = engine.MessageContext
type MemberJoinContext = engine.MemberJoinContext
type AdminActionContext = engine.AdminActionContext
type WebhookContext = engine.WebhookContext

type MessageRuleFunc = engine.MessageRuleFunc
type MemberJoinRuleFunc = engine.MemberJoinRuleFunc
type AdminActionRuleFunc = engine.AdminActionRuleFunc
type WebhookRuleFunc = engine.WebhookRuleFunc
