package platform

import (
	"fmt"
	"strconv"
	"time"
)

// Snowflake is the platform's opaque numeric identifier for accounts,
// communities, channels, roles, messages, and webhooks. No two live entities
// share an ID. Stores key on the decimal string form.
type Snowflake uint64

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

func ParseSnowflake(raw string) (Snowflake, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing snowflake: %w", err)
	}
	return Snowflake(v), nil
}

// Member is a community membership record, as returned by the gateway REST
// surface. Absence of a membership is reported as a NotFound error, not a nil
// member.
type Member struct {
	ID       Snowflake `json:"id"`
	Username string    `json:"username,omitempty"`
	IsBot    bool      `json:"bot,omitempty"`
}

type Channel struct {
	ID     Snowflake `json:"id"`
	Name   string    `json:"name,omitempty"`
	IsText bool      `json:"is_text"`
}

type Webhook struct {
	ID        Snowflake `json:"id"`
	ChannelID Snowflake `json:"channel_id"`
	Name      string    `json:"name,omitempty"`
}

// AuditActionKind identifies the class of moderation-relevant action an audit
// record describes.
type AuditActionKind string

const (
	AuditBotAdd        = AuditActionKind("bot_add")
	AuditChannelDelete = AuditActionKind("channel_delete")
	AuditRoleDelete    = AuditActionKind("role_delete")
	AuditMemberBan     = AuditActionKind("member_ban")
	AuditMemberKick    = AuditActionKind("member_kick")
	AuditWebhookCreate = AuditActionKind("webhook_create")
)

// AuditRecord is a platform-maintained log entry describing an action and its
// actor. Records are written asynchronously by the platform and may lag the
// triggering event by a few seconds. Read-only to this process.
type AuditRecord struct {
	Kind      AuditActionKind `json:"action_kind"`
	ActorID   Snowflake       `json:"actor_id"`
	TargetID  *Snowflake      `json:"target_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Inbound gateway events. The consumer decodes dispatch frames into these and
// hands them to the engine.

type MessageEvent struct {
	Community   Snowflake `json:"community_id"`
	Channel     Snowflake `json:"channel_id"`
	MessageID   Snowflake `json:"message_id"`
	Author      Snowflake `json:"author_id"`
	AuthorIsBot bool      `json:"author_is_bot"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

type MemberEvent struct {
	Community Snowflake `json:"community_id"`
	Account   Snowflake `json:"account_id"`
	IsBot     bool      `json:"is_bot"`
}

type ChannelEvent struct {
	Community Snowflake `json:"community_id"`
	Channel   Snowflake `json:"channel_id"`
}

type RoleEvent struct {
	Community Snowflake `json:"community_id"`
	Role      Snowflake `json:"role_id"`
}

// WebhooksUpdateEvent signals that the webhook set of a channel changed; it
// does not carry the webhook or the responsible account, which must be
// recovered from the audit directory.
type WebhooksUpdateEvent struct {
	Community Snowflake `json:"community_id"`
	Channel   Snowflake `json:"channel_id"`
}
