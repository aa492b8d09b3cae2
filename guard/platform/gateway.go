package platform

import (
	"context"
	"time"
)

// GatewayClient is the REST surface of the platform gateway that moderation
// needs: membership checks plus the five mutations. Implementations must
// return errors classifiable by IsPermissionDenied / IsNotFound / IsTransient.
type GatewayClient interface {
	// GetMember returns the community membership for an account, or a
	// NotFound error if the account is not currently a member.
	GetMember(ctx context.Context, community, account Snowflake) (*Member, error)

	DeleteMessage(ctx context.Context, channel, message Snowflake) error

	// TimeoutMember applies a communication restriction until the given
	// time. Requires moderate-member rights over the target.
	TimeoutMember(ctx context.Context, community, account Snowflake, until time.Time, reason string) error

	KickMember(ctx context.Context, community, account Snowflake, reason string) error

	ListTextChannels(ctx context.Context, community Snowflake) ([]Channel, error)

	ListChannelWebhooks(ctx context.Context, channel Snowflake) ([]Webhook, error)

	DeleteWebhook(ctx context.Context, webhook Snowflake, reason string) error
}

// AuditDirectory is the best-effort actor lookup facility. Records come back
// newest-first. Queries may fail with permission-denied or transient errors;
// callers treat both as "no result".
type AuditDirectory interface {
	RecentRecords(ctx context.Context, community Snowflake, kind AuditActionKind, limit int) ([]AuditRecord, error)
}
