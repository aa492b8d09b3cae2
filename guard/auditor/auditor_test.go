package auditor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/R1das67/mein-nc-bot/guard/platform"
)

func testCorrelator(dir platform.AuditDirectory) (*Correlator, *[]time.Duration) {
	c := NewCorrelator(dir, slog.Default())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Now = func() time.Time { return now }
	waits := &[]time.Duration{}
	c.Wait = func(ctx context.Context, d time.Duration) {
		*waits = append(*waits, d)
	}
	return c, waits
}

func snowflakePtr(s platform.Snowflake) *platform.Snowflake {
	return &s
}

func TestAttributeFreshness(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	dir := platform.NewMockAuditDirectory()
	c, _ := testCorrelator(dir)
	now := c.Now()

	community := platform.Snowflake(100)
	target := platform.Snowflake(555)

	// a record well outside the freshness window describes some earlier,
	// unrelated action and must not attribute
	dir.Insert(platform.AuditRecord{
		Kind:      platform.AuditChannelDelete,
		ActorID:   201,
		TargetID:  snowflakePtr(target),
		CreatedAt: now.Add(-5 * time.Minute),
	})
	actor := c.Attribute(ctx, community, platform.AuditChannelDelete, &target, LookupOpts{})
	assert.Nil(actor)

	// a fresh record wins
	dir.Insert(platform.AuditRecord{
		Kind:      platform.AuditChannelDelete,
		ActorID:   202,
		TargetID:  snowflakePtr(target),
		CreatedAt: now.Add(-5 * time.Second),
	})
	actor = c.Attribute(ctx, community, platform.AuditChannelDelete, &target, LookupOpts{})
	if assert.NotNil(actor) {
		assert.Equal(platform.Snowflake(202), *actor)
	}
}

func TestAttributeTargetFilter(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	dir := platform.NewMockAuditDirectory()
	c, _ := testCorrelator(dir)
	now := c.Now()

	community := platform.Snowflake(100)

	// newest record is fresh but concerns a different target
	dir.Insert(platform.AuditRecord{
		Kind:      platform.AuditMemberBan,
		ActorID:   301,
		TargetID:  snowflakePtr(platform.Snowflake(900)),
		CreatedAt: now.Add(-3 * time.Second),
	})
	dir.Insert(platform.AuditRecord{
		Kind:      platform.AuditMemberBan,
		ActorID:   302,
		TargetID:  snowflakePtr(platform.Snowflake(901)),
		CreatedAt: now.Add(-1 * time.Second),
	})

	target := platform.Snowflake(900)
	actor := c.Attribute(ctx, community, platform.AuditMemberBan, &target, LookupOpts{})
	if assert.NotNil(actor) {
		assert.Equal(platform.Snowflake(301), *actor)
	}

	// record with no target at all never matches a targeted lookup
	other := platform.Snowflake(999)
	actor = c.Attribute(ctx, community, platform.AuditMemberBan, &other, LookupOpts{})
	assert.Nil(actor)
}

func TestAttributeAbsorbsDirectoryFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	dir := platform.NewMockAuditDirectory()
	dir.Err = &platform.APIError{StatusCode: 403}
	c, _ := testCorrelator(dir)

	target := platform.Snowflake(555)
	actor := c.Attribute(ctx, 100, platform.AuditChannelDelete, &target, LookupOpts{})
	assert.Nil(actor)
}

func TestLookupThrottle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	dir := platform.NewMockAuditDirectory()
	c, waits := testCorrelator(dir)

	target := platform.Snowflake(555)

	// first lookup for a key proceeds immediately
	c.Attribute(ctx, 100, platform.AuditChannelDelete, &target, LookupOpts{})
	assert.Empty(*waits)

	// a repeat within the throttle period waits out the remainder
	c.Attribute(ctx, 100, platform.AuditChannelDelete, &target, LookupOpts{})
	if assert.Len(*waits, 1) {
		assert.Equal(time.Second, (*waits)[0])
	}

	// a different key is not throttled
	other := platform.Snowflake(556)
	c.Attribute(ctx, 100, platform.AuditChannelDelete, &other, LookupOpts{})
	assert.Len(*waits, 1)
}

func TestRecentFresh(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	dir := platform.NewMockAuditDirectory()
	c, _ := testCorrelator(dir)
	now := c.Now()

	dir.Insert(platform.AuditRecord{
		Kind:      platform.AuditWebhookCreate,
		ActorID:   401,
		TargetID:  snowflakePtr(platform.Snowflake(7001)),
		CreatedAt: now.Add(-2 * time.Minute),
	})
	dir.Insert(platform.AuditRecord{
		Kind:      platform.AuditWebhookCreate,
		ActorID:   402,
		TargetID:  snowflakePtr(platform.Snowflake(7002)),
		CreatedAt: now.Add(-10 * time.Second),
	})

	fresh := c.RecentFresh(ctx, 100, platform.AuditWebhookCreate, 30*time.Second, 6)
	if assert.Len(fresh, 1) {
		assert.Equal(platform.Snowflake(402), fresh[0].ActorID)
	}
}
