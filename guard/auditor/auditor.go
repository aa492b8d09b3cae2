// Package auditor correlates observed side-effects (a deletion, a ban, a
// webhook creation) with the responsible account via the platform's
// eventually-consistent audit directory.
package auditor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/R1das67/mein-nc-bot/guard/platform"
)

var (
	// DefaultFreshness is how old a record may be and still be attributed
	// to the current event. Records are written asynchronously and can lag
	// the triggering event by a few seconds; anything much older is assumed
	// to describe an unrelated earlier action.
	DefaultFreshness = 20 * time.Second
	// DefaultPageSize bounds how many records a single attribution scans.
	DefaultPageSize = 8
	// minimum spacing between two directory queries for the same
	// (community, kind, target) key. A self-throttle, not a hard cap.
	lookupThrottlePeriod = time.Second
)

// Correlator performs best-effort actor attribution. All directory failures
// are absorbed and reported as "no attribution"; the caller never sees an
// error from Attribute.
type Correlator struct {
	Directory platform.AuditDirectory
	Logger    *slog.Logger

	// Now and Wait exist so tests can run without wall-clock sleeps.
	Now  func() time.Time
	Wait func(ctx context.Context, d time.Duration)

	// soft cache of last-lookup times; eviction only costs an extra query
	throttle *expirable.LRU[string, time.Time]
}

func NewCorrelator(dir platform.AuditDirectory, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		Directory: dir,
		Logger:    logger.With("system", "auditor"),
		Now:       time.Now,
		Wait:      sleepCtx,
		throttle:  expirable.NewLRU[string, time.Time](1024, nil, time.Minute),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// LookupOpts tunes a single attribution. Zero values mean the defaults.
type LookupOpts struct {
	Freshness time.Duration
	PageSize  int
}

// Attribute returns the actor of the most recent fresh audit record of the
// given kind, optionally filtered to a specific target, or nil if no record
// matches or the directory is unavailable.
func (c *Correlator) Attribute(ctx context.Context, community platform.Snowflake, kind platform.AuditActionKind, target *platform.Snowflake, opts LookupOpts) *platform.Snowflake {
	freshness := opts.Freshness
	if freshness == 0 {
		freshness = DefaultFreshness
	}
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	c.throttleLookup(ctx, community, kind, target)

	now := c.Now()
	recs, err := c.Directory.RecentRecords(ctx, community, kind, pageSize)
	if err != nil {
		if platform.IsPermissionDenied(err) {
			c.Logger.Warn("not permitted to read audit records", "community", community, "kind", kind)
		} else {
			c.Logger.Warn("audit record query failed", "community", community, "kind", kind, "err", err)
		}
		return nil
	}

	// scan newest-first; the first fresh record matching the target wins
	for _, rec := range recs {
		if now.Sub(rec.CreatedAt) > freshness {
			continue
		}
		if target != nil {
			if rec.TargetID == nil || *rec.TargetID != *target {
				continue
			}
		}
		actor := rec.ActorID
		return &actor
	}
	return nil
}

// RecentFresh lists records of the given kind no older than the freshness
// window, newest first. Used by the webhook flow, which inspects every fresh
// creation rather than attributing a single one. Failures are absorbed as an
// empty result.
func (c *Correlator) RecentFresh(ctx context.Context, community platform.Snowflake, kind platform.AuditActionKind, freshness time.Duration, limit int) []platform.AuditRecord {
	c.throttleLookup(ctx, community, kind, nil)

	now := c.Now()
	recs, err := c.Directory.RecentRecords(ctx, community, kind, limit)
	if err != nil {
		c.Logger.Warn("audit record query failed", "community", community, "kind", kind, "err", err)
		return nil
	}
	var fresh []platform.AuditRecord
	for _, rec := range recs {
		if now.Sub(rec.CreatedAt) > freshness {
			continue
		}
		fresh = append(fresh, rec)
	}
	return fresh
}

// throttleLookup spaces out directory queries for the same action key: if a
// lookup for this key ran under a second ago, wait out the remainder before
// proceeding.
func (c *Correlator) throttleLookup(ctx context.Context, community platform.Snowflake, kind platform.AuditActionKind, target *platform.Snowflake) {
	key := lookupKey(community, kind, target)
	if last, ok := c.throttle.Get(key); ok {
		if elapsed := c.Now().Sub(last); elapsed < lookupThrottlePeriod {
			c.Wait(ctx, lookupThrottlePeriod-elapsed)
		}
	}
	c.throttle.Add(key, c.Now())
}

func lookupKey(community platform.Snowflake, kind platform.AuditActionKind, target *platform.Snowflake) string {
	if target == nil {
		return fmt.Sprintf("%s/%s", community, kind)
	}
	return fmt.Sprintf("%s/%s/%s", community, kind, target)
}
