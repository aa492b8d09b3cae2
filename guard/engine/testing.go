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

// EngineTestFixture builds an engine wired to in-memory stores and mocks,
// with audit waits disabled. Intentionally exported, for use in other
// packages' tests. Callers attach rules and reach the mocks via
// FixtureGateway / FixtureDirectory.
func EngineTestFixture() Engine {
	gateway := platform.NewMockGateway()
	directory := platform.NewMockAuditDirectory()

	trusted := setstore.NewMemSetStore()
	trusted.Sets[setstore.TrustedAccounts] = map[string]bool{
		"1000": true,
	}

	correlator := auditor.NewCorrelator(directory, slog.Default())
	// no wall-clock waits in tests
	correlator.Wait = func(ctx context.Context, d time.Duration) {}

	noWait := time.Duration(0)
	return Engine{
		Logger:          slog.Default(),
		Trusted:         trusted,
		Counters:        countstore.NewMemCountStore(),
		Windows:         windowstore.NewMemWindowStore(15*time.Second, 50),
		Auditor:         correlator,
		Actuator:        enforcer.NewActuator(gateway, slog.Default()),
		SelfID:          platform.Snowflake(1),
		PropagationWait: &noWait,
	}
}

// FixtureGateway returns the mock gateway behind a fixture engine.
func FixtureGateway(eng *Engine) *platform.MockGateway {
	return eng.Actuator.Gateway.(*platform.MockGateway)
}

// FixtureDirectory returns the mock audit directory behind a fixture engine.
func FixtureDirectory(eng *Engine) *platform.MockAuditDirectory {
	return eng.Auditor.Directory.(*platform.MockAuditDirectory)
}

// ExtractEffects returns the private effects field from a context. Intended
// for use in test code, *not* from rules.
func ExtractEffects(c *BaseContext) Effects {
	return *c.effects
}
