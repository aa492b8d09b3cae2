package platform

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// MockGateway is an in-memory GatewayClient for tests. Mutations are recorded
// so tests can assert on enforcement behavior; per-call errors can be injected
// to exercise the fallback paths. Intentionally exported, for use in other
// packages.
type MockGateway struct {
	mu sync.Mutex

	members  map[Snowflake]map[Snowflake]*Member
	channels map[Snowflake][]Channel
	webhooks map[Snowflake][]Webhook

	TimeoutErr       error
	KickErr          error
	DeleteMessageErr error
	DeleteWebhookErr error

	DeletedMessages []Snowflake
	DeletedWebhooks []Snowflake
	Timeouts        []MockTimeout
	Kicks           []MockKick
}

type MockTimeout struct {
	Community Snowflake
	Account   Snowflake
	Until     time.Time
	Reason    string
}

type MockKick struct {
	Community Snowflake
	Account   Snowflake
	Reason    string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		members:  make(map[Snowflake]map[Snowflake]*Member),
		channels: make(map[Snowflake][]Channel),
		webhooks: make(map[Snowflake][]Webhook),
	}
}

var _ GatewayClient = (*MockGateway)(nil)

func (g *MockGateway) AddMember(community Snowflake, m Member) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.members[community] == nil {
		g.members[community] = make(map[Snowflake]*Member)
	}
	g.members[community][m.ID] = &m
}

func (g *MockGateway) AddChannel(community Snowflake, ch Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[community] = append(g.channels[community], ch)
}

func (g *MockGateway) AddWebhook(channel Snowflake, wh Webhook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.webhooks[channel] = append(g.webhooks[channel], wh)
}

func (g *MockGateway) GetMember(ctx context.Context, community, account Snowflake) (*Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[community][account]
	if !ok {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "unknown member"}
	}
	out := *m
	return &out, nil
}

func (g *MockGateway) DeleteMessage(ctx context.Context, channel, message Snowflake) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeleteMessageErr != nil {
		return g.DeleteMessageErr
	}
	g.DeletedMessages = append(g.DeletedMessages, message)
	return nil
}

func (g *MockGateway) TimeoutMember(ctx context.Context, community, account Snowflake, until time.Time, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.TimeoutErr != nil {
		return g.TimeoutErr
	}
	g.Timeouts = append(g.Timeouts, MockTimeout{Community: community, Account: account, Until: until, Reason: reason})
	return nil
}

func (g *MockGateway) KickMember(ctx context.Context, community, account Snowflake, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.KickErr != nil {
		return g.KickErr
	}
	if _, ok := g.members[community][account]; !ok {
		return &APIError{StatusCode: http.StatusNotFound, Message: "unknown member"}
	}
	delete(g.members[community], account)
	g.Kicks = append(g.Kicks, MockKick{Community: community, Account: account, Reason: reason})
	return nil
}

func (g *MockGateway) ListTextChannels(ctx context.Context, community Snowflake) ([]Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var text []Channel
	for _, ch := range g.channels[community] {
		if ch.IsText {
			text = append(text, ch)
		}
	}
	return text, nil
}

func (g *MockGateway) ListChannelWebhooks(ctx context.Context, channel Snowflake) ([]Webhook, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Webhook{}, g.webhooks[channel]...), nil
}

func (g *MockGateway) DeleteWebhook(ctx context.Context, webhook Snowflake, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeleteWebhookErr != nil {
		return g.DeleteWebhookErr
	}
	for ch, hooks := range g.webhooks {
		for i, wh := range hooks {
			if wh.ID == webhook {
				g.webhooks[ch] = append(hooks[:i], hooks[i+1:]...)
				g.DeletedWebhooks = append(g.DeletedWebhooks, webhook)
				return nil
			}
		}
	}
	return &APIError{StatusCode: http.StatusNotFound, Message: "unknown webhook"}
}

// MockAuditDirectory serves canned audit records, newest-first as the real
// directory does.
type MockAuditDirectory struct {
	mu      sync.Mutex
	records map[AuditActionKind][]AuditRecord

	Err error
}

func NewMockAuditDirectory() *MockAuditDirectory {
	return &MockAuditDirectory{
		records: make(map[AuditActionKind][]AuditRecord),
	}
}

var _ AuditDirectory = (*MockAuditDirectory)(nil)

// Insert prepends a record, keeping newest-first order for same-kind records
// inserted oldest-first by tests.
func (d *MockAuditDirectory) Insert(rec AuditRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[rec.Kind] = append([]AuditRecord{rec}, d.records[rec.Kind]...)
}

func (d *MockAuditDirectory) RecentRecords(ctx context.Context, community Snowflake, kind AuditActionKind, limit int) ([]AuditRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	recs := d.records[kind]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return append([]AuditRecord{}, recs...), nil
}
