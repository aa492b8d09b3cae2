package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

type leveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l leveledSlog) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debug(msg, keysAndValues...)
}

// RobustHTTPClient returns an HTTP client with retries on connection errors,
// 5xx (except 501), and 429 (respecting 'Retry-After'). Intermediate failures
// are logged at WARN.
func RobustHTTPClient(logger *slog.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{logger.With("system", "http")})
	client := retryClient.StandardClient()
	client.Timeout = 20 * time.Second
	return client
}

// Client is a GatewayClient and AuditDirectory backed by the platform's REST
// API. The zero value is not usable; use NewClient.
type Client struct {
	Client    *http.Client
	Host      string
	Token     string
	UserAgent string

	// Limiter throttles all outbound REST calls, shared across enforcement
	// mutations and audit queries. Nil means unlimited.
	Limiter *rate.Limiter
}

func NewClient(host, token string, logger *slog.Logger, reqPerSec int) *Client {
	c := &Client{
		Client:    RobustHTTPClient(logger),
		Host:      host,
		Token:     token,
		UserAgent: fmt.Sprintf("guardbot/%s", versioninfo.Short()),
	}
	if reqPerSec > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(reqPerSec), 1)
	}
	return c
}

var _ GatewayClient = (*Client)(nil)
var _ AuditDirectory = (*Client)(nil)

func (c *Client) do(ctx context.Context, method, path, reason string, body, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reason != "" {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(reason))
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{StatusCode: resp.StatusCode, Message: string(msg)}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) GetMember(ctx context.Context, community, account Snowflake) (*Member, error) {
	var m Member
	path := fmt.Sprintf("/api/communities/%s/members/%s", community, account)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) DeleteMessage(ctx context.Context, channel, message Snowflake) error {
	path := fmt.Sprintf("/api/channels/%s/messages/%s", channel, message)
	return c.do(ctx, http.MethodDelete, path, "", nil, nil)
}

func (c *Client) TimeoutMember(ctx context.Context, community, account Snowflake, until time.Time, reason string) error {
	path := fmt.Sprintf("/api/communities/%s/members/%s", community, account)
	body := map[string]string{
		"communication_disabled_until": until.UTC().Format(time.RFC3339),
	}
	return c.do(ctx, http.MethodPatch, path, reason, body, nil)
}

func (c *Client) KickMember(ctx context.Context, community, account Snowflake, reason string) error {
	path := fmt.Sprintf("/api/communities/%s/members/%s", community, account)
	return c.do(ctx, http.MethodDelete, path, reason, nil, nil)
}

func (c *Client) ListTextChannels(ctx context.Context, community Snowflake) ([]Channel, error) {
	var all []Channel
	path := fmt.Sprintf("/api/communities/%s/channels", community)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &all); err != nil {
		return nil, err
	}
	var text []Channel
	for _, ch := range all {
		if ch.IsText {
			text = append(text, ch)
		}
	}
	return text, nil
}

func (c *Client) ListChannelWebhooks(ctx context.Context, channel Snowflake) ([]Webhook, error) {
	var hooks []Webhook
	path := fmt.Sprintf("/api/channels/%s/webhooks", channel)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, webhook Snowflake, reason string) error {
	path := fmt.Sprintf("/api/webhooks/%s", webhook)
	return c.do(ctx, http.MethodDelete, path, reason, nil, nil)
}

func (c *Client) RecentRecords(ctx context.Context, community Snowflake, kind AuditActionKind, limit int) ([]AuditRecord, error) {
	var out struct {
		Records []AuditRecord `json:"records"`
	}
	q := url.Values{}
	q.Set("action", string(kind))
	q.Set("limit", strconv.Itoa(limit))
	path := fmt.Sprintf("/api/communities/%s/audit-log?%s", community, q.Encode())
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}
