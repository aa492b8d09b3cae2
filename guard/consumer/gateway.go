// Package consumer subscribes to the platform gateway's event stream and
// feeds decoded events into the guard engine, serializing per account.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/RussellLuo/slidingwindow"
	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/R1das67/mein-nc-bot/guard"
	"github.com/R1das67/mein-nc-bot/guard/platform"
)

var streamCursorKey = "guardbot/seq"

// stream event types, as sent in dispatch frames
const (
	frameMessageCreate  = "message_create"
	frameMemberJoin     = "member_join"
	frameMemberRemove   = "member_remove"
	frameMemberBan      = "member_ban"
	frameChannelDelete  = "channel_delete"
	frameRoleDelete     = "role_delete"
	frameWebhooksUpdate = "webhooks_update"
)

type streamFrame struct {
	Seq  int64           `json:"seq"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type GatewayConsumer struct {
	Parallelism int
	Logger      *slog.Logger
	RedisClient *redis.Client
	Engine      *guard.Engine
	Host        string
	Token       string

	// FloodLimit caps inbound frames per second; beyond it frames are
	// dropped and counted, protecting the workers from a runaway stream.
	// Zero means the default.
	FloodLimit int64

	// lastSeq is the most recent event sequence number we've received and
	// begun to handle. Periodically persisted to redis, if redis is
	// present. Best-effort (stream handling is concurrent, so numbers may
	// not be monotonic); use atomics when updating or reading.
	lastSeq int64
}

func (gc *GatewayConsumer) Run(ctx context.Context) error {

	if gc.Engine == nil {
		return fmt.Errorf("nil engine")
	}

	cur, err := gc.ReadLastCursor(ctx)
	if err != nil {
		return err
	}

	dialer := websocket.DefaultDialer
	u, err := url.Parse(gc.Host)
	if err != nil {
		return fmt.Errorf("invalid Host URI: %w", err)
	}
	u.Path = "/gateway/stream"
	if cur != 0 {
		u.RawQuery = fmt.Sprintf("cursor=%d", cur)
	}
	gc.Logger.Info("subscribing to gateway event stream", "upstream", gc.Host, "cursor", cur)
	con, _, err := dialer.Dial(u.String(), http.Header{
		"User-Agent":    []string{fmt.Sprintf("guardbot/%s", versioninfo.Short())},
		"Authorization": []string{"Bot " + gc.Token},
	})
	if err != nil {
		return fmt.Errorf("subscribing to gateway failed (dialing): %w", err)
	}
	defer func() { _ = con.Close() }()

	parallelism := gc.Parallelism
	if parallelism <= 0 {
		parallelism = 8
	}
	sched := newScheduler(parallelism, gc.Logger, gc.handleFrame)
	defer sched.Shutdown()

	floodLimit := gc.FloodLimit
	if floodLimit <= 0 {
		floodLimit = 500
	}
	flood, _ := slidingwindow.NewLimiter(time.Second, floodLimit, func() (slidingwindow.Window, slidingwindow.StopFunc) {
		return slidingwindow.NewLocalWindow()
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, raw, err := con.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading gateway stream: %w", err)
		}

		var frame streamFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			gc.Logger.Warn("malformed stream frame", "err", err)
			continue
		}
		atomic.StoreInt64(&gc.lastSeq, frame.Seq)

		if !flood.Allow() {
			itemsDropped.Inc()
			continue
		}

		key, err := dispatchKey(&frame)
		if err != nil {
			gc.Logger.Warn("undispatchable stream frame", "type", frame.Type, "seq", frame.Seq, "err", err)
			continue
		}
		if err := sched.AddWork(ctx, key, &frame); err != nil {
			return err
		}
	}
}

// dispatchKey picks the serialization key for a frame: the acting or affected
// account where one is known, the channel or role otherwise. Same-key frames
// process in arrival order.
func dispatchKey(frame *streamFrame) (string, error) {
	var ids struct {
		Account platform.Snowflake `json:"account_id"`
		Author  platform.Snowflake `json:"author_id"`
		Channel platform.Snowflake `json:"channel_id"`
		Role    platform.Snowflake `json:"role_id"`
	}
	if err := json.Unmarshal(frame.Data, &ids); err != nil {
		return "", err
	}
	switch frame.Type {
	case frameMessageCreate:
		return "account/" + ids.Author.String(), nil
	case frameMemberJoin, frameMemberRemove, frameMemberBan:
		return "account/" + ids.Account.String(), nil
	case frameChannelDelete, frameWebhooksUpdate:
		return "channel/" + ids.Channel.String(), nil
	case frameRoleDelete:
		return "role/" + ids.Role.String(), nil
	}
	return "", fmt.Errorf("unknown frame type: %s", frame.Type)
}

// NOTE: for now, this function basically never errors, just logs and returns
// nil; a frame the engine can not process should not stall its key.
func (gc *GatewayConsumer) handleFrame(ctx context.Context, frame *streamFrame) error {
	logger := gc.Logger.With("type", frame.Type, "seq", frame.Seq)

	switch frame.Type {
	case frameMessageCreate:
		var evt platform.MessageEvent
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			logger.Warn("malformed message event", "err", err)
			return nil
		}
		if err := gc.Engine.ProcessMessage(ctx, evt); err != nil {
			logger.Error("processing message failed", "err", err)
		}
	case frameMemberJoin:
		var evt platform.MemberEvent
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			logger.Warn("malformed member event", "err", err)
			return nil
		}
		if err := gc.Engine.ProcessMemberJoin(ctx, evt); err != nil {
			logger.Error("processing member join failed", "err", err)
		}
	case frameMemberRemove, frameMemberBan:
		var evt platform.MemberEvent
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			logger.Warn("malformed member event", "err", err)
			return nil
		}
		kind := platform.AuditMemberKick
		if frame.Type == frameMemberBan {
			kind = platform.AuditMemberBan
		}
		if err := gc.Engine.ProcessAdminAction(ctx, evt.Community, kind, evt.Account); err != nil {
			logger.Error("processing member removal failed", "err", err)
		}
	case frameChannelDelete:
		var evt platform.ChannelEvent
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			logger.Warn("malformed channel event", "err", err)
			return nil
		}
		if err := gc.Engine.ProcessAdminAction(ctx, evt.Community, platform.AuditChannelDelete, evt.Channel); err != nil {
			logger.Error("processing channel delete failed", "err", err)
		}
	case frameRoleDelete:
		var evt platform.RoleEvent
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			logger.Warn("malformed role event", "err", err)
			return nil
		}
		if err := gc.Engine.ProcessAdminAction(ctx, evt.Community, platform.AuditRoleDelete, evt.Role); err != nil {
			logger.Error("processing role delete failed", "err", err)
		}
	case frameWebhooksUpdate:
		var evt platform.WebhooksUpdateEvent
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			logger.Warn("malformed webhooks event", "err", err)
			return nil
		}
		if err := gc.Engine.ProcessWebhooksUpdate(ctx, evt); err != nil {
			logger.Error("processing webhooks update failed", "err", err)
		}
	default:
		logger.Debug("ignoring stream frame")
	}
	return nil
}

func (gc *GatewayConsumer) ReadLastCursor(ctx context.Context) (int64, error) {
	// if redis isn't configured, just skip
	if gc.RedisClient == nil {
		gc.Logger.Info("redis not configured, skipping cursor read")
		return 0, nil
	}

	val, err := gc.RedisClient.Get(ctx, streamCursorKey).Result()
	if err == redis.Nil {
		gc.Logger.Info("no pre-existing cursor in redis")
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	gc.Logger.Info("successfully found prior stream cursor in redis", "cursor", val)
	return strconv.ParseInt(val, 10, 64)
}

func (gc *GatewayConsumer) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if gc.RedisClient == nil {
		return nil
	}
	lastSeq := atomic.LoadInt64(&gc.lastSeq)
	if lastSeq <= 0 {
		return nil
	}
	return gc.RedisClient.Set(ctx, streamCursorKey, lastSeq, 14*24*time.Hour).Err()
}

// RunPersistCursor periodically persists the stream cursor to redis, so a
// restart resumes near where it left off. Cancelling the context triggers a
// final persist.
func (gc *GatewayConsumer) RunPersistCursor(ctx context.Context) error {
	if gc.RedisClient == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := gc.PersistCursor(ctx); err != nil {
				gc.Logger.Error("failed to persist cursor", "err", err)
			}
		case <-ctx.Done():
			if err := gc.PersistCursor(context.Background()); err != nil {
				gc.Logger.Error("failed to persist cursor", "err", err)
			}
			return nil
		}
	}
}
