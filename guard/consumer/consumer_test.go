package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatchKey(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		frameType string
		data      string
		key       string
	}{
		{frameMessageCreate, `{"author_id": 2001, "channel_id": 500}`, "account/2001"},
		{frameMemberJoin, `{"account_id": 3001}`, "account/3001"},
		{frameMemberRemove, `{"account_id": 3001}`, "account/3001"},
		{frameMemberBan, `{"account_id": 3001}`, "account/3001"},
		{frameChannelDelete, `{"channel_id": 500}`, "channel/500"},
		{frameWebhooksUpdate, `{"channel_id": 500}`, "channel/500"},
		{frameRoleDelete, `{"role_id": 600}`, "role/600"},
	}
	for _, tc := range cases {
		frame := &streamFrame{Type: tc.frameType, Data: json.RawMessage(tc.data)}
		key, err := dispatchKey(frame)
		assert.NoError(err)
		assert.Equal(tc.key, key)
	}

	frame := &streamFrame{Type: "presence_update", Data: json.RawMessage(`{}`)}
	_, err := dispatchKey(frame)
	assert.Error(err)
}

func TestSchedulerSerializesPerKey(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var mu sync.Mutex
	got := make(map[string][]int64)
	inFlight := make(map[string]bool)

	do := func(ctx context.Context, frame *streamFrame) error {
		key, _ := dispatchKey(frame)
		mu.Lock()
		assert.False(inFlight[key], "two frames for one key running at once")
		inFlight[key] = true
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight[key] = false
		got[key] = append(got[key], frame.Seq)
		mu.Unlock()
		return nil
	}

	sched := newScheduler(4, slog.Default(), do)

	var seq int64
	for i := 0; i < 10; i++ {
		for _, data := range []string{
			`{"account_id": 3001}`,
			`{"account_id": 3002}`,
			`{"channel_id": 500}`,
		} {
			seq++
			frame := &streamFrame{Seq: seq, Type: frameMemberJoin, Data: json.RawMessage(data)}
			if data == `{"channel_id": 500}` {
				frame.Type = frameChannelDelete
			}
			key, err := dispatchKey(frame)
			assert.NoError(err)
			assert.NoError(sched.AddWork(ctx, key, frame))
		}
	}
	sched.Shutdown()

	// same-key frames ran in arrival order
	for key, seqs := range got {
		assert.Len(seqs, 10, "key %s", key)
		for i := 1; i < len(seqs); i++ {
			assert.Less(seqs[i-1], seqs[i], "key %s out of order", key)
		}
	}
	assert.Len(got, 3)
}

func TestHandleFrameToleratesMalformedData(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	gc := GatewayConsumer{Logger: slog.Default()}

	// malformed payloads are logged and skipped, never returned as errors
	// (an unprocessable frame must not stall its key)
	frame := &streamFrame{Seq: 1, Type: frameMessageCreate, Data: json.RawMessage(`{"author_id": "not-a-snowflake"`)}
	assert.NoError(gc.handleFrame(ctx, frame))

	frame = &streamFrame{Seq: 2, Type: "presence_update", Data: json.RawMessage(`{}`)}
	assert.NoError(gc.handleFrame(ctx, frame))
}
