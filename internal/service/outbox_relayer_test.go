package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"TeamPulse/internal/model"
	"TeamPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
	msgs [][]byte
}

func (p *fakePublisher) Send(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, value)
	return nil
}

func TestRelayerPublishesEnvelope(t *testing.T) {
	e, db := newTestEngine(t, "2024-05-01T08:00:00Z")
	ctx := context.Background()
	_, err := e.Users.Register(ctx, 1, "alice")
	require.NoError(t, err)
	id, err := e.Ideas.CreateIdea(ctx, "relay me", "", 1, model.PriorityLow)
	require.NoError(t, err)

	pub := &fakePublisher{}
	r := NewOutboxRelayer(db, KafkaSender(pub))
	sent, failed := r.DrainOnce(ctx)
	assert.Equal(t, 1, sent)
	assert.Zero(t, failed)

	require.Len(t, pub.msgs, 1)
	var env Envelope
	require.NoError(t, json.Unmarshal(pub.msgs[0], &env))
	assert.Equal(t, model.EventTypeIdeaCreated, env.EventType)
	assert.Equal(t, id, env.AggregateID)
	assert.NotEmpty(t, env.EventID)
	assert.Contains(t, string(env.Payload), "relay me")

	sent, _ = r.DrainOnce(ctx)
	assert.Zero(t, sent, "already delivered")
}

func TestRelayerRetriesUntilLimit(t *testing.T) {
	e, db := newTestEngine(t, "2024-05-01T08:00:00Z")
	ctx := context.Background()
	_, err := e.Users.Register(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = e.Ideas.CreateIdea(ctx, "flaky", "", 1, "")
	require.NoError(t, err)

	calls := 0
	r := NewOutboxRelayer(db, func(context.Context, *model.OutboxEvent) error {
		calls++
		return errors.New("broker down")
	})
	r.maxRetry = 2
	for i := 0; i < 4; i++ {
		r.DrainOnce(ctx)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.OutboxEvent{}, "status = ? AND retry = 2", model.OutboxFailed))

	r.sender = LogSender
	r.maxRetry = 3
	sent, failed := r.DrainOnce(ctx)
	assert.Equal(t, 1, sent)
	assert.Zero(t, failed)
}
