package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shams7728/stock-market-project/pkg/logger"
)

// memLists is an in-memory stand-in for the Redis list commands.
type memLists struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newMemLists() *memLists {
	return &memLists{lists: make(map[string][]string)}
}

func (m *memLists) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *memLists) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		var s string
		switch x := v.(type) {
		case []byte:
			s = string(x)
		case string:
			s = x
		}
		m.lists[key] = append([]string{s}, m.lists[key]...)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(m.lists[key])))
	return cmd
}

func (m *memLists) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	deadline := time.Now().Add(timeout)
	for {
		m.mu.Lock()
		for _, key := range keys {
			if l := m.lists[key]; len(l) > 0 {
				v := l[len(l)-1]
				m.lists[key] = l[:len(l)-1]
				m.mu.Unlock()
				cmd.SetVal([]string{key, v})
				return cmd
			}
		}
		m.mu.Unlock()

		if ctx.Err() != nil {
			cmd.SetErr(ctx.Err())
			return cmd
		}
		if time.Now().After(deadline) {
			cmd.SetErr(redis.Nil)
			return cmd
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (m *memLists) LLen(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(m.lists[key])))
	return cmd
}

func (m *memLists) items(key string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lists[key]...)
}

type funcJob struct {
	calls atomic.Int32
	fn    func(json.RawMessage) error
}

func (j *funcJob) Name() string { return "test-job" }
func (j *funcJob) Type() string { return "ingest.ticker" }
func (j *funcJob) Handle(_ context.Context, payload json.RawMessage) error {
	j.calls.Add(1)
	return j.fn(payload)
}

func startTestQueue(t *testing.T, store *memLists, job Job) *RedisQueue {
	t.Helper()
	q := newQueue(logger.NewNop(), &QueueConfig{Workers: 2, PollTimeout: 20 * time.Millisecond},
		store, ModeConsumerOnly, WithKeyPrefix("stocks:test"))
	if job != nil {
		q.RegisterJob(job)
	}
	require.NoError(t, q.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})
	return q
}

func TestFailedJobGoesStraightToDeadLetter(t *testing.T) {
	store := newMemLists()
	job := &funcJob{fn: func(json.RawMessage) error { return errors.New("upstream unavailable") }}
	q := startTestQueue(t, store, job)

	require.NoError(t, q.Enqueue(context.Background(), "ingest.ticker", tickerPayload{Ticker: "TCS.NS"}))

	require.Eventually(t, func() bool {
		return len(store.items("stocks:test:dlq")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// give the workers a few more polls; nothing may be re-run or re-queued
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), job.calls.Load())

	queued, dead, err := q.Pending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
	assert.Equal(t, int64(1), dead)

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(store.items("stocks:test:dlq")[0]), &msg))
	assert.Equal(t, "ingest.ticker", msg.Type)
	assert.Equal(t, "upstream unavailable", msg.Error)
	require.NotNil(t, msg.FailedAt)

	p, err := Decode[tickerPayload](msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "TCS.NS", p.Ticker)
}

func TestSuccessfulJobLeavesNoDeadLetter(t *testing.T) {
	store := newMemLists()
	seen := make(chan string, 1)
	job := &funcJob{fn: func(raw json.RawMessage) error {
		p, err := Decode[tickerPayload](raw)
		if err != nil {
			return err
		}
		seen <- p.Ticker
		return nil
	}}
	q := startTestQueue(t, store, job)

	require.NoError(t, q.Enqueue(context.Background(), "ingest.ticker", tickerPayload{Ticker: "INFY.NS"}))

	select {
	case ticker := <-seen:
		assert.Equal(t, "INFY.NS", ticker)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not run")
	}
	assert.Empty(t, store.items("stocks:test:dlq"))
}

func TestUnknownMessageTypeIsDeadLettered(t *testing.T) {
	store := newMemLists()
	msg, err := NewMessage("report.build", 1)
	require.NoError(t, err)
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	store.LPush(context.Background(), "stocks:test:messages", raw)

	startTestQueue(t, store, nil)

	require.Eventually(t, func() bool {
		return len(store.items("stocks:test:dlq")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, store.items("stocks:test:dlq")[0], "no job registered")
}

func TestEnqueueRequiresRunningQueue(t *testing.T) {
	q := newQueue(logger.NewNop(), nil, newMemLists(), ModeProducerOnly)
	err := q.Enqueue(context.Background(), "ingest.ticker", tickerPayload{Ticker: "TCS.NS"})
	assert.Error(t, err)

	require.NoError(t, q.Start())
	assert.NoError(t, q.Enqueue(context.Background(), "ingest.ticker", tickerPayload{Ticker: "TCS.NS"}))
	queued, _, err := q.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
}
