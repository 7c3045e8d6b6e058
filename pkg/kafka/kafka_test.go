package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shams7728/stock-market-project/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	reg := prometheus.NewRegistry()
	p := newProducer(w, "snappy", reg)

	err := p.Publish(context.Background(), "stocks.ingested", []byte("TCS"), map[string]any{"ticker": "TCS"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "stocks.ingested", w.msgs[0].Topic)
	assert.Equal(t, []byte("TCS"), w.msgs[0].Key)
	assert.JSONEq(t, `{"ticker":"TCS"}`, string(w.msgs[0].Value))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("stocks.ingested", "snappy", "ok")))
}

func TestPublishWrapsWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, "gzip", nil)

	err := p.Publish(context.Background(), "t", nil, "raw")
	require.Error(t, err)
	assert.ErrorIs(t, err, w.err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}

type fakeReader struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type recordingHandler struct {
	got chan string
}

func (h *recordingHandler) Topic() string { return "stocks.ingested" }

func (h *recordingHandler) Handle(_ context.Context, data []byte) error {
	var ev struct {
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	h.got <- ev.Ticker
	return nil
}

func TestConsumerHandlesAndCommits(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 4)}
	c, err := NewConsumer(logger.NewNop(), WithConsumerBrokers([]string{"k:9092"}), WithConsumerGroupID("g"))
	require.NoError(t, err)
	c.newReader = func(string) Reader { return reader }

	h := &recordingHandler{got: make(chan string, 4)}
	c.RegisterHandler(h)
	require.NoError(t, c.Start(context.Background()))

	reader.msgs <- kafka.Message{Offset: 1, Value: []byte("not json")}
	reader.msgs <- kafka.Message{Offset: 2, Value: []byte(`{"ticker":"INFY"}`)}

	select {
	case got := <-h.got:
		assert.Equal(t, "INFY", got)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{1, 2}, reader.commits())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
}

func TestConsumerStartWithoutHandlers(t *testing.T) {
	c, err := NewConsumer(logger.NewNop(), WithConsumerBrokers([]string{"k:9092"}))
	require.NoError(t, err)
	assert.Error(t, c.Start(context.Background()))
}
