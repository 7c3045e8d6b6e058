package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("component", "ingest"))

	l.Info("ticker stored",
		String("ticker", "TCS"),
		Int("bars", 3),
		Float64("market_cap", 2.5e9),
		Duration("took", 1500*time.Millisecond),
		Bool("retriable", false),
		Error(errors.New("boom")),
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ticker stored", line["message"])
	assert.Equal(t, "ingest", line["component"])
	assert.Equal(t, "TCS", line["ticker"])
	assert.Equal(t, float64(3), line["bars"])
	assert.Equal(t, 2.5e9, line["market_cap"])
	assert.Equal(t, float64(1500), line["took"])
	assert.Equal(t, false, line["retriable"])
	assert.Equal(t, "boom", line["error"])
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Error("ignored", String("k", "v"))
	})
}
