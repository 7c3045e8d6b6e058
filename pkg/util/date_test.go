package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDate(t *testing.T) {
	got, ok := ParseTime("2024-03-01")
	if !ok {
		t.Fatalf("expected ok")
	}
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
	got = ParseTimeDefault("Price", def)
	if !got.Equal(def) {
		t.Fatalf("expected default for garbage")
	}
}

func TestInRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, InRange(from, from, to))
	assert.False(t, InRange(to, from, to))
	assert.False(t, InRange(from.Add(-time.Hour), from, to))
	assert.True(t, InRange(from.Add(-time.Hour), time.Time{}, to))
	assert.True(t, InRange(to.Add(time.Hour), from, time.Time{}))
}

func TestParseFinite(t *testing.T) {
	cases := map[string]struct {
		want float64
		ok   bool
	}{
		"2500":     {2500, true},
		" 1.5e6 ":  {1.5e6, true},
		"-5":       {-5, true},
		"":         {0, false},
		"NaN":      {0, false},
		"Inf":      {0, false},
		"RELIANCE": {0, false},
	}
	for in, tc := range cases {
		got, ok := ParseFinite(in)
		assert.Equal(t, tc.ok, ok, in)
		assert.Equal(t, tc.want, got, in)
	}
}

func TestFormatDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	assert.Equal(t, "2024-03-01", FormatDate(time.Date(2024, 3, 1, 3, 45, 0, 0, ist).Add(12*time.Hour)))
}
