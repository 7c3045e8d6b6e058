package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shams7728/stock-market-project/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestBuildEmptyMatchesAll(t *testing.T) {
	p := Build(nil)
	assert.True(t, p.MatchAll())

	p = Build(Bounds{"pe_ratio": {}})
	assert.True(t, p.MatchAll(), "range with no sides contributes nothing")
}

func TestBuildClausesFollowFieldTable(t *testing.T) {
	p := Build(Bounds{
		"free_cash_flow": {Max: f(100)},
		"market_cap":     {Min: f(1e9), Max: f(5e9)},
		"debt_to_equity": {Min: f(0.5)},
	})

	require.Len(t, p.All, 4)
	assert.Equal(t, Clause{Field: models.FieldMarketCap, Op: OpGte, Value: 1e9}, p.All[0])
	assert.Equal(t, Clause{Field: models.FieldMarketCap, Op: OpLte, Value: 5e9}, p.All[1])
	assert.Equal(t, Clause{Field: models.FieldDebtToEquityRatio, Op: OpGte, Value: 0.5}, p.All[2])
	assert.Equal(t, Clause{Field: models.FieldFreeCashFlow, Op: OpLte, Value: 100.0}, p.All[3])
	assert.Empty(t, p.Any)
}

func TestBuildInvertedRangeForwarded(t *testing.T) {
	p := Build(Bounds{"eps": {Min: f(10), Max: f(1)}})
	require.Len(t, p.All, 2)
	assert.Equal(t, 10.0, p.All[0].Value)
	assert.Equal(t, 1.0, p.All[1].Value)
}

func TestBuildIgnoresUnknownParams(t *testing.T) {
	p := Build(Bounds{"shares_outstanding": {Min: f(1)}})
	assert.True(t, p.MatchAll())
}

func TestParseBounds(t *testing.T) {
	params := map[string]string{
		"pe_ratio_min":      "5",
		"pe_ratio_max":      "25.5",
		"price_to_book_max": "3",
		"eps_min":           "",
	}
	b, err := ParseBounds(func(k string) string { return params[k] })
	require.NoError(t, err)
	require.Len(t, b, 2)
	assert.Equal(t, 5.0, *b["pe_ratio"].Min)
	assert.Equal(t, 25.5, *b["pe_ratio"].Max)
	assert.Nil(t, b["price_to_book"].Min)
	assert.Equal(t, 3.0, *b["price_to_book"].Max)
}

func TestParseBoundsRejectsNonNumeric(t *testing.T) {
	_, err := ParseBounds(func(k string) string {
		if k == "market_cap_min" {
			return "big"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market_cap_min")
}

func TestParseBoundsRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Infinity"} {
		_, err := ParseBounds(func(k string) string {
			if k == "pe_ratio_min" {
				return raw
			}
			return ""
		})
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "pe_ratio_min")
	}
}

func TestSearchAndTicker(t *testing.T) {
	s := Search("rel")
	assert.Empty(t, s.All)
	require.Len(t, s.Any, 2)
	assert.Equal(t, models.FieldTicker, s.Any[0].Field)
	assert.Equal(t, OpContains, s.Any[1].Op)

	tk := Ticker("TCS")
	assert.Equal(t, []Clause{{Field: models.FieldTicker, Op: OpEq, Value: "TCS"}}, tk.All)
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Asc, ParseDirection("asc"))
	assert.Equal(t, Desc, ParseDirection("desc"))
	assert.Equal(t, Desc, ParseDirection("ASC"))
	assert.Equal(t, Desc, ParseDirection(""))
}
