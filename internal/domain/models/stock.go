package models

import (
	"strings"
	"time"
)

// StockRecord is the canonical per-ticker document.
//
// MarketCap is a proxy (last close × last volume). Upstream sources do not
// provide shares outstanding, so it is not a true market capitalization and
// must not be compared against one.
type StockRecord struct {
	Ticker       string    `bson:"ticker" json:"ticker"`
	MarketCap    float64   `bson:"market_cap" json:"market_cap"`
	Fundamentals `bson:",inline"`
	History      []Bar     `bson:"historical_data" json:"historical_data"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Fundamentals is a point-in-time snapshot of financial ratios.
// A nil field means the upstream source had no value.
type Fundamentals struct {
	PERatio           *float64 `bson:"pe_ratio" json:"pe_ratio"`
	DebtToEquityRatio *float64 `bson:"debt_to_equity_ratio" json:"debt_to_equity_ratio"`
	EPS               *float64 `bson:"eps" json:"eps"`
	DividendYield     *float64 `bson:"dividend_yield" json:"dividend_yield"`
	ReturnOnEquity    *float64 `bson:"return_on_equity" json:"return_on_equity"`
	PriceToBookRatio  *float64 `bson:"price_to_book_ratio" json:"price_to_book_ratio"`
	CurrentRatio      *float64 `bson:"current_ratio" json:"current_ratio"`
	OperatingMargin   *float64 `bson:"operating_margin" json:"operating_margin"`
	NetProfitMargin   *float64 `bson:"net_profit_margin" json:"net_profit_margin"`
	FreeCashFlow      *float64 `bson:"free_cash_flow" json:"free_cash_flow"`
}

// Field names of the stored document.
const (
	FieldTicker            = "ticker"
	FieldMarketCap         = "market_cap"
	FieldPERatio           = "pe_ratio"
	FieldDebtToEquityRatio = "debt_to_equity_ratio"
	FieldEPS               = "eps"
	FieldDividendYield     = "dividend_yield"
	FieldReturnOnEquity    = "return_on_equity"
	FieldPriceToBookRatio  = "price_to_book_ratio"
	FieldCurrentRatio      = "current_ratio"
	FieldOperatingMargin   = "operating_margin"
	FieldNetProfitMargin   = "net_profit_margin"
	FieldFreeCashFlow      = "free_cash_flow"
	FieldHistory           = "historical_data"
	FieldUpdatedAt         = "updated_at"
)

// FundamentalFields lists the ten ratio fields in document order.
var FundamentalFields = []string{
	FieldPERatio,
	FieldDebtToEquityRatio,
	FieldEPS,
	FieldDividendYield,
	FieldReturnOnEquity,
	FieldPriceToBookRatio,
	FieldCurrentRatio,
	FieldOperatingMargin,
	FieldNetProfitMargin,
	FieldFreeCashFlow,
}

// Values returns the fundamentals keyed by field name.
func (f Fundamentals) Values() map[string]*float64 {
	return map[string]*float64{
		FieldPERatio:           f.PERatio,
		FieldDebtToEquityRatio: f.DebtToEquityRatio,
		FieldEPS:               f.EPS,
		FieldDividendYield:     f.DividendYield,
		FieldReturnOnEquity:    f.ReturnOnEquity,
		FieldPriceToBookRatio:  f.PriceToBookRatio,
		FieldCurrentRatio:      f.CurrentRatio,
		FieldOperatingMargin:   f.OperatingMargin,
		FieldNetProfitMargin:   f.NetProfitMargin,
		FieldFreeCashFlow:      f.FreeCashFlow,
	}
}

// IsEmpty reports whether no ratio is available.
func (f Fundamentals) IsEmpty() bool {
	for _, v := range f.Values() {
		if v != nil {
			return false
		}
	}
	return true
}

// NumericField returns the numeric value stored under field, if any.
// Non-numeric fields and unavailable ratios return false.
func (r *StockRecord) NumericField(field string) (float64, bool) {
	if field == FieldMarketCap {
		return r.MarketCap, true
	}
	if v, ok := r.Values()[field]; ok && v != nil {
		return *v, true
	}
	return 0, false
}

// Bar is one daily OHLCV row. Open/High/Low are nil when the upstream cell
// was missing; Close and Volume are always validated.
type Bar struct {
	Date   string   `bson:"date" json:"date"`
	Open   *float64 `bson:"open" json:"open"`
	High   *float64 `bson:"high" json:"high"`
	Low    *float64 `bson:"low" json:"low"`
	Close  float64  `bson:"close" json:"close"`
	Volume float64  `bson:"volume" json:"volume"`
}

// RawBar is an uncleaned upstream row. Values keep their textual form so
// that cleaning can decide what counts as numeric.
type RawBar struct {
	Date   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// CanonicalTicker strips any of the given exchange suffixes and upper-cases.
func CanonicalTicker(symbol string, suffixes []string) string {
	t := strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range suffixes {
		s = strings.ToUpper(s)
		if s != "" && strings.HasSuffix(t, s) {
			return strings.TrimSuffix(t, s)
		}
	}
	return t
}

// UpstreamSymbol appends suffix unless the symbol already carries one of
// the known suffixes.
func UpstreamSymbol(symbol, suffix string, known []string) string {
	t := strings.ToUpper(strings.TrimSpace(symbol))
	if suffix == "" {
		return t
	}
	for _, s := range known {
		if s != "" && strings.HasSuffix(t, strings.ToUpper(s)) {
			return t
		}
	}
	return t + strings.ToUpper(suffix)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
