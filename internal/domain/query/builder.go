package query

import (
	"fmt"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/pkg/util"
)

// Range is an optional numeric interval; either side may be absent.
type Range struct {
	Min *float64
	Max *float64
}

// FilterField binds a request parameter prefix to a stored field.
type FilterField struct {
	Param string
	Field string
}

// FilterFields is the static table the builder iterates. Request parameters
// are "<Param>_min" and "<Param>_max".
var FilterFields = []FilterField{
	{Param: "market_cap", Field: models.FieldMarketCap},
	{Param: "pe_ratio", Field: models.FieldPERatio},
	{Param: "debt_to_equity", Field: models.FieldDebtToEquityRatio},
	{Param: "eps", Field: models.FieldEPS},
	{Param: "dividend_yield", Field: models.FieldDividendYield},
	{Param: "return_on_equity", Field: models.FieldReturnOnEquity},
	{Param: "price_to_book", Field: models.FieldPriceToBookRatio},
	{Param: "current_ratio", Field: models.FieldCurrentRatio},
	{Param: "operating_margin", Field: models.FieldOperatingMargin},
	{Param: "net_profit_margin", Field: models.FieldNetProfitMargin},
	{Param: "free_cash_flow", Field: models.FieldFreeCashFlow},
}

// SortableFields are the fields accepted by sort requests.
var SortableFields = map[string]bool{
	models.FieldTicker:            true,
	models.FieldMarketCap:         true,
	models.FieldPERatio:           true,
	models.FieldDebtToEquityRatio: true,
	models.FieldEPS:               true,
	models.FieldDividendYield:     true,
	models.FieldReturnOnEquity:    true,
	models.FieldPriceToBookRatio:  true,
	models.FieldCurrentRatio:      true,
	models.FieldOperatingMargin:   true,
	models.FieldNetProfitMargin:   true,
	models.FieldFreeCashFlow:      true,
	models.FieldUpdatedAt:         true,
}

// Bounds maps a filter parameter prefix to its range.
type Bounds map[string]Range

// Build ANDs one gte/lte clause per supplied bound, in FilterFields order.
// Min > Max is passed through unchanged and simply matches nothing.
func Build(b Bounds) Predicate {
	var p Predicate
	for _, f := range FilterFields {
		r, ok := b[f.Param]
		if !ok {
			continue
		}
		if r.Min != nil {
			p.All = append(p.All, Clause{Field: f.Field, Op: OpGte, Value: *r.Min})
		}
		if r.Max != nil {
			p.All = append(p.All, Clause{Field: f.Field, Op: OpLte, Value: *r.Max})
		}
	}
	return p
}

// ParseBounds reads "<param>_min"/"<param>_max" values through get.
// Empty values are treated as absent.
func ParseBounds(get func(string) string) (Bounds, error) {
	b := Bounds{}
	for _, f := range FilterFields {
		var r Range
		for _, side := range []struct {
			suffix string
			dst    **float64
		}{{"_min", &r.Min}, {"_max", &r.Max}} {
			name := f.Param + side.suffix
			raw := get(name)
			if raw == "" {
				continue
			}
			v, ok := util.ParseFinite(raw)
			if !ok {
				return nil, fmt.Errorf("%s must be a finite number, got %q", name, raw)
			}
			*side.dst = &v
		}
		if r.Min != nil || r.Max != nil {
			b[f.Param] = r
		}
	}
	return b, nil
}

// Search matches ticker, or market_cap rendered as text, containing text.
func Search(text string) Predicate {
	return Predicate{Any: []Clause{
		{Field: models.FieldTicker, Op: OpContains, Value: text},
		{Field: models.FieldMarketCap, Op: OpContains, Value: text},
	}}
}

// Ticker matches exactly one ticker.
func Ticker(t string) Predicate {
	return Predicate{All: []Clause{{Field: models.FieldTicker, Op: OpEq, Value: t}}}
}
