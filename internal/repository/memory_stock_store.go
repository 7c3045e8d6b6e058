package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/query"
	"github.com/shams7728/stock-market-project/internal/domain/repository"
)

// MemoryStockStore is an in-process StockStore with the same matching rules
// as the MongoDB adapter. Records are kept in insertion order.
type MemoryStockStore struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]*models.StockRecord
}

// NewMemoryStockStore creates an empty store.
func NewMemoryStockStore() *MemoryStockStore {
	return &MemoryStockStore{docs: make(map[string]*models.StockRecord)}
}

var _ repository.StockStore = (*MemoryStockStore)(nil)

func (s *MemoryStockStore) Get(ctx context.Context, ticker string) (*models.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.StoreUnavailable("store.get", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[ticker]
	if !ok {
		return nil, models.NotFound("store.get", fmt.Sprintf("stock %s not found", ticker))
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStockStore) Find(ctx context.Context, q query.Query) ([]models.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.StoreUnavailable("store.find", err)
	}
	s.mu.RLock()
	matched := make([]*models.StockRecord, 0, len(s.order))
	for _, t := range s.order {
		rec := s.docs[t]
		if matches(rec, q.Predicate) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	if q.Sort != nil {
		field, dir := q.Sort.Field, q.Sort.Direction
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareField(matched[i], matched[j], field)
			if dir == query.Asc {
				return c < 0
			}
			return c > 0
		})
	}

	if q.Skip > 0 {
		if q.Skip >= int64(len(matched)) {
			matched = matched[:0]
		} else {
			matched = matched[q.Skip:]
		}
	}
	if q.Limit > 0 && q.Limit < int64(len(matched)) {
		matched = matched[:q.Limit]
	}

	out := make([]models.StockRecord, 0, len(matched))
	for _, rec := range matched {
		out = append(out, *cloneRecord(rec))
	}
	return out, nil
}

func (s *MemoryStockStore) Replace(ctx context.Context, rec *models.StockRecord) error {
	if rec == nil || rec.Ticker == "" {
		return models.InvalidArgument("store.replace", "ticker is required")
	}
	if err := ctx.Err(); err != nil {
		return models.StoreUnavailable("store.replace", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[rec.Ticker]; !ok {
		s.order = append(s.order, rec.Ticker)
	}
	s.docs[rec.Ticker] = cloneRecord(rec)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStockStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStockStore) Health(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStockStore) Close() error { return nil }

func matches(rec *models.StockRecord, p query.Predicate) bool {
	for _, c := range p.All {
		if !matchClause(rec, c) {
			return false
		}
	}
	if len(p.Any) == 0 {
		return true
	}
	for _, c := range p.Any {
		if matchClause(rec, c) {
			return true
		}
	}
	return false
}

func matchClause(rec *models.StockRecord, c query.Clause) bool {
	if c.Op == query.OpContains {
		text, ok := fieldText(rec, c.Field)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(fmt.Sprint(c.Value)))
	}

	if c.Field == models.FieldTicker {
		s, ok := c.Value.(string)
		if !ok {
			return false
		}
		switch c.Op {
		case query.OpEq:
			return rec.Ticker == s
		case query.OpGte:
			return rec.Ticker >= s
		case query.OpLte:
			return rec.Ticker <= s
		}
		return false
	}

	v, ok := rec.NumericField(c.Field)
	if !ok {
		return false
	}
	want, ok := toFloat(c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case query.OpEq:
		return v == want
	case query.OpGte:
		return v >= want
	case query.OpLte:
		return v <= want
	}
	return false
}

func fieldText(rec *models.StockRecord, field string) (string, bool) {
	if field == models.FieldTicker {
		return rec.Ticker, true
	}
	v, ok := rec.NumericField(field)
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}

// compareField orders missing values before present ones.
func compareField(a, b *models.StockRecord, field string) int {
	switch field {
	case models.FieldTicker:
		return strings.Compare(a.Ticker, b.Ticker)
	case models.FieldUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	av, aok := a.NumericField(field)
	bv, bok := b.NumericField(field)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func cloneRecord(r *models.StockRecord) *models.StockRecord {
	c := *r
	c.Fundamentals = models.Fundamentals{
		PERatio:           cloneFloat(r.PERatio),
		DebtToEquityRatio: cloneFloat(r.DebtToEquityRatio),
		EPS:               cloneFloat(r.EPS),
		DividendYield:     cloneFloat(r.DividendYield),
		ReturnOnEquity:    cloneFloat(r.ReturnOnEquity),
		PriceToBookRatio:  cloneFloat(r.PriceToBookRatio),
		CurrentRatio:      cloneFloat(r.CurrentRatio),
		OperatingMargin:   cloneFloat(r.OperatingMargin),
		NetProfitMargin:   cloneFloat(r.NetProfitMargin),
		FreeCashFlow:      cloneFloat(r.FreeCashFlow),
	}
	if r.History != nil {
		c.History = make([]models.Bar, len(r.History))
		for i, b := range r.History {
			b.Open, b.High, b.Low = cloneFloat(b.Open), cloneFloat(b.High), cloneFloat(b.Low)
			c.History[i] = b
		}
	}
	return &c
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
