package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/pkg/util"
)

// Normalizer turns upstream rows and a fundamentals snapshot into a
// StockRecord.
type Normalizer struct {
	suffixes []string
	now      func() time.Time
}

// NewNormalizer creates a Normalizer stripping the given exchange suffixes.
func NewNormalizer(suffixes []string) *Normalizer {
	return &Normalizer{suffixes: suffixes, now: time.Now}
}

// Clean keeps rows with a date and a finite close and volume. Open/High/Low
// that are not numeric become nil. Negative rows are kept so that Validate
// sees the real last bar; Normalize removes them. The result is sorted by
// date; dropped counts the rejected rows.
func (n *Normalizer) Clean(raw []models.RawBar) (bars []models.Bar, dropped int) {
	bars = make([]models.Bar, 0, len(raw))
	for _, r := range raw {
		if r.Date == "" {
			dropped++
			continue
		}
		cl, ok := util.ParseFinite(r.Close)
		if !ok {
			dropped++
			continue
		}
		vol, ok := util.ParseFinite(r.Volume)
		if !ok {
			dropped++
			continue
		}
		bars = append(bars, models.Bar{
			Date:   r.Date,
			Open:   optional(r.Open),
			High:   optional(r.High),
			Low:    optional(r.Low),
			Close:  cl,
			Volume: vol,
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, dropped
}

// Validate rejects an empty series or one whose last bar has no positive
// close and volume.
func (n *Normalizer) Validate(bars []models.Bar) error {
	const op = "normalize.validate"
	if len(bars) == 0 {
		return models.UpstreamDataMissing(op, "no valid bars")
	}
	last := bars[len(bars)-1]
	if last.Close <= 0 || last.Volume <= 0 {
		return models.UpstreamDataMissing(op,
			fmt.Sprintf("last bar %s has close %g and volume %g", last.Date, last.Close, last.Volume))
	}
	return nil
}

// Normalize builds the record for symbol from cleaned bars. Rows with a
// negative close or volume are left out of the history.
func (n *Normalizer) Normalize(symbol string, bars []models.Bar, f models.Fundamentals) (*models.StockRecord, error) {
	if err := n.Validate(bars); err != nil {
		return nil, err
	}
	ticker := models.CanonicalTicker(symbol, n.suffixes)
	if ticker == "" {
		return nil, models.InvalidArgument("normalize", "empty ticker")
	}
	last := bars[len(bars)-1]

	history := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Close >= 0 && b.Volume >= 0 {
			history = append(history, b)
		}
	}

	return &models.StockRecord{
		Ticker:    ticker,
		MarketCap: last.Close * last.Volume,
		Fundamentals: models.Fundamentals{
			PERatio:           copyFloat(f.PERatio),
			DebtToEquityRatio: copyFloat(f.DebtToEquityRatio),
			EPS:               copyFloat(f.EPS),
			DividendYield:     copyFloat(f.DividendYield),
			ReturnOnEquity:    copyFloat(f.ReturnOnEquity),
			PriceToBookRatio:  copyFloat(f.PriceToBookRatio),
			CurrentRatio:      copyFloat(f.CurrentRatio),
			OperatingMargin:   copyFloat(f.OperatingMargin),
			NetProfitMargin:   copyFloat(f.NetProfitMargin),
			FreeCashFlow:      copyFloat(f.FreeCashFlow),
		},
		History:   history,
		UpdatedAt: n.now().UTC(),
	}, nil
}

func optional(s string) *float64 {
	v, ok := util.ParseFinite(s)
	if !ok {
		return nil
	}
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return models.Float(*p)
}
