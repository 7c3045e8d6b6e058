// Package yahoo reads daily price series and fundamentals from the Yahoo
// Finance chart and quoteSummary endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	drepo "github.com/shams7728/stock-market-project/internal/domain/repository"
	pkghttp "github.com/shams7728/stock-market-project/pkg/http"
	"github.com/shams7728/stock-market-project/pkg/util"
)

const summaryModules = "summaryDetail,defaultKeyStatistics,financialData"

// Client implements SeriesSource and FundamentalsSource.
type Client struct {
	baseURL string
	http    *pkghttp.Client
}

// NewClient creates a Yahoo client. baseURL has no trailing slash,
// e.g. https://query2.finance.yahoo.com.
func NewClient(baseURL string, hc *pkghttp.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

var (
	_ drepo.SeriesSource       = (*Client)(nil)
	_ drepo.FundamentalsSource = (*Client)(nil)
)

func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// FetchSeries downloads daily bars in [from, to). Missing cells come back
// as empty strings so that cleaning decides what to drop.
func (c *Client) FetchSeries(ctx context.Context, symbol string, from, to time.Time) ([]models.RawBar, error) {
	const op = "yahoo.series"

	var resp chartResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(from.Unix(), 10)},
			"period2":  {strconv.FormatInt(to.Unix(), 10)},
			"interval": {"1d"},
			"events":   {"history"},
		},
	}, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	if e := resp.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, nil
		}
		return nil, models.UpstreamDataMissing(op, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	res := resp.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := res.Indicators.Quote[0]
	out := make([]models.RawBar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if !util.InRange(time.Unix(ts, 0), from, to) {
			continue
		}
		// the label is the exchange-local trading day
		day := time.Unix(ts+res.Meta.GMTOffset, 0).UTC()
		out = append(out, models.RawBar{
			Date:   util.FormatDate(day),
			Open:   cell(q.Open, i),
			High:   cell(q.High, i),
			Low:    cell(q.Low, i),
			Close:  cell(q.Close, i),
			Volume: cell(q.Volume, i),
		})
	}
	return out, nil
}

type rawNumber struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE    rawNumber `json:"trailingPE"`
				DividendYield rawNumber `json:"dividendYield"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps rawNumber `json:"trailingEps"`
				PriceToBook rawNumber `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				DebtToEquity     rawNumber `json:"debtToEquity"`
				ReturnOnEquity   rawNumber `json:"returnOnEquity"`
				CurrentRatio     rawNumber `json:"currentRatio"`
				OperatingMargins rawNumber `json:"operatingMargins"`
				ProfitMargins    rawNumber `json:"profitMargins"`
				FreeCashflow     rawNumber `json:"freeCashflow"`
			} `json:"financialData"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchFundamentals returns the current ratio snapshot for symbol.
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (models.Fundamentals, error) {
	const op = "yahoo.fundamentals"

	var resp summaryResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + "/v10/finance/quoteSummary/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{"modules": {summaryModules}},
	}, &resp)
	if err != nil {
		if isNotFound(err) {
			return models.Fundamentals{}, nil
		}
		return models.Fundamentals{}, classify(op, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return models.Fundamentals{}, nil
	}

	r := resp.QuoteSummary.Result[0]
	return models.Fundamentals{
		PERatio:           finite(r.SummaryDetail.TrailingPE.Raw),
		DebtToEquityRatio: finite(r.FinancialData.DebtToEquity.Raw),
		EPS:               finite(r.DefaultKeyStatistics.TrailingEps.Raw),
		DividendYield:     finite(r.SummaryDetail.DividendYield.Raw),
		ReturnOnEquity:    finite(r.FinancialData.ReturnOnEquity.Raw),
		PriceToBookRatio:  finite(r.DefaultKeyStatistics.PriceToBook.Raw),
		CurrentRatio:      finite(r.FinancialData.CurrentRatio.Raw),
		OperatingMargin:   finite(r.FinancialData.OperatingMargins.Raw),
		NetProfitMargin:   finite(r.FinancialData.ProfitMargins.Raw),
		FreeCashFlow:      finite(r.FinancialData.FreeCashflow.Raw),
	}, nil
}

func cell(col []*float64, i int) string {
	if i >= len(col) || col[i] == nil {
		return ""
	}
	return strconv.FormatFloat(*col[i], 'f', -1, 64)
}

func finite(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return models.Float(*v)
}

func isNotFound(err error) bool {
	var se *pkghttp.StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func classify(op string, err error) error {
	var (
		syn *json.SyntaxError
		typ *json.UnmarshalTypeError
	)
	if errors.As(err, &syn) || errors.As(err, &typ) {
		return models.UpstreamDataMissing(op, fmt.Sprintf("malformed response: %v", err))
	}
	return models.UpstreamUnavailable(op, err)
}
