package models

// Requests and responses of the stock HTTP endpoints.

type SearchRequest struct {
	Query string `query:"query" json:"query" validate:"required"`
}

// DefaultFetchLimit applies when the limit parameter is absent.
const DefaultFetchLimit = 10

// FetchRequest pages the collection. An explicit zero limit means no limit.
type FetchRequest struct {
	Skip  int64 `query:"skip" json:"skip"`
	Limit int64 `query:"limit" json:"limit"`
}

// SortRequest orders the collection. Order is "asc" when absent; any other
// value, including an empty one, sorts descending.
type SortRequest struct {
	SortBy string `query:"sort_by" json:"sort_by" validate:"required"`
	Order  string `query:"order" json:"order"`
}

type StocksResponse struct {
	Stocks []StockRecord `json:"stocks"`
}

type HistoryResponse struct {
	HistoricalData []Bar `json:"historical_data"`
}
