package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/pkg/cache"
	pkgkafka "github.com/shams7728/stock-market-project/pkg/kafka"
	"github.com/shams7728/stock-market-project/pkg/logger"
)

// CacheInvalidator drops cached query responses when an ingestion event
// arrives.
type CacheInvalidator struct {
	topic  string
	prefix string
	cache  cache.Service
	log    *logger.Logger
}

// NewCacheInvalidator creates the handler for topic.
func NewCacheInvalidator(topic, prefix string, c cache.Service, log *logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{topic: topic, prefix: prefix, cache: c, log: log}
}

var _ pkgkafka.MessageHandler = (*CacheInvalidator)(nil)

func (h *CacheInvalidator) Topic() string { return h.topic }

// Handle expects an IngestedEvent payload.
func (h *CacheInvalidator) Handle(ctx context.Context, b []byte) error {
	var ev models.IngestedEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return fmt.Errorf("decode ingested event: %w", err)
	}
	if err := h.cache.DeleteByPattern(ctx, cache.BuildPattern(h.prefix)); err != nil {
		return fmt.Errorf("invalidate responses: %w", err)
	}
	h.log.Debug("response cache invalidated",
		logger.String("ticker", ev.Ticker),
		logger.String("run_id", ev.RunID),
	)
	return nil
}
