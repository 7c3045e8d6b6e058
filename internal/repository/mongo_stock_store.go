package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/query"
	"github.com/shams7728/stock-market-project/internal/domain/repository"
	"github.com/shams7728/stock-market-project/pkg/mongodb"
)

// MongoStockStore implements StockStore on a MongoDB collection.
type MongoStockStore struct {
	client       *mongodb.Client
	coll         *mongo.Collection
	queryTimeout time.Duration
	writeTimeout time.Duration
}

// NewMongoStockStore binds the collection and ensures the unique ticker index.
func NewMongoStockStore(ctx context.Context, client *mongodb.Client, collection string, queryTimeout, writeTimeout time.Duration) (*MongoStockStore, error) {
	s := &MongoStockStore{
		client:       client,
		coll:         client.Collection(collection),
		queryTimeout: queryTimeout,
		writeTimeout: writeTimeout,
	}

	ictx, cancel := s.withTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := s.coll.Indexes().CreateOne(ictx, mongo.IndexModel{
		Keys:    bson.D{{Key: models.FieldTicker, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ticker_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("create ticker index: %w", err)
	}
	return s, nil
}

var _ repository.StockStore = (*MongoStockStore)(nil)

func (s *MongoStockStore) Get(ctx context.Context, ticker string) (*models.StockRecord, error) {
	ctx, cancel := s.withTimeout(ctx, s.queryTimeout)
	defer cancel()

	var rec models.StockRecord
	err := s.coll.FindOne(ctx,
		bson.M{models.FieldTicker: ticker},
		options.FindOne().SetProjection(bson.M{"_id": 0}),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFound("store.get", fmt.Sprintf("stock %s not found", ticker))
	}
	if err != nil {
		return nil, models.StoreUnavailable("store.get", err)
	}
	return &rec, nil
}

func (s *MongoStockStore) Find(ctx context.Context, q query.Query) ([]models.StockRecord, error) {
	ctx, cancel := s.withTimeout(ctx, s.queryTimeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, buildFilter(q.Predicate), buildFindOptions(q))
	if err != nil {
		return nil, models.StoreUnavailable("store.find", err)
	}
	defer cur.Close(ctx)

	out := make([]models.StockRecord, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.StoreUnavailable("store.find", err)
	}
	return out, nil
}

func (s *MongoStockStore) Replace(ctx context.Context, rec *models.StockRecord) error {
	if rec == nil || rec.Ticker == "" {
		return models.InvalidArgument("store.replace", "ticker is required")
	}
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{models.FieldTicker: rec.Ticker},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return models.StoreUnavailable("store.replace", err)
	}
	return nil
}

func (s *MongoStockStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *MongoStockStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Close(ctx)
}

func (s *MongoStockStore) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// buildFilter translates a predicate into a MongoDB filter document.
func buildFilter(p query.Predicate) bson.M {
	var and []bson.M
	for _, c := range p.All {
		and = append(and, clauseFilter(c))
	}
	if len(p.Any) > 0 {
		or := make([]bson.M, 0, len(p.Any))
		for _, c := range p.Any {
			or = append(or, clauseFilter(c))
		}
		and = append(and, bson.M{"$or": or})
	}
	switch len(and) {
	case 0:
		return bson.M{}
	case 1:
		return and[0]
	default:
		return bson.M{"$and": and}
	}
}

func clauseFilter(c query.Clause) bson.M {
	switch c.Op {
	case query.OpGte:
		return bson.M{c.Field: bson.M{"$gte": c.Value}}
	case query.OpLte:
		return bson.M{c.Field: bson.M{"$lte": c.Value}}
	case query.OpContains:
		pattern := regexp.QuoteMeta(fmt.Sprint(c.Value))
		if c.Field == models.FieldTicker {
			return bson.M{c.Field: bson.Regex{Pattern: pattern, Options: "i"}}
		}
		// numeric fields are matched on their text rendering
		return bson.M{"$expr": bson.M{"$regexMatch": bson.M{
			"input":   bson.M{"$toString": "$" + c.Field},
			"regex":   pattern,
			"options": "i",
		}}}
	default:
		return bson.M{c.Field: c.Value}
	}
}

func buildFindOptions(q query.Query) *options.FindOptionsBuilder {
	fo := options.Find().SetProjection(bson.M{"_id": 0})
	if q.Sort != nil {
		fo.SetSort(bson.D{{Key: q.Sort.Field, Value: int(q.Sort.Direction)}})
	}
	if q.Skip > 0 {
		fo.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		fo.SetLimit(q.Limit)
	}
	return fo
}
