package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/query"
)

func TestBuildFilterEmpty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(query.Predicate{}))
}

func TestBuildFilterBounds(t *testing.T) {
	p := query.Build(query.Bounds{"market_cap": {Min: models.Float(1), Max: models.Float(2)}})

	assert.Equal(t, bson.M{"$and": []bson.M{
		{"market_cap": bson.M{"$gte": 1.0}},
		{"market_cap": bson.M{"$lte": 2.0}},
	}}, buildFilter(p))
}

func TestBuildFilterSearchEscapesPattern(t *testing.T) {
	f := buildFilter(query.Search("a.b"))

	or := f["$or"].([]bson.M)
	assert.Len(t, or, 2)
	assert.Equal(t, bson.M{"ticker": bson.Regex{Pattern: `a\.b`, Options: "i"}}, or[0])
	assert.Equal(t, bson.M{"$expr": bson.M{"$regexMatch": bson.M{
		"input":   bson.M{"$toString": "$market_cap"},
		"regex":   `a\.b`,
		"options": "i",
	}}}, or[1])
}

func TestBuildFilterTicker(t *testing.T) {
	assert.Equal(t, bson.M{"ticker": "TCS"}, buildFilter(query.Ticker("TCS")))
}
