package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stocktalk/models"
)

type TrendingRepository struct {
	col *mongo.Collection
}

func NewTrendingRepository(db *mongo.Database) *TrendingRepository {
	return &TrendingRepository{col: db.Collection("trending")}
}

// Get 은 트렌딩 싱글턴 문서를 반환한다. 없으면 (nil, nil).
func (r *TrendingRepository) Get(ctx context.Context) (*models.Trending, error) {
	var t models.Trending
	err := r.col.FindOne(ctx, bson.M{"_id": models.TrendingDocID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert 는 트렌딩 목록을 통째로 교체한다.
func (r *TrendingRepository) Upsert(ctx context.Context, tickers []models.TickerMention) (*mongo.UpdateResult, error) {
	doc := models.Trending{
		ID:        models.TrendingDocID,
		Tickers:   tickers,
		UpdatedAt: time.Now(),
	}
	opts := options.Replace().SetUpsert(true)
	return r.col.ReplaceOne(ctx, bson.M{"_id": models.TrendingDocID}, doc, opts)
}
