package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stocktalk/models"
)

type NewsSentimentRepository struct {
	col *mongo.Collection
}

func NewNewsSentimentRepository(db *mongo.Database) *NewsSentimentRepository {
	return &NewsSentimentRepository{col: db.Collection("news_sentiments")}
}

// Get 은 종목의 감성 집계 캐시를 반환한다.
// 행이 없으면 (nil, nil): "캐시 없음"은 에러가 아니라 명시적 상태다.
func (r *NewsSentimentRepository) Get(ctx context.Context, ticker string) (*models.NewsSentiment, error) {
	var s models.NewsSentiment
	err := r.col.FindOne(ctx, bson.M{"_id": ticker}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert 는 종목의 집계를 통째로 교체한다. 부분 병합은 하지 않는다.
func (r *NewsSentimentRepository) Upsert(ctx context.Context, s *models.NewsSentiment) (*mongo.UpdateResult, error) {
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now()
	}

	opts := options.Replace().SetUpsert(true)
	return r.col.ReplaceOne(ctx, bson.M{"_id": s.Ticker}, s, opts)
}

// ListAllTickers 는 캐시가 존재하는 전체 종목 목록이다. 배치 갱신의 대상 집합.
func (r *NewsSentimentRepository) ListAllTickers(ctx context.Context) ([]string, error) {
	values, err := r.col.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			tickers = append(tickers, s)
		}
	}
	return tickers, nil
}
