package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stocktalk/models"
)

type NewsArticleRepository struct {
	col *mongo.Collection
}

func NewNewsArticleRepository(db *mongo.Database) *NewsArticleRepository {
	return &NewsArticleRepository{col: db.Collection("news_articles")}
}

// UpsertByTickerAndURL 은 (ticker, url) 을 키로 기사를 upsert 한다.
// 같은 기사를 다시 가져와도 중복 행이 생기지 않는다.
func (r *NewsArticleRepository) UpsertByTickerAndURL(ctx context.Context, a *models.NewsArticle) (*mongo.UpdateResult, error) {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	filter := bson.M{"ticker": a.Ticker, "url": a.URL}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": a.CreatedAt,
		},
		"$set": bson.M{
			"updated_at":   a.UpdatedAt,
			"headline":     a.Headline,
			"source":       a.Source,
			"published_at": a.PublishedAt,
			"sentiment":    a.Sentiment,
			"summary":      a.Summary,
		},
	}
	opts := options.Update().SetUpsert(true)
	return r.col.UpdateOne(ctx, filter, update, opts)
}

// ListByTicker 는 종목의 기사를 최신 발행순으로 limit 개까지 반환한다.
func (r *NewsArticleRepository) ListByTicker(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{"ticker": ticker}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var articles []models.NewsArticle
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// DeleteOlderThan 은 발행 시각이 cutoff 이전인 기사를 일괄 삭제한다.
func (r *NewsArticleRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.col.DeleteMany(ctx, bson.M{"published_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
