package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stocktalk/models"
)

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection("posts")}
}

// GetByID finds a post by its object id.
func (r *PostRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetQualityAnalysis 는 포스트의 품질 분석 스냅샷을 통째로 교체한다.
// 필드 병합이 아니라 전체 덮어쓰기다: 재분석 결과가 이전 결과의 잔재와 섞이지 않는다.
func (r *PostRepository) SetQualityAnalysis(ctx context.Context, id primitive.ObjectID, qa models.QualityAnalysis) (*mongo.UpdateResult, error) {
	update := bson.M{
		"$set": bson.M{
			"quality_analysis": qa,
			"updated_at":       time.Now(),
		},
	}
	return r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
}

// ListCreatedAfter 는 주어진 시각 이후(배타적)에 작성된 포스트를 반환한다.
// 트렌딩/커뮤니티 집계의 입력이다.
func (r *PostRepository) ListCreatedAfter(ctx context.Context, after time.Time) ([]models.Post, error) {
	filter := bson.M{"created_at": bson.M{"$gt": after}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByTickerCreatedAfter 는 특정 종목을 언급한 윈도우 내 포스트를 반환한다.
func (r *PostRepository) ListByTickerCreatedAfter(ctx context.Context, ticker string, after time.Time) ([]models.Post, error) {
	filter := bson.M{
		"tickers":    ticker,
		"created_at": bson.M{"$gt": after},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListTopQualityByTicker 는 품질 점수 상위의 분석 완료 포스트를 반환한다.
// 커뮤니티 요약의 샘플 선정에 쓴다.
func (r *PostRepository) ListTopQualityByTicker(ctx context.Context, ticker string, after time.Time, limit int) ([]models.Post, error) {
	filter := bson.M{
		"tickers":                        ticker,
		"created_at":                     bson.M{"$gt": after},
		"quality_analysis.quality_score": bson.M{"$exists": true},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "quality_analysis.quality_score", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DistinctTickers 는 포스트에서 한 번이라도 언급된 종목 심볼의 목록이다.
// 뉴스 감성 배치 갱신의 대상 모집단 조회용.
func (r *PostRepository) DistinctTickers(ctx context.Context) ([]string, error) {
	values, err := r.col.Distinct(ctx, "tickers", bson.M{})
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// ListMissingAnalysis 는 생성된 지 grace 이상 지났는데 분석이 없는 포스트를 찾는다.
// 이벤트 유실 복구(재발행) 대상 조회용.
func (r *PostRepository) ListMissingAnalysis(ctx context.Context, olderThan time.Time, limit int) ([]models.Post, error) {
	filter := bson.M{
		"quality_analysis": bson.M{"$exists": false},
		"created_at":       bson.M{"$lt": olderThan},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
