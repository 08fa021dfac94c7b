package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"stocktalk/aggregator"
	"stocktalk/config"
	"stocktalk/models"
)

// PostStore 는 포스트 읽기 전용 조회다. 포스트 쓰기는 CRUD 레이어 소유라 없다.
type PostStore interface {
	ListCreatedAfter(ctx context.Context, after time.Time) ([]models.Post, error)
	ListByTickerCreatedAfter(ctx context.Context, ticker string, after time.Time) ([]models.Post, error)
	ListTopQualityByTicker(ctx context.Context, ticker string, after time.Time, limit int) ([]models.Post, error)
}

// TrendingStore 는 트렌딩 싱글턴 캐시 저장소다.
type TrendingStore interface {
	Get(ctx context.Context) (*models.Trending, error)
	Upsert(ctx context.Context, tickers []models.TickerMention) (*mongo.UpdateResult, error)
}

// TrendingResult 는 트렌딩 조회의 응답 단위다.
type TrendingResult struct {
	Tickers   []models.TickerMention `json:"tickers"`
	UpdatedAt time.Time              `json:"updated_at"`
	Staleness Staleness              `json:"staleness"`
}

type TrendingService struct {
	posts    PostStore
	trending TrendingStore
	cfg      config.AppConfig

	now func() time.Time
}

func NewTrendingService(posts PostStore, trending TrendingStore, cfg config.AppConfig) *TrendingService {
	return &TrendingService{posts: posts, trending: trending, cfg: cfg, now: time.Now}
}

// GetTrending 은 캐시된 트렌딩 목록을 반환한다. 읽기 경로는 절대 재계산하지
// 않는다: 갱신 주기를 넘긴 캐시는 스테일 표시와 함께 그대로 내보낸다.
// 캐시가 아예 없으면 빈 목록 + 스테일("not yet computed") 이다.
func (s *TrendingService) GetTrending(ctx context.Context) (TrendingResult, error) {
	cached, err := s.trending.Get(ctx)
	if err != nil {
		return TrendingResult{}, err
	}
	if cached == nil {
		return TrendingResult{
			Tickers:   []models.TickerMention{},
			Staleness: StaleBecause("not yet computed"),
		}, nil
	}

	maxAge := time.Duration(s.cfg.Freshness.TrendingMinutes) * time.Minute
	staleness := Fresh()
	if olderThan(cached.UpdatedAt, s.now(), maxAge) {
		staleness = StaleBecause("scheduled refresh overdue")
	}
	return TrendingResult{
		Tickers:   cached.Tickers,
		UpdatedAt: cached.UpdatedAt,
		Staleness: staleness,
	}, nil
}

// RefreshTrending 은 최근 24시간 포스트에서 언급량을 집계해 캐시를 교체한다.
func (s *TrendingService) RefreshTrending(ctx context.Context) error {
	now := s.now()

	posts, err := s.posts.ListCreatedAfter(ctx, now.Add(-aggregator.TrendingWindow))
	if err != nil {
		return err
	}

	mentions := aggregator.TopMentions(posts, now, s.cfg.Limits.TrendingSize)
	if _, err := s.trending.Upsert(ctx, mentions); err != nil {
		return err
	}

	config.Logger.Infof("trending refreshed: %d tickers from %d posts", len(mentions), len(posts))
	return nil
}
