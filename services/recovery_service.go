package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stocktalk/config"
	"stocktalk/eventbus"
	"stocktalk/events"
	"stocktalk/models"
)

// MissingAnalysisFinder 는 분석 누락 포스트 조회다.
type MissingAnalysisFinder interface {
	ListMissingAnalysis(ctx context.Context, olderThan time.Time, limit int) ([]models.Post, error)
}

// RecoveryService 는 이벤트 유실을 복구한다. 생성된 지 유예 시간이 지나도록
// 분석이 붙지 않은 포스트를 찾아 post.created 를 재발행한다.
// 처리 측이 멱등(전체 덮어쓰기)이므로 중복 재발행은 무해하다.
type RecoveryService struct {
	posts MissingAnalysisFinder
	bus   eventbus.EventBus

	// grace 는 "이벤트가 아직 처리 중일 수 있는" 유예 시간이다.
	grace     time.Duration
	batchSize int

	now func() time.Time
}

func NewRecoveryService(posts MissingAnalysisFinder, bus eventbus.EventBus) *RecoveryService {
	return &RecoveryService{
		posts:     posts,
		bus:       bus,
		grace:     10 * time.Minute,
		batchSize: 100,
		now:       time.Now,
	}
}

// Run 은 복구 1회를 수행하고 재발행한 건수를 반환한다.
func (s *RecoveryService) Run(ctx context.Context) (int, error) {
	olderThan := s.now().Add(-s.grace)

	posts, err := s.posts.ListMissingAnalysis(ctx, olderThan, s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		return 0, nil
	}

	republished := 0
	for _, p := range posts {
		event := events.PostCreatedEvent{
			BaseEvent: events.BaseEvent{
				ID:        uuid.NewString(),
				Type:      events.PostCreated,
				Timestamp: s.now(),
				Source:    "aggregate.recovery",
				Version:   "1.0",
			},
			PostID:    p.ID,
			Content:   p.Content,
			Tickers:   p.Tickers,
			Sentiment: p.Sentiment,
		}

		evt, err := eventbus.NewJSONEvent(event.ID, events.PostCreated, event, len(eventbus.RetryDelays))
		if err != nil {
			config.Logger.Errorf("failed to build recovery event for post %s: %v", p.ID.Hex(), err)
			continue
		}
		if err := s.bus.Publish(ctx, eventbus.TopicPostEvents.Base(), evt); err != nil {
			config.Logger.Errorf("failed to republish post %s: %v", p.ID.Hex(), err)
			continue
		}
		republished++
	}

	config.Logger.Infof("recovery republished %d/%d posts missing analysis", republished, len(posts))
	return republished, nil
}
