package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocktalk/aggregator"
	"stocktalk/config"
	"stocktalk/models"
	"stocktalk/providers"
	"stocktalk/tickers"
)

// ErrInsufficientPosts 는 샘플 수가 하한에 못 미쳐 요약 호출을 생략한 경우다.
var ErrInsufficientPosts = errors.New("not enough posts for community summary")

// ErrUnknownPeriod 는 지원하지 않는 기간 파라미터다.
var ErrUnknownPeriod = errors.New("unknown period")

// CommunitySummarizer 는 감성 분포와 샘플 포스트 묶음을 토론 요약으로 바꾸는 모델 호출이다.
type CommunitySummarizer interface {
	SummarizeCommunity(ctx context.Context, symbol string, samples []providers.CommunityPostSample, breakdown models.CommunityBreakdown) (providers.CommunitySummary, providers.CallMeta, error)
}

// CommunityView 는 종목 커뮤니티 조회의 응답 단위다.
// 분포는 항상 계산되고, AI 요약은 가능할 때만 붙는다.
type CommunityView struct {
	Breakdown models.CommunityBreakdown   `json:"breakdown"`
	Summary   *providers.CommunitySummary `json:"summary,omitempty"`
}

type CommunityService struct {
	posts      PostStore
	summarizer CommunitySummarizer // nil 이면 요약 비활성
	quota      QuotaGate
	aiLogs     AILogSink
	cfg        config.AppConfig

	now func() time.Time
}

func NewCommunityService(posts PostStore, summarizer CommunitySummarizer, quota QuotaGate, aiLogs AILogSink, cfg config.AppConfig) *CommunityService {
	return &CommunityService{
		posts:      posts,
		summarizer: summarizer,
		quota:      quota,
		aiLogs:     aiLogs,
		cfg:        cfg,
		now:        time.Now,
	}
}

// periodWindow 는 기간 파라미터를 윈도우 길이로 바꾼다. 닫힌 집합이다.
func periodWindow(period string) (time.Duration, error) {
	switch period {
	case "24h", "":
		return 24 * time.Hour, nil
	case "7d":
		return 7 * 24 * time.Hour, nil
	case "30d":
		return 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
}

// GetCommunity 는 종목의 커뮤니티 감성 분포를 계산하고, 표본이 충분하면
// AI 토론 요약을 덧붙인다. 요약 실패/비활성은 분포 응답을 막지 않는다.
func (s *CommunityService) GetCommunity(ctx context.Context, symbol, period string, withSummary bool) (CommunityView, error) {
	window, err := periodWindow(period)
	if err != nil {
		return CommunityView{}, err
	}
	if period == "" {
		period = "24h"
	}

	candidates := tickers.Resolve(symbol)
	if len(candidates) == 0 {
		return CommunityView{}, fmt.Errorf("invalid symbol: %q", symbol)
	}
	primary := candidates[0]

	since := s.now().Add(-window)
	posts, err := s.posts.ListByTickerCreatedAfter(ctx, primary, since)
	if err != nil {
		return CommunityView{}, err
	}

	counts := aggregator.CountBySentiment(posts, primary, since)
	bullish, bearish, neutral := aggregator.Breakdown(counts)

	view := CommunityView{
		Breakdown: models.CommunityBreakdown{
			Ticker:         primary,
			Period:         period,
			BullishPercent: bullish,
			BearishPercent: bearish,
			NeutralPercent: neutral,
			TotalPosts:     counts.Total(),
		},
	}

	if withSummary {
		summary, err := s.Summarize(ctx, primary, since, view.Breakdown)
		if err != nil {
			config.Logger.Warnf("community summary skipped for %s: %v", primary, err)
		} else {
			view.Summary = &summary
		}
	}
	return view, nil
}

// Summarize 는 품질 점수 상위 포스트를 표본으로 토론 요약을 생성한다.
// 표본에는 포스트별 감성 방향과 품질 점수가 실리고, 전체 분포도 프롬프트에
// 함께 들어간다. 표본이 하한(기본 3건) 미만이면 모델을 호출하지 않는다 (비용 게이트).
func (s *CommunityService) Summarize(ctx context.Context, symbol string, since time.Time, breakdown models.CommunityBreakdown) (providers.CommunitySummary, error) {
	if s.summarizer == nil {
		return providers.CommunitySummary{}, ErrProviderDisabled
	}

	posts, err := s.posts.ListTopQualityByTicker(ctx, symbol, since, s.cfg.Limits.MaxSamplePosts)
	if err != nil {
		return providers.CommunitySummary{}, err
	}
	if len(posts) < s.cfg.Limits.MinSamplePosts {
		return providers.CommunitySummary{}, fmt.Errorf("%w: %s has %d samples (need %d)",
			ErrInsufficientPosts, symbol, len(posts), s.cfg.Limits.MinSamplePosts)
	}

	if s.quota != nil {
		ok, err := s.quota.WaitAndReserve(ctx, "community")
		if err != nil {
			return providers.CommunitySummary{}, err
		}
		if !ok {
			return providers.CommunitySummary{}, fmt.Errorf("llm daily quota exhausted, skipping %s", symbol)
		}
	}

	samples := make([]providers.CommunityPostSample, 0, len(posts))
	for _, p := range posts {
		sample := providers.CommunityPostSample{
			Content:   p.Content,
			Sentiment: string(p.Sentiment),
		}
		if p.Analysis != nil && p.Analysis.QualityScore != nil {
			sample.QualityScore = p.Analysis.QualityScore
		}
		samples = append(samples, sample)
	}

	summary, meta, err := s.summarizer.SummarizeCommunity(ctx, symbol, samples, breakdown)
	s.recordAILog(ctx, symbol, meta, err == nil, summary.Summary)
	if err != nil {
		return providers.CommunitySummary{}, fmt.Errorf("community summary for %s: %w", symbol, err)
	}
	return summary, nil
}

func (s *CommunityService) recordAILog(ctx context.Context, subject string, meta providers.CallMeta, success bool, excerpt string) {
	if s.aiLogs == nil {
		return
	}
	now := s.now()
	log := models.AILog{
		Kind:            "community",
		Subject:         subject,
		ModelName:       meta.ModelName,
		InputTokens:     int64(meta.InputTokens),
		OutputTokens:    int64(meta.OutputTokens),
		TotalTokens:     int64(meta.InputTokens + meta.OutputTokens),
		DurationMs:      meta.Duration.Milliseconds(),
		Success:         success,
		ResponseExcerpt: excerpt,
		RequestedAt:     now.Add(-meta.Duration),
		CompletedAt:     now,
	}
	if _, err := s.aiLogs.Insert(ctx, log); err != nil {
		config.Logger.Warnf("failed to insert ai log for community/%s: %v", subject, err)
	}
}
