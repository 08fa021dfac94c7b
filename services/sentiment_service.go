package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"stocktalk/articletext"
	"stocktalk/config"
	"stocktalk/models"
	"stocktalk/providers"
	"stocktalk/tickers"
)

// ErrSentimentUnavailable 은 캐시도 없고 갱신도 실패한 상태다.
// 스테일 폴백과 달리 내보낼 값 자체가 없다.
var ErrSentimentUnavailable = errors.New("news sentiment unavailable")

// ErrInsufficientArticles 는 기사 수가 하한에 못 미쳐 모델 호출을 생략한 경우다.
var ErrInsufficientArticles = errors.New("not enough articles for sentiment analysis")

// NewsSentimentStore 는 종목별 감성 집계 캐시 저장소다.
type NewsSentimentStore interface {
	Get(ctx context.Context, ticker string) (*models.NewsSentiment, error)
	Upsert(ctx context.Context, s *models.NewsSentiment) (*mongo.UpdateResult, error)
	ListAllTickers(ctx context.Context) ([]string, error)
}

// NewsArticleStore 는 종목별 기사 저장소다.
type NewsArticleStore interface {
	UpsertByTickerAndURL(ctx context.Context, a *models.NewsArticle) (*mongo.UpdateResult, error)
	ListByTicker(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActiveTickerSource 는 포스트에서 한 번이라도 언급된 종목 심볼의 집합이다.
// 배치 갱신의 대상 모집단은 감성 캐시가 아니라 여기서 나온다.
type ActiveTickerSource interface {
	DistinctTickers(ctx context.Context) ([]string, error)
}

// NewsAnalyzer 는 헤드라인 묶음을 감성 집계로 바꾸는 생성 모델 호출이다.
type NewsAnalyzer interface {
	AnalyzeNews(ctx context.Context, symbol string, headlines []providers.Headline) (providers.NewsAnalysis, providers.CallMeta, error)
}

// QuotaGate 는 모델 호출 전의 한도 체크다. kind 는 호출 종류 라벨이다.
type QuotaGate interface {
	WaitAndReserve(ctx context.Context, kind string) (bool, error)
}

// AILogSink 는 모델 호출 기록 저장소다.
type AILogSink interface {
	Insert(ctx context.Context, log models.AILog) (*mongo.InsertOneResult, error)
}

// SentimentResult 는 감성 조회의 응답 단위다: 값 + 신선도 판정.
type SentimentResult struct {
	Sentiment *models.NewsSentiment `json:"sentiment"`
	Staleness Staleness             `json:"staleness"`
}

type SentimentService struct {
	sentiments    NewsSentimentStore
	articles      NewsArticleStore
	activeTickers ActiveTickerSource
	headlines     providers.HeadlineFetcher
	analyzer      NewsAnalyzer // nil 이면 분석 비활성
	quota         QuotaGate    // nil 이면 한도 없음
	aiLogs        AILogSink    // nil 이면 기록 생략
	cfg           config.AppConfig

	now   func() time.Time
	sleep func(time.Duration)
}

func NewSentimentService(
	sentiments NewsSentimentStore,
	articles NewsArticleStore,
	activeTickers ActiveTickerSource,
	headlines providers.HeadlineFetcher,
	analyzer NewsAnalyzer,
	quota QuotaGate,
	aiLogs AILogSink,
	cfg config.AppConfig,
) *SentimentService {
	return &SentimentService{
		sentiments:    sentiments,
		articles:      articles,
		activeTickers: activeTickers,
		headlines:     headlines,
		analyzer:      analyzer,
		quota:         quota,
		aiLogs:        aiLogs,
		cfg:           cfg,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// GetNewsSentiment 는 종목의 감성 집계를 반환한다.
//   - 캐시가 30분(설정값) 내 신선하면 그대로 반환 (forceRefresh 제외)
//   - 오래됐으면 갱신을 시도하고, 실패하면 이전 값을 스테일 표시와 함께 반환
//   - 캐시도 없고 갱신도 실패하면 ErrSentimentUnavailable
func (s *SentimentService) GetNewsSentiment(ctx context.Context, symbol string, forceRefresh bool) (SentimentResult, error) {
	candidates := tickers.Resolve(symbol)
	if len(candidates) == 0 {
		return SentimentResult{}, fmt.Errorf("invalid symbol: %q", symbol)
	}
	primary := candidates[0]

	cached, err := s.sentiments.Get(ctx, primary)
	if err != nil {
		return SentimentResult{}, err
	}

	maxAge := time.Duration(s.cfg.Freshness.NewsSentimentMinutes) * time.Minute
	if cached != nil && !forceRefresh && !olderThan(cached.LastUpdated, s.now(), maxAge) {
		return SentimentResult{Sentiment: cached, Staleness: Fresh()}, nil
	}

	refreshed, err := s.RefreshNewsSentiment(ctx, primary)
	if err == nil {
		return SentimentResult{Sentiment: refreshed, Staleness: Fresh()}, nil
	}

	if cached != nil {
		config.Logger.Warnf("serving stale news sentiment for %s: %v", primary, err)
		return SentimentResult{
			Sentiment: cached,
			Staleness: StaleBecause(fmt.Sprintf("refresh failed: %v", err)),
		}, nil
	}
	return SentimentResult{}, fmt.Errorf("%w: %s: %v", ErrSentimentUnavailable, primary, err)
}

// RefreshNewsSentiment 는 기사 수집과 모델 호출로 집계를 새로 만든다.
// 캐시 행은 성공했을 때만 전체 교체된다. 실패는 캐시를 건드리지 않는다.
func (s *SentimentService) RefreshNewsSentiment(ctx context.Context, symbol string) (*models.NewsSentiment, error) {
	headlines, err := s.collectHeadlines(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(headlines) < s.cfg.Limits.MinArticles {
		return nil, fmt.Errorf("%w: %s has %d articles (need %d)",
			ErrInsufficientArticles, symbol, len(headlines), s.cfg.Limits.MinArticles)
	}

	s.persistArticles(ctx, symbol, headlines)

	if s.analyzer == nil {
		return nil, ErrProviderDisabled
	}
	if s.quota != nil {
		ok, err := s.quota.WaitAndReserve(ctx, "news")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("llm daily quota exhausted, skipping %s", symbol)
		}
	}

	analysisResult, meta, err := s.analyzer.AnalyzeNews(ctx, symbol, headlines)
	s.recordAILog(ctx, "news", symbol, meta, err == nil, analysisResult.Summary)
	if err != nil {
		return nil, fmt.Errorf("news analysis for %s: %w", symbol, err)
	}

	sentiment := &models.NewsSentiment{
		Ticker:         symbol,
		BullishPercent: analysisResult.BullishPercent,
		BearishPercent: analysisResult.BearishPercent,
		NeutralPercent: analysisResult.NeutralPercent,
		Score:          analysisResult.Score,
		ArticleCount:   len(headlines),
		Summary:        analysisResult.Summary,
		KeyThemes:      analysisResult.KeyThemes,
		Strength:       analysisResult.Strength,
		Confidence:     analysisResult.Confidence,
		LastUpdated:    s.now(),
	}
	if _, err := s.sentiments.Upsert(ctx, sentiment); err != nil {
		return nil, err
	}
	return sentiment, nil
}

// collectHeadlines 는 요청 심볼의 헤드라인을 모으고, 기사 수가 하한 미만이면
// 복수 클래스 별칭으로 한 번 더 시도한다. 별칭 결과가 "엄밀히 더 많을 때만" 교체한다.
func (s *SentimentService) collectHeadlines(ctx context.Context, symbol string) ([]providers.Headline, error) {
	limit := s.cfg.Limits.MaxArticles

	headlines, err := s.headlines.Fetch(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch headlines for %s: %w", symbol, err)
	}

	if len(headlines) < s.cfg.Limits.MinArticles {
		if alias, ok := tickers.Alias(symbol); ok {
			aliasHeadlines, aliasErr := s.headlines.Fetch(ctx, alias, limit)
			if aliasErr != nil {
				config.Logger.Warnf("alias headline fetch failed for %s (%s): %v", symbol, alias, aliasErr)
			} else if len(aliasHeadlines) > len(headlines) {
				config.Logger.Infof("using alias %s headlines for %s (%d > %d)",
					alias, symbol, len(aliasHeadlines), len(headlines))
				headlines = aliasHeadlines
			}
		}
	}
	return headlines, nil
}

// persistArticles 는 헤드라인을 기사 컬렉션에 upsert 하고, summary 가 없는
// 기사는 본문 발췌로 보강한다. 저장 실패는 집계를 막지 않는다 (best effort).
func (s *SentimentService) persistArticles(ctx context.Context, symbol string, headlines []providers.Headline) {
	for i := range headlines {
		h := &headlines[i]
		if h.Summary == "" {
			if excerpt, err := articletext.FetchExcerpt(ctx, h.URL); err == nil {
				h.Summary = excerpt
			} else {
				config.Logger.Debugf("article excerpt failed for %s: %v", h.URL, err)
			}
		}

		article := &models.NewsArticle{
			Ticker:      symbol,
			Headline:    h.Title,
			Source:      h.Source,
			URL:         h.URL,
			Summary:     h.Summary,
			PublishedAt: h.PublishedAt,
		}
		if _, err := s.articles.UpsertByTickerAndURL(ctx, article); err != nil {
			config.Logger.Warnf("failed to upsert article %s: %v", h.URL, err)
		}
	}
}

// RefreshReport 는 배치 갱신 1회의 결과다.
type RefreshReport struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
	Duration  time.Duration     `json:"duration"`
}

// RefreshAllNewsSentiment 는 활성 종목 전체를 순차 갱신한다.
// 종목 간 1초(설정값) 간격을 두고, 한 종목의 실패가 다음 종목을 막지 않는다.
func (s *SentimentService) RefreshAllNewsSentiment(ctx context.Context) (RefreshReport, error) {
	start := s.now()
	report := RefreshReport{Failed: make(map[string]string)}

	symbols, err := s.activeSymbols(ctx)
	if err != nil {
		return report, err
	}

	delay := time.Duration(s.cfg.Limits.TickerDelayMs) * time.Millisecond
	for i, symbol := range symbols {
		if i > 0 {
			s.sleep(delay)
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, err := s.RefreshNewsSentiment(ctx, symbol); err != nil {
			config.Logger.Errorf("news sentiment refresh failed for %s: %v", symbol, err)
			report.Failed[symbol] = err.Error()
			continue
		}
		report.Succeeded = append(report.Succeeded, symbol)
	}

	report.Duration = s.now().Sub(start)
	config.Logger.Infof("news sentiment batch finished: %d ok, %d failed, took %s",
		len(report.Succeeded), len(report.Failed), report.Duration)
	return report, nil
}

// activeSymbols 는 배치 갱신 대상 종목 모집단을 만든다.
// 기준은 포스트에서 언급된 적 있는 종목이다: 캐시 행 유무로 대상을 정하면
// 한 번도 갱신되지 못한 종목은 영원히 배치에 들어오지 못한다. 포스트가
// 정리되어도 기존 캐시 행은 계속 갱신되도록 캐시 보유 종목과 합집합한다.
func (s *SentimentService) activeSymbols(ctx context.Context) ([]string, error) {
	mentioned, err := s.activeTickers.DistinctTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tickers: %w", err)
	}

	cached, err := s.sentiments.ListAllTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cached tickers: %w", err)
	}

	seen := make(map[string]bool, len(mentioned)+len(cached))
	symbols := make([]string, 0, len(mentioned)+len(cached))
	for _, symbol := range append(mentioned, cached...) {
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ListArticles 는 종목의 저장된 기사 목록을 최신순으로 반환한다.
func (s *SentimentService) ListArticles(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	candidates := tickers.Resolve(symbol)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("invalid symbol: %q", symbol)
	}
	if limit <= 0 || limit > s.cfg.Limits.MaxArticles {
		limit = s.cfg.Limits.MaxArticles
	}
	return s.articles.ListByTicker(ctx, candidates[0], limit)
}

// PurgeOldArticles 는 보존 기간(기본 7일)을 넘긴 기사를 삭제한다.
func (s *SentimentService) PurgeOldArticles(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-time.Duration(s.cfg.Freshness.ArticleRetentionDays) * 24 * time.Hour)
	deleted, err := s.articles.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	config.Logger.Infof("purged %d news articles older than %s", deleted, cutoff.Format(time.RFC3339))
	return deleted, nil
}

func (s *SentimentService) recordAILog(ctx context.Context, kind, subject string, meta providers.CallMeta, success bool, excerpt string) {
	if s.aiLogs == nil {
		return
	}
	now := s.now()
	log := models.AILog{
		Kind:            kind,
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
		config.Logger.Warnf("failed to insert ai log for %s/%s: %v", kind, subject, err)
	}
}

// ErrProviderDisabled 는 자격 증명 미설정으로 생성 모델이 비활성인 상태다.
var ErrProviderDisabled = errors.New("generative analysis disabled")
