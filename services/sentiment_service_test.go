package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"stocktalk/config"
	"stocktalk/models"
	"stocktalk/providers"
)

type fakeSentimentStore struct {
	rows    map[string]*models.NewsSentiment
	upserts []models.NewsSentiment
	tickers []string
}

func (f *fakeSentimentStore) Get(_ context.Context, ticker string) (*models.NewsSentiment, error) {
	return f.rows[ticker], nil
}

func (f *fakeSentimentStore) Upsert(_ context.Context, s *models.NewsSentiment) (*mongo.UpdateResult, error) {
	f.upserts = append(f.upserts, *s)
	if f.rows == nil {
		f.rows = make(map[string]*models.NewsSentiment)
	}
	f.rows[s.Ticker] = s
	return nil, nil
}

func (f *fakeSentimentStore) ListAllTickers(context.Context) ([]string, error) {
	return f.tickers, nil
}

type fakeArticleStore struct {
	upserts []models.NewsArticle
	stored  map[string][]models.NewsArticle
	deleted int64
}

func (f *fakeArticleStore) UpsertByTickerAndURL(_ context.Context, a *models.NewsArticle) (*mongo.UpdateResult, error) {
	f.upserts = append(f.upserts, *a)
	return nil, nil
}

func (f *fakeArticleStore) ListByTicker(_ context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	articles := f.stored[ticker]
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func (f *fakeArticleStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return f.deleted, nil
}

type fakeActiveTickers struct {
	tickers []string
	err     error
}

func (f *fakeActiveTickers) DistinctTickers(context.Context) ([]string, error) {
	return f.tickers, f.err
}

type fakeHeadlineFetcher struct {
	bySymbol map[string][]providers.Headline
	errFor   map[string]error
	calls    []string
}

func (f *fakeHeadlineFetcher) Fetch(_ context.Context, symbol string, _ int) ([]providers.Headline, error) {
	f.calls = append(f.calls, symbol)
	if err := f.errFor[symbol]; err != nil {
		return nil, err
	}
	return f.bySymbol[symbol], nil
}

type fakeNewsAnalyzer struct {
	result       providers.NewsAnalysis
	err          error
	calls        int
	lastHeadline int
}

func (f *fakeNewsAnalyzer) AnalyzeNews(_ context.Context, _ string, headlines []providers.Headline) (providers.NewsAnalysis, providers.CallMeta, error) {
	f.calls++
	f.lastHeadline = len(headlines)
	return f.result, providers.CallMeta{ModelName: "fake"}, f.err
}

func testConfig() config.AppConfig {
	var cfg config.AppConfig
	cfg.Freshness.NewsSentimentMinutes = 30
	cfg.Freshness.ArticleRetentionDays = 7
	cfg.Limits.MaxArticles = 10
	cfg.Limits.MinArticles = 3
	cfg.Limits.TickerDelayMs = 1
	return cfg
}

func fakeHeadlines(symbol string, n int) []providers.Headline {
	out := make([]providers.Headline, n)
	for i := range out {
		out[i] = providers.Headline{
			Title:       symbol + " headline",
			URL:         "https://example.com/" + symbol + string(rune('a'+i)),
			Summary:     "already has a summary",
			PublishedAt: time.Now(),
		}
	}
	return out
}

func newTestService(store *fakeSentimentStore, articles *fakeArticleStore, headlines *fakeHeadlineFetcher, analyzer NewsAnalyzer) *SentimentService {
	svc := NewSentimentService(store, articles, &fakeActiveTickers{}, headlines, analyzer, nil, nil, testConfig())
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestGetNewsSentiment_FreshCacheSkipsRefresh(t *testing.T) {
	now := time.Now()
	store := &fakeSentimentStore{rows: map[string]*models.NewsSentiment{
		"TSLA": {Ticker: "TSLA", BullishPercent: 60, LastUpdated: now.Add(-5 * time.Minute)},
	}}
	headlines := &fakeHeadlineFetcher{}
	svc := newTestService(store, &fakeArticleStore{}, headlines, &fakeNewsAnalyzer{})
	svc.now = func() time.Time { return now }

	result, err := svc.GetNewsSentiment(context.Background(), "TSLA", false)

	require.NoError(t, err)
	assert.False(t, result.Staleness.IsStale)
	assert.Equal(t, 60, result.Sentiment.BullishPercent)
	assert.Empty(t, headlines.calls, "신선한 캐시는 공급자를 건드리면 안 된다")
}

func TestGetNewsSentiment_StaleFallbackOnRefreshFailure(t *testing.T) {
	now := time.Now()
	prior := &models.NewsSentiment{Ticker: "TSLA", BullishPercent: 55, LastUpdated: now.Add(-2 * time.Hour)}
	store := &fakeSentimentStore{rows: map[string]*models.NewsSentiment{"TSLA": prior}}
	headlines := &fakeHeadlineFetcher{errFor: map[string]error{"TSLA": errors.New("provider down")}}
	svc := newTestService(store, &fakeArticleStore{}, headlines, &fakeNewsAnalyzer{})
	svc.now = func() time.Time { return now }

	result, err := svc.GetNewsSentiment(context.Background(), "TSLA", false)

	require.NoError(t, err, "이전 값이 있으면 갱신 실패는 에러가 아니다")
	assert.True(t, result.Staleness.IsStale)
	assert.NotEmpty(t, result.Staleness.Reason)
	assert.Equal(t, 55, result.Sentiment.BullishPercent)
}

func TestGetNewsSentiment_NoCacheNoRefreshIsUnavailable(t *testing.T) {
	store := &fakeSentimentStore{}
	headlines := &fakeHeadlineFetcher{errFor: map[string]error{"TSLA": errors.New("provider down")}}
	svc := newTestService(store, &fakeArticleStore{}, headlines, &fakeNewsAnalyzer{})

	_, err := svc.GetNewsSentiment(context.Background(), "TSLA", false)

	assert.ErrorIs(t, err, ErrSentimentUnavailable)
}

func TestGetNewsSentiment_ForceRefreshBypassesFreshCache(t *testing.T) {
	now := time.Now()
	store := &fakeSentimentStore{rows: map[string]*models.NewsSentiment{
		"TSLA": {Ticker: "TSLA", BullishPercent: 10, LastUpdated: now.Add(-time.Minute)},
	}}
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{"TSLA": fakeHeadlines("TSLA", 5)}}
	analyzer := &fakeNewsAnalyzer{result: providers.NewsAnalysis{BullishPercent: 70, BearishPercent: 20, NeutralPercent: 10, Score: 0.5}}
	svc := newTestService(store, &fakeArticleStore{}, headlines, analyzer)
	svc.now = func() time.Time { return now }

	result, err := svc.GetNewsSentiment(context.Background(), "TSLA", true)

	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, 70, result.Sentiment.BullishPercent)
	assert.False(t, result.Staleness.IsStale)
}

func TestRefreshNewsSentiment_FullReplaceUpsert(t *testing.T) {
	store := &fakeSentimentStore{}
	articles := &fakeArticleStore{}
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{"NVDA": fakeHeadlines("NVDA", 4)}}
	analyzer := &fakeNewsAnalyzer{result: providers.NewsAnalysis{
		BullishPercent: 50, BearishPercent: 30, NeutralPercent: 20,
		Score: 0.2, Summary: "mixed coverage", KeyThemes: []string{"earnings"},
		Strength: "moderate", Confidence: "medium",
	}}
	svc := newTestService(store, articles, headlines, analyzer)

	got, err := svc.RefreshNewsSentiment(context.Background(), "NVDA")

	require.NoError(t, err)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "NVDA", got.Ticker)
	assert.Equal(t, 4, got.ArticleCount)
	assert.Equal(t, 100, got.BullishPercent+got.BearishPercent+got.NeutralPercent)
	assert.Len(t, articles.upserts, 4)
}

func TestRefreshNewsSentiment_InsufficientArticlesSkipsModel(t *testing.T) {
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{"TSLA": fakeHeadlines("TSLA", 2)}}
	analyzer := &fakeNewsAnalyzer{}
	svc := newTestService(&fakeSentimentStore{}, &fakeArticleStore{}, headlines, analyzer)

	_, err := svc.RefreshNewsSentiment(context.Background(), "TSLA")

	assert.ErrorIs(t, err, ErrInsufficientArticles)
	assert.Zero(t, analyzer.calls)
}

func TestRefreshNewsSentiment_AliasEscalation(t *testing.T) {
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{
		"GOOG":  fakeHeadlines("GOOG", 1),
		"GOOGL": fakeHeadlines("GOOGL", 5),
	}}
	analyzer := &fakeNewsAnalyzer{result: providers.NewsAnalysis{BullishPercent: 34, BearishPercent: 33, NeutralPercent: 33}}
	store := &fakeSentimentStore{}
	svc := newTestService(store, &fakeArticleStore{}, headlines, analyzer)

	got, err := svc.RefreshNewsSentiment(context.Background(), "GOOG")

	require.NoError(t, err)
	assert.Equal(t, []string{"GOOG", "GOOGL"}, headlines.calls)
	assert.Equal(t, 5, analyzer.lastHeadline, "별칭 쪽 기사가 엄밀히 더 많으면 그쪽을 쓴다")
	assert.Equal(t, "GOOG", got.Ticker, "캐시 키는 요청 심볼을 유지한다")
}

func TestRefreshNewsSentiment_AliasNotUsedWhenNotStrictlyMore(t *testing.T) {
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{
		"GOOG":  fakeHeadlines("GOOG", 2),
		"GOOGL": fakeHeadlines("GOOGL", 2),
	}}
	analyzer := &fakeNewsAnalyzer{}
	svc := newTestService(&fakeSentimentStore{}, &fakeArticleStore{}, headlines, analyzer)

	_, err := svc.RefreshNewsSentiment(context.Background(), "GOOG")

	// 동수면 교체하지 않고, 결국 하한 미달로 모델 호출 없이 끝난다.
	assert.ErrorIs(t, err, ErrInsufficientArticles)
	assert.Zero(t, analyzer.calls)
}

func TestRefreshNewsSentiment_DisabledAnalyzer(t *testing.T) {
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{"TSLA": fakeHeadlines("TSLA", 5)}}
	svc := newTestService(&fakeSentimentStore{}, &fakeArticleStore{}, headlines, nil)

	_, err := svc.RefreshNewsSentiment(context.Background(), "TSLA")

	assert.ErrorIs(t, err, ErrProviderDisabled)
}

func TestRefreshAllNewsSentiment_OneFailureDoesNotStopBatch(t *testing.T) {
	store := &fakeSentimentStore{}
	headlines := &fakeHeadlineFetcher{
		bySymbol: map[string][]providers.Headline{
			"AAPL": fakeHeadlines("AAPL", 4),
			"NVDA": fakeHeadlines("NVDA", 4),
		},
		errFor: map[string]error{"BAD": errors.New("provider exploded")},
	}
	analyzer := &fakeNewsAnalyzer{result: providers.NewsAnalysis{BullishPercent: 34, BearishPercent: 33, NeutralPercent: 33}}
	svc := newTestService(store, &fakeArticleStore{}, headlines, analyzer)
	svc.activeTickers = &fakeActiveTickers{tickers: []string{"AAPL", "BAD", "NVDA"}}

	var slept int
	svc.sleep = func(time.Duration) { slept++ }

	report, err := svc.RefreshAllNewsSentiment(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, report.Succeeded)
	assert.Contains(t, report.Failed, "BAD")
	assert.Len(t, report.Failed, 1)
	assert.Equal(t, 2, slept, "종목 사이에만 간격을 둔다")
}

func TestRefreshAllNewsSentiment_TargetsPostMentionedTickers(t *testing.T) {
	// 배치 대상은 캐시 행이 아니라 포스트에서 언급된 종목이다.
	// 캐시가 완전히 비어 있어도 언급된 종목은 첫 배치에서 갱신되어야 한다.
	store := &fakeSentimentStore{}
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{
		"AAPL": fakeHeadlines("AAPL", 4),
		"NVDA": fakeHeadlines("NVDA", 4),
	}}
	analyzer := &fakeNewsAnalyzer{result: providers.NewsAnalysis{BullishPercent: 34, BearishPercent: 33, NeutralPercent: 33}}
	svc := newTestService(store, &fakeArticleStore{}, headlines, analyzer)
	svc.activeTickers = &fakeActiveTickers{tickers: []string{"NVDA", "AAPL"}}

	report, err := svc.RefreshAllNewsSentiment(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, report.Succeeded)
	assert.Len(t, store.rows, 2, "캐시가 비어 있어도 언급 종목이 채워져야 함")
}

func TestRefreshAllNewsSentiment_KeepsCachedTickersWithoutPosts(t *testing.T) {
	// 포스트가 정리된 종목이라도 기존 캐시 행은 계속 갱신 대상이다 (합집합).
	store := &fakeSentimentStore{
		rows:    map[string]*models.NewsSentiment{"OLD": {Ticker: "OLD"}},
		tickers: []string{"OLD"},
	}
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{
		"AAPL": fakeHeadlines("AAPL", 4),
		"OLD":  fakeHeadlines("OLD", 4),
	}}
	analyzer := &fakeNewsAnalyzer{result: providers.NewsAnalysis{BullishPercent: 34, BearishPercent: 33, NeutralPercent: 33}}
	svc := newTestService(store, &fakeArticleStore{}, headlines, analyzer)
	svc.activeTickers = &fakeActiveTickers{tickers: []string{"AAPL"}}

	report, err := svc.RefreshAllNewsSentiment(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "OLD"}, report.Succeeded)
}

func TestRefreshNewsSentiment_RepeatedRunConverges(t *testing.T) {
	// 같은 입력으로 두 번 갱신해도 결과 행은 하나이고 내용이 같아야 한다.
	store := &fakeSentimentStore{}
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{"AMD": fakeHeadlines("AMD", 3)}}
	analyzer := &fakeNewsAnalyzer{result: providers.NewsAnalysis{BullishPercent: 40, BearishPercent: 40, NeutralPercent: 20}}
	svc := newTestService(store, &fakeArticleStore{}, headlines, analyzer)

	first, err := svc.RefreshNewsSentiment(context.Background(), "AMD")
	require.NoError(t, err)
	second, err := svc.RefreshNewsSentiment(context.Background(), "AMD")
	require.NoError(t, err)

	assert.Equal(t, first.BullishPercent, second.BullishPercent)
	assert.Len(t, store.rows, 1)
}

func TestRefreshNewsSentiment_UnusableModelResponseDoesNotTouchCache(t *testing.T) {
	// 모델이 JSON 없는 텍스트를 돌려주면 분석 호출이 에러를 반환하고,
	// 기존 캐시 행은 절대 덮어쓰이지 않아야 한다. 읽기 경로는 그 행을
	// 스테일 표시와 함께 계속 서빙한다.
	now := time.Now()
	prior := &models.NewsSentiment{Ticker: "TSLA", BullishPercent: 62, LastUpdated: now.Add(-2 * time.Hour)}
	store := &fakeSentimentStore{rows: map[string]*models.NewsSentiment{"TSLA": prior}}
	headlines := &fakeHeadlineFetcher{bySymbol: map[string][]providers.Headline{"TSLA": fakeHeadlines("TSLA", 5)}}
	analyzer := &fakeNewsAnalyzer{err: providers.ErrUnparsableResponse}
	svc := newTestService(store, &fakeArticleStore{}, headlines, analyzer)
	svc.now = func() time.Time { return now }

	result, err := svc.GetNewsSentiment(context.Background(), "TSLA", false)

	require.NoError(t, err)
	assert.True(t, result.Staleness.IsStale)
	assert.Equal(t, 62, result.Sentiment.BullishPercent, "지어낸 집계로 교체되면 안 됨")
	assert.Empty(t, store.upserts, "실패한 분석은 캐시에 쓰이면 안 됨")
}

func TestListArticles(t *testing.T) {
	articles := &fakeArticleStore{stored: map[string][]models.NewsArticle{
		"NVDA": {
			{Ticker: "NVDA", Headline: "first"},
			{Ticker: "NVDA", Headline: "second"},
		},
	}}
	svc := newTestService(&fakeSentimentStore{}, articles, &fakeHeadlineFetcher{}, nil)

	got, err := svc.ListArticles(context.Background(), "nvda", 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Headline)

	_, err = svc.ListArticles(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestPurgeOldArticles(t *testing.T) {
	articles := &fakeArticleStore{deleted: 42}
	svc := newTestService(&fakeSentimentStore{}, articles, &fakeHeadlineFetcher{}, nil)

	deleted, err := svc.PurgeOldArticles(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}
