package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stocktalk/models"
)

func post(created time.Time, sentiment models.Sentiment, tickers ...string) models.Post {
	return models.Post{CreatedAt: created, Sentiment: sentiment, Tickers: tickers}
}

func TestTopMentions_OrderAndTieBreak(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		post(now.Add(-1*time.Hour), models.SentimentBullish, "TSLA", "NVDA"),
		post(now.Add(-2*time.Hour), models.SentimentNeutral, "TSLA"),
		post(now.Add(-3*time.Hour), models.SentimentBearish, "AAPL"),
		post(now.Add(-4*time.Hour), models.SentimentBullish, "NVDA"),
		post(now.Add(-5*time.Hour), models.SentimentBullish, "AAPL"),
	}

	got := TopMentions(posts, now, 10)

	// TSLA=2, NVDA=2, AAPL=2 → 전부 동률이므로 사전순
	assert.Equal(t, []models.TickerMention{
		{Symbol: "AAPL", Mentions: 2},
		{Symbol: "NVDA", Mentions: 2},
		{Symbol: "TSLA", Mentions: 2},
	}, got)
}

func TestTopMentions_BoundaryIsExclusive(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		post(now.Add(-TrendingWindow), models.SentimentBullish, "OLD"),                  // 정확히 경계: 제외
		post(now.Add(-TrendingWindow).Add(time.Nanosecond), models.SentimentBullish, "EDGE"), // 경계 직후: 포함
	}

	got := TopMentions(posts, now, 10)

	assert.Equal(t, []models.TickerMention{{Symbol: "EDGE", Mentions: 1}}, got)
}

func TestTopMentions_LimitApplied(t *testing.T) {
	now := time.Now()
	var posts []models.Post
	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	for i, s := range symbols {
		for j := 0; j <= i; j++ {
			posts = append(posts, post(now.Add(-time.Minute), models.SentimentNeutral, s))
		}
	}

	got := TopMentions(posts, now, 10)

	assert.Len(t, got, 10)
	assert.Equal(t, "L", got[0].Symbol)
	assert.Equal(t, 12, got[0].Mentions)
}

func TestTopMentions_Empty(t *testing.T) {
	got := TopMentions(nil, time.Now(), 10)
	assert.Empty(t, got)
}

func TestBreakdown_SumsTo100(t *testing.T) {
	b, r, n := Breakdown(SentimentCounts{Bullish: 1, Bearish: 1, Neutral: 1})
	assert.Equal(t, 100, b+r+n)

	b, r, n = Breakdown(SentimentCounts{Bullish: 7, Bearish: 2, Neutral: 1})
	assert.Equal(t, 70, b)
	assert.Equal(t, 20, r)
	assert.Equal(t, 10, n)
}

func TestBreakdown_ZeroTotal(t *testing.T) {
	b, r, n := Breakdown(SentimentCounts{})
	assert.Equal(t, 0, b)
	assert.Equal(t, 0, r)
	assert.Equal(t, 0, n)
}

func TestCountBySentiment_FiltersByTickerAndWindow(t *testing.T) {
	now := time.Now()
	since := now.Add(-24 * time.Hour)
	posts := []models.Post{
		post(now.Add(-time.Hour), models.SentimentBullish, "TSLA"),
		post(now.Add(-time.Hour), models.SentimentBearish, "TSLA", "NVDA"),
		post(now.Add(-time.Hour), models.SentimentBullish, "NVDA"),
		post(since, models.SentimentBullish, "TSLA"), // 정확히 경계: 제외
	}

	c := CountBySentiment(posts, "TSLA", since)
	assert.Equal(t, SentimentCounts{Bullish: 1, Bearish: 1}, c)

	all := CountBySentiment(posts, "", since)
	assert.Equal(t, 3, all.Total())
}
