// Package aggregator contains the pure counting functions behind the cached
// aggregates. Nothing here touches the database or any provider.
package aggregator

import (
	"math"
	"sort"
	"time"

	"stocktalk/models"
)

// TrendingWindow 는 언급량 집계의 이동 윈도우다.
const TrendingWindow = 24 * time.Hour

// TopMentions 는 최근 24시간 내 포스트의 종목 언급 횟수를 집계한다.
// 윈도우 경계는 배타적이다: 정확히 now-24h 에 작성된 포스트는 제외된다.
// 언급 수 내림차순, 동률이면 심볼 사전순으로 정렬해 결정적인 결과를 만든다.
func TopMentions(posts []models.Post, now time.Time, limit int) []models.TickerMention {
	cutoff := now.Add(-TrendingWindow)

	counts := make(map[string]int)
	for _, p := range posts {
		if !p.CreatedAt.After(cutoff) {
			continue
		}
		for _, t := range p.Tickers {
			counts[t]++
		}
	}

	mentions := make([]models.TickerMention, 0, len(counts))
	for symbol, n := range counts {
		mentions = append(mentions, models.TickerMention{Symbol: symbol, Mentions: n})
	}

	sort.Slice(mentions, func(i, j int) bool {
		if mentions[i].Mentions != mentions[j].Mentions {
			return mentions[i].Mentions > mentions[j].Mentions
		}
		return mentions[i].Symbol < mentions[j].Symbol
	})

	if limit > 0 && len(mentions) > limit {
		mentions = mentions[:limit]
	}
	return mentions
}

// SentimentCounts 는 기간 내 감성별 포스트 수다.
type SentimentCounts struct {
	Bullish int
	Bearish int
	Neutral int
}

// Total returns the number of counted posts.
func (c SentimentCounts) Total() int {
	return c.Bullish + c.Bearish + c.Neutral
}

// Breakdown 은 감성별 카운트를 정수 퍼센트로 변환한다.
// 합계가 0이면 모두 0을 반환한다 (0으로 나누지 않고, 이전 값 재사용도 없다).
// 합계가 있으면 세 퍼센트의 합이 정확히 100이 되도록 중립이 오차를 흡수한다.
func Breakdown(c SentimentCounts) (bullish, bearish, neutral int) {
	total := c.Total()
	if total == 0 {
		return 0, 0, 0
	}
	bullish = int(math.Round(float64(c.Bullish) / float64(total) * 100))
	bearish = int(math.Round(float64(c.Bearish) / float64(total) * 100))
	neutral = 100 - bullish - bearish
	if neutral < 0 {
		bearish += neutral
		neutral = 0
	}
	return bullish, bearish, neutral
}

// CountBySentiment 는 경계 배타적 윈도우 안의 포스트를 감성별로 센다.
// 특정 종목으로 거르려면 ticker 를 지정하고, 전체는 "" 를 넘긴다.
func CountBySentiment(posts []models.Post, ticker string, since time.Time) SentimentCounts {
	var c SentimentCounts
	for _, p := range posts {
		if !p.CreatedAt.After(since) {
			continue
		}
		if ticker != "" && !mentions(p, ticker) {
			continue
		}
		switch p.Sentiment {
		case models.SentimentBullish:
			c.Bullish++
		case models.SentimentBearish:
			c.Bearish++
		case models.SentimentNeutral:
			c.Neutral++
		}
	}
	return c
}

func mentions(p models.Post, ticker string) bool {
	for _, t := range p.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}
