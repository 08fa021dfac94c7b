package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewsArticle represents a fetched headline for a ticker.
// Collection: news_articles — unique on (ticker, url) so repeated fetches
// upsert instead of duplicating. Purged after the retention window.
type NewsArticle struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Ticker      string             `bson:"ticker" json:"ticker"`
	Headline    string             `bson:"headline" json:"headline"`
	Source      string             `bson:"source" json:"source"`
	URL         string             `bson:"url" json:"url"`
	PublishedAt time.Time          `bson:"published_at" json:"published_at"`
	Sentiment   string             `bson:"sentiment,omitempty" json:"sentiment,omitempty"`
	Summary     string             `bson:"summary,omitempty" json:"summary,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewsSentiment 는 종목별 뉴스 감성 집계 캐시다.
// Collection: news_sentiments — ticker 당 한 건, 전체 교체 upsert.
// 신선도 판단은 저장소가 아니라 읽는 쪽이 last_updated 로 한다.
type NewsSentiment struct {
	Ticker         string    `bson:"_id" json:"ticker"`
	BullishPercent int       `bson:"bullish_percent" json:"bullish_percent"`
	BearishPercent int       `bson:"bearish_percent" json:"bearish_percent"`
	NeutralPercent int       `bson:"neutral_percent" json:"neutral_percent"`
	Score          float64   `bson:"score" json:"score"` // (bullish-bearish)/100, [-1,1]
	ArticleCount   int       `bson:"article_count" json:"article_count"`
	Summary        string    `bson:"summary" json:"summary"`
	KeyThemes      []string  `bson:"key_themes" json:"key_themes"`
	Strength       string    `bson:"strength" json:"strength"`     // strong|moderate|weak|mixed
	Confidence     string    `bson:"confidence" json:"confidence"` // high|medium|low
	LastUpdated    time.Time `bson:"last_updated" json:"last_updated"`
}

// TickerMention is one entry of the trending list.
type TickerMention struct {
	Symbol   string `bson:"symbol" json:"symbol"`
	Mentions int    `bson:"mentions" json:"mentions"`
}

// TrendingDocID is the fixed key of the trending singleton document.
const TrendingDocID = "trending"

// Trending 은 최근 24시간 언급량 상위 종목의 싱글턴 캐시다.
// Collection: trending — 문서 한 건(_id 고정), 전체 교체 upsert.
type Trending struct {
	ID        string          `bson:"_id" json:"-"`
	Tickers   []TickerMention `bson:"tickers" json:"tickers"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}

// CommunityBreakdown 은 (ticker, period) 별 커뮤니티 감성 분포다.
// 계산이 싸고 기간 의존적이라 저장하지 않는다.
type CommunityBreakdown struct {
	Ticker         string `json:"ticker"`
	Period         string `json:"period"` // 24h|7d|30d
	BullishPercent int    `json:"bullish_percent"`
	BearishPercent int    `json:"bearish_percent"`
	NeutralPercent int    `json:"neutral_percent"`
	TotalPosts     int    `json:"total_posts"`
}
