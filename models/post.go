package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentiment 는 작성자가 포스트에 직접 지정한 시장 의견이다.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

// InsightType 은 AI 품질 분석이 분류하는 포스트 유형이다. (7종 고정)
const (
	InsightBreakingNews      = "breaking_news"
	InsightDueDiligence      = "due_diligence"
	InsightTechnicalAnalysis = "technical_analysis"
	InsightEarnings          = "earnings"
	InsightMacro             = "macro"
	InsightSpeculation       = "speculation"
	InsightQuestion          = "question"
)

// Post represents a feed post document.
// Collection: posts — created and owned by the CRUD layer; this pipeline only
// reads content/tickers/sentiment and overwrites the quality_analysis snapshot.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	AuthorID  primitive.ObjectID `bson:"author_id,omitempty" json:"author_id"`
	Content   string             `bson:"content" json:"content"`
	Tickers   []string           `bson:"tickers" json:"tickers"`
	Sentiment Sentiment          `bson:"sentiment" json:"sentiment"`
	Analysis  *QualityAnalysis   `bson:"quality_analysis,omitempty" json:"quality_analysis,omitempty"`
}

// QualityAnalysis nested info in Post (denormalized snapshot)
// Stored under posts.quality_analysis — full overwrite on re-analysis.
// 네 필드 모두 개별적으로 nil 일 수 있다. 분석은 best-effort 이며
// 검증에 실패한 필드만 비우고 나머지는 유지한다.
type QualityAnalysis struct {
	QualityScore *float64  `bson:"quality_score,omitempty" json:"quality_score,omitempty"`
	InsightType  *string   `bson:"insight_type,omitempty" json:"insight_type,omitempty"`
	Sector       *string   `bson:"sector,omitempty" json:"sector,omitempty"`
	Summary      *string   `bson:"summary,omitempty" json:"summary,omitempty"`
	ModelName    string    `bson:"model_name,omitempty" json:"model_name,omitempty"`
	GeneratedAt  time.Time `bson:"generated_at" json:"generated_at"`
}

// IsEmpty reports whether the analysis carries no derived fields at all.
func (q QualityAnalysis) IsEmpty() bool {
	return q.QualityScore == nil && q.InsightType == nil && q.Sector == nil && q.Summary == nil
}
