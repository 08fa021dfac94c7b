package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AILog records a single generative model call for monitoring.
// Collection: ai_logs
type AILog struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind            string             `bson:"kind" json:"kind"` // quality|news|community
	Subject         string             `bson:"subject" json:"subject"`
	ModelName       string             `bson:"model_name" json:"model_name"`
	ModelVersion    string             `bson:"model_version" json:"model_version"`
	InputTokens     int64              `bson:"input_tokens" json:"input_tokens"`
	OutputTokens    int64              `bson:"output_tokens" json:"output_tokens"`
	TotalTokens     int64              `bson:"total_tokens" json:"total_tokens"`
	DurationMs      int64              `bson:"duration_ms" json:"duration_ms"`
	Success         bool               `bson:"success" json:"success"`
	ResponseExcerpt string             `bson:"response_excerpt" json:"response_excerpt"`
	RequestedAt     time.Time          `bson:"requested_at" json:"requested_at"`
	CompletedAt     time.Time          `bson:"completed_at" json:"completed_at"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
