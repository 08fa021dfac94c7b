package events

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stocktalk/models"
)

// EventType 이벤트 타입을 정의하는 열거형.
// 닫힌 집합으로 관리하며, 새 타입은 Serialize/Deserialize 에도 함께 추가한다.
type EventType string

const (
	// PostCreated 는 CRUD 레이어가 포스트 생성 시 발행하는 인바운드 이벤트다.
	// at-least-once 전달을 가정하므로 처리 측은 멱등해야 한다.
	PostCreated EventType = "post.created"

	// PostAnalyzed 는 Processor 가 품질 분석을 마친 뒤 발행하는 이벤트다.
	// Aggregate 가 구독하여 분석 결과를 포스트에 전체 덮어쓰기로 반영한다.
	PostAnalyzed EventType = "post.analyzed"
)

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "aggregate", "processor" 등
	Version   string    `json:"version"`
}

// GetType 이벤트 타입을 반환
func (e BaseEvent) GetType() EventType {
	return e.Type
}

// PostCreatedEvent 새 포스트가 생성되었을 때 발행되는 이벤트
type PostCreatedEvent struct {
	BaseEvent
	PostID    primitive.ObjectID `json:"post_id"`
	Content   string             `json:"content"`
	Tickers   []string           `json:"tickers"`
	Sentiment models.Sentiment   `json:"sentiment"`
}

// PostAnalyzedEvent AI 품질 분석이 완료되었을 때 발행되는 이벤트
type PostAnalyzedEvent struct {
	BaseEvent
	PostID   primitive.ObjectID     `json:"post_id"`
	Analysis models.QualityAnalysis `json:"analysis"`
}

// SerializeEvent 이벤트를 JSON으로 직렬화하고 타입 정보 반환
func SerializeEvent(event interface{}) ([]byte, EventType, error) {
	var eventType EventType

	switch e := event.(type) {
	case PostCreatedEvent:
		eventType = e.Type
	case PostAnalyzedEvent:
		eventType = e.Type
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", event)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}

	return data, eventType, nil
}

// DeserializeEvent 이벤트 타입에 따라 적절한 구조체로 역직렬화
func DeserializeEvent(eventType EventType, data []byte) (interface{}, error) {
	var event interface{}

	switch eventType {
	case PostCreated:
		event = &PostCreatedEvent{}
	case PostAnalyzed:
		event = &PostAnalyzedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return event, nil
}
