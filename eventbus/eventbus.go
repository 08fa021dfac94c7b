package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stocktalk/events"
)

// RetryDelays는 재시도 횟수(1-based)별로 사용할 고정된 지연 시간 목록입니다.
// 분석 잡의 재시도 예산은 3회이며, 초과 시 DLQ로 보냅니다.
var RetryDelays = []time.Duration{
	10 * time.Second, // 1차 재시도 (시도 1)
	30 * time.Second, // 2차 재시도 (시도 2)
	1 * time.Minute,  // 3차 재시도 (시도 3)
}

// Topic은 토픽의 기본 이름, 재시도 토픽, DLQ 토픽 이름을 관리합니다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ는 DLQ 토픽 이름을 반환합니다 (예: my_topic.dlq).
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics는 모든 재시도 토픽의 이름을 반환합니다.
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i, delay := range RetryDelays {
		// 토픽 이름 형식: base.retry.10s
		topics[i] = fmt.Sprintf("%s.retry.%s", t.base, delay.String())
	}
	return topics
}

// GetRetryTopic은 다음 재시도 횟수(1-based)에 해당하는 재시도 토픽 이름을 반환합니다.
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	// retryCount는 1부터 시작하며, 인덱스 (retryCount-1)를 사용합니다.
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	delay := RetryDelays[retryCount-1]
	return fmt.Sprintf("%s.retry.%s", t.base, delay.String()), nil
}

// Event는 Kafka 메시지로 실려 다니는 봉투입니다.
// Type은 닫힌 이벤트 타입 집합(events.EventType)의 값으로, 구독 측의
// 핸들러 디스패치에 사용됩니다. Payload에는 타입에 해당하는 이벤트 본문이
// JSON으로 들어갑니다.
type Event struct {
	ID        string           `json:"id"`
	Type      events.EventType `json:"type"`
	Payload   json.RawMessage  `json:"payload"`
	Retry     int              `json:"retry"` // 현재 재시도 횟수 (0부터 시작)
	MaxRetry  int              `json:"max_retry"`
	LastError string           `json:"last_error,omitempty"`
}

// EventHandler는 이벤트 처리 함수의 시그니처입니다.
type EventHandler func(ctx context.Context, event Event) error

// HandlerMap은 이벤트 타입별 핸들러 매핑입니다. 매핑에 없는 타입의 메시지는
// 이 서비스의 처리 대상이 아닌 것으로 보고 커밋 후 건너뜁니다.
type HandlerMap map[events.EventType]EventHandler

// EventBus 인터페이스는 이벤트 발행 및 구독의 추상화를 정의합니다.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe는 기본 토픽을 구독하여 타입별 핸들러를 실행합니다.
	Subscribe(ctx context.Context, groupID string, topic Topic, handlers HandlerMap) error
	// StartRetryReinjector는 모든 재시도 토픽을 구독하고 기본 토픽으로 이벤트를 재발행합니다.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

// ErrMaxRetryExceeded는 최대 재시도 횟수를 초과했을 때 반환되는 오류입니다.
var ErrMaxRetryExceeded = errors.New("최대 재시도 횟수 초과")
