package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stocktalk/events"
)

// NewJSONEvent 생성: payload를 JSON으로 인코딩하여 Event 봉투를 구성합니다.
// eventType이 봉투에 함께 실리므로 구독 측은 페이로드를 열어보지 않고
// 디스패치할 수 있습니다. id가 빈 문자열이면 타임스탬프 기반의 ID를 생성합니다.
func NewJSONEvent(id string, eventType events.EventType, payload any, maxRetry int) (Event, error) {
	if maxRetry <= 0 || maxRetry > len(RetryDelays) {
		maxRetry = len(RetryDelays)
	}
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("payload marshal 실패: %w", err)
	}
	return Event{
		ID:       id,
		Type:     eventType,
		Payload:  b,
		Retry:    0,
		MaxRetry: maxRetry,
	}, nil
}

// DecodeJSON은 Event.Payload를 제네릭 타입으로 언마샬합니다.
func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("payload unmarshal 실패: %w", err)
	}
	return out, nil
}

// On은 타입이 있는 핸들러를 EventHandler로 감싸는 HandlerMap용 어댑터입니다.
// 페이로드 디코딩 실패는 에러로 올려 재시도 사다리를 태웁니다.
func On[T any](handler func(ctx context.Context, payload T, meta Event) error) EventHandler {
	return func(ctx context.Context, evt Event) error {
		v, err := DecodeJSON[T](evt)
		if err != nil {
			return err
		}
		return handler(ctx, v, evt)
	}
}
