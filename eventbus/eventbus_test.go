package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktalk/events"
)

func TestTopicNames(t *testing.T) {
	topic := NewTopic("stocktalk.post.events")

	assert.Equal(t, "stocktalk.post.events", topic.Base())
	assert.Equal(t, "stocktalk.post.events.dlq", topic.DLQ())
	assert.Equal(t, []string{
		"stocktalk.post.events.retry.10s",
		"stocktalk.post.events.retry.30s",
		"stocktalk.post.events.retry.1m0s",
	}, topic.GetRetryTopics())
}

func TestGetRetryTopic(t *testing.T) {
	topic := NewTopic("t")

	name, err := topic.GetRetryTopic(1)
	require.NoError(t, err)
	assert.Equal(t, "t.retry.10s", name)

	name, err = topic.GetRetryTopic(3)
	require.NoError(t, err)
	assert.Equal(t, "t.retry.1m0s", name)

	_, err = topic.GetRetryTopic(4)
	assert.ErrorIs(t, err, ErrMaxRetryExceeded)

	_, err = topic.GetRetryTopic(0)
	assert.ErrorIs(t, err, ErrMaxRetryExceeded)
}

func TestParseRetryFromTopicName(t *testing.T) {
	d, ok := ParseRetryFromTopicName("stocktalk.post.events.retry.30s")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	d, ok = ParseRetryFromTopicName("stocktalk.post.events.retry.1m0s")
	require.True(t, ok)
	assert.Equal(t, time.Minute, d)

	_, ok = ParseRetryFromTopicName("stocktalk.post.events")
	assert.False(t, ok)

	_, ok = ParseRetryFromTopicName("stocktalk.post.events.dlq")
	assert.False(t, ok)
}

func TestNewJSONEvent(t *testing.T) {
	evt, err := NewJSONEvent("id-1", events.PostCreated, map[string]string{"k": "v"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "id-1", evt.ID)
	assert.Equal(t, events.PostCreated, evt.Type)
	assert.Equal(t, 3, evt.MaxRetry)
	assert.Zero(t, evt.Retry)

	decoded, err := DecodeJSON[map[string]string](evt)
	require.NoError(t, err)
	assert.Equal(t, "v", decoded["k"])
}

func TestNewJSONEvent_MaxRetryClamped(t *testing.T) {
	evt, err := NewJSONEvent("", events.PostAnalyzed, "payload", 99)
	require.NoError(t, err)
	assert.Equal(t, len(RetryDelays), evt.MaxRetry)
	assert.NotEmpty(t, evt.ID)
}

func TestOn_DecodesTypedPayload(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	evt, err := NewJSONEvent("id-2", events.PostCreated, payload{Name: "nvda"}, 3)
	require.NoError(t, err)

	var got payload
	handler := On(func(ctx context.Context, p payload, meta Event) error {
		got = p
		assert.Equal(t, "id-2", meta.ID)
		return nil
	})

	require.NoError(t, handler(context.Background(), evt))
	assert.Equal(t, "nvda", got.Name, "페이로드가 타입으로 디코딩되어야 함")
}

func TestOn_InvalidPayloadReturnsError(t *testing.T) {
	evt := Event{ID: "bad", Type: events.PostCreated, Payload: []byte("not json")}

	handler := On(func(ctx context.Context, p map[string]string, meta Event) error {
		t.Fatal("디코딩 실패 시 핸들러가 호출되면 안 됨")
		return nil
	})

	assert.Error(t, handler(context.Background(), evt))
}

func TestGroupIDFor(t *testing.T) {
	t.Setenv("KAFKA_GROUP_ID", "stocktalk")

	assert.Equal(t, "stocktalk-processor", GroupIDFor("processor"))
	assert.Equal(t, "stocktalk-aggregate", GroupIDFor("aggregate"))
	assert.NotEqual(t, GroupIDFor("processor"), GroupIDFor("aggregate"),
		"같은 토픽을 읽는 서비스는 서로 다른 컨슈머 그룹을 가져야 함")
}
