// Package handler contains the processor's event handlers.
// Processor 는 상태가 없다: Mongo 에 쓰지 않고, 분석 결과를 이벤트로만 내보낸다.
package handler

import (
	"context"

	"github.com/google/uuid"

	"stocktalk/config"
	"stocktalk/eventbus"
	"stocktalk/events"
	"stocktalk/providers"
	"stocktalk/quota"
)

type EventHandlers struct {
	bus     eventbus.EventBus
	gemini  *providers.Gemini // nil 이면 분석 비활성
	limiter *quota.LLMQuotaLimiter
}

func NewEventHandlers(bus eventbus.EventBus, gemini *providers.Gemini, limiter *quota.LLMQuotaLimiter) *EventHandlers {
	return &EventHandlers{bus: bus, gemini: gemini, limiter: limiter}
}

// HandlePostCreated 는 포스트 품질 분석 잡의 본체다.
// 에러 반환은 재시도 사다리(10s/30s/1m)를 타고, 소진 시 DLQ 로 간다.
// nil 반환은 커밋이다: 분석 비활성/일일 한도 소진은 재시도해도 소용없으므로
// 에러가 아니라 스킵으로 처리한다.
func (h *EventHandlers) HandlePostCreated(ctx context.Context, ev *events.PostCreatedEvent) error {
	if h.gemini == nil {
		config.Logger.Debugf("analysis disabled, skipping post %s", ev.PostID.Hex())
		return nil
	}

	ok, err := h.limiter.WaitAndReserve(ctx, quota.KindQuality)
	if err != nil {
		return err
	}
	if !ok {
		config.Logger.Warnf("llm daily quota exhausted, skipping post %s", ev.PostID.Hex())
		return nil
	}

	qa, meta, err := h.gemini.AnalyzeQuality(ctx, ev.Content, ev.Tickers)
	if err != nil {
		config.Logger.Errorf("quality analysis failed for post %s: %v", ev.PostID.Hex(), err)
		return err
	}

	config.Logger.Infof("post %s analyzed (tokens in=%d out=%d, took %s)",
		ev.PostID.Hex(), meta.InputTokens, meta.OutputTokens, meta.Duration)

	analyzed := events.PostAnalyzedEvent{
		BaseEvent: events.BaseEvent{
			ID:        uuid.NewString(),
			Type:      events.PostAnalyzed,
			Timestamp: qa.GeneratedAt,
			Source:    "processor",
			Version:   "1.0",
		},
		PostID:   ev.PostID,
		Analysis: qa,
	}

	evt, err := eventbus.NewJSONEvent(analyzed.ID, events.PostAnalyzed, analyzed, len(eventbus.RetryDelays))
	if err != nil {
		return err
	}
	return h.bus.Publish(ctx, eventbus.TopicPostEvents.Base(), evt)
}
