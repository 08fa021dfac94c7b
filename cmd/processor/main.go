package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"stocktalk/cmd/processor/handler"
	"stocktalk/config"
	"stocktalk/eventbus"
	"stocktalk/events"
	"stocktalk/providers"
	"stocktalk/quota"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// EventBus 초기화 및 토픽 보장
	brokers := eventbus.GetBrokers()
	if err := eventbus.EnsureTopics(brokers, 3, eventbus.AllTopics...); err != nil {
		config.Logger.Errorf("failed to ensure eventbus topics: %v", err)
	}

	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		config.Logger.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	gemini, err := providers.NewGeminiFromEnv(ctx, cfg.GeminiModel)
	if err != nil {
		config.Logger.Errorf("failed to create genai client: %v", err)
		os.Exit(1)
	}
	limiter := quota.NewLLMQuotaLimiterFromConfig(cfg)
	eventHandler := handler.NewEventHandlers(bus, gemini, limiter)

	// aggregate 와 같은 토픽을 읽으므로 컨슈머 그룹은 서비스별로 분리한다.
	groupID := eventbus.GroupIDFor("processor")

	handlers := eventbus.HandlerMap{
		events.PostCreated: eventbus.On(func(ctx context.Context, ev events.PostCreatedEvent, _ eventbus.Event) error {
			return eventHandler.HandlePostCreated(ctx, &ev)
		}),
	}

	subscribeRunner := func() error {
		return bus.Subscribe(ctx, groupID, eventbus.TopicPostEvents, handlers)
	}

	config.Logger.Info("starting processor service with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := subscribeRunner(); err != nil && err != context.Canceled {
			config.Logger.Errorf("eventbus subscribe error: %v", err)
		}
	}()

	<-sigChan
	config.Logger.Info("received shutdown signal, shutting down processor service...")

	cancel()
	wg.Wait()

	config.Logger.Info("processor service stopped")
}
