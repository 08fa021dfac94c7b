// Retryworker 는 재시도 지연 토픽(base.retry.10s 등)을 구독해, 지연 시간이
// 지난 이벤트를 기본 토픽으로 재발행한다. 지연의 실체는 이 워커 하나다.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"stocktalk/config"
	"stocktalk/eventbus"
)

func main() {
	config.InitApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	groupID := eventbus.GroupIDFor("retry")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bus.StartRetryReinjector(ctx, groupID, eventbus.TopicPostEvents); err != nil && err != context.Canceled {
			config.Logger.Errorf("retry reinjector error: %v", err)
		}
	}()

	config.Logger.Info("starting retry worker...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	config.Logger.Info("received shutdown signal, shutting down retry worker...")

	cancel()
	wg.Wait()

	config.Logger.Info("retry worker stopped")
}
