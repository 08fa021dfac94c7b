// Aggregate 는 파이프라인에서 Mongo 쓰기를 전담하는 바이너리다.
//   - post.analyzed 구독: 분석 결과를 포스트에 전체 덮어쓰기로 반영
//   - 스케줄 잡: 트렌딩 집계(5분), 뉴스 감성 배치 갱신(30분), 기사 정리(24시간)
//   - 복구 잡: 분석이 누락된 포스트의 post.created 재발행(10분)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stocktalk/config"
	"stocktalk/db"
	"stocktalk/eventbus"
	"stocktalk/events"
	"stocktalk/providers"
	"stocktalk/quota"
	"stocktalk/repositories"
	"stocktalk/services"
)

const (
	trendingInterval = 5 * time.Minute
	newsInterval     = 30 * time.Minute
	purgeInterval    = 24 * time.Hour
	recoveryInterval = 10 * time.Minute
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Init(ctx); err != nil {
		config.Logger.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}

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

	postRepo := repositories.NewPostRepository(db.Database())
	articleRepo := repositories.NewNewsArticleRepository(db.Database())
	sentimentRepo := repositories.NewNewsSentimentRepository(db.Database())
	trendingRepo := repositories.NewTrendingRepository(db.Database())
	aiLogRepo := repositories.NewAILogRepository(db.Database())

	gemini, err := providers.NewGeminiFromEnv(ctx, cfg.GeminiModel)
	if err != nil {
		config.Logger.Errorf("failed to create genai client: %v", err)
		os.Exit(1)
	}
	headlineFetcher := providers.NewHeadlineFetcherFromConfig(cfg)
	limiter := quota.NewLLMQuotaLimiterFromConfig(cfg)

	var newsAnalyzer services.NewsAnalyzer
	if gemini != nil {
		newsAnalyzer = gemini
	}

	sentimentService := services.NewSentimentService(
		sentimentRepo, articleRepo, postRepo, headlineFetcher, newsAnalyzer, limiter, aiLogRepo, cfg)
	trendingService := services.NewTrendingService(postRepo, trendingRepo, cfg)
	recoveryService := services.NewRecoveryService(postRepo, bus)

	var wg sync.WaitGroup

	// post.analyzed 구독: 분석 결과 쓰기 반영. 같은 이벤트가 두 번 와도
	// 전체 덮어쓰기라 결과가 같다 (at-least-once 전제의 멱등 쓰기).
	// processor 와 같은 토픽을 읽으므로 컨슈머 그룹은 서비스별로 분리한다.
	handlers := eventbus.HandlerMap{
		events.PostAnalyzed: eventbus.On(func(ctx context.Context, v events.PostAnalyzedEvent, _ eventbus.Event) error {
			if _, err := postRepo.SetQualityAnalysis(ctx, v.PostID, v.Analysis); err != nil {
				config.Logger.Errorf("failed to apply analysis to post %s: %v", v.PostID.Hex(), err)
				return err
			}
			config.Logger.Infof("applied quality analysis to post %s", v.PostID.Hex())
			return nil
		}),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := bus.Subscribe(ctx, eventbus.GroupIDFor("aggregate"), eventbus.TopicPostEvents, handlers)
		if err != nil && err != context.Canceled {
			config.Logger.Errorf("eventbus subscribe error: %v", err)
		}
	}()

	// 스케줄 잡들. 각 잡은 시작 시 1회 즉시 실행 후 주기 반복한다.
	runEvery(ctx, &wg, "trending", trendingInterval, 1, func(ctx context.Context) error {
		return trendingService.RefreshTrending(ctx)
	})
	// 배치 자체의 에러는 대상 목록 조회 실패뿐이라 (종목별 실패는 보고서로
	// 흡수된다) 즉시 1회 재시도가 싸다.
	runEvery(ctx, &wg, "news-sentiment-batch", newsInterval, 1, func(ctx context.Context) error {
		_, err := sentimentService.RefreshAllNewsSentiment(ctx)
		return err
	})
	runEvery(ctx, &wg, "article-purge", purgeInterval, 1, func(ctx context.Context) error {
		_, err := sentimentService.PurgeOldArticles(ctx)
		return err
	})
	runEvery(ctx, &wg, "analysis-recovery", recoveryInterval, 0, func(ctx context.Context) error {
		_, err := recoveryService.Run(ctx)
		return err
	})

	config.Logger.Info("starting aggregate service...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	config.Logger.Info("received shutdown signal, shutting down aggregate service...")

	cancel()
	wg.Wait()

	config.Logger.Info("aggregate service stopped")
}

// runEvery 는 잡을 즉시 1회 실행하고 이후 주기마다 반복한다.
// 잡의 패닉은 루프를 죽이지 않고, 실패는 retries 만큼만 즉시 재시도한다.
// 실패한 주기는 건너뛰고 다음 주기를 기다린다 (잡들은 모두 멱등하다).
func runEvery(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, retries int, job func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		run := func() {
			for attempt := 0; attempt <= retries; attempt++ {
				err := runSafely(ctx, name, job)
				if err == nil {
					return
				}
				config.Logger.Errorf("job %s failed (attempt %d/%d): %v", name, attempt+1, retries+1, err)
			}
		}

		run()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}

func runSafely(ctx context.Context, name string, job func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
	}()
	return job(ctx)
}
