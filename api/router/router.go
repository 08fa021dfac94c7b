package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"go.mongodb.org/mongo-driver/bson"

	"stocktalk/api/handlers"
	"stocktalk/config"
	"stocktalk/db"
	_ "stocktalk/docs"
	"stocktalk/providers"
	"stocktalk/quota"
	"stocktalk/repositories"
	"stocktalk/services"
)

func New() *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if err := db.Database().RunCommand(context.Background(), bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cfg := config.GetConfig()

	postRepo := repositories.NewPostRepository(db.Database())
	articleRepo := repositories.NewNewsArticleRepository(db.Database())
	sentimentRepo := repositories.NewNewsSentimentRepository(db.Database())
	trendingRepo := repositories.NewTrendingRepository(db.Database())
	aiLogRepo := repositories.NewAILogRepository(db.Database())

	// 읽기 경로도 온디맨드 갱신(스테일 캐시)을 할 수 있어 공급자가 필요하다.
	// 자격 증명이 없으면 nil/비활성으로 내려가고, 캐시만으로 응답한다.
	gemini, err := providers.NewGeminiFromEnv(context.Background(), cfg.GeminiModel)
	if err != nil {
		config.Logger.Errorf("failed to create genai client: %v", err)
	}
	headlineFetcher := providers.NewHeadlineFetcherFromConfig(cfg)
	limiter := quota.NewLLMQuotaLimiterFromConfig(cfg)

	var newsAnalyzer services.NewsAnalyzer
	var summarizer services.CommunitySummarizer
	if gemini != nil {
		newsAnalyzer = gemini
		summarizer = gemini
	}

	sentimentService := services.NewSentimentService(
		sentimentRepo, articleRepo, postRepo, headlineFetcher, newsAnalyzer, limiter, aiLogRepo, cfg)
	trendingService := services.NewTrendingService(postRepo, trendingRepo, cfg)
	communityService := services.NewCommunityService(postRepo, summarizer, limiter, aiLogRepo, cfg)

	api := r.Group("/api/v1")
	{
		api.GET("/trending", handlers.TrendingHandler(trendingService))
		api.GET("/tickers/:symbol/news-sentiment", handlers.NewsSentimentHandler(sentimentService))
		api.GET("/tickers/:symbol/news", handlers.NewsArticlesHandler(sentimentService))
		api.GET("/tickers/:symbol/community", handlers.CommunityHandler(communityService))
	}

	return r
}
