package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stocktalk/services"
)

// TrendingHandler godoc
// @Summary      Trending tickers
// @Description  Top mentioned tickers over the trailing 24 hours (cached, refreshed on a schedule)
// @Tags         trending
// @Produce      json
// @Success      200  {object}  services.TrendingResult
// @Router       /trending [get]
func TrendingHandler(svc *services.TrendingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.GetTrending(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// NewsSentimentHandler godoc
// @Summary      News sentiment for a ticker
// @Description  Cached per-ticker news sentiment; refreshes when older than the freshness window and falls back to the previous value when refresh fails
// @Tags         tickers
// @Param        symbol         path   string  true   "Ticker symbol"
// @Param        force_refresh  query  bool    false  "Bypass the freshness window"
// @Produce      json
// @Success      200  {object}  services.SentimentResult
// @Failure      404  {object}  map[string]string
// @Router       /tickers/{symbol}/news-sentiment [get]
func NewsSentimentHandler(svc *services.SentimentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Param("symbol")
		force, _ := strconv.ParseBool(c.DefaultQuery("force_refresh", "false"))

		result, err := svc.GetNewsSentiment(c.Request.Context(), symbol, force)
		if err != nil {
			if errors.Is(err, services.ErrSentimentUnavailable) {
				c.JSON(http.StatusNotFound, gin.H{"error": "news sentiment unavailable for " + symbol})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// NewsArticlesHandler godoc
// @Summary      Stored news articles for a ticker
// @Description  Most recent stored headlines for a ticker, newest first
// @Tags         tickers
// @Param        symbol  path   string  true   "Ticker symbol"
// @Param        limit   query  int     false  "Max articles to return"
// @Produce      json
// @Success      200  {array}   models.NewsArticle
// @Router       /tickers/{symbol}/news [get]
func NewsArticlesHandler(svc *services.SentimentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Param("symbol")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		articles, err := svc.ListArticles(c.Request.Context(), symbol, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, articles)
	}
}

// CommunityHandler godoc
// @Summary      Community view for a ticker
// @Description  Sentiment breakdown of recent posts, with an optional AI discussion summary when enough analyzed posts exist
// @Tags         tickers
// @Param        symbol   path   string  true   "Ticker symbol"
// @Param        period   query  string  false  "24h, 7d or 30d"  default(24h)
// @Param        summary  query  bool    false  "Include AI discussion summary"
// @Produce      json
// @Success      200  {object}  services.CommunityView
// @Failure      400  {object}  map[string]string
// @Router       /tickers/{symbol}/community [get]
func CommunityHandler(svc *services.CommunityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Param("symbol")
		period := c.DefaultQuery("period", "24h")
		withSummary, _ := strconv.ParseBool(c.DefaultQuery("summary", "false"))

		view, err := svc.GetCommunity(c.Request.Context(), symbol, period, withSummary)
		if err != nil {
			if errors.Is(err, services.ErrUnknownPeriod) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
