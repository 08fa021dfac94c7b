package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"stocktalk/config"
)

// Headline 은 공급자 중립적인 뉴스 헤드라인이다.
type Headline struct {
	Title       string
	Source      string
	URL         string
	Summary     string
	PublishedAt time.Time
}

// HeadlineFetcher 는 종목 하나의 최근 헤드라인을 가져온다.
// "쓸 수 없음"(자격 증명 없음, 인증 실패)은 에러로, "기사 없음"은 빈 슬라이스로 구분한다.
type HeadlineFetcher interface {
	Fetch(ctx context.Context, symbol string, limit int) ([]Headline, error)
}

// NewHeadlineFetcherFromConfig 는 설정에 따라 백엔드를 고른다.
//   - provider: "rss"  → feed_url_template 기반 RSS 피드
//   - provider: "api"  → HEADLINE_API_KEY 가 필요한 JSON API
//
// API 모드인데 키가 없으면 비활성 페처를 반환한다. 경고 한 번 남기고,
// 이후 호출은 조용히 ErrProviderUnavailable 을 돌려준다.
func NewHeadlineFetcherFromConfig(cfg config.AppConfig) HeadlineFetcher {
	h := cfg.Headlines
	switch h.Provider {
	case "rss":
		if h.FeedURLTemplate == "" {
			config.Logger.Warn("headlines.feed_url_template is not set, headline fetching disabled")
			return disabledHeadlineFetcher{}
		}
		return &rssHeadlineFetcher{
			template: h.FeedURLTemplate,
			lookback: time.Duration(h.LookbackDays) * 24 * time.Hour,
			parser:   gofeed.NewParser(),
		}
	default:
		apiKey := os.Getenv("HEADLINE_API_KEY")
		if apiKey == "" || h.BaseURL == "" {
			config.Logger.Warn("HEADLINE_API_KEY or headlines.base_url is not set, headline fetching disabled")
			return disabledHeadlineFetcher{}
		}
		return &apiHeadlineFetcher{
			baseURL:  h.BaseURL,
			apiKey:   apiKey,
			lookback: time.Duration(h.LookbackDays) * 24 * time.Hour,
			client:   &http.Client{Timeout: 15 * time.Second},
		}
	}
}

type disabledHeadlineFetcher struct{}

func (disabledHeadlineFetcher) Fetch(context.Context, string, int) ([]Headline, error) {
	return nil, ErrProviderUnavailable
}

// apiHeadlineFetcher 는 finnhub 계열의 company-news JSON 엔드포인트를 호출한다.
type apiHeadlineFetcher struct {
	baseURL  string
	apiKey   string
	lookback time.Duration
	client   *http.Client
}

type apiNewsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Datetime int64  `json:"datetime"` // unix seconds
}

func (f *apiHeadlineFetcher) Fetch(ctx context.Context, symbol string, limit int) ([]Headline, error) {
	now := time.Now().UTC()
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", now.Add(-f.lookback).Format("2006-01-02"))
	q.Set("to", now.Format("2006-01-02"))
	q.Set("token", f.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fallthrough to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		config.Logger.Errorf("headline provider rejected credentials (status %d)", resp.StatusCode)
		return nil, ErrProviderUnavailable
	case http.StatusTooManyRequests:
		config.Logger.Warnf("headline provider rate limited for %s", symbol)
		return nil, fmt.Errorf("headline provider rate limited: %s", symbol)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("headline provider returned status %d: %s", resp.StatusCode, body)
	}

	var items []apiNewsItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode headline response: %w", err)
	}

	headlines := make([]Headline, 0, len(items))
	for _, item := range items {
		if item.Headline == "" || item.URL == "" {
			continue
		}
		headlines = append(headlines, Headline{
			Title:       item.Headline,
			Source:      item.Source,
			URL:         item.URL,
			Summary:     item.Summary,
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		})
	}
	return capNewest(headlines, limit), nil
}

// rssHeadlineFetcher 는 심볼을 끼워 넣은 RSS 피드에서 헤드라인을 읽는다.
// 키가 필요 없어 로컬 개발 환경의 기본 백엔드로 쓴다.
type rssHeadlineFetcher struct {
	template string // %s 자리에 심볼이 들어간다
	lookback time.Duration
	parser   *gofeed.Parser
}

func (f *rssHeadlineFetcher) Fetch(ctx context.Context, symbol string, limit int) ([]Headline, error) {
	feedURL := fmt.Sprintf(f.template, url.QueryEscape(symbol))

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse headline feed for %s: %w", symbol, err)
	}

	cutoff := time.Now().UTC().Add(-f.lookback)
	headlines := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		published := time.Now().UTC()
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		}
		if published.Before(cutoff) {
			continue
		}
		source := feed.Title
		if item.Author != nil && item.Author.Name != "" {
			source = item.Author.Name
		}
		headlines = append(headlines, Headline{
			Title:       item.Title,
			Source:      source,
			URL:         item.Link,
			Summary:     item.Description,
			PublishedAt: published,
		})
	}
	return capNewest(headlines, limit), nil
}

// capNewest 는 최신순으로 정렬해 상한 개수만 남긴다.
func capNewest(headlines []Headline, limit int) []Headline {
	sort.Slice(headlines, func(i, j int) bool {
		return headlines[i].PublishedAt.After(headlines[j].PublishedAt)
	})
	if limit > 0 && len(headlines) > limit {
		headlines = headlines[:limit]
	}
	return headlines
}
