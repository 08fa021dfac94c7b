package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging     LoggingConfig  `yaml:"logging"`
	MongoURI    string         `yaml:"mongo_uri"`
	MongoDBName string         `yaml:"mongo_db_name"`
	GeminiModel string         `yaml:"gemini_model"`
	Headlines   HeadlineConfig `yaml:"headlines"`
	Freshness   FreshnessConfig `yaml:"freshness"`
	Limits      LimitConfig    `yaml:"limits"`
	LLMQuota    LLMQuotaConfig `yaml:"llm_quota"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HeadlineConfig 는 종목별 뉴스 헤드라인 공급자 설정이다.
// API 키는 환경변수(HEADLINE_API_KEY)로만 주입되고, 여기서는 엔드포인트와
// 조회 범위만 관리한다. provider 가 "rss" 인 경우 feed_url_template 기반의
// RSS 백엔드를 사용한다.
type HeadlineConfig struct {
	Provider        string `yaml:"provider"` // "api" | "rss"
	BaseURL         string `yaml:"base_url"`
	FeedURLTemplate string `yaml:"feed_url_template"`
	LookbackDays    int    `yaml:"lookback_days"`
}

// FreshnessConfig 는 집계 캐시별 신선도 임계값(분)이다.
// 저장소 자체에는 TTL 이 없고, 읽기/갱신 로직이 last_updated 와 비교한다.
type FreshnessConfig struct {
	TrendingMinutes      int `yaml:"trending_minutes"`       // default 10
	NewsSentimentMinutes int `yaml:"news_sentiment_minutes"` // default 30
	ArticleRetentionDays int `yaml:"article_retention_days"` // default 7
}

// LimitConfig 는 배치/출력 크기 상한이다.
type LimitConfig struct {
	MaxArticles     int `yaml:"max_articles"`      // default 10
	MaxSamplePosts  int `yaml:"max_sample_posts"`  // default 10
	TrendingSize    int `yaml:"trending_size"`     // default 10
	MinArticles     int `yaml:"min_articles"`      // default 3
	MinSamplePosts  int `yaml:"min_sample_posts"`  // default 3
	TickerDelayMs   int `yaml:"ticker_delay_ms"`   // default 1000
}

// LLMQuotaConfig 는 생성 모델 호출에 대한 분당/일일 한도를 정의한다.
type LLMQuotaConfig struct {
	// RequestsPerMinute 는 분당 최대 요청 수이다. 0 이하면 제한 없음.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// RequestsPerDay 는 일일 최대 요청 수이다. 0 이하면 제한 없음.
	RequestsPerDay int `yaml:"requests_per_day"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	var c AppConfig
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		panic(err)
	}
	applyDefaults(&c)
	config = &c

	InitLogger(c.Logging.Level)
}

// applyDefaults 는 명시되지 않은 정책 상수에 기본값을 채운다.
func applyDefaults(c *AppConfig) {
	if c.Freshness.TrendingMinutes <= 0 {
		c.Freshness.TrendingMinutes = 10
	}
	if c.Freshness.NewsSentimentMinutes <= 0 {
		c.Freshness.NewsSentimentMinutes = 30
	}
	if c.Freshness.ArticleRetentionDays <= 0 {
		c.Freshness.ArticleRetentionDays = 7
	}
	if c.Limits.MaxArticles <= 0 {
		c.Limits.MaxArticles = 10
	}
	if c.Limits.MaxSamplePosts <= 0 {
		c.Limits.MaxSamplePosts = 10
	}
	if c.Limits.TrendingSize <= 0 {
		c.Limits.TrendingSize = 10
	}
	if c.Limits.MinArticles <= 0 {
		c.Limits.MinArticles = 3
	}
	if c.Limits.MinSamplePosts <= 0 {
		c.Limits.MinSamplePosts = 3
	}
	if c.Limits.TickerDelayMs <= 0 {
		c.Limits.TickerDelayMs = 1000
	}
	if c.Headlines.LookbackDays <= 0 {
		c.Headlines.LookbackDays = 7
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.0-flash"
	}
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
