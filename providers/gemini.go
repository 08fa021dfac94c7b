// Package providers wraps the external services the pipeline depends on:
// the generative model and the stock-news headline feed. Adapters normalize
// responses at the boundary so the rest of the system only sees domain types.
package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"stocktalk/analysis"
	"stocktalk/config"
	"stocktalk/models"
)

// ErrProviderUnavailable 은 자격 증명 미설정 등으로 공급자를 쓸 수 없는 상태다.
// 빈 결과("데이터 없음")와는 구분된다.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrUnparsableResponse 는 모델 응답에서 JSON 오브젝트를 찾지 못한 상태다.
// 집계 호출(뉴스/커뮤니티)에서는 실패로 취급해야 한다: 정규화 기본값으로
// 강등하면 지어낸 집계가 신선한 캐시로 저장되어 버린다.
var ErrUnparsableResponse = errors.New("model response contained no JSON object")

// 생성 모델 호출 1회의 상한. 응답이 이보다 늦으면 해당 시도는 실패로 처리된다.
const generateTimeout = 30 * time.Second

// CallMeta 는 모델 호출 1회의 사용량 기록이다. ai_logs 저장용.
type CallMeta struct {
	ModelName    string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// Gemini 는 google.golang.org/genai 클라이언트의 얇은 래퍼다.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGeminiFromEnv 는 GEMINI_API_KEY 로 클라이언트를 만든다.
// 키가 없으면 (nil, nil) 을 반환하고, 호출 측은 nil 을 "분석 비활성" 상태로
// 취급해야 한다 (패닉이나 에러 루프 없이 미분석 상태로 저장).
func NewGeminiFromEnv(ctx context.Context, model string) (*Gemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		config.Logger.Warn("GEMINI_API_KEY is not set, generative analysis disabled")
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model}, nil
}

// ModelName 은 설정된 모델 식별자를 반환한다.
func (g *Gemini) ModelName() string {
	return g.model
}

func (g *Gemini) generate(ctx context.Context, system, prompt string, maxTokens int32) (string, CallMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	start := time.Now()
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			MaxOutputTokens:   maxTokens,
		},
	)

	meta := CallMeta{ModelName: g.model, Duration: time.Since(start)}
	if err != nil {
		return "", meta, err
	}
	if result.UsageMetadata != nil {
		meta.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		meta.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return result.Text(), meta, nil
}

const qualitySystemInstruction = `
You are a content quality analyst for a stock-discussion community. Analyze the provided post and respond with a JSON object containing exactly these keys:
1. qualityScore: a number between 0 and 1 rating analytical depth and usefulness.
2. insightType: one of breaking_news, due_diligence, technical_analysis, earnings, macro, speculation, question.
3. sector: the primary market sector the post discusses (e.g. Technology, Energy).
4. summary: a neutral summary of the post in at most 150 characters.
Respond with ONLY the raw JSON object, no markdown fences and no commentary.
`

// AnalyzeQuality 는 포스트 내용을 모델에 보내 품질 분석을 받고,
// 응답을 도메인 제약에 맞게 정규화해 반환한다.
// JSON 추출 실패는 에러가 아니다: 전 필드 nil 인 분석으로 강등된다.
func (g *Gemini) AnalyzeQuality(ctx context.Context, content string, tickers []string) (models.QualityAnalysis, CallMeta, error) {
	prompt := fmt.Sprintf("Tickers mentioned: %s\n\nPost:\n%s", strings.Join(tickers, ", "), content)

	text, meta, err := g.generate(ctx, qualitySystemInstruction, prompt, 512)
	if err != nil {
		return models.QualityAnalysis{}, meta, err
	}

	raw, ok := analysis.ExtractJSONObject(text)
	if !ok {
		config.Logger.Warnf("quality analysis response was not valid JSON, degrading to empty analysis: %.80s", text)
	}
	return analysis.NormalizeQuality(raw, g.model), meta, nil
}

const newsSystemInstruction = `
You are a financial news sentiment analyst. Given recent headlines about one stock, respond with a JSON object containing exactly these keys:
1. bullishPercent, bearishPercent, neutralPercent: numbers that together describe the share of coverage in each direction (they should sum to 100).
2. summary: two or three sentences describing the overall news picture.
3. keyThemes: an array of at most 3 short theme strings.
4. sentimentStrength: one of strong, moderate, weak, mixed.
5. confidence: one of high, medium, low.
Respond with ONLY the raw JSON object, no markdown fences and no commentary.
`

// NewsAnalysis 는 종목 하나에 대한 뉴스 감성 호출의 정규화 결과다.
type NewsAnalysis struct {
	BullishPercent int
	BearishPercent int
	NeutralPercent int
	Score          float64
	Summary        string
	KeyThemes      []string
	Strength       string
	Confidence     string
}

// AnalyzeNews 는 헤드라인 목록을 모델에 보내 종목별 감성 집계를 받는다.
// 응답에서 JSON 을 찾지 못하면 에러를 반환한다. 이 실패가 위로 전파되어야
// 갱신 실패로 기록되고, 읽기 측이 기존 캐시를 스테일로 계속 서빙할 수 있다.
// JSON 이 있으면 퍼센트 셋은 합 100 의 정수로 정규화된다.
func (g *Gemini) AnalyzeNews(ctx context.Context, symbol string, headlines []Headline) (NewsAnalysis, CallMeta, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock: %s\nHeadlines:\n", symbol)
	for _, h := range headlines {
		fmt.Fprintf(&b, "- [%s] %s", h.PublishedAt.Format("2006-01-02"), h.Title)
		if h.Summary != "" {
			fmt.Fprintf(&b, " — %s", h.Summary)
		}
		b.WriteString("\n")
	}

	text, meta, err := g.generate(ctx, newsSystemInstruction, b.String(), 1024)
	if err != nil {
		return NewsAnalysis{}, meta, err
	}

	result, err := parseNewsAnalysis(text)
	if err != nil {
		config.Logger.Warnf("news analysis response was not valid JSON for %s: %.80s", symbol, text)
		return NewsAnalysis{}, meta, fmt.Errorf("news analysis for %s: %w", symbol, err)
	}
	return result, meta, nil
}

// parseNewsAnalysis 는 모델 응답 텍스트에서 JSON 을 추출해 도메인 제약에
// 맞게 정규화한다. JSON 이 없으면 ErrUnparsableResponse 를 반환한다.
func parseNewsAnalysis(text string) (NewsAnalysis, error) {
	raw, ok := analysis.ExtractJSONObject(text)
	if !ok {
		return NewsAnalysis{}, ErrUnparsableResponse
	}

	bullish, bearish, neutral := analysis.NormalizePercentages(
		rawField(raw, "bullishPercent"), rawField(raw, "bearishPercent"), rawField(raw, "neutralPercent"))
	summary := analysis.NormalizeSentimentSummary(raw)

	return NewsAnalysis{
		BullishPercent: bullish,
		BearishPercent: bearish,
		NeutralPercent: neutral,
		Score:          float64(bullish-bearish) / 100.0,
		Summary:        summary.Summary,
		KeyThemes:      summary.KeyThemes,
		Strength:       summary.Strength,
		Confidence:     summary.Confidence,
	}, nil
}

const communitySystemInstruction = `
You are summarizing community discussion about one stock. You are given the sentiment breakdown across all posts in the window, and a sample of the highest-quality posts, each tagged with its author's sentiment and a quality score. Respond with a JSON object containing exactly these keys:
1. summary: two or three sentences capturing what the community is talking about and the prevailing mood, consistent with the breakdown.
2. keyThemes: an array of at most 3 short theme strings.
Respond with ONLY the raw JSON object, no markdown fences and no commentary.
`

// CommunitySummary 는 커뮤니티 토론 요약 호출의 결과다.
type CommunitySummary struct {
	Summary   string
	KeyThemes []string
}

// CommunityPostSample 은 요약 프롬프트에 넣을 샘플 포스트 한 건이다.
// Sentiment 는 작성자가 선택한 방향, QualityScore 는 품질 분석 점수로
// 아직 분석 전이면 nil 이다.
type CommunityPostSample struct {
	Content      string
	Sentiment    string
	QualityScore *float64
}

// SummarizeCommunity 는 감성 분포와 샘플 포스트들로 커뮤니티 분위기 요약을
// 생성한다. 샘플에는 포스트별 감성과 품질 점수가 함께 실리므로 모델이 텍스트만
// 보고 분위기를 추측하지 않는다. 샘플 수 하한(비용 게이트)은 호출 측 책임이다.
func (g *Gemini) SummarizeCommunity(ctx context.Context, symbol string, samples []CommunityPostSample, breakdown models.CommunityBreakdown) (CommunitySummary, CallMeta, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock: %s\n", symbol)
	fmt.Fprintf(&b, "Sentiment breakdown across %d posts: %d%% bullish, %d%% bearish, %d%% neutral.\n",
		breakdown.TotalPosts, breakdown.BullishPercent, breakdown.BearishPercent, breakdown.NeutralPercent)
	b.WriteString("Sample posts:\n")
	for _, s := range samples {
		if s.QualityScore != nil {
			fmt.Fprintf(&b, "- [%s, quality %.2f] %s\n", s.Sentiment, *s.QualityScore, s.Content)
		} else {
			fmt.Fprintf(&b, "- [%s] %s\n", s.Sentiment, s.Content)
		}
	}

	text, meta, err := g.generate(ctx, communitySystemInstruction, b.String(), 1024)
	if err != nil {
		return CommunitySummary{}, meta, err
	}

	result, err := parseCommunitySummary(text)
	if err != nil {
		config.Logger.Warnf("community summary response was not valid JSON for %s: %.80s", symbol, text)
		return CommunitySummary{}, meta, fmt.Errorf("community summary for %s: %w", symbol, err)
	}
	return result, meta, nil
}

// parseCommunitySummary 는 모델 응답 텍스트에서 요약 JSON 을 추출해 정규화한다.
func parseCommunitySummary(text string) (CommunitySummary, error) {
	raw, ok := analysis.ExtractJSONObject(text)
	if !ok {
		return CommunitySummary{}, ErrUnparsableResponse
	}
	normalized := analysis.NormalizeSentimentSummary(raw)
	return CommunitySummary{Summary: normalized.Summary, KeyThemes: normalized.KeyThemes}, nil
}

func rawField(raw map[string]any, key string) any {
	if raw == nil {
		return nil
	}
	return raw[key]
}
