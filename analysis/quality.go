package analysis

import (
	"strings"
	"time"
	"unicode"

	"stocktalk/models"
)

// MaxSummaryLen 은 포스트 요약의 최대 길이(룬 기준, 말줄임표 포함)다.
const MaxSummaryLen = 150

// Ellipsis marks a truncated summary.
const Ellipsis = "…"

// validInsightTypes 는 허용되는 insight_type 값의 닫힌 집합이다.
var validInsightTypes = map[string]bool{
	models.InsightBreakingNews:      true,
	models.InsightDueDiligence:      true,
	models.InsightTechnicalAnalysis: true,
	models.InsightEarnings:          true,
	models.InsightMacro:             true,
	models.InsightSpeculation:       true,
	models.InsightQuestion:          true,
}

// NormalizeQuality 는 모델이 반환한 임의의 JSON 오브젝트를 QualityAnalysis 로
// 정규화한다. 필드 단위 검증이며, 한 필드가 깨져도 나머지 필드는 유지한다.
//   - quality_score: 유한한 수만 허용, [0,1] 범위로 클램프 (거부가 아니라 보정)
//   - insight_type:  대소문자/공백 정규화 후 닫힌 집합 검사, 불일치면 nil
//   - sector:        공백 정리 + 타이틀케이스, 빈 문자열이면 nil
//   - summary:       150자 초과 시 말줄임표를 붙여 잘라냄
func NormalizeQuality(raw map[string]any, modelName string) models.QualityAnalysis {
	qa := models.QualityAnalysis{
		ModelName:   modelName,
		GeneratedAt: time.Now(),
	}
	if raw == nil {
		return qa
	}

	if f, ok := asFloat(raw["qualityScore"]); ok {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		qa.QualityScore = &f
	}

	if s, ok := asString(raw["insightType"]); ok {
		normalized := strings.ToLower(strings.Join(strings.Fields(s), "_"))
		if validInsightTypes[normalized] {
			qa.InsightType = &normalized
		}
	}

	if s, ok := asString(raw["sector"]); ok {
		t := TitleCase(s)
		qa.Sector = &t
	}

	if s, ok := asString(raw["summary"]); ok {
		t := TruncateWithEllipsis(s, MaxSummaryLen)
		qa.Summary = &t
	}

	return qa
}

// TruncateWithEllipsis 는 s 를 최대 max 룬으로 자른다.
// 잘린 경우 마지막 룬 자리에 말줄임표를 넣어 전체 길이가 max 를 넘지 않게 한다.
func TruncateWithEllipsis(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max-1]) + Ellipsis
}

// TitleCase 는 공백으로 구분된 각 단어의 첫 글자를 대문자로 만든다.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
