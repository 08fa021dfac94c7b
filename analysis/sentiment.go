package analysis

import (
	"math"
	"strings"
)

// MaxThemes 는 key_themes 의 최대 개수다.
const MaxThemes = 3

var validStrengths = map[string]bool{
	"strong": true, "moderate": true, "weak": true, "mixed": true,
}

var validConfidences = map[string]bool{
	"high": true, "medium": true, "low": true,
}

// SentimentSummary 는 뉴스/커뮤니티 감성 요약 호출의 정규화 결과다.
// 검증에 실패한 필드는 빈 값으로 남는다.
type SentimentSummary struct {
	Summary    string
	KeyThemes  []string
	Strength   string // strong|moderate|weak|mixed, 불일치면 ""
	Confidence string // high|medium|low, 불일치면 ""
}

// NormalizeSentimentSummary 는 모델 응답에서 요약/테마/강도/신뢰도를 꺼내
// 도메인 제약에 맞게 정규화한다.
func NormalizeSentimentSummary(raw map[string]any) SentimentSummary {
	var out SentimentSummary
	if raw == nil {
		return out
	}

	if s, ok := asString(raw["summary"]); ok {
		out.Summary = s
	}

	// themes: 문자열이 아닌 항목은 버리고 3개까지만 유지한다.
	if arr, ok := raw["keyThemes"].([]any); ok {
		for _, item := range arr {
			if s, ok := asString(item); ok {
				out.KeyThemes = append(out.KeyThemes, s)
				if len(out.KeyThemes) >= MaxThemes {
					break
				}
			}
		}
	}

	if s, ok := asString(raw["sentimentStrength"]); ok {
		normalized := strings.ToLower(s)
		if validStrengths[normalized] {
			out.Strength = normalized
		}
	}

	if s, ok := asString(raw["confidence"]); ok {
		normalized := strings.ToLower(s)
		if validConfidences[normalized] {
			out.Confidence = normalized
		}
	}

	return out
}

// NormalizePercentages 는 세 감성 비율을 합이 정확히 100인 정수 셋으로 만든다.
//   - 숫자가 아니거나 NaN 이면 0으로 간주
//   - 음수는 0으로 클램프
//   - 원시 합이 0이면 0으로 나누는 대신 34/33/33 으로 폴백
//   - 그 외에는 비례 배분하되, 마지막 값은 100-첫째-둘째 로 계산해
//     반올림 오차를 마지막 필드가 흡수한다 (합계 불변식 보장)
func NormalizePercentages(bullish, bearish, neutral any) (int, int, int) {
	b := clampNonNegative(bullish)
	br := clampNonNegative(bearish)
	n := clampNonNegative(neutral)

	sum := b + br + n
	if sum == 0 {
		return 34, 33, 33
	}

	first := int(math.Round(b / sum * 100))
	second := int(math.Round(br / sum * 100))
	third := 100 - first - second
	if third < 0 {
		// 반올림이 양쪽으로 올라간 극단 케이스: 둘째에서 차감한다.
		second += third
		third = 0
	}
	return first, second, third
}

func clampNonNegative(v any) float64 {
	f, ok := asFloat(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}
