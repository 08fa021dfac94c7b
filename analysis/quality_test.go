package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuality_RepairsOutOfContractFields(t *testing.T) {
	raw := map[string]any{
		"qualityScore": 1.4,
		"insightType":  "EARNINGS",
		"sector":       "technology",
		"summary":      strings.Repeat("a", 200),
	}

	qa := NormalizeQuality(raw, "gemini-2.0-flash")

	require.NotNil(t, qa.QualityScore)
	assert.Equal(t, 1.0, *qa.QualityScore)

	require.NotNil(t, qa.InsightType)
	assert.Equal(t, "earnings", *qa.InsightType)

	require.NotNil(t, qa.Sector)
	assert.Equal(t, "Technology", *qa.Sector)

	require.NotNil(t, qa.Summary)
	assert.Equal(t, MaxSummaryLen, len([]rune(*qa.Summary)))
	assert.True(t, strings.HasSuffix(*qa.Summary, Ellipsis))

	assert.Equal(t, "gemini-2.0-flash", qa.ModelName)
	assert.False(t, qa.GeneratedAt.IsZero())
}

func TestNormalizeQuality_FieldIndependence(t *testing.T) {
	// insight_type 이 깨져도 나머지 필드는 살아야 한다.
	raw := map[string]any{
		"qualityScore": 0.72,
		"insightType":  "hot_take",
		"sector":       "consumer cyclical",
		"summary":      "짧은 요약",
	}

	qa := NormalizeQuality(raw, "gemini-2.0-flash")

	assert.Nil(t, qa.InsightType)
	require.NotNil(t, qa.QualityScore)
	assert.Equal(t, 0.72, *qa.QualityScore)
	require.NotNil(t, qa.Sector)
	assert.Equal(t, "Consumer Cyclical", *qa.Sector)
	require.NotNil(t, qa.Summary)
	assert.Equal(t, "짧은 요약", *qa.Summary)
}

func TestNormalizeQuality_AllFieldsInvalid(t *testing.T) {
	raw := map[string]any{
		"qualityScore": "not a number",
		"insightType":  42,
		"sector":       "   ",
		"summary":      "",
	}

	qa := NormalizeQuality(raw, "gemini-2.0-flash")

	assert.Nil(t, qa.QualityScore)
	assert.Nil(t, qa.InsightType)
	assert.Nil(t, qa.Sector)
	assert.Nil(t, qa.Summary)
	assert.True(t, qa.IsEmpty())
}

func TestNormalizeQuality_NegativeScoreClampsToZero(t *testing.T) {
	qa := NormalizeQuality(map[string]any{"qualityScore": -0.3}, "m")
	require.NotNil(t, qa.QualityScore)
	assert.Equal(t, 0.0, *qa.QualityScore)
}

func TestNormalizeQuality_InsightTypeWhitespaceVariants(t *testing.T) {
	cases := map[string]string{
		"Breaking News":      "breaking_news",
		"  due diligence  ":  "due_diligence",
		"TECHNICAL ANALYSIS": "technical_analysis",
		"Macro":              "macro",
	}
	for in, want := range cases {
		qa := NormalizeQuality(map[string]any{"insightType": in}, "m")
		require.NotNil(t, qa.InsightType, "input %q", in)
		assert.Equal(t, want, *qa.InsightType)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "abc", TruncateWithEllipsis("abc", 5))
	assert.Equal(t, "abcde", TruncateWithEllipsis("abcde", 5))
	assert.Equal(t, "abcd…", TruncateWithEllipsis("abcdef", 5))

	// 멀티바이트 문자열도 룬 기준으로 잘라야 한다.
	got := TruncateWithEllipsis(strings.Repeat("가", 10), 5)
	assert.Equal(t, 5, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, Ellipsis))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Technology", TitleCase("technology"))
	assert.Equal(t, "Consumer Cyclical", TitleCase("CONSUMER CYCLICAL"))
	assert.Equal(t, "Real Estate", TitleCase("  real   estate  "))
}
