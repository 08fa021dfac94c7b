package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePercentages_AlwaysSumsTo100(t *testing.T) {
	cases := []struct {
		name    string
		b, r, n any
	}{
		{"clean split", 50.0, 30.0, 20.0},
		{"thirds", 1.0, 1.0, 1.0},
		{"rounding pressure", 33.3, 33.3, 33.4},
		{"tiny values", 0.001, 0.002, 0.003},
		{"one dominant", 99.9, 0.05, 0.05},
		{"negative clamped", -10.0, 60.0, 40.0},
		{"string numbers", "40", "35", "25"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, r, n := NormalizePercentages(tc.b, tc.r, tc.n)
			assert.Equal(t, 100, b+r+n)
			assert.GreaterOrEqual(t, b, 0)
			assert.GreaterOrEqual(t, r, 0)
			assert.GreaterOrEqual(t, n, 0)
		})
	}
}

func TestNormalizePercentages_ZeroSumFallsBack(t *testing.T) {
	b, r, n := NormalizePercentages(0, 0, 0)
	assert.Equal(t, 34, b)
	assert.Equal(t, 33, r)
	assert.Equal(t, 33, n)

	// 비숫자/NaN/음수만 들어와도 같은 폴백이어야 한다.
	b, r, n = NormalizePercentages("oops", math.NaN(), -5.0)
	assert.Equal(t, [3]int{34, 33, 33}, [3]int{b, r, n})
}

func TestNormalizePercentages_NaNTreatedAsZero(t *testing.T) {
	b, r, n := NormalizePercentages(math.NaN(), 60.0, 40.0)
	assert.Equal(t, 0, b)
	assert.Equal(t, 60, r)
	assert.Equal(t, 40, n)
}

func TestNormalizeSentimentSummary(t *testing.T) {
	raw := map[string]any{
		"summary":           "  Mostly positive coverage around earnings.  ",
		"keyThemes":         []any{"earnings beat", 42, "guidance raise", "margins", "extra theme"},
		"sentimentStrength": "Strong",
		"confidence":        "HIGH",
	}

	out := NormalizeSentimentSummary(raw)

	assert.Equal(t, "Mostly positive coverage around earnings.", out.Summary)
	assert.Equal(t, []string{"earnings beat", "guidance raise", "margins"}, out.KeyThemes)
	assert.Equal(t, "strong", out.Strength)
	assert.Equal(t, "high", out.Confidence)
}

func TestNormalizeSentimentSummary_InvalidEnumsDropped(t *testing.T) {
	out := NormalizeSentimentSummary(map[string]any{
		"sentimentStrength": "overwhelming",
		"confidence":        "certain",
	})
	assert.Empty(t, out.Strength)
	assert.Empty(t, out.Confidence)
}

func TestNormalizeSentimentSummary_NilInput(t *testing.T) {
	out := NormalizeSentimentSummary(nil)
	assert.Empty(t, out.Summary)
	assert.Nil(t, out.KeyThemes)
}
