package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExtractJSONObject 는 생성 모델의 응답 텍스트에서 JSON 오브젝트를 찾아 파싱한다.
// 모델이 마크다운 코드블록으로 감싸거나 앞뒤에 설명을 붙이는 경우가 흔해서,
// 첫 '{' 부터 마지막 '}' 까지를 잘라 시도한다. 오브젝트를 전혀 찾지 못하면
// (nil, false)를 반환하며, 호출자는 이를 "분석 불가"라는 정상 결과로 다룬다.
func ExtractJSONObject(raw string) (map[string]any, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, false
	}

	// 코드블록 제거: ```json ... ``` 또는 ``` ... ```
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// asFloat converts a JSON-decoded value to a finite float64.
// Numeric strings are accepted because models frequently quote numbers.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if isFinite(n) {
			return n, true
		}
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err == nil && isFinite(f) {
			return f, true
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil && isFinite(f) {
			return f, true
		}
	}
	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// asString converts a JSON-decoded value to a trimmed string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
