// Package tickers resolves a requested stock symbol to the list of symbols
// worth querying a news provider for.
package tickers

import "strings"

// aliasPairs 는 동일 기업의 복수 상장 클래스(dual-class) 심볼 쌍이다.
// 매핑은 대칭이며 정적이다. 대부분의 심볼에 별칭이 없는 것이 정상이다.
var aliasPairs = [][2]string{
	{"GOOG", "GOOGL"},
	{"FOX", "FOXA"},
	{"NWS", "NWSA"},
	{"UA", "UAA"},
	{"BRK.A", "BRK.B"},
	{"LEN", "LEN.B"},
	{"HEI", "HEI.A"},
}

var aliases = buildAliasMap()

func buildAliasMap() map[string]string {
	m := make(map[string]string, len(aliasPairs)*2)
	for _, pair := range aliasPairs {
		m[pair[0]] = pair[1]
		m[pair[1]] = pair[0]
	}
	return m
}

// Resolve 는 조회 후보 심볼 목록을 반환한다. 항상 요청 심볼이 첫 번째이고,
// 별칭이 있으면 그 하나가 뒤따른다. 별칭으로의 승격(기사 수 기준)은
// 호출자의 책임이다 — 여기는 정적 매핑만 안다.
func Resolve(symbol string) []string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}
	if alias, ok := aliases[symbol]; ok {
		return []string{symbol, alias}
	}
	return []string{symbol}
}

// Alias 는 심볼의 복수 클래스 별칭을 반환한다. 없으면 ("", false).
func Alias(symbol string) (string, bool) {
	alias, ok := aliases[strings.ToUpper(strings.TrimSpace(symbol))]
	return alias, ok
}
