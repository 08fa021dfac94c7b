// Package services orchestrates repositories and providers into the
// read/refresh operations the API and the schedulers call.
package services

import "time"

// Staleness 는 캐시된 값을 내보낼 때의 신선도 판정 결과다.
// 저장소는 신선도를 모른다: 읽는 쪽이 last_updated 와 임계값을 비교해 판정한다.
type Staleness struct {
	IsStale bool   `json:"is_stale"`
	Reason  string `json:"reason,omitempty"`
}

// Fresh 는 신선한 값의 판정이다.
func Fresh() Staleness {
	return Staleness{}
}

// StaleBecause 는 사유가 붙은 스테일 판정이다.
func StaleBecause(reason string) Staleness {
	return Staleness{IsStale: true, Reason: reason}
}

// olderThan 은 lastUpdated 가 now 기준 maxAge 를 넘겼는지 판정한다.
func olderThan(lastUpdated, now time.Time, maxAge time.Duration) bool {
	return now.Sub(lastUpdated) >= maxAge
}
