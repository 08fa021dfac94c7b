package quota

import (
	"context"
	"sync"
	"time"

	"stocktalk/config"
)

// 호출 종류 라벨. ai_logs 의 kind 와 같은 값을 쓴다.
const (
	KindQuality   = "quality"
	KindNews      = "news"
	KindCommunity = "community"
)

// LLMQuotaLimiter 는 생성 모델 호출에 대한 분당/일일 한도를 관리한다.
// 한도는 전체 호출 기준이지만, 어느 종류의 분석이 예산을 쓰고 있는지
// 파악할 수 있도록 호출 종류별 사용량을 함께 집계한다.
// Processor 인스턴스가 하나라는 전제를 두고 인메모리로 동작하며,
// 애플리케이션이 재시작되면 카운터가 초기화된다.
type LLMQuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	usedByKind map[string]int
	dayKey     string

	interval time.Duration
	lastCall time.Time
}

// NewLLMQuotaLimiterFromConfig 는 config.yaml 의 llm_quota 설정을 기반으로
// LLMQuotaLimiter 를 생성한다. 설정 값이 0 이하인 경우에는 해당 방향의 제한을 두지 않는다.
func NewLLMQuotaLimiterFromConfig(cfg config.AppConfig) *LLMQuotaLimiter {
	q := cfg.LLMQuota

	requestsPerDay := q.RequestsPerDay
	if requestsPerDay < 0 {
		requestsPerDay = 0
	}

	requestsPerMinute := q.RequestsPerMinute
	if requestsPerMinute < 0 {
		requestsPerMinute = 0
	}

	var interval time.Duration
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}

	return &LLMQuotaLimiter{
		dailyLimit: requestsPerDay,
		usedByKind: make(map[string]int),
		interval:   interval,
	}
}

// WaitAndReserve 는 모델 호출 전에 분당/일일 한도를 적용한다. kind 는 호출
// 종류 라벨(quality/news/community)로, 일일 사용량 집계에 쓰인다.
// - 일일 한도를 초과한 경우: (false, nil) 을 반환하고 호출자는 호출을 스킵해야 한다.
// - 컨텍스트 취소 등 시스템 예외 발생 시: (false, error)를 반환하여 상위에서 재시도/중단을 판단하게 한다.
func (l *LLMQuotaLimiter) WaitAndReserve(ctx context.Context, kind string) (bool, error) {
	for {
		l.mu.Lock()

		now := time.Now().UTC()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
			l.usedByKind = make(map[string]int)
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			// 일일 한도 소진: 이번 호출은 수행하지 않는다.
			usage := l.usageLocked()
			l.mu.Unlock()
			config.Logger.Warnf("LLM 일일 한도(%d) 소진으로 %s 호출 스킵. 오늘 사용량: %v", l.dailyLimit, kind, usage)
			return false, nil
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			nextAllowed := l.lastCall.Add(l.interval)
			delay = time.Until(nextAllowed)
		}

		if delay <= 0 {
			// 즉시 호출 가능
			l.usedToday++
			l.usedByKind[kind]++
			l.lastCall = now
			l.mu.Unlock()
			return true, nil
		}

		// 잠시 대기해야 하는 경우: 락을 풀고 대기 후 다시 루프를 반복한다.
		l.mu.Unlock()
		select {
		case <-time.After(delay):
			// 다시 루프를 돌며 상태를 재평가한다.
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// UsageToday 는 오늘(UTC) 호출 종류별 사용량의 스냅샷을 반환한다.
func (l *LLMQuotaLimiter) UsageToday() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usageLocked()
}

func (l *LLMQuotaLimiter) usageLocked() map[string]int {
	out := make(map[string]int, len(l.usedByKind))
	for k, v := range l.usedByKind {
		out[k] = v
	}
	return out
}
