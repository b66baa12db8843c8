package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// 수집 단계별 재시도 대기 정책입니다.
//
// 모든 대기 시간은 기본 대기 시간에 1.0~2.0배의 무작위 계수를 곱해
// 여러 클라이언트가 동시에 재시도하는 'Thundering Herd' 문제와
// 대상 사이트의 요청 패턴 감지를 함께 회피합니다.

// jitterFactor 1.0 이상 2.0 미만의 무작위 계수를 반환합니다.
func jitterFactor() float64 {
	return 1.0 + rand.Float64()
}

// GenericBackoff 일반적인 요청 실패(비정상 응답, 파싱 실패 등)에 대한 대기 시간을 계산합니다.
// attempt는 0부터 시작하며, 대기 시간은 base*(1+attempt)에 무작위 계수를 곱한 값입니다.
func GenericBackoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(float64(base) * float64(1+attempt) * jitterFactor())
}

// ConnectionBackoff 연결 수준 실패(타임아웃, 연결 거부 등)에 대한 대기 시간을 계산합니다.
// 연결 실패는 서버 측 차단의 신호일 수 있으므로 일반 실패보다 2배 긴 base*(2+2*attempt) 기준으로 대기합니다.
func ConnectionBackoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(float64(base) * float64(2+2*attempt) * jitterFactor())
}

// LinearBackoff 상세 페이지 수집의 선형 증가 대기 시간을 계산합니다.
// 대기 시간은 base*(attempt+1)에 무작위 계수를 곱한 값입니다.
func LinearBackoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(float64(base) * float64(attempt+1) * jitterFactor())
}

// Jittered 기본 대기 시간에 무작위 계수를 곱한 값을 반환합니다. 요청 간 간격 조절에 사용합니다.
func Jittered(base time.Duration) time.Duration {
	return time.Duration(float64(base) * jitterFactor())
}

// RandomBetween min 이상 max 이하의 무작위 대기 시간을 반환합니다.
func RandomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}

// SleepContext 지정된 시간 동안 대기하며, 컨텍스트가 취소되면 즉시 반환합니다.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
