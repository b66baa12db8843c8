package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenericBackoff(t *testing.T) {
	base := time.Second

	// base*(1+attempt) <= 대기 시간 < base*(1+attempt)*2
	for attempt := 0; attempt < 4; attempt++ {
		d := GenericBackoff(base, attempt)
		min := time.Duration(float64(base) * float64(1+attempt))
		assert.GreaterOrEqual(t, d, min, "attempt %d", attempt)
		assert.Less(t, d, 2*min, "attempt %d", attempt)
	}
}

func TestConnectionBackoff(t *testing.T) {
	base := time.Second

	// 연결 실패는 일반 실패의 2배 기준으로 대기합니다.
	for attempt := 0; attempt < 4; attempt++ {
		d := ConnectionBackoff(base, attempt)
		min := time.Duration(float64(base) * float64(2+2*attempt))
		assert.GreaterOrEqual(t, d, min, "attempt %d", attempt)
		assert.Less(t, d, 2*min, "attempt %d", attempt)
	}
}

func TestLinearBackoff(t *testing.T) {
	base := 2 * time.Second

	for attempt := 0; attempt < 4; attempt++ {
		d := LinearBackoff(base, attempt)
		min := time.Duration(float64(base) * float64(attempt+1))
		assert.GreaterOrEqual(t, d, min, "attempt %d", attempt)
		assert.Less(t, d, 2*min, "attempt %d", attempt)
	}
}

func TestJittered(t *testing.T) {
	base := time.Second
	d := Jittered(base)
	assert.GreaterOrEqual(t, d, base)
	assert.Less(t, d, 2*base)
}

func TestRandomBetween(t *testing.T) {
	min, max := time.Second, 3*time.Second
	for i := 0; i < 10; i++ {
		d := RandomBetween(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, max)
	}

	// max <= min인 경우 min을 반환합니다.
	assert.Equal(t, min, RandomBetween(min, min))
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := SleepContext(ctx, 10*time.Second)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepContext_Elapsed(t *testing.T) {
	err := SleepContext(context.Background(), time.Millisecond)
	assert.NoError(t, err)
}
