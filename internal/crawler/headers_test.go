package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderRotator_Headers(t *testing.T) {
	r := NewHeaderRotator()

	headers := r.Headers("test-token")

	assert.Equal(t, "test-token", headers["authorization"])
	assert.Contains(t, userAgentPool, headers["user-agent"])
	assert.Contains(t, originIPPool, headers["dm-ip"])
	assert.Equal(t, "https://naifenzhiku.com", headers["origin"])
	assert.Equal(t, "XMLHttpRequest", headers["x-requested-with"])
}

func TestHeaderRotator_PageHeaders(t *testing.T) {
	r := NewHeaderRotator()

	headers := r.PageHeaders()

	assert.Contains(t, userAgentPool, headers["user-agent"])
	assert.Equal(t, "document", headers["sec-fetch-dest"])
	assert.Equal(t, "navigate", headers["sec-fetch-mode"])
	assert.NotContains(t, headers, "authorization")
}

func TestHeaderRotator_Rotation(t *testing.T) {
	r := NewHeaderRotator()

	// 충분한 횟수를 반복하면 풀의 여러 값이 선택되어야 합니다.
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[r.Headers("")["user-agent"]] = true
	}
	assert.Greater(t, len(seen), 1)
}
