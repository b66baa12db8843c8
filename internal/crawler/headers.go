package crawler

import (
	"math/rand/v2"
)

// 목록/인증 상세 API 요청에 사용되는 브라우저 위장 헤더 집합입니다.
// User-Agent와 dm-ip는 요청마다 풀에서 무작위로 선택되어 교체됩니다.

var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux i686; rv:109.0) Gecko/20100101 Firefox/119.0",
}

var originIPPool = []string{
	"104.16.53.111",
	"104.17.96.22",
	"198.41.242.47",
	"205.198.76.188",
}

// HeaderRotator 요청마다 식별 헤더(User-Agent, dm-ip)를 무작위로 교체하여 반환합니다.
type HeaderRotator struct {
	userAgents []string
	originIPs  []string
}

// NewHeaderRotator 기본 풀을 사용하는 HeaderRotator를 생성합니다.
func NewHeaderRotator() *HeaderRotator {
	return &HeaderRotator{
		userAgents: userAgentPool,
		originIPs:  originIPPool,
	}
}

// Headers 브라우저 위장 헤더 전체 집합을 반환합니다.
// authorization 토큰이 주어진 경우 함께 설정됩니다.
func (r *HeaderRotator) Headers(authorization string) map[string]string {
	headers := map[string]string{
		"accept":             "application/json, text/plain, */*",
		"accept-language":    "zh-CN,zh;q=0.9",
		"authorization":      authorization,
		"dm-ip":              r.originIPs[rand.IntN(len(r.originIPs))],
		"dm-mcode":           "2a04f2a8b748b8e44f62c0aca754ab47",
		"dnt":                "1",
		"origin":             "https://naifenzhiku.com",
		"platform":           "4",
		"priority":           "u=1, i",
		"referer":            "https://naifenzhiku.com/",
		"sec-ch-ua":          `"Chromium";v="135", "Not-A.Brand";v="8"`,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"macOS"`,
		"sec-fetch-dest":     "empty",
		"sec-fetch-mode":     "cors",
		"sec-fetch-site":     "same-site",
		"user-agent":         r.userAgents[rand.IntN(len(r.userAgents))],
		"x-requested-with":   "XMLHttpRequest",
	}
	return headers
}

// PageHeaders HTML 문서 요청용 브라우저 위장 헤더 집합을 반환합니다.
// API 요청과 달리 일반 브라우저 탐색과 동일한 accept/sec-fetch 값을 사용합니다.
func (r *HeaderRotator) PageHeaders() map[string]string {
	return map[string]string{
		"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"accept-language":           "zh-CN,zh;q=0.9,en;q=0.8",
		"cache-control":             "no-cache",
		"pragma":                    "no-cache",
		"sec-ch-ua":                 `"Chromium";v="135", "Not-A.Brand";v="8"`,
		"sec-ch-ua-mobile":          "?0",
		"sec-ch-ua-platform":        `"macOS"`,
		"sec-fetch-dest":            "document",
		"sec-fetch-mode":            "navigate",
		"sec-fetch-site":            "same-origin",
		"sec-fetch-user":            "?1",
		"upgrade-insecure-requests": "1",
		"user-agent":                r.userAgents[rand.IntN(len(r.userAgents))],
	}
}
