// Package crawler HTTP 요청 수행과 재시도 대기 정책 등 수집 단계들이 공유하는 기반 기능을 제공합니다.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Fetcher HTTP 요청을 수행하는 인터페이스
type Fetcher interface {
	Get(url string) (*http.Response, error)
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFetcher 기본 타임아웃(30초) 및 User-Agent 자동 추가 기능이 내장된 HTTP 클라이언트 구현체입니다.
// 모든 요청은 공유 속도 제한기를 거치므로 여러 수집 단계가 같은 인스턴스를 사용해도
// 대상 사이트에 대한 전체 요청 속도가 상한을 넘지 않습니다.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher 기본 타임아웃(30초) 설정이 포함된 새로운 HTTPFetcher 인스턴스를 생성합니다.
func NewHTTPFetcher() *HTTPFetcher {
	return NewHTTPFetcherWithLimit(rate.NewLimiter(rate.Every(200*time.Millisecond), 1))
}

// NewHTTPFetcherWithLimit 지정된 속도 제한기를 사용하는 HTTPFetcher 인스턴스를 생성합니다.
// limiter가 nil이면 속도 제한 없이 동작합니다.
func NewHTTPFetcherWithLimit(limiter *rate.Limiter) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
	}
}

// Get 지정된 URL로 HTTP GET 요청을 전송합니다.
// User-Agent 헤더가 설정되지 않은 경우, 크롬 브라우저 값으로 자동 설정됩니다.
func (h *HTTPFetcher) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return h.Do(req)
}

// Do 커스텀 HTTP 요청을 실행합니다.
// 요청 헤더에 User-Agent가 없는 경우, 기본값(Chrome)을 자동으로 추가하여 봇 차단을 방지합니다.
func (h *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	// User-Agent가 설정되지 않은 경우 기본값(Chrome) 설정
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36")
	}
	return h.client.Do(req)
}

// FetchHTMLDocument 지정된 URL로 HTTP 요청을 보내 HTML 문서를 가져오고, goquery.Document로 파싱합니다.
// 응답 헤더의 Content-Type을 분석하여, 비 UTF-8 인코딩 페이지도 자동으로 UTF-8로 변환하여 처리합니다.
//
// 404 응답은 재시도할 수 없는 상태이므로 ErrNotFound 타입의 에러로 구분하여 반환합니다.
func FetchHTMLDocument(ctx context.Context, fetcher Fetcher, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("HTML 페이지(%s) 요청 생성에 실패했습니다", url))
	}

	resp, err := fetcher.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("HTML 페이지(%s) 요청 중 네트워크 또는 클라이언트 에러가 발생했습니다.", url))
	}
	defer resp.Body.Close() // 응답을 받은 즉시 defer 설정하여 메모리 누수 방지

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("HTML 페이지(%s)가 존재하지 않습니다. 상태 코드: %s", url, resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrFetchFailed, fmt.Sprintf("HTML 페이지(%s) 요청이 실패했습니다. 상태 코드: %s", url, resp.Status))
	}

	// Content-Type 헤더를 기반으로 인코딩을 UTF-8로 변환
	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrParseFailed, fmt.Sprintf("페이지(%s)의 인코딩 변환이 실패하였습니다.", url))
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrParseFailed, fmt.Sprintf("불러온 페이지(%s)의 데이터 파싱이 실패하였습니다.", url))
	}

	return doc, nil
}

// FetchJSON HTTP 요청을 수행하고 응답 본문(JSON)을 지정된 구조체(v)로 디코딩합니다.
func FetchJSON(ctx context.Context, fetcher Fetcher, method, url string, header map[string]string, body io.Reader, v interface{}) error {
	data, err := FetchRawJSON(ctx, fetcher, method, url, header, body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrParseFailed, fmt.Sprintf("불러온 페이지(%s) 데이터의 JSON 변환이 실패하였습니다.", url))
	}

	return nil
}

// FetchRawJSON HTTP 요청을 수행하고 응답 본문을 그대로 반환합니다.
// 응답 스키마가 버전에 따라 달라지는 API는 구조체에 바인딩하지 않고 원본 바이트를 분석합니다.
func FetchRawJSON(ctx context.Context, fetcher Fetcher, method, url string, header map[string]string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("JSON 요청 생성에 실패했습니다. (URL: %s)", url))
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	resp, err := fetcher.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("JSON API(%s) 요청 전송 중 에러가 발생했습니다.", url))
	}
	defer resp.Body.Close() // 응답을 받은 즉시 defer 설정하여 메모리 누수 방지

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrFetchFailed, fmt.Sprintf("JSON API(%s) 요청이 실패했습니다. 상태 코드: %s", url, resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("JSON API(%s) 응답 본문을 읽는데 실패했습니다.", url))
	}

	return data, nil
}
