package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ldzDmons/nf-data-crawler/internal/crawler"
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/ldzDmons/nf-data-crawler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:            baseURL,
		StartPage:          1,
		MaxRetries:         1,
		RetryDelay:         time.Millisecond,
		PageDelay:          0,
		MaxEmptyPages:      3,
		CheckpointInterval: 2,
	}
}

func TestCrawler_Run(t *testing.T) {
	var requested int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requested, 1)
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")

		// 전체 30건, 페이지당 20건이므로 총 2페이지입니다.
		fmt.Fprintf(w, `{"data":{"list":[{"id":%s,"name":"상품 %s","tag_time":1700000000}],"total":30,"per_page":20}}`, page, page)
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	c := New(crawler.NewHTTPFetcher(), st, testConfig(server.URL))

	products, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "2", products[1].ID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requested))

	// 완료 후 스냅샷은 저장되고 체크포인트는 제거되어야 합니다.
	var saved []product.Summary
	require.NoError(t, st.Get(store.StageProducts, &saved))
	assert.Len(t, saved, 2)

	cp, err := st.LoadCheckpoint()
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestCrawler_Run_StopsOnConsecutiveEmptyPages(t *testing.T) {
	var requested int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requested, 1)
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"data":{"list":[{"id":1,"name":"상품"}],"total":3642,"per_page":30}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"list":[]}}`)
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	c := New(crawler.NewHTTPFetcher(), st, testConfig(server.URL))

	products, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)

	// 1페이지(데이터 있음) + 연속 3개의 빈 페이지에서 종료
	assert.EqualValues(t, 4, atomic.LoadInt32(&requested))
}

func TestCrawler_Run_ResumesFromCheckpoint(t *testing.T) {
	var firstPage atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstPage.CompareAndSwap(nil, r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"list":[{"id":%s,"name":"상품"}]}}`, r.URL.Query().Get("page"))
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	require.NoError(t, st.PutCheckpoint(&store.Checkpoint{
		NextPage: 3,
		Products: []product.Summary{{ID: "1", Name: "이전 실행분"}},
	}))

	cfg := testConfig(server.URL)
	cfg.MaxPages = 1 // 재개 지점부터 1페이지만 수집
	c := New(crawler.NewHTTPFetcher(), st, cfg)

	products, err := c.Run(context.Background())
	require.NoError(t, err)

	// 이전 실행분 + 3페이지 수집분
	require.Len(t, products, 2)
	assert.Equal(t, "이전 실행분", products[0].Name)
	assert.Equal(t, "3", products[1].ID)
	assert.Equal(t, "3", firstPage.Load())
}

func TestCrawler_Run_CancelSavesCheckpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"list":[{"id":1,"name":"상품"}]}}`)
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	c := New(crawler.NewHTTPFetcher(), st, testConfig(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 취소는 에러가 아닌 정상 반환이어야 합니다.
	products, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	cp, err := st.LoadCheckpoint()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 1, cp.NextPage)
}

func TestCrawler_Run_RetriesErrorCodePayload(t *testing.T) {
	var requested int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// 처음 두 번은 오류 코드 응답, 이후 정상 응답
		if atomic.AddInt32(&requested, 1) <= 2 {
			fmt.Fprint(w, `{"code":429,"msg":"too many requests"}`)
			return
		}
		fmt.Fprint(w, `{"data":{"list":[{"id":1,"name":"상품"}]}}`)
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	cfg.MaxPages = 1
	c := New(crawler.NewHTTPFetcher(), st, cfg)

	products, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&requested))
}

func TestTotalPagesFrom(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		pages   int
	}{
		{"최상위 total과 limit", `{"total":100,"limit":30,"data":[]}`, 4},
		{"data.total과 data.per_page", `{"data":{"total":45,"per_page":20}}`, 3},
		{"data.per_page 기본값 20", `{"data":{"total":45}}`, 3},
		{"data.list 길이 기반 추정", `{"data":{"list":[{},{},{}]}}`, 20},
		{"normal 목록은 알려진 규모 사용", `{"normal":[{}]}`, 122},
		{"total이 0이면 알려진 규모로 대체", `{"data":{"total":0}}`, 122},
		{"추정 불가", `{"message":"error"}`, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pages, _, _ := totalPagesFrom(gjson.Parse(tc.payload))
			assert.Equal(t, tc.pages, pages)
		})
	}
}
