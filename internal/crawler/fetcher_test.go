package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_DefaultUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher()
	resp, err := fetcher.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, gotUserAgent, "Mozilla/5.0")
}

func TestFetchHTMLDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1 class="title">테스트 상품</h1></body></html>`))
	}))
	defer server.Close()

	doc, err := FetchHTMLDocument(context.Background(), NewHTTPFetcher(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "테스트 상품", doc.Find("h1.title").Text())
}

func TestFetchHTMLDocument_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := FetchHTMLDocument(context.Background(), NewHTTPFetcher(), server.URL)
	require.Error(t, err)

	// 404는 재시도 불가능한 상태로 구분됩니다.
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestFetchHTMLDocument_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchHTMLDocument(context.Background(), NewHTTPFetcher(), server.URL)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrFetchFailed))
}

func TestFetchRawJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"list":[{"id":1}]}}`))
	}))
	defer server.Close()

	data, err := FetchRawJSON(context.Background(), NewHTTPFetcher(), http.MethodGet, server.URL, map[string]string{"authorization": "token-123"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"list":[{"id":1}]}}`, string(data))
}

func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":1,"token":"abc"}`))
	}))
	defer server.Close()

	var result struct {
		Status int    `json:"status"`
		Token  string `json:"token"`
	}
	err := FetchJSON(context.Background(), NewHTTPFetcher(), http.MethodGet, server.URL, nil, nil, &result)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Status)
	assert.Equal(t, "abc", result.Token)
}

func TestFetchJSON_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var result map[string]any
	err := FetchJSON(context.Background(), NewHTTPFetcher(), http.MethodGet, server.URL, nil, nil, &result)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrParseFailed))
}
