package listing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/ldzDmons/nf-data-crawler/internal/crawler"
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/ldzDmons/nf-data-crawler/internal/store"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// defaultTotalPages 첫 페이지에서 전체 페이지 수를 알아낼 수 없을 때 사용하는 기본 상한
	defaultTotalPages = 200

	// 알려진 카탈로그 규모 기반의 보수적 추정값
	fallbackTotalItems   = 3642
	fallbackItemsPerPage = 30
)

// Config 목록 수집기의 동작 설정입니다.
type Config struct {
	BaseURL string

	StartPage int
	MaxPages  int // 0: 첫 페이지 응답에서 전체 페이지 수를 추정

	MaxRetries int
	RetryDelay time.Duration

	PageDelay          time.Duration
	MaxEmptyPages      int
	CheckpointInterval int

	Dedupe bool
}

// Crawler 목록 API를 페이지 순서대로 순회하며 상품 기본 정보를 수집합니다.
//
// 수집 도중 중단(컨텍스트 취소)되면 지금까지의 결과와 다음 페이지 번호를
// 체크포인트로 저장하고 에러 없이 반환합니다. 다음 실행은 체크포인트부터 재개됩니다.
type Crawler struct {
	fetcher crawler.Fetcher
	rotator *crawler.HeaderRotator
	store   store.Store
	cfg     Config
	logger  *log.Entry
}

// New 새로운 목록 수집기를 생성합니다.
func New(fetcher crawler.Fetcher, st store.Store, cfg Config) *Crawler {
	if cfg.StartPage < 1 {
		cfg.StartPage = 1
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxEmptyPages < 1 {
		cfg.MaxEmptyPages = 3
	}
	if cfg.CheckpointInterval < 1 {
		cfg.CheckpointInterval = 10
	}

	return &Crawler{
		fetcher: fetcher,
		rotator: crawler.NewHeaderRotator(),
		store:   st,
		cfg:     cfg,
		logger:  applog.WithComponent("crawler.listing"),
	}
}

// Run 목록 수집을 수행하고 수집된 상품 기본 정보를 반환합니다.
//
// 종료 조건:
//   - 설정되거나 추정된 마지막 페이지에 도달
//   - 연속으로 MaxEmptyPages개의 빈 페이지 발생 (데이터 끝으로 간주)
//   - 컨텍스트 취소 (체크포인트 저장 후 정상 반환)
func (c *Crawler) Run(ctx context.Context) ([]product.Summary, error) {
	var products []product.Summary
	startPage := c.cfg.StartPage

	// 이전 실행의 체크포인트가 있으면 해당 지점부터 재개합니다.
	if cp, err := c.store.LoadCheckpoint(); err != nil {
		c.logger.WithError(err).Warn("체크포인트 로드에 실패하여 처음부터 수집합니다")
	} else if cp != nil && cp.NextPage > startPage {
		startPage = cp.NextPage
		products = cp.Products
		c.logger.WithFields(log.Fields{
			"next_page":      startPage,
			"loaded_product": len(products),
		}).Info("체크포인트에서 수집을 재개합니다")
	}

	endPage := defaultTotalPages
	totalsKnown := false
	if c.cfg.MaxPages > 0 {
		endPage = startPage + c.cfg.MaxPages - 1
		totalsKnown = true
	}

	page := startPage
	emptyPageCount := 0
	consecutiveFailures := 0

	for page <= endPage && emptyPageCount < c.cfg.MaxEmptyPages {
		if ctx.Err() != nil {
			return c.interrupt(products, page)
		}

		// 페이지 간 대기 (탐지 회피를 위한 무작위 간격, 5페이지마다 추가 대기)
		if page > startPage {
			delay := crawler.Jittered(c.cfg.PageDelay)
			if page%5 == 0 {
				delay += crawler.RandomBetween(time.Second, 3*time.Second)
			}
			if err := crawler.SleepContext(ctx, delay); err != nil {
				return c.interrupt(products, page)
			}
		}

		payload, err := c.fetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return c.interrupt(products, page)
			}

			emptyPageCount++
			consecutiveFailures++
			c.logger.WithFields(log.Fields{
				"page":        page,
				"empty_count": fmt.Sprintf("%d/%d", emptyPageCount, c.cfg.MaxEmptyPages),
			}).WithError(err).Warn("페이지 데이터 가져오기에 실패했습니다")

			// 연속 실패는 차단의 신호일 수 있으므로 더 길게 대기합니다.
			if consecutiveFailures >= 2 {
				if err := crawler.SleepContext(ctx, crawler.RandomBetween(5*time.Second, 10*time.Second)); err != nil {
					return c.interrupt(products, page+1)
				}
			}

			page++
			continue
		}
		consecutiveFailures = 0

		// 첫 성공 페이지에서 전체 페이지 수를 추정합니다.
		if !totalsKnown {
			totalsKnown = true
			if pages, totalItems, perPage := totalPagesFrom(payload); pages > 0 {
				endPage = pages
				c.logger.WithFields(log.Fields{
					"total_items":    totalItems,
					"items_per_page": perPage,
					"total_pages":    pages,
				}).Info("전체 페이지 수를 추정했습니다")
			} else {
				c.logger.WithField("total_pages", endPage).Warn("전체 페이지 수를 알 수 없어 기본 상한을 사용합니다")
			}
		}

		classification := Classify(payload)
		items := Extract(classification.Items, c.cfg.Dedupe)

		if len(items) > 0 {
			emptyPageCount = 0
			products = append(products, items...)
			c.logger.WithFields(log.Fields{
				"page":     page,
				"format":   classification.Format,
				"products": len(items),
				"total":    len(products),
			}).Info("페이지 수집 완료")

			// 주기적으로 진행 상황을 체크포인트로 저장합니다.
			if page%c.cfg.CheckpointInterval == 0 {
				if err := c.store.PutCheckpoint(&store.Checkpoint{NextPage: page + 1, Products: products}); err != nil {
					c.logger.WithError(err).Warn("체크포인트 저장에 실패했습니다")
				}
			}
		} else {
			emptyPageCount++
			c.logger.WithFields(log.Fields{
				"page":        page,
				"format":      classification.Format,
				"empty_count": fmt.Sprintf("%d/%d", emptyPageCount, c.cfg.MaxEmptyPages),
			}).Warn("페이지에서 상품 데이터를 추출하지 못했습니다")
		}

		page++
	}

	// 종료 경로와 무관하게 수집된 결과는 항상 저장합니다.
	if err := c.store.Put(store.StageProducts, products); err != nil {
		c.logger.WithError(err).Error("수집 결과 저장에 실패했습니다")
	}
	if err := c.store.ClearCheckpoint(); err != nil {
		c.logger.WithError(err).Warn("체크포인트 제거에 실패했습니다")
	}

	c.logger.WithField("products", len(products)).Info("목록 수집이 완료되었습니다")
	return products, nil
}

// interrupt 중단 시점의 진행 상황을 체크포인트와 스냅샷으로 저장하고 에러 없이 반환합니다.
func (c *Crawler) interrupt(products []product.Summary, nextPage int) ([]product.Summary, error) {
	c.logger.WithFields(log.Fields{
		"next_page": nextPage,
		"products":  len(products),
	}).Info("수집이 중단되어 진행 상황을 저장합니다")

	if err := c.store.PutCheckpoint(&store.Checkpoint{NextPage: nextPage, Products: products}); err != nil {
		c.logger.WithError(err).Error("중단 시점 체크포인트 저장에 실패했습니다")
	}
	if err := c.store.Put(store.StageProducts, products); err != nil {
		c.logger.WithError(err).Error("중단 시점 수집 결과 저장에 실패했습니다")
	}

	return products, nil
}

// fetchPage 지정된 페이지를 재시도 정책과 함께 가져옵니다.
//
// 비정상 상태 코드, 빈 응답 본문, JSON 파싱 실패는 모두 실패한 시도로 집계되어
// 재시도를 유발합니다. 오류 코드가 포함된 응답은 마지막 시도에서 페이로드를
// 그대로 반환하여 분류기가 구조를 판단할 수 있도록 합니다.
func (c *Crawler) fetchPage(ctx context.Context, page int) (gjson.Result, error) {
	pageURL := fmt.Sprintf("%s?page=%d", c.cfg.BaseURL, page)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := crawler.GenericBackoff(c.cfg.RetryDelay, attempt-1)
			if isConnectionError(lastErr) {
				delay = crawler.ConnectionBackoff(c.cfg.RetryDelay, attempt-1)
			}
			c.logger.WithFields(log.Fields{
				"page":    page,
				"attempt": fmt.Sprintf("%d/%d", attempt+1, c.cfg.MaxRetries),
				"delay":   delay.String(),
			}).Warn("페이지 요청 실패, 재시도 대기 중")

			if err := crawler.SleepContext(ctx, delay); err != nil {
				return gjson.Result{}, err
			}
		}

		// 요청마다 식별 헤더를 교체하여 상관 차단을 회피합니다.
		data, err := crawler.FetchRawJSON(ctx, c.fetcher, http.MethodGet, pageURL, c.rotator.Headers(""), nil)
		if err != nil {
			lastErr = err
			continue
		}

		if len(bytes.TrimSpace(data)) == 0 {
			lastErr = apperrors.New(apperrors.ErrFetchFailed, fmt.Sprintf("페이지(%d) 응답 본문이 비어있습니다", page))
			continue
		}

		if !gjson.ValidBytes(data) {
			lastErr = apperrors.New(apperrors.ErrParseFailed, fmt.Sprintf("페이지(%d) 응답이 유효한 JSON이 아닙니다", page))
			continue
		}

		payload := gjson.ParseBytes(data)

		// API가 오류 코드를 반환한 경우에도 재시도하되,
		// 마지막 시도에서는 페이로드를 반환하여 분류기에 판단을 넘깁니다.
		if code := payload.Get("code"); code.Exists() && code.Int() != 0 && !payload.Get("data").Exists() {
			if attempt == c.cfg.MaxRetries-1 {
				return payload, nil
			}
			lastErr = apperrors.New(apperrors.ErrFetchFailed,
				fmt.Sprintf("페이지(%d) 응답에 오류 코드가 포함되어 있습니다: code=%d, msg=%s", page, code.Int(), payload.Get("msg").String()))
			continue
		}

		return payload, nil
	}

	return gjson.Result{}, lastErr
}

// isConnectionError 연결 수준의 실패(타임아웃, 연결 거부 등)인지 판별합니다.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// totalPagesFrom 첫 페이지 응답에서 전체 페이지 수를 추정합니다.
//
// 추정 순서:
//  1. 최상위 total + limit
//  2. data.total + data.per_page (per_page 기본값 20)
//  3. data.list 길이 기반 추정
//  4. normal 목록이 있으면 알려진 카탈로그 규모(3642건/30건) 사용
//
// 어느 것도 맞지 않으면 0을 반환하며, 호출자는 기본 상한을 사용합니다.
func totalPagesFrom(payload gjson.Result) (pages, totalItems, itemsPerPage int) {
	switch {
	case payload.Get("total").Exists() && payload.Get("limit").Exists():
		totalItems = int(payload.Get("total").Int())
		itemsPerPage = int(payload.Get("limit").Int())

	case payload.Get("data.total").Exists():
		totalItems = int(payload.Get("data.total").Int())
		itemsPerPage = int(payload.Get("data.per_page").Int())
		if itemsPerPage == 0 {
			itemsPerPage = 20
		}

	case payload.Get("data.list").IsArray():
		listLen := len(payload.Get("data.list").Array())
		totalItems = listLen * 20
		itemsPerPage = listLen

	case payload.Get("normal").IsArray():
		totalItems = fallbackTotalItems
		itemsPerPage = fallbackItemsPerPage

	default:
		return 0, 0, 0
	}

	if totalItems <= 0 || itemsPerPage <= 0 {
		totalItems = fallbackTotalItems
		itemsPerPage = fallbackItemsPerPage
	}

	pages = int(math.Ceil(float64(totalItems) / float64(itemsPerPage)))
	return pages, totalItems, itemsPerPage
}
