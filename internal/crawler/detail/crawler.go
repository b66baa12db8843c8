package detail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ldzDmons/nf-data-crawler/internal/crawler"
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/ldzDmons/nf-data-crawler/internal/store"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// Config 상세 페이지 수집기의 동작 설정입니다.
type Config struct {
	// DetailURL 상품 ID가 들어갈 %s 플레이스홀더를 포함한 상세 페이지 URL 템플릿
	DetailURL string

	MaxRetries int
	RetryDelay time.Duration

	// MinDelay, MaxDelay 상품 간 요청 간격의 무작위 범위
	MinDelay time.Duration
	MaxDelay time.Duration

	CheckpointInterval int

	// DumpDir 파싱에 실패한 페이지의 원본 HTML을 보관할 디렉터리 (비어있으면 보관하지 않음)
	DumpDir string
}

// Crawler 상품별 공개 상세 페이지를 수집하고 구조화된 상세 정보를 추출합니다.
//
// 404 응답은 상품이 존재하지 않는 것으로 간주하여 재시도 없이 건너뛰며,
// 개별 상품의 수집/파싱 실패는 배치 전체를 중단시키지 않습니다.
type Crawler struct {
	fetcher crawler.Fetcher
	rotator *crawler.HeaderRotator
	store   store.Store
	cfg     Config
	logger  *log.Entry
}

// New 새로운 상세 페이지 수집기를 생성합니다.
func New(fetcher crawler.Fetcher, st store.Store, cfg Config) *Crawler {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.CheckpointInterval < 1 {
		cfg.CheckpointInterval = 10
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay + 2*time.Second
	}

	return &Crawler{
		fetcher: fetcher,
		rotator: crawler.NewHeaderRotator(),
		store:   st,
		cfg:     cfg,
		logger:  applog.WithComponent("crawler.detail"),
	}
}

// Run 상품 ID 목록의 상세 페이지를 순서대로 수집합니다.
//
// 컨텍스트가 취소되면 지금까지 수집한 결과를 저장하고 에러 없이 반환합니다.
func (c *Crawler) Run(ctx context.Context, productIDs []string) ([]product.Detail, error) {
	c.logger.WithField("products", len(productIDs)).Info("상세 페이지 수집을 시작합니다")

	details := make([]product.Detail, 0, len(productIDs))

	for i, id := range productIDs {
		if ctx.Err() != nil {
			c.saveSnapshot(details)
			c.logger.WithField("details", len(details)).Info("수집이 중단되어 진행 상황을 저장합니다")
			return details, nil
		}

		// 상품 간 무작위 대기, 10건마다 추가 대기
		if i > 0 {
			delay := crawler.RandomBetween(c.cfg.MinDelay, c.cfg.MaxDelay)
			if i%10 == 0 {
				delay += crawler.RandomBetween(time.Second, 3*time.Second)
			}
			if err := crawler.SleepContext(ctx, delay); err != nil {
				c.saveSnapshot(details)
				return details, nil
			}
		}

		d, err := c.fetchOne(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				c.saveSnapshot(details)
				return details, nil
			}
			c.logger.WithField("product_id", id).WithError(err).Warn("상품 상세 정보 확보에 실패했습니다")
			continue
		}
		if d == nil {
			// 존재하지 않는 상품
			continue
		}

		details = append(details, *d)
		c.logger.WithFields(log.Fields{
			"product_id": id,
			"progress":   fmt.Sprintf("%d/%d", i+1, len(productIDs)),
		}).Info("상품 상세 정보 수집 완료")

		if len(details)%c.cfg.CheckpointInterval == 0 {
			c.saveSnapshot(details)
		}
	}

	c.saveSnapshot(details)
	c.logger.WithField("details", len(details)).Info("상세 페이지 수집이 완료되었습니다")
	return details, nil
}

// fetchOne 단일 상품의 상세 페이지를 재시도 정책과 함께 수집하고 파싱합니다.
//
// 반환 규칙:
//   - (detail, nil): 정상 수집
//   - (nil, nil): 상품이 존재하지 않음 (404)
//   - (nil, err): 재시도를 소진했거나 파싱에 실패함
func (c *Crawler) fetchOne(ctx context.Context, productID string) (*product.Detail, error) {
	pageURL := fmt.Sprintf(c.cfg.DetailURL, productID)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := crawler.LinearBackoff(c.cfg.RetryDelay, attempt-1)
			c.logger.WithFields(log.Fields{
				"product_id": productID,
				"attempt":    fmt.Sprintf("%d/%d", attempt+1, c.cfg.MaxRetries),
				"delay":      delay.String(),
			}).Warn("상세 페이지 요청 실패, 재시도 대기 중")

			if err := crawler.SleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}

		html, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			// 404는 상품이 존재하지 않는 것이므로 재시도하지 않습니다.
			if apperrors.Is(err, apperrors.ErrNotFound) {
				c.logger.WithField("product_id", productID).Warn("존재하지 않는 상품입니다")
				return nil, nil
			}
			lastErr = err
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
		if err != nil {
			lastErr = apperrors.Wrap(err, apperrors.ErrParseFailed, fmt.Sprintf("상세 페이지(%s) 문서 파싱에 실패했습니다", pageURL))
			continue
		}

		d, err := Parse(doc, productID)
		if err != nil {
			// 파싱 실패 페이지는 사후 분석을 위해 원본을 보관하고 재시도하지 않습니다.
			c.dumpPage(productID, html)
			return nil, err
		}
		return d, nil
	}

	return nil, lastErr
}

// fetchPage 상세 페이지 HTML을 UTF-8로 변환하여 원본 바이트로 반환합니다.
func (c *Crawler) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("상세 페이지(%s) 요청 생성에 실패했습니다", pageURL))
	}
	for key, value := range c.rotator.PageHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("상세 페이지(%s) 요청 중 에러가 발생했습니다.", pageURL))
	}
	defer resp.Body.Close() // 응답을 받은 즉시 defer 설정하여 메모리 누수 방지

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("상세 페이지(%s)가 존재하지 않습니다. 상태 코드: %s", pageURL, resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrFetchFailed, fmt.Sprintf("상세 페이지(%s) 요청이 실패했습니다. 상태 코드: %s", pageURL, resp.Status))
	}

	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrParseFailed, fmt.Sprintf("상세 페이지(%s)의 인코딩 변환이 실패하였습니다.", pageURL))
	}

	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFetchFailed, fmt.Sprintf("상세 페이지(%s) 응답 본문을 읽는데 실패했습니다.", pageURL))
	}

	return data, nil
}

func (c *Crawler) saveSnapshot(details []product.Detail) {
	if err := c.store.Put(store.StageDetails, details); err != nil {
		c.logger.WithError(err).Error("상세 정보 스냅샷 저장에 실패했습니다")
	}
}

// dumpPage 파싱에 실패한 페이지의 원본 HTML을 보관합니다.
func (c *Crawler) dumpPage(productID string, html []byte) {
	if c.cfg.DumpDir == "" {
		return
	}

	if err := os.MkdirAll(c.cfg.DumpDir, 0755); err != nil {
		c.logger.WithError(err).Warn("오류 페이지 보관 디렉터리 생성에 실패했습니다")
		return
	}

	path := filepath.Join(c.cfg.DumpDir, fmt.Sprintf("error_page_%s.html", productID))
	if err := os.WriteFile(path, html, 0644); err != nil {
		c.logger.WithError(err).Warn("오류 페이지 보관에 실패했습니다")
		return
	}

	c.logger.WithField("path", path).Info("파싱에 실패한 페이지를 보관했습니다")
}
