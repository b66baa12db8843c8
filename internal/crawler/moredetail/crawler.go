package moredetail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ldzDmons/nf-data-crawler/internal/crawler"
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/ldzDmons/nf-data-crawler/internal/store"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Config 추가 상세 수집기의 동작 설정입니다.
type Config struct {
	MoreDetailURL string

	MaxRetries int
	RetryDelay time.Duration

	// MinDelay, MaxDelay 상품 간 요청 간격의 무작위 범위
	MinDelay time.Duration
	MaxDelay time.Duration

	CheckpointInterval int
}

// Crawler 인증 토큰을 사용하여 상품별 추가 상세 정보를 수집합니다.
//
// 어떤 상품 ID도 결과에서 누락되지 않습니다. 조회에 실패한 상품은
// 상태 마커(Status)가 기록된 레코드로 결과에 포함됩니다.
type Crawler struct {
	fetcher crawler.Fetcher
	rotator *crawler.HeaderRotator
	tokens  TokenProvider
	store   store.Store
	cfg     Config
	logger  *log.Entry
}

// New 새로운 추가 상세 수집기를 생성합니다.
func New(fetcher crawler.Fetcher, tokens TokenProvider, st store.Store, cfg Config) *Crawler {
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
		cfg.MaxDelay = cfg.MinDelay + time.Second
	}

	return &Crawler{
		fetcher: fetcher,
		rotator: crawler.NewHeaderRotator(),
		tokens:  tokens,
		store:   st,
		cfg:     cfg,
		logger:  applog.WithComponent("crawler.moredetail"),
	}
}

// Run 상품 ID 목록의 추가 상세 정보를 순서대로 수집합니다.
//
// 컨텍스트가 취소되면 지금까지 수집한 결과를 저장하고 에러 없이 반환합니다.
func (c *Crawler) Run(ctx context.Context, productIDs []string) ([]product.Extended, error) {
	c.logger.WithField("products", len(productIDs)).Info("추가 상세 수집을 시작합니다")

	if c.tokens.Token() == "" {
		c.logger.Warn("인증 토큰이 없습니다. 인증이 필요한 데이터는 확보하지 못할 수 있습니다")
	}

	extendeds := make([]product.Extended, 0, len(productIDs))

	for i, id := range productIDs {
		if ctx.Err() != nil {
			c.saveSnapshot(extendeds)
			c.logger.WithField("extendeds", len(extendeds)).Info("수집이 중단되어 진행 상황을 저장합니다")
			return extendeds, nil
		}

		// 상품 간 무작위 대기, 10건마다 추가 대기
		if i > 0 {
			delay := crawler.RandomBetween(c.cfg.MinDelay, c.cfg.MaxDelay)
			if i%10 == 0 {
				delay += crawler.RandomBetween(time.Second, 3*time.Second)
			}
			if err := crawler.SleepContext(ctx, delay); err != nil {
				c.saveSnapshot(extendeds)
				return extendeds, nil
			}
		}

		ext := c.fetchOne(ctx, id)
		if ctx.Err() != nil && ext == nil {
			c.saveSnapshot(extendeds)
			return extendeds, nil
		}

		extendeds = append(extendeds, *ext)
		if ext.Status != product.StatusOK {
			c.logger.WithFields(log.Fields{
				"product_id": id,
				"status":     ext.Status,
			}).Warn("추가 상세 정보를 확보하지 못해 상태 마커를 기록합니다")
		} else {
			c.logger.WithFields(log.Fields{
				"product_id": id,
				"progress":   fmt.Sprintf("%d/%d", i+1, len(productIDs)),
			}).Info("추가 상세 정보 수집 완료")
		}

		if len(extendeds)%c.cfg.CheckpointInterval == 0 {
			c.saveSnapshot(extendeds)
		}
	}

	c.saveSnapshot(extendeds)
	c.logger.WithField("extendeds", len(extendeds)).Info("추가 상세 수집이 완료되었습니다")
	return extendeds, nil
}

// fetchOne 단일 상품의 추가 상세 정보를 조회합니다. 항상 nil이 아닌 레코드를 반환하며,
// 컨텍스트 취소 시에만 nil을 반환할 수 있습니다.
func (c *Crawler) fetchOne(ctx context.Context, productID string) *product.Extended {
	requestURL := fmt.Sprintf("%s?%s", c.cfg.MoreDetailURL, url.Values{"product_id": {productID}}.Encode())
	reauthenticated := false

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := crawler.GenericBackoff(c.cfg.RetryDelay, attempt-1)
			c.logger.WithFields(log.Fields{
				"product_id": productID,
				"attempt":    fmt.Sprintf("%d/%d", attempt+1, c.cfg.MaxRetries),
				"delay":      delay.String(),
			}).Warn("추가 상세 요청 실패, 재시도 대기 중")

			if err := crawler.SleepContext(ctx, delay); err != nil {
				return nil
			}
		}

		data, err := crawler.FetchRawJSON(ctx, c.fetcher, http.MethodGet, requestURL, c.rotator.Headers(c.tokens.Token()), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			lastErr = err
			continue
		}

		if !gjson.ValidBytes(data) {
			lastErr = apperrors.New(apperrors.ErrParseFailed, fmt.Sprintf("상품(%s) 추가 상세 응답이 유효한 JSON이 아닙니다", productID))
			continue
		}
		payload := gjson.ParseBytes(data)

		// 인증 만료 응답은 1회에 한해 재인증 후 같은 요청을 다시 시도합니다.
		if payload.Get("status").Int() == 303 && payload.Get("mesg").String() == "请先登录" {
			if reauthenticated {
				return &product.Extended{ID: productID, Status: product.StatusLoginRequired}
			}
			reauthenticated = true

			c.logger.WithField("product_id", productID).Warn("인증이 만료되어 재인증을 시도합니다")
			if err := c.tokens.Refresh(ctx); err != nil {
				c.logger.WithError(err).Error("재인증에 실패했습니다")
				return &product.Extended{ID: productID, Status: product.StatusLoginRequired}
			}
			continue
		}

		// 요청한 상품 ID를 그대로 되돌려주는 신형 구조
		if id := payload.Get("id"); id.Exists() && id.String() == productID {
			return c.extractGuarded(productID, func() *product.Extended { return extractDirect(payload, productID) })
		}

		// 구형 봉투 구조
		if payload.Get("code").Int() == 0 && payload.Get("data").IsObject() {
			return c.extractGuarded(productID, func() *product.Extended { return extractEnveloped(payload, productID) })
		}

		// 그 외의 응답은 오류 메시지로 판단합니다.
		msg := payload.Get("msg").String()
		if msg == "" || strings.Contains(msg, "不存在") {
			return &product.Extended{ID: productID, Status: product.StatusNoData}
		}

		lastErr = apperrors.New(apperrors.ErrFetchFailed, fmt.Sprintf("상품(%s) 추가 상세 요청이 거부되었습니다: %s", productID, msg))
	}

	c.logger.WithField("product_id", productID).WithError(lastErr).Error("추가 상세 조회 재시도를 모두 소진했습니다")
	return &product.Extended{ID: productID, Status: product.StatusFetchFailed}
}

// extractGuarded 응답 구조가 예상을 벗어나 추출 중 패닉이 발생하더라도
// 상태 마커가 기록된 레코드로 대체하여 배치 전체를 보호합니다.
func (c *Crawler) extractGuarded(productID string, extract func() *product.Extended) (ext *product.Extended) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(log.Fields{
				"product_id": productID,
				"panic":      r,
			}).Error("추가 상세 데이터 처리 중 오류가 발생했습니다")
			ext = &product.Extended{ID: productID, Status: product.StatusParseError}
		}
	}()
	return extract()
}

func (c *Crawler) saveSnapshot(extendeds []product.Extended) {
	if err := c.store.Put(store.StageMoreDetails, extendeds); err != nil {
		c.logger.WithError(err).Error("추가 상세 스냅샷 저장에 실패했습니다")
	}
}
