package pipeline

import (
	"context"

	"github.com/ldzDmons/nf-data-crawler/internal/db"
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/ldzDmons/nf-data-crawler/internal/store"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	log "github.com/sirupsen/logrus"
)

// ListingCrawler 목록 수집 단계
type ListingCrawler interface {
	Run(ctx context.Context) ([]product.Summary, error)
}

// DetailCrawler 상세 페이지 수집 단계
type DetailCrawler interface {
	Run(ctx context.Context, productIDs []string) ([]product.Detail, error)
}

// ExtendedCrawler 인증 추가 상세 수집 단계
type ExtendedCrawler interface {
	Run(ctx context.Context, productIDs []string) ([]product.Extended, error)
}

// Persister 병합된 레코드를 데이터베이스에 적재합니다.
type Persister interface {
	ImportAll(ctx context.Context, records []product.Composite) (db.ImportCounts, error)
}

// Pipeline 수집 파이프라인 전체를 순서대로 실행합니다.
//
// 단계 순서: 목록 수집 → 변경 감지 → 상세 수집 → 추가 상세 수집 → 병합 → 적재.
// 각 단계는 완전히 끝난 뒤에야 다음 단계가 시작되며, 단계별 결과는
// 스냅샷 저장소에 남아 재시도와 사후 분석에 사용됩니다.
type Pipeline struct {
	listing  ListingCrawler
	detail   DetailCrawler
	extended ExtendedCrawler

	// filter nil이면 변경 감지 없이 전체 목록을 하류로 전달합니다.
	filter *ChangeFilter

	// persister nil이면 파일 스냅샷만 남기고 적재는 생략합니다.
	persister Persister

	store  store.Store
	logger *log.Entry
}

// New 새로운 파이프라인을 생성합니다.
func New(listing ListingCrawler, detail DetailCrawler, extended ExtendedCrawler, filter *ChangeFilter, persister Persister, st store.Store) *Pipeline {
	return &Pipeline{
		listing:   listing,
		detail:    detail,
		extended:  extended,
		filter:    filter,
		persister: persister,
		store:     st,
		logger:    applog.WithComponent("pipeline"),
	}
}

// Run 파이프라인 전체를 1회 실행합니다.
//
// 컨텍스트 취소는 에러가 아닙니다. 각 수집 단계가 진행 상황을 저장한 뒤
// 파이프라인은 남은 단계를 건너뛰고 정상 반환합니다.
// 반대로 결과를 내야 하는 단계가 빈 결과를 내면 명시적인 실패로 보고합니다.
// 변경 감지 단계만 예외로, "변경 없음"은 정상적인 성공입니다.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("수집 파이프라인을 시작합니다")

	// 1단계: 목록 수집
	summaries, err := p.listing.Run(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "목록 수집 단계가 실패했습니다")
	}
	if ctx.Err() != nil {
		p.logger.Info("파이프라인이 중단되었습니다")
		return nil
	}
	if len(summaries) == 0 {
		return apperrors.New(apperrors.ErrInternal, "목록 수집 단계가 빈 결과를 반환했습니다")
	}

	// 2단계: 변경 감지. 변경되지 않은 상품은 이후 단계에서 완전히 제외됩니다.
	selection := summaries
	if p.filter != nil {
		selection, err = p.filter.Filter(ctx, summaries)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrInternal, "변경 감지 단계가 실패했습니다")
		}
		if len(selection) == 0 {
			p.logger.Info("변경된 상품이 없어 파이프라인을 종료합니다")
			return nil
		}
	}

	ids := productIDs(selection)
	p.logger.WithField("products", len(ids)).Info("상세 수집 대상이 선정되었습니다")

	// 3단계: 공개 상세 페이지 수집
	details, err := p.detail.Run(ctx, ids)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "상세 수집 단계가 실패했습니다")
	}
	if ctx.Err() != nil {
		p.logger.Info("파이프라인이 중단되었습니다")
		return nil
	}
	if len(details) == 0 {
		return apperrors.New(apperrors.ErrInternal, "상세 수집 단계가 빈 결과를 반환했습니다")
	}

	combined := Merge(selection, details, nil)
	if err := p.store.Put(store.StageCombined, combined); err != nil {
		p.logger.WithError(err).Error("병합 결과 저장에 실패했습니다")
	}

	// 4단계: 인증 추가 상세 수집
	extendeds, err := p.extended.Run(ctx, ids)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "추가 상세 수집 단계가 실패했습니다")
	}
	if ctx.Err() != nil {
		p.logger.Info("파이프라인이 중단되었습니다")
		return nil
	}

	// 5단계: 최종 병합
	full := Merge(selection, details, extendeds)
	if err := p.store.Put(store.StageFullData, full); err != nil {
		p.logger.WithError(err).Error("최종 병합 결과 저장에 실패했습니다")
	}

	// 6단계: 데이터베이스 적재
	if p.persister != nil {
		counts, err := p.persister.ImportAll(ctx, full)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrImportFailed, "데이터베이스 적재 단계가 실패했습니다")
		}
		p.logger.WithFields(log.Fields{
			"products":  counts.Products,
			"details":   counts.Details,
			"nutrients": counts.Nutrients,
			"extras":    counts.Extras,
		}).Info("데이터베이스 적재 완료")
	}

	p.logger.WithField("products", len(full)).Info("수집 파이프라인이 완료되었습니다")
	return nil
}

// productIDs 목록에서 상품 ID를 순서를 유지하며 중복 없이 추출합니다.
func productIDs(summaries []product.Summary) []string {
	seen := make(map[string]bool, len(summaries))
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		ids = append(ids, s.ID)
	}
	return ids
}
