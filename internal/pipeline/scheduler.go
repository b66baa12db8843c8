package pipeline

import (
	"context"

	"github.com/ldzDmons/nf-data-crawler/internal/product"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	log "github.com/sirupsen/logrus"
)

// MarkerSource 저장소에 보관된 상품별 변동성 마커(tag_time)를 제공합니다.
type MarkerSource interface {
	LoadTagTimes(ctx context.Context) (map[string]string, error)
}

// ChangeFilter 새로 수집된 목록을 저장소의 변동성 마커와 비교하여
// 신규/변경 상품만 하류 단계로 전달합니다.
//
// 마커 비교는 원본 JSON 표현의 바이트 단위 비교이므로 값의 타입 변경
// (예: 숫자 0 → 문자열 "0")도 변경으로 감지됩니다.
type ChangeFilter struct {
	markers MarkerSource
	logger  *log.Entry
}

// NewChangeFilter 새로운 변경 감지 필터를 생성합니다.
func NewChangeFilter(markers MarkerSource) *ChangeFilter {
	return &ChangeFilter{
		markers: markers,
		logger:  applog.WithComponent("pipeline.changefilter"),
	}
}

// Filter 신규이거나 마커가 변경된 상품만 남긴 목록을 반환합니다.
// 모든 상품이 변경되지 않아 빈 목록이 반환되는 것은 정상적인 결과입니다.
func (f *ChangeFilter) Filter(ctx context.Context, summaries []product.Summary) ([]product.Summary, error) {
	stored, err := f.markers.LoadTagTimes(ctx)
	if err != nil {
		return nil, err
	}

	var added, updated, unchanged int
	changed := make([]product.Summary, 0, len(summaries))

	for _, s := range summaries {
		marker, exists := stored[s.ID]
		switch {
		case !exists:
			added++
			changed = append(changed, s)
		case marker != s.TagTime:
			updated++
			changed = append(changed, s)
		default:
			unchanged++
		}
	}

	f.logger.WithFields(log.Fields{
		"total":     len(summaries),
		"new":       added,
		"updated":   updated,
		"unchanged": unchanged,
	}).Info("변경 감지 결과")

	return changed, nil
}
