// Package pipeline 수집 단계들을 순서대로 실행하고 결과를 병합하여 적재하는 제어 계층입니다.
package pipeline

import (
	"github.com/ldzDmons/nf-data-crawler/internal/product"
)

// Merge 목록, 상세, 추가 상세 레코드를 상품 ID 기준으로 병합합니다.
//
// 결과는 목록(primary)에 존재하는 상품마다 정확히 하나의 레코드이며,
// 목록에 없는 상세/추가 상세 레코드는 버려집니다. 상세 정보가 없는 상품도
// 목록 정보만으로 레코드가 유지됩니다(누락 없음).
//
// 병합은 순수 함수이며 같은 입력에 대해 항상 같은 결과를 반환합니다.
// 상품 ID는 항상 목록 레코드의 값이 유지됩니다.
func Merge(summaries []product.Summary, details []product.Detail, extendeds []product.Extended) []product.Composite {
	detailByID := make(map[string]*product.Detail, len(details))
	for i := range details {
		detailByID[details[i].ID] = &details[i]
	}

	extendedByID := make(map[string]*product.Extended, len(extendeds))
	for i := range extendeds {
		extendedByID[extendeds[i].ID] = &extendeds[i]
	}

	merged := make([]product.Composite, 0, len(summaries))
	for _, s := range summaries {
		c := product.Composite{Summary: s}
		if d, ok := detailByID[s.ID]; ok {
			clone := *d
			clone.ID = s.ID
			c.Detail = &clone
		}
		if e, ok := extendedByID[s.ID]; ok {
			clone := *e
			clone.ID = s.ID
			c.Extended = &clone
		}
		merged = append(merged, c)
	}

	return merged
}
