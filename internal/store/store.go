// Package store 파이프라인 각 단계의 결과 스냅샷과 재개(resume)용 체크포인트를 저장합니다.
package store

import (
	"github.com/ldzDmons/nf-data-crawler/internal/product"
)

// 파이프라인 단계별 스냅샷 이름
const (
	StageProducts    = "products"
	StageDetails     = "details"
	StageMoreDetails = "more_details"
	StageCombined    = "combined"
	StageFullData    = "full_data"
)

// Checkpoint 목록 수집 단계의 중단 지점 정보입니다.
// 수집이 중단된 경우 다음 실행에서 이 지점부터 재개합니다.
type Checkpoint struct {
	NextPage int               `json:"next_page"`
	Products []product.Summary `json:"products"`
}

// Store 단계별 결과 스냅샷과 체크포인트를 저장하고 불러오는 저장소 인터페이스
type Store interface {
	// Put 단계의 결과를 스냅샷으로 저장합니다.
	Put(stage string, v interface{}) error

	// Get 단계의 최신 스냅샷을 읽어옵니다. 스냅샷이 없으면 에러 없이 v를 변경하지 않습니다.
	Get(stage string, v interface{}) error

	// PutCheckpoint 목록 수집 중단 지점을 저장합니다.
	PutCheckpoint(cp *Checkpoint) error

	// LoadCheckpoint 저장된 중단 지점을 읽어옵니다. 없으면 (nil, nil)을 반환합니다.
	LoadCheckpoint() (*Checkpoint, error)

	// ClearCheckpoint 수집 완료 후 중단 지점 정보를 제거합니다.
	ClearCheckpoint() error
}
