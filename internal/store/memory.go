package store

import (
	"encoding/json"
	"sync"

	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
)

// MemoryStore 메모리 기반의 단계 결과 저장소 구현체 (테스트용)
type MemoryStore struct {
	mu         sync.RWMutex
	snapshots  map[string][]byte
	checkpoint []byte
}

// NewMemoryStore 새로운 메모리 기반 저장소를 생성합니다.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(stage string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "단계 결과 데이터 마샬링에 실패했습니다")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[stage] = data
	return nil
}

func (s *MemoryStore) Get(stage string, v interface{}) error {
	s.mu.RLock()
	data, ok := s.snapshots[stage]
	s.mu.RUnlock()

	if !ok {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *MemoryStore) PutCheckpoint(cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "체크포인트 데이터 마샬링에 실패했습니다")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = data
	return nil
}

func (s *MemoryStore) LoadCheckpoint() (*Checkpoint, error) {
	s.mu.RLock()
	data := s.checkpoint
	s.mu.RUnlock()

	if data == nil {
		return nil, nil
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "체크포인트 데이터 파싱에 실패했습니다")
	}
	return &cp, nil
}

func (s *MemoryStore) ClearCheckpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = nil
	return nil
}
