package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	"github.com/ldzDmons/nf-data-crawler/pkg/strutil"
)

// FileStore 파일 시스템 기반의 단계 결과 저장소 구현체
//
// 스냅샷은 `<단계>_<타임스탬프>.json` 파일로 이력이 보존되며,
// 동일한 내용이 `<단계>_latest.json`에도 기록되어 후속 단계가 최신 결과를 찾을 수 있습니다.
type FileStore struct {
	dir string
	mu  sync.Mutex // 파일 쓰기 동시성 제어를 위한 뮤텍스
}

// NewFileStore 지정된 디렉토리를 사용하는 파일 기반 저장소를 생성합니다.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, fmt.Sprintf("결과 저장 디렉토리(%s) 생성에 실패했습니다", dir))
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) latestFileName(stage string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_latest.json", strutil.ToSnakeCase(stage)))
}

func (s *FileStore) snapshotFileName(stage string, now time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", strutil.ToSnakeCase(stage), now.Format("20060102_150405")))
}

func (s *FileStore) checkpointFileName() string {
	return filepath.Join(s.dir, "crawl_checkpoint.json")
}

// Put 단계의 결과를 타임스탬프 스냅샷과 latest 파일에 저장합니다.
func (s *FileStore) Put(stage string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, fmt.Sprintf("단계(%s) 결과 데이터 마샬링에 실패했습니다", stage))
	}

	// 파일 권한 0644: Owner(RW), Group(R), Others(R)
	if err := os.WriteFile(s.snapshotFileName(stage, time.Now()), data, os.FileMode(0644)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, fmt.Sprintf("단계(%s) 스냅샷 파일 쓰기에 실패했습니다", stage))
	}
	if err := os.WriteFile(s.latestFileName(stage), data, os.FileMode(0644)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, fmt.Sprintf("단계(%s) latest 파일 쓰기에 실패했습니다", stage))
	}

	return nil
}

// Get 단계의 최신 스냅샷을 읽어옵니다.
func (s *FileStore) Get(stage string, v interface{}) error {
	data, err := os.ReadFile(s.latestFileName(stage))
	if err != nil {
		// 아직 데이터 파일이 생성되기 전이라면 nil을 반환한다.
		var pathError *os.PathError
		if errors.As(err, &pathError) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrInternal, fmt.Sprintf("단계(%s) 결과 데이터 파일을 읽는데 실패했습니다", stage))
	}

	return json.Unmarshal(data, v)
}

// PutCheckpoint 목록 수집 중단 지점을 저장합니다.
func (s *FileStore) PutCheckpoint(cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cp, "", "\t")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "체크포인트 데이터 마샬링에 실패했습니다")
	}

	if err := os.WriteFile(s.checkpointFileName(), data, os.FileMode(0644)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "체크포인트 파일 쓰기에 실패했습니다")
	}

	return nil
}

// LoadCheckpoint 저장된 중단 지점을 읽어옵니다.
func (s *FileStore) LoadCheckpoint() (*Checkpoint, error) {
	data, err := os.ReadFile(s.checkpointFileName())
	if err != nil {
		var pathError *os.PathError
		if errors.As(err, &pathError) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "체크포인트 파일을 읽는데 실패했습니다")
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "체크포인트 데이터 파싱에 실패했습니다")
	}

	return &cp, nil
}

// ClearCheckpoint 수집 완료 후 중단 지점 정보를 제거합니다.
func (s *FileStore) ClearCheckpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.checkpointFileName()); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, apperrors.ErrInternal, "체크포인트 파일 삭제에 실패했습니다")
	}
	return nil
}
