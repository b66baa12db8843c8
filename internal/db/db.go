// Package db 병합된 상품 레코드를 PostgreSQL에 적재하는 영속화 계층입니다.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
)

// Querier 적재에 필요한 최소한의 쿼리 실행 인터페이스입니다.
// *pgxpool.Pool이 이를 만족하며, 테스트에서는 가짜 구현으로 대체합니다.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Connect 데이터베이스 연결 풀을 생성하고 연결 가능 여부를 확인합니다.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, "데이터베이스 연결 풀 생성에 실패했습니다")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, "데이터베이스 연결 확인에 실패했습니다")
	}

	applog.WithComponent("db").Info("데이터베이스에 연결되었습니다")
	return pool, nil
}

// EnsureSchema 적재에 필요한 테이블이 없으면 생성합니다.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, ddl := range schemaDDL {
		if _, err := q.Exec(ctx, ddl); err != nil {
			return apperrors.Wrap(err, apperrors.ErrSystem, fmt.Sprintf("테이블 생성에 실패했습니다: %s", firstLine(ddl)))
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
