package pipeline

import (
	"testing"

	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	summaries := []product.Summary{
		{ID: "5", Name: "Formula A", Price: "10"},
		{ID: "6", Name: "Formula B"},
	}
	details := []product.Detail{
		{ID: "5", Brand: "X"},
		{ID: "999", Brand: "목록에 없는 상품"},
	}
	extendeds := []product.Extended{
		{ID: "5", FormulaComment: "평가"},
	}

	merged := Merge(summaries, details, extendeds)
	require.Len(t, merged, 2)

	// 목록 + 상세 + 추가 상세가 모두 병합된 레코드
	first := merged[0]
	assert.Equal(t, "5", first.ID)
	assert.Equal(t, "10", first.Price)
	require.NotNil(t, first.Detail)
	assert.Equal(t, "X", first.Detail.Brand)
	require.NotNil(t, first.Extended)
	assert.Equal(t, "평가", first.Extended.FormulaComment)

	// 상세 정보가 없는 상품도 목록 정보만으로 유지됩니다.
	second := merged[1]
	assert.Equal(t, "6", second.ID)
	assert.Nil(t, second.Detail)
	assert.Nil(t, second.Extended)
}

func TestMerge_Idempotent(t *testing.T) {
	summaries := []product.Summary{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	details := []product.Detail{{ID: "1", Brand: "X"}}
	extendeds := []product.Extended{{ID: "2", Status: product.StatusNoData}}

	first := Merge(summaries, details, extendeds)
	second := Merge(summaries, details, extendeds)
	assert.Equal(t, first, second)
}

func TestMerge_IDImmutable(t *testing.T) {
	// 상세/추가 상세의 ID 표기가 달라도 목록의 ID가 유지됩니다.
	summaries := []product.Summary{{ID: "5", Name: "a"}}
	details := []product.Detail{{ID: "5", Brand: "X"}}

	merged := Merge(summaries, details, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, "5", merged[0].ID)
	assert.Equal(t, "5", merged[0].Detail.ID)
}

func TestMerge_EmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil, nil))

	merged := Merge([]product.Summary{{ID: "1"}}, nil, nil)
	require.Len(t, merged, 1)
	assert.Nil(t, merged[0].Detail)
}
