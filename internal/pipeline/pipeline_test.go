package pipeline

import (
	"context"
	"testing"

	"github.com/ldzDmons/nf-data-crawler/internal/db"
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/ldzDmons/nf-data-crawler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeListing struct {
	summaries []product.Summary
	err       error
}

func (f *fakeListing) Run(_ context.Context) ([]product.Summary, error) {
	return f.summaries, f.err
}

type fakeDetail struct {
	details []product.Detail
	gotIDs  []string
}

func (f *fakeDetail) Run(_ context.Context, productIDs []string) ([]product.Detail, error) {
	f.gotIDs = productIDs
	return f.details, nil
}

type fakeExtended struct {
	extendeds []product.Extended
	gotIDs    []string
}

func (f *fakeExtended) Run(_ context.Context, productIDs []string) ([]product.Extended, error) {
	f.gotIDs = productIDs
	return f.extendeds, nil
}

type fakePersister struct {
	imported []product.Composite
	err      error
}

func (f *fakePersister) ImportAll(_ context.Context, records []product.Composite) (db.ImportCounts, error) {
	f.imported = records
	return db.ImportCounts{Products: len(records)}, f.err
}

func TestPipeline_Run(t *testing.T) {
	listing := &fakeListing{summaries: []product.Summary{
		{ID: "1", Name: "a", TagTime: "100"},
		{ID: "2", Name: "b", TagTime: "200"},
	}}
	detail := &fakeDetail{details: []product.Detail{{ID: "1", Brand: "X"}}}
	extended := &fakeExtended{extendeds: []product.Extended{
		{ID: "1", FormulaComment: "평가"},
		{ID: "2", Status: product.StatusNoData},
	}}
	persister := &fakePersister{}
	st := store.NewMemoryStore()

	p := New(listing, detail, extended, nil, persister, st)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{"1", "2"}, detail.gotIDs)
	assert.Equal(t, []string{"1", "2"}, extended.gotIDs)

	// 적재된 레코드는 목록 전체를 포함하며, 상세가 없는 상품도 유지됩니다.
	require.Len(t, persister.imported, 2)
	require.NotNil(t, persister.imported[0].Detail)
	assert.Nil(t, persister.imported[1].Detail)

	// 단계별 스냅샷이 저장됩니다.
	var combined, full []product.Composite
	require.NoError(t, st.Get(store.StageCombined, &combined))
	require.NoError(t, st.Get(store.StageFullData, &full))
	assert.Len(t, combined, 2)
	assert.Nil(t, combined[0].Extended)
	require.NotNil(t, full[0].Extended)
}

func TestPipeline_Run_ChangeFilterSkipsUnchanged(t *testing.T) {
	listing := &fakeListing{summaries: []product.Summary{
		{ID: "1", TagTime: "100"},
		{ID: "2", TagTime: "200"},
	}}
	detail := &fakeDetail{details: []product.Detail{{ID: "2"}}}
	extended := &fakeExtended{extendeds: []product.Extended{{ID: "2"}}}
	filter := NewChangeFilter(&fakeMarkerSource{markers: map[string]string{"1": "100", "2": "999"}})

	p := New(listing, detail, extended, filter, nil, store.NewMemoryStore())
	require.NoError(t, p.Run(context.Background()))

	// 변경되지 않은 상품(1)은 하류 단계에서 완전히 제외됩니다.
	assert.Equal(t, []string{"2"}, detail.gotIDs)
	assert.Equal(t, []string{"2"}, extended.gotIDs)
}

func TestPipeline_Run_NothingChangedIsSuccess(t *testing.T) {
	listing := &fakeListing{summaries: []product.Summary{{ID: "1", TagTime: "100"}}}
	detail := &fakeDetail{}
	extended := &fakeExtended{}
	filter := NewChangeFilter(&fakeMarkerSource{markers: map[string]string{"1": "100"}})

	p := New(listing, detail, extended, filter, nil, store.NewMemoryStore())
	require.NoError(t, p.Run(context.Background()))

	// 하류 단계는 실행되지 않습니다.
	assert.Nil(t, detail.gotIDs)
	assert.Nil(t, extended.gotIDs)
}

func TestPipeline_Run_EmptyListingFails(t *testing.T) {
	p := New(&fakeListing{}, &fakeDetail{}, &fakeExtended{}, nil, nil, store.NewMemoryStore())

	err := p.Run(context.Background())
	require.Error(t, err)
}

func TestPipeline_Run_EmptyDetailsFails(t *testing.T) {
	listing := &fakeListing{summaries: []product.Summary{{ID: "1"}}}

	p := New(listing, &fakeDetail{}, &fakeExtended{}, nil, nil, store.NewMemoryStore())
	require.Error(t, p.Run(context.Background()))
}

func TestPipeline_Run_PersistErrorSurfaced(t *testing.T) {
	listing := &fakeListing{summaries: []product.Summary{{ID: "1"}}}
	detail := &fakeDetail{details: []product.Detail{{ID: "1"}}}
	extended := &fakeExtended{extendeds: []product.Extended{{ID: "1"}}}
	persister := &fakePersister{err: assert.AnError}

	p := New(listing, detail, extended, nil, persister, store.NewMemoryStore())
	require.Error(t, p.Run(context.Background()))
}

func TestPipeline_Run_CancelIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 취소된 컨텍스트에서는 수집 단계가 부분 결과를 반환하고 파이프라인은 정상 종료합니다.
	listing := &fakeListing{summaries: []product.Summary{{ID: "1"}}}
	p := New(listing, &fakeDetail{}, &fakeExtended{}, nil, nil, store.NewMemoryStore())
	require.NoError(t, p.Run(ctx))
}
