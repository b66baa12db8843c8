package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestExtract(t *testing.T) {
	payload := gjson.Parse(`[
		{"id":5,"name":"Formula A","image":"a.png","clicks":120,"price":"398","country":"荷兰","tag":"hot","tag_time":1700000000,"icon":"new.png"},
		{"id":"6","name":"Formula B","thumbnail":"b.png","m_click":"42","m_source":"官方"},
		{"text":"광고 배너"},
		"not an object"
	]`)

	products := Extract(payload.Array(), false)
	require.Len(t, products, 2)

	a := products[0]
	assert.Equal(t, "5", a.ID)
	assert.Equal(t, "Formula A", a.Name)
	assert.Equal(t, "a.png", a.Thumbnail)
	assert.Equal(t, int64(120), a.ClickCount)
	assert.Equal(t, "398", a.Price)
	assert.Equal(t, "荷兰", a.Area)
	assert.Equal(t, "hot", a.Tag)
	assert.Equal(t, "1700000000", a.TagTime)
	assert.Equal(t, "new.png", a.Icon)

	b := products[1]
	assert.Equal(t, "6", b.ID)
	assert.Equal(t, "b.png", b.Thumbnail)
	assert.Equal(t, int64(42), b.ClickCount)
	assert.Equal(t, "官方", b.Source)
}

func TestExtract_SkipWithoutIDAndName(t *testing.T) {
	payload := gjson.Parse(`[
		{"price":"10","image":"x.png"},
		{"id":1},
		{"name":"이름만 있는 상품"}
	]`)

	products := Extract(payload.Array(), false)
	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "이름만 있는 상품", products[1].Name)
}

func TestExtract_TagsArrayJoined(t *testing.T) {
	payload := gjson.Parse(`[{"id":1,"name":"a","tags":["hot","new","sale"]}]`)

	products := Extract(payload.Array(), false)
	require.Len(t, products, 1)
	assert.Equal(t, "hot,new,sale", products[0].Tag)
}

func TestExtract_TagTimePreservesRawToken(t *testing.T) {
	// 숫자 0과 문자열 "0"은 서로 다른 마커로 구분되어야 합니다.
	numeric := Extract(gjson.Parse(`[{"id":1,"name":"a","tag_time":0}]`).Array(), false)
	quoted := Extract(gjson.Parse(`[{"id":1,"name":"a","tag_time":"0"}]`).Array(), false)

	require.Len(t, numeric, 1)
	require.Len(t, quoted, 1)
	assert.Equal(t, `0`, numeric[0].TagTime)
	assert.Equal(t, `"0"`, quoted[0].TagTime)
	assert.NotEqual(t, numeric[0].TagTime, quoted[0].TagTime)
}

func TestExtract_UnmappedScalarsToExtra(t *testing.T) {
	payload := gjson.Parse(`[{"id":1,"name":"a","stock":35,"brand_code":"bc-1","meta":{"x":1},"list":[1,2]}]`)

	products := Extract(payload.Array(), false)
	require.Len(t, products, 1)

	extra := products[0].Extra
	assert.Equal(t, float64(35), extra["stock"])
	assert.Equal(t, "bc-1", extra["brand_code"])

	// 객체와 배열은 Extra로 전달되지 않습니다.
	assert.NotContains(t, extra, "meta")
	assert.NotContains(t, extra, "list")
}

func TestExtract_Dedupe(t *testing.T) {
	payload := gjson.Parse(`[
		{"id":1,"name":"first"},
		{"id":1,"name":"duplicate"},
		{"id":2,"name":"second"}
	]`)

	// 기본 동작은 중복을 유지합니다.
	assert.Len(t, Extract(payload.Array(), false), 3)

	// 중복 제거가 켜지면 같은 id의 첫 항목만 유지됩니다.
	deduped := Extract(payload.Array(), true)
	require.Len(t, deduped, 2)
	assert.Equal(t, "first", deduped[0].Name)
	assert.Equal(t, "second", deduped[1].Name)
}

func TestExtract_FloatIDNormalized(t *testing.T) {
	products := Extract(gjson.Parse(`[{"id":7.0,"name":"a"}]`).Array(), false)

	require.Len(t, products, 1)
	assert.Equal(t, "7", products[0].ID)
}
