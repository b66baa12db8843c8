package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name      string
		payload   string
		format    Format
		itemCount int
	}{
		{
			name:      "신형 API 구조 (data.list)",
			payload:   `{"data":{"list":[{"id":"5","name":"Formula A"}],"total":1,"per_page":20}}`,
			format:    FormatDataList,
			itemCount: 1,
		},
		{
			name:      "data.list가 빈 배열이어도 data_list로 분류",
			payload:   `{"data":{"list":[],"total":0}}`,
			format:    FormatDataList,
			itemCount: 0,
		},
		{
			name:      "구형 API 구조 (normal + topping)",
			payload:   `{"normal":[{"id":1,"name":"a"},{"id":2,"name":"b"}],"topping":[{"id":3,"name":"c"}]}`,
			format:    FormatNormalTopping,
			itemCount: 3,
		},
		{
			name:      "topping이 null이어도 normal_topping으로 분류",
			payload:   `{"normal":[{"id":1,"name":"a"}],"topping":null}`,
			format:    FormatNormalTopping,
			itemCount: 1,
		},
		{
			name:      "topping만 존재",
			payload:   `{"topping":[{"id":3,"name":"c"}]}`,
			format:    FormatToppingOnly,
			itemCount: 1,
		},
		{
			name:      "상품처럼 보이는 객체 배열을 가진 최상위 키",
			payload:   `{"result":[{"id":1,"name":"a","price":"10"}]}`,
			format:    FormatKeyedList,
			itemCount: 1,
		},
		{
			name:    "지표 필드가 1개뿐인 배열은 상품 목록으로 보지 않음",
			payload: `{"messages":[{"text":"hello","id":1}]}`,
			format:  FormatUnknown,
		},
		{
			name:      "응답 자체가 객체 배열",
			payload:   `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`,
			format:    FormatBareList,
			itemCount: 2,
		},
		{
			name:      "중첩 구조는 깊이 제한 탐색으로 발견",
			payload:   `{"payload":{"inner":{"items":[{"id":1,"name":"a","price":"10"}]}}}`,
			format:    FormatDeepSearch,
			itemCount: 1,
		},
		{
			name:    "어떤 규칙에도 맞지 않는 구조",
			payload: `{"message":"error","code":500}`,
			format:  FormatUnknown,
		},
		{
			name:    "빈 객체",
			payload: `{}`,
			format:  FormatUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(gjson.Parse(tc.payload))
			assert.Equal(t, tc.format, c.Format)
			assert.Len(t, c.Items, tc.itemCount)
		})
	}
}

func TestClassify_RulePriority(t *testing.T) {
	// data.list와 상품 배열을 가진 최상위 키가 동시에 존재하면 data_list가 우선합니다.
	payload := gjson.Parse(`{"data":{"list":[{"id":"5","name":"Formula A"}]},"result":[{"id":9,"name":"x","price":"1"}]}`)

	c := Classify(payload)
	assert.Equal(t, FormatDataList, c.Format)
	assert.Equal(t, "5", c.Items[0].Get("id").String())
}

func TestClassify_KeyedListRecordsKey(t *testing.T) {
	c := Classify(gjson.Parse(`{"products":[{"id":1,"name":"a","thumbnail":"t.png"}]}`))

	assert.Equal(t, FormatKeyedList, c.Format)
	assert.Equal(t, "products", c.Key)
}

func TestClassifyBytes_InvalidJSON(t *testing.T) {
	c := ClassifyBytes([]byte(`not json at all`))
	assert.Equal(t, FormatUnknown, c.Format)
}

func TestIsLikelyProduct(t *testing.T) {
	assert.True(t, isLikelyProduct(gjson.Parse(`{"id":1,"name":"a"}`)))
	assert.True(t, isLikelyProduct(gjson.Parse(`{"price":"10","thumbnail":"t.png"}`)))
	assert.False(t, isLikelyProduct(gjson.Parse(`{"id":1,"text":"hello"}`)))
	assert.False(t, isLikelyProduct(gjson.Parse(`{"foo":"bar"}`)))
}

func TestDeepSearchProducts_DepthLimit(t *testing.T) {
	// 깊이 3을 초과하는 중첩 구조에서는 목록을 찾지 못해야 합니다.
	payload := gjson.Parse(`{"a":{"b":{"c":{"d":{"items":[{"id":1,"name":"x","price":"1"}]}}}}}`)

	c := Classify(payload)
	assert.Equal(t, FormatUnknown, c.Format)
}
