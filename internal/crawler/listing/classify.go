// Package listing 목록 API의 페이지 응답을 분류하고 상품 기본 정보를 추출하는 수집 단계입니다.
package listing

import (
	"github.com/tidwall/gjson"
)

// Format 목록 API 응답의 스키마 형태입니다.
//
// 대상 사이트는 운영 기간 동안 응답 구조를 여러 차례 예고 없이 변경해 왔으므로,
// 알려진 모든 형태를 순서대로 검사하고 어떤 형태에도 맞지 않으면
// 실패 대신 FormatUnknown으로 분류하여 점진적으로 성능이 저하되도록 합니다.
type Format string

const (
	// FormatDataList 신형 API 구조: data.list 경로에 상품 목록
	FormatDataList Format = "data_list"

	// FormatNormalTopping 구형 API 구조: normal + topping 목록의 연결 (한쪽이 null이어도 허용)
	FormatNormalTopping Format = "normal_topping"

	// FormatToppingOnly 구형 API 구조 변형: topping 목록만 존재
	FormatToppingOnly Format = "topping_only"

	// FormatKeyedList 최상위 키 중 상품처럼 보이는 객체 배열을 가진 키에서 추출
	FormatKeyedList Format = "keyed_list"

	// FormatBareList 응답 자체가 상품 객체 배열
	FormatBareList Format = "bare_list"

	// FormatDeepSearch 제한된 깊이(3)의 재귀 탐색으로 발견한 목록
	FormatDeepSearch Format = "deep_search"

	// FormatUnknown 어떤 규칙에도 맞지 않는 구조
	FormatUnknown Format = "unknown"
)

// Classification 분류 결과입니다.
type Classification struct {
	Format Format

	// Key FormatKeyedList인 경우 목록이 발견된 최상위 키
	Key string

	// Items 분류된 형태에서 꺼낸 상품 후보 목록
	Items []gjson.Result
}

// rule 하나의 스키마 판별 규칙입니다. 규칙은 순수 함수이며 순서대로 평가되어 첫 일치가 선택됩니다.
type rule struct {
	format Format
	match  func(payload gjson.Result) (Classification, bool)
}

var rules = []rule{
	{FormatDataList, matchDataList},
	{FormatNormalTopping, matchNormalTopping},
	{FormatToppingOnly, matchToppingOnly},
	{FormatKeyedList, matchKeyedList},
	{FormatBareList, matchBareList},
	{FormatDeepSearch, matchDeepSearch},
}

// Classify 응답 페이로드를 알려진 스키마 형태 중 하나로 분류합니다.
// 규칙은 우선순위 순서로 평가되며 첫 일치가 선택됩니다.
func Classify(payload gjson.Result) Classification {
	for _, r := range rules {
		if c, ok := r.match(payload); ok {
			return c
		}
	}
	return Classification{Format: FormatUnknown}
}

// ClassifyBytes 원본 JSON 바이트를 파싱하여 분류합니다.
func ClassifyBytes(data []byte) Classification {
	if !gjson.ValidBytes(data) {
		return Classification{Format: FormatUnknown}
	}
	return Classify(gjson.ParseBytes(data))
}

func matchDataList(payload gjson.Result) (Classification, bool) {
	data := payload.Get("data")
	if !data.IsObject() {
		return Classification{}, false
	}
	list := data.Get("list")
	if !list.Exists() {
		return Classification{}, false
	}
	return Classification{Format: FormatDataList, Items: list.Array()}, true
}

func matchNormalTopping(payload gjson.Result) (Classification, bool) {
	if !payload.IsObject() || !payload.Get("normal").Exists() {
		return Classification{}, false
	}
	// topping이 없거나 null이어도 실패하지 않고 빈 목록으로 취급합니다.
	items := append(payload.Get("normal").Array(), payload.Get("topping").Array()...)
	return Classification{Format: FormatNormalTopping, Items: items}, true
}

func matchToppingOnly(payload gjson.Result) (Classification, bool) {
	if !payload.IsObject() || !payload.Get("topping").Exists() {
		return Classification{}, false
	}
	items := append(payload.Get("normal").Array(), payload.Get("topping").Array()...)
	return Classification{Format: FormatToppingOnly, Items: items}, true
}

func matchKeyedList(payload gjson.Result) (Classification, bool) {
	if !payload.IsObject() {
		return Classification{}, false
	}

	var found Classification
	var matched bool
	payload.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			return true
		}
		items := value.Array()
		if len(items) == 0 || !items[0].IsObject() {
			return true
		}
		if !isLikelyProduct(items[0]) {
			return true
		}
		found = Classification{Format: FormatKeyedList, Key: key.String(), Items: items}
		matched = true
		return false
	})

	return found, matched
}

func matchBareList(payload gjson.Result) (Classification, bool) {
	if !payload.IsArray() {
		return Classification{}, false
	}
	items := payload.Array()
	if len(items) == 0 || !items[0].IsObject() {
		return Classification{}, false
	}
	return Classification{Format: FormatBareList, Items: items}, true
}

// maxSearchDepth 재귀 탐색의 최대 깊이
const maxSearchDepth = 3

func matchDeepSearch(payload gjson.Result) (Classification, bool) {
	items := deepSearchProducts(payload, 0)
	if len(items) == 0 {
		return Classification{}, false
	}
	return Classification{Format: FormatDeepSearch, Items: items}, true
}

// deepSearchProducts 중첩된 객체/배열을 제한된 깊이까지 재귀적으로 탐색하여
// 상품처럼 보이는 객체 배열을 찾습니다.
func deepSearchProducts(node gjson.Result, depth int) []gjson.Result {
	if depth > maxSearchDepth {
		return nil
	}

	if node.IsObject() {
		var found []gjson.Result
		node.ForEach(func(_, value gjson.Result) bool {
			if value.IsArray() {
				items := value.Array()
				if len(items) > 0 && items[0].IsObject() && isLikelyProduct(items[0]) {
					found = items
					return false
				}
			}
			if result := deepSearchProducts(value, depth+1); len(result) > 0 {
				found = result
				return false
			}
			return true
		})
		return found
	}

	if node.IsArray() {
		items := node.Array()
		if len(items) > 0 && items[0].IsObject() && isLikelyProduct(items[0]) {
			return items
		}
		for _, item := range items {
			if result := deepSearchProducts(item, depth+1); len(result) > 0 {
				return result
			}
		}
	}

	return nil
}

// productIndicators 상품 데이터 여부를 판별하는 지표 필드
var productIndicators = []string{"id", "name", "price", "image", "thumbnail"}

// isLikelyProduct 지표 필드 중 2개 이상을 가진 객체를 상품 데이터로 간주합니다.
func isLikelyProduct(item gjson.Result) bool {
	matched := 0
	for _, field := range productIndicators {
		if item.Get(field).Exists() {
			matched++
		}
	}
	return matched >= 2
}
