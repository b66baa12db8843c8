// Package product 수집 파이프라인의 각 단계가 주고받는 상품 레코드 타입을 정의합니다.
package product

// Summary 목록 API에서 추출한 상품 기본 정보입니다.
//
// 목록 API는 버전에 따라 서로 다른 필드명을 사용하므로, 추출 단계에서
// 별칭(alias) 매핑을 거쳐 이 구조체의 표준 필드로 정규화됩니다.
// 표준 필드에 매핑되지 않은 스칼라 필드는 Extra에 그대로 보존됩니다.
type Summary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	ThumbnailAlt string `json:"thumbnail_alt,omitempty"`
	ClickCount   int64  `json:"click_count,omitempty"`
	Price        string `json:"price,omitempty"`
	Source       string `json:"source,omitempty"`
	Area         string `json:"area,omitempty"`
	Tag          string `json:"tag,omitempty"`
	Icon         string `json:"icon,omitempty"`

	// TagTime 변경 감지에 사용되는 변동성 마커입니다.
	// 원본 JSON 표현 그대로 보존되어 바이트 단위로 비교됩니다.
	// 예: 숫자 0은 "0", 문자열 "0"은 "\"0\""으로 저장되어 타입 변경도 감지됩니다.
	TagTime string `json:"tag_time,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Detail 공개 HTML 상세 페이지에서 파싱한 상품 상세 정보입니다.
// 페이지의 중국어 속성 키는 파싱 단계에서 표준 필드명으로 정규화됩니다.
type Detail struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	Brand               string `json:"brand,omitempty"`
	Series              string `json:"series,omitempty"`
	Origin              string `json:"origin,omitempty"`
	MilkSource          string `json:"milk_source,omitempty"`
	AgeRange            string `json:"age_range,omitempty"`
	Manufacturer        string `json:"manufacturer,omitempty"`
	Operator            string `json:"operator,omitempty"`
	Specification       string `json:"specification,omitempty"`
	Stage               string `json:"stage,omitempty"`
	ReferencePrice      string `json:"reference_price,omitempty"`
	Category            string `json:"category,omitempty"`
	Version             string `json:"version,omitempty"`
	FormulaRegistration string `json:"formula_registration,omitempty"`

	Ingredients  string `json:"ingredients,omitempty"`
	NutrientText string `json:"nutrient_text,omitempty"`
	Commentary   string `json:"commentary,omitempty"`

	// Extra 표준 필드로 매핑되지 않은 속성 키/값 쌍
	Extra map[string]string `json:"extra,omitempty"`
}

// Nutrient 영양성분표의 성분 1건입니다.
type Nutrient struct {
	Content     string `json:"content,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description,omitempty"`
}

// ExtendedStatus 인증 상세 API 조회 결과의 상태값입니다.
type ExtendedStatus string

const (
	// StatusOK 정상적으로 데이터를 확보한 상태 (빈 문자열)
	StatusOK ExtendedStatus = ""

	// StatusNoData 서버가 해당 상품의 데이터가 없다고 응답한 상태
	StatusNoData ExtendedStatus = "no-data"

	// StatusLoginRequired 재인증에 실패하여 데이터를 확보하지 못한 상태
	StatusLoginRequired ExtendedStatus = "login-required"

	// StatusFetchFailed 재시도 횟수를 모두 소진하고도 응답을 받지 못한 상태
	StatusFetchFailed ExtendedStatus = "fetch-failed"

	// StatusParseError 응답은 받았으나 처리 중 오류가 발생한 상태
	StatusParseError ExtendedStatus = "parse-error"
)

// Extended 인증이 필요한 상세 API에서 확보한 추가 상세 정보입니다.
//
// 조회에 실패한 경우에도 Status가 기록된 레코드가 생성되며,
// 어떤 상품 ID도 결과에서 누락되지 않습니다.
type Extended struct {
	ID     string         `json:"id"`
	Status ExtendedStatus `json:"status,omitempty"`

	FormulaComment string `json:"formula_comment,omitempty"`
	Ingredients    string `json:"ingredients,omitempty"`

	Nutrients map[string]Nutrient `json:"nutrients,omitempty"`

	// Extra 응답에서 표준 필드로 매핑되지 않은 나머지 필드 (키: extra_<원본 키>)
	Extra map[string]any `json:"extra,omitempty"`
}

// Composite 목록, 상세, 추가 상세 정보를 상품 ID 기준으로 병합한 최종 레코드입니다.
// 상세 정보가 확보되지 않은 상품도 목록 정보만으로 레코드를 유지합니다.
type Composite struct {
	Summary

	Detail   *Detail   `json:"detail,omitempty"`
	Extended *Extended `json:"extended,omitempty"`
}
