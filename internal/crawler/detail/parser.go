// Package detail 공개 HTML 상세 페이지를 수집하고 구조화된 상품 상세 정보로 파싱하는 수집 단계입니다.
package detail

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
)

// attributeFields 상세 페이지의 중국어 속성 키를 표준 필드로 매핑합니다.
// 매핑되지 않은 키는 원본 그대로 Extra에 보존됩니다.
var attributeFields = map[string]func(*product.Detail, string){
	"品牌":    func(d *product.Detail, v string) { d.Brand = v },
	"系列":    func(d *product.Detail, v string) { d.Series = v },
	"产地":    func(d *product.Detail, v string) { d.Origin = v },
	"奶源":    func(d *product.Detail, v string) { d.MilkSource = v },
	"适用年龄":  func(d *product.Detail, v string) { d.AgeRange = v },
	"厂家":    func(d *product.Detail, v string) { d.Manufacturer = v },
	"运营商":   func(d *product.Detail, v string) { d.Operator = v },
	"规格":    func(d *product.Detail, v string) { d.Specification = v },
	"段位":    func(d *product.Detail, v string) { d.Stage = v },
	"参考价":   func(d *product.Detail, v string) { d.ReferencePrice = v },
	"类别":    func(d *product.Detail, v string) { d.Category = v },
	"版本":    func(d *product.Detail, v string) { d.Version = v },
	"配方注册号": func(d *product.Detail, v string) { d.FormulaRegistration = v },
}

var registrationPattern = regexp.MustCompile(`配方注册号：\s*(\S+)`)

// Parse 상세 페이지 문서에서 상품 상세 정보를 추출합니다.
//
// 제목, 속성 목록(좌/우 블록), 본문 블록(配料表/营养成分/奶粉点评) 중 어느 것도
// 추출되지 않으면 페이지 구조가 변경된 것으로 간주하고 파싱 실패를 반환합니다.
func Parse(doc *goquery.Document, productID string) (*product.Detail, error) {
	d := &product.Detail{ID: productID}
	extracted := false

	if name := strings.TrimSpace(doc.Find("h1.title").First().Text()); name != "" {
		d.Name = name
		extracted = true
	}

	// 좌측 속성 블록
	doc.Find("ul.left.new-left-box li.item").Each(func(_ int, s *goquery.Selection) {
		if key, value, ok := splitAttribute(s.Text()); ok {
			setAttribute(d, key, value)
			extracted = true
		}
	})

	// 우측 속성 블록. 가격 계열 키는 통화 기호를 제거합니다.
	doc.Find("ul.right li.item").Each(func(_ int, s *goquery.Selection) {
		key, value, ok := splitAttribute(s.Text())
		if !ok {
			return
		}
		if strings.Contains(key, "价") {
			value = strings.TrimSpace(strings.ReplaceAll(value, "￥", ""))
		}
		setAttribute(d, key, value)
		extracted = true
	})

	if text := blockText(doc, "div#mixtu"); text != "" {
		d.Ingredients = text
		extracted = true
	}
	if text := blockText(doc, "div#nutrient"); text != "" {
		d.NutrientText = text
		extracted = true
	}
	if text := blockText(doc, "div#fg_comment"); text != "" {
		d.Commentary = text
		extracted = true
	}

	// 속성 목록 파싱에 실패한 경우를 대비한 정규식 기반의 최후 수단
	if d.FormulaRegistration == "" {
		if m := registrationPattern.FindStringSubmatch(doc.Find("ul.right").Text()); m != nil {
			d.FormulaRegistration = m[1]
			extracted = true
		}
	}

	if !extracted {
		return nil, apperrors.New(apperrors.ErrParseFailed, "상세 페이지에서 어떤 필드도 추출하지 못했습니다")
	}

	return d, nil
}

// splitAttribute "키：값" 형태의 속성 텍스트를 분리합니다.
func splitAttribute(text string) (key, value string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(text), "：", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

func setAttribute(d *product.Detail, key, value string) {
	if set, ok := attributeFields[key]; ok {
		set(d, value)
		return
	}
	if d.Extra == nil {
		d.Extra = make(map[string]string)
	}
	d.Extra[key] = value
}

// blockText 지정된 셀렉터 블록의 텍스트를 공백 정리 후 반환합니다.
func blockText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
