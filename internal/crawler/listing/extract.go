package listing

import (
	"strings"

	"github.com/ldzDmons/nf-data-crawler/internal/product"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	"github.com/ldzDmons/nf-data-crawler/pkg/strutil"
	"github.com/tidwall/gjson"
)

// 필드별 별칭 집합입니다. API 버전에 따라 같은 의미의 필드가 서로 다른 이름으로
// 내려오므로, 먼저 발견되는 별칭이 선택됩니다(first-match-wins).
var (
	thumbnailAliases  = []string{"image", "thumbnail", "img", "picture"}
	clickCountAliases = []string{"clicks", "m_click", "click_count", "views"}
	sourceAliases     = []string{"source", "m_source", "origin"}
	priceAliases      = []string{"price", "amount", "cost"}
	areaAliases       = []string{"country", "area", "region"}
	tagAliases        = []string{"tag", "label"}
)

// mappedKeys 표준 필드로 매핑이 끝난 키의 집합입니다. 나머지 스칼라 필드는 Extra로 전달됩니다.
var mappedKeys = func() map[string]bool {
	keys := map[string]bool{
		"id": true, "name": true, "tags": true,
		"tag_time": true, "icon": true, "thumbnail_alt": true,
	}
	for _, aliases := range [][]string{thumbnailAliases, clickCountAliases, sourceAliases, priceAliases, areaAliases, tagAliases} {
		for _, alias := range aliases {
			keys[alias] = true
		}
	}
	return keys
}()

// Extract 분류된 상품 후보 목록을 표준화된 Summary 목록으로 변환합니다.
//
// id와 name이 모두 비어있는 항목은 상품 데이터가 아닌 것으로 간주하여 조용히 버려집니다.
// 개별 항목의 오류는 로그로 남기고 건너뛰며, 배치 전체를 중단시키지 않습니다.
//
// dedupe가 켜진 경우 동일한 id의 항목은 첫 번째 것만 유지됩니다.
// 기본값(false)은 상류 소스의 동작대로 중복을 제거하지 않습니다.
func Extract(items []gjson.Result, dedupe bool) []product.Summary {
	logger := applog.WithComponent("crawler.listing")

	result := make([]product.Summary, 0, len(items))
	seen := make(map[string]bool)

	for _, item := range items {
		if !item.IsObject() {
			logger.Debug("객체가 아닌 항목을 건너뜁니다")
			continue
		}

		summary := extractOne(item)

		// id와 name이 모두 없으면 상품 데이터가 아닐 가능성이 높습니다.
		if summary.ID == "" && summary.Name == "" {
			logger.Debug("id와 name이 모두 없는 항목을 건너뜁니다")
			continue
		}

		if dedupe && summary.ID != "" {
			if seen[summary.ID] {
				continue
			}
			seen[summary.ID] = true
		}

		result = append(result, summary)
	}

	return result
}

func extractOne(item gjson.Result) product.Summary {
	summary := product.Summary{
		ID:   strutil.NormalizeID(item.Get("id").Value()),
		Name: item.Get("name").String(),
	}

	if v, ok := firstAlias(item, thumbnailAliases); ok {
		summary.Thumbnail = v.String()
	}
	if v, ok := firstAlias(item, clickCountAliases); ok {
		summary.ClickCount = v.Int()
	}
	if v, ok := firstAlias(item, sourceAliases); ok {
		summary.Source = v.String()
	}
	if v, ok := firstAlias(item, priceAliases); ok {
		summary.Price = v.String()
	}
	if v, ok := firstAlias(item, areaAliases); ok {
		summary.Area = v.String()
	}

	if v, ok := firstAlias(item, tagAliases); ok {
		summary.Tag = v.String()
	} else if tags := item.Get("tags"); tags.IsArray() {
		var parts []string
		for _, tag := range tags.Array() {
			parts = append(parts, tag.String())
		}
		summary.Tag = strings.Join(parts, ",")
	}

	// 변동성 마커는 타입 변경까지 감지할 수 있도록 원본 JSON 표현 그대로 보존합니다.
	if v := item.Get("tag_time"); v.Exists() {
		summary.TagTime = v.Raw
	}
	if v := item.Get("icon"); v.Exists() {
		summary.Icon = v.String()
	}
	if v := item.Get("thumbnail_alt"); v.Exists() {
		summary.ThumbnailAlt = v.String()
	}

	// 표준 필드에 매핑되지 않은 스칼라 필드는 Extra에 그대로 보존합니다.
	item.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if mappedKeys[k] || value.IsObject() || value.IsArray() {
			return true
		}
		if summary.Extra == nil {
			summary.Extra = make(map[string]any)
		}
		summary.Extra[k] = value.Value()
		return true
	})

	return summary
}

// firstAlias 별칭 목록에서 먼저 존재하는 필드를 반환합니다.
func firstAlias(item gjson.Result, aliases []string) (gjson.Result, bool) {
	for _, alias := range aliases {
		if v := item.Get(alias); v.Exists() {
			return v, true
		}
	}
	return gjson.Result{}, false
}
