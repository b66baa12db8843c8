package moredetail

import (
	"github.com/ldzDmons/nf-data-crawler/internal/product"
	"github.com/ldzDmons/nf-data-crawler/pkg/maputil"
	"github.com/tidwall/gjson"
)

// nutrientEntry 응답의 영양 성분 배열 항목 구조
type nutrientEntry struct {
	IngredientName string `json:"ingredient_name"`
	Content        string `json:"content"`
	Unit           string `json:"unit"`
	Description    string `json:"desc"`
}

// extractDirect 요청한 상품 ID를 그대로 되돌려주는 신형 응답 구조를 처리합니다.
//
// 표준 필드(fg_comment, mixture, nutrient)를 추출하고, 매핑되지 않은
// 나머지 필드는 "extra_<원본 키>" 키로 보존합니다.
func extractDirect(payload gjson.Result, productID string) *product.Extended {
	ext := &product.Extended{ID: productID}

	if v := payload.Get("fg_comment"); v.Exists() {
		ext.FormulaComment = v.String()
	}
	if v := payload.Get("mixture"); v.Exists() {
		ext.Ingredients = v.String()
	}

	if nutrient := payload.Get("nutrient"); nutrient.IsArray() {
		nutrients := make(map[string]product.Nutrient)
		for _, item := range nutrient.Array() {
			if !item.IsObject() {
				continue
			}
			entry, err := maputil.Decode[nutrientEntry](item.Value())
			if err != nil || entry.IngredientName == "" || entry.Content == "" {
				continue
			}
			nutrients[entry.IngredientName] = product.Nutrient{
				Content:     entry.Content,
				Unit:        entry.Unit,
				Description: entry.Description,
			}
		}
		if len(nutrients) > 0 {
			ext.Nutrients = nutrients
		}
	}

	payload.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		switch k {
		case "id", "fg_comment", "mixture", "nutrient":
			return true
		}
		if value.Value() == nil || value.String() == "" {
			return true
		}
		setExtra(ext, "extra_"+k, value.Value())
		return true
	})

	return ext
}

// extractEnveloped 구형 API의 봉투 구조({code:0, data:{...}})를 처리합니다.
//
// data.info의 필드는 "extra_more_<키>"로, 배합 특징/제품 특징/사용자 평가/평점 요약은
// 각각의 이름 공간으로 정리하여 보존합니다.
func extractEnveloped(payload gjson.Result, productID string) *product.Extended {
	ext := &product.Extended{ID: productID}
	data := payload.Get("data")

	if info := data.Get("info"); info.IsObject() {
		info.ForEach(func(key, value gjson.Result) bool {
			setExtra(ext, "extra_more_"+key.String(), value.Value())
			return true
		})
	}

	if formula := data.Get("formula"); formula.IsArray() {
		var names []string
		for _, item := range formula.Array() {
			if name := item.Get("name"); name.Exists() {
				names = append(names, name.String())
			}
		}
		if len(names) > 0 {
			setExtra(ext, "extra_formula_features", names)
		}
	}

	if features := data.Get("features"); features.IsArray() {
		var list []map[string]string
		for _, item := range features.Array() {
			if item.Get("title").Exists() && item.Get("content").Exists() {
				list = append(list, map[string]string{
					"title":   item.Get("title").String(),
					"content": item.Get("content").String(),
				})
			}
		}
		if len(list) > 0 {
			setExtra(ext, "extra_product_features", list)
		}
	}

	if comments := data.Get("comments"); comments.IsObject() {
		if commentList := comments.Get("list"); commentList.IsArray() {
			var list []map[string]any
			for _, item := range commentList.Array() {
				if !item.IsObject() {
					continue
				}
				user := item.Get("nickname").String()
				if user == "" {
					user = "匿名用户"
				}
				list = append(list, map[string]any{
					"user":    user,
					"score":   item.Get("score").Value(),
					"content": item.Get("content").String(),
					"time":    item.Get("create_time").String(),
				})
			}
			if len(list) > 0 {
				setExtra(ext, "extra_user_comments", list)
			}
		}

		if total := comments.Get("total"); total.IsObject() {
			setExtra(ext, "extra_rating_summary", total.Value())
		}
	}

	return ext
}

func setExtra(ext *product.Extended, key string, value any) {
	if ext.Extra == nil {
		ext.Extra = make(map[string]any)
	}
	ext.Extra[key] = value
}
