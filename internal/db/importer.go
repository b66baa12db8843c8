package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ldzDmons/nf-data-crawler/internal/product"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	log "github.com/sirupsen/logrus"
)

const (
	upsertProductSQL = `
		INSERT INTO milk_products
			(product_id, name, thumbnail, thumbnail_alt, click_count, price, tag, tag_time, icon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (product_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			thumbnail = EXCLUDED.thumbnail,
			thumbnail_alt = EXCLUDED.thumbnail_alt,
			click_count = EXCLUDED.click_count,
			price = EXCLUDED.price,
			tag = EXCLUDED.tag,
			tag_time = EXCLUDED.tag_time,
			icon = EXCLUDED.icon,
			updated_at = NOW()`

	upsertDetailSQL = `
		INSERT INTO milk_product_details
			(product_id, brand, series, origin, milk_source, age_range,
			manufacturer, operator, specification, stage, reference_price,
			category, version, formula_registration, formula_evaluation, ingredients)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (product_id)
		DO UPDATE SET
			brand = EXCLUDED.brand,
			series = EXCLUDED.series,
			origin = EXCLUDED.origin,
			milk_source = EXCLUDED.milk_source,
			age_range = EXCLUDED.age_range,
			manufacturer = EXCLUDED.manufacturer,
			operator = EXCLUDED.operator,
			specification = EXCLUDED.specification,
			stage = EXCLUDED.stage,
			reference_price = EXCLUDED.reference_price,
			category = EXCLUDED.category,
			version = EXCLUDED.version,
			formula_registration = EXCLUDED.formula_registration,
			formula_evaluation = EXCLUDED.formula_evaluation,
			ingredients = EXCLUDED.ingredients,
			updated_at = NOW()`

	upsertNutrientSQL = `
		INSERT INTO milk_product_nutrients
			(product_id, nutrient_name, content, unit, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, nutrient_name)
		DO UPDATE SET
			content = EXCLUDED.content,
			unit = EXCLUDED.unit,
			description = EXCLUDED.description,
			updated_at = NOW()`

	upsertExtraSQL = `
		INSERT INTO milk_product_extra_details
			(product_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()`

	selectTagTimesSQL = `SELECT product_id, tag_time FROM milk_products`
)

// ImportCounts 테이블별 적재(삽입 또는 갱신) 건수입니다.
type ImportCounts struct {
	Products  int `json:"products"`
	Details   int `json:"details"`
	Nutrients int `json:"nutrients"`
	Extras    int `json:"extras"`
}

// Importer 병합된 상품 레코드를 4개의 테이블로 나누어 적재합니다.
//
// 모든 적재는 충돌 시 갱신(upsert)이며, 같은 레코드를 여러 번 적재해도
// 행 수는 변하지 않습니다. 상품 ID가 없는 레코드는 에러 없이 건너뜁니다.
type Importer struct {
	q      Querier
	logger *log.Entry
}

// NewImporter 새로운 적재기를 생성합니다.
func NewImporter(q Querier) *Importer {
	return &Importer{
		q:      q,
		logger: applog.WithComponent("db"),
	}
}

// ImportAll 병합된 레코드 전체를 테이블별로 적재하고 건수를 보고합니다.
func (im *Importer) ImportAll(ctx context.Context, records []product.Composite) (ImportCounts, error) {
	var counts ImportCounts

	for _, r := range records {
		if r.ID == "" {
			im.logger.Warn("상품 ID가 없는 레코드를 건너뜁니다")
			continue
		}

		if err := im.upsertProduct(ctx, r); err != nil {
			return counts, err
		}
		counts.Products++

		if r.Detail != nil || hasDetailFields(r.Extended) {
			if err := im.upsertDetail(ctx, r); err != nil {
				return counts, err
			}
			counts.Details++
		}

		if r.Extended != nil {
			for name, n := range r.Extended.Nutrients {
				if err := im.upsertNutrient(ctx, r.ID, name, n); err != nil {
					return counts, err
				}
				counts.Nutrients++
			}

			for key, value := range r.Extended.Extra {
				if err := im.upsertExtra(ctx, r.ID, key, value); err != nil {
					return counts, err
				}
				counts.Extras++
			}
		}
	}

	im.logger.WithFields(log.Fields{
		"products":  counts.Products,
		"details":   counts.Details,
		"nutrients": counts.Nutrients,
		"extras":    counts.Extras,
	}).Info("데이터 적재가 완료되었습니다")

	return counts, nil
}

func (im *Importer) upsertProduct(ctx context.Context, r product.Composite) error {
	_, err := im.q.Exec(ctx, upsertProductSQL,
		r.ID, r.Name, r.Thumbnail, r.ThumbnailAlt, r.ClickCount, r.Price, r.Tag, r.TagTime, r.Icon)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrImportFailed, fmt.Sprintf("상품(%s) 기본 정보 적재에 실패했습니다", r.ID))
	}
	return nil
}

// upsertDetail 상세 정보를 적재합니다. 목록/상세/추가 상세가 겹치는 항목은
// 나중 단계의 값이 우선합니다. 배합 평가는 추가 상세에서만 확보됩니다.
func (im *Importer) upsertDetail(ctx context.Context, r product.Composite) error {
	d := r.Detail
	if d == nil {
		d = &product.Detail{ID: r.ID}
	}

	formulaEvaluation := ""
	ingredients := d.Ingredients
	if r.Extended != nil {
		formulaEvaluation = r.Extended.FormulaComment
		if r.Extended.Ingredients != "" {
			ingredients = r.Extended.Ingredients
		}
	}

	_, err := im.q.Exec(ctx, upsertDetailSQL,
		r.ID, d.Brand, d.Series, d.Origin, d.MilkSource, d.AgeRange,
		d.Manufacturer, d.Operator, d.Specification, d.Stage, d.ReferencePrice,
		d.Category, d.Version, d.FormulaRegistration, formulaEvaluation, ingredients)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrImportFailed, fmt.Sprintf("상품(%s) 상세 정보 적재에 실패했습니다", r.ID))
	}
	return nil
}

func (im *Importer) upsertNutrient(ctx context.Context, productID, name string, n product.Nutrient) error {
	_, err := im.q.Exec(ctx, upsertNutrientSQL, productID, name, n.Content, n.Unit, n.Description)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrImportFailed, fmt.Sprintf("상품(%s) 영양성분(%s) 적재에 실패했습니다", productID, name))
	}
	return nil
}

// upsertExtra 추가 속성을 적재합니다. 구조화된 값은 JSON 문자열로 직렬화됩니다.
func (im *Importer) upsertExtra(ctx context.Context, productID, key string, value any) error {
	text, err := flattenValue(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrImportFailed, fmt.Sprintf("상품(%s) 추가 속성(%s) 직렬화에 실패했습니다", productID, key))
	}

	if _, err := im.q.Exec(ctx, upsertExtraSQL, productID, key, text); err != nil {
		return apperrors.Wrap(err, apperrors.ErrImportFailed, fmt.Sprintf("상품(%s) 추가 속성(%s) 적재에 실패했습니다", productID, key))
	}
	return nil
}

// LoadTagTimes 저장소에 보관된 상품별 변동성 마커를 조회합니다.
// 변경 감지 스케줄러가 새로 수집된 목록과 비교하는 기준값입니다.
func (im *Importer) LoadTagTimes(ctx context.Context) (map[string]string, error) {
	rows, err := im.q.Query(ctx, selectTagTimesSQL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, "변동성 마커 조회에 실패했습니다")
	}
	defer rows.Close()

	markers := make(map[string]string)
	for rows.Next() {
		var productID string
		var tagTime *string
		if err := rows.Scan(&productID, &tagTime); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrSystem, "변동성 마커 행 스캔에 실패했습니다")
		}
		if tagTime != nil {
			markers[productID] = *tagTime
		} else {
			markers[productID] = ""
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, "변동성 마커 조회 중 에러가 발생했습니다")
	}

	return markers, nil
}

func hasDetailFields(ext *product.Extended) bool {
	return ext != nil && (ext.FormulaComment != "" || ext.Ingredients != "")
}

// flattenValue 스칼라 값은 문자열로, 구조화된 값은 JSON으로 직렬화합니다.
func flattenValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64, int, int64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
