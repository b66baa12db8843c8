package db

// 적재 대상 테이블 정의입니다.
//
// 상품 기본 정보는 product_id로, 상세 정보는 product_id로, 영양성분은
// (product_id, nutrient_name)으로, 추가 속성은 (product_id, key)로 유일합니다.
// 모든 테이블의 upsert는 이 유일 제약을 충돌 기준으로 사용합니다.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS milk_products (
		id BIGSERIAL PRIMARY KEY,
		product_id TEXT NOT NULL UNIQUE,
		name TEXT,
		thumbnail TEXT,
		thumbnail_alt TEXT,
		click_count BIGINT,
		price TEXT,
		tag TEXT,
		tag_time TEXT,
		icon TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS milk_product_details (
		id BIGSERIAL PRIMARY KEY,
		product_id TEXT NOT NULL UNIQUE,
		brand TEXT,
		series TEXT,
		origin TEXT,
		milk_source TEXT,
		age_range TEXT,
		manufacturer TEXT,
		operator TEXT,
		specification TEXT,
		stage TEXT,
		reference_price TEXT,
		category TEXT,
		version TEXT,
		formula_registration TEXT,
		formula_evaluation TEXT,
		ingredients TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS milk_product_nutrients (
		id BIGSERIAL PRIMARY KEY,
		product_id TEXT NOT NULL,
		nutrient_name TEXT NOT NULL,
		content TEXT,
		unit TEXT,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (product_id, nutrient_name)
	)`,
	`CREATE TABLE IF NOT EXISTS milk_product_extra_details (
		id BIGSERIAL PRIMARY KEY,
		product_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (product_id, key)
	)`,
}
