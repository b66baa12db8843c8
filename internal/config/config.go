package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	"github.com/robfig/cron/v3"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "nf-data-crawler"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug     bool            `json:"debug"`
	OutputDir string          `json:"output_dir"`
	HTTPRetry HTTPRetryConfig `json:"http_retry"`
	Crawler   CrawlerConfig   `json:"crawler"`
	Auth      AuthConfig      `json:"auth"`
	Database  DatabaseConfig  `json:"database"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate() error {
	if err := c.HTTPRetry.validate(); err != nil {
		return err
	}
	if err := c.Crawler.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	if err := c.Scheduler.validate(); err != nil {
		return err
	}
	return nil
}

// HTTPRetryConfig HTTP 요청 실패 시 재시도 횟수와 대기 시간을 정의하는 설정 구조체
type HTTPRetryConfig struct {
	MaxRetries int    `json:"max_retries"`
	RetryDelay string `json:"retry_delay"`
}

func (c *HTTPRetryConfig) validate() error {
	if c.MaxRetries < 0 {
		return apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("HTTP 최대 재시도 횟수(max_retries)는 0 이상이어야 합니다: %d", c.MaxRetries))
	}
	if _, err := time.ParseDuration(c.RetryDelay); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidInput, fmt.Sprintf("HTTP 재시도 대기 시간(retry_delay) 설정이 올바르지 않습니다: '%s' (예: 1s, 500ms)", c.RetryDelay))
	}
	return nil
}

// RetryDelayDuration 파싱된 재시도 대기 시간을 반환합니다. 설정값은 validate()에서 이미 검증되었습니다.
func (c *HTTPRetryConfig) RetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// CrawlerConfig 수집 대상 사이트의 엔드포인트와 페이지 순회 정책을 정의하는 설정 구조체
type CrawlerConfig struct {
	BaseURL       string `json:"base_url" validate:"required,url"`
	DetailURL     string `json:"detail_url" validate:"required"`
	MoreDetailURL string `json:"more_detail_url" validate:"required,url"`
	LoginURL      string `json:"login_url" validate:"required,url"`

	StartPage          int    `json:"start_page"`
	MaxPages           int    `json:"max_pages"`
	PageDelay          string `json:"page_delay"`
	MaxEmptyPages      int    `json:"max_empty_pages"`
	CheckpointInterval int    `json:"checkpoint_interval"`
	DedupeListing      bool   `json:"dedupe_listing"`
}

func (c *CrawlerConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidInput, "크롤러 엔드포인트 설정 검증에 실패했습니다")
	}

	for name, rawURL := range map[string]string{
		"base_url":        c.BaseURL,
		"more_detail_url": c.MoreDetailURL,
		"login_url":       c.LoginURL,
	} {
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("크롤러 엔드포인트(%s) 설정이 올바르지 않습니다: '%s'", name, rawURL))
		}
	}

	// 상세 페이지 URL은 상품 ID가 치환되는 포맷 문자열입니다.
	if !strings.Contains(c.DetailURL, "%s") {
		return apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("상세 페이지 URL(detail_url)에 상품 ID 자리표시자(%%s)가 없습니다: '%s'", c.DetailURL))
	}

	if c.StartPage < 1 {
		return apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("시작 페이지(start_page)는 1 이상이어야 합니다: %d", c.StartPage))
	}
	if _, err := time.ParseDuration(c.PageDelay); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidInput, fmt.Sprintf("페이지 간 대기 시간(page_delay) 설정이 올바르지 않습니다: '%s'", c.PageDelay))
	}
	if c.MaxEmptyPages < 1 {
		return apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("연속 빈 페이지 허용 개수(max_empty_pages)는 1 이상이어야 합니다: %d", c.MaxEmptyPages))
	}
	if c.CheckpointInterval < 1 {
		return apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("체크포인트 간격(checkpoint_interval)은 1 이상이어야 합니다: %d", c.CheckpointInterval))
	}

	return nil
}

// PageDelayDuration 파싱된 페이지 간 대기 시간을 반환합니다.
func (c *CrawlerConfig) PageDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.PageDelay)
	return d
}

// AuthConfig 인증이 필요한 API 호출을 위한 자격 증명 설정 구조체
type AuthConfig struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Token     string `json:"token"`
	TokenFile string `json:"token_file"`
}

// ResolveToken 설정된 토큰을 반환합니다.
// 토큰이 직접 설정되지 않은 경우 토큰 파일(JSON: {"token": "..."})에서 읽어들입니다.
// 토큰을 확보할 수 없는 경우 빈 문자열을 반환하며, 이는 로그인 기반 인증으로 대체됩니다.
func (c *AuthConfig) ResolveToken() (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}
	if c.TokenFile == "" {
		return "", nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", apperrors.Wrap(err, apperrors.ErrSystem, fmt.Sprintf("토큰 파일(%s)을 읽을 수 없습니다", c.TokenFile))
	}

	var tokenFile struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &tokenFile); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInvalidInput, fmt.Sprintf("토큰 파일(%s)의 JSON 파싱에 실패했습니다", c.TokenFile))
	}

	return strings.TrimSpace(tokenFile.Token), nil
}

// DatabaseConfig PostgreSQL 연결 정보를 담는 설정 구조체
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"dbname"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslmode"`
}

func (c *DatabaseConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("데이터베이스 포트(port)는 1에서 65535 사이의 값이어야 합니다: %d", c.Port))
	}
	return nil
}

// ConnString pgx가 해석할 수 있는 PostgreSQL 연결 문자열을 생성합니다.
func (c *DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode)
}

// SchedulerConfig 파이프라인의 주기적 실행을 정의하는 설정 구조체
type SchedulerConfig struct {
	Runnable     bool   `json:"runnable"`
	TimeSpec     string `json:"time_spec"`
	CheckUpdates bool   `json:"check_updates"`
}

// cron 표현식 파서 (초 단위 필드 생략 가능)
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func (c *SchedulerConfig) validate() error {
	if !c.Runnable {
		return nil
	}
	if _, err := cronParser.Parse(c.TimeSpec); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidInput, fmt.Sprintf("스케줄러(time_spec) 설정이 유효하지 않습니다: '%s'", c.TimeSpec))
	}
	return nil
}

// defaults 설정 파일이나 환경 변수로 재정의되기 전의 기본값입니다.
// 수집 간격과 재시도 정책의 기본값은 대상 사이트의 차단 정책을 고려하여 보수적으로 설정되어 있습니다.
func defaults() AppConfig {
	return AppConfig{
		OutputDir: "output",
		HTTPRetry: HTTPRetryConfig{
			MaxRetries: 5,
			RetryDelay: "3s",
		},
		Crawler: CrawlerConfig{
			BaseURL:            "https://data.naifenzhiku.com/index/powder/index",
			DetailURL:          "https://naifenzhiku.com/powder/detail-%s.html",
			MoreDetailURL:      "https://data.naifenzhiku.com/index/powder/detailMore",
			LoginURL:           "https://data.naifenzhiku.com/index/login/login",
			StartPage:          1,
			MaxPages:           0, // 0: 첫 페이지 응답에서 전체 페이지 수를 추정
			PageDelay:          "1s",
			MaxEmptyPages:      3,
			CheckpointInterval: 10,
			DedupeListing:      false,
		},
		Auth: AuthConfig{
			TokenFile: "token.json",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			DBName:  "milk_products",
			User:    "postgres",
			SSLMode: "disable",
		},
		Scheduler: SchedulerConfig{
			Runnable:     false,
			TimeSpec:     "0 0 6 * * *",
			CheckUpdates: true,
		},
	}
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
//
// 로드 우선순위: 기본값 < JSON 설정 파일 < 환경 변수(NFDC_)
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(defaults(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	// 설정 파일이 없는 경우 기본값과 환경 변수만으로 동작합니다.
	if err := k.Load(file.Provider(filename), koanfjson.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrInvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
		}
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 접두사: NFDC_
	// 구분자: 이중 언더스코어(__)를 점(.)으로 변환 (계층 구조 표현)
	// 예: NFDC_DATABASE__HOST -> database.host
	if err := k.Load(env.Provider("NFDC_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "NFDC_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSystem, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
