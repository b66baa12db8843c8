// Package moredetail 인증이 필요한 추가 상세 API를 수집하는 단계입니다.
package moredetail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/ldzDmons/nf-data-crawler/internal/crawler"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	"github.com/ldzDmons/nf-data-crawler/pkg/strutil"
)

// TokenProvider 인증 토큰을 제공하고 만료 시 갱신합니다.
type TokenProvider interface {
	// Token 현재 보유 중인 토큰을 반환합니다. 토큰이 없으면 빈 문자열을 반환합니다.
	Token() string

	// Refresh 토큰을 갱신합니다. 갱신 수단이 없으면 에러를 반환합니다.
	Refresh(ctx context.Context) error
}

// StaticTokenProvider 외부에서 주입된 고정 토큰을 제공합니다. 갱신은 지원하지 않습니다.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider 고정 토큰 제공자를 생성합니다.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) Token() string {
	return p.token
}

func (p *StaticTokenProvider) Refresh(_ context.Context) error {
	return apperrors.New(apperrors.ErrUnauthorized, "고정 토큰은 갱신할 수 없습니다")
}

// LoginTokenProvider 로그인 API를 호출하여 토큰을 발급받고 갱신합니다.
//
// 토큰은 재인증 시 교체되며, 교체된 값은 이후의 모든 요청에 사용됩니다.
type LoginTokenProvider struct {
	fetcher  crawler.Fetcher
	rotator  *crawler.HeaderRotator
	loginURL string
	username string
	password string

	mu    sync.Mutex
	token string
}

// NewLoginTokenProvider 로그인 기반 토큰 제공자를 생성합니다.
// initialToken이 주어지면 첫 갱신 전까지 해당 토큰을 사용합니다.
func NewLoginTokenProvider(fetcher crawler.Fetcher, loginURL, username, password, initialToken string) *LoginTokenProvider {
	return &LoginTokenProvider{
		fetcher:  fetcher,
		rotator:  crawler.NewHeaderRotator(),
		loginURL: loginURL,
		username: username,
		password: password,
		token:    initialToken,
	}
}

func (p *LoginTokenProvider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

// Refresh 로그인 API에 자격 증명을 전송하여 새 토큰을 발급받습니다.
func (p *LoginTokenProvider) Refresh(ctx context.Context) error {
	if p.username == "" || p.password == "" {
		return apperrors.New(apperrors.ErrUnauthorized, "로그인 자격 증명이 설정되지 않았습니다")
	}

	logger := applog.WithComponent("crawler.moredetail")
	logger.WithField("username", strutil.MaskSensitiveData(p.username)).Info("인증 토큰 발급을 시도합니다")

	payload, err := json.Marshal(map[string]string{
		"tel":      p.username,
		"password": p.password,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "로그인 요청 데이터 마샬링에 실패했습니다")
	}

	headers := p.rotator.Headers("")
	delete(headers, "authorization")
	headers["content-type"] = "application/json;charset=UTF-8"

	var result struct {
		Status int    `json:"status"`
		Mesg   string `json:"mesg"`
		Token  string `json:"token"`
	}
	if err := crawler.FetchJSON(ctx, p.fetcher, http.MethodPost, p.loginURL, headers, bytes.NewReader(payload), &result); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnauthorized, "로그인 요청에 실패했습니다")
	}

	if result.Status != 1 || result.Token == "" {
		return apperrors.New(apperrors.ErrUnauthorized, fmt.Sprintf("로그인이 거부되었습니다: %s", result.Mesg))
	}

	p.mu.Lock()
	p.token = result.Token
	p.mu.Unlock()

	logger.Info("인증 토큰 발급에 성공했습니다")
	return nil
}
