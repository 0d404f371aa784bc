// Package token 提供访问令牌与刷新令牌的签发和验证.
//
// 两类令牌使用不同的 HMAC-SHA256 密钥签名，互不通用：
//   - 访问令牌：短有效期，携带 subject、role、tenant 声明
//   - 刷新令牌：长有效期，仅携带 subject，验证后还需与用户行上的单槽值比对
//
// 验证失败以哨兵错误区分：ErrMalformed、ErrBadSignature、ErrExpired、ErrWrongKind.
// 声明只有在签名验证通过后才可信.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yeisme/vidvault/pkg/configs"
)

// Kind 令牌种类.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// 验证失败的哨兵错误.
var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
	ErrWrongKind    = errors.New("token kind mismatch")
)

// AccessClaims 访问令牌声明，Subject 为用户 ID.
type AccessClaims struct {
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
	Kind     Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// RefreshClaims 刷新令牌声明，Subject 为用户 ID.
type RefreshClaims struct {
	Kind Kind `json:"kind"`
	jwt.RegisteredClaims
}

// Service 令牌签发与验证服务.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

const minSecretLen = 32

// NewService 根据认证配置创建令牌服务.
// 两个密钥必须都已配置、长度足够且不相同.
func NewService(cfg *configs.AuthConfig) (*Service, error) {
	if len(cfg.AccessSecret) < minSecretLen {
		return nil, fmt.Errorf("access secret must be at least %d characters", minSecretLen)
	}

	if len(cfg.RefreshSecret) < minSecretLen {
		return nil, fmt.Errorf("refresh secret must be at least %d characters", minSecretLen)
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}

	return &Service{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL(),
		refreshTTL:    cfg.RefreshTTL(),
	}, nil
}

// AccessTTL 返回访问令牌有效期.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL 返回刷新令牌有效期.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess 签发访问令牌，返回令牌与过期时间.
func (s *Service) IssueAccess(subjectID, role, tenantID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.accessTTL)

	claims := &AccessClaims{
		Role:     role,
		TenantID: tenantID,
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, exp, nil
}

// IssueRefresh 签发刷新令牌，返回令牌与过期时间.
func (s *Service) IssueRefresh(subjectID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.refreshTTL)

	claims := &RefreshClaims{
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subjectID,
			// jti 保证同一秒内签发的两枚令牌也不相同，单槽比对才能区分新旧
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, exp, nil
}

// VerifyAccess 验证访问令牌并返回声明.
func (s *Service) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(tokenString, claims, s.accessSecret); err != nil {
		return nil, err
	}

	if claims.Kind != KindAccess {
		return nil, ErrWrongKind
	}

	return claims, nil
}

// VerifyRefresh 验证刷新令牌并返回声明.
// 调用方还需与用户行上的单槽值比对以检测重放.
func (s *Service) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(tokenString, claims, s.refreshSecret); err != nil {
		return nil, err
	}

	if claims.Kind != KindRefresh {
		return nil, ErrWrongKind
	}

	return claims, nil
}

// verify 解析并验证签名与时间声明，错误归一化为哨兵错误.
func (s *Service) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		// 只接受 HMAC，防止算法混淆
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return secret, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrMalformed
	}

	if !tok.Valid {
		return ErrMalformed
	}

	return nil
}
