package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/token"
)

func newTestService(t *testing.T) *token.Service {
	t.Helper()

	cfg := &configs.AuthConfig{
		AccessSecret:     "access-secret-0123456789-0123456789-abc",
		RefreshSecret:    "refresh-secret-0123456789-0123456789-xyz",
		AccessTTLMinutes: 15,
		RefreshTTLDays:   7,
	}

	svc, err := token.NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return svc
}

// TestNewServiceRejectsSameSecret 两个密钥相同时必须拒绝.
func TestNewServiceRejectsSameSecret(t *testing.T) {
	cfg := &configs.AuthConfig{
		AccessSecret:     "same-secret-0123456789-0123456789-same",
		RefreshSecret:    "same-secret-0123456789-0123456789-same",
		AccessTTLMinutes: 15,
		RefreshTTLDays:   7,
	}

	if _, err := token.NewService(cfg); err == nil {
		t.Error("expected error for identical secrets, got nil")
	}
}

// TestNewServiceRejectsShortSecret 过短密钥必须拒绝.
func TestNewServiceRejectsShortSecret(t *testing.T) {
	cfg := &configs.AuthConfig{
		AccessSecret:     "short",
		RefreshSecret:    "refresh-secret-0123456789-0123456789-xyz",
		AccessTTLMinutes: 15,
		RefreshTTLDays:   7,
	}

	if _, err := token.NewService(cfg); err == nil {
		t.Error("expected error for short secret, got nil")
	}
}

// TestAccessRoundTrip 签发后验证能取回声明.
func TestAccessRoundTrip(t *testing.T) {
	svc := newTestService(t)

	tok, exp, err := svc.IssueAccess("user-1", "editor", "org-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if time.Until(exp) <= 0 {
		t.Error("expected expiry in the future")
	}

	claims, err := svc.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}

	if claims.Subject != "user-1" || claims.Role != "editor" || claims.TenantID != "org-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

// TestRefreshRoundTrip 刷新令牌签发后验证.
func TestRefreshRoundTrip(t *testing.T) {
	svc := newTestService(t)

	tok, _, err := svc.IssueRefresh("user-2")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	claims, err := svc.VerifyRefresh(tok)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}

	if claims.Subject != "user-2" {
		t.Errorf("unexpected subject: %q", claims.Subject)
	}
}

// TestWrongKindRejected 访问令牌不可当刷新令牌用，反之亦然.
func TestWrongKindRejected(t *testing.T) {
	svc := newTestService(t)

	access, _, _ := svc.IssueAccess("user-1", "viewer", "org-1")
	refresh, _, _ := svc.IssueRefresh("user-1")

	// 密钥不同，跨用时先以签名失败暴露
	if _, err := svc.VerifyRefresh(access); err == nil {
		t.Error("expected error verifying access token as refresh")
	}

	if _, err := svc.VerifyAccess(refresh); err == nil {
		t.Error("expected error verifying refresh token as access")
	}
}

// TestMalformedToken 乱码令牌归类为 ErrMalformed.
func TestMalformedToken(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.VerifyAccess("not-a-jwt"); !errors.Is(err, token.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

// TestBadSignature 篡改令牌归类为 ErrBadSignature.
func TestBadSignature(t *testing.T) {
	svc := newTestService(t)

	tok, _, _ := svc.IssueAccess("user-1", "viewer", "org-1")
	tampered := tok[:len(tok)-2] + "xx"

	if _, err := svc.VerifyAccess(tampered); !errors.Is(err, token.ErrBadSignature) {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}
