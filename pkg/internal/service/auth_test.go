package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yeisme/vidvault/pkg/configs"
	ctxPkg "github.com/yeisme/vidvault/pkg/context"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/storage"
	dbc "github.com/yeisme/vidvault/pkg/internal/storage/db"
	"github.com/yeisme/vidvault/pkg/internal/types"
	"github.com/yeisme/vidvault/pkg/token"
)

// newAuthTestContext 构造带内存数据库的请求上下文与服务依赖.
func newAuthTestContext(t *testing.T) (context.Context, *token.Service) {
	t.Helper()

	// 加载默认配置（无配置文件，仅默认值）
	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	cfg := configs.GetConfig()
	cfg.Auth.AccessSecret = "test-access-secret-0123456789-0123456789"
	cfg.Auth.RefreshSecret = "test-refresh-secret-0123456789-0123456789"

	g, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:auth-%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := g.AutoMigrate(&model.Organization{}, &model.User{}, &model.Video{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mgr := &storage.Manager{DB: &dbc.Client{DB: g}}
	ctx := ctxPkg.WithStorageManager(context.Background(), mgr)

	tokens, err := token.NewService(&cfg.Auth)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return ctx, tokens
}

// TestRegisterCreatesOrgAndAdmin 携带组织名注册：创建组织、成为管理员、回填 owner.
func TestRegisterCreatesOrgAndAdmin(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	user, err := svc.Register(ctx, registerReq("a@x.io", "Acme"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Role != model.RoleAdmin {
		t.Errorf("role = %s, want admin", user.Role)
	}

	var org model.Organization
	if err := ctxPkg.GetDBClient(ctx).First(&org, "id = ?", user.OrganizationID).Error; err != nil {
		t.Fatalf("load org: %v", err)
	}

	if org.Slug != "acme" {
		t.Errorf("slug = %q, want acme", org.Slug)
	}

	if org.OwnerID != user.ID {
		t.Errorf("owner_id = %q, want %q", org.OwnerID, user.ID)
	}
}

// TestRegisterDuplicateOrg 同一组织名注册两次，第二次 409（冲突），首个组织不受影响.
func TestRegisterDuplicateOrg(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	first, err := svc.Register(ctx, registerReq("a@x.io", "Acme"))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err = svc.Register(ctx, registerReq("b@x.io", "Acme"))
	if !errors.Is(err, service.ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	var org model.Organization
	_ = ctxPkg.GetDBClient(ctx).First(&org, "slug = ?", "acme").Error

	if org.OwnerID != first.ID {
		t.Error("first organization must be unchanged")
	}
}

// TestRegisterDuplicateEmail 邮箱重复是冲突.
func TestRegisterDuplicateEmail(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	if _, err := svc.Register(ctx, registerReq("a@x.io", "Acme")); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, registerReq("A@X.IO", "Other Org"))
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken (emails are lowercased), got %v", err)
	}
}

// TestRegisterWithoutOrgJoinsDefault 不带组织名时挂靠默认组织，角色 editor.
func TestRegisterWithoutOrgJoinsDefault(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	user, err := svc.Register(ctx, registerReq("solo@x.io", ""))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Role != model.RoleEditor {
		t.Errorf("role = %s, want editor", user.Role)
	}

	var org model.Organization
	if err := ctxPkg.GetDBClient(ctx).First(&org, "id = ?", user.OrganizationID).Error; err != nil {
		t.Fatalf("load default org: %v", err)
	}

	if org.Slug != configs.GetConfig().Auth.DefaultOrgSlug {
		t.Errorf("slug = %q, want default", org.Slug)
	}
}

// TestLogin 登录成功与口令错误.
func TestLogin(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	if _, err := svc.Register(ctx, registerReq("a@x.io", "Acme")); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Login(ctx, "a@x.io", "Abcdef12")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if user.LastLoginAt == nil {
		t.Error("expected last_login_at to be set")
	}

	if _, err := svc.Login(ctx, "a@x.io", "wrong-password"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(ctx, "nobody@x.io", "Abcdef12"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("unknown email must yield the same error, got %v", err)
	}
}

// TestRefreshRotationAndReuse 刷新轮换后，旧刷新令牌重放被拒绝.
func TestRefreshRotationAndReuse(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	user, err := svc.Register(ctx, registerReq("a@x.io", "Acme"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, refresh1, err := svc.IssueTokens(ctx, user)
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	// 第一次刷新成功并轮换
	_, access2, refresh2, err := svc.Refresh(ctx, refresh1)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if access2 == "" || refresh2 == "" || refresh2 == refresh1 {
		t.Error("expected a rotated token pair")
	}

	// 重放旧令牌：检测到重用并清空槽
	if _, _, _, err := svc.Refresh(ctx, refresh1); !errors.Is(err, service.ErrRefreshReuse) {
		t.Errorf("expected ErrRefreshReuse, got %v", err)
	}

	// 槽已清空，连新令牌也不可用，必须重新登录
	if _, _, _, err := svc.Refresh(ctx, refresh2); !errors.Is(err, service.ErrRefreshReuse) {
		t.Errorf("expected ErrRefreshReuse after slot cleared, got %v", err)
	}
}

// TestLogoutClearsSlot 登出后刷新令牌不可用.
func TestLogoutClearsSlot(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	user, _ := svc.Register(ctx, registerReq("a@x.io", "Acme"))
	_, refresh, _ := svc.IssueTokens(ctx, user)

	if err := svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, _, _, err := svc.Refresh(ctx, refresh); err == nil {
		t.Error("expected refresh to fail after logout")
	}
}

// TestInactiveUserRejected 停用用户即使令牌有效也被拒绝.
func TestInactiveUserRejected(t *testing.T) {
	ctx, tokens := newAuthTestContext(t)
	svc := service.NewAuthService(ctx, tokens)

	user, _ := svc.Register(ctx, registerReq("a@x.io", "Acme"))

	ctxPkg.GetDBClient(ctx).Model(&model.User{}).Where("id = ?", user.ID).Update("active", false)

	if _, err := svc.GetActiveUser(ctx, user.ID); !errors.Is(err, service.ErrInactiveUser) {
		t.Errorf("expected ErrInactiveUser, got %v", err)
	}
}

func registerReq(email, orgName string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:            email,
		Password:         "Abcdef12",
		Name:             "Tester",
		OrganizationName: orgName,
	}
}
