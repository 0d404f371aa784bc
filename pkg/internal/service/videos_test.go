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
)

// newVideoTestContext 内存数据库 + 预置两个租户的若干视频.
func newVideoTestContext(t *testing.T) context.Context {
	t.Helper()

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	g, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:videos-%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := g.AutoMigrate(&model.Organization{}, &model.User{}, &model.Video{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mgr := &storage.Manager{DB: &dbc.Client{DB: g}}

	return ctxPkg.WithStorageManager(context.Background(), mgr)
}

func seedVideo(t *testing.T, ctx context.Context, id, org, owner string, vis model.Visibility) *model.Video {
	t.Helper()

	v := &model.Video{
		ID:             id,
		Title:          "video " + id,
		StorageKey:     "videos/" + id + ".mp4",
		FileSize:       1024,
		Format:         "video/mp4",
		OrganizationID: org,
		UploadedBy:     owner,
		Visibility:     vis,
		Status:         model.VideoStatusCompleted,
	}

	if err := ctxPkg.GetDBClient(ctx).Create(v).Error; err != nil {
		t.Fatalf("seed video: %v", err)
	}

	return v
}

func principal(subject, org string, role model.Role) *types.Principal {
	return &types.Principal{SubjectID: subject, Role: role, TenantID: org}
}

// TestCrossTenantIsNotFound 跨租户读取按不存在处理，不暴露 403.
func TestCrossTenantIsNotFound(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	seedVideo(t, ctx, "vx", "org-x", "alice", model.VisibilityOrganization)

	_, err := svc.GetForViewer(ctx, principal("bob", "org-y", model.RoleAdmin), "vx")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound for cross-tenant access, got %v", err)
	}
}

// TestPrivateVisibility 私有视频只有上传者/管理员/被授权者可读.
func TestPrivateVisibility(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	v := seedVideo(t, ctx, "vp", "org-x", "alice", model.VisibilityPrivate)
	v.SetAllowedUserIDs([]string{"carol"})
	ctxPkg.GetDBClient(ctx).Model(&model.Video{}).Where("id = ?", v.ID).
		Update("allowed_user_ids_json", v.AllowedUserIDsJSON)

	// 上传者本人
	if _, err := svc.GetForViewer(ctx, principal("alice", "org-x", model.RoleEditor), "vp"); err != nil {
		t.Errorf("owner should read private video: %v", err)
	}

	// 同租户管理员
	if _, err := svc.GetForViewer(ctx, principal("root", "org-x", model.RoleAdmin), "vp"); err != nil {
		t.Errorf("tenant admin should read private video: %v", err)
	}

	// 被额外授权的用户
	if _, err := svc.GetForViewer(ctx, principal("carol", "org-x", model.RoleViewer), "vp"); err != nil {
		t.Errorf("allowed user should read private video: %v", err)
	}

	// 同租户普通用户
	if _, err := svc.GetForViewer(ctx, principal("bob", "org-x", model.RoleEditor), "vp"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for same-tenant non-owner, got %v", err)
	}
}

// TestPublicVisibility 公开视频允许匿名读取.
func TestPublicVisibility(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	seedVideo(t, ctx, "vpub", "org-x", "alice", model.VisibilityPublic)

	if _, err := svc.GetForViewer(ctx, nil, "vpub"); err != nil {
		t.Errorf("anonymous should read public video: %v", err)
	}
}

// TestOrganizationVisibilityRequiresAuth 组织可见视频拒绝匿名.
func TestOrganizationVisibilityRequiresAuth(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	seedVideo(t, ctx, "vorg", "org-x", "alice", model.VisibilityOrganization)

	if _, err := svc.GetForViewer(ctx, nil, "vorg"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound for anonymous, got %v", err)
	}
}

// TestUpdateOwnership 非上传者且非管理员不可修改.
func TestUpdateOwnership(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	seedVideo(t, ctx, "vu", "org-x", "alice", model.VisibilityOrganization)

	title := "renamed"
	req := &types.UpdateVideoRequest{Title: &title}

	if _, err := svc.Update(ctx, principal("bob", "org-x", model.RoleEditor), "vu", req); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	updated, err := svc.Update(ctx, principal("alice", "org-x", model.RoleEditor), "vu", req)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}

	if updated.Title != "renamed" {
		t.Errorf("title = %q", updated.Title)
	}
}

// TestStatusSummary 状态摘要内容.
func TestStatusSummary(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	v := seedVideo(t, ctx, "vs", "org-x", "alice", model.VisibilityOrganization)
	ctxPkg.GetDBClient(ctx).Model(&model.Video{}).Where("id = ?", v.ID).
		Updates(map[string]any{
			"status":              model.VideoStatusProcessing,
			"processing_progress": 42,
			"sensitivity_status":  model.SensitivityPending,
		})

	status, err := svc.Status(ctx, principal("alice", "org-x", model.RoleEditor), "vs")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if status.Status != model.VideoStatusProcessing || status.Progress != 42 || status.SensitivityStatus != model.SensitivityPending {
		t.Errorf("unexpected status: %+v", status)
	}
}

// TestListVisibilityScoping 列表按租户与可见性过滤.
func TestListVisibilityScoping(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	seedVideo(t, ctx, "l1", "org-x", "alice", model.VisibilityOrganization)
	seedVideo(t, ctx, "l2", "org-x", "alice", model.VisibilityPrivate)
	seedVideo(t, ctx, "l3", "org-x", "bob", model.VisibilityPrivate)
	seedVideo(t, ctx, "l4", "org-y", "eve", model.VisibilityOrganization)

	// bob（editor）看到：组织可见 l1 + 自己的私有 l3
	resp, err := svc.List(ctx, principal("bob", "org-x", model.RoleEditor), &types.ListVideosQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Pagination.Total != 2 {
		t.Errorf("bob sees %d videos, want 2", resp.Pagination.Total)
	}

	// 管理员看到本租户全部 3 条，跨租户的 l4 永远不可见
	resp, err = svc.List(ctx, principal("root", "org-x", model.RoleAdmin), &types.ListVideosQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Pagination.Total != 3 {
		t.Errorf("admin sees %d videos, want 3", resp.Pagination.Total)
	}
}

// TestListSearchAndSort 搜索与排序参数.
func TestListSearchAndSort(t *testing.T) {
	ctx := newVideoTestContext(t)
	svc := service.NewVideoService(ctx, nil)

	seedVideo(t, ctx, "s1", "org-x", "alice", model.VisibilityOrganization)
	seedVideo(t, ctx, "s2", "org-x", "alice", model.VisibilityOrganization)

	resp, err := svc.List(ctx, principal("alice", "org-x", model.RoleEditor), &types.ListVideosQuery{
		Search: "video s1",
		SortBy: "title",
		Order:  "asc",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Pagination.Total != 1 || resp.Videos[0].ID != "s1" {
		t.Errorf("unexpected search result: %+v", resp.Pagination)
	}
}
