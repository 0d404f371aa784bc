package service

import (
	"context"
	"fmt"

	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/types"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// sortColumns 白名单排序列，防注入.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"file_size":  "file_size",
	"view_count": "view_count",
}

// List 按租户列出视频，支持状态/敏感度过滤、标题描述搜索、排序与分页.
// 非管理员只能看到：组织可见 + 公开 + 自己上传的 + 被额外授权的私有视频.
func (s *VideoService) List(ctx context.Context, principal *types.Principal, q *types.ListVideosQuery) (*types.ListVideosResponse, error) {
	page := q.Page
	if page < 1 {
		page = defaultPage
	}

	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	tx := s.dbClient.WithContext(ctx).Model(&model.Video{}).
		Where("organization_id = ?", principal.TenantID)

	if !principal.IsAdmin() {
		tx = tx.Where(
			"visibility <> ? OR uploaded_by = ? OR allowed_user_ids_json LIKE ?",
			model.VisibilityPrivate,
			principal.SubjectID,
			`%"`+principal.SubjectID+`"%`,
		)
	}

	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}

	if q.SensitivityStatus != "" {
		tx = tx.Where("sensitivity_status = ?", q.SensitivityStatus)
	}

	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		tx = tx.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count videos: %w", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}

	direction := "DESC"
	if q.Order == "asc" {
		direction = "ASC"
	}

	var videos []model.Video
	if err := tx.Order(column + " " + direction).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	out := make([]types.VideoResponse, 0, len(videos))
	for i := range videos {
		out = append(out, types.NewVideoResponse(&videos[i]))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &types.ListVideosResponse{
		Videos: out,
		Pagination: types.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}
