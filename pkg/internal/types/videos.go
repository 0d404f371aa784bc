package types

import (
	"github.com/yeisme/vidvault/pkg/internal/model"
)

// UploadVideoForm 多段表单的文本字段，文件字段名为 video.
type UploadVideoForm struct {
	Title       string `form:"title"       rule:"required,max=200"`
	Description string `form:"description" rule:"omitempty,max=1000"`
	Visibility  string `form:"visibility"  rule:"omitempty,visibility"`
}

// UpdateVideoRequest 更新标题/描述/可见性.
type UpdateVideoRequest struct {
	Title       *string `json:"title,omitempty"       rule:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" rule:"omitempty,max=1000"`
	Visibility  *string `json:"visibility,omitempty"  rule:"omitempty,visibility"`
}

// ListVideosQuery 列表查询参数.
type ListVideosQuery struct {
	Page              int    `form:"page"`
	Limit             int    `form:"limit"`
	Status            string `form:"status"             rule:"omitempty,oneof=uploading processing completed failed"`
	SensitivityStatus string `form:"sensitivity_status" rule:"omitempty,oneof=pending safe flagged"`
	SortBy            string `form:"sort_by"            rule:"omitempty,oneof=created_at title file_size view_count"`
	Order             string `form:"order"              rule:"omitempty,oneof=asc desc"`
	Search            string `form:"search"             rule:"omitempty,max=200"`
}

// VideoResponse 单条视频响应，附带派生的分类列表.
type VideoResponse struct {
	*model.Video
	SensitivityCategories []string `json:"sensitivity_categories,omitempty"`
}

// NewVideoResponse 组装视频响应.
func NewVideoResponse(v *model.Video) VideoResponse {
	return VideoResponse{
		Video:                 v,
		SensitivityCategories: v.Sensitivity.Categories(),
	}
}

// ListVideosResponse 列表响应.
type ListVideosResponse struct {
	Videos     []VideoResponse `json:"videos"`
	Pagination Pagination      `json:"pagination"`
}

// VideoStatusResponse 处理状态响应.
type VideoStatusResponse struct {
	Status            model.VideoStatus       `json:"status"`
	Progress          int                     `json:"progress"`
	SensitivityStatus model.SensitivityStatus `json:"sensitivity_status"`
}
