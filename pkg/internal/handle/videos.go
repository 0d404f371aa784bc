package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/types"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	"github.com/yeisme/vidvault/pkg/middleware"
	"github.com/yeisme/vidvault/pkg/rule"
)

// VideoHandlers 视频 CRUD 处理器.
type VideoHandlers struct {
	Jobs *jobqueue.Queue
}

// List 按租户分页列出视频.
//
//	@Summary		视频列表
//	@Tags			视频
//	@Produce		json
//	@Param			page				query		int		false	"页码"
//	@Param			limit				query		int		false	"每页数量"
//	@Param			status				query		string	false	"处理状态过滤"
//	@Param			sensitivity_status	query		string	false	"敏感度状态过滤"
//	@Param			sort_by				query		string	false	"排序列"
//	@Param			order				query		string	false	"排序方向 asc/desc"
//	@Param			search				query		string	false	"标题/描述搜索"
//	@Success		200	{object}	types.ListVideosResponse
//	@Router			/api/videos [get]
func (h *VideoHandlers) List(c *gin.Context) {
	var q types.ListVideosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: err.Error()})
		return
	}

	if err := rule.ValidateStruct(&q); err != nil {
		respondValidationError(c, err)
		return
	}

	svc := service.NewVideoService(c.Request.Context(), h.Jobs)

	resp, err := svc.List(c.Request.Context(), middleware.GetPrincipal(c), &q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Get 单条视频详情.
//
//	@Summary		视频详情
//	@Tags			视频
//	@Produce		json
//	@Param			id	path		string	true	"视频ID"
//	@Success		200	{object}	types.VideoResponse
//	@Failure		404	{object}	types.APIError
//	@Router			/api/videos/{id} [get]
func (h *VideoHandlers) Get(c *gin.Context) {
	svc := service.NewVideoService(c.Request.Context(), h.Jobs)

	video, err := svc.GetForViewer(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewVideoResponse(video))
}

// Update 修改标题/描述/可见性，只有上传者本人或管理员可操作.
//
//	@Summary		更新视频
//	@Tags			视频
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string						true	"视频ID"
//	@Param			req	body		types.UpdateVideoRequest	true	"更新请求"
//	@Success		200	{object}	types.VideoResponse
//	@Failure		403	{object}	types.APIError
//	@Router			/api/videos/{id} [put]
func (h *VideoHandlers) Update(c *gin.Context) {
	var req types.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: err.Error()})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	svc := service.NewVideoService(c.Request.Context(), h.Jobs)

	video, err := svc.Update(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewVideoResponse(video))
}

// Delete 删除视频（连同原片与封面对象）.
//
//	@Summary		删除视频
//	@Tags			视频
//	@Produce		json
//	@Param			id	path		string	true	"视频ID"
//	@Success		200	{object}	map[string]any
//	@Failure		404	{object}	types.APIError
//	@Router			/api/videos/{id} [delete]
func (h *VideoHandlers) Delete(c *gin.Context) {
	svc := service.NewVideoService(c.Request.Context(), h.Jobs)

	if err := svc.Delete(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// Status 处理状态摘要，前端轮询或对账使用.
//
//	@Summary		处理状态
//	@Tags			视频
//	@Produce		json
//	@Param			id	path		string	true	"视频ID"
//	@Success		200	{object}	types.VideoStatusResponse
//	@Router			/api/videos/{id}/status [get]
func (h *VideoHandlers) Status(c *gin.Context) {
	svc := service.NewVideoService(c.Request.Context(), h.Jobs)

	status, err := svc.Status(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
