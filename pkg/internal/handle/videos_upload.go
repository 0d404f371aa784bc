package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/middleware"
	"github.com/yeisme/vidvault/pkg/rule"
)

// Upload 接收多段表单上传：文件字段 video，文本字段 title/description/visibility.
// 成功返回 201 与视频摘要，处理结果稍后经实时通道推送.
//
//	@Summary		上传视频
//	@Description	multipart 表单：video（文件）、title、description、visibility
//	@Tags			视频
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			video		formData	file	true	"视频文件"
//	@Param			title		formData	string	true	"标题"
//	@Param			description	formData	string	false	"描述"
//	@Param			visibility	formData	string	false	"可见性 private/organization/public"
//	@Success		201	{object}	types.VideoResponse
//	@Failure		400	{object}	types.APIError	"参数或格式错误"
//	@Failure		413	{object}	types.APIError	"文件过大"
//	@Router			/api/videos [post]
func (h *VideoHandlers) Upload(c *gin.Context) {
	var form types.UploadVideoForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: err.Error()})
		return
	}

	if err := rule.ValidateStruct(&form); err != nil {
		respondValidationError(c, err)
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: "missing video file"})
		return
	}

	principal := middleware.GetPrincipal(c)
	svc := service.NewVideoService(c.Request.Context(), h.Jobs)

	video, err := svc.Upload(c.Request.Context(), principal, &form, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	nlog.Logger().Info().
		Str("video", video.ID).
		Str("user", principal.SubjectID).
		Msg("upload accepted")

	c.JSON(http.StatusCreated, types.NewVideoResponse(video))
}
