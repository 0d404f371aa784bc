package handle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/metrics"
	"github.com/yeisme/vidvault/pkg/middleware"
)

// StreamHandlers 流式传输处理器.
type StreamHandlers struct{}

const (
	streamCacheControl = "public, max-age=31536000"
	copyBufferSize     = 64 * 1024
)

// rangeRe 只接受单区间 bytes=start-end 形式；
// 后缀区间（bytes=-N）与多区间按不可满足处理.
var rangeRe = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)

// errUnsatisfiableRange 区间越界或无法解析.
var errUnsatisfiableRange = errors.New("unsatisfiable range")

// parseRangeHeader 解析 Range 头，返回闭区间 [start, end].
// end 省略时默认到文件末尾. 要求 0 ≤ start ≤ end < size.
func parseRangeHeader(header string, size int64) (start, end int64, err error) {
	m := rangeRe.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, errUnsatisfiableRange
	}

	start, err = strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, errUnsatisfiableRange
	}

	end = size - 1
	if m[2] != "" {
		end, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, 0, errUnsatisfiableRange
		}
	}

	if start > end || end >= size {
		return 0, 0, errUnsatisfiableRange
	}

	return start, end, nil
}

// contentTypeFor 视频响应的 Content-Type.
func contentTypeFor(video *model.Video) string {
	if strings.Contains(video.Format, "/") {
		return video.Format
	}

	if ext := filepath.Ext(video.OriginalFilename); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}

	return "application/octet-stream"
}

// Video 按字节区间流式返回原片.
//
// 认证可来自请求头、cookie 或 token 查询参数（媒体元素只能用后者）.
// 处理未完成返回 202 与进度；处理失败返回 500；区间越界返回 416.
//
//	@Summary		视频字节流
//	@Tags			流式
//	@Produce		octet-stream
//	@Param			id		path	string	true	"视频ID"
//	@Param			token	query	string	false	"访问令牌"
//	@Param			Range	header	string	false	"字节区间 bytes=start-end"
//	@Success		200	{file}		file
//	@Success		206	{file}		file
//	@Failure		202	{object}	types.VideoStatusResponse	"仍在处理"
//	@Failure		416	{object}	types.APIError
//	@Router			/api/stream/{id} [get]
func (h *StreamHandlers) Video(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	svc := service.NewVideoService(c.Request.Context(), nil)

	video, err := svc.GetForStreaming(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotReady):
			c.JSON(http.StatusAccepted, types.VideoStatusResponse{
				Status:            video.Status,
				Progress:          video.ProcessingProgress,
				SensitivityStatus: video.Sensitivity.Status,
			})
		case errors.Is(err, service.ErrProcessingFailed):
			c.JSON(http.StatusInternalServerError, types.APIError{Error: "video processing failed"})
		default:
			respondServiceError(c, err)
		}

		return
	}

	total := video.FileSize
	rangeHeader := c.GetHeader("Range")

	var (
		start, end int64
		status     int
	)

	if rangeHeader == "" {
		start, end = 0, total-1
		status = http.StatusOK
	} else {
		start, end, err = parseRangeHeader(rangeHeader, total)
		if err != nil {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", total))
			c.JSON(http.StatusRequestedRangeNotSatisfiable, types.APIError{Error: "range not satisfiable"})

			return
		}

		status = http.StatusPartialContent
	}

	reader, err := svc.OpenRange(c.Request.Context(), video, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer func() { _ = reader.Close() }()

	length := end - start + 1

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Type", contentTypeFor(video))
	c.Header("Content-Length", strconv.FormatInt(length, 10))
	c.Header("Cache-Control", streamCacheControl)

	if status == http.StatusPartialContent {
		c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	}

	c.Status(status)

	// 响应头已经写出，观看计数异步进行，失败不影响传输
	viewerID := ""
	if principal != nil {
		viewerID = principal.SubjectID
	}

	go func(ctx context.Context) {
		service.NewVideoService(ctx, nil).RecordView(ctx, video, viewerID)
	}(context.WithoutCancel(c.Request.Context()))

	// 有界缓冲的分片拷贝：不把整个区间读进内存，
	// 客户端断开时请求上下文取消会中断底层定位读
	buf := make([]byte, copyBufferSize)

	written, err := io.CopyBuffer(c.Writer, io.LimitReader(reader, length), buf)

	metrics.StreamedBytes.Add(float64(written))

	if err != nil && !errors.Is(err, context.Canceled) {
		nlog.Logger().Debug().Err(err).
			Str("video", video.ID).
			Int64("written", written).
			Msg("stream copy interrupted")
	}
}

// Thumbnail 返回封面 JPEG. 租户与可见性规则与视频一致，无封面时 404.
//
//	@Summary		视频封面
//	@Tags			流式
//	@Produce		jpeg
//	@Param			id		path	string	true	"视频ID"
//	@Param			token	query	string	false	"访问令牌"
//	@Success		200	{file}		file
//	@Failure		404	{object}	types.APIError
//	@Router			/api/stream/{id}/thumbnail [get]
func (h *StreamHandlers) Thumbnail(c *gin.Context) {
	svc := service.NewVideoService(c.Request.Context(), nil)

	data, err := svc.Thumbnail(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNoThumbnail) {
			c.JSON(http.StatusNotFound, types.APIError{Error: "thumbnail not found"})
			return
		}

		respondServiceError(c, err)

		return
	}

	c.Header("Cache-Control", streamCacheControl)
	c.Data(http.StatusOK, "image/jpeg", data)
}
