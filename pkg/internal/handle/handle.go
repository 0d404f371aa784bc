// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/rule"
	"github.com/yeisme/vidvault/pkg/token"
)

// respondServiceError 将业务/令牌错误映射为 HTTP 状态码与错误信封.
// 未识别的错误一律 500 + 通用消息，细节只进日志.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, types.APIError{Error: "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, types.APIError{Error: "access denied"})
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrSlugTaken):
		c.JSON(http.StatusConflict, types.APIError{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInactiveUser),
		errors.Is(err, service.ErrRefreshReuse):
		c.JSON(http.StatusUnauthorized, types.APIError{Error: err.Error()})
	case errors.Is(err, service.ErrRegistrationClosed):
		c.JSON(http.StatusForbidden, types.APIError{Error: err.Error()})
	case errors.Is(err, service.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, types.APIError{Error: err.Error()})
	case errors.Is(err, service.ErrFormatNotAllowed):
		c.JSON(http.StatusBadRequest, types.APIError{Error: err.Error()})
	case errors.Is(err, token.ErrExpired):
		c.JSON(http.StatusUnauthorized, types.APIError{Error: "token expired", Code: types.CodeTokenExpired})
	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrBadSignature),
		errors.Is(err, token.ErrWrongKind):
		c.JSON(http.StatusUnauthorized, types.APIError{Error: "invalid token"})
	default:
		nlog.Logger().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, types.APIError{Error: "internal server error"})
	}
}

// respondValidationError 按字段展开校验错误，统一 400.
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, types.APIError{
		Error:   "validation failed",
		Details: rule.Errors(err),
	})
}
