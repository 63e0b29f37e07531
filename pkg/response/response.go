// Package response 统一 HTTP JSON 响应格式
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/logger"
)

// ErrorBody 错误响应体
type ErrorBody struct {
	Code       errorx.Code `json:"code"`
	Error      string      `json:"error"`
	StatusCode int         `json:"status_code"`
	Timestamp  time.Time   `json:"timestamp"`
	RequestID  string      `json:"request_id,omitempty"`
}

// Success 返回数据
func Success(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// NoContent 返回 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 将错误映射为状态码与统一错误体，内部错误只记日志不透出
func Error(c *gin.Context, err error) {
	code := errorx.CodeOf(err)
	status := errorx.HTTPStatus(code)
	ctx := c.Request.Context()

	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "path", c.FullPath(), "error", err)
	}

	c.AbortWithStatusJSON(status, ErrorBody{
		Code:       code,
		Error:      errorx.PublicMessage(err),
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
		RequestID:  logger.RequestIDFromContext(ctx),
	})
}

// BadRequest 请求体或参数解析失败
func BadRequest(c *gin.Context, err error) {
	Error(c, errorx.InvalidInput("invalid request: %v", err))
}
