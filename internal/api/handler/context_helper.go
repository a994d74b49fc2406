package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/Dev4EM/tutorDepartment/pkg/errors"
	"github.com/Dev4EM/tutorDepartment/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// badBinding 请求绑定失败，details 中携带校验器给出的原因
func badBinding(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}

// handleKindError 按错误类别兜底映射 HTTP 状态码
func handleKindError(c *gin.Context, err error) {
	switch pkgerrors.Kind(err) {
	case pkgerrors.ErrValidation:
		response.BadRequest(c, 10001, err.Error())
	case pkgerrors.ErrNotFound:
		response.NotFound(c, 10404, err.Error())
	case pkgerrors.ErrOptimisticLock:
		response.Conflict(c, 10409, err.Error())
	default:
		// 记录到 c.Errors，由日志中间件输出
		_ = c.Error(err)
		response.InternalError(c)
	}
}
