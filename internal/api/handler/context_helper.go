package handler

import (
	"github.com/gin-gonic/gin"

	"staff-roster/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果认证中间件未正确注入 user_id，返回 false 并写入 401 响应。
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

// MustGetActorID 提取变更操作的归因者。
// JWT 请求取注入的 user_id；提取服务请求（ServiceAuth 路由）
// 以 X-Actor-ID 头携带在提取界面确认操作的用户。
func MustGetActorID(c *gin.Context) (string, bool) {
	if v, exists := c.Get("user_id"); exists {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	if actor := c.GetHeader("X-Actor-ID"); actor != "" {
		return actor, true
	}
	response.Unauthorized(c, 10002, "缺少操作者身份")
	return "", false
}
