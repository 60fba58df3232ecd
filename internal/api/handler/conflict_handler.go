package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"staff-roster/internal/service"
	"staff-roster/pkg/response"
)

// ConflictHandler 冲突检测模块 HTTP 处理器
type ConflictHandler struct {
	conflictSvc service.ConflictService
}

// NewConflictHandler 创建 ConflictHandler
func NewConflictHandler(conflictSvc service.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflictSvc: conflictSvc}
}

// ListConflicts 查询排班表当前冲突班次
// GET /api/v1/rosters/:id/conflicts
func (h *ConflictHandler) ListConflicts(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 16001, "排班表ID不能为空")
		return
	}

	result, err := h.conflictSvc.ListConflicts(c.Request.Context(), id)
	if err != nil {
		h.handleConflictError(c, err)
		return
	}

	response.OK(c, result)
}

// RefreshConflicts 手动触发冲突重算
// POST /api/v1/rosters/:id/conflicts/refresh
//
// 正常路径下班次集合每次变更都会自动重算；此接口用于休假/可用时段
// 在排班表不变的情况下发生变化后，由管理员按需刷新标记。
func (h *ConflictHandler) RefreshConflicts(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 16001, "排班表ID不能为空")
		return
	}

	if err := h.conflictSvc.Refresh(c.Request.Context(), id); err != nil {
		h.handleConflictError(c, err)
		return
	}

	result, err := h.conflictSvc.ListConflicts(c.Request.Context(), id)
	if err != nil {
		h.handleConflictError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ConflictHandler) handleConflictError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConflictRosterNotFound):
		response.NotFound(c, 16101, "排班表不存在")
	default:
		response.InternalError(c)
	}
}
