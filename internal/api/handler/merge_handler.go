package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"staff-roster/internal/dto"
	"staff-roster/internal/service"
	pkgerrors "staff-roster/pkg/errors"
	"staff-roster/pkg/response"
)

// MergeHandler 合并模块 HTTP 处理器
type MergeHandler struct {
	mergeSvc service.MergeService
}

// NewMergeHandler 创建 MergeHandler
func NewMergeHandler(mergeSvc service.MergeService) *MergeHandler {
	return &MergeHandler{mergeSvc: mergeSvc}
}

// PreviewMerge 合并预览（只读，不落库）
// POST /api/v1/rosters/:id/merge/preview
func (h *MergeHandler) PreviewMerge(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "排班表ID不能为空")
		return
	}

	var req dto.PreviewMergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	preview, err := h.mergeSvc.Preview(c.Request.Context(), id, &req)
	if err != nil {
		h.handleMergeError(c, err)
		return
	}

	response.OK(c, preview)
}

// ApplyMerge 应用合并
// POST /api/v1/rosters/:id/merge/apply
func (h *MergeHandler) ApplyMerge(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "排班表ID不能为空")
		return
	}

	var req dto.ApplyMergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	roster, err := h.mergeSvc.Apply(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleMergeError(c, err)
		return
	}

	response.OK(c, roster)
}

func (h *MergeHandler) handleMergeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMergeRosterNotFound):
		response.NotFound(c, 13101, "排班表不存在")
	case errors.Is(err, service.ErrMergeRosterArchived):
		response.UnprocessableEntity(c, 13102, "已归档排班表不可合并")
	case errors.Is(err, service.ErrShiftFieldInvalid):
		response.UnprocessableEntity(c, 13103, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13104, "排班表已被其他操作修改，请重新预览后应用")
	default:
		response.InternalError(c)
	}
}
