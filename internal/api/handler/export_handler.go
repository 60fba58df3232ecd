package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"staff-roster/internal/service"
	"staff-roster/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXLSX 导出排班表为 Excel
// GET /api/v1/rosters/:id/export/xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "排班表ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, xlsxContentType, filename, buf.Bytes())
}

// ExportICS 导出排班表为 iCalendar
// GET /api/v1/rosters/:id/export/ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "排班表ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportICS(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, icsContentType, filename, buf.Bytes())
}

// writeDownload 设置附件下载响应头并写入文件内容
func writeDownload(c *gin.Context, contentType, filename string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoRoster):
		response.NotFound(c, 15101, "排班表不存在")
	case errors.Is(err, service.ErrExportNoShifts):
		response.BadRequest(c, 15102, "排班表中无班次")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
