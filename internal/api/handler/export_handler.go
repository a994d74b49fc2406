package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Dev4EM/tutorDepartment/internal/dto"
	"github.com/Dev4EM/tutorDepartment/internal/service"
	"github.com/Dev4EM/tutorDepartment/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTimeline 导出任务时间线 Excel
// GET /api/v1/schedules/export/xlsx?start_date=&end_date=&assigned_to=
func (h *ExportHandler) ExportTimeline(c *gin.Context) {
	var req dto.ScheduleExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badBinding(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportTimeline(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportICS 导出任务时间线 iCalendar
// GET /api/v1/schedules/export/ics?start_date=&end_date=&assigned_to=
func (h *ExportHandler) ExportICS(c *gin.Context) {
	var req dto.ScheduleExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badBinding(c, err)
		return
	}

	data, filename, err := h.exportSvc.ExportICS(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeICS, data)
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSchedule):
		response.NotFound(c, 17101, "所选区间内暂无任务")
	case errors.Is(err, service.ErrExportRangeTooLong):
		response.BadRequest(c, 17102, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleKindError(c, err)
	}
}
