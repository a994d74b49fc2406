package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Dev4EM/tutorDepartment/internal/dto"
	"github.com/Dev4EM/tutorDepartment/internal/service"
	"github.com/Dev4EM/tutorDepartment/pkg/response"
)

// ScheduleHandler 任务时间线 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// CreateSchedule 创建任务
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// ListSchedules 查询任务列表
// GET /api/v1/schedules?start_date=&end_date=&assigned_to=
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badBinding(c, err)
		return
	}

	h.list(c, &req)
}

// ListUserSchedules 查询指定指派人的任务
// GET /api/v1/schedules/user/:userId?start_date=&end_date=
func (h *ScheduleHandler) ListUserSchedules(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badBinding(c, err)
		return
	}
	// 路径参数覆盖查询串中的 assigned_to
	req.AssignedTo = c.Param("userId")

	h.list(c, &req)
}

func (h *ScheduleHandler) list(c *gin.Context, req *dto.ScheduleListRequest) {
	list, err := h.scheduleSvc.List(c.Request.Context(), req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKList(c, list, len(list))
}

// GetSchedule 获取任务详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	result, err := h.scheduleSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateSchedule 更新任务（标题/描述，可附带区间与单日状态）
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ResizeSchedule 调整任务区间
// PUT /api/v1/schedules/:id/range
func (h *ScheduleHandler) ResizeSchedule(c *gin.Context) {
	var req dto.ResizeScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.Resize(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// SetDateStatus 设置单日状态
// PATCH /api/v1/schedules/:id/status
func (h *ScheduleHandler) SetDateStatus(c *gin.Context) {
	var req dto.SetDateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.SetStatus(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteSchedule 删除单日或整条任务
// DELETE /api/v1/schedules/:id?date=YYYY-MM-DD
//   - 带 date：只删除该日，最后一天被删除时任务随之删除
//   - 不带 date：删除整条任务
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id := c.Param("id")

	date, hasDate := c.GetQuery("date")
	if hasDate {
		if date == "" {
			response.BadRequest(c, 10001, "date 不能为空")
			return
		}
		outcome, err := h.scheduleSvc.DeleteDate(c.Request.Context(), id, date)
		if err != nil {
			h.handleScheduleError(c, err)
			return
		}
		response.OK(c, dto.DeleteScheduleResponse{Outcome: string(outcome), Date: date})
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, dto.DeleteScheduleResponse{Outcome: string(service.OutcomeFullyDeleted)})
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 17001, "任务不存在")
	case errors.Is(err, service.ErrScheduleDateNotFound):
		response.NotFound(c, 17002, "该日期无任务记录")
	case errors.Is(err, service.ErrScheduleConflict):
		response.Conflict(c, 17003, "任务正被并发修改，请稍后重试")
	default:
		handleKindError(c, err)
	}
}
