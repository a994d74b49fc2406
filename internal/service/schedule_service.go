package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Dev4EM/tutorDepartment/config"
	"github.com/Dev4EM/tutorDepartment/internal/dto"
	"github.com/Dev4EM/tutorDepartment/internal/model"
	"github.com/Dev4EM/tutorDepartment/internal/repository"
	pkgerrors "github.com/Dev4EM/tutorDepartment/pkg/errors"
)

// ── 任务时间线模块业务错误 ──

var (
	ErrScheduleNotFound      = pkgerrors.New(pkgerrors.ErrNotFound, "任务不存在")
	ErrScheduleDateNotFound  = pkgerrors.New(pkgerrors.ErrNotFound, "该日期无任务记录")
	ErrScheduleTitleRequired = pkgerrors.Validation("任务标题不能为空")
	ErrCreatorRequired       = pkgerrors.Validation("创建人不能为空")
	ErrInvalidDate           = pkgerrors.Validation("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidDateRange      = pkgerrors.Validation("开始日期不能晚于结束日期")
	ErrDateRangeTooLong      = pkgerrors.Validation("任务区间超出允许的最大天数")
	ErrInvalidTaskType       = pkgerrors.Validation("任务类型无效")
	ErrInvalidStatus         = pkgerrors.Validation("状态无效")
	ErrDateOutOfRange        = pkgerrors.Validation("日期不在任务区间内")
	ErrScheduleConflict      = pkgerrors.New(pkgerrors.ErrOptimisticLock, "任务正被并发修改，请稍后重试")
)

// defaultMaxRangeDays 未配置 max_range_days 时的区间上限
const defaultMaxRangeDays = 3660

// DeleteOutcome 单日删除结果
type DeleteOutcome string

const (
	OutcomePartiallyDeleted DeleteOutcome = "partially_deleted"
	OutcomeFullyDeleted     DeleteOutcome = "fully_deleted"
)

// ScheduleService 任务时间线业务接口
type ScheduleService interface {
	// 创建任务并为区间内每天生成 pending 状态
	Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	// 获取任务详情
	GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error)
	// 按区间重叠与指派人查询
	List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, error)
	// 更新标题/描述，可附带区间调整与单日状态
	Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	// 调整区间（保留仍在区间内的已有状态）
	Resize(ctx context.Context, id string, req *dto.ResizeScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	// 设置单日状态（upsert）
	SetStatus(ctx context.Context, id string, req *dto.SetDateStatusRequest, callerID string) (*dto.ScheduleResponse, error)
	// 删除单日；最后一天被删除时整条任务随之删除
	DeleteDate(ctx context.Context, id string, date string) (DeleteOutcome, error)
	// 删除整条任务
	Delete(ctx context.Context, id string) error
}

type scheduleService struct {
	repo     *repository.Repository
	cfg      config.TimelineConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, cfg config.TimelineConfig, logger *zap.Logger) ScheduleService {
	if cfg.MaxWriteAttempts < 1 {
		cfg.MaxWriteAttempts = 1
	}
	if cfg.MaxRangeDays < 1 {
		cfg.MaxRangeDays = defaultMaxRangeDays
	}
	return &scheduleService{
		repo:     repo,
		cfg:      cfg,
		validate: dto.NewValidator(),
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrScheduleTitleRequired
	}
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = callerID
	}
	if createdBy == "" {
		return nil, ErrCreatorRequired
	}
	taskType := model.TaskType(req.TaskType)
	if !taskType.Valid() {
		return nil, ErrInvalidTaskType
	}
	r, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	schedule := &model.Schedule{
		ScheduleID:  uuid.NewString(),
		Title:       title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   createdBy,
		StartDate:   r.Start,
		EndDate:     r.End,
		TaskType:    taskType,
	}
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	schedule.UpdatedBy = &createdBy
	schedule.Version = 1

	statuses := generateStatusByDate(r)
	if err := s.repo.Schedule.Create(ctx, schedule, statuses); err != nil {
		s.logger.Error("创建任务失败", zap.String("assigned_to", req.AssignedTo), zap.Error(err))
		return nil, err
	}

	s.logger.Info("任务已创建",
		zap.String("id", schedule.ScheduleID),
		zap.String("assigned_to", schedule.AssignedTo),
		zap.Int("days", len(statuses)),
	)
	return toScheduleResponse(schedule, statuses), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error) {
	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule, schedule.StatusMap()), nil
}

// ────────────────────── List ──────────────────────

func (s *scheduleService) List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	filter := repository.ScheduleFilter{AssignedTo: req.AssignedTo}
	if req.StartDate != "" && req.EndDate != "" {
		r, err := parseWindow(req.StartDate, req.EndDate)
		if err != nil {
			return nil, err
		}
		filter.Window = &r
	}

	schedules, err := s.repo.Schedule.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询任务列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, *toScheduleResponse(&schedules[i], schedules[i].StatusMap()))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	var title *string
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return nil, ErrScheduleTitleRequired
		}
		title = &t
	}

	var newRange *model.DateRange
	if req.StartDate != "" && req.EndDate != "" {
		r, err := s.parseRange(req.StartDate, req.EndDate)
		if err != nil {
			return nil, err
		}
		newRange = &r
	}

	var (
		date   model.Date
		status model.ScheduleStatus
	)
	hasStatus := req.Date != "" && req.Status != ""
	if hasStatus {
		var err error
		if date, status, err = parseDateStatus(req.Date, req.Status); err != nil {
			return nil, err
		}
	}

	var updated *model.Schedule
	var statuses model.StatusByDate
	err := s.withRetry(ctx, id, func() error {
		schedule, err := s.getSchedule(ctx, id)
		if err != nil {
			return err
		}

		if title != nil {
			schedule.Title = *title
		}
		if req.Description != nil {
			schedule.Description = *req.Description
		}

		next := schedule.StatusMap()
		if newRange != nil {
			next = mergeStatusByDate(next, *newRange)
			schedule.StartDate, schedule.EndDate = newRange.Start, newRange.End
		}
		if hasStatus {
			if s.cfg.StrictStatusRange && !schedule.Range().Contains(date) {
				return ErrDateOutOfRange
			}
			next[date] = status
		}
		schedule.UpdatedBy = &callerID

		if err := s.repo.Schedule.Replace(ctx, schedule, next); err != nil {
			return err
		}
		updated, statuses = schedule, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toScheduleResponse(updated, statuses), nil
}

// ────────────────────── Resize ──────────────────────

func (s *scheduleService) Resize(ctx context.Context, id string, req *dto.ResizeScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	r, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var updated *model.Schedule
	var statuses model.StatusByDate
	err = s.withRetry(ctx, id, func() error {
		schedule, err := s.getSchedule(ctx, id)
		if err != nil {
			return err
		}

		merged := mergeStatusByDate(schedule.StatusMap(), r)
		schedule.StartDate, schedule.EndDate = r.Start, r.End
		schedule.UpdatedBy = &callerID

		if err := s.repo.Schedule.Replace(ctx, schedule, merged); err != nil {
			return err
		}
		updated, statuses = schedule, merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("任务区间已调整",
		zap.String("id", id),
		zap.String("start_date", r.Start.String()),
		zap.String("end_date", r.End.String()),
	)
	return toScheduleResponse(updated, statuses), nil
}

// ────────────────────── SetStatus ──────────────────────

func (s *scheduleService) SetStatus(ctx context.Context, id string, req *dto.SetDateStatusRequest, callerID string) (*dto.ScheduleResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	date, status, err := parseDateStatus(req.Date, req.Status)
	if err != nil {
		return nil, err
	}

	if s.cfg.StrictStatusRange {
		return s.setStatusInRange(ctx, id, date, status, callerID)
	}

	// 默认允许写入区间外日期：单行 upsert，不重写其他日期
	if err := s.repo.Schedule.UpsertStatus(ctx, id, date, status, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("更新单日状态失败", zap.String("id", id), zap.String("date", date.String()), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// setStatusInRange 严格模式：校验日期属于当前区间，并以乐观锁写入，
// 避免与并发的区间调整交错后留下区间外的状态
func (s *scheduleService) setStatusInRange(ctx context.Context, id string, date model.Date, status model.ScheduleStatus, callerID string) (*dto.ScheduleResponse, error) {
	var updated *model.Schedule
	var statuses model.StatusByDate
	err := s.withRetry(ctx, id, func() error {
		schedule, err := s.getSchedule(ctx, id)
		if err != nil {
			return err
		}
		if !schedule.Range().Contains(date) {
			return ErrDateOutOfRange
		}

		next := schedule.StatusMap()
		next[date] = status
		schedule.UpdatedBy = &callerID
		if err := s.repo.Schedule.Replace(ctx, schedule, next); err != nil {
			return err
		}
		updated, statuses = schedule, next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toScheduleResponse(updated, statuses), nil
}

// ────────────────────── DeleteDate ──────────────────────

func (s *scheduleService) DeleteDate(ctx context.Context, id string, date string) (DeleteOutcome, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return "", ErrInvalidDate
	}

	fullyDeleted, err := s.repo.Schedule.DeleteDate(ctx, id, d)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return "", ErrScheduleNotFound
		case errors.Is(err, repository.ErrDateNotFound):
			return "", ErrScheduleDateNotFound
		}
		s.logger.Error("删除单日任务失败", zap.String("id", id), zap.String("date", date), zap.Error(err))
		return "", err
	}

	if fullyDeleted {
		s.logger.Info("任务最后一天已删除，任务整体移除", zap.String("id", id))
		return OutcomeFullyDeleted, nil
	}
	return OutcomePartiallyDeleted, nil
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Schedule.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("删除任务失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *scheduleService) getSchedule(ctx context.Context, id string) (*model.Schedule, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询任务失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return schedule, nil
}

// withRetry 执行读-合并-写操作，乐观锁冲突时重新读取并重试，超过上限返回 ErrScheduleConflict
func (s *scheduleService) withRetry(ctx context.Context, id string, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return err
		}
		if attempt >= s.cfg.MaxWriteAttempts {
			s.logger.Warn("任务写入冲突重试次数耗尽", zap.String("id", id), zap.Int("attempts", attempt))
			return ErrScheduleConflict
		}
		s.logger.Debug("任务写入冲突，重试", zap.String("id", id), zap.Int("attempt", attempt))

		if s.cfg.RetryBackoff > 0 {
			timer := time.NewTimer(s.cfg.RetryBackoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (s *scheduleService) validateRequest(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		return pkgerrors.Validation(fmt.Sprintf("请求参数不合法: %v", err))
	}
	return nil
}

// parseRange 解析任务区间，校验先后顺序与最大天数
func (s *scheduleService) parseRange(start, end string) (model.DateRange, error) {
	r, err := parseWindow(start, end)
	if err != nil {
		return model.DateRange{}, err
	}
	if r.Days() > s.cfg.MaxRangeDays {
		return model.DateRange{}, ErrDateRangeTooLong
	}
	return r, nil
}

// parseWindow 解析闭区间，仅校验格式与先后顺序
func parseWindow(start, end string) (model.DateRange, error) {
	startDate, err := model.ParseDate(start)
	if err != nil {
		return model.DateRange{}, ErrInvalidDate
	}
	endDate, err := model.ParseDate(end)
	if err != nil {
		return model.DateRange{}, ErrInvalidDate
	}
	r := model.DateRange{Start: startDate, End: endDate}
	if !r.Valid() {
		return model.DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

func parseDateStatus(date, status string) (model.Date, model.ScheduleStatus, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return model.Date{}, "", ErrInvalidDate
	}
	st := model.ScheduleStatus(status)
	if !st.Valid() {
		return model.Date{}, "", ErrInvalidStatus
	}
	return d, st, nil
}

func toScheduleResponse(s *model.Schedule, statuses model.StatusByDate) *dto.ScheduleResponse {
	byDate := make(map[string]string, len(statuses))
	for d, st := range statuses {
		byDate[d.String()] = string(st)
	}
	return &dto.ScheduleResponse{
		ID:           s.ScheduleID,
		Title:        s.Title,
		Description:  s.Description,
		AssignedTo:   s.AssignedTo,
		CreatedBy:    s.CreatedBy,
		StartDate:    s.StartDate.String(),
		EndDate:      s.EndDate.String(),
		TaskType:     string(s.TaskType),
		StatusByDate: byDate,
		Summary:      summarize(statuses),
		Version:      s.Version,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
}
