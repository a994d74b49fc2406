package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dev4EM/tutorDepartment/internal/model"
	pkgerrors "github.com/Dev4EM/tutorDepartment/pkg/errors"
)

// ScheduleFilter 任务查询条件，零值字段不参与过滤
type ScheduleFilter struct {
	// Window 非空时按闭区间重叠过滤：start_date <= Window.End AND end_date >= Window.Start
	Window     *model.DateRange
	AssignedTo string
	// WithStatusesInWindow 为 true 时，声明区间不重叠但在窗口内有单日状态的任务也会命中
	WithStatusesInWindow bool
}

// ScheduleRepository 任务时间线数据访问接口
//
// 写操作约定：
//   - 带 version 参数的方法以乐观锁写入，版本不匹配返回 pkgerrors.ErrOptimisticLock
//   - 任务不存在返回 gorm.ErrRecordNotFound
//   - 每次写入都会递增 version，使并发的读-合并-写能感知中间发生的修改
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule, statuses model.StatusByDate) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error)
	// Replace 以乐观锁整体替换任务字段与全部单日状态（区间调整、详情更新）
	Replace(ctx context.Context, schedule *model.Schedule, statuses model.StatusByDate) error
	// UpsertStatus 写入单日状态，不影响其他日期
	UpsertStatus(ctx context.Context, id string, date model.Date, status model.ScheduleStatus, updatedBy string) error
	// DeleteDate 删除单日状态；剩余为空时连同任务一起删除，返回是否整体删除。
	// 该日期不存在时返回 ErrDateNotFound。
	DeleteDate(ctx context.Context, id string, date model.Date) (fullyDeleted bool, err error)
	Delete(ctx context.Context, id string) error
}

// ErrDateNotFound 任务存在但不含指定日期
var ErrDateNotFound = pkgerrors.New(pkgerrors.ErrNotFound, "日期记录不存在")

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

// batchSize 批量写入单日状态时每批行数
const batchSize = 500

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule, statuses model.StatusByDate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(schedule).Error; err != nil {
			return err
		}
		rows := statuses.Rows(schedule.ScheduleID, schedule.UpdatedAt)
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, batchSize).Error; err != nil {
			return err
		}
		schedule.Statuses = rows
		return nil
	})
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Statuses", orderByDate).
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx).Preload("Statuses", orderByDate)

	if filter.Window != nil {
		if filter.WithStatusesInWindow {
			db = db.Where("(start_date <= ? AND end_date >= ?) OR EXISTS ("+
				"SELECT 1 FROM schedule_date_statuses sds "+
				"WHERE sds.schedule_id = schedules.schedule_id AND sds.status_date BETWEEN ? AND ?)",
				filter.Window.End, filter.Window.Start, filter.Window.Start, filter.Window.End)
		} else {
			db = db.Where("start_date <= ? AND end_date >= ?", filter.Window.End, filter.Window.Start)
		}
	}
	if filter.AssignedTo != "" {
		db = db.Where("assigned_to = ?", filter.AssignedTo)
	}

	err := db.Order("start_date ASC, created_at ASC, schedule_id ASC").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) Replace(ctx context.Context, schedule *model.Schedule, statuses model.StatusByDate) error {
	oldVersion := schedule.Version
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Schedule{}).
			Where("schedule_id = ? AND version = ?", schedule.ScheduleID, oldVersion).
			Updates(map[string]interface{}{
				"title":       schedule.Title,
				"description": schedule.Description,
				"start_date":  schedule.StartDate,
				"end_date":    schedule.EndDate,
				"updated_by":  schedule.UpdatedBy,
				"updated_at":  now,
				"version":     oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		if err := tx.Where("schedule_id = ?", schedule.ScheduleID).
			Delete(&model.ScheduleDateStatus{}).Error; err != nil {
			return err
		}
		rows := statuses.Rows(schedule.ScheduleID, now)
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		return err
	}

	schedule.Version = oldVersion + 1
	schedule.UpdatedAt = now
	schedule.Statuses = statuses.Rows(schedule.ScheduleID, now)
	return nil
}

func (r *scheduleRepo) UpsertStatus(ctx context.Context, id string, date model.Date, status model.ScheduleStatus, updatedBy string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先递增版本：既锁定任务行，也让并发的区间调整在提交时检测到冲突
		if err := bumpVersion(tx, id, updatedBy, now); err != nil {
			return err
		}
		row := model.ScheduleDateStatus{
			ScheduleID: id,
			StatusDate: date,
			Status:     status,
			UpdatedAt:  now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schedule_id"}, {Name: "status_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&row).Error
	})
}

func (r *scheduleRepo) DeleteDate(ctx context.Context, id string, date model.Date) (bool, error) {
	fullyDeleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, id, "", time.Now()); err != nil {
			return err
		}

		result := tx.Where("schedule_id = ? AND status_date = ?", id, date).
			Delete(&model.ScheduleDateStatus{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDateNotFound
		}

		var remaining int64
		if err := tx.Model(&model.ScheduleDateStatus{}).
			Where("schedule_id = ?", id).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		// 最后一天被删除：任务不允许以空时间线存在
		if err := tx.Where("schedule_id = ?", id).Delete(&model.Schedule{}).Error; err != nil {
			return err
		}
		fullyDeleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return fullyDeleted, nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", id).
			Delete(&model.ScheduleDateStatus{}).Error; err != nil {
			return err
		}
		result := tx.Where("schedule_id = ?", id).Delete(&model.Schedule{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ── 内部辅助 ──

func orderByDate(db *gorm.DB) *gorm.DB {
	return db.Order("status_date ASC")
}

// bumpVersion 无条件递增版本号，任务不存在时返回 gorm.ErrRecordNotFound
func bumpVersion(tx *gorm.DB, id, updatedBy string, now time.Time) error {
	updates := map[string]interface{}{
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	}
	if updatedBy != "" {
		updates["updated_by"] = updatedBy
	}
	result := tx.Model(&model.Schedule{}).
		Where("schedule_id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
