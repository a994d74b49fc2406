package model

import (
	"sort"
	"time"
)

// ── 枚举 ──

// ScheduleStatus 单日完成状态
type ScheduleStatus string

const (
	StatusPending   ScheduleStatus = "pending"
	StatusCompleted ScheduleStatus = "completed"
	StatusMissed    ScheduleStatus = "missed" // 仅由外部显式更新写入，本模块从不自动标记
)

// Valid 是否为合法状态
func (s ScheduleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusMissed:
		return true
	}
	return false
}

// TaskType 任务类型，仅供展示层区分，不影响时间线机制
type TaskType string

const (
	TaskTypeDaily      TaskType = "daily"
	TaskTypeOccasional TaskType = "occasional"
)

// Valid 是否为合法任务类型
func (t TaskType) Valid() bool {
	return t == TaskTypeDaily || t == TaskTypeOccasional
}

// ── Schedule 任务时间线（schedules） ──

// Schedule 为指派人在闭区间 [StartDate, EndDate] 内的一项任务。
// 每日状态存放在 schedule_date_statuses，按 (schedule_id, status_date) 唯一。
type Schedule struct {
	ScheduleID  string   `gorm:"type:varchar(36);primaryKey"              json:"schedule_id"`
	Title       string   `gorm:"type:varchar(200);not null"               json:"title"`
	Description string   `gorm:"type:text"                                json:"description,omitempty"`
	AssignedTo  string   `gorm:"type:varchar(64);not null;index"          json:"assigned_to"`
	CreatedBy   string   `gorm:"type:varchar(64);not null"                json:"created_by"`
	StartDate   Date     `gorm:"type:date;not null;index"                 json:"start_date"`
	EndDate     Date     `gorm:"type:date;not null;index"                 json:"end_date"`
	TaskType    TaskType `gorm:"type:varchar(20);not null;default:'daily'" json:"task_type"` // daily | occasional
	VersionedModel

	// 关联
	Statuses []ScheduleDateStatus `gorm:"foreignKey:ScheduleID;references:ScheduleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Schedule) TableName() string { return "schedules" }

// Range 返回声明区间
func (s *Schedule) Range() DateRange {
	return DateRange{Start: s.StartDate, End: s.EndDate}
}

// StatusMap 将关联行转换为按日期索引的状态表
func (s *Schedule) StatusMap() StatusByDate {
	m := make(StatusByDate, len(s.Statuses))
	for _, st := range s.Statuses {
		m[st.StatusDate] = st.Status
	}
	return m
}

// ScheduleDateStatus 单日状态表（schedule_date_statuses）
type ScheduleDateStatus struct {
	ScheduleID string         `gorm:"type:varchar(36);primaryKey"                 json:"schedule_id"`
	StatusDate Date           `gorm:"type:date;primaryKey"                        json:"date"`
	Status     ScheduleStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // pending | completed | missed
	UpdatedAt  time.Time      `gorm:"not null"                                    json:"updated_at"`
}

func (ScheduleDateStatus) TableName() string { return "schedule_date_statuses" }

// ── StatusByDate ──

// StatusByDate 日期 → 状态
type StatusByDate map[Date]ScheduleStatus

// SortedDates 升序返回所有日期
func (m StatusByDate) SortedDates() []Date {
	dates := make([]Date, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Rows 转换为待持久化的行，按日期升序
func (m StatusByDate) Rows(scheduleID string, now time.Time) []ScheduleDateStatus {
	rows := make([]ScheduleDateStatus, 0, len(m))
	for _, d := range m.SortedDates() {
		rows = append(rows, ScheduleDateStatus{
			ScheduleID: scheduleID,
			StatusDate: d,
			Status:     m[d],
			UpdatedAt:  now,
		})
	}
	return rows
}

// Clone 深拷贝
func (m StatusByDate) Clone() StatusByDate {
	c := make(StatusByDate, len(m))
	for d, s := range m {
		c[d] = s
	}
	return c
}
