package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Dev4EM/tutorDepartment/internal/model"
	"github.com/Dev4EM/tutorDepartment/internal/repository"
	pkgerrors "github.com/Dev4EM/tutorDepartment/pkg/errors"
)

// ── Mock ScheduleRepository ──
//
// 与真实实现保持一致的写入语义：
//   - 每次写入递增 version
//   - Replace 版本不匹配返回 ErrOptimisticLock
//   - 读出的任务为深拷贝，调用方修改不影响存储

type mockScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*model.Schedule
	statuses  map[string]model.StatusByDate

	// beforeReplace 在 Replace 获取锁之前调用，用于模拟读-写之间插入的并发修改
	beforeReplace func(id string)
	replaceCalls  int
	listErr       error
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{
		schedules: make(map[string]*model.Schedule),
		statuses:  make(map[string]model.StatusByDate),
	}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule, statuses model.StatusByDate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *schedule
	stored.Statuses = nil
	m.schedules[schedule.ScheduleID] = &stored
	m.statuses[schedule.ScheduleID] = statuses.Clone()
	schedule.Statuses = statuses.Rows(schedule.ScheduleID, schedule.UpdatedAt)
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schedules[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.snapshot(id), nil
}

func (m *mockScheduleRepo) List(_ context.Context, filter repository.ScheduleFilter) ([]model.Schedule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []model.Schedule
	for id, s := range m.schedules {
		if filter.Window != nil && !s.Range().Overlaps(*filter.Window) &&
			!(filter.WithStatusesInWindow && hasDateIn(m.statuses[id], *filter.Window)) {
			continue
		}
		if filter.AssignedTo != "" && s.AssignedTo != filter.AssignedTo {
			continue
		}
		result = append(result, *m.snapshot(id))
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ScheduleID < b.ScheduleID
	})
	return result, nil
}

func (m *mockScheduleRepo) Replace(_ context.Context, schedule *model.Schedule, statuses model.StatusByDate) error {
	m.mu.Lock()
	m.replaceCalls++
	hook := m.beforeReplace
	m.mu.Unlock()
	if hook != nil {
		hook(schedule.ScheduleID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.schedules[schedule.ScheduleID]
	if !ok || cur.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}

	now := time.Now()
	stored := *schedule
	stored.Statuses = nil
	stored.Version = cur.Version + 1
	stored.UpdatedAt = now
	m.schedules[schedule.ScheduleID] = &stored
	m.statuses[schedule.ScheduleID] = statuses.Clone()

	schedule.Version = stored.Version
	schedule.UpdatedAt = now
	schedule.Statuses = statuses.Rows(schedule.ScheduleID, now)
	return nil
}

func (m *mockScheduleRepo) UpsertStatus(_ context.Context, id string, date model.Date, status model.ScheduleStatus, updatedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedules[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Version++
	s.UpdatedAt = time.Now()
	if updatedBy != "" {
		s.UpdatedBy = &updatedBy
	}
	m.statuses[id][date] = status
	return nil
}

func (m *mockScheduleRepo) DeleteDate(_ context.Context, id string, date model.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedules[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if _, ok := m.statuses[id][date]; !ok {
		return false, repository.ErrDateNotFound
	}
	s.Version++
	delete(m.statuses[id], date)
	if len(m.statuses[id]) > 0 {
		return false, nil
	}
	delete(m.schedules, id)
	delete(m.statuses, id)
	return true, nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schedules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.schedules, id)
	delete(m.statuses, id)
	return nil
}

// snapshot 调用方需持有锁
func (m *mockScheduleRepo) snapshot(id string) *model.Schedule {
	c := *m.schedules[id]
	c.Statuses = m.statuses[id].Rows(id, c.UpdatedAt)
	return &c
}

// statusOf 直接读取存储中的单日状态
func (m *mockScheduleRepo) statusOf(id string, date string) (model.ScheduleStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[id][model.MustParseDate(date)]
	return st, ok
}

func (m *mockScheduleRepo) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceCalls
}

func hasDateIn(statuses model.StatusByDate, window model.DateRange) bool {
	for d := range statuses {
		if window.Contains(d) {
			return true
		}
	}
	return false
}
