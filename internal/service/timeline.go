package service

import (
	"github.com/Dev4EM/tutorDepartment/internal/dto"
	"github.com/Dev4EM/tutorDepartment/internal/model"
)

// ── 时间线计算（纯函数） ──

// generateStatusByDate 为闭区间内每一天生成 pending 状态
func generateStatusByDate(r model.DateRange) model.StatusByDate {
	m := make(model.StatusByDate, r.Days())
	r.Each(func(d model.Date) {
		m[d] = model.StatusPending
	})
	return m
}

// mergeStatusByDate 按新区间重建状态表：
// 区间内已有状态的日期保留原状态，新增日期为 pending，区间外的日期丢弃
func mergeStatusByDate(existing model.StatusByDate, r model.DateRange) model.StatusByDate {
	merged := generateStatusByDate(r)
	for d := range merged {
		if st, ok := existing[d]; ok {
			merged[d] = st
		}
	}
	return merged
}

// summarize 统计各状态天数
func summarize(m model.StatusByDate) dto.StatusSummary {
	sum := dto.StatusSummary{Total: len(m)}
	for _, st := range m {
		switch st {
		case model.StatusPending:
			sum.Pending++
		case model.StatusCompleted:
			sum.Completed++
		case model.StatusMissed:
			sum.Missed++
		}
	}
	return sum
}
