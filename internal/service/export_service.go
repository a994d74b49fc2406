package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Dev4EM/tutorDepartment/internal/dto"
	"github.com/Dev4EM/tutorDepartment/internal/model"
	"github.com/Dev4EM/tutorDepartment/internal/repository"
	pkgerrors "github.com/Dev4EM/tutorDepartment/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSchedule   = pkgerrors.New(pkgerrors.ErrNotFound, "所选区间内暂无任务")
	ErrExportRangeTooLong = pkgerrors.Validation("导出区间不能超过 366 天")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	exportMaxDays    = 366
	icsProductID     = "-//tutorDepartment//Schedule Timeline//ZH"
	xlsxSheetName    = "任务时间线"
	xlsxFixedColumns = 4 // 任务 | 指派人 | 类型 | 区间
)

var (
	xlsxStatusLabels       = map[model.ScheduleStatus]string{model.StatusPending: "待完成", model.StatusCompleted: "已完成", model.StatusMissed: "未完成"}
	xlsxStatusFillByStatus = map[model.ScheduleStatus]string{model.StatusPending: "#FFF2CC", model.StatusCompleted: "#C6EFCE", model.StatusMissed: "#FFC7CE"}
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 两种导出均以查询窗口为准，只包含与窗口重叠的任务、且只输出窗口内的日期
//   - Excel：每行一个任务，每列一天，单元格为当日状态
//   - ICS：每个已有状态的日期生成一个全天事件，供外部日历订阅
type ExportService interface {
	// ExportTimeline 导出时间线为 Excel
	ExportTimeline(ctx context.Context, req *dto.ScheduleExportRequest) (*bytes.Buffer, string, error)
	// ExportICS 导出时间线为 iCalendar
	ExportICS(ctx context.Context, req *dto.ScheduleExportRequest) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTimeline: 导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 行头：任务标题 / 指派人 / 类型 / 声明区间
//   - 列头：窗口内每一天（YYYY-MM-DD）
//   - 单元格：待完成 / 已完成 / 未完成，无记录留空

func (s *exportService) ExportTimeline(ctx context.Context, req *dto.ScheduleExportRequest) (*bytes.Buffer, string, error) {
	window, schedules, err := s.load(ctx, req)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(xlsxSheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(xlsxSheetName, "A", "A", 24)
	f.SetColWidth(xlsxSheetName, "B", "B", 14)
	f.SetColWidth(xlsxSheetName, "C", "C", 10)
	f.SetColWidth(xlsxSheetName, "D", "D", 24)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	statusStyles := make(map[model.ScheduleStatus]int, len(xlsxStatusFillByStatus))
	for st, color := range xlsxStatusFillByStatus {
		id, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		statusStyles[st] = id
	}

	// 表头
	headers := []string{"任务", "指派人", "类型", "区间"}
	for i, h := range headers {
		f.SetCellValue(xlsxSheetName, cellAt(i+1, 1), h)
	}
	dates := make([]model.Date, 0, window.Days())
	window.Each(func(d model.Date) { dates = append(dates, d) })
	for i, d := range dates {
		f.SetCellValue(xlsxSheetName, cellAt(xlsxFixedColumns+i+1, 1), d.String())
	}
	f.SetCellStyle(xlsxSheetName, "A1", cellAt(xlsxFixedColumns+len(dates), 1), headerStyle)

	// 数据行
	for r := range schedules {
		sch := &schedules[r]
		row := r + 2
		f.SetCellValue(xlsxSheetName, cellAt(1, row), sch.Title)
		f.SetCellValue(xlsxSheetName, cellAt(2, row), sch.AssignedTo)
		f.SetCellValue(xlsxSheetName, cellAt(3, row), string(sch.TaskType))
		f.SetCellValue(xlsxSheetName, cellAt(4, row), sch.StartDate.String()+" ~ "+sch.EndDate.String())

		statuses := sch.StatusMap()
		for i, d := range dates {
			st, ok := statuses[d]
			if !ok {
				continue
			}
			c := cellAt(xlsxFixedColumns+i+1, row)
			f.SetCellValue(xlsxSheetName, c, xlsxStatusLabels[st])
			f.SetCellStyle(xlsxSheetName, c, c, statusStyles[st])
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("任务时间线_%s_%s.xlsx", window.Start, window.End)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS: 导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, req *dto.ScheduleExportRequest) ([]byte, string, error) {
	window, schedules, err := s.load(ctx, req)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	for i := range schedules {
		sch := &schedules[i]
		statuses := sch.StatusMap()
		for _, d := range statuses.SortedDates() {
			if !window.Contains(d) {
				continue
			}
			st := statuses[d]
			event := cal.AddEvent(fmt.Sprintf("%s-%s@tutor-department", sch.ScheduleID, d))
			event.SetDtStampTime(sch.UpdatedAt)
			event.SetAllDayStartAt(d.Time())
			event.SetAllDayEndAt(d.AddDays(1).Time())
			event.SetSummary(fmt.Sprintf("[%s] %s", xlsxStatusLabels[st], sch.Title))
			if sch.Description != "" {
				event.SetDescription(sch.Description)
			}
			event.SetProperty(ics.ComponentPropertyCategories, string(st))
		}
	}

	filename := fmt.Sprintf("schedule_%s_%s.ics", window.Start, window.End)
	return []byte(cal.Serialize()), filename, nil
}

// ── 内部辅助 ──

func (s *exportService) load(ctx context.Context, req *dto.ScheduleExportRequest) (model.DateRange, []model.Schedule, error) {
	window, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return model.DateRange{}, nil, err
	}
	if window.Days() > exportMaxDays {
		return model.DateRange{}, nil, ErrExportRangeTooLong
	}

	schedules, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		Window:               &window,
		AssignedTo:           req.AssignedTo,
		WithStatusesInWindow: true,
	})
	if err != nil {
		s.logger.Error("查询导出任务失败", zap.Error(err))
		return model.DateRange{}, nil, err
	}
	if len(schedules) == 0 {
		return model.DateRange{}, nil, ErrExportNoSchedule
	}
	return window, schedules, nil
}

func cellAt(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
