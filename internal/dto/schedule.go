package dto

// ── 任务时间线模块 DTO ──
//
// 日期字段统一为 YYYY-MM-DD 字符串（calendar_date 校验），由 Service 层解析为 model.Date。
// binding 标签同时供 Gin 绑定与 Service 层校验器使用。

// CreateScheduleRequest 创建任务请求
type CreateScheduleRequest struct {
	Title       string `json:"title"        binding:"required,max=200"`
	Description string `json:"description"  binding:"omitempty,max=2000"`
	AssignedTo  string `json:"assigned_to"  binding:"required,max=64"`
	CreatedBy   string `json:"created_by"   binding:"omitempty,max=64"` // 为空时取当前调用者
	StartDate   string `json:"start_date"   binding:"required,calendar_date"`
	EndDate     string `json:"end_date"     binding:"required,calendar_date"`
	TaskType    string `json:"task_type"    binding:"required,task_type"`
}

// ScheduleListRequest 任务列表查询参数
// start_date 与 end_date 需同时提供才按区间重叠过滤
type ScheduleListRequest struct {
	StartDate  string `form:"start_date"  binding:"required_with=EndDate,omitempty,calendar_date"`
	EndDate    string `form:"end_date"    binding:"required_with=StartDate,omitempty,calendar_date"`
	AssignedTo string `form:"assigned_to" binding:"omitempty,max=64"`
}

// UpdateScheduleRequest 更新任务请求
// 同时提供 start_date/end_date 时执行保留状态的区间调整；
// 同时提供 date/status 时在区间调整之后写入单日状态
type UpdateScheduleRequest struct {
	Title       *string `json:"title"        binding:"omitempty,max=200"`
	Description *string `json:"description"  binding:"omitempty,max=2000"`
	StartDate   string  `json:"start_date"   binding:"required_with=EndDate,omitempty,calendar_date"`
	EndDate     string  `json:"end_date"     binding:"required_with=StartDate,omitempty,calendar_date"`
	Date        string  `json:"date"         binding:"required_with=Status,omitempty,calendar_date"`
	Status      string  `json:"status"       binding:"required_with=Date,omitempty,schedule_status"`
}

// ResizeScheduleRequest 调整任务区间请求
type ResizeScheduleRequest struct {
	StartDate string `json:"start_date" binding:"required,calendar_date"`
	EndDate   string `json:"end_date"   binding:"required,calendar_date"`
}

// SetDateStatusRequest 设置单日状态请求
type SetDateStatusRequest struct {
	Date   string `json:"date"   binding:"required,calendar_date"`
	Status string `json:"status" binding:"required,schedule_status"`
}

// ── 响应 ──

// ScheduleResponse 任务时间线响应
type ScheduleResponse struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	AssignedTo   string            `json:"assigned_to"`
	CreatedBy    string            `json:"created_by"`
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date"`
	TaskType     string            `json:"task_type"`
	StatusByDate map[string]string `json:"status_by_date"`
	Summary      StatusSummary     `json:"summary"`
	Version      int               `json:"version"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

// StatusSummary 各状态天数统计
type StatusSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
}

// DeleteScheduleResponse 删除结果
type DeleteScheduleResponse struct {
	Outcome string `json:"outcome"` // partially_deleted | fully_deleted
	Date    string `json:"date,omitempty"`
}

// ScheduleExportRequest 导出查询参数
type ScheduleExportRequest struct {
	StartDate  string `form:"start_date"  binding:"required,calendar_date"`
	EndDate    string `form:"end_date"    binding:"required,calendar_date"`
	AssignedTo string `form:"assigned_to" binding:"omitempty,max=64"`
}
