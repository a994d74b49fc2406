package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout 日期键的规范格式（YYYY-MM-DD）
const DateLayout = "2006-01-02"

// ── Date 日历日期 ──

// Date 不含时刻的日历日期，内部固定为 UTC 零点。
// 同一天只有一种表示，可直接作为 map 键与比较对象。
type Date struct {
	t time.Time
}

// NewDate 由年月日构造日期，越界值按 time.Date 规则归一化
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 取 t 在其自身时区下的日历日期
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate 解析 YYYY-MM-DD，拒绝任何其他写法
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("无效日期 %q，格式应为 YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// MustParseDate 解析失败时 panic，仅用于常量与测试
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String 返回规范格式
func (d Date) String() string { return d.t.Format(DateLayout) }

// Time 返回当天 UTC 零点
func (d Date) Time() time.Time { return d.t }

// IsZero 是否为零值
func (d Date) IsZero() bool { return d.t.IsZero() }

// AddDays 返回 n 天后的日期（n 可为负）
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// DaysUntil 返回 o - d 的天数
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t).Hours() / 24)
}

// ── GORM Scanner / Valuer ──

// Scan 兼容驱动返回的 time.Time 与文本两种形式
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case []byte:
		return d.scanText(string(v))
	case string:
		return d.scanText(v)
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
}

func (d *Date) scanText(s string) error {
	if len(s) < len(DateLayout) {
		return fmt.Errorf("Date.Scan: invalid value %q", s)
	}
	parsed, err := ParseDate(s[:len(DateLayout)])
	if err != nil {
		return fmt.Errorf("Date.Scan: %w", err)
	}
	*d = parsed
	return nil
}

// Value 以 YYYY-MM-DD 文本写入，避免驱动时区换算导致日期偏移。
// 0001-01-01 是合法日期，零值同样按文本写入而非 NULL。
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// GormDataType 声明列类型
func (Date) GormDataType() string { return "date" }

// ── JSON ──

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ── DateRange 闭区间 ──

// DateRange 闭区间 [Start, End]
type DateRange struct {
	Start Date
	End   Date
}

// Valid 是否满足 Start <= End
func (r DateRange) Valid() bool { return !r.Start.After(r.End) }

// Days 区间内天数（含两端）
func (r DateRange) Days() int {
	if !r.Valid() {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// Contains 日期是否落在区间内
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps 两个闭区间是否相交（端点相接也算）
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !r.End.Before(o.Start)
}

// Each 按日升序枚举区间内每一天
func (r DateRange) Each(fn func(Date)) {
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		fn(d)
	}
}
