package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("ParseDate 应成功: %v", err)
	}
	if d.String() != "2025-02-28" {
		t.Errorf("期望 2025-02-28，实际=%s", d)
	}

	for _, bad := range []string{"", "2025-2-28", "2025/02/28", "2025-02-30", "2025-02-28T00:00:00Z"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) 应失败", bad)
		}
	}
}

func TestDate_CanonicalKey(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	a := DateOf(time.Date(2025, 3, 1, 23, 30, 0, 0, shanghai))
	b := MustParseDate("2025-03-01")

	if a != b {
		t.Errorf("同一天应得到相同的键: %v vs %v", a, b)
	}
	m := map[Date]int{a: 1}
	if m[b] != 1 {
		t.Error("同一天的两种来源应命中同一个 map 键")
	}
}

func TestDateRange_Days(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"2025-01-10", "2025-01-10", 1},
		{"2025-01-10", "2025-01-20", 11},
		{"2024-02-28", "2024-03-01", 3}, // 闰年
		{"2025-12-31", "2026-01-01", 2},
		{"2025-01-20", "2025-01-10", 0},
	}
	for _, c := range cases {
		r := DateRange{Start: MustParseDate(c.start), End: MustParseDate(c.end)}
		if got := r.Days(); got != c.want {
			t.Errorf("%s..%s: 期望 %d 天，实际=%d", c.start, c.end, c.want, got)
		}
		count := 0
		r.Each(func(Date) { count++ })
		if count != c.want {
			t.Errorf("%s..%s: Each 期望枚举 %d 天，实际=%d", c.start, c.end, c.want, count)
		}
	}
}

func TestDateRange_Overlaps(t *testing.T) {
	rec := DateRange{Start: MustParseDate("2025-01-10"), End: MustParseDate("2025-01-20")}

	cases := []struct {
		start, end string
		want       bool
	}{
		{"2025-01-01", "2025-01-10", true}, // 端点相接
		{"2025-01-20", "2025-01-25", true},
		{"2025-01-15", "2025-01-15", true}, // 被包含
		{"2025-01-01", "2025-01-31", true}, // 包含
		{"2025-01-21", "2025-01-25", false},
		{"2025-01-01", "2025-01-09", false},
	}
	for _, c := range cases {
		q := DateRange{Start: MustParseDate(c.start), End: MustParseDate(c.end)}
		if got := rec.Overlaps(q); got != c.want {
			t.Errorf("%s..%s: 期望 %v，实际=%v", c.start, c.end, c.want, got)
		}
		if got := q.Overlaps(rec); got != c.want {
			t.Errorf("%s..%s: 重叠判断应与顺序无关", c.start, c.end)
		}
	}
}

func TestDate_ScanValue(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil || d.String() != "2025-03-01" {
		t.Errorf("Scan(time.Time) 失败: %v %s", err, d)
	}
	if err := d.Scan([]byte("2025-03-02")); err != nil || d.String() != "2025-03-02" {
		t.Errorf("Scan([]byte) 失败: %v %s", err, d)
	}
	if err := d.Scan("2025-03-03 00:00:00+00:00"); err != nil || d.String() != "2025-03-03" {
		t.Errorf("Scan(string) 失败: %v %s", err, d)
	}
	if err := d.Scan(42); err == nil {
		t.Error("Scan(int) 应失败")
	}

	v, err := MustParseDate("2025-03-04").Value()
	if err != nil || v != "2025-03-04" {
		t.Errorf("Value 期望 2025-03-04，实际=%v (%v)", v, err)
	}
}

func TestDate_ValueMinimumDate(t *testing.T) {
	d, err := ParseDate("0001-01-01")
	if err != nil {
		t.Fatalf("0001-01-01 应为合法日期: %v", err)
	}
	v, err := d.Value()
	if err != nil || v != "0001-01-01" {
		t.Errorf("Value 期望 0001-01-01，实际=%v (%v)", v, err)
	}

	var back Date
	if err := back.Scan(v); err != nil || !back.Equal(d) {
		t.Errorf("Scan 回读失败: %v %s", err, back)
	}
}

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Date{"d": MustParseDate("2025-03-01")})
	if err != nil {
		t.Fatalf("Marshal 失败: %v", err)
	}
	if string(b) != `{"d":"2025-03-01"}` {
		t.Errorf("JSON 期望日期字符串，实际=%s", b)
	}

	var d Date
	if err := json.Unmarshal([]byte(`"2025-03-05"`), &d); err != nil || d.String() != "2025-03-05" {
		t.Errorf("Unmarshal 失败: %v %s", err, d)
	}
	if err := json.Unmarshal([]byte(`"03/05/2025"`), &d); err == nil {
		t.Error("非规范格式应解析失败")
	}
}
