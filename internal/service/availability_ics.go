package service

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/validation"
)

// ICS 文件大小上限（由 handler 的 body limit 兜底，这里防御流式超量）
const icsMaxFileSize = 2 << 20

// parseAvailabilityICS 从日历数据中提取可用日期。
// 每个 VEVENT 覆盖 [DTSTART, DTEND] 的全部日历日；纯日期型 DTEND 按惯例为开区间。
// 超出档期窗口的日期不报错，记入警告后丢弃；无法解析的事件计入 skipped。
func parseAvailabilityICS(reader io.Reader, v *validation.WindowValidator) (days []string, skipped int, warnings []string, err error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("日历格式非法: %w", err)
	}

	seen := make(map[string]bool)
	for _, evt := range cal.Events() {
		start, startDateOnly, perr := parseEventDate(evt, ics.ComponentPropertyDtStart)
		if perr != nil {
			skipped++
			continue
		}
		end, endDateOnly, perr := parseEventDate(evt, ics.ComponentPropertyDtEnd)
		if perr != nil {
			// 无 DTEND 视为单日事件
			end, endDateOnly = start, startDateOnly
		}
		// RFC 5545：纯日期型 DTEND 为次日（开区间）
		if endDateOnly && end.After(start) {
			end = end.AddDate(0, 0, -1)
		}
		if end.Before(start) {
			end = start
		}

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			date := d.Format(model.DateLayout)
			if seen[date] {
				continue
			}
			if errs := v.ValidateDate("date", date); len(errs) > 0 {
				warnings = append(warnings, fmt.Sprintf("日期 %s 超出项目档期，已忽略", date))
				continue
			}
			seen[date] = true
			days = append(days, date)
		}
	}

	sort.Strings(days)
	return days, skipped, warnings, nil
}

// parseEventDate 解析 VEVENT 的日期属性，返回日期及其是否为纯日期型
func parseEventDate(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, bool, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	formats := []struct {
		layout   string
		dateOnly bool
	}{
		{"20060102T150405Z", false},
		{"20060102T150405", false},
		{"20060102", true},
	}
	for _, f := range formats {
		if t, err := time.Parse(f.layout, val); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), f.dateOnly, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("无法解析日期: %s", val)
}
