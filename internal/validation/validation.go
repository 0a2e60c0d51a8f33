// Package validation 提供以项目档期窗口为边界的结构化校验规则。
// 所有校验器只返回字段级错误列表，预期内的非法输入绝不 panic。
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
)

// 日历日期格式（ISO 8601 日期部分）
const dateLayout = "2006-01-02"

// 字段错误分类码（与全局错误分类码取值一致）
const (
	CodeInvalidDateFormat   = "INVALID_DATE_FORMAT"
	CodeDateOutOfRange      = "DATE_OUT_OF_RANGE"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeMaxEscortsExceeded  = "MAX_ESCORTS_EXCEEDED"
	CodeEscortDoubleBooking = "ESCORT_DOUBLE_BOOKING"
)

// 业务上限；随行人数上限与数据层保持同一来源
const (
	MaxGroupMembers     = 20
	MaxGroupNameLen     = 100
	MaxEscortsPerTalent = model.MaxEscortsPerTalent
	MaxEscortsPerGroup  = model.MaxEscortsPerGroup
)

// 组合名称允许的字符集：中英文、数字、空格及常见连接符号
var groupNamePattern = regexp.MustCompile(`^[\p{L}\p{N} .&'()\-]+$`)

// 联系电话：数字、空格、+、-、括号
var phonePattern = regexp.MustCompile(`^[0-9+\-() ]{5,30}$`)

// FieldError 单条字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func fieldErr(field, code, format string, args ...interface{}) FieldError {
	return FieldError{Field: field, Message: fmt.Sprintf(format, args...), Code: code}
}

// WindowValidator 绑定某项目档期窗口的校验器集合
type WindowValidator struct {
	start    time.Time
	end      time.Time
	startStr string
	endStr   string
	dayCount int
}

// NewWindowValidator 按档期窗口构建校验器
// 窗口本身非法（格式错误或起止颠倒）视为调用方缺陷，返回 error
func NewWindowValidator(startDate, endDate string) (*WindowValidator, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("起始日期非法 %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("结束日期非法 %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("档期窗口起止颠倒: %s > %s", startDate, endDate)
	}
	return &WindowValidator{
		start:    start,
		end:      end,
		startStr: startDate,
		endStr:   endDate,
		dayCount: int(end.Sub(start).Hours()/24) + 1,
	}, nil
}

// DayCount 窗口内的总天数（含两端）
func (v *WindowValidator) DayCount() int { return v.dayCount }

// Window 返回窗口起止（"2006-01-02"）
func (v *WindowValidator) Window() (string, string) { return v.startStr, v.endStr }

// ValidateDate 校验单个日期：可解析且落在窗口内
func (v *WindowValidator) ValidateDate(field, date string) []FieldError {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return []FieldError{fieldErr(field, CodeInvalidDateFormat, "日期格式无效: %q，应为 YYYY-MM-DD", date)}
	}
	if d.Before(v.start) || d.After(v.end) {
		return []FieldError{fieldErr(field, CodeDateOutOfRange,
			"日期 %s 不在项目档期 [%s, %s] 内", date, v.startStr, v.endStr)}
	}
	return nil
}

// ValidateDateArray 校验日期数组：非空、逐个合法、无重复、严格升序
func (v *WindowValidator) ValidateDateArray(field string, dates []string) []FieldError {
	if len(dates) == 0 {
		return []FieldError{fieldErr(field, CodeValidationError, "日期列表不能为空")}
	}

	var errs []FieldError
	seen := make(map[string]bool, len(dates))
	prev := ""
	for i, d := range dates {
		elemField := fmt.Sprintf("%s[%d]", field, i)
		if es := v.ValidateDate(elemField, d); len(es) > 0 {
			errs = append(errs, es...)
			continue
		}
		if seen[d] {
			errs = append(errs, fieldErr(elemField, CodeValidationError, "日期重复: %s", d))
			continue
		}
		seen[d] = true
		if prev != "" && d <= prev {
			errs = append(errs, fieldErr(elemField, CodeValidationError, "日期必须严格升序: %s 在 %s 之后", d, prev))
		}
		prev = d
	}
	return errs
}

// ValidateAvailabilitySubmission 校验随行可用日期提交
// 日期数不得超过窗口总天数
func (v *WindowValidator) ValidateAvailabilitySubmission(sub *dto.AvailabilitySubmission) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(sub.MemberID) == "" {
		errs = append(errs, fieldErr("member_id", CodeValidationError, "member_id 不能为空"))
	}
	errs = append(errs, v.ValidateDateArray("available_dates", sub.AvailableDates)...)
	if len(sub.AvailableDates) > v.dayCount {
		errs = append(errs, fieldErr("available_dates", CodeValidationError,
			"可用日期数 %d 超过档期总天数 %d", len(sub.AvailableDates), v.dayCount))
	}
	return errs
}

// ValidateScheduleSubmission 校验对象排期提交（与可用日期同构）
func (v *WindowValidator) ValidateScheduleSubmission(req *dto.SetScheduleRequest) []FieldError {
	errs := v.ValidateDateArray("dates", req.Dates)
	if len(req.Dates) > v.dayCount {
		errs = append(errs, fieldErr("dates", CodeValidationError,
			"排期日期数 %d 超过档期总天数 %d", len(req.Dates), v.dayCount))
	}
	return errs
}

// ValidateGroupName 校验组合名称：1-100 字符且只含允许字符
func ValidateGroupName(name string) []FieldError {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxGroupNameLen {
		return []FieldError{fieldErr("name", CodeValidationError, "组合名称长度必须在 1-%d 字符之间", MaxGroupNameLen)}
	}
	if !groupNamePattern.MatchString(name) {
		return []FieldError{fieldErr("name", CodeValidationError, "组合名称包含非法字符")}
	}
	return nil
}

// ValidateGroupMembers 校验成员列表：1-20 条，名称不区分大小写唯一
func ValidateGroupMembers(members []dto.GroupMemberInput) []FieldError {
	if len(members) == 0 || len(members) > MaxGroupMembers {
		return []FieldError{fieldErr("members", CodeValidationError, "组合成员数必须在 1-%d 之间", MaxGroupMembers)}
	}

	var errs []FieldError
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		elemField := fmt.Sprintf("members[%d].name", i)
		name := strings.TrimSpace(m.Name)
		if name == "" {
			errs = append(errs, fieldErr(elemField, CodeValidationError, "成员名称不能为空"))
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			errs = append(errs, fieldErr(elemField, CodeValidationError, "成员名称重复（不区分大小写）: %s", name))
			continue
		}
		seen[key] = true
	}
	return errs
}

// ValidateGroupSubmission 校验组合创建提交
func (v *WindowValidator) ValidateGroupSubmission(req *dto.CreateGroupRequest) []FieldError {
	var errs []FieldError
	errs = append(errs, ValidateGroupName(req.Name)...)
	errs = append(errs, ValidateGroupMembers(req.Members)...)

	if req.ContactName != nil {
		if n := strings.TrimSpace(*req.ContactName); n == "" || len([]rune(n)) > 100 {
			errs = append(errs, fieldErr("contact_name", CodeValidationError, "联系人名称长度必须在 1-100 字符之间"))
		}
	}
	if req.ContactPhone != nil && !phonePattern.MatchString(*req.ContactPhone) {
		errs = append(errs, fieldErr("contact_phone", CodeValidationError, "联系电话格式无效"))
	}
	if len(req.ScheduledDates) > 0 {
		errs = append(errs, v.ValidateDateArray("scheduled_dates", req.ScheduledDates)...)
	}
	return errs
}

// ValidateDayAssignmentSubmission 校验整日指派提交
// 每个艺人最多 5 名随行、每个组合最多 10 名；
// 同一随行 ID 在一次提交中只能出现在一个对象名下
func ValidateDayAssignmentSubmission(req *dto.ReplaceDayAssignmentsRequest) []FieldError {
	var errs []FieldError

	escortOwner := make(map[string]string) // escortID → 首次出现的对象描述

	checkEscorts := func(field, owner string, escortIDs []string, limit int, limitCode string) {
		if len(escortIDs) > limit {
			errs = append(errs, fieldErr(field, limitCode, "随行人数 %d 超过上限 %d", len(escortIDs), limit))
		}
		local := make(map[string]bool, len(escortIDs))
		for _, eid := range escortIDs {
			if strings.TrimSpace(eid) == "" {
				errs = append(errs, fieldErr(field, CodeValidationError, "随行 ID 不能为空"))
				continue
			}
			if local[eid] {
				errs = append(errs, fieldErr(field, CodeValidationError, "同一对象下随行 ID 重复: %s", eid))
				continue
			}
			local[eid] = true
			if first, ok := escortOwner[eid]; ok {
				errs = append(errs, fieldErr(field, CodeEscortDoubleBooking,
					"随行 %s 已出现在 %s 名下，同一天不能指派给多个对象", eid, first))
				continue
			}
			escortOwner[eid] = owner
		}
	}

	for i, t := range req.Talents {
		field := fmt.Sprintf("talents[%d].escort_ids", i)
		if strings.TrimSpace(t.TalentID) == "" {
			errs = append(errs, fieldErr(fmt.Sprintf("talents[%d].talent_id", i), CodeValidationError, "talent_id 不能为空"))
		}
		checkEscorts(field, "艺人 "+t.TalentID, t.EscortIDs, MaxEscortsPerTalent, CodeMaxEscortsExceeded)
	}
	for i, g := range req.Groups {
		field := fmt.Sprintf("groups[%d].escort_ids", i)
		if strings.TrimSpace(g.GroupID) == "" {
			errs = append(errs, fieldErr(fmt.Sprintf("groups[%d].group_id", i), CodeValidationError, "group_id 不能为空"))
		}
		checkEscorts(field, "组合 "+g.GroupID, g.EscortIDs, MaxEscortsPerGroup, CodeMaxEscortsExceeded)
	}

	return errs
}
