package dto

// ── 排期模块 DTO ──

// SetScheduleRequest 设置对象排期日期（与随行指派相互独立）
type SetScheduleRequest struct {
	Dates []string `json:"dates" binding:"required"`
}

// ScheduleResponse 对象排期响应
type ScheduleResponse struct {
	ProjectID   string   `json:"project_id"`
	SubjectID   string   `json:"subject_id"`
	SubjectKind string   `json:"subject_kind"`
	Dates       []string `json:"dates"`
}

// ── 随行可用日期 DTO ──

// AvailabilitySubmission 随行人员可用日期提交
type AvailabilitySubmission struct {
	MemberID       string   `json:"member_id"       binding:"required,uuid"`
	AvailableDates []string `json:"available_dates" binding:"required"`
}

// AvailabilityResponse 可用日期响应
type AvailabilityResponse struct {
	ProjectID      string   `json:"project_id"`
	MemberID       string   `json:"member_id"`
	MemberName     string   `json:"member_name,omitempty"`
	AvailableDates []string `json:"available_dates"`
}

// ImportICSResponse ICS 日历导入结果
type ImportICSResponse struct {
	Availability  *AvailabilityResponse `json:"availability"`
	ImportedDays  int                   `json:"imported_days"`
	SkippedEvents int                   `json:"skipped_events"`
	Warnings      []string              `json:"warnings,omitempty"`
}
