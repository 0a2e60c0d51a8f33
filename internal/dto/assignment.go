package dto

// ── 指派模块 DTO ──

// TalentAssignmentEntry 单个艺人的当日随行名单
type TalentAssignmentEntry struct {
	TalentID  string   `json:"talent_id"  binding:"required,uuid"`
	EscortIDs []string `json:"escort_ids" binding:"omitempty,dive,uuid"`
}

// GroupAssignmentEntry 单个组合的当日随行名单
type GroupAssignmentEntry struct {
	GroupID   string   `json:"group_id"   binding:"required,uuid"`
	EscortIDs []string `json:"escort_ids" binding:"omitempty,dive,uuid"`
}

// ReplaceDayAssignmentsRequest 整日指派替换请求
// 提交即整体替换该日全部指派，不做增量修补
type ReplaceDayAssignmentsRequest struct {
	Talents []TalentAssignmentEntry `json:"talents" binding:"omitempty,dive"`
	Groups  []GroupAssignmentEntry  `json:"groups"  binding:"omitempty,dive"`
}

// ── 响应 ──

// EscortBrief 随行人员简要信息
type EscortBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubjectDayAssignment 单个对象的当日指派视图
type SubjectDayAssignment struct {
	SubjectID   string        `json:"subject_id"`
	SubjectKind string        `json:"subject_kind"` // talent | group
	SubjectName string        `json:"subject_name,omitempty"`
	Escorts     []EscortBrief `json:"escorts"`
	Scheduled   bool          `json:"scheduled"`
}

// DayAssignmentsResponse 某项目某日的全部指派
type DayAssignmentsResponse struct {
	ProjectID string                 `json:"project_id"`
	Date      string                 `json:"date"`
	Talents   []SubjectDayAssignment `json:"talents"`
	Groups    []SubjectDayAssignment `json:"groups"`
}
