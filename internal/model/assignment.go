package model

import "time"

// SubjectKind 指派对象类型
const (
	SubjectKindTalent = "talent"
	SubjectKindGroup  = "group"
)

// 单个对象单日随行人数上限
const (
	MaxEscortsPerTalent = 5
	MaxEscortsPerGroup  = 10
)

// TalentDailyAssignment 艺人每日指派 — 对应 talent_daily_assignments
// 每行代表 (艺人, 日期, 随行) 一条指派；EscortID 为空表示"已排期未指派"占位行。
// 整日集合以 delete+insert 方式整体替换，绝不按字段修补。
type TalentDailyAssignment struct {
	AssignmentID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	ProjectID      string    `gorm:"type:uuid;not null"                             json:"project_id"`
	TalentID       string    `gorm:"type:uuid;not null"                             json:"talent_id"`
	AssignmentDate time.Time `gorm:"type:date;not null"                             json:"assignment_date"`
	EscortID       *string   `gorm:"type:uuid"                                      json:"escort_id,omitempty"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Talent *Talent     `gorm:"foreignKey:TalentID;references:TalentID" json:"talent,omitempty"`
	Escort *TeamMember `gorm:"foreignKey:EscortID;references:MemberID" json:"escort,omitempty"`
}

func (TalentDailyAssignment) TableName() string { return "talent_daily_assignments" }

// GroupDailyAssignment 组合每日指派 — 对应 group_daily_assignments
type GroupDailyAssignment struct {
	AssignmentID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	ProjectID      string    `gorm:"type:uuid;not null"                             json:"project_id"`
	GroupID        string    `gorm:"type:uuid;not null"                             json:"group_id"`
	AssignmentDate time.Time `gorm:"type:date;not null"                             json:"assignment_date"`
	EscortID       *string   `gorm:"type:uuid"                                      json:"escort_id,omitempty"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Group  *TalentGroup `gorm:"foreignKey:GroupID;references:GroupID"   json:"group,omitempty"`
	Escort *TeamMember  `gorm:"foreignKey:EscortID;references:MemberID" json:"escort,omitempty"`
}

func (GroupDailyAssignment) TableName() string { return "group_daily_assignments" }
