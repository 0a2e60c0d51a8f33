package model

import "time"

// TeamMember 团队成员（随行人员/协调员/管理员）— 对应 team_members
// 身份与角色由上游系统维护，本服务只读
type TeamMember struct {
	MemberID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	Name     string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Phone    *string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Role     string  `gorm:"type:varchar(20);not null;default:'escort'"     json:"role"` // admin | coordinator | escort
	VersionedModel
}

func (TeamMember) TableName() string { return "team_members" }

// ProjectTeamMember 项目-成员关系 — 对应 project_team_members
// 随行人员必须在项目团队内才能被指派
type ProjectTeamMember struct {
	ProjectMemberID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_member_id"`
	ProjectID       string    `gorm:"type:uuid;not null"                             json:"project_id"`
	MemberID        string    `gorm:"type:uuid;not null"                             json:"member_id"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Member *TeamMember `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

func (ProjectTeamMember) TableName() string { return "project_team_members" }
