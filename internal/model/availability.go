package model

// StaffAvailability 随行人员在项目内的可用日期 — 对应 staff_availabilities
type StaffAvailability struct {
	AvailabilityID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_id"`
	ProjectID      string    `gorm:"type:uuid;not null"                             json:"project_id"`
	MemberID       string    `gorm:"type:uuid;not null"                             json:"member_id"`
	AvailableDates DateArray `gorm:"type:date[];not null;default:'{}'"              json:"available_dates"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Member *TeamMember `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

func (StaffAvailability) TableName() string { return "staff_availabilities" }
