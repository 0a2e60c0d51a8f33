package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Talent 艺人 — 对应 talents
type Talent struct {
	TalentID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"talent_id"`
	ProjectID string `gorm:"type:uuid;not null"                             json:"project_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	VersionedModel

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

func (Talent) TableName() string { return "talents" }

// GroupMember 组合成员条目（嵌入 talent_groups.members JSONB）
type GroupMember struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// GroupMemberList 对应 JSONB 成员列表，实现 GORM Scanner/Valuer 接口
type GroupMemberList []GroupMember

// Scan 解析 JSONB 成员列表
func (l *GroupMemberList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("GroupMemberList.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Value 序列化为 JSONB
func (l GroupMemberList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// TalentGroup 艺人组合 — 对应 talent_groups
// 组合作为单一可排期对象参与指派，与个人艺人并列
type TalentGroup struct {
	GroupID      string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	ProjectID    string          `gorm:"type:uuid;not null"                             json:"project_id"`
	Name         string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Members      GroupMemberList `gorm:"type:jsonb;not null;default:'[]'"               json:"members"`
	ContactName  *string         `gorm:"type:varchar(100)"                              json:"contact_name,omitempty"`
	ContactPhone *string         `gorm:"type:varchar(30)"                               json:"contact_phone,omitempty"`
	VersionedModel

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

func (TalentGroup) TableName() string { return "talent_groups" }
