package dto

// ── 组合模块 DTO ──

// GroupMemberInput 组合成员条目
type GroupMemberInput struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Role string `json:"role" binding:"omitempty,max=50"`
}

// CreateGroupRequest 创建组合请求
type CreateGroupRequest struct {
	Name           string             `json:"name"            binding:"required"`
	Members        []GroupMemberInput `json:"members"         binding:"required"`
	ContactName    *string            `json:"contact_name"    binding:"omitempty,max=100"`
	ContactPhone   *string            `json:"contact_phone"   binding:"omitempty,max=30"`
	ScheduledDates []string           `json:"scheduled_dates" binding:"omitempty"`
}

// UpdateGroupRequest 更新组合请求
type UpdateGroupRequest struct {
	Name         *string            `json:"name"          binding:"omitempty"`
	Members      []GroupMemberInput `json:"members"       binding:"omitempty"`
	ContactName  *string            `json:"contact_name"  binding:"omitempty,max=100"`
	ContactPhone *string            `json:"contact_phone" binding:"omitempty,max=30"`
}

// GroupMemberView 组合成员视图
type GroupMemberView struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// GroupResponse 组合响应
type GroupResponse struct {
	ID             string            `json:"id"`
	ProjectID      string            `json:"project_id"`
	Name           string            `json:"name"`
	Members        []GroupMemberView `json:"members"`
	ContactName    *string           `json:"contact_name,omitempty"`
	ContactPhone   *string           `json:"contact_phone,omitempty"`
	ScheduledDates []string          `json:"scheduled_dates,omitempty"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
}
