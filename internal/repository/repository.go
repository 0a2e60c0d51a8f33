package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Project          ProjectRepository
	Talent           TalentRepository
	Group            GroupRepository
	Team             TeamRepository
	Availability     AvailabilityRepository
	TalentAssignment TalentAssignmentRepository
	GroupAssignment  GroupAssignmentRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		Project:          NewProjectRepo(db),
		Talent:           NewTalentRepo(db),
		Group:            NewGroupRepo(db),
		Team:             NewTeamRepo(db),
		Availability:     NewAvailabilityRepo(db),
		TalentAssignment: NewTalentAssignmentRepo(db),
		GroupAssignment:  NewGroupAssignmentRepo(db),
	}
}

// WithTx 在单个数据库事务内执行 fn，fn 中通过 txRepo 访问数据。
// fn 返回非 nil 即整体回滚。delete+insert 式的整日替换必须走这里。
// 无数据库句柄的内存实现直接原地执行。
func (r *Repository) WithTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
