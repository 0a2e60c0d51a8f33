package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// GroupRepository 艺人组合数据访问接口
type GroupRepository interface {
	Create(ctx context.Context, group *model.TalentGroup) error
	GetByID(ctx context.Context, groupID string) (*model.TalentGroup, error)
	// GetByProjectAndName 按名称查组合（不区分大小写，忽略已软删除记录）
	GetByProjectAndName(ctx context.Context, projectID, name string) (*model.TalentGroup, error)
	ListByProject(ctx context.Context, projectID string) ([]model.TalentGroup, error)
	ListByIDs(ctx context.Context, projectID string, groupIDs []string) ([]model.TalentGroup, error)
	Update(ctx context.Context, group *model.TalentGroup) error
	Delete(ctx context.Context, groupID string, deletedBy *string) error
}

type groupRepo struct {
	db *gorm.DB
}

func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) Create(ctx context.Context, group *model.TalentGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepo) GetByID(ctx context.Context, groupID string) (*model.TalentGroup, error) {
	var group model.TalentGroup
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) GetByProjectAndName(ctx context.Context, projectID, name string) (*model.TalentGroup, error) {
	var group model.TalentGroup
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND LOWER(name) = LOWER(?)", projectID, name).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) ListByProject(ctx context.Context, projectID string) ([]model.TalentGroup, error) {
	var groups []model.TalentGroup
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&groups).Error
	return groups, err
}

func (r *groupRepo) ListByIDs(ctx context.Context, projectID string, groupIDs []string) ([]model.TalentGroup, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var groups []model.TalentGroup
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND group_id IN ?", projectID, groupIDs).
		Find(&groups).Error
	return groups, err
}

// Update 乐观锁更新：WHERE version = 原值，RowsAffected 为 0 视为并发冲突
func (r *groupRepo) Update(ctx context.Context, group *model.TalentGroup) error {
	result := r.db.WithContext(ctx).Model(&model.TalentGroup{}).
		Where("group_id = ? AND version = ?", group.GroupID, group.Version).
		Updates(map[string]interface{}{
			"name":          group.Name,
			"members":       group.Members,
			"contact_name":  group.ContactName,
			"contact_phone": group.ContactPhone,
			"updated_by":    group.UpdatedBy,
			"version":       group.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	group.Version++
	return nil
}

func (r *groupRepo) Delete(ctx context.Context, groupID string, deletedBy *string) error {
	return r.db.WithContext(ctx).Model(&model.TalentGroup{}).
		Where("group_id = ?", groupID).
		Updates(map[string]interface{}{
			"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"deleted_by": deletedBy,
		}).Error
}
