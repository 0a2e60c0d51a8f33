package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
)

// TeamRepository 团队成员数据访问接口（本服务只读）
type TeamRepository interface {
	GetMember(ctx context.Context, memberID string) (*model.TeamMember, error)
	ListProjectMembers(ctx context.Context, projectID string) ([]model.ProjectTeamMember, error)
	// ListProjectMemberIDs 返回项目团队内全部成员 ID 集合
	ListProjectMemberIDs(ctx context.Context, projectID string) (map[string]bool, error)
	// ListMemberIDs 返回给定 ID 中实际存在的成员 ID 集合（全库，不限项目）
	ListMemberIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

type teamRepo struct {
	db *gorm.DB
}

func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) GetMember(ctx context.Context, memberID string) (*model.TeamMember, error) {
	var member model.TeamMember
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamRepo) ListProjectMembers(ctx context.Context, projectID string) ([]model.ProjectTeamMember, error) {
	var members []model.ProjectTeamMember
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("project_id = ?", projectID).
		Find(&members).Error
	return members, err
}

func (r *teamRepo) ListMemberIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	set := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return set, nil
	}
	var found []string
	err := r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Where("member_id IN ?", ids).
		Pluck("member_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

func (r *teamRepo) ListProjectMemberIDs(ctx context.Context, projectID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.ProjectTeamMember{}).
		Where("project_id = ?", projectID).
		Pluck("member_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
