package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
)

// TalentRepository 艺人数据访问接口
type TalentRepository interface {
	GetByID(ctx context.Context, talentID string) (*model.Talent, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Talent, error)
	ListByIDs(ctx context.Context, projectID string, talentIDs []string) ([]model.Talent, error)
}

type talentRepo struct {
	db *gorm.DB
}

func NewTalentRepo(db *gorm.DB) TalentRepository {
	return &talentRepo{db: db}
}

func (r *talentRepo) GetByID(ctx context.Context, talentID string) (*model.Talent, error) {
	var talent model.Talent
	err := r.db.WithContext(ctx).
		Where("talent_id = ?", talentID).
		First(&talent).Error
	if err != nil {
		return nil, err
	}
	return &talent, nil
}

func (r *talentRepo) ListByProject(ctx context.Context, projectID string) ([]model.Talent, error) {
	var talents []model.Talent
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&talents).Error
	return talents, err
}

func (r *talentRepo) ListByIDs(ctx context.Context, projectID string, talentIDs []string) ([]model.Talent, error) {
	if len(talentIDs) == 0 {
		return nil, nil
	}
	var talents []model.Talent
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND talent_id IN ?", projectID, talentIDs).
		Find(&talents).Error
	return talents, err
}
