package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// AvailabilityRepository 随行可用日期数据访问接口
type AvailabilityRepository interface {
	GetByProjectAndMember(ctx context.Context, projectID, memberID string) (*model.StaffAvailability, error)
	ListByProject(ctx context.Context, projectID string) ([]model.StaffAvailability, error)
	// Upsert 不存在则创建，存在则按乐观锁整体覆盖日期集合
	Upsert(ctx context.Context, avail *model.StaffAvailability) error
}

type availabilityRepo struct {
	db *gorm.DB
}

func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) GetByProjectAndMember(ctx context.Context, projectID, memberID string) (*model.StaffAvailability, error) {
	var avail model.StaffAvailability
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND member_id = ?", projectID, memberID).
		First(&avail).Error
	if err != nil {
		return nil, err
	}
	return &avail, nil
}

func (r *availabilityRepo) ListByProject(ctx context.Context, projectID string) ([]model.StaffAvailability, error) {
	var avails []model.StaffAvailability
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("project_id = ?", projectID).
		Find(&avails).Error
	return avails, err
}

func (r *availabilityRepo) Upsert(ctx context.Context, avail *model.StaffAvailability) error {
	var existing model.StaffAvailability
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND member_id = ?", avail.ProjectID, avail.MemberID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(avail).Error
	}
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&model.StaffAvailability{}).
		Where("availability_id = ? AND version = ?", existing.AvailabilityID, existing.Version).
		Updates(map[string]interface{}{
			"available_dates": avail.AvailableDates,
			"updated_by":      avail.UpdatedBy,
			"version":         existing.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	avail.AvailabilityID = existing.AvailabilityID
	avail.Version = existing.Version + 1
	return nil
}
