package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
)

// GroupAssignmentRepository 组合每日指派数据访问接口
type GroupAssignmentRepository interface {
	BatchCreate(ctx context.Context, rows []model.GroupDailyAssignment) error
	ListByProjectAndDate(ctx context.Context, projectID string, date time.Time) ([]model.GroupDailyAssignment, error)
	ListByProject(ctx context.Context, projectID string) ([]model.GroupDailyAssignment, error)
	DeleteByProjectAndDate(ctx context.Context, projectID string, date time.Time) error
	ClearEscortsByProjectAndDate(ctx context.Context, projectID string, date time.Time) error
	ListDatesByGroup(ctx context.Context, projectID, groupID string) ([]string, error)
	ListByGroup(ctx context.Context, projectID, groupID string) ([]model.GroupDailyAssignment, error)
	DeleteByGroupAndDates(ctx context.Context, projectID, groupID string, dates []time.Time) error
	// DeleteByGroup 删除组合的全部指派行（删除组合时级联）
	DeleteByGroup(ctx context.Context, projectID, groupID string) error
	ListScheduledGroupIDs(ctx context.Context, projectID string, date time.Time) (map[string]bool, error)
	ListEscortIDsByDate(ctx context.Context, projectID string, date time.Time) (map[string]bool, error)
}

type groupAssignmentRepo struct {
	db *gorm.DB
}

func NewGroupAssignmentRepo(db *gorm.DB) GroupAssignmentRepository {
	return &groupAssignmentRepo{db: db}
}

func (r *groupAssignmentRepo) BatchCreate(ctx context.Context, rows []model.GroupDailyAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *groupAssignmentRepo) ListByProjectAndDate(ctx context.Context, projectID string, date time.Time) ([]model.GroupDailyAssignment, error) {
	var rows []model.GroupDailyAssignment
	err := r.db.WithContext(ctx).
		Preload("Group").
		Preload("Escort").
		Where("project_id = ? AND assignment_date = ?", projectID, date).
		Find(&rows).Error
	return rows, err
}

func (r *groupAssignmentRepo) ListByProject(ctx context.Context, projectID string) ([]model.GroupDailyAssignment, error) {
	var rows []model.GroupDailyAssignment
	err := r.db.WithContext(ctx).
		Preload("Group").
		Preload("Escort").
		Where("project_id = ?", projectID).
		Order("assignment_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *groupAssignmentRepo) DeleteByProjectAndDate(ctx context.Context, projectID string, date time.Time) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND assignment_date = ?", projectID, date).
		Delete(&model.GroupDailyAssignment{}).Error
}

func (r *groupAssignmentRepo) ClearEscortsByProjectAndDate(ctx context.Context, projectID string, date time.Time) error {
	err := r.db.WithContext(ctx).Exec(`
		DELETE FROM group_daily_assignments
		WHERE project_id = ? AND assignment_date = ?
		  AND assignment_id NOT IN (
		    SELECT MIN(assignment_id::text)::uuid
		    FROM group_daily_assignments
		    WHERE project_id = ? AND assignment_date = ?
		    GROUP BY group_id
		  )`, projectID, date, projectID, date).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.GroupDailyAssignment{}).
		Where("project_id = ? AND assignment_date = ? AND escort_id IS NOT NULL", projectID, date).
		Updates(map[string]interface{}{
			"escort_id": nil,
			"version":   gorm.Expr("version + 1"),
		}).Error
}

func (r *groupAssignmentRepo) ListDatesByGroup(ctx context.Context, projectID, groupID string) ([]string, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).Model(&model.GroupDailyAssignment{}).
		Distinct("assignment_date").
		Where("project_id = ? AND group_id = ?", projectID, groupID).
		Order("assignment_date ASC").
		Pluck("assignment_date", &dates).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(model.DateLayout))
	}
	return out, nil
}

func (r *groupAssignmentRepo) ListByGroup(ctx context.Context, projectID, groupID string) ([]model.GroupDailyAssignment, error) {
	var rows []model.GroupDailyAssignment
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND group_id = ?", projectID, groupID).
		Order("assignment_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *groupAssignmentRepo) DeleteByGroupAndDates(ctx context.Context, projectID, groupID string, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("project_id = ? AND group_id = ? AND assignment_date IN ?", projectID, groupID, dates).
		Delete(&model.GroupDailyAssignment{}).Error
}

func (r *groupAssignmentRepo) DeleteByGroup(ctx context.Context, projectID, groupID string) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND group_id = ?", projectID, groupID).
		Delete(&model.GroupDailyAssignment{}).Error
}

func (r *groupAssignmentRepo) ListScheduledGroupIDs(ctx context.Context, projectID string, date time.Time) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.GroupDailyAssignment{}).
		Distinct("group_id").
		Where("project_id = ? AND assignment_date = ?", projectID, date).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *groupAssignmentRepo) ListEscortIDsByDate(ctx context.Context, projectID string, date time.Time) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.GroupDailyAssignment{}).
		Distinct("escort_id").
		Where("project_id = ? AND assignment_date = ? AND escort_id IS NOT NULL", projectID, date).
		Pluck("escort_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
