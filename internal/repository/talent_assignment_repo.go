package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
)

// TalentAssignmentRepository 艺人每日指派数据访问接口
// 整日替换（DeleteByProjectAndDate + BatchCreate）必须由调用方包在同一事务内
type TalentAssignmentRepository interface {
	BatchCreate(ctx context.Context, rows []model.TalentDailyAssignment) error
	ListByProjectAndDate(ctx context.Context, projectID string, date time.Time) ([]model.TalentDailyAssignment, error)
	ListByProject(ctx context.Context, projectID string) ([]model.TalentDailyAssignment, error)
	DeleteByProjectAndDate(ctx context.Context, projectID string, date time.Time) error
	// ClearEscortsByProjectAndDate 摘除当日全部随行，但保留每个艺人一条占位行（排期状态不变）
	ClearEscortsByProjectAndDate(ctx context.Context, projectID string, date time.Time) error
	// ListDatesByTalent 返回艺人的全部排期日期（去重升序，"2006-01-02"）
	ListDatesByTalent(ctx context.Context, projectID, talentID string) ([]string, error)
	ListByTalent(ctx context.Context, projectID, talentID string) ([]model.TalentDailyAssignment, error)
	DeleteByTalentAndDates(ctx context.Context, projectID, talentID string, dates []time.Time) error
	// ListScheduledTalentIDs 返回当日已排期的艺人 ID 集合
	ListScheduledTalentIDs(ctx context.Context, projectID string, date time.Time) (map[string]bool, error)
	// ListEscortIDsByDate 返回当日已被占用的随行 ID 集合
	ListEscortIDsByDate(ctx context.Context, projectID string, date time.Time) (map[string]bool, error)
}

type talentAssignmentRepo struct {
	db *gorm.DB
}

func NewTalentAssignmentRepo(db *gorm.DB) TalentAssignmentRepository {
	return &talentAssignmentRepo{db: db}
}

func (r *talentAssignmentRepo) BatchCreate(ctx context.Context, rows []model.TalentDailyAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *talentAssignmentRepo) ListByProjectAndDate(ctx context.Context, projectID string, date time.Time) ([]model.TalentDailyAssignment, error) {
	var rows []model.TalentDailyAssignment
	err := r.db.WithContext(ctx).
		Preload("Talent").
		Preload("Escort").
		Where("project_id = ? AND assignment_date = ?", projectID, date).
		Find(&rows).Error
	return rows, err
}

func (r *talentAssignmentRepo) ListByProject(ctx context.Context, projectID string) ([]model.TalentDailyAssignment, error) {
	var rows []model.TalentDailyAssignment
	err := r.db.WithContext(ctx).
		Preload("Talent").
		Preload("Escort").
		Where("project_id = ?", projectID).
		Order("assignment_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *talentAssignmentRepo) DeleteByProjectAndDate(ctx context.Context, projectID string, date time.Time) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND assignment_date = ?", projectID, date).
		Delete(&model.TalentDailyAssignment{}).Error
}

func (r *talentAssignmentRepo) ClearEscortsByProjectAndDate(ctx context.Context, projectID string, date time.Time) error {
	// 第一步：每个艺人只保留一行，删掉多余的随行行
	err := r.db.WithContext(ctx).Exec(`
		DELETE FROM talent_daily_assignments
		WHERE project_id = ? AND assignment_date = ?
		  AND assignment_id NOT IN (
		    SELECT MIN(assignment_id::text)::uuid
		    FROM talent_daily_assignments
		    WHERE project_id = ? AND assignment_date = ?
		    GROUP BY talent_id
		  )`, projectID, date, projectID, date).Error
	if err != nil {
		return err
	}
	// 第二步：剩余行清空随行，退化为占位行
	return r.db.WithContext(ctx).Model(&model.TalentDailyAssignment{}).
		Where("project_id = ? AND assignment_date = ? AND escort_id IS NOT NULL", projectID, date).
		Updates(map[string]interface{}{
			"escort_id": nil,
			"version":   gorm.Expr("version + 1"),
		}).Error
}

func (r *talentAssignmentRepo) ListDatesByTalent(ctx context.Context, projectID, talentID string) ([]string, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).Model(&model.TalentDailyAssignment{}).
		Distinct("assignment_date").
		Where("project_id = ? AND talent_id = ?", projectID, talentID).
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

func (r *talentAssignmentRepo) ListByTalent(ctx context.Context, projectID, talentID string) ([]model.TalentDailyAssignment, error) {
	var rows []model.TalentDailyAssignment
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND talent_id = ?", projectID, talentID).
		Order("assignment_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *talentAssignmentRepo) DeleteByTalentAndDates(ctx context.Context, projectID, talentID string, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("project_id = ? AND talent_id = ? AND assignment_date IN ?", projectID, talentID, dates).
		Delete(&model.TalentDailyAssignment{}).Error
}

func (r *talentAssignmentRepo) ListScheduledTalentIDs(ctx context.Context, projectID string, date time.Time) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.TalentDailyAssignment{}).
		Distinct("talent_id").
		Where("project_id = ? AND assignment_date = ?", projectID, date).
		Pluck("talent_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *talentAssignmentRepo) ListEscortIDsByDate(ctx context.Context, projectID string, date time.Time) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.TalentDailyAssignment{}).
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
