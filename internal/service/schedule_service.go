package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/repository"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/validation"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// ScheduleService 对象排期业务接口
// 排期以指派表中的日期行为准：排期新增产生占位行，排期删除连同该日随行一起删除，
// 保留日期上的既有随行不受影响
type ScheduleService interface {
	SetTalentSchedule(ctx context.Context, projectID, talentID string, req *dto.SetScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	GetTalentSchedule(ctx context.Context, projectID, talentID string) (*dto.ScheduleResponse, error)
	SetGroupSchedule(ctx context.Context, projectID, groupID string, req *dto.SetScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	GetGroupSchedule(ctx context.Context, projectID, groupID string) (*dto.ScheduleResponse, error)
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// loadProjectValidator 加载项目并构建窗口校验器
func (s *scheduleService) loadProjectValidator(ctx context.Context, projectID string) (*validation.WindowValidator, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewProjectNotFound(projectID)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询项目", err)
	}
	v, err := validation.NewWindowValidator(
		project.StartDate.Format(model.DateLayout),
		project.EndDate.Format(model.DateLayout))
	if err != nil {
		return nil, pkgerrors.NewInternalError(err)
	}
	return v, nil
}

// validateScheduleDates 校验排期提交并折叠为分类错误
func validateScheduleDates(v *validation.WindowValidator, req *dto.SetScheduleRequest) error {
	fieldErrs := v.ValidateScheduleSubmission(req)
	if len(fieldErrs) == 0 {
		return nil
	}
	for _, fe := range fieldErrs {
		switch fe.Code {
		case validation.CodeInvalidDateFormat:
			return pkgerrors.NewInvalidDateFormat(fe.Field, fe.Message)
		case validation.CodeDateOutOfRange:
			appErr := pkgerrors.FromCode(pkgerrors.CodeDateOutOfRange, fe.Message)
			appErr.Field = fe.Field
			return appErr
		}
	}
	appErr := pkgerrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
	appErr.Details = map[string]interface{}{"field_errors": fieldErrs}
	return appErr
}

// diffDates 计算排期差异：toAdd = 新集合新增，toRemove = 旧集合被移除
func diffDates(existing, desired []string) (toAdd, toRemove []time.Time) {
	existingSet := make(map[string]bool, len(existing))
	for _, d := range existing {
		existingSet[d] = true
	}
	desiredSet := make(map[string]bool, len(desired))
	for _, d := range desired {
		desiredSet[d] = true
	}

	for _, d := range desired {
		if !existingSet[d] {
			day, _ := time.Parse(model.DateLayout, d)
			toAdd = append(toAdd, day)
		}
	}
	for _, d := range existing {
		if !desiredSet[d] {
			day, _ := time.Parse(model.DateLayout, d)
			toRemove = append(toRemove, day)
		}
	}
	return toAdd, toRemove
}

func (s *scheduleService) SetTalentSchedule(ctx context.Context, projectID, talentID string, req *dto.SetScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	v, err := s.loadProjectValidator(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := validateScheduleDates(v, req); err != nil {
		return nil, err
	}

	talent, err := s.repo.Talent.GetByID(ctx, talentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewSubjectNotFound(model.SubjectKindTalent, talentID)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询艺人", err)
	}
	if talent.ProjectID != projectID {
		return nil, pkgerrors.NewSubjectNotFound(model.SubjectKindTalent, talentID)
	}

	existing, err := s.repo.TalentAssignment.ListDatesByTalent(ctx, projectID, talentID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询艺人排期", err)
	}
	toAdd, toRemove := diffDates(existing, req.Dates)

	var createdBy *string
	if callerID != "" {
		createdBy = &callerID
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.TalentAssignment.DeleteByTalentAndDates(ctx, projectID, talentID, toRemove); err != nil {
			return err
		}
		rows := make([]model.TalentDailyAssignment, 0, len(toAdd))
		for _, day := range toAdd {
			rows = append(rows, model.TalentDailyAssignment{
				ProjectID: projectID, TalentID: talentID, AssignmentDate: day,
				BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
			})
		}
		return tx.TalentAssignment.BatchCreate(ctx, rows)
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("更新艺人排期", err)
	}

	s.logger.Info("艺人排期已更新",
		zap.String("project_id", projectID), zap.String("talent_id", talentID),
		zap.Int("added", len(toAdd)), zap.Int("removed", len(toRemove)))

	return &dto.ScheduleResponse{
		ProjectID:   projectID,
		SubjectID:   talentID,
		SubjectKind: model.SubjectKindTalent,
		Dates:       req.Dates,
	}, nil
}

func (s *scheduleService) GetTalentSchedule(ctx context.Context, projectID, talentID string) (*dto.ScheduleResponse, error) {
	if _, err := s.loadProjectValidator(ctx, projectID); err != nil {
		return nil, err
	}
	dates, err := s.repo.TalentAssignment.ListDatesByTalent(ctx, projectID, talentID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询艺人排期", err)
	}
	return &dto.ScheduleResponse{
		ProjectID:   projectID,
		SubjectID:   talentID,
		SubjectKind: model.SubjectKindTalent,
		Dates:       dates,
	}, nil
}

func (s *scheduleService) SetGroupSchedule(ctx context.Context, projectID, groupID string, req *dto.SetScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	v, err := s.loadProjectValidator(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := validateScheduleDates(v, req); err != nil {
		return nil, err
	}

	group, err := s.repo.Group.GetByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewSubjectNotFound(model.SubjectKindGroup, groupID)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合", err)
	}
	if group.ProjectID != projectID {
		return nil, pkgerrors.NewSubjectNotFound(model.SubjectKindGroup, groupID)
	}

	existing, err := s.repo.GroupAssignment.ListDatesByGroup(ctx, projectID, groupID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合排期", err)
	}
	toAdd, toRemove := diffDates(existing, req.Dates)

	var createdBy *string
	if callerID != "" {
		createdBy = &callerID
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.GroupAssignment.DeleteByGroupAndDates(ctx, projectID, groupID, toRemove); err != nil {
			return err
		}
		rows := make([]model.GroupDailyAssignment, 0, len(toAdd))
		for _, day := range toAdd {
			rows = append(rows, model.GroupDailyAssignment{
				ProjectID: projectID, GroupID: groupID, AssignmentDate: day,
				BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
			})
		}
		return tx.GroupAssignment.BatchCreate(ctx, rows)
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("更新组合排期", err)
	}

	s.logger.Info("组合排期已更新",
		zap.String("project_id", projectID), zap.String("group_id", groupID),
		zap.Int("added", len(toAdd)), zap.Int("removed", len(toRemove)))

	return &dto.ScheduleResponse{
		ProjectID:   projectID,
		SubjectID:   groupID,
		SubjectKind: model.SubjectKindGroup,
		Dates:       req.Dates,
	}, nil
}

func (s *scheduleService) GetGroupSchedule(ctx context.Context, projectID, groupID string) (*dto.ScheduleResponse, error) {
	if _, err := s.loadProjectValidator(ctx, projectID); err != nil {
		return nil, err
	}
	dates, err := s.repo.GroupAssignment.ListDatesByGroup(ctx, projectID, groupID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合排期", err)
	}
	return &dto.ScheduleResponse{
		ProjectID:   projectID,
		SubjectID:   groupID,
		SubjectKind: model.SubjectKindGroup,
		Dates:       dates,
	}, nil
}
