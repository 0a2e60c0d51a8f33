package service

import (
	"context"
	"errors"
	"io"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/repository"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/validation"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// AvailabilityService 随行可用日期业务接口
type AvailabilityService interface {
	// SetAvailability 整体覆盖成员的可用日期集合
	SetAvailability(ctx context.Context, projectID string, req *dto.AvailabilitySubmission, callerID string) (*dto.AvailabilityResponse, error)
	GetAvailability(ctx context.Context, projectID, memberID string) (*dto.AvailabilityResponse, error)
	// ImportICS 从日历文件导入可用日期，与既有集合取并集
	ImportICS(ctx context.Context, projectID, memberID string, reader io.Reader, callerID string) (*dto.ImportICSResponse, error)
}

type availabilityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, logger: logger}
}

func (s *availabilityService) loadValidator(ctx context.Context, projectID string) (*validation.WindowValidator, error) {
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

// verifyMembership 确认成员存在且属于项目团队
func (s *availabilityService) verifyMembership(ctx context.Context, projectID, memberID string) error {
	if _, err := s.repo.Team.GetMember(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NewValidationError("member_id", "团队成员不存在")
		}
		return pkgerrors.NewDatabaseError("查询团队成员", err)
	}
	teamIDs, err := s.repo.Team.ListProjectMemberIDs(ctx, projectID)
	if err != nil {
		return pkgerrors.NewDatabaseError("查询项目团队", err)
	}
	if !teamIDs[memberID] {
		return pkgerrors.NewValidationError("member_id", "该成员不在项目团队内")
	}
	return nil
}

func (s *availabilityService) upsert(ctx context.Context, projectID, memberID string, dates []string, callerID string) (*model.StaffAvailability, error) {
	var updatedBy *string
	if callerID != "" {
		updatedBy = &callerID
	}
	avail := &model.StaffAvailability{
		ProjectID:      projectID,
		MemberID:       memberID,
		AvailableDates: model.DateArray(dates),
		BaseModel:      model.BaseModel{CreatedBy: updatedBy, UpdatedBy: updatedBy},
		Version:        1,
	}
	if err := s.repo.Availability.Upsert(ctx, avail); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, pkgerrors.NewConcurrentModification("可用日期", err)
		}
		return nil, pkgerrors.NewDatabaseError("保存可用日期", err)
	}
	return avail, nil
}

func (s *availabilityService) SetAvailability(ctx context.Context, projectID string, req *dto.AvailabilitySubmission, callerID string) (*dto.AvailabilityResponse, error) {
	v, err := s.loadValidator(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if fieldErrs := v.ValidateAvailabilitySubmission(req); len(fieldErrs) > 0 {
		for _, fe := range fieldErrs {
			switch fe.Code {
			case validation.CodeInvalidDateFormat:
				return nil, pkgerrors.NewInvalidDateFormat(fe.Field, fe.Message)
			case validation.CodeDateOutOfRange:
				appErr := pkgerrors.FromCode(pkgerrors.CodeDateOutOfRange, fe.Message)
				appErr.Field = fe.Field
				return nil, appErr
			}
		}
		appErr := pkgerrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
		appErr.Details = map[string]interface{}{"field_errors": fieldErrs}
		return nil, appErr
	}

	if err := s.verifyMembership(ctx, projectID, req.MemberID); err != nil {
		return nil, err
	}

	avail, err := s.upsert(ctx, projectID, req.MemberID, req.AvailableDates, callerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("随行可用日期已更新",
		zap.String("project_id", projectID), zap.String("member_id", req.MemberID),
		zap.Int("days", len(req.AvailableDates)))

	return &dto.AvailabilityResponse{
		ProjectID:      projectID,
		MemberID:       req.MemberID,
		AvailableDates: avail.AvailableDates,
	}, nil
}

func (s *availabilityService) GetAvailability(ctx context.Context, projectID, memberID string) (*dto.AvailabilityResponse, error) {
	if _, err := s.loadValidator(ctx, projectID); err != nil {
		return nil, err
	}

	avail, err := s.repo.Availability.GetByProjectAndMember(ctx, projectID, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 未提交过的成员返回空集合，而非 404
		return &dto.AvailabilityResponse{
			ProjectID:      projectID,
			MemberID:       memberID,
			AvailableDates: []string{},
		}, nil
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询可用日期", err)
	}

	resp := &dto.AvailabilityResponse{
		ProjectID:      projectID,
		MemberID:       memberID,
		AvailableDates: avail.AvailableDates,
	}
	if avail.Member != nil {
		resp.MemberName = avail.Member.Name
	}
	return resp, nil
}

func (s *availabilityService) ImportICS(ctx context.Context, projectID, memberID string, reader io.Reader, callerID string) (*dto.ImportICSResponse, error) {
	v, err := s.loadValidator(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyMembership(ctx, projectID, memberID); err != nil {
		return nil, err
	}

	days, skipped, warnings, err := parseAvailabilityICS(reader, v)
	if err != nil {
		return nil, pkgerrors.NewValidationError("file", "ICS 文件解析失败: "+err.Error())
	}

	// 与既有集合取并集
	merged := make(map[string]bool, len(days))
	existing, err := s.repo.Availability.GetByProjectAndMember(ctx, projectID, memberID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewDatabaseError("查询可用日期", err)
	}
	if existing != nil {
		for _, d := range existing.AvailableDates {
			merged[d] = true
		}
	}
	for _, d := range days {
		merged[d] = true
	}

	all := make([]string, 0, len(merged))
	for d := range merged {
		all = append(all, d)
	}
	sort.Strings(all)

	avail, err := s.upsert(ctx, projectID, memberID, all, callerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ICS 可用日期已导入",
		zap.String("project_id", projectID), zap.String("member_id", memberID),
		zap.Int("imported_days", len(days)), zap.Int("skipped_events", skipped))

	return &dto.ImportICSResponse{
		Availability: &dto.AvailabilityResponse{
			ProjectID:      projectID,
			MemberID:       memberID,
			AvailableDates: avail.AvailableDates,
		},
		ImportedDays:  len(days),
		SkippedEvents: skipped,
		Warnings:      warnings,
	}, nil
}
