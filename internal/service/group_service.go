package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/oplog"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/repository"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/validation"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// GroupService 艺人组合业务接口
// 组合名称在项目内不区分大小写唯一；删除组合级联删除其全部指派行
type GroupService interface {
	CreateGroup(ctx context.Context, projectID string, req *dto.CreateGroupRequest, callerID string) (*dto.GroupResponse, error)
	GetGroup(ctx context.Context, projectID, groupID string) (*dto.GroupResponse, error)
	ListGroups(ctx context.Context, projectID string) ([]dto.GroupResponse, error)
	UpdateGroup(ctx context.Context, projectID, groupID string, req *dto.UpdateGroupRequest, callerID string) (*dto.GroupResponse, error)
	DeleteGroup(ctx context.Context, projectID, groupID string, callerID string) error
}

type groupService struct {
	repo   *repository.Repository
	ops    *oplog.Logger
	logger *zap.Logger
}

func NewGroupService(repo *repository.Repository, ops *oplog.Logger, logger *zap.Logger) GroupService {
	return &groupService{repo: repo, ops: ops, logger: logger}
}

func (s *groupService) loadValidator(ctx context.Context, projectID string) (*validation.WindowValidator, error) {
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

// checkNameUnique 名称唯一性检查；excludeID 用于更新时排除自身
func (s *groupService) checkNameUnique(ctx context.Context, projectID, name, excludeID string) error {
	existing, err := s.repo.Group.GetByProjectAndName(ctx, projectID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("查询组合名称", err)
	}
	if existing.GroupID != excludeID {
		return pkgerrors.NewDuplicateGroupName(name)
	}
	return nil
}

func toGroupResponse(group *model.TalentGroup, scheduledDates []string) *dto.GroupResponse {
	members := make([]dto.GroupMemberView, 0, len(group.Members))
	for _, m := range group.Members {
		members = append(members, dto.GroupMemberView{Name: m.Name, Role: m.Role})
	}
	return &dto.GroupResponse{
		ID:             group.GroupID,
		ProjectID:      group.ProjectID,
		Name:           group.Name,
		Members:        members,
		ContactName:    group.ContactName,
		ContactPhone:   group.ContactPhone,
		ScheduledDates: scheduledDates,
		CreatedAt:      group.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      group.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *groupService) CreateGroup(ctx context.Context, projectID string, req *dto.CreateGroupRequest, callerID string) (*dto.GroupResponse, error) {
	v, err := s.loadValidator(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if fieldErrs := v.ValidateGroupSubmission(req); len(fieldErrs) > 0 {
		appErr := pkgerrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
		appErr.Details = map[string]interface{}{"field_errors": fieldErrs}
		s.ops.ValidationFailure(projectID, "", string(appErr.Code), fieldErrs)
		return nil, appErr
	}

	name := strings.TrimSpace(req.Name)
	if err := s.checkNameUnique(ctx, projectID, name, ""); err != nil {
		return nil, err
	}

	members := make(model.GroupMemberList, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, model.GroupMember{Name: strings.TrimSpace(m.Name), Role: m.Role})
	}

	var createdBy *string
	if callerID != "" {
		createdBy = &callerID
	}

	group := &model.TalentGroup{
		ProjectID:    projectID,
		Name:         name,
		Members:      members,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		VersionedModel: model.VersionedModel{
			SoftDeleteModel: model.SoftDeleteModel{
				BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
			},
			Version: 1,
		},
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Group.Create(ctx, group); err != nil {
			return err
		}
		rows := make([]model.GroupDailyAssignment, 0, len(req.ScheduledDates))
		for _, d := range req.ScheduledDates {
			day, _ := time.Parse(model.DateLayout, d)
			rows = append(rows, model.GroupDailyAssignment{
				ProjectID: projectID, GroupID: group.GroupID, AssignmentDate: day,
				BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
			})
		}
		return tx.GroupAssignment.BatchCreate(ctx, rows)
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("创建组合", err)
	}

	s.logger.Info("组合已创建",
		zap.String("project_id", projectID), zap.String("group_id", group.GroupID), zap.String("name", name))
	return toGroupResponse(group, req.ScheduledDates), nil
}

func (s *groupService) GetGroup(ctx context.Context, projectID, groupID string) (*dto.GroupResponse, error) {
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

	dates, err := s.repo.GroupAssignment.ListDatesByGroup(ctx, projectID, groupID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合排期", err)
	}
	return toGroupResponse(group, dates), nil
}

func (s *groupService) ListGroups(ctx context.Context, projectID string) ([]dto.GroupResponse, error) {
	groups, err := s.repo.Group.ListByProject(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合列表", err)
	}

	out := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		dates, err := s.repo.GroupAssignment.ListDatesByGroup(ctx, projectID, groups[i].GroupID)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("查询组合排期", err)
		}
		out = append(out, *toGroupResponse(&groups[i], dates))
	}
	return out, nil
}

func (s *groupService) UpdateGroup(ctx context.Context, projectID, groupID string, req *dto.UpdateGroupRequest, callerID string) (*dto.GroupResponse, error) {
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

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if fieldErrs := validation.ValidateGroupName(name); len(fieldErrs) > 0 {
			return nil, pkgerrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
		}
		if err := s.checkNameUnique(ctx, projectID, name, groupID); err != nil {
			return nil, err
		}
		group.Name = name
	}
	if req.Members != nil {
		if fieldErrs := validation.ValidateGroupMembers(req.Members); len(fieldErrs) > 0 {
			appErr := pkgerrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
			appErr.Details = map[string]interface{}{"field_errors": fieldErrs}
			return nil, appErr
		}
		members := make(model.GroupMemberList, 0, len(req.Members))
		for _, m := range req.Members {
			members = append(members, model.GroupMember{Name: strings.TrimSpace(m.Name), Role: m.Role})
		}
		group.Members = members
	}
	if req.ContactName != nil {
		group.ContactName = req.ContactName
	}
	if req.ContactPhone != nil {
		group.ContactPhone = req.ContactPhone
	}
	if callerID != "" {
		group.UpdatedBy = &callerID
	}

	if err := s.repo.Group.Update(ctx, group); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.ops.OptimisticConflict(projectID, model.SubjectKindGroup, groupID)
			return nil, pkgerrors.NewConcurrentModification("组合", err)
		}
		return nil, pkgerrors.NewDatabaseError("更新组合", err)
	}
	s.ops.OptimisticUpdate(projectID, model.SubjectKindGroup, groupID, group.Version)

	dates, err := s.repo.GroupAssignment.ListDatesByGroup(ctx, projectID, groupID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合排期", err)
	}
	return toGroupResponse(group, dates), nil
}

func (s *groupService) DeleteGroup(ctx context.Context, projectID, groupID string, callerID string) error {
	group, err := s.repo.Group.GetByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NewSubjectNotFound(model.SubjectKindGroup, groupID)
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("查询组合", err)
	}
	if group.ProjectID != projectID {
		return pkgerrors.NewSubjectNotFound(model.SubjectKindGroup, groupID)
	}

	var deletedBy *string
	if callerID != "" {
		deletedBy = &callerID
	}

	// 删除组合连同其全部指派行
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.GroupAssignment.DeleteByGroup(ctx, projectID, groupID); err != nil {
			return err
		}
		return tx.Group.Delete(ctx, groupID, deletedBy)
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("删除组合", err)
	}

	s.logger.Info("组合已删除",
		zap.String("project_id", projectID), zap.String("group_id", groupID))
	return nil
}
