package service

import (
	"context"
	"errors"
	"sort"
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
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/redis"
)

// 日锁持有时长：覆盖一次整日替换事务的最长预期耗时
const dayLockTTL = 10 * time.Second

// AssignmentService 每日指派业务接口
type AssignmentService interface {
	// 整日替换指派（先删后插，单事务）
	ReplaceDayAssignments(ctx context.Context, projectID, date string, req *dto.ReplaceDayAssignmentsRequest, callerID string) (*dto.DayAssignmentsResponse, error)
	// 摘除当日全部随行，保留排期占位行
	ClearDayAssignments(ctx context.Context, projectID, date string) error
	// 读取当日指派
	GetDayAssignments(ctx context.Context, projectID, date string) (*dto.DayAssignmentsResponse, error)
	// 只做冲突判定，不写入
	CheckDayAssignments(ctx context.Context, projectID, date string, req *dto.ReplaceDayAssignmentsRequest) (*dto.ConflictCheckResult, error)
}

type assignmentService struct {
	repo   *repository.Repository
	rdb    *redis.Client // 可为 nil：降级为仅靠事务与唯一索引
	ops    *oplog.Logger
	logger *zap.Logger
}

func NewAssignmentService(repo *repository.Repository, rdb *redis.Client, ops *oplog.Logger, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, rdb: rdb, ops: ops, logger: logger}
}

// loadProjectDay 解析日期并确认其落在项目档期窗口内
func (s *assignmentService) loadProjectDay(ctx context.Context, projectID, date string) (*model.Project, time.Time, error) {
	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, time.Time{}, pkgerrors.NewInvalidDateFormat("date", date)
	}

	project, err := s.repo.Project.GetByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, pkgerrors.NewProjectNotFound(projectID)
	}
	if err != nil {
		return nil, time.Time{}, pkgerrors.NewDatabaseError("查询项目", err)
	}

	if !project.ContainsDate(date) {
		return nil, time.Time{}, pkgerrors.NewDateOutOfRange(date,
			project.StartDate.Format(model.DateLayout),
			project.EndDate.Format(model.DateLayout))
	}
	return project, day, nil
}

// fieldErrorsToError 把字段级校验错误折叠成单个分类错误
// 优先级：随行重复 > 随行超限 > 一般校验失败
func fieldErrorsToError(date string, fieldErrs []validation.FieldError) *pkgerrors.Error {
	var appErr *pkgerrors.Error
	for _, fe := range fieldErrs {
		switch fe.Code {
		case validation.CodeEscortDoubleBooking:
			appErr = pkgerrors.NewEscortDoubleBooking("", date)
			appErr.Message = fe.Message
		case validation.CodeMaxEscortsExceeded:
			if appErr == nil || appErr.Code != pkgerrors.CodeEscortDoubleBooking {
				kind, limit := model.SubjectKindGroup, validation.MaxEscortsPerGroup
				if strings.HasPrefix(fe.Field, "talents") {
					kind, limit = model.SubjectKindTalent, validation.MaxEscortsPerTalent
				}
				appErr = pkgerrors.NewMaxEscortsExceeded(kind, limit)
				appErr.Message = fe.Message
				appErr.Field = fe.Field
			}
		}
	}
	if appErr == nil {
		appErr = pkgerrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
	}
	if appErr.Details == nil {
		appErr.Details = map[string]interface{}{}
	}
	appErr.Details["field_errors"] = fieldErrs
	return appErr
}

// buildConflictSnapshot 读取冲突判定所需的当日数据快照
func (s *assignmentService) buildConflictSnapshot(ctx context.Context, projectID string, date string, day time.Time) (*dayConflictSnapshot, error) {
	scheduledTalents, err := s.repo.TalentAssignment.ListScheduledTalentIDs(ctx, projectID, day)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询艺人排期", err)
	}
	scheduledGroups, err := s.repo.GroupAssignment.ListScheduledGroupIDs(ctx, projectID, day)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合排期", err)
	}
	teamIDs, err := s.repo.Team.ListProjectMemberIDs(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询项目团队", err)
	}
	avails, err := s.repo.Availability.ListByProject(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询随行可用日期", err)
	}

	availMap := make(map[string]model.DateArray, len(avails))
	names := make(map[string]string)
	for _, a := range avails {
		availMap[a.MemberID] = a.AvailableDates
		if a.Member != nil {
			names[a.MemberID] = a.Member.Name
		}
	}

	return &dayConflictSnapshot{
		Date:               date,
		ScheduledTalentIDs: scheduledTalents,
		ScheduledGroupIDs:  scheduledGroups,
		TeamMemberIDs:      teamIDs,
		Availabilities:     availMap,
		MemberNames:        names,
	}, nil
}

// checkConflicts 依次执行三类冲突规则并记录判定结果
// 返回第一类命中的分类错误；全部通过返回 nil
func (s *assignmentService) checkConflicts(projectID, date string, req *dto.ReplaceDayAssignmentsRequest, snap *dayConflictSnapshot) *pkgerrors.Error {
	if conflicts := checkEscortDoubleBooking(req, snap); len(conflicts) > 0 {
		appErr := pkgerrors.NewEscortDoubleBooking("", date)
		appErr.Message = conflicts[0]
		appErr.Details["conflicts"] = conflicts
		return appErr
	}

	if conflicts := checkScheduleConsistency(req, snap); len(conflicts) > 0 {
		for _, t := range req.Talents {
			s.ops.ConsistencyCheck(projectID, date, model.SubjectKindTalent, t.TalentID, snap.ScheduledTalentIDs[t.TalentID])
		}
		for _, g := range req.Groups {
			s.ops.ConsistencyCheck(projectID, date, model.SubjectKindGroup, g.GroupID, snap.ScheduledGroupIDs[g.GroupID])
		}
		appErr := pkgerrors.NewValidationError("", conflicts[0])
		appErr.Details = map[string]interface{}{"conflicts": conflicts}
		return appErr
	}

	if conflicts := checkEscortAvailability(req, snap); len(conflicts) > 0 {
		seen := make(map[string]bool)
		logCheck := func(eid string) {
			if seen[eid] {
				return
			}
			seen[eid] = true
			dates, submitted := snap.Availabilities[eid]
			s.ops.AvailabilityCheck(projectID, date, eid, !submitted || dates.Contains(date))
		}
		for _, t := range req.Talents {
			for _, eid := range t.EscortIDs {
				logCheck(eid)
			}
		}
		for _, g := range req.Groups {
			for _, eid := range g.EscortIDs {
				logCheck(eid)
			}
		}
		appErr := pkgerrors.NewValidationError("", conflicts[0])
		appErr.Details = map[string]interface{}{"conflicts": conflicts}
		return appErr
	}

	return nil
}

// verifySubjectsExist 确认请求中的艺人与组合都属于该项目，
// 且引用的随行 ID 至少对应一名真实成员。
// 完全不存在的随行按引用缺失处理；存在但不在项目团队内的留给冲突判定。
func (s *assignmentService) verifySubjectsExist(ctx context.Context, projectID string, req *dto.ReplaceDayAssignmentsRequest) error {
	if len(req.Talents) > 0 {
		ids := make([]string, 0, len(req.Talents))
		for _, t := range req.Talents {
			ids = append(ids, t.TalentID)
		}
		talents, err := s.repo.Talent.ListByIDs(ctx, projectID, ids)
		if err != nil {
			return pkgerrors.NewDatabaseError("查询艺人", err)
		}
		if len(talents) != len(ids) {
			found := make(map[string]bool, len(talents))
			for _, t := range talents {
				found[t.TalentID] = true
			}
			for _, id := range ids {
				if !found[id] {
					return pkgerrors.NewSubjectNotFound(model.SubjectKindTalent, id)
				}
			}
		}
	}
	if len(req.Groups) > 0 {
		ids := make([]string, 0, len(req.Groups))
		for _, g := range req.Groups {
			ids = append(ids, g.GroupID)
		}
		groups, err := s.repo.Group.ListByIDs(ctx, projectID, ids)
		if err != nil {
			return pkgerrors.NewDatabaseError("查询组合", err)
		}
		if len(groups) != len(ids) {
			found := make(map[string]bool, len(groups))
			for _, g := range groups {
				found[g.GroupID] = true
			}
			for _, id := range ids {
				if !found[id] {
					return pkgerrors.NewSubjectNotFound(model.SubjectKindGroup, id)
				}
			}
		}
	}

	var escortIDs []string
	seen := make(map[string]bool)
	collect := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				escortIDs = append(escortIDs, id)
			}
		}
	}
	for _, t := range req.Talents {
		collect(t.EscortIDs)
	}
	for _, g := range req.Groups {
		collect(g.EscortIDs)
	}
	if len(escortIDs) > 0 {
		found, err := s.repo.Team.ListMemberIDs(ctx, escortIDs)
		if err != nil {
			return pkgerrors.NewDatabaseError("查询随行人员", err)
		}
		for _, id := range escortIDs {
			if !found[id] {
				return pkgerrors.NewSubjectNotFound("escort", id)
			}
		}
	}
	return nil
}

// acquireDayLock 获取 (项目, 日期) 悲观日锁；redis 缺席时降级为仅事务保护
func (s *assignmentService) acquireDayLock(ctx context.Context, projectID, date string) (func(), error) {
	if s.rdb == nil {
		return func() {}, nil
	}
	token, err := s.rdb.AcquireDayLock(ctx, projectID, date, dayLockTTL)
	if errors.Is(err, redis.ErrDayLocked) {
		return nil, pkgerrors.NewConcurrentModification("该日期的指派", err)
	}
	if err != nil {
		// redis 故障不阻塞写入，事务 + 唯一索引仍能兜底
		s.logger.Warn("日锁获取失败，降级为无锁写入",
			zap.String("project_id", projectID), zap.String("date", date), zap.Error(err))
		return func() {}, nil
	}
	return func() {
		if err := s.rdb.ReleaseDayLock(context.Background(), projectID, date, token); err != nil {
			s.logger.Warn("日锁释放失败，等待自动过期", zap.String("project_id", projectID), zap.String("date", date), zap.Error(err))
		}
	}, nil
}

func (s *assignmentService) ReplaceDayAssignments(ctx context.Context, projectID, date string, req *dto.ReplaceDayAssignmentsRequest, callerID string) (*dto.DayAssignmentsResponse, error) {
	_, day, err := s.loadProjectDay(ctx, projectID, date)
	if err != nil {
		if appErr, ok := pkgerrors.AsError(err); ok {
			s.ops.AssignmentFailure(projectID, date, string(appErr.Code), appErr.Message)
		}
		return nil, err
	}

	s.ops.AssignmentAttempt(projectID, date, len(req.Talents), len(req.Groups))

	// 结构校验
	if fieldErrs := validation.ValidateDayAssignmentSubmission(req); len(fieldErrs) > 0 {
		appErr := fieldErrorsToError(date, fieldErrs)
		s.ops.ValidationFailure(projectID, date, string(appErr.Code), fieldErrs)
		return nil, appErr
	}

	// 引用校验
	if err := s.verifySubjectsExist(ctx, projectID, req); err != nil {
		if appErr, ok := pkgerrors.AsError(err); ok {
			s.ops.AssignmentFailure(projectID, date, string(appErr.Code), appErr.Message)
		}
		return nil, err
	}

	// 冲突判定
	snap, err := s.buildConflictSnapshot(ctx, projectID, date, day)
	if err != nil {
		return nil, err
	}
	if appErr := s.checkConflicts(projectID, date, req, snap); appErr != nil {
		s.ops.AssignmentFailure(projectID, date, string(appErr.Code), appErr.Message)
		return nil, appErr
	}

	// 悲观日锁 + 单事务先删后插
	release, err := s.acquireDayLock(ctx, projectID, date)
	if err != nil {
		s.ops.AssignmentFailure(projectID, date, string(pkgerrors.CodeConcurrentModification), "日锁被占用")
		return nil, err
	}
	defer release()

	talentEscorts := make(map[string][]string, len(req.Talents))
	for _, t := range req.Talents {
		talentEscorts[t.TalentID] = t.EscortIDs
	}
	groupEscorts := make(map[string][]string, len(req.Groups))
	for _, g := range req.Groups {
		groupEscorts[g.GroupID] = g.EscortIDs
	}

	var createdBy *string
	if callerID != "" {
		createdBy = &callerID
	}

	rowCount := 0
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.TalentAssignment.DeleteByProjectAndDate(ctx, projectID, day); err != nil {
			return err
		}
		if err := tx.GroupAssignment.DeleteByProjectAndDate(ctx, projectID, day); err != nil {
			return err
		}

		// 请求即当日完整状态；已排期但未出现在请求中的对象退化为占位行
		var talentRows []model.TalentDailyAssignment
		for talentID := range snap.ScheduledTalentIDs {
			escorts := talentEscorts[talentID]
			if len(escorts) == 0 {
				talentRows = append(talentRows, model.TalentDailyAssignment{
					ProjectID: projectID, TalentID: talentID, AssignmentDate: day,
					BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
				})
				continue
			}
			for _, eid := range escorts {
				escortID := eid
				talentRows = append(talentRows, model.TalentDailyAssignment{
					ProjectID: projectID, TalentID: talentID, AssignmentDate: day, EscortID: &escortID,
					BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
				})
			}
		}
		if err := tx.TalentAssignment.BatchCreate(ctx, talentRows); err != nil {
			return err
		}

		var groupRows []model.GroupDailyAssignment
		for groupID := range snap.ScheduledGroupIDs {
			escorts := groupEscorts[groupID]
			if len(escorts) == 0 {
				groupRows = append(groupRows, model.GroupDailyAssignment{
					ProjectID: projectID, GroupID: groupID, AssignmentDate: day,
					BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
				})
				continue
			}
			for _, eid := range escorts {
				escortID := eid
				groupRows = append(groupRows, model.GroupDailyAssignment{
					ProjectID: projectID, GroupID: groupID, AssignmentDate: day, EscortID: &escortID,
					BaseModel: model.BaseModel{CreatedBy: createdBy, UpdatedBy: createdBy},
				})
			}
		}
		if err := tx.GroupAssignment.BatchCreate(ctx, groupRows); err != nil {
			return err
		}

		rowCount = len(talentRows) + len(groupRows)
		return nil
	})
	if err != nil {
		s.ops.Rollback(projectID, date, err.Error())
		return nil, pkgerrors.NewDatabaseError("整日指派写入", err)
	}

	s.ops.AssignmentSuccess(projectID, date, rowCount)
	return s.GetDayAssignments(ctx, projectID, date)
}

func (s *assignmentService) ClearDayAssignments(ctx context.Context, projectID, date string) error {
	_, day, err := s.loadProjectDay(ctx, projectID, date)
	if err != nil {
		return err
	}

	release, err := s.acquireDayLock(ctx, projectID, date)
	if err != nil {
		return err
	}
	defer release()

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.TalentAssignment.ClearEscortsByProjectAndDate(ctx, projectID, day); err != nil {
			return err
		}
		return tx.GroupAssignment.ClearEscortsByProjectAndDate(ctx, projectID, day)
	})
	if err != nil {
		s.ops.Rollback(projectID, date, err.Error())
		return pkgerrors.NewDatabaseError("清空当日随行", err)
	}

	s.ops.Record(oplog.Event{
		Level: oplog.LevelInfo, Kind: oplog.KindAssignmentSuccess,
		ProjectID: projectID, Date: date,
		Message: "当日随行已全部摘除，排期保留",
	})
	return nil
}

func (s *assignmentService) GetDayAssignments(ctx context.Context, projectID, date string) (*dto.DayAssignmentsResponse, error) {
	_, day, err := s.loadProjectDay(ctx, projectID, date)
	if err != nil {
		return nil, err
	}

	talentRows, err := s.repo.TalentAssignment.ListByProjectAndDate(ctx, projectID, day)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询艺人指派", err)
	}
	groupRows, err := s.repo.GroupAssignment.ListByProjectAndDate(ctx, projectID, day)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("查询组合指派", err)
	}

	resp := &dto.DayAssignmentsResponse{
		ProjectID: projectID,
		Date:      date,
		Talents:   []dto.SubjectDayAssignment{},
		Groups:    []dto.SubjectDayAssignment{},
	}

	talentAgg := make(map[string]*dto.SubjectDayAssignment)
	for _, row := range talentRows {
		agg, ok := talentAgg[row.TalentID]
		if !ok {
			agg = &dto.SubjectDayAssignment{
				SubjectID:   row.TalentID,
				SubjectKind: model.SubjectKindTalent,
				Escorts:     []dto.EscortBrief{},
				Scheduled:   true,
			}
			if row.Talent != nil {
				agg.SubjectName = row.Talent.Name
			}
			talentAgg[row.TalentID] = agg
		}
		if row.EscortID != nil {
			brief := dto.EscortBrief{ID: *row.EscortID}
			if row.Escort != nil {
				brief.Name = row.Escort.Name
			}
			agg.Escorts = append(agg.Escorts, brief)
		}
	}
	for _, agg := range talentAgg {
		resp.Talents = append(resp.Talents, *agg)
	}

	groupAgg := make(map[string]*dto.SubjectDayAssignment)
	for _, row := range groupRows {
		agg, ok := groupAgg[row.GroupID]
		if !ok {
			agg = &dto.SubjectDayAssignment{
				SubjectID:   row.GroupID,
				SubjectKind: model.SubjectKindGroup,
				Escorts:     []dto.EscortBrief{},
				Scheduled:   true,
			}
			if row.Group != nil {
				agg.SubjectName = row.Group.Name
			}
			groupAgg[row.GroupID] = agg
		}
		if row.EscortID != nil {
			brief := dto.EscortBrief{ID: *row.EscortID}
			if row.Escort != nil {
				brief.Name = row.Escort.Name
			}
			agg.Escorts = append(agg.Escorts, brief)
		}
	}
	for _, agg := range groupAgg {
		resp.Groups = append(resp.Groups, *agg)
	}

	sort.Slice(resp.Talents, func(i, j int) bool { return resp.Talents[i].SubjectID < resp.Talents[j].SubjectID })
	sort.Slice(resp.Groups, func(i, j int) bool { return resp.Groups[i].SubjectID < resp.Groups[j].SubjectID })
	return resp, nil
}

func (s *assignmentService) CheckDayAssignments(ctx context.Context, projectID, date string, req *dto.ReplaceDayAssignmentsRequest) (*dto.ConflictCheckResult, error) {
	_, day, err := s.loadProjectDay(ctx, projectID, date)
	if err != nil {
		return nil, err
	}

	if fieldErrs := validation.ValidateDayAssignmentSubmission(req); len(fieldErrs) > 0 {
		conflicts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			conflicts = append(conflicts, fe.Message)
		}
		return &dto.ConflictCheckResult{Valid: false, Conflicts: conflicts}, nil
	}

	snap, err := s.buildConflictSnapshot(ctx, projectID, date, day)
	if err != nil {
		return nil, err
	}
	result := evaluateDayConflicts(req, snap)
	return &result, nil
}
