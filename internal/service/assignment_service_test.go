package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/oplog"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/repository"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// ── 测试环境 ──

type testEnv struct {
	repo        *repository.Repository
	projects    *mockProjectRepo
	talents     *mockTalentRepo
	groups      *mockGroupRepo
	team        *mockTeamRepo
	avails      *mockAvailabilityRepo
	talentRows  *mockTalentAssignmentRepo
	groupRows   *mockGroupAssignmentRepo
	ops         *oplog.Logger
	assignments AssignmentService
	schedules   ScheduleService
	groupSvc    GroupService
	availSvc    AvailabilityService
	exportSvc   ExportService
}

func mustDay(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		t.Fatalf("测试日期非法: %v", err)
	}
	return d
}

func strPtr(s string) *string { return &s }

// newTestEnv 预置一个 2024-02 档期的项目：
// 艺人 t-1/t-2、组合 g-1 均在 02-10 排期，t-1 另在 02-11 排期；
// 团队成员 e-1..e-6；e-1 提交了 [02-10,02-11]，e-3 提交了 [02-11]（02-10 不可用），
// 其余成员未提交可用日期（视为全程可用）。
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		projects:   newMockProjectRepo(),
		talents:    newMockTalentRepo(),
		groups:     newMockGroupRepo(),
		team:       newMockTeamRepo(),
		avails:     newMockAvailabilityRepo(),
		talentRows: newMockTalentAssignmentRepo(),
		groupRows:  newMockGroupAssignmentRepo(),
		ops:        oplog.New(200, nil),
	}
	env.talentRows.talents = env.talents
	env.talentRows.team = env.team
	env.groupRows.groups = env.groups
	env.groupRows.team = env.team
	env.repo = &repository.Repository{
		Project:          env.projects,
		Talent:           env.talents,
		Group:            env.groups,
		Team:             env.team,
		Availability:     env.avails,
		TalentAssignment: env.talentRows,
		GroupAssignment:  env.groupRows,
	}

	logger := zap.NewNop()
	env.assignments = NewAssignmentService(env.repo, nil, env.ops, logger)
	env.schedules = NewScheduleService(env.repo, logger)
	env.groupSvc = NewGroupService(env.repo, env.ops, logger)
	env.availSvc = NewAvailabilityService(env.repo, logger)
	env.exportSvc = NewExportService(env.repo, logger)

	env.projects.projects["p-1"] = &model.Project{
		ProjectID: "p-1",
		Name:      "巡回演唱会",
		StartDate: mustDay(t, "2024-02-01"),
		EndDate:   mustDay(t, "2024-02-28"),
	}

	env.talents.talents["t-1"] = &model.Talent{TalentID: "t-1", ProjectID: "p-1", Name: "林晚"}
	env.talents.talents["t-2"] = &model.Talent{TalentID: "t-2", ProjectID: "p-1", Name: "沈一"}
	env.groups.groups["g-1"] = &model.TalentGroup{
		GroupID: "g-1", ProjectID: "p-1", Name: "星河少年",
		Members: model.GroupMemberList{{Name: "阿树"}, {Name: "阿湖"}},
		VersionedModel: model.VersionedModel{Version: 1},
	}

	for _, id := range []string{"e-1", "e-2", "e-3", "e-4", "e-5", "e-6"} {
		env.team.members[id] = &model.TeamMember{MemberID: id, Name: "随行" + id, Role: "escort"}
		env.team.addToProject("p-1", id)
	}

	env.avails.byKey[availKey("p-1", "e-1")] = &model.StaffAvailability{
		AvailabilityID: "avail-e-1", ProjectID: "p-1", MemberID: "e-1",
		AvailableDates: model.DateArray{"2024-02-10", "2024-02-11"}, Version: 1,
	}
	env.avails.byKey[availKey("p-1", "e-3")] = &model.StaffAvailability{
		AvailabilityID: "avail-e-3", ProjectID: "p-1", MemberID: "e-3",
		AvailableDates: model.DateArray{"2024-02-11"}, Version: 1,
	}

	// 排期占位行
	feb10 := mustDay(t, "2024-02-10")
	feb11 := mustDay(t, "2024-02-11")
	env.talentRows.rows = []model.TalentDailyAssignment{
		{AssignmentID: "seed-1", ProjectID: "p-1", TalentID: "t-1", AssignmentDate: feb10, Version: 1},
		{AssignmentID: "seed-2", ProjectID: "p-1", TalentID: "t-1", AssignmentDate: feb11, Version: 1},
		{AssignmentID: "seed-3", ProjectID: "p-1", TalentID: "t-2", AssignmentDate: feb10, Version: 1},
	}
	env.groupRows.rows = []model.GroupDailyAssignment{
		{AssignmentID: "seed-g1", ProjectID: "p-1", GroupID: "g-1", AssignmentDate: feb10, Version: 1},
	}
	return env
}

func findSubject(t *testing.T, list []dto.SubjectDayAssignment, id string) dto.SubjectDayAssignment {
	t.Helper()
	for _, s := range list {
		if s.SubjectID == id {
			return s
		}
	}
	t.Fatalf("响应中缺少对象 %s", id)
	return dto.SubjectDayAssignment{}
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("期望错误 %s, got nil", want)
	}
	appErr, ok := pkgerrors.AsError(err)
	if !ok {
		t.Fatalf("期望 *pkgerrors.Error, got %T: %v", err, err)
	}
	if appErr.Code != want {
		t.Fatalf("期望错误码 %s, got %s (%s)", want, appErr.Code, appErr.Message)
	}
	return appErr
}

// ── ReplaceDayAssignments ──

func TestReplaceDayAssignments_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-1", "e-2"}}},
		Groups:  []dto.GroupAssignmentEntry{{GroupID: "g-1", EscortIDs: []string{"e-4"}}},
	}, "admin-1")
	if err != nil {
		t.Fatalf("整日指派失败: %v", err)
	}

	t1 := findSubject(t, resp.Talents, "t-1")
	if len(t1.Escorts) != 2 {
		t.Errorf("t-1 应有 2 名随行, got %d", len(t1.Escorts))
	}
	// 未出现在请求中的已排期艺人保留占位行
	t2 := findSubject(t, resp.Talents, "t-2")
	if !t2.Scheduled || len(t2.Escorts) != 0 {
		t.Errorf("t-2 应保持已排期且无随行: %+v", t2)
	}
	g1 := findSubject(t, resp.Groups, "g-1")
	if len(g1.Escorts) != 1 || g1.Escorts[0].ID != "e-4" {
		t.Errorf("g-1 随行错误: %+v", g1.Escorts)
	}

	// 其他日期的行不受影响
	dates, _ := env.talentRows.ListDatesByTalent(ctx, "p-1", "t-1")
	if len(dates) != 2 {
		t.Errorf("t-1 的排期日期应保持 2 天, got %v", dates)
	}
}

func TestReplaceDayAssignments_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-1"}}},
	}

	first, err := env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", req, "")
	if err != nil {
		t.Fatalf("首次指派失败: %v", err)
	}
	rowsAfterFirst := len(env.talentRows.rows) + len(env.groupRows.rows)

	second, err := env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", req, "")
	if err != nil {
		t.Fatalf("重复指派失败: %v", err)
	}
	rowsAfterSecond := len(env.talentRows.rows) + len(env.groupRows.rows)

	if rowsAfterFirst != rowsAfterSecond {
		t.Errorf("相同提交重复执行后行数应不变: %d != %d", rowsAfterFirst, rowsAfterSecond)
	}
	if len(first.Talents) != len(second.Talents) || len(first.Groups) != len(second.Groups) {
		t.Error("相同提交重复执行后读取结果应一致")
	}
}

func TestReplaceDayAssignments_DoubleBookingRejectedBeforeWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before := len(env.talentRows.rows)
	_, err := env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{
			{TalentID: "t-1", EscortIDs: []string{"e-1"}},
			{TalentID: "t-2", EscortIDs: []string{"e-1"}},
		},
	}, "")
	assertCode(t, err, pkgerrors.CodeEscortDoubleBooking)

	// 任何行都不应被写入
	if len(env.talentRows.rows) != before {
		t.Errorf("冲突请求不应改动存储: %d → %d", before, len(env.talentRows.rows))
	}
	for _, r := range env.talentRows.rows {
		if r.EscortID != nil {
			t.Errorf("冲突请求后不应存在随行行: %+v", r)
		}
	}
}

func TestReplaceDayAssignments_DateOutOfRange(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2025-03-15", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-1"}}},
	}, "")
	assertCode(t, err, pkgerrors.CodeDateOutOfRange)
}

func TestReplaceDayAssignments_InvalidDateFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-2-5", &dto.ReplaceDayAssignmentsRequest{}, "")
	assertCode(t, err, pkgerrors.CodeInvalidDateFormat)
}

func TestReplaceDayAssignments_ProjectNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-404", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{}, "")
	assertCode(t, err, pkgerrors.CodeProjectNotFound)
}

func TestReplaceDayAssignments_SubjectNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-404", EscortIDs: []string{"e-1"}}},
	}, "")
	assertCode(t, err, pkgerrors.CodeSubjectNotFound)
}

func TestReplaceDayAssignments_NotScheduledRejected(t *testing.T) {
	env := newTestEnv(t)

	// t-2 只在 02-10 排期
	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-02-11", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-2", EscortIDs: []string{"e-2"}}},
	}, "")
	appErr := assertCode(t, err, pkgerrors.CodeValidationError)
	if appErr.Details["conflicts"] == nil {
		t.Error("未排期冲突应携带 conflicts 详情")
	}
}

func TestReplaceDayAssignments_UnavailableEscortRejected(t *testing.T) {
	env := newTestEnv(t)

	// e-3 提交的可用日期不含 02-10
	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-3"}}},
	}, "")
	assertCode(t, err, pkgerrors.CodeValidationError)
}

func TestReplaceDayAssignments_NoAvailabilityMeansAvailable(t *testing.T) {
	env := newTestEnv(t)

	// e-5 从未提交可用日期，视为全程可用
	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-5"}}},
	}, "")
	if err != nil {
		t.Fatalf("未提交可用日期的随行应可被指派: %v", err)
	}
}

func TestReplaceDayAssignments_MaxEscortsExceeded(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{
			{TalentID: "t-1", EscortIDs: []string{"e-1", "e-2", "e-3", "e-4", "e-5", "e-6"}},
		},
	}, "")
	assertCode(t, err, pkgerrors.CodeMaxEscortsExceeded)
}

func TestReplaceDayAssignments_UnknownEscortNotFound(t *testing.T) {
	env := newTestEnv(t)

	// "ghost-1" 在成员表中完全不存在，属引用缺失而非校验冲突
	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"ghost-1"}}},
	}, "")
	appErr := assertCode(t, err, pkgerrors.CodeSubjectNotFound)
	if appErr.Details["subject_id"] != "ghost-1" {
		t.Errorf("错误详情应指向缺失的随行 ID: %+v", appErr.Details)
	}
}

func TestReplaceDayAssignments_EscortOutsideTeamRejected(t *testing.T) {
	env := newTestEnv(t)

	// e-9 是真实成员但未加入 p-1 团队，按冲突处理而非引用缺失
	env.team.members["e-9"] = &model.TeamMember{MemberID: "e-9", Name: "随行e-9", Role: "escort"}

	_, err := env.assignments.ReplaceDayAssignments(context.Background(), "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-9"}}},
	}, "")
	assertCode(t, err, pkgerrors.CodeValidationError)
}

// ── ClearDayAssignments ──

func TestClearDayAssignments_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{
			{TalentID: "t-1", EscortIDs: []string{"e-1", "e-2"}},
			{TalentID: "t-2", EscortIDs: []string{"e-4"}},
		},
		Groups: []dto.GroupAssignmentEntry{{GroupID: "g-1", EscortIDs: []string{"e-5"}}},
	}, "")
	if err != nil {
		t.Fatalf("指派失败: %v", err)
	}

	if err := env.assignments.ClearDayAssignments(ctx, "p-1", "2024-02-10"); err != nil {
		t.Fatalf("清空当日随行失败: %v", err)
	}

	resp, err := env.assignments.GetDayAssignments(ctx, "p-1", "2024-02-10")
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if len(resp.Talents) != 2 || len(resp.Groups) != 1 {
		t.Fatalf("清空后全部对象应保持排期: talents=%d groups=%d", len(resp.Talents), len(resp.Groups))
	}
	for _, sub := range append(resp.Talents, resp.Groups...) {
		if !sub.Scheduled {
			t.Errorf("对象 %s 应保持已排期", sub.SubjectID)
		}
		if len(sub.Escorts) != 0 {
			t.Errorf("对象 %s 的随行应被摘除: %+v", sub.SubjectID, sub.Escorts)
		}
	}
}

// ── 冲突判定（只读） ──

func TestCheckDayAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ok, err := env.assignments.CheckDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-1"}}},
	})
	if err != nil {
		t.Fatalf("冲突判定失败: %v", err)
	}
	if !ok.Valid {
		t.Errorf("合法提交应通过: %v", ok.Conflicts)
	}

	bad, err := env.assignments.CheckDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-3"}}},
	})
	if err != nil {
		t.Fatalf("冲突判定失败: %v", err)
	}
	if bad.Valid || len(bad.Conflicts) == 0 {
		t.Error("不可用随行应产生冲突")
	}
}

// ── 操作日志联动 ──

func TestReplaceDayAssignments_OplogRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _ = env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-1"}}},
	}, "")
	_, _ = env.assignments.ReplaceDayAssignments(ctx, "p-1", "2025-03-15", &dto.ReplaceDayAssignmentsRequest{}, "")

	var sawSuccess bool
	for _, ev := range env.ops.Recent(0) {
		if ev.Kind == oplog.KindAssignmentSuccess {
			sawSuccess = true
		}
	}
	if !sawSuccess {
		t.Error("成功指派应记入操作日志")
	}

	summary := env.ops.ErrorSummary("p-1", time.Time{}, 0)
	if summary.ByCode[string(pkgerrors.CodeDateOutOfRange)] == 0 {
		t.Errorf("越界失败应计入错误汇总: %+v", summary)
	}
}
