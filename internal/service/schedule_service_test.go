package service

import (
	"context"
	"testing"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

func TestSetTalentSchedule_DiffPreservesEscorts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 先在 02-10 给 t-1 指派随行
	_, err := env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-1"}}},
	}, "")
	if err != nil {
		t.Fatalf("指派失败: %v", err)
	}

	// 改排期：保留 02-10，去掉 02-11，新增 02-15
	resp, err := env.schedules.SetTalentSchedule(ctx, "p-1", "t-1", &dto.SetScheduleRequest{
		Dates: []string{"2024-02-10", "2024-02-15"},
	}, "admin-1")
	if err != nil {
		t.Fatalf("更新排期失败: %v", err)
	}
	if len(resp.Dates) != 2 {
		t.Errorf("响应日期数错误: %v", resp.Dates)
	}

	dates, _ := env.talentRows.ListDatesByTalent(ctx, "p-1", "t-1")
	if len(dates) != 2 || dates[0] != "2024-02-10" || dates[1] != "2024-02-15" {
		t.Fatalf("排期日期错误: %v", dates)
	}

	// 02-10 上的随行不受排期更新影响
	rows, _ := env.talentRows.ListByProjectAndDate(ctx, "p-1", mustDay(t, "2024-02-10"))
	var kept bool
	for _, r := range rows {
		if r.TalentID == "t-1" && r.EscortID != nil && *r.EscortID == "e-1" {
			kept = true
		}
	}
	if !kept {
		t.Error("保留日期上的随行指派应原样保留")
	}

	// 02-11 的行（含随行）应随排期移除一并删除
	rows11, _ := env.talentRows.ListByProjectAndDate(ctx, "p-1", mustDay(t, "2024-02-11"))
	for _, r := range rows11 {
		if r.TalentID == "t-1" {
			t.Errorf("被移除排期的日期不应残留行: %+v", r)
		}
	}
}

func TestSetTalentSchedule_OutOfWindow(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.schedules.SetTalentSchedule(context.Background(), "p-1", "t-1", &dto.SetScheduleRequest{
		Dates: []string{"2024-02-10", "2025-03-15"},
	}, "")
	assertCode(t, err, pkgerrors.CodeDateOutOfRange)
}

func TestSetTalentSchedule_InvalidDate(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.schedules.SetTalentSchedule(context.Background(), "p-1", "t-1", &dto.SetScheduleRequest{
		Dates: []string{"15-02-2024"},
	}, "")
	assertCode(t, err, pkgerrors.CodeInvalidDateFormat)
}

func TestSetTalentSchedule_TalentNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.schedules.SetTalentSchedule(context.Background(), "p-1", "t-404", &dto.SetScheduleRequest{
		Dates: []string{"2024-02-10"},
	}, "")
	assertCode(t, err, pkgerrors.CodeSubjectNotFound)
}

func TestGetTalentSchedule(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.schedules.GetTalentSchedule(context.Background(), "p-1", "t-1")
	if err != nil {
		t.Fatalf("读取排期失败: %v", err)
	}
	if resp.SubjectKind != model.SubjectKindTalent {
		t.Errorf("对象类型错误: %s", resp.SubjectKind)
	}
	if len(resp.Dates) != 2 || resp.Dates[0] != "2024-02-10" || resp.Dates[1] != "2024-02-11" {
		t.Errorf("排期日期应去重升序: %v", resp.Dates)
	}
}

func TestSetGroupSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.schedules.SetGroupSchedule(ctx, "p-1", "g-1", &dto.SetScheduleRequest{
		Dates: []string{"2024-02-10", "2024-02-20"},
	}, "")
	if err != nil {
		t.Fatalf("更新组合排期失败: %v", err)
	}
	if resp.SubjectKind != model.SubjectKindGroup {
		t.Errorf("对象类型错误: %s", resp.SubjectKind)
	}

	dates, _ := env.groupRows.ListDatesByGroup(ctx, "p-1", "g-1")
	if len(dates) != 2 || dates[1] != "2024-02-20" {
		t.Errorf("组合排期日期错误: %v", dates)
	}
}

func TestSetGroupSchedule_GroupNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.schedules.SetGroupSchedule(context.Background(), "p-1", "g-404", &dto.SetScheduleRequest{
		Dates: []string{"2024-02-10"},
	}, "")
	assertCode(t, err, pkgerrors.CodeSubjectNotFound)
}
