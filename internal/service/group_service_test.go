package service

import (
	"context"
	"testing"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/oplog"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.groupSvc.CreateGroup(context.Background(), "p-1", &dto.CreateGroupRequest{
		Name:           "夏夜合唱团",
		Members:        []dto.GroupMemberInput{{Name: "小雨"}, {Name: "小雷", Role: "队长"}},
		ContactName:    strPtr("王经理"),
		ContactPhone:   strPtr("+86 138-0000-0000"),
		ScheduledDates: []string{"2024-02-12", "2024-02-13"},
	}, "admin-1")
	if err != nil {
		t.Fatalf("创建组合失败: %v", err)
	}
	if resp.ID == "" || resp.Name != "夏夜合唱团" || len(resp.Members) != 2 {
		t.Errorf("组合响应错误: %+v", resp)
	}

	// 排期日期随创建写入
	dates, _ := env.groupRows.ListDatesByGroup(context.Background(), "p-1", resp.ID)
	if len(dates) != 2 {
		t.Errorf("创建时的排期应写入: %v", dates)
	}
}

func TestCreateGroup_DuplicateNameCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.groupSvc.CreateGroup(ctx, "p-1", &dto.CreateGroupRequest{
		Name:    "Starlight",
		Members: []dto.GroupMemberInput{{Name: "阿星"}},
	}, "")
	if err != nil {
		t.Fatalf("创建组合失败: %v", err)
	}

	_, err = env.groupSvc.CreateGroup(ctx, "p-1", &dto.CreateGroupRequest{
		Name:    "STARLIGHT",
		Members: []dto.GroupMemberInput{{Name: "阿光"}},
	}, "")
	assertCode(t, err, pkgerrors.CodeDuplicateGroupName)
}

func TestCreateGroup_InvalidMembers(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.groupSvc.CreateGroup(context.Background(), "p-1", &dto.CreateGroupRequest{
		Name:    "无效组合",
		Members: []dto.GroupMemberInput{{Name: "Mina"}, {Name: "mina"}},
	}, "")
	assertCode(t, err, pkgerrors.CodeValidationError)
}

func TestCreateGroup_ScheduledDateOutOfWindow(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.groupSvc.CreateGroup(context.Background(), "p-1", &dto.CreateGroupRequest{
		Name:           "越界组合",
		Members:        []dto.GroupMemberInput{{Name: "阿越"}},
		ScheduledDates: []string{"2024-03-05"},
	}, "")
	assertCode(t, err, pkgerrors.CodeValidationError)
}

func TestUpdateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.groupSvc.UpdateGroup(ctx, "p-1", "g-1", &dto.UpdateGroupRequest{
		Name:        strPtr("星河少年二队"),
		ContactName: strPtr("李经理"),
	}, "admin-1")
	if err != nil {
		t.Fatalf("更新组合失败: %v", err)
	}
	if resp.Name != "星河少年二队" {
		t.Errorf("名称未更新: %s", resp.Name)
	}
	if resp.ContactName == nil || *resp.ContactName != "李经理" {
		t.Errorf("联系人未更新: %v", resp.ContactName)
	}
	// 未指定的成员列表保持不变
	if len(resp.Members) != 2 {
		t.Errorf("成员列表不应被改动: %+v", resp.Members)
	}

	// 版本更新成功记入操作日志
	var sawUpdate bool
	for _, ev := range env.ops.Recent(0) {
		if ev.Kind == oplog.KindOptimisticUpdate && ev.SubjectID == "g-1" {
			sawUpdate = true
			if ev.Details["version"] != 2 {
				t.Errorf("事件应携带更新后的版本号: %+v", ev.Details)
			}
		}
	}
	if !sawUpdate {
		t.Error("版本更新成功应记入操作日志")
	}
}

func TestUpdateGroup_RenameConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.groupSvc.CreateGroup(ctx, "p-1", &dto.CreateGroupRequest{
		Name:    "银河少女",
		Members: []dto.GroupMemberInput{{Name: "阿银"}},
	}, "")
	if err != nil {
		t.Fatalf("创建组合失败: %v", err)
	}

	_, err = env.groupSvc.UpdateGroup(ctx, "p-1", "g-1", &dto.UpdateGroupRequest{
		Name: strPtr("银河少女"),
	}, "")
	assertCode(t, err, pkgerrors.CodeDuplicateGroupName)
}

func TestUpdateGroup_RenameToSelfAllowed(t *testing.T) {
	env := newTestEnv(t)

	// 仅大小写调整，自身不算冲突
	_, err := env.groupSvc.UpdateGroup(context.Background(), "p-1", "g-1", &dto.UpdateGroupRequest{
		Name: strPtr("星河少年"),
	}, "")
	if err != nil {
		t.Fatalf("改回自身名称不应冲突: %v", err)
	}
}

func TestDeleteGroup_CascadesAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.groupSvc.DeleteGroup(ctx, "p-1", "g-1", "admin-1"); err != nil {
		t.Fatalf("删除组合失败: %v", err)
	}

	rows, _ := env.groupRows.ListByGroup(ctx, "p-1", "g-1")
	if len(rows) != 0 {
		t.Errorf("删除组合应级联删除其指派行: %+v", rows)
	}
	if _, err := env.groupSvc.GetGroup(ctx, "p-1", "g-1"); err == nil {
		t.Error("已删除组合不应再可读")
	}
}

func TestGetGroup_WrongProject(t *testing.T) {
	env := newTestEnv(t)

	env.projects.projects["p-2"] = env.projects.projects["p-1"]
	_, err := env.groupSvc.GetGroup(context.Background(), "p-2", "g-1")
	assertCode(t, err, pkgerrors.CodeSubjectNotFound)
}

func TestListGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.groupSvc.CreateGroup(ctx, "p-1", &dto.CreateGroupRequest{
		Name:    "安可乐队",
		Members: []dto.GroupMemberInput{{Name: "阿安"}},
	}, "")
	if err != nil {
		t.Fatalf("创建组合失败: %v", err)
	}

	groups, err := env.groupSvc.ListGroups(ctx, "p-1")
	if err != nil {
		t.Fatalf("列表查询失败: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("应有 2 个组合, got %d", len(groups))
	}
}
