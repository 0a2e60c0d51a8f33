package service

import (
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

func TestExportAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 先产生一条真实指派，保证导出内容非空
	_, err := env.assignments.ReplaceDayAssignments(ctx, "p-1", "2024-02-10", &dto.ReplaceDayAssignmentsRequest{
		Talents: []dto.TalentAssignmentEntry{{TalentID: "t-1", EscortIDs: []string{"e-1"}}},
	}, "u-1")
	if err != nil {
		t.Fatalf("预置指派失败: %v", err)
	}

	buf, filename, err := env.exportSvc.ExportAssignments(ctx, "p-1")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Fatal("导出内容不应为空")
	}
	if !strings.Contains(filename, "巡回演唱会") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名不符合预期: %s", filename)
	}

	// 回读校验表头与日期行
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件无法解析: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("指派表")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	// 标题行 + 表头行 + 28 个档期日
	if len(rows) != 2+28 {
		t.Fatalf("行数不符: got %d", len(rows))
	}
	header := rows[1]
	if header[0] != "日期" {
		t.Errorf("首列表头应为日期: %v", header)
	}
	joined := strings.Join(header, "|")
	for _, want := range []string{"林晚", "沈一", "星河少年（组合）"} {
		if !strings.Contains(joined, want) {
			t.Errorf("表头缺少 %s: %v", want, header)
		}
	}
}

func TestExportAssignments_ProjectNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.exportSvc.ExportAssignments(context.Background(), "p-404")
	assertCode(t, err, pkgerrors.CodeProjectNotFound)
}
