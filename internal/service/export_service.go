package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/repository"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// ExportService 指派表导出业务接口
type ExportService interface {
	// ExportAssignments 导出整个档期的"日期 × 对象"随行矩阵
	ExportAssignments(ctx context.Context, projectID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// 矩阵单元格内容：该对象当日的随行姓名列表
type exportSubject struct {
	id   string
	kind string
	name string
}

func (s *exportService) ExportAssignments(ctx context.Context, projectID string) (*bytes.Buffer, string, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", pkgerrors.NewProjectNotFound(projectID)
	}
	if err != nil {
		return nil, "", pkgerrors.NewDatabaseError("查询项目", err)
	}

	talentRows, err := s.repo.TalentAssignment.ListByProject(ctx, projectID)
	if err != nil {
		return nil, "", pkgerrors.NewDatabaseError("查询艺人指派", err)
	}
	groupRows, err := s.repo.GroupAssignment.ListByProject(ctx, projectID)
	if err != nil {
		return nil, "", pkgerrors.NewDatabaseError("查询组合指派", err)
	}

	// 1. 收集出现过的对象（先艺人后组合，各按名称排序）
	subjectSet := make(map[string]exportSubject)
	cellText := make(map[string][]string) // "subjectID:date" → 随行姓名列表
	markCell := func(subjectID, date string, escortID *string, escortName string) {
		key := subjectID + ":" + date
		if escortID == nil {
			if _, ok := cellText[key]; !ok {
				cellText[key] = []string{}
			}
			return
		}
		name := escortName
		if name == "" {
			name = *escortID
		}
		cellText[key] = append(cellText[key], name)
	}

	for _, row := range talentRows {
		sub := exportSubject{id: row.TalentID, kind: model.SubjectKindTalent}
		if row.Talent != nil {
			sub.name = row.Talent.Name
		}
		subjectSet[row.TalentID] = sub
		escortName := ""
		if row.Escort != nil {
			escortName = row.Escort.Name
		}
		markCell(row.TalentID, row.AssignmentDate.Format(model.DateLayout), row.EscortID, escortName)
	}
	for _, row := range groupRows {
		sub := exportSubject{id: row.GroupID, kind: model.SubjectKindGroup}
		if row.Group != nil {
			sub.name = row.Group.Name
		}
		subjectSet[row.GroupID] = sub
		escortName := ""
		if row.Escort != nil {
			escortName = row.Escort.Name
		}
		markCell(row.GroupID, row.AssignmentDate.Format(model.DateLayout), row.EscortID, escortName)
	}

	var subjects []exportSubject
	for _, sub := range subjectSet {
		subjects = append(subjects, sub)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].kind != subjects[j].kind {
			return subjects[i].kind == model.SubjectKindTalent
		}
		if subjects[i].name != subjects[j].name {
			return subjects[i].name < subjects[j].name
		}
		return subjects[i].id < subjects[j].id
	})

	// 2. 档期窗口全部日期为行
	dates := project.AllDates()

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "指派表"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", pkgerrors.NewInternalError(err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	for i := range subjects {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetColWidth(sheetName, col, col, 20)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 随行指派表", project.Name))
	if len(subjects) > 0 {
		f.MergeCell(sheetName, "A1", fmt.Sprintf("%s1", colName(len(subjects))))
	}
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头: | 日期 | 艺人A | 艺人B | 组合X(组合) |
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "日期")
	for i, sub := range subjects {
		label := sub.name
		if label == "" {
			label = sub.id
		}
		if sub.kind == model.SubjectKindGroup {
			label += "（组合）"
		}
		f.SetCellValue(sheetName, cell(colName(1+i), row), label)
	}

	// 数据行：未排期 "-"，排期无随行 "未指派"
	row = 3
	for _, date := range dates {
		f.SetCellValue(sheetName, cell("A", row), date)
		for i, sub := range subjects {
			key := sub.id + ":" + date
			escorts, scheduled := cellText[key]
			text := "-"
			if scheduled {
				if len(escorts) == 0 {
					text = "未指派"
				} else {
					sort.Strings(escorts)
					text = strings.Join(escorts, "、")
				}
			}
			f.SetCellValue(sheetName, cell(colName(1+i), row), text)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", pkgerrors.NewInternalError(err)
	}

	filename := fmt.Sprintf("指派表_%s.xlsx", project.Name)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
