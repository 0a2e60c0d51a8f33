package service

import (
	"fmt"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
)

// ── 指派冲突规则引擎 ──
// 纯函数集合：输入为请求与当日数据快照，不触库、不产生副作用。
// 三类规则：排期一致性、随行可用性、随行当日唯一性。

// dayConflictSnapshot 冲突判定所需的当日数据快照
type dayConflictSnapshot struct {
	Date string

	// 当日已排期的对象 ID 集合（以既有指派/占位行为准）
	ScheduledTalentIDs map[string]bool
	ScheduledGroupIDs  map[string]bool

	// 项目团队成员 ID 集合
	TeamMemberIDs map[string]bool

	// 随行 ID → 本人提交的可用日期；未提交记录的随行视为全程可用
	Availabilities map[string]model.DateArray

	// 随行 ID → 姓名（仅用于拼装冲突文案，可缺省）
	MemberNames map[string]string
}

func (s *dayConflictSnapshot) memberLabel(escortID string) string {
	if name, ok := s.MemberNames[escortID]; ok && name != "" {
		return name
	}
	return escortID
}

// checkEscortDoubleBooking 随行当日唯一性：
// 提交内全部随行 ID 的并集必须无重复（跨艺人与组合）
func checkEscortDoubleBooking(req *dto.ReplaceDayAssignmentsRequest, snap *dayConflictSnapshot) []string {
	owner := make(map[string]string)
	var conflicts []string

	claim := func(escortID, subject string) {
		if first, ok := owner[escortID]; ok {
			conflicts = append(conflicts,
				fmt.Sprintf("随行 %s 在 %s 已指派给%s，不能再指派给%s",
					snap.memberLabel(escortID), snap.Date, first, subject))
			return
		}
		owner[escortID] = subject
	}

	for _, t := range req.Talents {
		for _, eid := range t.EscortIDs {
			claim(eid, "艺人 "+t.TalentID)
		}
	}
	for _, g := range req.Groups {
		for _, eid := range g.EscortIDs {
			claim(eid, "组合 "+g.GroupID)
		}
	}
	return conflicts
}

// checkScheduleConsistency 排期一致性：
// 只能给当日已排期的对象指派随行
func checkScheduleConsistency(req *dto.ReplaceDayAssignmentsRequest, snap *dayConflictSnapshot) []string {
	var conflicts []string
	for _, t := range req.Talents {
		if !snap.ScheduledTalentIDs[t.TalentID] {
			conflicts = append(conflicts,
				fmt.Sprintf("艺人 %s 在 %s 未排期，不能指派随行", t.TalentID, snap.Date))
		}
	}
	for _, g := range req.Groups {
		if !snap.ScheduledGroupIDs[g.GroupID] {
			conflicts = append(conflicts,
				fmt.Sprintf("组合 %s 在 %s 未排期，不能指派随行", g.GroupID, snap.Date))
		}
	}
	return conflicts
}

// checkEscortAvailability 随行可用性：
// 随行必须属于项目团队；已提交可用日期的随行其集合必须包含当日
func checkEscortAvailability(req *dto.ReplaceDayAssignmentsRequest, snap *dayConflictSnapshot) []string {
	var conflicts []string
	seen := make(map[string]bool)

	check := func(escortID string) {
		if seen[escortID] {
			return
		}
		seen[escortID] = true
		if !snap.TeamMemberIDs[escortID] {
			conflicts = append(conflicts,
				fmt.Sprintf("随行 %s 不在项目团队内", snap.memberLabel(escortID)))
			return
		}
		dates, submitted := snap.Availabilities[escortID]
		if submitted && !dates.Contains(snap.Date) {
			conflicts = append(conflicts,
				fmt.Sprintf("随行 %s 在 %s 不可用", snap.memberLabel(escortID), snap.Date))
		}
	}

	for _, t := range req.Talents {
		for _, eid := range t.EscortIDs {
			check(eid)
		}
	}
	for _, g := range req.Groups {
		for _, eid := range g.EscortIDs {
			check(eid)
		}
	}
	return conflicts
}

// evaluateDayConflicts 汇总全部冲突规则
func evaluateDayConflicts(req *dto.ReplaceDayAssignmentsRequest, snap *dayConflictSnapshot) dto.ConflictCheckResult {
	var conflicts []string
	conflicts = append(conflicts, checkEscortDoubleBooking(req, snap)...)
	conflicts = append(conflicts, checkScheduleConsistency(req, snap)...)
	conflicts = append(conflicts, checkEscortAvailability(req, snap)...)
	return dto.ConflictCheckResult{
		Valid:     len(conflicts) == 0,
		Conflicts: conflicts,
	}
}
