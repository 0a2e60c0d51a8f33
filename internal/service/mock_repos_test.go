package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/model"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
)

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[string]*model.Project
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) List(_ context.Context, _, _ int) ([]model.Project, int64, error) {
	var result []model.Project
	for _, p := range m.projects {
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

// ── Mock TalentRepository ──

type mockTalentRepo struct {
	talents map[string]*model.Talent
}

func newMockTalentRepo() *mockTalentRepo {
	return &mockTalentRepo{talents: make(map[string]*model.Talent)}
}

func (m *mockTalentRepo) GetByID(_ context.Context, id string) (*model.Talent, error) {
	if t, ok := m.talents[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTalentRepo) ListByProject(_ context.Context, projectID string) ([]model.Talent, error) {
	var result []model.Talent
	for _, t := range m.talents {
		if t.ProjectID == projectID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTalentRepo) ListByIDs(_ context.Context, projectID string, ids []string) ([]model.Talent, error) {
	var result []model.Talent
	for _, id := range ids {
		if t, ok := m.talents[id]; ok && t.ProjectID == projectID {
			result = append(result, *t)
		}
	}
	return result, nil
}

// ── Mock GroupRepository ──

type mockGroupRepo struct {
	groups map[string]*model.TalentGroup
	nextID int
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{groups: make(map[string]*model.TalentGroup)}
}

func (m *mockGroupRepo) Create(_ context.Context, group *model.TalentGroup) error {
	if group.GroupID == "" {
		m.nextID++
		group.GroupID = fmt.Sprintf("grp-%d", m.nextID)
	}
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()
	m.groups[group.GroupID] = group
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.TalentGroup, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) GetByProjectAndName(_ context.Context, projectID, name string) (*model.TalentGroup, error) {
	for _, g := range m.groups {
		if g.ProjectID == projectID && strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) ListByProject(_ context.Context, projectID string) ([]model.TalentGroup, error) {
	var result []model.TalentGroup
	for _, g := range m.groups {
		if g.ProjectID == projectID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockGroupRepo) ListByIDs(_ context.Context, projectID string, ids []string) ([]model.TalentGroup, error) {
	var result []model.TalentGroup
	for _, id := range ids {
		if g, ok := m.groups[id]; ok && g.ProjectID == projectID {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGroupRepo) Update(_ context.Context, group *model.TalentGroup) error {
	existing, ok := m.groups[group.GroupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != group.Version {
		return pkgerrors.ErrOptimisticLock
	}
	group.Version++
	group.UpdatedAt = time.Now()
	m.groups[group.GroupID] = group
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id string, _ *string) error {
	delete(m.groups, id)
	return nil
}

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	members     map[string]*model.TeamMember
	memberships map[string]map[string]bool // projectID → memberID 集合
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{
		members:     make(map[string]*model.TeamMember),
		memberships: make(map[string]map[string]bool),
	}
}

func (m *mockTeamRepo) addToProject(projectID, memberID string) {
	if m.memberships[projectID] == nil {
		m.memberships[projectID] = make(map[string]bool)
	}
	m.memberships[projectID][memberID] = true
}

func (m *mockTeamRepo) GetMember(_ context.Context, id string) (*model.TeamMember, error) {
	if tm, ok := m.members[id]; ok {
		return tm, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamRepo) ListProjectMembers(_ context.Context, projectID string) ([]model.ProjectTeamMember, error) {
	var result []model.ProjectTeamMember
	for memberID := range m.memberships[projectID] {
		result = append(result, model.ProjectTeamMember{
			ProjectID: projectID,
			MemberID:  memberID,
			Member:    m.members[memberID],
		})
	}
	return result, nil
}

func (m *mockTeamRepo) ListMemberIDs(_ context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.members[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *mockTeamRepo) ListProjectMemberIDs(_ context.Context, projectID string) (map[string]bool, error) {
	out := make(map[string]bool, len(m.memberships[projectID]))
	for id := range m.memberships[projectID] {
		out[id] = true
	}
	return out, nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct {
	byKey map[string]*model.StaffAvailability // projectID+"|"+memberID
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{byKey: make(map[string]*model.StaffAvailability)}
}

func availKey(projectID, memberID string) string { return projectID + "|" + memberID }

func (m *mockAvailabilityRepo) GetByProjectAndMember(_ context.Context, projectID, memberID string) (*model.StaffAvailability, error) {
	if a, ok := m.byKey[availKey(projectID, memberID)]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAvailabilityRepo) ListByProject(_ context.Context, projectID string) ([]model.StaffAvailability, error) {
	var result []model.StaffAvailability
	for _, a := range m.byKey {
		if a.ProjectID == projectID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAvailabilityRepo) Upsert(_ context.Context, avail *model.StaffAvailability) error {
	key := availKey(avail.ProjectID, avail.MemberID)
	if existing, ok := m.byKey[key]; ok {
		avail.AvailabilityID = existing.AvailabilityID
		avail.Version = existing.Version + 1
	} else {
		avail.AvailabilityID = "avail-" + avail.MemberID
		avail.Version = 1
	}
	m.byKey[key] = avail
	return nil
}

// ── Mock TalentAssignmentRepository ──

type mockTalentAssignmentRepo struct {
	rows   []model.TalentDailyAssignment
	nextID int

	// 模拟 Preload 的数据来源，可缺省
	talents *mockTalentRepo
	team    *mockTeamRepo
}

// hydrate 模拟 gorm Preload：按 ID 回填关联对象
func (m *mockTalentAssignmentRepo) hydrate(r model.TalentDailyAssignment) model.TalentDailyAssignment {
	if m.talents != nil {
		if t, ok := m.talents.talents[r.TalentID]; ok {
			cp := *t
			r.Talent = &cp
		}
	}
	if m.team != nil && r.EscortID != nil {
		if e, ok := m.team.members[*r.EscortID]; ok {
			cp := *e
			r.Escort = &cp
		}
	}
	return r
}

func newMockTalentAssignmentRepo() *mockTalentAssignmentRepo {
	return &mockTalentAssignmentRepo{}
}

func (m *mockTalentAssignmentRepo) BatchCreate(_ context.Context, rows []model.TalentDailyAssignment) error {
	for i := range rows {
		if rows[i].AssignmentID == "" {
			m.nextID++
			rows[i].AssignmentID = fmt.Sprintf("ta-%d", m.nextID)
		}
		if rows[i].Version == 0 {
			rows[i].Version = 1
		}
		m.rows = append(m.rows, rows[i])
	}
	return nil
}

func (m *mockTalentAssignmentRepo) ListByProjectAndDate(_ context.Context, projectID string, date time.Time) ([]model.TalentDailyAssignment, error) {
	var result []model.TalentDailyAssignment
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) {
			result = append(result, m.hydrate(r))
		}
	}
	return result, nil
}

func (m *mockTalentAssignmentRepo) ListByProject(_ context.Context, projectID string) ([]model.TalentDailyAssignment, error) {
	var result []model.TalentDailyAssignment
	for _, r := range m.rows {
		if r.ProjectID == projectID {
			result = append(result, m.hydrate(r))
		}
	}
	return result, nil
}

func (m *mockTalentAssignmentRepo) DeleteByProjectAndDate(_ context.Context, projectID string, date time.Time) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !(r.ProjectID == projectID && r.AssignmentDate.Equal(date)) {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *mockTalentAssignmentRepo) ClearEscortsByProjectAndDate(_ context.Context, projectID string, date time.Time) error {
	seen := make(map[string]bool)
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) {
			if seen[r.TalentID] {
				continue
			}
			seen[r.TalentID] = true
			r.EscortID = nil
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return nil
}

func (m *mockTalentAssignmentRepo) ListDatesByTalent(_ context.Context, projectID, talentID string) ([]string, error) {
	seen := make(map[string]bool)
	var dates []string
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.TalentID == talentID {
			d := r.AssignmentDate.Format(model.DateLayout)
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Strings(dates)
	return dates, nil
}

func (m *mockTalentAssignmentRepo) ListByTalent(_ context.Context, projectID, talentID string) ([]model.TalentDailyAssignment, error) {
	var result []model.TalentDailyAssignment
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.TalentID == talentID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockTalentAssignmentRepo) DeleteByTalentAndDates(_ context.Context, projectID, talentID string, dates []time.Time) error {
	drop := func(d time.Time) bool {
		for _, x := range dates {
			if x.Equal(d) {
				return true
			}
		}
		return false
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.TalentID == talentID && drop(r.AssignmentDate) {
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return nil
}

func (m *mockTalentAssignmentRepo) ListScheduledTalentIDs(_ context.Context, projectID string, date time.Time) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) {
			out[r.TalentID] = true
		}
	}
	return out, nil
}

func (m *mockTalentAssignmentRepo) ListEscortIDsByDate(_ context.Context, projectID string, date time.Time) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) && r.EscortID != nil {
			out[*r.EscortID] = true
		}
	}
	return out, nil
}

// ── Mock GroupAssignmentRepository ──

type mockGroupAssignmentRepo struct {
	rows   []model.GroupDailyAssignment
	nextID int

	groups *mockGroupRepo
	team   *mockTeamRepo
}

func (m *mockGroupAssignmentRepo) hydrate(r model.GroupDailyAssignment) model.GroupDailyAssignment {
	if m.groups != nil {
		if g, ok := m.groups.groups[r.GroupID]; ok {
			cp := *g
			r.Group = &cp
		}
	}
	if m.team != nil && r.EscortID != nil {
		if e, ok := m.team.members[*r.EscortID]; ok {
			cp := *e
			r.Escort = &cp
		}
	}
	return r
}

func newMockGroupAssignmentRepo() *mockGroupAssignmentRepo {
	return &mockGroupAssignmentRepo{}
}

func (m *mockGroupAssignmentRepo) BatchCreate(_ context.Context, rows []model.GroupDailyAssignment) error {
	for i := range rows {
		if rows[i].AssignmentID == "" {
			m.nextID++
			rows[i].AssignmentID = fmt.Sprintf("ga-%d", m.nextID)
		}
		if rows[i].Version == 0 {
			rows[i].Version = 1
		}
		m.rows = append(m.rows, rows[i])
	}
	return nil
}

func (m *mockGroupAssignmentRepo) ListByProjectAndDate(_ context.Context, projectID string, date time.Time) ([]model.GroupDailyAssignment, error) {
	var result []model.GroupDailyAssignment
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) {
			result = append(result, m.hydrate(r))
		}
	}
	return result, nil
}

func (m *mockGroupAssignmentRepo) ListByProject(_ context.Context, projectID string) ([]model.GroupDailyAssignment, error) {
	var result []model.GroupDailyAssignment
	for _, r := range m.rows {
		if r.ProjectID == projectID {
			result = append(result, m.hydrate(r))
		}
	}
	return result, nil
}

func (m *mockGroupAssignmentRepo) DeleteByProjectAndDate(_ context.Context, projectID string, date time.Time) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !(r.ProjectID == projectID && r.AssignmentDate.Equal(date)) {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *mockGroupAssignmentRepo) ClearEscortsByProjectAndDate(_ context.Context, projectID string, date time.Time) error {
	seen := make(map[string]bool)
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) {
			if seen[r.GroupID] {
				continue
			}
			seen[r.GroupID] = true
			r.EscortID = nil
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return nil
}

func (m *mockGroupAssignmentRepo) ListDatesByGroup(_ context.Context, projectID, groupID string) ([]string, error) {
	seen := make(map[string]bool)
	var dates []string
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.GroupID == groupID {
			d := r.AssignmentDate.Format(model.DateLayout)
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Strings(dates)
	return dates, nil
}

func (m *mockGroupAssignmentRepo) ListByGroup(_ context.Context, projectID, groupID string) ([]model.GroupDailyAssignment, error) {
	var result []model.GroupDailyAssignment
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.GroupID == groupID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockGroupAssignmentRepo) DeleteByGroupAndDates(_ context.Context, projectID, groupID string, dates []time.Time) error {
	drop := func(d time.Time) bool {
		for _, x := range dates {
			if x.Equal(d) {
				return true
			}
		}
		return false
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.GroupID == groupID && drop(r.AssignmentDate) {
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return nil
}

func (m *mockGroupAssignmentRepo) DeleteByGroup(_ context.Context, projectID, groupID string) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !(r.ProjectID == projectID && r.GroupID == groupID) {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *mockGroupAssignmentRepo) ListScheduledGroupIDs(_ context.Context, projectID string, date time.Time) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) {
			out[r.GroupID] = true
		}
	}
	return out, nil
}

func (m *mockGroupAssignmentRepo) ListEscortIDsByDate(_ context.Context, projectID string, date time.Time) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.AssignmentDate.Equal(date) && r.EscortID != nil {
			out[*r.EscortID] = true
		}
	}
	return out, nil
}
