// Package oplog 提供指派操作的有界内存日志环。
// 记录指派尝试/成功/失败、校验拒绝、乐观锁与回滚等事件，
// 供运维接口查询最近历史与错误汇总；容量满后淘汰最旧事件。
package oplog

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// 事件级别
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// 事件类型
const (
	KindAssignmentAttempt  = "assignment_attempt"
	KindAssignmentSuccess  = "assignment_success"
	KindAssignmentFailure  = "assignment_failure"
	KindValidationFailure  = "validation_failure"
	KindOptimisticUpdate   = "optimistic_update"
	KindOptimisticConflict = "optimistic_conflict"
	KindRollback           = "rollback"
	KindAvailabilityCheck  = "availability_check"
	KindConsistencyCheck   = "consistency_check"
)

// DefaultCapacity 未配置时的日志环容量
const DefaultCapacity = 1000

// Event 单条操作日志事件
type Event struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       string                 `json:"level"`
	Kind        string                 `json:"kind"`
	ProjectID   string                 `json:"project_id,omitempty"`
	Date        string                 `json:"date,omitempty"`
	SubjectKind string                 `json:"subject_kind,omitempty"`
	SubjectID   string                 `json:"subject_id,omitempty"`
	EscortID    string                 `json:"escort_id,omitempty"`
	ErrorCode   string                 `json:"error_code,omitempty"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Logger 有界操作日志环，并发安全。
// 事件同时镜像到结构化日志，环只服务于进程内查询。
type Logger struct {
	mu       sync.RWMutex
	events   []Event
	next     int
	size     int
	capacity int
	log      *zap.Logger
}

// New 创建日志环；capacity <= 0 时使用 DefaultCapacity
func New(capacity int, log *zap.Logger) *Logger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{
		events:   make([]Event, capacity),
		capacity: capacity,
		log:      log,
	}
}

// Capacity 返回环容量
func (l *Logger) Capacity() int { return l.capacity }

// Len 返回当前保留的事件数
func (l *Logger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Record 写入一条事件，容量满时覆盖最旧事件
func (l *Logger) Record(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.Level == "" {
		ev.Level = LevelInfo
	}

	l.mu.Lock()
	l.events[l.next] = ev
	l.next = (l.next + 1) % l.capacity
	if l.size < l.capacity {
		l.size++
	}
	l.mu.Unlock()

	fields := []zap.Field{
		zap.String("kind", ev.Kind),
		zap.String("project_id", ev.ProjectID),
		zap.String("date", ev.Date),
	}
	if ev.SubjectID != "" {
		fields = append(fields, zap.String("subject_kind", ev.SubjectKind), zap.String("subject_id", ev.SubjectID))
	}
	if ev.EscortID != "" {
		fields = append(fields, zap.String("escort_id", ev.EscortID))
	}
	if ev.ErrorCode != "" {
		fields = append(fields, zap.String("error_code", ev.ErrorCode))
	}
	switch ev.Level {
	case LevelError:
		l.log.Error(ev.Message, fields...)
	case LevelWarn:
		l.log.Warn(ev.Message, fields...)
	default:
		l.log.Info(ev.Message, fields...)
	}
}

// ── 业务记录入口 ──

// AssignmentAttempt 记录一次整日指派尝试
func (l *Logger) AssignmentAttempt(projectID, date string, talentCount, groupCount int) {
	l.Record(Event{
		Level: LevelInfo, Kind: KindAssignmentAttempt,
		ProjectID: projectID, Date: date,
		Message: "收到整日指派请求",
		Details: map[string]interface{}{"talent_count": talentCount, "group_count": groupCount},
	})
}

// AssignmentSuccess 记录整日指派写入成功
func (l *Logger) AssignmentSuccess(projectID, date string, rowCount int) {
	l.Record(Event{
		Level: LevelInfo, Kind: KindAssignmentSuccess,
		ProjectID: projectID, Date: date,
		Message: "整日指派写入成功",
		Details: map[string]interface{}{"row_count": rowCount},
	})
}

// AssignmentFailure 记录整日指派失败及错误码
func (l *Logger) AssignmentFailure(projectID, date, errorCode, message string) {
	l.Record(Event{
		Level: LevelError, Kind: KindAssignmentFailure,
		ProjectID: projectID, Date: date, ErrorCode: errorCode,
		Message: message,
	})
}

// ValidationFailure 记录校验拒绝（字段级详情进 Details）
func (l *Logger) ValidationFailure(projectID, date, errorCode string, fieldErrors interface{}) {
	l.Record(Event{
		Level: LevelWarn, Kind: KindValidationFailure,
		ProjectID: projectID, Date: date, ErrorCode: errorCode,
		Message: "请求未通过校验",
		Details: map[string]interface{}{"field_errors": fieldErrors},
	})
}

// OptimisticUpdate 记录一次带版本校验的更新成功及更新后的版本号
func (l *Logger) OptimisticUpdate(projectID, subjectKind, subjectID string, version int) {
	l.Record(Event{
		Level: LevelInfo, Kind: KindOptimisticUpdate,
		ProjectID: projectID, SubjectKind: subjectKind, SubjectID: subjectID,
		Message: "带版本校验的更新成功",
		Details: map[string]interface{}{"version": version},
	})
}

// OptimisticConflict 记录乐观锁冲突
func (l *Logger) OptimisticConflict(projectID, subjectKind, subjectID string) {
	l.Record(Event{
		Level: LevelWarn, Kind: KindOptimisticConflict,
		ProjectID: projectID, SubjectKind: subjectKind, SubjectID: subjectID,
		Message: "乐观锁版本冲突，更新被放弃",
	})
}

// Rollback 记录事务回滚
func (l *Logger) Rollback(projectID, date, reason string) {
	l.Record(Event{
		Level: LevelError, Kind: KindRollback,
		ProjectID: projectID, Date: date,
		Message: "整日指派事务回滚: " + reason,
	})
}

// AvailabilityCheck 记录随行可用性判定结果
func (l *Logger) AvailabilityCheck(projectID, date, escortID string, available bool) {
	level := LevelInfo
	msg := "随行当日可用"
	if !available {
		level = LevelWarn
		msg = "随行当日不可用"
	}
	l.Record(Event{
		Level: level, Kind: KindAvailabilityCheck,
		ProjectID: projectID, Date: date, EscortID: escortID,
		Message: msg,
	})
}

// ConsistencyCheck 记录排期一致性判定结果
func (l *Logger) ConsistencyCheck(projectID, date, subjectKind, subjectID string, scheduled bool) {
	level := LevelInfo
	msg := "对象当日已排期"
	if !scheduled {
		level = LevelWarn
		msg = "对象当日未排期"
	}
	l.Record(Event{
		Level: level, Kind: KindConsistencyCheck,
		ProjectID: projectID, Date: date, SubjectKind: subjectKind, SubjectID: subjectID,
		Message: msg,
	})
}

// ── 查询 ──

// snapshot 按时间先后返回当前全部事件（最旧在前）
func (l *Logger) snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, l.size)
	if l.size < l.capacity {
		out = append(out, l.events[:l.size]...)
		return out
	}
	out = append(out, l.events[l.next:]...)
	out = append(out, l.events[:l.next]...)
	return out
}

// Recent 返回最近 n 条事件（最新在前）
func (l *Logger) Recent(n int) []Event {
	all := l.snapshot()
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]Event, 0, n)
	for i := len(all) - 1; i >= len(all)-n; i-- {
		out = append(out, all[i])
	}
	return out
}

// HistoryFilter 历史查询过滤条件；零值字段不过滤
type HistoryFilter struct {
	ProjectID string
	SubjectID string
	EscortID  string
	Since     time.Time
}

// History 按条件返回指派相关事件（最新在前）
func (l *Logger) History(f HistoryFilter) []Event {
	all := l.snapshot()
	var out []Event
	for i := len(all) - 1; i >= 0; i-- {
		ev := all[i]
		if !f.Since.IsZero() && ev.Timestamp.Before(f.Since) {
			continue
		}
		if f.ProjectID != "" && ev.ProjectID != f.ProjectID {
			continue
		}
		if f.SubjectID != "" && ev.SubjectID != f.SubjectID {
			continue
		}
		if f.EscortID != "" && ev.EscortID != f.EscortID {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// DefaultRecentErrors 错误汇总默认返回的最近错误文案条数
const DefaultRecentErrors = 10

// ErrorSummaryResult 错误汇总：总数、按操作与错误码的分布、最近错误文案
type ErrorSummaryResult struct {
	Total          int            `json:"total"`
	ByOperation    map[string]int `json:"by_operation"`
	ByCode         map[string]int `json:"by_code"`
	RecentMessages []string       `json:"recent_messages"`
}

// ErrorSummary 汇总窗口内携带错误码的事件。
// 按操作类型与错误码分别计数；recentN <= 0 时最近文案取 DefaultRecentErrors 条（最新在前）。
func (l *Logger) ErrorSummary(projectID string, since time.Time, recentN int) ErrorSummaryResult {
	if recentN <= 0 {
		recentN = DefaultRecentErrors
	}
	out := ErrorSummaryResult{
		ByOperation:    make(map[string]int),
		ByCode:         make(map[string]int),
		RecentMessages: []string{},
	}
	var messages []string
	for _, ev := range l.snapshot() {
		if ev.ErrorCode == "" {
			continue
		}
		if projectID != "" && ev.ProjectID != projectID {
			continue
		}
		if !since.IsZero() && ev.Timestamp.Before(since) {
			continue
		}
		out.Total++
		out.ByOperation[ev.Kind]++
		out.ByCode[ev.ErrorCode]++
		messages = append(messages, ev.Message)
	}
	for i := len(messages) - 1; i >= 0 && len(out.RecentMessages) < recentN; i-- {
		out.RecentMessages = append(out.RecentMessages, messages[i])
	}
	return out
}
