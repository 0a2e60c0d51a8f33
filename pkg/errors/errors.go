package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// Code 错误分类码（固定枚举，详见错误设计文档）
type Code string

const (
	CodeInvalidDateFormat   Code = "INVALID_DATE_FORMAT"
	CodeValidationError     Code = "VALIDATION_ERROR"
	CodeDateOutOfRange      Code = "DATE_OUT_OF_RANGE"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeProjectNotFound     Code = "PROJECT_NOT_FOUND"
	CodeSubjectNotFound     Code = "SUBJECT_NOT_FOUND"
	CodeEscortDoubleBooking Code = "ESCORT_DOUBLE_BOOKING"
	CodeDuplicateGroupName  Code = "DUPLICATE_GROUP_NAME"
	CodeMaxEscortsExceeded  Code = "MAX_ESCORTS_EXCEEDED"
	CodeDatabaseError       Code = "DATABASE_ERROR"
	CodeInternalError       Code = "INTERNAL_ERROR"
	CodeNetworkError        Code = "NETWORK_ERROR"

	// 并发修改冲突（悲观日锁占用或乐观锁版本过期）
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
)

// Severity 错误严重级别
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// 分类码 → 是否可重试
var retryable = map[Code]bool{
	CodeDatabaseError:          true,
	CodeInternalError:          true,
	CodeNetworkError:           true,
	CodeConcurrentModification: true,
}

// 分类码 → 默认严重级别
var severities = map[Code]Severity{
	CodeInvalidDateFormat:   SeverityLow,
	CodeValidationError:     SeverityLow,
	CodeDateOutOfRange:      SeverityLow,
	CodeUnauthorized:        SeverityMedium,
	CodeProjectNotFound:     SeverityMedium,
	CodeSubjectNotFound:     SeverityMedium,
	CodeEscortDoubleBooking: SeverityMedium,
	CodeDuplicateGroupName:  SeverityMedium,
	CodeMaxEscortsExceeded:  SeverityHigh,
	CodeDatabaseError:       SeverityCritical,
	CodeInternalError:       SeverityCritical,
	CodeNetworkError:        SeverityCritical,

	CodeConcurrentModification: SeverityMedium,
}

// 分类码 → HTTP 状态码
var httpStatuses = map[Code]int{
	CodeInvalidDateFormat:   http.StatusBadRequest,
	CodeValidationError:     http.StatusBadRequest,
	CodeDateOutOfRange:      http.StatusBadRequest,
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeProjectNotFound:     http.StatusNotFound,
	CodeSubjectNotFound:     http.StatusNotFound,
	CodeEscortDoubleBooking: http.StatusConflict,
	CodeDuplicateGroupName:  http.StatusConflict,
	CodeMaxEscortsExceeded:  http.StatusBadRequest,
	CodeDatabaseError:       http.StatusInternalServerError,
	CodeInternalError:       http.StatusInternalServerError,
	CodeNetworkError:        http.StatusBadGateway,

	CodeConcurrentModification: http.StatusConflict,
}

// Error 带分类码的业务错误
// 每个分类码通过专用构造函数创建，保证必填字段齐全
type Error struct {
	Code      Code                   `json:"code"`
	Message   string                 `json:"message"`
	Field     string                 `json:"field,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 返回底层原因（数据库/网络错误携带）
func (e *Error) Unwrap() error { return e.cause }

// Retryable 该错误是否允许重试
func (e *Error) Retryable() bool { return retryable[e.Code] }

// Severity 该错误的默认严重级别
func (e *Error) Severity() Severity {
	if s, ok := severities[e.Code]; ok {
		return s
	}
	return SeverityMedium
}

// HTTPStatus 该错误对应的 HTTP 状态码
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatuses[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AsError 从 error 链中提取 *Error
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Timestamp: time.Now()}
}

// ── 分类码专用构造函数 ──

// NewInvalidDateFormat 日期字符串无法解析
func NewInvalidDateFormat(field, value string) *Error {
	e := newError(CodeInvalidDateFormat, fmt.Sprintf("日期格式无效: %q", value))
	e.Field = field
	return e
}

// NewValidationError 字段级校验失败
func NewValidationError(field, message string) *Error {
	e := newError(CodeValidationError, message)
	e.Field = field
	return e
}

// NewDateOutOfRange 日期超出项目档期窗口
func NewDateOutOfRange(date, start, end string) *Error {
	e := newError(CodeDateOutOfRange, fmt.Sprintf("日期 %s 不在项目档期 [%s, %s] 内", date, start, end))
	e.Details = map[string]interface{}{"date": date, "start_date": start, "end_date": end}
	return e
}

// NewUnauthorized 未认证或 Token 无效
func NewUnauthorized(message string) *Error {
	return newError(CodeUnauthorized, message)
}

// NewProjectNotFound 项目不存在
func NewProjectNotFound(projectID string) *Error {
	e := newError(CodeProjectNotFound, "项目不存在")
	e.Details = map[string]interface{}{"project_id": projectID}
	return e
}

// NewSubjectNotFound 艺人/组合不存在或不属于该项目
func NewSubjectNotFound(kind, id string) *Error {
	e := newError(CodeSubjectNotFound, fmt.Sprintf("指派对象不存在: %s", kind))
	e.Details = map[string]interface{}{"subject_kind": kind, "subject_id": id}
	return e
}

// NewEscortDoubleBooking 随行人员同日被指派给多个对象
func NewEscortDoubleBooking(escortID, date string) *Error {
	e := newError(CodeEscortDoubleBooking, "随行人员同一天不能被指派给多个对象")
	e.Details = map[string]interface{}{"escort_id": escortID, "date": date}
	return e
}

// NewDuplicateGroupName 组合名称在项目内重复（不区分大小写）
func NewDuplicateGroupName(name string) *Error {
	e := newError(CodeDuplicateGroupName, fmt.Sprintf("组合名称已存在: %s", name))
	e.Details = map[string]interface{}{"name": name}
	return e
}

// NewMaxEscortsExceeded 单个对象的随行人数超出上限
func NewMaxEscortsExceeded(subjectKind string, limit int) *Error {
	e := newError(CodeMaxEscortsExceeded, fmt.Sprintf("随行人数超出上限（%s 最多 %d 人）", subjectKind, limit))
	e.Details = map[string]interface{}{"subject_kind": subjectKind, "limit": limit}
	return e
}

// NewDatabaseError 数据库操作失败
func NewDatabaseError(op string, cause error) *Error {
	e := newError(CodeDatabaseError, fmt.Sprintf("数据库操作失败: %s", op))
	e.Details = map[string]interface{}{"operation": op}
	e.cause = cause
	return e
}

// NewInternalError 未分类的内部错误
func NewInternalError(cause error) *Error {
	e := newError(CodeInternalError, "服务器内部错误")
	e.cause = cause
	return e
}

// NewNetworkError 网络传输失败或超时（客户端侧）
func NewNetworkError(message string, attempts int) *Error {
	e := newError(CodeNetworkError, message)
	e.Details = map[string]interface{}{"attempts": attempts}
	return e
}

// NewConcurrentModification 并发修改冲突，稍后重试即可
func NewConcurrentModification(resource string, cause error) *Error {
	e := newError(CodeConcurrentModification, fmt.Sprintf("%s 正在被其他操作修改，请稍后重试", resource))
	e.cause = cause
	return e
}

// FromCode 按分类码还原错误（客户端解析响应信封时使用）
// 未知分类码归入 INTERNAL_ERROR，不丢失原始信息
func FromCode(code Code, message string) *Error {
	if _, known := severities[code]; !known {
		e := newError(CodeInternalError, message)
		e.Details = map[string]interface{}{"original_code": string(code)}
		return e
	}
	return newError(code, message)
}
