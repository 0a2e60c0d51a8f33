package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/oplog"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/response"
)

// 历史查询默认回看窗口
const defaultHistoryWindow = 24 * time.Hour

// OpsHandler 指派操作日志诊断接口
// 数据来自进程内环形缓冲区，仅用于排障，不是权威审计记录
type OpsHandler struct {
	ops *oplog.Logger
}

// NewOpsHandler 创建 OpsHandler
func NewOpsHandler(ops *oplog.Logger) *OpsHandler {
	return &OpsHandler{ops: ops}
}

// AssignmentHistory 查询指派操作历史（最新在前）
// GET /api/v1/ops/assignment-history?project_id=&subject_id=&escort_id=&hours=24
func (h *OpsHandler) AssignmentHistory(c *gin.Context) {
	hours := int64(0)
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			response.BadRequest(c, pkgerrors.CodeValidationError, "hours 必须为正整数")
			return
		}
		hours = n
	}
	window := defaultHistoryWindow
	if hours > 0 {
		window = time.Duration(hours) * time.Hour
	}

	events := h.ops.History(oplog.HistoryFilter{
		ProjectID: c.Query("project_id"),
		SubjectID: c.Query("subject_id"),
		EscortID:  c.Query("escort_id"),
		Since:     time.Now().Add(-window),
	})

	response.OK(c, gin.H{"list": events, "count": len(events)})
}

// ErrorSummary 汇总窗口内的错误：总数、按操作/错误码分布及最近错误文案
// GET /api/v1/ops/error-summary?project_id=&hours=24&recent=10
func (h *OpsHandler) ErrorSummary(c *gin.Context) {
	hours := int64(24)
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			response.BadRequest(c, pkgerrors.CodeValidationError, "hours 必须为正整数")
			return
		}
		hours = n
	}
	recent := 0
	if raw := c.Query("recent"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			response.BadRequest(c, pkgerrors.CodeValidationError, "recent 必须为正整数")
			return
		}
		recent = int(n)
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	response.OK(c, h.ops.ErrorSummary(c.Query("project_id"), since, recent))
}
