package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/oplog"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/service"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Assignment   *AssignmentHandler
	Schedule     *ScheduleHandler
	Group        *GroupHandler
	Availability *AvailabilityHandler
	Export       *ExportHandler
	Ops          *OpsHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, ops *oplog.Logger) *Handler {
	return &Handler{
		Assignment:   NewAssignmentHandler(svc.Assignment),
		Schedule:     NewScheduleHandler(svc.Schedule),
		Group:        NewGroupHandler(svc.Group),
		Availability: NewAvailabilityHandler(svc.Availability),
		Export:       NewExportHandler(svc.Export),
		Ops:          NewOpsHandler(ops),
	}
}

// writeError 业务错误统一出口：分类错误按自带状态码输出，其余一律 500
func writeError(c *gin.Context, err error) {
	if appErr, ok := pkgerrors.AsError(err); ok {
		response.WriteAppError(c, appErr)
		return
	}
	c.Error(err) // 交给日志中间件
	response.InternalError(c)
}
