package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/service"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/response"
)

// ScheduleHandler 排期模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// SetTalentSchedule 设置艺人排期日期
// PUT /api/v1/projects/:id/talents/:talentId/schedule
func (h *ScheduleHandler) SetTalentSchedule(c *gin.Context) {
	projectID := c.Param("id")
	talentID := c.Param("talentId")

	var req dto.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, pkgerrors.CodeValidationError, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.SetTalentSchedule(c.Request.Context(), projectID, talentID, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// GetTalentSchedule 查询艺人排期日期
// GET /api/v1/projects/:id/talents/:talentId/schedule
func (h *ScheduleHandler) GetTalentSchedule(c *gin.Context) {
	projectID := c.Param("id")
	talentID := c.Param("talentId")

	result, err := h.scheduleSvc.GetTalentSchedule(c.Request.Context(), projectID, talentID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// SetGroupSchedule 设置组合排期日期
// PUT /api/v1/projects/:id/groups/:groupId/schedule
func (h *ScheduleHandler) SetGroupSchedule(c *gin.Context) {
	projectID := c.Param("id")
	groupID := c.Param("groupId")

	var req dto.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, pkgerrors.CodeValidationError, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.SetGroupSchedule(c.Request.Context(), projectID, groupID, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// GetGroupSchedule 查询组合排期日期
// GET /api/v1/projects/:id/groups/:groupId/schedule
func (h *ScheduleHandler) GetGroupSchedule(c *gin.Context) {
	projectID := c.Param("id")
	groupID := c.Param("groupId")

	result, err := h.scheduleSvc.GetGroupSchedule(c.Request.Context(), projectID, groupID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}
