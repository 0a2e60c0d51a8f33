package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/service"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/response"
)

// AssignmentHandler 指派模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// ReplaceDay 整体替换某日全部指派
// PUT /api/v1/projects/:id/assignments/days/:date
func (h *AssignmentHandler) ReplaceDay(c *gin.Context) {
	projectID := c.Param("id")
	date := c.Param("date")

	var req dto.ReplaceDayAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, pkgerrors.CodeValidationError, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.ReplaceDayAssignments(c.Request.Context(), projectID, date, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// ClearDay 摘除某日全部随行，保留排期
// DELETE /api/v1/projects/:id/assignments/days/:date
func (h *AssignmentHandler) ClearDay(c *gin.Context) {
	projectID := c.Param("id")
	date := c.Param("date")

	if err := h.assignmentSvc.ClearDayAssignments(c.Request.Context(), projectID, date); err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, gin.H{"cleared": true})
}

// GetDay 查询某日全部指派
// GET /api/v1/projects/:id/assignments/days/:date
func (h *AssignmentHandler) GetDay(c *gin.Context) {
	projectID := c.Param("id")
	date := c.Param("date")

	result, err := h.assignmentSvc.GetDayAssignments(c.Request.Context(), projectID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// CheckDay 只读冲突预检，不写入
// POST /api/v1/projects/:id/assignments/days/:date/validate
func (h *AssignmentHandler) CheckDay(c *gin.Context) {
	projectID := c.Param("id")
	date := c.Param("date")

	var req dto.ReplaceDayAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, pkgerrors.CodeValidationError, "参数校验失败")
		return
	}

	result, err := h.assignmentSvc.CheckDayAssignments(c.Request.Context(), projectID, date, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}
