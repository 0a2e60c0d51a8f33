package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/service"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/response"
)

// GroupHandler 组合模块 HTTP 处理器
type GroupHandler struct {
	groupSvc service.GroupService
}

// NewGroupHandler 创建 GroupHandler
func NewGroupHandler(groupSvc service.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// CreateGroup 创建组合
// POST /api/v1/projects/:id/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	projectID := c.Param("id")

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, pkgerrors.CodeValidationError, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.groupSvc.CreateGroup(c.Request.Context(), projectID, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// GetGroup 查询组合
// GET /api/v1/projects/:id/groups/:groupId
func (h *GroupHandler) GetGroup(c *gin.Context) {
	result, err := h.groupSvc.GetGroup(c.Request.Context(), c.Param("id"), c.Param("groupId"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// ListGroups 查询项目下全部组合
// GET /api/v1/projects/:id/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	result, err := h.groupSvc.ListGroups(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": result})
}

// UpdateGroup 更新组合（零值字段不修改）
// PUT /api/v1/projects/:id/groups/:groupId
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, pkgerrors.CodeValidationError, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.groupSvc.UpdateGroup(c.Request.Context(), c.Param("id"), c.Param("groupId"), &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteGroup 删除组合（软删除，级联清除其指派行）
// DELETE /api/v1/projects/:id/groups/:groupId
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.groupSvc.DeleteGroup(c.Request.Context(), c.Param("id"), c.Param("groupId"), callerID); err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}
