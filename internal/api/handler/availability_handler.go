package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/dto"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/service"
	pkgerrors "github.com/nicopkrauss/Talenttracker2-sub022/pkg/errors"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/response"
)

// AvailabilityHandler 随行可用日期 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// SetAvailability 整体覆盖成员的可用日期
// PUT /api/v1/projects/:id/availability
func (h *AvailabilityHandler) SetAvailability(c *gin.Context) {
	projectID := c.Param("id")

	var req dto.AvailabilitySubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, pkgerrors.CodeValidationError, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.availabilitySvc.SetAvailability(c.Request.Context(), projectID, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// GetAvailability 查询成员可用日期（未提交过返回空集合）
// GET /api/v1/projects/:id/availability/:memberId
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	result, err := h.availabilitySvc.GetAvailability(c.Request.Context(), c.Param("id"), c.Param("memberId"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportICS 从日历文件导入可用日期（multipart 字段 file，或直接以请求体上传）
// POST /api/v1/projects/:id/availability/:memberId/import-ics
func (h *AvailabilityHandler) ImportICS(c *gin.Context) {
	projectID := c.Param("id")
	memberID := c.Param("memberId")

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reader := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			response.BadRequest(c, pkgerrors.CodeValidationError, "日历文件无法读取")
			return
		}
		defer f.Close()
		reader = f
	}

	result, err := h.availabilitySvc.ImportICS(c.Request.Context(), projectID, memberID, reader, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}
