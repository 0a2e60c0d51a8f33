package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nicopkrauss/Talenttracker2-sub022/config"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/api/handler"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/api/middleware"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/jwt"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/redis"
)

const (
	maxBodyBytes    = 2 << 20 // ICS 上传是最大的请求体
	rateLimitPerMin = 120
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.RateLimit(rdb, rateLimitPerMin, time.Minute))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		projects := v1.Group("/projects/:id")
		{
			// 指派模块：整日替换仅限排班负责角色
			days := projects.Group("/assignments/days/:date")
			{
				days.POST("", middleware.RoleAuth("admin", "coordinator"), h.Assignment.ReplaceDay)
				days.PUT("", middleware.RoleAuth("admin", "coordinator"), h.Assignment.ReplaceDay)
				days.DELETE("", middleware.RoleAuth("admin", "coordinator"), h.Assignment.ClearDay)
				days.GET("", h.Assignment.GetDay)
				days.POST("/validate", h.Assignment.CheckDay)
			}
			projects.GET("/assignments/export", h.Export.ExportAssignments)

			// 排期模块
			projects.PUT("/talents/:talentId/schedule", middleware.RoleAuth("admin", "coordinator"), h.Schedule.SetTalentSchedule)
			projects.GET("/talents/:talentId/schedule", h.Schedule.GetTalentSchedule)
			projects.PUT("/groups/:groupId/schedule", middleware.RoleAuth("admin", "coordinator"), h.Schedule.SetGroupSchedule)
			projects.GET("/groups/:groupId/schedule", h.Schedule.GetGroupSchedule)

			// 组合模块
			projects.POST("/groups", middleware.RoleAuth("admin", "coordinator"), h.Group.CreateGroup)
			projects.GET("/groups", h.Group.ListGroups)
			projects.GET("/groups/:groupId", h.Group.GetGroup)
			projects.PUT("/groups/:groupId", middleware.RoleAuth("admin", "coordinator"), h.Group.UpdateGroup)
			projects.DELETE("/groups/:groupId", middleware.RoleAuth("admin"), h.Group.DeleteGroup)

			// 随行可用日期
			projects.PUT("/availability", h.Availability.SetAvailability)
			projects.GET("/availability/:memberId", h.Availability.GetAvailability)
			projects.POST("/availability/:memberId/import-ics", h.Availability.ImportICS)
		}

		// 运维诊断
		ops := v1.Group("/ops", middleware.RoleAuth("admin"))
		{
			ops.GET("/assignment-history", h.Ops.AssignmentHistory)
			ops.GET("/error-summary", h.Ops.ErrorSummary)
		}
	}

	return r
}
