package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Dev4EM/tutorDepartment/config"
	"github.com/Dev4EM/tutorDepartment/internal/api/handler"
	"github.com/Dev4EM/tutorDepartment/internal/api/middleware"
	"github.com/Dev4EM/tutorDepartment/internal/dto"
	"github.com/Dev4EM/tutorDepartment/pkg/jwt"
	"github.com/Dev4EM/tutorDepartment/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流与 Token 黑名单降级关闭；db 为 nil 时健康检查不探测数据库
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	// 自定义校验标签注册到 Gin 绑定引擎
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidations(v); err != nil {
			return nil, err
		}
	}

	// 避免将 nil 指针装入接口
	var (
		limiter   middleware.RateLimiter
		blacklist middleware.TokenBlacklist
	)
	if rdb != nil {
		limiter, blacklist = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, blacklist))
	v1.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))
	{
		// 任务时间线模块
		schedules := v1.Group("/schedules")
		{
			schedules.POST("", h.Schedule.CreateSchedule)
			schedules.GET("", h.Schedule.ListSchedules)
			schedules.GET("/user/:userId", h.Schedule.ListUserSchedules)
			schedules.GET("/:id", h.Schedule.GetSchedule)
			schedules.PUT("/:id", h.Schedule.UpdateSchedule)
			schedules.PUT("/:id/range", h.Schedule.ResizeSchedule)
			schedules.PATCH("/:id/status", h.Schedule.SetDateStatus)
			schedules.DELETE("/:id", h.Schedule.DeleteSchedule)

			// 导出
			schedules.GET("/export/xlsx", h.Export.ExportTimeline)
			schedules.GET("/export/ics", h.Export.ExportICS)
		}
	}

	return r, nil
}
