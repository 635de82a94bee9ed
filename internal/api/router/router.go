package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coursemate/backend/config"
	"coursemate/backend/internal/api/handler"
	"coursemate/backend/internal/api/middleware"
	"coursemate/backend/pkg/jwt"
	"coursemate/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 教务导入（即登录，无需认证）
		v1.POST("/import", h.Import.Import)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 日程模块
			schedule := authorized.Group("/schedule")
			{
				schedule.GET("", h.Schedule.GetSchedule)
				schedule.POST("/entries", h.Schedule.AddEntry)
				schedule.DELETE("/entries/:id", h.Schedule.DeleteEntry)
				schedule.GET("/export.ics", h.Schedule.ExportICS)
			}

			// 待办模块
			todos := authorized.Group("/todos")
			{
				todos.GET("", h.Todo.ListTodos)
				todos.POST("", h.Todo.AddTodo)
				todos.PUT("/:id", h.Todo.UpdateTodo)
				todos.DELETE("/:id", h.Todo.DeleteTodo)
			}

			// AI 规划模块
			authorized.POST("/planner/suggest", h.Planner.SuggestPlan)
		}
	}

	return r
}
