package router

import (
	"TeamPulse/internal/handler"
	"TeamPulse/internal/middleware"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func InitRouter(db *gorm.DB, engine *service.Engine, issuer *pkg.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	health := handler.NewHealthHandler(db)
	ops := handler.NewOpsHandler(engine)

	r.GET("/healthz", health.Health)

	// 运维接口，仅管理员
	opsGroup := r.Group("/api/ops")
	opsGroup.Use(middleware.AuthMiddleware(issuer, engine.Users))
	{
		opsGroup.GET("/stats", ops.Stats)
		opsGroup.GET("/leaderboard", ops.Leaderboard)
		opsGroup.GET("/search", ops.Search)
		opsGroup.GET("/polls/:id", ops.PollResults)
		opsGroup.GET("/standups/missing", ops.MissingStandups)
		opsGroup.POST("/tasks/sweep", ops.SweepOverdue)
	}

	return r
}
