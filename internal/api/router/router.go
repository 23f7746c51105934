package router

import (
	"net/http"

	"github.com/fisker/fleetops-backend/internal/api/handler"
	"github.com/fisker/fleetops-backend/internal/api/middleware"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	authHandler *handler.AuthHandler,
	requestHandler *handler.RequestHandler,
	approvalHandler *handler.ApprovalHandler,
	reservationHandler *handler.ReservationHandler,
	issuanceHandler *handler.IssuanceHandler,
	stockHandler *handler.StockHandler,
	limitHandler *handler.LimitHandler,
	authService *service.AuthService,
	mode string,
) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()

	// 使用自定义的 recovery 中间件（打印详细错误信息）
	r.Use(middleware.RecoveryMiddleware())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())
	r.Use(middleware.MetricsMiddleware())

	// 健康检查与指标
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// 认证接口（无需登录）
	api.POST("/auth/login", authHandler.Login)

	// 以下接口需要登录
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authService))

	authed.GET("/auth/me", authHandler.GetCurrentUser)

	// 备件申请
	requests := authed.Group("/spare-part-requests")
	{
		requests.POST("", requestHandler.Create)
		requests.GET("", requestHandler.List)
		requests.GET("/:id", requestHandler.Get)
		requests.POST("/:id/cancel", requestHandler.Cancel)

		// 审批
		requests.POST("/:id/decision", approvalHandler.Decide)
		requests.GET("/:id/approvals", approvalHandler.History)

		// 预留、出库与安装（库管/技术员操作）
		requests.POST("/:id/reserve",
			middleware.RequireRoles("storekeeper", "supervisor", "manager"), reservationHandler.Reserve)
		requests.POST("/:id/issue",
			middleware.RequireRoles("storekeeper"), issuanceHandler.Issue)
		requests.POST("/:id/install",
			middleware.RequireRoles("technician", "storekeeper"), issuanceHandler.Install)
		requests.GET("/:id/installed", issuanceHandler.GetInstalled)
	}

	// 库存预留
	reservations := authed.Group("/reservations")
	{
		reservations.GET("", reservationHandler.List)
		reservations.GET("/:id", reservationHandler.Get)
		reservations.POST("/:id/release",
			middleware.RequireRoles("storekeeper", "supervisor", "manager"), reservationHandler.Release)
	}

	// 门店库存
	stocks := authed.Group("/stocks")
	{
		stocks.GET("", stockHandler.List)
		stocks.GET("/:partId/:storeId", stockHandler.Get)
		stocks.POST("/adjust", middleware.RequireRoles("storekeeper"), stockHandler.Adjust)
	}

	// 技术员限额
	limits := authed.Group("/limits")
	{
		limits.POST("/check", limitHandler.Check)
		limits.GET("", limitHandler.List)
		limits.GET("/:id", limitHandler.Get)

		// 限额策略管理需要 limits/manage 授权
		admin := limits.Group("")
		admin.Use(middleware.LimitAdminMiddleware())
		{
			admin.POST("", limitHandler.Create)
			admin.PUT("/:id", limitHandler.Update)
			admin.DELETE("/:id", limitHandler.Deactivate)
		}
	}

	return r
}
