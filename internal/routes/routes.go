package routes

import (
	"forum/internal/bootstrap"
	"forum/internal/config"
	"forum/internal/handlers"
	"forum/internal/middleware"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// SetupRoutes 设置路由
func SetupRoutes(cfg *config.Config, ctn *bootstrap.Container) *gin.Engine {
	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.RequestIDMiddleware()) // 请求ID中间件
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CompressionMiddleware())
	r.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))
	r.Use(middleware.RateLimitMiddleware(ctn.RateLimiters.Global, "请求过于频繁，请稍后再试")) // 全局限流

	defaultPageSize := cfg.Pagination.DefaultPageSize

	// 初始化处理器
	authHandler := handlers.NewAuthHandler(ctn.Auth)
	taxonomyHandler := handlers.NewTaxonomyHandler(ctn.Tags, ctn.Categories, ctn.Types)
	problemHandler := handlers.NewProblemHandler(ctn.Problems, ctn.Users, defaultPageSize)
	commentHandler := handlers.NewCommentHandler(ctn.Comments, ctn.Problems, ctn.Users, defaultPageSize)
	dailyHandler := handlers.NewDailyProblemHandler(ctn.Daily)
	reportHandler := handlers.NewReportHandler(ctn.Reports, defaultPageSize)
	userHandler := handlers.NewUserHandler(ctn.Users, ctn.Roles)

	// 健康检查路由
	r.GET("/health", ctn.Health.Check)
	r.GET("/health/ready", ctn.Health.Ready)
	r.GET("/health/live", ctn.Health.Live)

	requireAuth := middleware.AuthMiddleware(ctn.Auth)
	requireAdmin := middleware.RequireRoles(ctn.Users, cfg.Moderation.AdminRoles...)
	requireModerator := middleware.RequireRoles(ctn.Users, cfg.Moderation.ModeratorRoles...)

	// 审核员实时推送
	r.GET("/ws/moderation", requireAuth, requireModerator, ctn.Hub.HandleWebSocket)

	// API路由组
	api := r.Group("/api")
	{
		// 用户认证相关路由（使用专门的限流）
		authLimit := middleware.RateLimitMiddleware(ctn.RateLimiters.Auth, "登录或注册过于频繁，请稍后再试")
		api.POST("/auth/register", authLimit, authHandler.Register)
		api.POST("/auth/login", authLimit, authHandler.Login)

		// 公开读接口，携带token时记录用户
		public := api.Group("")
		public.Use(middleware.OptionalAuthMiddleware(ctn.Auth))
		{
			public.GET("/tags", taxonomyHandler.ListTags)

			public.GET("/categories", taxonomyHandler.ListCategories)
			public.GET("/categories/tree", taxonomyHandler.CategoryTree)
			public.GET("/categories/:id", taxonomyHandler.GetCategory)

			public.GET("/problem-types", taxonomyHandler.ListProblemTypes)
			public.GET("/problem-types/:id", taxonomyHandler.GetProblemType)

			public.GET("/problems", problemHandler.List)
			public.GET("/problems/:id", problemHandler.Get)
			public.GET("/problems/:id/comments", commentHandler.ListByProblem)

			public.GET("/daily-problems", dailyHandler.ListRange)
			public.GET("/daily-problems/today", dailyHandler.Today)
			public.GET("/daily-problems/:day", dailyHandler.GetByDay)
		}

		// 需要认证的路由
		auth := api.Group("")
		auth.Use(requireAuth)
		{
			auth.GET("/auth/me", authHandler.Me)

			auth.POST("/tags", taxonomyHandler.CreateTag)

			auth.POST("/problems", problemHandler.Create)
			auth.PUT("/problems/:id", problemHandler.Update)
			auth.POST("/problems/:id/status", problemHandler.ChangeStatus)
			auth.PUT("/problems/:id/tags", problemHandler.AttachTags)

			auth.POST("/problems/:id/comments", commentHandler.Create)
			auth.DELETE("/comments/:id", commentHandler.Delete)
			auth.POST("/comments/:id/like", commentHandler.Like)

			auth.POST("/reports", middleware.RateLimitMiddleware(ctn.RateLimiters.Report, "举报过于频繁，请稍后再试"), reportHandler.Create)
		}

		// 审核员路由
		moderator := api.Group("")
		moderator.Use(requireAuth, requireModerator)
		{
			moderator.GET("/reports", reportHandler.List)
			moderator.GET("/reports/:id", reportHandler.Get)
			moderator.POST("/reports/:id/handle", reportHandler.Handle)
		}

		// 管理员路由
		admin := api.Group("")
		admin.Use(requireAuth, requireAdmin)
		{
			admin.POST("/categories", taxonomyHandler.CreateCategory)
			admin.PUT("/categories/:id", taxonomyHandler.UpdateCategory)
			admin.PATCH("/categories/:id/enabled", taxonomyHandler.SetCategoryEnabled)

			admin.POST("/problem-types", taxonomyHandler.CreateProblemType)
			admin.PUT("/problem-types/:id", taxonomyHandler.UpdateProblemType)
			admin.PATCH("/problem-types/:id/enabled", taxonomyHandler.SetProblemTypeEnabled)

			admin.POST("/daily-problems", dailyHandler.Publish)

			admin.GET("/roles", userHandler.ListRoles)
			admin.POST("/roles", userHandler.CreateRole)
			admin.GET("/users/:id", userHandler.GetUser)
			admin.PUT("/users/:id/roles", userHandler.AssignRoles)
		}
	}

	utils.GetLogger().Info("路由设置完成", "mode", cfg.Server.Mode, "port", cfg.Server.Port)
	return r
}
