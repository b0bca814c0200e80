package router

import (
	"github.com/Payphone-Digital/tracker/internal/middleware"
	"github.com/gin-gonic/gin"
)

func (r *Router) authRoutes(version *gin.RouterGroup, limiter *middleware.RateLimiter) {
	auth := version.Group("/auth")
	{
		// Public routes, rate limited per client IP
		public := auth.Group("")
		public.Use(middleware.RateLimit(limiter))
		{
			public.POST("/register", r.authHandler.Register)
			public.POST("/login", r.authHandler.Login)
			public.POST("/refresh-token", r.authHandler.RefreshToken)
			public.POST("/revoke-token", r.authHandler.RevokeToken)
			public.POST("/forgot-password", r.authHandler.ForgotPassword)
			public.POST("/reset-password", r.authHandler.ResetPassword)
		}

		// Protected routes (JWT authentication required)
		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("/me", r.authHandler.Me)
			protected.GET("/me/events", r.authHandler.MyEvents)
			protected.POST("/change-password", r.authHandler.ChangePassword)
		}
	}
}
