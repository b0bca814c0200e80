package router

import (
	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/gin-gonic/gin"
)

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		// User administration is restricted to admins
		users.Use(r.jwtMw.RequireAuth(), r.jwtMw.RequireRole(constants.RoleAdmin))
		{
			users.GET("", r.userHandler.GetAll)
			users.GET("/:id", r.userHandler.GetByID)
			users.POST("/:id/deactivate", r.userHandler.Deactivate)
			users.POST("/:id/activate", r.userHandler.Activate)
		}
	}
}
