package router

import (
	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/gin-gonic/gin"
)

func (r *Router) organizationRoutes(version *gin.RouterGroup) {
	orgs := version.Group("/organizations")
	orgs.Use(r.jwtMw.RequireAuth())
	{
		orgs.GET("", r.orgHandler.List)
		orgs.GET("/:id", r.jwtMw.RequireOrganizationAccess("id"), r.orgHandler.Get)

		// Admin only
		orgs.POST("", r.jwtMw.RequireRole(constants.RoleAdmin), r.orgHandler.Create)
		orgs.POST("/:id/members", r.jwtMw.RequireRole(constants.RoleAdmin), r.orgHandler.AddMember)
	}
}
