package routes

import (
	"github.com/Govind-619/PropertyHub/controllers"
	"github.com/Govind-619/PropertyHub/middleware"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/gin-gonic/gin"
)

// initPropertyRoutes initializes the property listing routes. Reads need a
// bearer token, writes an elevated role.
func initPropertyRoutes(router *gin.RouterGroup, properties *services.PropertyService, auth gin.HandlerFunc) {
	pc := controllers.NewPropertyController(properties)

	group := router.Group("/properties", auth)
	{
		group.GET("", pc.ListProperties)
		group.GET("/:id", pc.GetProperty)
	}

	admin := group.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager))
	{
		admin.POST("", pc.CreateProperty)
		admin.PUT("/:id", pc.UpdateProperty)
		admin.DELETE("/:id", pc.DeleteProperty)
	}
}
