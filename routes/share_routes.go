package routes

import (
	"stratusdrive/controllers"
	"stratusdrive/middleware"

	"github.com/gin-gonic/gin"
)

func registerShareRoutes(api *gin.RouterGroup, ctrl *controllers.ShareController, jwtSecret string) {
	share := api.Group("/share")
	{
		// owner endpoints
		share.POST("", middleware.AuthMiddleware(jwtSecret), ctrl.Create)
		share.GET("", middleware.AuthMiddleware(jwtSecret), ctrl.Mine)
		share.DELETE("/:key", middleware.AuthMiddleware(jwtSecret), ctrl.Delete)

		// anonymous endpoints, authorized by the share key alone
		share.GET("/:key", ctrl.Get)
		share.GET("/:key/info", ctrl.Info)
		share.GET("/:key/folder/:id", ctrl.Folder)
		share.GET("/:key/download", ctrl.Download)
	}
}
