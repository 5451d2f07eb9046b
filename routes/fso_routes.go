package routes

import (
	"stratusdrive/controllers"
	"stratusdrive/middleware"

	"github.com/gin-gonic/gin"
)

func registerFsoRoutes(api *gin.RouterGroup, ctrl *controllers.FsoController, jwtSecret string) {
	fso := api.Group("/fso")
	fso.Use(middleware.AuthMiddleware(jwtSecret))
	{
		fso.GET("/drive", ctrl.Drive)
		fso.GET("/diskinfo", ctrl.DiskInfo)
		fso.GET("/fullpath/:id", ctrl.FullPath)
		fso.GET("/folder/:id", ctrl.Folder)
		fso.POST("/folder", ctrl.CreateFolder)
		fso.PUT("/rename", ctrl.Rename)
		fso.POST("/move", ctrl.Move)
		fso.POST("/upload", ctrl.Upload)
		fso.POST("/download", ctrl.Download)
		fso.DELETE("", ctrl.Delete)
		fso.GET("/:id", ctrl.Get)
	}
}
