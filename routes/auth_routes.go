package routes

import (
	"stratusdrive/controllers"
	"stratusdrive/middleware"

	"github.com/gin-gonic/gin"
)

func registerAuthRoutes(api *gin.RouterGroup, ctrl *controllers.AuthController, jwtSecret string) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", ctrl.Register)
		auth.POST("/login", ctrl.Login)
		auth.GET("/me", middleware.AuthMiddleware(jwtSecret), ctrl.Profile)
	}

	token := api.Group("/token")
	{
		token.POST("/refresh", ctrl.Refresh)
		token.DELETE("/revoke", middleware.AuthMiddleware(jwtSecret), ctrl.Revoke)
	}
}
