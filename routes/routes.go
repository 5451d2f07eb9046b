package routes

import (
	"stratusdrive/controllers"

	"github.com/gin-gonic/gin"
)

// Controllers bundles every controller the router wires up.
type Controllers struct {
	Auth  *controllers.AuthController
	Fso   *controllers.FsoController
	Share *controllers.ShareController
}

func SetupRoutes(router *gin.Engine, ctrls *Controllers, jwtSecret string) {
	api := router.Group("/api")

	registerAuthRoutes(api, ctrls.Auth, jwtSecret)
	registerFsoRoutes(api, ctrls.Fso, jwtSecret)
	registerShareRoutes(api, ctrls.Share, jwtSecret)
}
