package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/larder/backend/internal/api"
	"github.com/pageza/larder/backend/internal/middleware"
)

// SetupRouter builds the engine with access logging, error handling and CORS,
// then mounts the API.
func SetupRouter(allowedOrigins []string, deps api.Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(allowedOrigins))

	api.SetupAPI(router, deps)
	return router
}
