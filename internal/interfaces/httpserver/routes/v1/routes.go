package v1

import (
	"github.com/gin-gonic/gin"

	"resize-server/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates image route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches the image routes. The path layout follows the resize
// API contract: a single /image resource with positional identifiers.
func (r *Routes) Register(router gin.IRouter) {
	router.POST("/image", r.handlers.Image.Create)
	router.DELETE("/image", r.handlers.Image.Delete)
	router.GET("/image/:user_id", r.handlers.Image.ListOrigins)
	router.GET("/image/:user_id/:image_id", r.handlers.Image.ListSubimages)
	router.GET("/image/:user_id/:image_id/:subimage_id", r.handlers.Image.GetSubimage)
}
