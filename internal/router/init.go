package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-service/internal/container"
	handlers "github.com/oksasatya/user-account-service/internal/interface/http"
	"github.com/oksasatya/user-account-service/internal/interface/middleware"
	"github.com/oksasatya/user-account-service/internal/router/modules"
)

// InitModules builds the feature modules from the container and adds them to the registry.
func InitModules(r *Registry, c *container.Container) {
	handler := handlers.NewUserHandler(c.UserService(), c.Logger, c.Cookies)

	r.Add(modules.NewUserModule(handler, c.JWT, c.Revocations))
	r.Add(modules.NewDebugModule(c.Config.DebugMetricsEnabled))
}

// NewEngine assembles the gin engine with global middleware and every module.
func NewEngine(c *container.Container) *gin.Engine {
	cfg := c.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(c.Logger))
	}
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	reg := NewRegistry(r, cfg.APIPrefix)
	reg.Use(middleware.ErrorResponder(c.Logger))
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}
