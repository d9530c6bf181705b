package router

import "github.com/gin-gonic/gin"

// Module registers a feature's routes on the API group. Modules are added
// to a Registry and registered together once global middleware is in place.
type Module interface {
	Register(rg *gin.RouterGroup)
}
