package modules

import (
	"expvar"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DebugModule struct {
	MetricsEnabled bool
}

func NewDebugModule(metricsEnabled bool) *DebugModule {
	return &DebugModule{MetricsEnabled: metricsEnabled}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m.MetricsEnabled {
		// expvar counters: signups, logins_succeeded, logins_failed, users_deleted
		rg.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	}
}
