package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-account-service/internal/interface/http"
	"github.com/oksasatya/user-account-service/internal/interface/middleware"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// UserModule wires the account handlers.
// Public: POST /login, POST /signup, POST /logout, GET /all, DELETE /delete/:id
// Optional session: PUT /update/:id (admin session required to set isAdmin or status)
// Session: GET /me
type UserModule struct {
	Handler     *handlers.UserHandler
	JWT         *helpers.JWTManager
	Revocations *helpers.RevocationList
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, revocations *helpers.RevocationList) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Revocations: revocations}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rg.POST("/login", m.Handler.Login)
	rg.POST("/signup", m.Handler.Signup)
	rg.POST("/logout", m.Handler.Logout)
	rg.GET("/all", m.Handler.All)
	rg.DELETE("/delete/:id", m.Handler.Delete)

	rg.PUT("/update/:id", middleware.OptionalSession(m.JWT, m.Revocations), m.Handler.Update)
	rg.GET("/me", middleware.SessionAuth(m.JWT, m.Revocations), m.Handler.Me)
}
