package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-account-service/internal/application"
	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/interface/middleware"
	"github.com/oksasatya/user-account-service/pkg/helpers"
	"github.com/oksasatya/user-account-service/pkg/response"
	"github.com/oksasatya/user-account-service/pkg/validation"
)

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookies *helpers.Manager) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

// loginRequest accepts the identifier as userName or as email. Either field
// may carry an email address; anything containing '@' is looked up by email.
type loginRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	UserName     string `json:"userName" binding:"required,excludes=@"`
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,max=72"`
	ProfileImage string `json:"profileImage"`
	IsAdmin      *bool  `json:"isAdmin"`
	Status       *bool  `json:"status"`
}

// updateRequest uses pointers so an absent field differs from a zero value.
type updateRequest struct {
	UserName     *string `json:"userName" binding:"omitempty,min=1,excludes=@"`
	FirstName    *string `json:"firstName" binding:"omitempty,min=1"`
	LastName     *string `json:"lastName" binding:"omitempty,min=1"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Password     *string `json:"password" binding:"omitempty,min=1,max=72"`
	ProfileImage *string `json:"profileImage"`
	IsAdmin      *bool   `json:"isAdmin"`
	Status       *bool   `json:"status"`
}

func (r updateRequest) patch() entity.UserPatch {
	return entity.UserPatch{
		UserName:     r.UserName,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Password:     r.Password,
		ProfileImage: r.ProfileImage,
		IsAdmin:      r.IsAdmin,
		Status:       r.Status,
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperr.Validation("invalid payload", validation.ToDetails(err)))
		return false
	}
	return true
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	identifier := req.UserName
	if identifier == "" {
		identifier = req.Email
	}

	sess, err := h.Svc.Login(c.Request.Context(), userapp.LoginInput{Identifier: identifier, Password: req.Password})
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	response.Empty(c, http.StatusOK)
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, err := h.Svc.Signup(c.Request.Context(), userapp.SignupInput{
		UserName:     req.UserName,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		ProfileImage: req.ProfileImage,
		IsAdmin:      req.IsAdmin,
		Status:       req.Status,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.Logger.WithField("user_id", sess.User.ID).Info("user signed up")
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	response.Empty(c, http.StatusCreated)
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), h.Cookies.Session(c))
	h.Cookies.Clear(c)
	response.Empty(c, http.StatusOK)
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.JSON(c, http.StatusOK, u)
}

func (h *UserHandler) All(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateRequest
	if !bindJSON(c, &req) {
		return
	}
	var actor *userapp.Actor
	if id := middleware.UserID(c); id != "" {
		actor = &userapp.Actor{UserID: id, IsAdmin: middleware.IsAdmin(c)}
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), actor, c.Param("id"), req.patch())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.JSON(c, http.StatusOK, u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted")
}
