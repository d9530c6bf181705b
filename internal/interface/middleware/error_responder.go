package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/pkg/helpers"
	"github.com/oksasatya/user-account-service/pkg/response"
)

// ErrorResponder writes the error envelope for the last error a handler or
// middleware attached with c.Error. Internal failures are logged and
// answered with a generic message.
func ErrorResponder(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apperr.HTTPStatus(err)

		var detail any
		var ve *apperr.ValidationError
		if errors.As(err, &ve) && len(ve.Details) > 0 {
			detail = ve.Details
		}

		if status == http.StatusInternalServerError {
			helpers.LogError(logger, "request failed", err, logrus.Fields{
				"request_id": c.GetString(CtxRequestIDKey),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
			})
		}
		response.Error(c, status, apperr.PublicMessage(err), detail)
	}
}
