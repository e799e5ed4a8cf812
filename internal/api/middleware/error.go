package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/haedwin/entity-receiver-go/pkg/utils"
)

// ErrorHandlingMiddleware recovers from handler panics and turns them into a
// logged 500 response instead of killing the connection.
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("Handler panicked")
		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}
