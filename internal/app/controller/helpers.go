package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// requireSession responds 401 when the route was reached without a session.
func requireSession(c *gin.Context) (*service.Session, bool) {
	session, ok := middleware.GetSession(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Unauthenticated access", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.Unauthorized(c, "")
		return nil, false
	}
	return session, true
}

// parseIDParam responds 400 when the path parameter is not a positive integer.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
