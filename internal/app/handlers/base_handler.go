package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// GuestProfilePath is where unauthenticated users are sent to sign in.
const GuestProfilePath = "/guest-profile"

type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// AuthRequired answers a guarded action attempted without a signed in user.
// HTMX clients also get an HX-Redirect to the guest profile page.
func (h *BaseHandler) AuthRequired(c *gin.Context) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", GuestProfilePath)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    "authentication required",
		"redirect": GuestProfilePath,
	})
}

// RespondError maps domain errors to status codes. Unknown errors are logged and
// reported as 500 without details.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, models.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, models.ErrResetTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrResetTokenInvalid.Error()})
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		h.Logger.Error("Unhandled request error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// BadRequest answers malformed input that never reached a service.
func (h *BaseHandler) BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
