package location

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/handlers"
)

type Handler struct {
	*handlers.BaseHandler
	service *Service
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: handlers.NewBaseHandler(logger),
		service:     service,
	}
}

// GetLocation GET /api/location?lat&lng&fallback
//
// fallback=home selects the home screen wording when no locality is known.
func (h *Handler) GetLocation(c *gin.Context) {
	explicit, err := ParseCoordinate(c.Query("lat"), c.Query("lng"))
	if err != nil {
		h.RespondError(c, err)
		return
	}

	fallbackName := DefaultName
	if c.Query("fallback") == "home" {
		fallbackName = UnavailableName
	}

	ctx := c.Request.Context()
	origin, source := h.service.Resolve(ctx, explicit, c.ClientIP())
	snap := h.service.Snapshot(ctx, origin, fallbackName)
	snap.Source = source

	c.JSON(http.StatusOK, snap)
}
