package reviews

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/handlers"
)

type Handler struct {
	*handlers.BaseHandler
	service Service
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{BaseHandler: handlers.NewBaseHandler(logger), service: service}
}

type upsertRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// currentUser returns the signed-in user id, answering 401 when there is none.
func (h *Handler) currentUser(c *gin.Context) (string, bool) {
	store := interactions.FromContext(c)
	if !store.RequireAuth() {
		h.AuthRequired(c)
		return "", false
	}
	return store.Session().UserID(), true
}

// List GET /api/reviews/:id
func (h *Handler) List(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}

	reviews, err := h.service.ListByDestination(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destination_id": c.Param("id"), "reviews": reviews, "count": len(reviews)})
}

// Upsert PUT /api/reviews/:id
func (h *Handler) Upsert(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "rating is required")
		return
	}

	review, err := h.service.Upsert(c.Request.Context(), userID, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// Delete DELETE /api/reviews/:id/:reviewID
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, c.Param("reviewID")); err != nil {
		h.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
