package interactions

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/handlers"
)

type Handler struct {
	*handlers.BaseHandler
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{BaseHandler: handlers.NewBaseHandler(logger)}
}

type ratingRequest struct {
	Value *int `json:"value" binding:"required"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// ListFavorites GET /api/favorites
func (h *Handler) ListFavorites(c *gin.Context) {
	store := FromContext(c)
	favorites := store.Favorites()
	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "count": len(favorites)})
}

// ToggleFavorite POST /api/favorites/:id
func (h *Handler) ToggleFavorite(c *gin.Context) {
	store := FromContext(c)
	id := c.Param("id")
	favorite := store.ToggleFavorite(id)

	h.Logger.Info("Favorite toggled",
		zap.String("session_id", store.SessionID()),
		zap.String("entity_id", id),
		zap.Bool("favorite", favorite),
	)
	c.JSON(http.StatusOK, gin.H{"id": id, "favorite": favorite})
}

// GetRating GET /api/ratings/:id
func (h *Handler) GetRating(c *gin.Context) {
	id := c.Param("id")
	var rating *int
	if v, ok := FromContext(c).GetRating(id); ok {
		rating = &v
	}
	c.JSON(http.StatusOK, gin.H{"entity_id": id, "rating": rating})
}

// PutRating PUT /api/ratings/:id
func (h *Handler) PutRating(c *gin.Context) {
	store := FromContext(c)
	if !store.RequireAuth() {
		h.AuthRequired(c)
		return
	}

	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "value is required")
		return
	}

	id := c.Param("id")
	if !store.AddRating(id, *req.Value) {
		h.AuthRequired(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entity_id": id, "rating": *req.Value})
}

// ListComments GET /api/comments/:id
func (h *Handler) ListComments(c *gin.Context) {
	comments := FromContext(c).GetUserComments(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AddComment POST /api/comments/:id
func (h *Handler) AddComment(c *gin.Context) {
	store := FromContext(c)
	if !store.RequireAuth() {
		h.AuthRequired(c)
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body")
		return
	}

	id := c.Param("id")
	if !store.AddComment(id, req.Comment) {
		h.BadRequest(c, "comment must not be empty")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comments": store.GetUserComments(id)})
}

// RemoveComment DELETE /api/comments/:id/:commentID
func (h *Handler) RemoveComment(c *gin.Context) {
	store := FromContext(c)
	if !store.RemoveComment(c.Param("commentID")) {
		h.AuthRequired(c)
		return
	}
	c.Status(http.StatusNoContent)
}
