// Package nearby streams destination rankings over a WebSocket as the client moves.
package nearby

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/catalog"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/enrichment"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/geo"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

const (
	messagesPerMinute = 30
	messageBurst      = 10
	maxMessageBytes   = 4096
	writeTimeout      = 10 * time.Second
	heroTimeout       = 15 * time.Second
	heroKey           = "hero"

	TypeRanked = "ranked"
	TypeHero   = "hero"
	TypeError  = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers are already restricted by the CORS middleware on the HTTP API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Catalog is the part of the catalog the stream reads.
type Catalog interface {
	Points(category models.Category) ([]models.PointOfInterest, error)
	Get(category models.Category, id string) (models.Listing, error)
}

// LocationUpdate is one client message.
type LocationUpdate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Radius    float64 `json:"radius,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

type RankedItem struct {
	models.RankedPoint
	DistanceLabel string `json:"distance_label"`
	Favorite      bool   `json:"favorite"`
}

// Message is one server message. Seq ties a hero to the update that produced it.
type Message struct {
	Type    string                `json:"type"`
	Seq     uint64                `json:"seq,omitempty"`
	Results []RankedItem          `json:"results,omitempty"`
	Hero    *enrichment.Decorated `json:"hero,omitempty"`
	Message string                `json:"message,omitempty"`
}

type Handler struct {
	logger    *zap.Logger
	catalog   Catalog
	decorator *enrichment.Decorator
}

func NewHandler(catalog Catalog, decorator *enrichment.Decorator, logger *zap.Logger) *Handler {
	return &Handler{logger: logger, catalog: catalog, decorator: decorator}
}

// conn serialises writes to one socket.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(m)
}

// HandleWebSocket GET /ws/nearby
//
// Every accepted update is ranked immediately. The hero of the nearest
// destination is looked up in the background and only sent while its update is
// still the latest one.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	store := interactions.FromContext(c)
	l := h.logger.With(zap.String("method", "HandleWebSocket"), zap.String("session_id", store.SessionID()))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxMessageBytes)

	ctx, cancel := context.WithCancel(context.Background())

	out := &conn{ws: ws}
	limiter := rate.NewLimiter(rate.Every(time.Minute/messagesPerMinute), messageBurst)
	sequencer := enrichment.NewSequencer()
	var heroes sync.WaitGroup
	defer heroes.Wait()
	defer cancel()

	l.Info("WebSocket connection established")

	for {
		var update LocationUpdate
		if err := ws.ReadJSON(&update); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.Warn("WebSocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		if !limiter.Allow() {
			l.Warn("Message rate limit exceeded")
			if err := out.send(Message{Type: TypeError, Message: "Too many requests. Please slow down."}); err != nil {
				return
			}
			continue
		}

		origin := models.Coordinate{Latitude: update.Latitude, Longitude: update.Longitude}
		if !origin.Valid() {
			if err := out.send(Message{Type: TypeError, Message: "coordinates out of range"}); err != nil {
				return
			}
			continue
		}

		points, err := h.catalog.Points(models.CategoryDestination)
		if err != nil {
			l.Error("Failed to load destinations", zap.Error(err))
			if err := out.send(Message{Type: TypeError, Message: "Failed to get nearby places"}); err != nil {
				return
			}
			continue
		}

		seq := sequencer.Next(heroKey)
		ranked := catalog.RankPoints(ctx, origin, points, update.Radius, update.Limit)
		items := make([]RankedItem, len(ranked))
		for i, p := range ranked {
			items[i] = RankedItem{
				RankedPoint:   p,
				DistanceLabel: geo.FormatDistance(&p.DistanceKm),
				Favorite:      store.IsFavorite(p.ID),
			}
		}
		if err := out.send(Message{Type: TypeRanked, Seq: seq, Results: items}); err != nil {
			l.Warn("Failed to send ranking", zap.Error(err))
			return
		}

		if len(ranked) == 0 {
			continue
		}
		heroes.Add(1)
		go func(id string, seq uint64) {
			defer heroes.Done()
			h.sendHero(ctx, out, sequencer, id, seq, l)
		}(ranked[0].ID, seq)
	}
}

func (h *Handler) sendHero(ctx context.Context, out *conn, sequencer *enrichment.Sequencer, id string, seq uint64, l *zap.Logger) {
	listing, err := h.catalog.Get(models.CategoryDestination, id)
	if err != nil {
		l.Warn("Nearest destination vanished", zap.String("id", id), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, heroTimeout)
	defer cancel()
	hero := h.decorator.Decorate(ctx, listing)

	if !sequencer.Latest(heroKey, seq) {
		l.Debug("Dropping hero of superseded update", zap.Uint64("seq", seq))
		return
	}
	sequencer.Apply(heroKey, seq, func() {
		if err := out.send(Message{Type: TypeHero, Seq: seq, Hero: &hero}); err != nil {
			l.Debug("Failed to send hero", zap.Error(err))
		}
	})
}
