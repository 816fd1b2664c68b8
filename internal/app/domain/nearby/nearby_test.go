package nearby

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/catalog"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/enrichment"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// gatedLooker answers immediately except for titles listed in gates, which wait
// until their channel is closed.
type gatedLooker struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func (g *gatedLooker) Lookup(ctx context.Context, ref models.WikiRef) *models.Enrichment {
	g.mu.Lock()
	gate := g.gates[ref.Title]
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil
		}
	}
	return &models.Enrichment{Extract: "About " + ref.Title}
}

func setupTestServer(t *testing.T, looker enrichment.Looker, store *interactions.Store) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := catalog.NewService(zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	handler := NewHandler(svc, enrichment.NewDecorator(looker, zap.NewNop()), zap.NewNop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		interactions.WithStore(c, store)
		c.Next()
	})
	router.GET("/ws/nearby", handler.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/nearby"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func read(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m Message
	if err := ws.ReadJSON(&m); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	return m
}

func TestWebSocket_RankedThenHero(t *testing.T) {
	store := interactions.NewStore("s")
	store.ToggleFavorite("carthage")
	ws := dial(t, setupTestServer(t, &gatedLooker{}, store))

	require.NoError(t, ws.WriteJSON(LocationUpdate{Latitude: 36.8528, Longitude: 10.3233, Limit: 3}))

	ranked := read(t, ws)
	assert.Equal(t, TypeRanked, ranked.Type)
	assert.Equal(t, uint64(1), ranked.Seq)
	require.Len(t, ranked.Results, 3)
	assert.Equal(t, "carthage", ranked.Results[0].ID)
	assert.Equal(t, "0m away", ranked.Results[0].DistanceLabel)
	assert.True(t, ranked.Results[0].Favorite)
	assert.False(t, ranked.Results[1].Favorite)

	hero := read(t, ws)
	assert.Equal(t, TypeHero, hero.Type)
	assert.Equal(t, uint64(1), hero.Seq)
	require.NotNil(t, hero.Hero)
	assert.Equal(t, "carthage", hero.Hero.ID)
	assert.Equal(t, "About Carthage", hero.Hero.Summary)
	assert.Equal(t, enrichment.SourceEncyclopedia, hero.Hero.Source)
}

func TestWebSocket_StaleHeroIsDropped(t *testing.T) {
	carthage := make(chan struct{})
	looker := &gatedLooker{gates: map[string]chan struct{}{"Carthage": carthage}}
	ws := dial(t, setupTestServer(t, looker, interactions.NewStore("s")))

	// The hero for Carthage hangs while the client moves on to Djerba.
	require.NoError(t, ws.WriteJSON(LocationUpdate{Latitude: 36.8528, Longitude: 10.3233, Limit: 1}))
	first := read(t, ws)
	require.Equal(t, TypeRanked, first.Type)
	require.Equal(t, "carthage", first.Results[0].ID)

	require.NoError(t, ws.WriteJSON(LocationUpdate{Latitude: 33.8076, Longitude: 10.8451, Limit: 1}))
	second := read(t, ws)
	require.Equal(t, TypeRanked, second.Type)
	require.Equal(t, "djerba", second.Results[0].ID)

	hero := read(t, ws)
	require.Equal(t, TypeHero, hero.Type)
	assert.Equal(t, uint64(2), hero.Seq)
	assert.Equal(t, "djerba", hero.Hero.ID)

	close(carthage)

	require.NoError(t, ws.WriteJSON(LocationUpdate{Latitude: 33.9197, Longitude: 8.1335, Limit: 1}))
	third := read(t, ws)
	require.Equal(t, TypeRanked, third.Type, "stale Carthage hero must not be delivered")
	assert.Equal(t, "tozeur", third.Results[0].ID)

	hero = read(t, ws)
	require.Equal(t, TypeHero, hero.Type)
	assert.Equal(t, "tozeur", hero.Hero.ID)
}

func TestWebSocket_RejectsInvalidCoordinates(t *testing.T) {
	ws := dial(t, setupTestServer(t, &gatedLooker{}, interactions.NewStore("s")))

	require.NoError(t, ws.WriteJSON(LocationUpdate{Latitude: 120, Longitude: 10}))
	m := read(t, ws)
	assert.Equal(t, TypeError, m.Type)
	assert.Equal(t, "coordinates out of range", m.Message)
}

func TestWebSocket_RadiusWithoutMatches(t *testing.T) {
	ws := dial(t, setupTestServer(t, &gatedLooker{}, interactions.NewStore("s")))

	// Mid-Mediterranean, nothing within 1km.
	require.NoError(t, ws.WriteJSON(LocationUpdate{Latitude: 37.5, Longitude: 12.5, Radius: 1}))
	m := read(t, ws)
	assert.Equal(t, TypeRanked, m.Type)
	assert.Empty(t, m.Results)
}

func TestWebSocket_RateLimit(t *testing.T) {
	ws := dial(t, setupTestServer(t, &gatedLooker{}, interactions.NewStore("s")))

	for i := 0; i < messageBurst+1; i++ {
		require.NoError(t, ws.WriteJSON(LocationUpdate{Latitude: 36.8, Longitude: 10.18, Limit: 1}))
	}

	ranked := 0
	for {
		m := read(t, ws)
		if m.Type == TypeError {
			assert.Equal(t, "Too many requests. Please slow down.", m.Message)
			break
		}
		if m.Type == TypeRanked {
			ranked++
		}
	}
	assert.Equal(t, messageBurst, ranked)
}
