package interactions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRegistry(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(time.Hour, rec, zap.NewNop())
	t.Cleanup(r.Close)

	a := r.Get("session-a")
	assert.Same(t, a, r.Get("session-a"))
	assert.NotSame(t, a, r.Get("session-b"))
	assert.Equal(t, 2, r.Len())

	a.ToggleFavorite("carthage")
	assert.Equal(t, []EventType{EventFavoriteToggled}, rec.types())
	assert.Equal(t, "session-a", rec.events[0].SessionID)

	r.End("session-a")
	assert.Equal(t, 1, r.Len())
	assert.Empty(t, r.Get("session-a").Favorites(), "an ended session starts over")
}
