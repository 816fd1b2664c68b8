package interactions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus(t *testing.T) {
	bus := NewBus()
	var a, b []EventType

	unsubA := bus.Subscribe(PublisherFunc(func(e Event) { a = append(a, e.Type) }))
	bus.Subscribe(PublisherFunc(func(e Event) { b = append(b, e.Type) }))

	bus.Publish(Event{Type: EventFavoriteToggled})
	unsubA()
	bus.Publish(Event{Type: EventSignedIn})

	assert.Equal(t, []EventType{EventFavoriteToggled}, a)
	assert.Equal(t, []EventType{EventFavoriteToggled, EventSignedIn}, b)
}

func TestBus_SubscriberMayCallBackIntoStore(t *testing.T) {
	bus := NewBus()
	s := NewStore("reentrant", WithPublisher(bus))

	var seen []bool
	bus.Subscribe(PublisherFunc(func(e Event) {
		if e.Type == EventFavoriteToggled {
			seen = append(seen, s.IsFavorite(e.EntityID))
		}
	}))

	s.ToggleFavorite("carthage")
	s.ToggleFavorite("carthage")
	assert.Equal(t, []bool{true, false}, seen)
}
