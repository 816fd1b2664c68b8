package interactions

import (
	"sync"
	"time"
)

// EventType names a state change of a session's interaction store.
type EventType string

const (
	EventFavoriteToggled EventType = "favorite_toggled"
	EventRatingUpserted  EventType = "rating_upserted"
	EventCommentAdded    EventType = "comment_added"
	EventCommentRemoved  EventType = "comment_removed"
	EventAuthRequired    EventType = "auth_required"
	EventSignedIn        EventType = "signed_in"
	EventSignedOut       EventType = "signed_out"
)

// Event is emitted after every state change. Fields not relevant to Type are zero.
type Event struct {
	Type       EventType `json:"type"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	CommentID  string    `json:"comment_id,omitempty"`
	Value      int       `json:"value,omitempty"`
	Favorite   bool      `json:"favorite,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher receives store events. Implementations must not call back into the store
// synchronously with a lock held; events are always delivered after the store unlocks.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// Bus fans events out to registered subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Publisher
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]Publisher)}
}

// Subscribe registers p and returns a function that removes it again.
func (b *Bus) Subscribe(p Publisher) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = p
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]Publisher, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.Publish(e)
	}
}
