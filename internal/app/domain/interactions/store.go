package interactions

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// commentDateLayout mirrors the short numeric date the guide shows under comments.
const commentDateLayout = "1/2/2006"

// Store holds one session's favorites, ratings and comments.
//
// Favorites work without an account. Ratings and comments need an authenticated
// session; they are kept per user id so that signing out hides them and signing
// back in as the same user shows them again. Guarded operations never fail
// loudly: they return false or an empty result and raise EventAuthRequired.
type Store struct {
	mu        sync.RWMutex
	sessionID string
	session   models.AuthSession

	favorites   []string
	favoriteSet map[string]struct{}
	ratings     map[string]map[string]int   // user id -> entity id -> value
	comments    map[string][]models.Comment // user id -> comments in insertion order

	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore returns an empty, anonymous store for sessionID.
func NewStore(sessionID string, opts ...Option) *Store {
	s := &Store{
		sessionID:   sessionID,
		favoriteSet: make(map[string]struct{}),
		ratings:     make(map[string]map[string]int),
		comments:    make(map[string][]models.Comment),
		publisher:   nopPublisher{},
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", sessionID))
	return s
}

func (s *Store) SessionID() string { return s.sessionID }

// Session returns the current auth state.
func (s *Store) Session() models.AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SignIn moves the store to Authenticated for u. Switching from another signed-in
// user signs that user out first, so favorites never carry over between users.
func (s *Store) SignIn(u models.User) {
	s.mu.Lock()
	previous := ""
	if s.session.IsAuthenticated() && s.session.UserID() != u.ID {
		previous = s.session.UserID()
		s.favorites = nil
		s.favoriteSet = make(map[string]struct{})
	}
	s.session = models.Authenticated(u)
	s.mu.Unlock()

	if previous != "" {
		s.logger.Debug("Session signed out", zap.String("user_id", previous))
		s.emit(Event{Type: EventSignedOut, UserID: previous})
	}
	s.logger.Debug("Session signed in", zap.String("user_id", u.ID))
	s.emit(Event{Type: EventSignedIn, UserID: u.ID})
}

// SignOut moves the store back to Anonymous and clears the favorites.
// Ratings and comments stay in memory under the user's id.
func (s *Store) SignOut() {
	s.mu.Lock()
	if !s.session.IsAuthenticated() {
		s.mu.Unlock()
		return
	}
	userID := s.session.UserID()
	s.session = models.Anonymous()
	s.favorites = nil
	s.favoriteSet = make(map[string]struct{})
	s.mu.Unlock()

	s.logger.Debug("Session signed out", zap.String("user_id", userID))
	s.emit(Event{Type: EventSignedOut, UserID: userID})
}

// Sync reconciles the store with the auth state derived from the request.
func (s *Store) Sync(session models.AuthSession) {
	current := s.Session()
	switch {
	case session.IsAuthenticated() && current.UserID() != session.UserID():
		u, _ := session.User()
		s.SignIn(u)
	case !session.IsAuthenticated() && current.IsAuthenticated():
		s.SignOut()
	}
}

// RequireAuth reports whether the session is authenticated and raises
// EventAuthRequired when it is not.
func (s *Store) RequireAuth() bool {
	s.mu.RLock()
	ok := s.session.IsAuthenticated()
	s.mu.RUnlock()

	if !ok {
		s.emit(Event{Type: EventAuthRequired})
	}
	return ok
}

// ToggleFavorite flips membership of entityID and returns the new membership.
func (s *Store) ToggleFavorite(entityID string) bool {
	s.mu.Lock()
	_, present := s.favoriteSet[entityID]
	if present {
		delete(s.favoriteSet, entityID)
		for i, id := range s.favorites {
			if id == entityID {
				s.favorites = append(s.favorites[:i:i], s.favorites[i+1:]...)
				break
			}
		}
	} else {
		s.favoriteSet[entityID] = struct{}{}
		s.favorites = append(s.favorites, entityID)
	}
	userID := s.session.UserID()
	s.mu.Unlock()

	s.emit(Event{Type: EventFavoriteToggled, UserID: userID, EntityID: entityID, Favorite: !present})
	return !present
}

func (s *Store) IsFavorite(entityID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favoriteSet[entityID]
	return ok
}

// Favorites returns the favorite ids in the order they were added.
func (s *Store) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// AddRating records the user's rating for entityID, replacing any previous one.
func (s *Store) AddRating(entityID string, value int) bool {
	if !s.RequireAuth() {
		return false
	}

	s.mu.Lock()
	userID := s.session.UserID()
	if userID == "" {
		s.mu.Unlock()
		return false
	}
	byEntity, ok := s.ratings[userID]
	if !ok {
		byEntity = make(map[string]int)
		s.ratings[userID] = byEntity
	}
	byEntity[entityID] = value
	s.mu.Unlock()

	s.emit(Event{Type: EventRatingUpserted, UserID: userID, EntityID: entityID, Value: value})
	return true
}

// GetRating returns the current user's rating for entityID.
func (s *Store) GetRating(entityID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID := s.session.UserID()
	if userID == "" {
		return 0, false
	}
	v, ok := s.ratings[userID][entityID]
	return v, ok
}

// AddComment appends a comment by the current user. Blank text is rejected.
func (s *Store) AddComment(entityID, text string) bool {
	if !s.RequireAuth() {
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	now := s.now()
	s.mu.Lock()
	userID := s.session.UserID()
	if userID == "" {
		s.mu.Unlock()
		return false
	}
	c := models.Comment{
		ID:          s.newID(),
		EntityID:    entityID,
		AuthorID:    userID,
		Text:        text,
		AuthoredAt:  now,
		Date:        now.Format(commentDateLayout),
		AuthorLabel: models.CurrentUserLabel,
	}
	s.comments[userID] = append(s.comments[userID], c)
	s.mu.Unlock()

	s.emit(Event{Type: EventCommentAdded, UserID: userID, EntityID: entityID, CommentID: c.ID})
	return true
}

// RemoveComment deletes one of the current user's comments. Removing an id that
// does not exist, or that belongs to someone else, is a successful no-op.
func (s *Store) RemoveComment(commentID string) bool {
	if !s.RequireAuth() {
		return false
	}

	s.mu.Lock()
	userID := s.session.UserID()
	if userID == "" {
		s.mu.Unlock()
		return false
	}
	var (
		removed  bool
		entityID string
	)
	own := s.comments[userID]
	for i, c := range own {
		if c.ID == commentID {
			entityID = c.EntityID
			s.comments[userID] = append(own[:i:i], own[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.emit(Event{Type: EventCommentRemoved, UserID: userID, EntityID: entityID, CommentID: commentID})
	}
	return true
}

// GetUserComments returns the current user's comments on entityID, oldest first.
func (s *Store) GetUserComments(entityID string) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Comment{}
	userID := s.session.UserID()
	if userID == "" {
		return out
	}
	for _, c := range s.comments[userID] {
		if c.EntityID == entityID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) emit(e Event) {
	e.SessionID = s.sessionID
	e.OccurredAt = s.now()
	s.publisher.Publish(e)
}
