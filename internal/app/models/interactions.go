package models

import "time"

// CurrentUserLabel is the author label attached to comments written in the current session.
const CurrentUserLabel = "You"

// Rating is one user's rating of an entity.
type Rating struct {
	EntityID string `json:"entity_id"`
	Value    int    `json:"value"`
}

// Comment is a free-text note a user left on an entity during the session.
type Comment struct {
	ID          string    `json:"id"`
	EntityID    string    `json:"entity_id"`
	AuthorID    string    `json:"-"`
	Text        string    `json:"comment"`
	AuthoredAt  time.Time `json:"authored_at"`
	Date        string    `json:"date"`
	AuthorLabel string    `json:"user"`
}

// OwnedByCurrentUser reports whether the comment was written by the session user.
func (c Comment) OwnedByCurrentUser() bool {
	return c.AuthorLabel == CurrentUserLabel
}
