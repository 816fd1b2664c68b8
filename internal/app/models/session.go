package models

// User is the identity the account provider hands back.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// AuthSession is either Anonymous or Authenticated with a user.
// The zero value is Anonymous.
type AuthSession struct {
	user *User
}

// Anonymous returns an unauthenticated session.
func Anonymous() AuthSession {
	return AuthSession{}
}

// Authenticated returns a session carrying u.
func Authenticated(u User) AuthSession {
	return AuthSession{user: &u}
}

// IsAuthenticated reports whether the session carries a user.
func (s AuthSession) IsAuthenticated() bool {
	return s.user != nil
}

// User returns the session user, if any.
func (s AuthSession) User() (User, bool) {
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// UserID returns the user id or "" for anonymous sessions.
func (s AuthSession) UserID() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}
