package interactions

import "github.com/gin-gonic/gin"

const storeContextKey = "interaction_store"

// WithStore attaches the session's store to the request.
func WithStore(c *gin.Context, s *Store) {
	c.Set(storeContextKey, s)
}

// FromContext returns the session's store. Requests that did not pass through the
// session middleware get a throwaway anonymous store.
func FromContext(c *gin.Context) *Store {
	if v, ok := c.Get(storeContextKey); ok {
		if s, ok := v.(*Store); ok {
			return s
		}
	}
	return NewStore("")
}
