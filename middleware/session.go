package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telewarp/auth"
	"telewarp/storage"
)

// usernameKey is where the session middlewares stash the username.
const usernameKey = "session_username"

// SessionOptional attaches the session username to the context when a
// valid tw_session cookie is present, and stays silent otherwise.
func SessionOptional(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.CookieName)
		if err == nil {
			if session := auth.LookupSession(c.Request.Context(), store, token); session != nil {
				c.Set(usernameKey, session.Username)
			}
		}
		c.Next()
	}
}

// SessionRequired rejects requests without a valid session.
func SessionRequired(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.CookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		session := auth.LookupSession(c.Request.Context(), store, token)
		if session == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set(usernameKey, session.Username)
		c.Next()
	}
}

// Username returns the session username set by the middlewares, or ""
// for anonymous requests.
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}
