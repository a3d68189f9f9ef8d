package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionContextKey = "session_id"

// SessionMiddleware gives every browser a stable session id via an HttpOnly
// cookie. The id is what ties a Google connection to later submissions.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {

		sid, err := c.Cookie(sessionCookieName)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			// 30 days; HttpOnly so scripts never see it
			c.SetCookie(sessionCookieName, sid, 3600*24*30, "/", "", false, true)
		}

		// Attach session ID to context
		c.Set(sessionContextKey, sid)

		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}
