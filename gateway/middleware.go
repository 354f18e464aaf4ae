package gateway

import (
	"github.com/alexandre-normand/steward"
	"github.com/alexandre-normand/steward/session"
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
	"time"
)

const identityKey = "steward_identity"

// rejection is how a request failing authentication or authorization gets answered
type rejection func(c *gin.Context, status int)

// abortUnauthenticated answers api callers with a json error
func abortUnauthenticated(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{"error": "unauthenticated"})
}

// abortForbidden answers with an error message only, never any community content
func abortForbidden(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{"error": "not an administrator of this community"})
}

// redirectTo sends dashboard page visitors to location
func redirectTo(location string) rejection {
	return func(c *gin.Context, status int) {
		c.Redirect(http.StatusSeeOther, location)
		c.Abort()
	}
}

// identify verifies the session token of the request and stores the caller identity on the
// context
func (g *Gateway) identify(reject rejection) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			token, _ = c.Cookie(g.sessionCookie)
		}

		id, err := g.verifier.Verify(token)
		if err != nil {
			g.log.Debugf("Rejecting unauthenticated request to [%s]: %v\n", c.Request.URL.Path, err)
			reject(c, http.StatusUnauthorized)
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// requireAdmin lets the request through only if the caller is an administrator of the
// community in the path
func requireAdmin(reject rejection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := identityOf(c)
		if !id.IsAdmin(c.Param("communityID")) {
			reject(c, http.StatusForbidden)
			return
		}

		c.Next()
	}
}

func identityOf(c *gin.Context) (id session.Identity, ok bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return id, false
	}

	id, ok = v.(session.Identity)
	return id, ok
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// requestLogger logs every request through the steward logger instead of gin's own
func requestLogger(logger steward.SLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Debugf("%s %s => [%d] in %v\n", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Printf("%s %s failed with [%d]: %s\n", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.Errors.String())
		}
	}
}
