package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const principalContextKey contextKey = "linkbucketPrincipal"

// ContextUser represents the authenticated principal stored in the request context.
type ContextUser struct {
	ID      string
	Email   string
	IsAdmin bool
}

// AuthMiddleware rejects requests without a valid bearer token or session cookie.
func AuthMiddleware(service *Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := authenticate(c, service, cookieName)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid or expired credentials"})
			return
		}
		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth attaches the principal when credentials are valid and lets
// anonymous requests through otherwise.
func OptionalAuth(service *Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, err := authenticate(c, service, cookieName); err == nil {
			setPrincipal(c, principal)
		}
		c.Next()
	}
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	value, exists := c.Get(string(principalContextKey))
	if !exists {
		return ContextUser{}, false
	}
	user, ok := value.(ContextUser)
	return user, ok
}

// RequireUser fetches the authenticated user and parses the identifier.
func RequireUser(c *gin.Context) (uuid.UUID, ContextUser, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return uuid.Nil, ContextUser{}, false
	}
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return uuid.Nil, ContextUser{}, false
	}
	return id, user, true
}

// ActorID returns the authenticated user id, or uuid.Nil for anonymous requests.
func ActorID(c *gin.Context) uuid.UUID {
	id, _, _ := RequireUser(c)
	return id
}

func authenticate(c *gin.Context, service *Service, cookieName string) (Principal, error) {
	bearer := extractBearerToken(c.GetHeader("Authorization"))
	sessionID, _ := c.Cookie(cookieName)
	return service.Authenticate(c.Request.Context(), bearer, sessionID)
}

// SetCurrentUser stores user on the request context.
func SetCurrentUser(c *gin.Context, user ContextUser) {
	c.Set(string(principalContextKey), user)
}

func setPrincipal(c *gin.Context, p Principal) {
	SetCurrentUser(c, ContextUser{
		ID:      p.UserID.String(),
		Email:   p.Email,
		IsAdmin: p.IsAdmin,
	})
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
