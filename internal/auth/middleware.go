package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Default identity used when no bearer token is presented. Real
// authentication is out of scope; the verifier always succeeds.
var stubUser = ActingUser{ID: 1, Name: "user user"}

// Middleware resolves the acting user for each request and binds it into the
// request context before any service or repository code runs.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs the verifier.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle binds the acting user. A well-formed bearer token overrides the
// stub identity; anything else falls through to the stub. This middleware
// never rejects a request.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	user := stubUser

	if header := c.Get("Authorization"); header != "" && m.tokens != nil {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if claims, err := m.tokens.ParseToken(parts[1]); err == nil {
				user = ActingUser{ID: claims.UserID, Name: claims.Name}
			}
		}
	}

	c.SetUserContext(WithActingUser(c.UserContext(), user))
	return c.Next()
}
