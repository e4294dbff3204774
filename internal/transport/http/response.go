package httptransport

import (
	"github.com/gin-gonic/gin"

	"afrochain-auth-go/internal/domain/users"
)

// Envelope is the uniform response shape for all auth endpoints. Exactly one
// of the optional fields is populated per response kind.
type Envelope struct {
	Success bool        `json:"success"`
	User    *users.User `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondUser writes a successful response carrying a user projection.
func RespondUser(c *gin.Context, status int, user users.User) {
	c.JSON(status, Envelope{
		Success: true,
		User:    &user,
	})
}

// RespondSession writes a successful login response with the session token.
func RespondSession(c *gin.Context, status int, user users.User, token string) {
	c.JSON(status, Envelope{
		Success: true,
		User:    &user,
		Token:   token,
	})
}

// RespondMessage writes an ad-hoc success payload, used for the challenge
// endpoint whose body is not a user projection.
func RespondMessage(c *gin.Context, status int, payload gin.H) {
	payload["success"] = true
	c.JSON(status, payload)
}

// RespondError writes a failure envelope with a client-safe message.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Error:   message,
	})
}
