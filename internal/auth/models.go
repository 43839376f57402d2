package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nations-server/internal/user"
)

type Claims struct {
	UserID   int64  `json:"user_id"`
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return user.ParseRole(c.Role) == user.RoleAdmin
}

type TokenRequest struct {
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username"`
}

type TokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *user.User `json:"user"`
}
