package helpers

import (
	"github.com/google/uuid"
	"github.com/peerlend/api/internal/models"
)

// AuthClaims is the identity the auth middleware attaches to the request
// context once a token has been verified.
type AuthClaims struct {
	*CustomClaims
	UserID string `json:"id"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
}

func (ac *AuthClaims) IsAdmin() bool {
	return ac.Role == models.RoleAdmin
}

func (ac *AuthClaims) IsLender() bool {
	return ac.Role == models.RoleLender
}

func (ac *AuthClaims) IsBorrower() bool {
	return ac.Role == models.RoleBorrower
}

func (ac *AuthClaims) HasRole(role string) bool {
	return ac.Role == role || ac.IsAdmin()
}

// ParsedUserID returns the subject as a UUID, or uuid.Nil when the token
// carries a malformed id.
func (ac *AuthClaims) ParsedUserID() uuid.UUID {
	id, err := uuid.Parse(ac.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}
