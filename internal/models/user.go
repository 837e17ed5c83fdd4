package models

import "github.com/google/uuid"

// User is the authenticated principal extracted from the bearer token.
// Account management lives in an external service; only the identity
// needed to scope jobs is carried here.
type User struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}
