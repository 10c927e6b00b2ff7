package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates access roles carried in token claims.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleAccountant UserRole = "accountant"
	RoleStaff      UserRole = "staff"
)

// JWTClaims represents the JWT payload for access tokens issued by the
// central identity service. This API validates tokens but never issues them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// CanManageFees reports whether the role is allowed to mutate fee state.
func (c *JWTClaims) CanManageFees() bool {
	if c == nil {
		return false
	}
	return c.Role == RoleAdmin || c.Role == RoleAccountant
}
