package model

import "time"

// Roles carried in the JWT "role" claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User is a row of the users table. Customers book hotels; admins read and
// cancel any transaction.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Phone        – optional contact number used on bookings.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER or ADMIN.
//  IsActive     – inactive users cannot log in.
type User struct {
	ID           uint64
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models an entry in the refresh_tokens table. Only the SHA-256
// hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
