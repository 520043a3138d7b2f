// Package auth provides authentication domain logic. Authorization itself
// is a capability table keyed by the user's role, see core/security.
package auth

import (
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
)

// User is a back-office operator of one agency. Role is a plain string
// checked against the capability allow-lists.
type User struct {
	ID       id.ID  `json:"id" db:"id"`
	AgencyID string `json:"agencyId" db:"agency_id"`

	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	FullName     string `json:"fullName" db:"full_name"`
	Role         string `json:"role" db:"role"`

	IsActive bool `json:"isActive" db:"is_active"`

	FailedLogins int        `json:"-" db:"failed_logins"`
	LockedUntil  *time.Time `json:"-" db:"locked_until"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NewUser creates an active user with a hashed password.
func NewUser(agencyID, email, passwordHash, role string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		AgencyID:     agencyID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanLogin checks active and lock state.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewUnauthorized("account is disabled")
	}
	if u.LockedUntil != nil && u.LockedUntil.After(time.Now()) {
		return apperror.NewUnauthorized("account is temporarily locked").
			WithSolution("Esperá unos minutos y volvé a intentar.")
	}
	return nil
}

// RecordFailedLogin increments the counter and locks on the threshold.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLogins++
	if u.FailedLogins >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
		u.FailedLogins = 0
	}
	u.UpdatedAt = time.Now().UTC()
}

// RecordSuccessfulLogin resets the lock state.
func (u *User) RecordSuccessfulLogin() {
	now := time.Now().UTC()
	u.FailedLogins = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	ID           id.ID      `json:"id" db:"id"`
	UserID       id.ID      `json:"userId" db:"user_id"`
	TokenHash    string     `json:"-" db:"token_hash"`
	ExpiresAt    time.Time  `json:"expiresAt" db:"expires_at"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty" db:"revoked_at"`
	RevokeReason *string    `json:"-" db:"revoke_reason"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// IsValid reports whether the token can still be exchanged.
func (t *RefreshToken) IsValid() bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(time.Now())
}

// TokenPair is the login/refresh response.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}
