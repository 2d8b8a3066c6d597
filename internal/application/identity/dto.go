package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput carries the staff credentials plus the client IP, which is
// recorded on the account for audit.
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// LoginResult is the issued token pair plus the authenticated user.
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo is the slice of a staff user the auth flows hand back,
// including the flattened permission codes.
type UserInfo struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Username    string
	DisplayName string
	Email       string
	Phone       string
	Avatar      string
	Permissions []string
	RoleIDs     []uuid.UUID
}

// RefreshTokenInput identifies the user alongside the token so permissions
// are reloaded fresh rather than copied from the old claims.
type RefreshTokenInput struct {
	RefreshToken string
	UserID       uuid.UUID
	TenantID     uuid.UUID
}

type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput revokes the session. TokenJTI, when present, lets the access
// token be blacklisted immediately instead of expiring naturally.
type LogoutInput struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	TokenJTI string
}

type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

type GetCurrentUserInput struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

type CurrentUserResult struct {
	User        UserInfo
	Permissions []string
}

// ForceLogoutInput lets an admin revoke every session of another staff
// user. Reason lands in the audit log.
type ForceLogoutInput struct {
	AdminUserID  uuid.UUID
	TargetUserID uuid.UUID
	TenantID     uuid.UUID
	Reason       string
}

type ForceLogoutResult struct {
	Message string
}
