package handler

import (
	"time"

	"github.com/google/uuid"
)

// CreateUserRequest creates a staff account within the caller's club
// tenant.
// @Name HandlerCreateUserRequest
type CreateUserRequest struct {
	Username    string   `json:"username" binding:"required,min=3,max=100"`
	Password    string   `json:"password" binding:"required,min=8,max=128"`
	Email       string   `json:"email" binding:"omitempty,email,max=200"`
	Phone       string   `json:"phone" binding:"omitempty,max=50"`
	DisplayName string   `json:"display_name" binding:"omitempty,max=200"`
	Notes       string   `json:"notes" binding:"omitempty"`
	RoleIDs     []string `json:"role_ids" binding:"omitempty"`
}

// UpdateUserRequest patches profile fields. Nil pointers leave the field
// untouched.
// @Name HandlerUpdateUserRequest
type UpdateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,email,max=200"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=200"`
	Notes       *string `json:"notes" binding:"omitempty"`
}

// ResetPasswordRequest is the admin-initiated reset. It revokes the user's
// active sessions as a side effect.
// @Name HandlerResetPasswordRequest
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// AssignRolesRequest replaces a user's role set.
// @Name HandlerAssignRolesRequest
type AssignRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

// LockUserRequest locks an account, indefinitely when no duration is
// given.
// @Name HandlerLockUserRequest
type LockUserRequest struct {
	DurationMinutes int `json:"duration_minutes" binding:"omitempty,min=1"`
}

// UserListQuery filters and pages the staff listing.
// @Name HandlerUserListQuery
type UserListQuery struct {
	Keyword  string `form:"keyword" binding:"omitempty"`
	Status   string `form:"status" binding:"omitempty,oneof=pending active locked deactivated"`
	RoleID   string `form:"role_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=username email display_name created_at updated_at last_login_at"`
	SortDir  string `form:"sort_dir" binding:"omitempty,oneof=asc desc"`
}

// UserResponse is a staff user as the API exposes it.
// @Name HandlerUserResponse
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	DisplayName string     `json:"display_name"`
	Avatar      string     `json:"avatar,omitempty"`
	Status      string     `json:"status"`
	RoleIDs     []string   `json:"role_ids"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserListResponse is one page of staff users.
// @Name HandlerUserListResponse
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// CreateRoleRequest creates a tenant-scoped role. Code is the stable
// identifier referenced from permission checks.
// @Name HandlerCreateRoleRequest
type CreateRoleRequest struct {
	Code        string   `json:"code" binding:"required,min=2,max=50"`
	Name        string   `json:"name" binding:"required,min=1,max=100"`
	Description string   `json:"description" binding:"omitempty"`
	Permissions []string `json:"permissions" binding:"omitempty"`
	SortOrder   int      `json:"sort_order" binding:"omitempty"`
}

// UpdateRoleRequest patches role metadata. The code is immutable.
// @Name HandlerUpdateRoleRequest
type UpdateRoleRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty"`
	SortOrder   *int    `json:"sort_order" binding:"omitempty"`
}

// SetPermissionsRequest replaces a role's permission set wholesale.
// @Name HandlerSetPermissionsRequest
type SetPermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

// RoleListQuery filters and pages the role listing.
// @Name HandlerRoleListQuery
type RoleListQuery struct {
	Keyword      string `form:"keyword" binding:"omitempty"`
	IsEnabled    *bool  `form:"is_enabled" binding:"omitempty"`
	IsSystemRole *bool  `form:"is_system_role" binding:"omitempty"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RoleResponse is a role as the API exposes it. UserCount is filled only
// on listings that request it.
// @Name HandlerRoleResponse
type RoleResponse struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsSystemRole bool      `json:"is_system_role"`
	IsEnabled    bool      `json:"is_enabled"`
	SortOrder    int       `json:"sort_order"`
	Permissions  []string  `json:"permissions"`
	UserCount    int64     `json:"user_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleListResponse is one page of roles.
// @Name HandlerRoleListResponse
type RoleListResponse struct {
	Roles      []RoleResponse `json:"roles"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// PermissionResponse describes a single permission in the catalog.
// @Name HandlerPermissionResponse
type PermissionResponse struct {
	Code        string `json:"code"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// PermissionListResponse lists the permission codes known to the system.
// @Name HandlerPermissionListResponse
type PermissionListResponse struct {
	Permissions []string `json:"permissions"`
}
