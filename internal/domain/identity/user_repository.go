package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists staff user accounts. All lookups are scoped to
// the tenant carried in the context by the persistence layer.
type UserRepository interface {
	Create(ctx context.Context, user *User) error

	Update(ctx context.Context, user *User) error

	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	FindByUsername(ctx context.Context, username string) (*User, error)

	FindByEmail(ctx context.Context, email string) (*User, error)

	FindByPhone(ctx context.Context, phone string) (*User, error)

	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	FindByRoleID(ctx context.Context, roleID uuid.UUID) ([]*User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// SaveUserRoles replaces the user's role assignments.
	SaveUserRoles(ctx context.Context, user *User) error

	LoadUserRoles(ctx context.Context, user *User) error

	Count(ctx context.Context) (int64, error)
}

// UserFilter narrows user list queries.
type UserFilter struct {
	// Keyword matches username, email or display name.
	Keyword string

	Status *UserStatus
	RoleID *uuid.UUID

	Page     int
	PageSize int
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// NewUserFilter returns the default newest-first, first-page filter.
func NewUserFilter() UserFilter {
	return UserFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

func (f UserFilter) WithKeyword(keyword string) UserFilter {
	f.Keyword = keyword
	return f
}

func (f UserFilter) WithStatus(status UserStatus) UserFilter {
	f.Status = &status
	return f
}

func (f UserFilter) WithRoleID(roleID uuid.UUID) UserFilter {
	f.RoleID = &roleID
	return f
}

func (f UserFilter) WithPagination(page, pageSize int) UserFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

func (f UserFilter) WithSorting(sortBy, sortOrder string) UserFilter {
	f.SortBy = sortBy
	f.SortOrder = sortOrder
	return f
}

// Offset converts the page number to a row offset.
func (f UserFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit caps the page size at 100.
func (f UserFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
