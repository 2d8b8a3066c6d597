package identity

import (
	"context"

	"github.com/google/uuid"
)

// RoleFilter narrows role list queries.
type RoleFilter struct {
	Keyword      string // matches code and name
	IsEnabled    *bool
	IsSystemRole *bool
	Page         int
	Limit        int
}

// RoleRepository persists roles with their permissions and data scopes.
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error

	Update(ctx context.Context, role *Role) error

	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Role, error)

	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Role, error)

	FindAll(ctx context.Context, tenantID uuid.UUID, filter *RoleFilter) ([]*Role, error)

	Count(ctx context.Context, tenantID uuid.UUID, filter *RoleFilter) (int64, error)

	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Role, error)

	FindSystemRoles(ctx context.Context, tenantID uuid.UUID) ([]*Role, error)

	// SavePermissions replaces the role's permission set.
	SavePermissions(ctx context.Context, role *Role) error

	LoadPermissions(ctx context.Context, role *Role) error

	// SaveDataScopes replaces the role's data scope set.
	SaveDataScopes(ctx context.Context, role *Role) error

	LoadDataScopes(ctx context.Context, role *Role) error

	LoadPermissionsAndDataScopes(ctx context.Context, role *Role) error

	FindUsersWithRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)

	CountUsersWithRole(ctx context.Context, roleID uuid.UUID) (int64, error)

	FindRolesWithPermission(ctx context.Context, tenantID uuid.UUID, permissionCode string) ([]*Role, error)

	GetAllPermissionCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error)
}

// RoleWithUserCount pairs a role with its assignment count.
type RoleWithUserCount struct {
	Role      *Role
	UserCount int64
}

// PermissionSummary aggregates how a permission is used across roles.
type PermissionSummary struct {
	Code      string
	Resource  string
	Action    string
	RoleCount int64
	RoleCodes []string
}
