package identity

import (
	"context"

	"github.com/google/uuid"
)

// DepartmentRepository persists the department tree used for staff org
// structure and department-scoped data filtering. The tree is stored with a
// materialized path so subtree queries stay a single prefix match.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *Department) error

	Update(ctx context.Context, dept *Department) error

	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Department, error)

	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Department, error)

	FindByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*Department, error)

	// FindChildren returns the direct children only.
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]*Department, error)

	// FindDescendants returns the whole subtree below dept via its path.
	FindDescendants(ctx context.Context, dept *Department) ([]*Department, error)

	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Department, error)

	FindRootDepartments(ctx context.Context, tenantID uuid.UUID) ([]*Department, error)

	FindByManagerID(ctx context.Context, managerID uuid.UUID) ([]*Department, error)

	CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error)

	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// GetAllDepartmentIDsInSubtree returns the ids of the department and every
	// descendant; the department data scope expands with it.
	GetAllDepartmentIDsInSubtree(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error)
}
