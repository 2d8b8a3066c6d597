package datascope

import (
	"context"
	"testing"

	"github.com/liyaqa/backend/internal/domain/identity"
	"github.com/liyaqa/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilter(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("creates filter with empty roles", func(t *testing.T) {
		ctx := context.Background()
		filter := NewFilter(ctx, []identity.Role{})

		assert.NotNil(t, filter)
		assert.Empty(t, filter.dataScopes)
	})

	t.Run("creates filter with user ID from context", func(t *testing.T) {
		ctx := context.Background()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())

		filter := NewFilter(ctx, []identity.Role{})

		assert.Equal(t, userID, filter.userID)
	})

	t.Run("merges data scopes from multiple roles", func(t *testing.T) {
		ctx := context.Background()

		role1, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds1, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		_ = role1.SetDataScope(*ds1)

		role2, _ := identity.NewRole(tenantID, "ROLE2", "Role 2")
		ds2, _ := identity.NewDataScope("subscription", identity.DataScopeAll)
		_ = role2.SetDataScope(*ds2)

		filter := NewFilter(ctx, []identity.Role{*role1, *role2})

		// Should have ALL scope (higher permission wins)
		assert.Equal(t, identity.DataScopeAll, filter.GetScopeType("subscription"))
	})

	t.Run("ignores disabled roles", func(t *testing.T) {
		ctx := context.Background()

		role1, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds1, _ := identity.NewDataScope("subscription", identity.DataScopeAll)
		_ = role1.SetDataScope(*ds1)
		_ = role1.Disable()

		role2, _ := identity.NewRole(tenantID, "ROLE2", "Role 2")
		ds2, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		_ = role2.SetDataScope(*ds2)

		filter := NewFilter(ctx, []identity.Role{*role1, *role2})

		// Role1 is disabled, so should use SELF from role2
		assert.Equal(t, identity.DataScopeSelf, filter.GetScopeType("subscription"))
	})
}

func TestFilter_GetScopeType(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns ALL for unconfigured resource", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})

		scopeType := filter.GetScopeType("unconfigured_resource")

		assert.Equal(t, identity.DataScopeAll, scopeType)
	})

	t.Run("returns configured scope type", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.Equal(t, identity.DataScopeSelf, filter.GetScopeType("subscription"))
	})
}

func TestFilter_HasScope(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns false for unconfigured resource", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})

		assert.False(t, filter.HasScope("unconfigured_resource"))
	})

	t.Run("returns true for configured resource", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.True(t, filter.HasScope("subscription"))
	})
}

func TestFilter_CanAccessAll(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns true for unconfigured resource", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})

		assert.True(t, filter.CanAccessAll("unconfigured_resource"))
	})

	t.Run("returns true for ALL scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds, _ := identity.NewDataScope("subscription", identity.DataScopeAll)
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.True(t, filter.CanAccessAll("subscription"))
	})

	t.Run("returns false for SELF scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.False(t, filter.CanAccessAll("subscription"))
	})
}

func TestFilter_IsOwner(t *testing.T) {
	userID := uuid.New()

	t.Run("returns false for nil createdBy", func(t *testing.T) {
		ctx := context.Background()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())

		filter := NewFilter(ctx, []identity.Role{})

		assert.False(t, filter.IsOwner(nil))
	})

	t.Run("returns false for nil userID", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})
		createdBy := uuid.New()

		assert.False(t, filter.IsOwner(&createdBy))
	})

	t.Run("returns true when user is owner", func(t *testing.T) {
		ctx := context.Background()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())

		filter := NewFilter(ctx, []identity.Role{})

		assert.True(t, filter.IsOwner(&userID))
	})

	t.Run("returns false when user is not owner", func(t *testing.T) {
		ctx := context.Background()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())

		filter := NewFilter(ctx, []identity.Role{})
		otherUser := uuid.New()

		assert.False(t, filter.IsOwner(&otherUser))
	})
}

func TestWithDataScopes(t *testing.T) {
	tenantID := uuid.New()

	t.Run("stores data scopes in context", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds1, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		ds2, _ := identity.NewDataScope("member", identity.DataScopeAll)
		_ = role.SetDataScope(*ds1)
		_ = role.SetDataScope(*ds2)

		ctx = WithDataScopes(ctx, []identity.Role{*role})

		scopes, ok := ctx.Value(ScopesKey).(map[string]identity.DataScope)
		require.True(t, ok)
		assert.Len(t, scopes, 2)
		assert.Equal(t, identity.DataScopeSelf, scopes["subscription"].ScopeType)
		assert.Equal(t, identity.DataScopeAll, scopes["member"].ScopeType)
	})
}

func TestNewFilterFromContext(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("creates filter from context scopes", func(t *testing.T) {
		ctx := context.Background()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())

		role, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		_ = role.SetDataScope(*ds)

		ctx = WithDataScopes(ctx, []identity.Role{*role})

		filter := NewFilterFromContext(ctx)

		assert.Equal(t, userID, filter.userID)
		assert.Equal(t, identity.DataScopeSelf, filter.GetScopeType("subscription"))
	})

	t.Run("handles missing scopes in context", func(t *testing.T) {
		filter := NewFilterFromContext(context.Background())

		assert.Empty(t, filter.dataScopes)
		assert.Equal(t, identity.DataScopeAll, filter.GetScopeType("any_resource"))
	})
}

func TestCompareScopeLevel(t *testing.T) {
	testCases := []struct {
		name     string
		a        identity.DataScopeType
		b        identity.DataScopeType
		expected int
	}{
		{"ALL > SELF", identity.DataScopeAll, identity.DataScopeSelf, 90},
		{"ALL > DEPARTMENT", identity.DataScopeAll, identity.DataScopeDepartment, 50},
		{"DEPARTMENT > SELF", identity.DataScopeDepartment, identity.DataScopeSelf, 40},
		{"SELF < ALL", identity.DataScopeSelf, identity.DataScopeAll, -90},
		{"SELF == SELF", identity.DataScopeSelf, identity.DataScopeSelf, 0},
		{"ALL == ALL", identity.DataScopeAll, identity.DataScopeAll, 0},
		{"CUSTOM > SELF", identity.DataScopeCustom, identity.DataScopeSelf, 30},
		{"DEPARTMENT > CUSTOM", identity.DataScopeDepartment, identity.DataScopeCustom, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := compareScopeLevel(tc.a, tc.b)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestMergeScopes(t *testing.T) {
	t.Run("merges empty lists", func(t *testing.T) {
		result := MergeScopes()
		assert.Empty(t, result)
	})

	t.Run("merges single list", func(t *testing.T) {
		ds1, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		ds2, _ := identity.NewDataScope("member", identity.DataScopeAll)

		result := MergeScopes([]identity.DataScope{*ds1, *ds2})

		assert.Len(t, result, 2)
		assert.Equal(t, identity.DataScopeSelf, result["subscription"].ScopeType)
		assert.Equal(t, identity.DataScopeAll, result["member"].ScopeType)
	})

	t.Run("merges multiple lists keeping higher permission", func(t *testing.T) {
		ds1, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		ds2, _ := identity.NewDataScope("subscription", identity.DataScopeAll)
		ds3, _ := identity.NewDataScope("member", identity.DataScopeSelf)

		result := MergeScopes(
			[]identity.DataScope{*ds1},
			[]identity.DataScope{*ds2, *ds3},
		)

		assert.Len(t, result, 2)
		assert.Equal(t, identity.DataScopeAll, result["subscription"].ScopeType)
		assert.Equal(t, identity.DataScopeSelf, result["member"].ScopeType)
	})

	t.Run("handles overlapping resources correctly", func(t *testing.T) {
		ds1, _ := identity.NewDataScope("subscription", identity.DataScopeDepartment)
		ds2, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		ds3, _ := identity.NewDataScope("subscription", identity.DataScopeAll)

		result := MergeScopes(
			[]identity.DataScope{*ds1},
			[]identity.DataScope{*ds2},
			[]identity.DataScope{*ds3},
		)

		assert.Len(t, result, 1)
		assert.Equal(t, identity.DataScopeAll, result["subscription"].ScopeType)
	})
}

func TestFilter_GetUserID(t *testing.T) {
	t.Run("returns user ID from context", func(t *testing.T) {
		userID := uuid.New()
		ctx := context.Background()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())

		filter := NewFilter(ctx, []identity.Role{})

		assert.Equal(t, userID, filter.GetUserID())
	})

	t.Run("returns nil UUID for missing user ID", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})

		assert.Equal(t, uuid.Nil, filter.GetUserID())
	})
}

func TestDataScopeScopeFromContext(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates GORM scope function", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "ROLE1", "Role 1")
		ds, _ := identity.NewDataScope("subscription", identity.DataScopeSelf)
		_ = role.SetDataScope(*ds)

		ctx = WithDataScopes(ctx, []identity.Role{*role})

		scopeFunc := DataScopeScopeFromContext(ctx, "subscription")

		assert.NotNil(t, scopeFunc)
	})
}

func TestFilter_getDefaultScopeField(t *testing.T) {
	filter := &Filter{}

	testCases := []struct {
		resource      string
		expectedField string
	}{
		{"member", "location_id"},
		{"subscription", "location_id"},
		{"invoice", "location_id"},
		{"payment", "location_id"},
		{"dunning_sequence", "location_id"},
		{"contract", "location_id"},
		{"receipt", ""},
		{"report", ""},
		{"unknown_resource", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.resource, func(t *testing.T) {
			field := filter.getDefaultScopeField(tc.resource)
			assert.Equal(t, tc.expectedField, field)
		})
	}
}

func TestFilter_CustomScopeWithField(t *testing.T) {
	tenantID := uuid.New()
	locationID := uuid.New()

	t.Run("uses custom scope field when specified", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds, _ := identity.NewCustomDataScopeWithField("member", "location_id", []string{locationID.String()})
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		// Verify the filter has the correct scope field
		scopeType := filter.GetScopeType("member")
		assert.Equal(t, identity.DataScopeCustom, scopeType)
	})

	t.Run("falls back to default field when scope field is empty", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds, _ := identity.NewCustomDataScope("subscription", []string{locationID.String()})
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		// The filter should use default field mapping
		defaultField := filter.getDefaultScopeField("subscription")
		assert.Equal(t, "location_id", defaultField)
	})
}

func TestCustomDataScopeWithField(t *testing.T) {
	t.Run("creates custom scope with field", func(t *testing.T) {
		ds, err := identity.NewCustomDataScopeWithField("member", "location_id", []string{"loc-1", "loc-2"})
		require.NoError(t, err)

		assert.Equal(t, "member", ds.Resource)
		assert.Equal(t, identity.DataScopeCustom, ds.ScopeType)
		assert.Equal(t, "location_id", ds.ScopeField)
		assert.Equal(t, []string{"loc-1", "loc-2"}, ds.ScopeValues)
	})

	t.Run("fails with empty scope field", func(t *testing.T) {
		_, err := identity.NewCustomDataScopeWithField("member", "", []string{"loc-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Scope field cannot be empty")
	})

	t.Run("fails with empty scope values", func(t *testing.T) {
		_, err := identity.NewCustomDataScopeWithField("member", "location_id", []string{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one scope value")
	})
}

// ============================================================================
// LOCATION scope tests.
// ============================================================================

func TestLocationDataScope(t *testing.T) {
	t.Run("creates location scope successfully", func(t *testing.T) {
		locationIDs := []string{"loc-001", "loc-002"}
		ds, err := identity.NewLocationDataScope("member", locationIDs)
		require.NoError(t, err)

		assert.Equal(t, "member", ds.Resource)
		assert.Equal(t, identity.DataScopeLocation, ds.ScopeType)
		assert.Equal(t, "location_id", ds.ScopeField)
		assert.Equal(t, locationIDs, ds.ScopeValues)
	})

	t.Run("fails with empty location IDs", func(t *testing.T) {
		_, err := identity.NewLocationDataScope("member", []string{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one location ID")
	})

	t.Run("fails with invalid resource", func(t *testing.T) {
		_, err := identity.NewLocationDataScope("", []string{"loc-001"})
		require.Error(t, err)
	})

	t.Run("makes defensive copy of location IDs", func(t *testing.T) {
		locationIDs := []string{"loc-001", "loc-002"}
		ds, err := identity.NewLocationDataScope("member", locationIDs)
		require.NoError(t, err)

		// Modify original slice
		locationIDs[0] = "modified"

		// DataScope should not be affected
		assert.Equal(t, "loc-001", ds.ScopeValues[0])
	})
}

func TestFilter_LocationScope(t *testing.T) {
	tenantID := uuid.New()
	locationID1 := uuid.New().String()
	locationID2 := uuid.New().String()

	t.Run("filters by location_id for LOCATION scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds, _ := identity.NewLocationDataScope("member", []string{locationID1, locationID2})
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		// Verify scope type
		assert.Equal(t, identity.DataScopeLocation, filter.GetScopeType("member"))
	})

	t.Run("returns empty result when no locations assigned", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		// Create a scope manually with empty values (edge case)
		ds := identity.DataScope{
			Resource:    "member",
			ScopeType:   identity.DataScopeLocation,
			ScopeField:  "location_id",
			ScopeValues: []string{},
		}
		_ = role.SetDataScope(ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.Equal(t, identity.DataScopeLocation, filter.GetScopeType("member"))
	})

	t.Run("location scope takes precedence over lower scopes", func(t *testing.T) {
		ctx := context.Background()

		// Role 1: SELF scope
		role1, _ := identity.NewRole(tenantID, "SALES", "Salesperson")
		ds1, _ := identity.NewDataScope("member", identity.DataScopeSelf)
		_ = role1.SetDataScope(*ds1)

		// Role 2: LOCATION scope
		role2, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds2, _ := identity.NewLocationDataScope("member", []string{locationID1})
		_ = role2.SetDataScope(*ds2)

		filter := NewFilter(ctx, []identity.Role{*role1, *role2})

		// LOCATION (45) > SELF (10)
		assert.Equal(t, identity.DataScopeLocation, filter.GetScopeType("member"))
	})

	t.Run("ALL scope takes precedence over LOCATION scope", func(t *testing.T) {
		ctx := context.Background()

		// Role 1: LOCATION scope
		role1, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds1, _ := identity.NewLocationDataScope("member", []string{locationID1})
		_ = role1.SetDataScope(*ds1)

		// Role 2: ALL scope (e.g., Manager role)
		role2, _ := identity.NewRole(tenantID, "MANAGER", "Manager")
		ds2, _ := identity.NewDataScope("member", identity.DataScopeAll)
		_ = role2.SetDataScope(*ds2)

		filter := NewFilter(ctx, []identity.Role{*role1, *role2})

		// ALL (100) > LOCATION (45)
		assert.Equal(t, identity.DataScopeAll, filter.GetScopeType("member"))
	})
}

func TestFilter_GetLocationIDs(t *testing.T) {
	tenantID := uuid.New()
	locationID1 := uuid.New().String()
	locationID2 := uuid.New().String()

	t.Run("returns location IDs for LOCATION scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds, _ := identity.NewLocationDataScope("member", []string{locationID1, locationID2})
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		locationIDs := filter.GetLocationIDs("member")
		assert.Len(t, locationIDs, 2)
		assert.Contains(t, locationIDs, locationID1)
		assert.Contains(t, locationIDs, locationID2)
	})

	t.Run("returns nil for non-LOCATION scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "MANAGER", "Manager")
		ds, _ := identity.NewDataScope("member", identity.DataScopeAll)
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.Nil(t, filter.GetLocationIDs("member"))
	})

	t.Run("returns nil for unconfigured resource", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})

		assert.Nil(t, filter.GetLocationIDs("member"))
	})
}

func TestFilter_HasLocationAccess(t *testing.T) {
	tenantID := uuid.New()
	locationID1 := uuid.New().String()
	locationID2 := uuid.New().String()
	locationID3 := uuid.New().String()

	t.Run("returns true for location in scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds, _ := identity.NewLocationDataScope("member", []string{locationID1, locationID2})
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.True(t, filter.HasLocationAccess("member", locationID1))
		assert.True(t, filter.HasLocationAccess("member", locationID2))
	})

	t.Run("returns false for location not in scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds, _ := identity.NewLocationDataScope("member", []string{locationID1, locationID2})
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.False(t, filter.HasLocationAccess("member", locationID3))
	})

	t.Run("returns true for ALL scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "MANAGER", "Manager")
		ds, _ := identity.NewDataScope("member", identity.DataScopeAll)
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.True(t, filter.HasLocationAccess("member", locationID1))
		assert.True(t, filter.HasLocationAccess("member", locationID3))
	})

	t.Run("returns true for unconfigured resource", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})

		assert.True(t, filter.HasLocationAccess("member", locationID1))
	})
}

func TestFilter_IsLocationScoped(t *testing.T) {
	tenantID := uuid.New()
	locationID := uuid.New().String()

	t.Run("returns true for LOCATION scope", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "LOCATION", "Location Manager")
		ds, _ := identity.NewLocationDataScope("member", []string{locationID})
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.True(t, filter.IsLocationScoped("member"))
	})

	t.Run("returns false for other scope types", func(t *testing.T) {
		ctx := context.Background()

		role, _ := identity.NewRole(tenantID, "MANAGER", "Manager")
		ds, _ := identity.NewDataScope("member", identity.DataScopeAll)
		_ = role.SetDataScope(*ds)

		filter := NewFilter(ctx, []identity.Role{*role})

		assert.False(t, filter.IsLocationScoped("member"))
	})

	t.Run("returns false for unconfigured resource", func(t *testing.T) {
		filter := NewFilter(context.Background(), []identity.Role{})

		assert.False(t, filter.IsLocationScoped("member"))
	})
}

func TestCompareScopeLevel_WithLocation(t *testing.T) {
	testCases := []struct {
		name     string
		a        identity.DataScopeType
		b        identity.DataScopeType
		expected int
	}{
		{"ALL > LOCATION", identity.DataScopeAll, identity.DataScopeLocation, 55},
		{"LOCATION < ALL", identity.DataScopeLocation, identity.DataScopeAll, -55},
		{"LOCATION > CUSTOM", identity.DataScopeLocation, identity.DataScopeCustom, 5},
		{"LOCATION > SELF", identity.DataScopeLocation, identity.DataScopeSelf, 35},
		{"DEPARTMENT > LOCATION", identity.DataScopeDepartment, identity.DataScopeLocation, 5},
		{"LOCATION == LOCATION", identity.DataScopeLocation, identity.DataScopeLocation, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := compareScopeLevel(tc.a, tc.b)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestIsResourceLocationScoped(t *testing.T) {
	t.Run("returns true for member-related resources", func(t *testing.T) {
		assert.True(t, IsResourceLocationScoped("member"))
		assert.True(t, IsResourceLocationScoped("subscription"))
		assert.True(t, IsResourceLocationScoped("invoice"))
		assert.True(t, IsResourceLocationScoped("payment"))
		assert.True(t, IsResourceLocationScoped("dunning_sequence"))
		assert.True(t, IsResourceLocationScoped("contract"))
	})

	t.Run("returns false for non-location resources", func(t *testing.T) {
		assert.False(t, IsResourceLocationScoped("receipt"))
		assert.False(t, IsResourceLocationScoped("report"))
		assert.False(t, IsResourceLocationScoped("user"))
		assert.False(t, IsResourceLocationScoped("role"))
		assert.False(t, IsResourceLocationScoped("unknown"))
	})
}

func TestCreateLocationScopesForRole(t *testing.T) {
	t.Run("creates scopes for all location resources", func(t *testing.T) {
		locationIDs := []string{"loc-001", "loc-002"}
		scopes, err := CreateLocationScopesForRole(locationIDs)
		require.NoError(t, err)

		// Should have scopes for all location-related resources
		assert.Len(t, scopes, 6) // member, subscription, contract, invoice, payment, dunning_sequence

		// All scopes should be LOCATION type with correct location IDs
		resourcesFound := make(map[string]bool)
		for _, ds := range scopes {
			assert.Equal(t, identity.DataScopeLocation, ds.ScopeType)
			assert.Equal(t, "location_id", ds.ScopeField)
			assert.Equal(t, locationIDs, ds.ScopeValues)
			resourcesFound[ds.Resource] = true
		}

		// Verify all location resources are covered
		assert.True(t, resourcesFound["member"])
		assert.True(t, resourcesFound["subscription"])
		assert.True(t, resourcesFound["invoice"])
	})

	t.Run("returns nil for empty location IDs", func(t *testing.T) {
		scopes, err := CreateLocationScopesForRole([]string{})
		require.NoError(t, err)
		assert.Nil(t, scopes)
	})

	t.Run("returns nil for nil location IDs", func(t *testing.T) {
		scopes, err := CreateLocationScopesForRole(nil)
		require.NoError(t, err)
		assert.Nil(t, scopes)
	})
}

func TestWithLocationIDs(t *testing.T) {
	t.Run("stores location IDs in context", func(t *testing.T) {
		ctx := context.Background()
		locationIDs := []string{"loc-001", "loc-002"}

		ctx = WithLocationIDs(ctx, locationIDs)

		retrieved := GetLocationIDsFromContext(ctx)
		assert.Equal(t, locationIDs, retrieved)
	})

	t.Run("returns nil for context without location IDs", func(t *testing.T) {
		ctx := context.Background()

		retrieved := GetLocationIDsFromContext(ctx)
		assert.Nil(t, retrieved)
	})
}

func TestMergeScopes_WithLocation(t *testing.T) {
	locationID := uuid.New().String()

	t.Run("ALL takes precedence over LOCATION", func(t *testing.T) {
		dsLocation, _ := identity.NewLocationDataScope("member", []string{locationID})
		dsAll, _ := identity.NewDataScope("member", identity.DataScopeAll)

		result := MergeScopes(
			[]identity.DataScope{*dsLocation},
			[]identity.DataScope{*dsAll},
		)

		assert.Len(t, result, 1)
		assert.Equal(t, identity.DataScopeAll, result["member"].ScopeType)
	})

	t.Run("LOCATION takes precedence over SELF", func(t *testing.T) {
		dsLocation, _ := identity.NewLocationDataScope("member", []string{locationID})
		dsSelf, _ := identity.NewDataScope("member", identity.DataScopeSelf)

		result := MergeScopes(
			[]identity.DataScope{*dsSelf},
			[]identity.DataScope{*dsLocation},
		)

		assert.Len(t, result, 1)
		assert.Equal(t, identity.DataScopeLocation, result["member"].ScopeType)
	})

	t.Run("LOCATION takes precedence over CUSTOM", func(t *testing.T) {
		dsLocation, _ := identity.NewLocationDataScope("member", []string{locationID})
		dsCustom, _ := identity.NewCustomDataScope("member", []string{"value1"})

		result := MergeScopes(
			[]identity.DataScope{*dsCustom},
			[]identity.DataScope{*dsLocation},
		)

		assert.Len(t, result, 1)
		assert.Equal(t, identity.DataScopeLocation, result["member"].ScopeType)
	})
}
