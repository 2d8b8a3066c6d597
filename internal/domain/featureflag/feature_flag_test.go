package featureflag

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureFlag(t *testing.T) {
	userID := uuid.New()

	t.Run("valid boolean flag", func(t *testing.T) {
		flag, err := NewFeatureFlag("online_booking", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), &userID)
		require.NoError(t, err)
		assert.Equal(t, "online_booking", flag.Key)
		assert.Equal(t, "Online Booking", flag.Name)
		assert.Equal(t, FlagTypeBoolean, flag.Type)
		assert.Equal(t, FlagStatusDisabled, flag.Status)
		assert.False(t, flag.DefaultValue.Enabled)
		assert.Equal(t, &userID, flag.CreatedBy)
		assert.Equal(t, &userID, flag.UpdatedBy)
		assert.NotEqual(t, uuid.Nil, flag.ID)
		assert.Equal(t, 1, flag.Version)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("key is lowercased", func(t *testing.T) {
		flag, err := NewFeatureFlag("ONLINE_BOOKING", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		require.NoError(t, err)
		assert.Equal(t, "online_booking", flag.Key)
	})

	t.Run("invalid key - empty", func(t *testing.T) {
		_, err := NewFeatureFlag("", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		assert.Error(t, err)
	})

	t.Run("invalid key - too long", func(t *testing.T) {
		longKey := make([]byte, 101)
		for i := range longKey {
			longKey[i] = 'a'
		}
		_, err := NewFeatureFlag(string(longKey), "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		assert.Error(t, err)
	})

	t.Run("invalid key - starts with number", func(t *testing.T) {
		_, err := NewFeatureFlag("1booking", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		assert.Error(t, err)
	})

	t.Run("invalid key - invalid characters", func(t *testing.T) {
		_, err := NewFeatureFlag("online booking", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		assert.Error(t, err)
	})

	t.Run("valid key with dots and hyphens", func(t *testing.T) {
		flag, err := NewFeatureFlag("billing.retry-schedule_v2", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		require.NoError(t, err)
		assert.Equal(t, "billing.retry-schedule_v2", flag.Key)
	})

	t.Run("invalid name - empty", func(t *testing.T) {
		_, err := NewFeatureFlag("online_booking", "", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		assert.Error(t, err)
	})

	t.Run("invalid name - too long", func(t *testing.T) {
		longName := make([]byte, 201)
		for i := range longName {
			longName[i] = 'a'
		}
		_, err := NewFeatureFlag("online_booking", string(longName), FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		assert.Error(t, err)
	})

	t.Run("invalid flag type", func(t *testing.T) {
		_, err := NewFeatureFlag("online_booking", "Online Booking", FlagType("invalid"), NewBooleanFlagValue(false), nil)
		assert.Error(t, err)
	})
}

func TestNewBooleanFlag(t *testing.T) {
	flag, err := NewBooleanFlag("towel_service", "Towel Service", true, nil)
	require.NoError(t, err)
	assert.Equal(t, FlagTypeBoolean, flag.Type)
	assert.True(t, flag.DefaultValue.Enabled)
}

func TestNewPercentageFlag(t *testing.T) {
	flag, err := NewPercentageFlag("sauna_rollout", "Sauna Rollout", nil)
	require.NoError(t, err)
	assert.Equal(t, FlagTypePercentage, flag.Type)
}

func TestNewVariantFlag(t *testing.T) {
	flag, err := NewVariantFlag("pricing_page", "Pricing Page", "control", nil)
	require.NoError(t, err)
	assert.Equal(t, FlagTypeVariant, flag.Type)
	assert.Equal(t, "control", flag.DefaultValue.Variant)
}

func TestFeatureFlag_Getters(t *testing.T) {
	userID := uuid.New()
	flag, _ := NewFeatureFlag("online_booking", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(true), &userID)
	flag.Description = "Members can book classes from the app"
	flag.Tags = []string{"billing", "beta"}
	flag.Rules = []TargetingRule{
		{RuleID: "vip-members", Priority: 1, Percentage: 100, Value: NewBooleanFlagValue(true)},
	}

	assert.Equal(t, "online_booking", flag.GetKey())
	assert.Equal(t, "Online Booking", flag.GetName())
	assert.Equal(t, "Members can book classes from the app", flag.GetDescription())
	assert.Equal(t, FlagTypeBoolean, flag.GetType())
	assert.Equal(t, FlagStatusDisabled, flag.GetStatus())
	assert.True(t, flag.GetDefaultValue().Enabled)
	assert.Equal(t, &userID, flag.GetCreatedBy())
	assert.Equal(t, &userID, flag.GetUpdatedBy())

	tags := flag.GetTags()
	assert.Equal(t, []string{"billing", "beta"}, tags)
	tags[0] = "modified"
	assert.Equal(t, "billing", flag.Tags[0])

	rules := flag.GetRules()
	assert.Len(t, rules, 1)
	rules[0].RuleID = "modified"
	assert.Equal(t, "vip-members", flag.Rules[0].RuleID)
}

func TestFeatureFlag_GetTags_NilTags(t *testing.T) {
	flag := &FeatureFlag{}
	tags := flag.GetTags()
	assert.NotNil(t, tags)
	assert.Len(t, tags, 0)
}

func TestFeatureFlag_GetRules_NilRules(t *testing.T) {
	flag := &FeatureFlag{}
	rules := flag.GetRules()
	assert.NotNil(t, rules)
	assert.Len(t, rules, 0)
}

func TestFeatureFlag_StatusChecks(t *testing.T) {
	flag, _ := NewFeatureFlag("online_booking", "Online Booking", FlagTypeBoolean, NewBooleanFlagValue(false), nil)

	// Initially disabled
	assert.True(t, flag.IsDisabled())
	assert.False(t, flag.IsEnabled())
	assert.False(t, flag.IsArchived())

	flag.Status = FlagStatusEnabled
	assert.True(t, flag.IsEnabled())
	assert.False(t, flag.IsDisabled())
	assert.False(t, flag.IsArchived())

	flag.Status = FlagStatusArchived
	assert.True(t, flag.IsArchived())
	assert.False(t, flag.IsEnabled())
	assert.False(t, flag.IsDisabled())
}

func TestFeatureFlag_TypeChecks(t *testing.T) {
	boolFlag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
	assert.True(t, boolFlag.IsBooleanType())
	assert.False(t, boolFlag.IsPercentageType())
	assert.False(t, boolFlag.IsVariantType())
	assert.False(t, boolFlag.IsUserSegmentType())

	pctFlag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypePercentage, NewBooleanFlagValue(false), nil)
	assert.True(t, pctFlag.IsPercentageType())

	varFlag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeVariant, NewBooleanFlagValue(false), nil)
	assert.True(t, varFlag.IsVariantType())

	segFlag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeUserSegment, NewBooleanFlagValue(false), nil)
	assert.True(t, segFlag.IsUserSegmentType())
}

func TestFeatureFlag_HasRules(t *testing.T) {
	flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
	assert.False(t, flag.HasRules())

	flag.Rules = []TargetingRule{{RuleID: "vip-members"}}
	assert.True(t, flag.HasRules())
}

func TestFeatureFlag_HasTags(t *testing.T) {
	flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
	assert.False(t, flag.HasTags())

	flag.Tags = []string{"billing"}
	assert.True(t, flag.HasTags())
}

func TestFeatureFlag_HasTag(t *testing.T) {
	flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
	flag.Tags = []string{"billing", "beta"}

	assert.True(t, flag.HasTag("billing"))
	assert.True(t, flag.HasTag("BILLING"))
	assert.False(t, flag.HasTag("pilot"))
}

func TestFeatureFlag_Enable(t *testing.T) {
	userID := uuid.New()

	t.Run("enable disabled flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.ClearDomainEvents()

		err := flag.Enable(&userID)
		assert.NoError(t, err)
		assert.True(t, flag.IsEnabled())
		assert.Equal(t, &userID, flag.UpdatedBy)
		assert.Equal(t, 2, flag.Version)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("enable already enabled flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Enable(nil)
		err := flag.Enable(nil)
		assert.Error(t, err)
	})

	t.Run("enable archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.Status = FlagStatusArchived
		err := flag.Enable(nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_Disable(t *testing.T) {
	userID := uuid.New()

	t.Run("disable enabled flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Enable(nil)
		flag.ClearDomainEvents()

		err := flag.Disable(&userID)
		assert.NoError(t, err)
		assert.True(t, flag.IsDisabled())
		assert.Equal(t, &userID, flag.UpdatedBy)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("disable already disabled flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.Disable(nil)
		assert.Error(t, err)
	})

	t.Run("disable archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.Status = FlagStatusArchived
		err := flag.Disable(nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_Archive(t *testing.T) {
	userID := uuid.New()

	t.Run("archive disabled flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.ClearDomainEvents()

		err := flag.Archive(&userID)
		assert.NoError(t, err)
		assert.True(t, flag.IsArchived())
		assert.Equal(t, &userID, flag.UpdatedBy)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("archive enabled flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Enable(nil)
		err := flag.Archive(nil)
		assert.NoError(t, err)
		assert.True(t, flag.IsArchived())
	})

	t.Run("archive already archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		err := flag.Archive(nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_Update(t *testing.T) {
	userID := uuid.New()

	t.Run("valid update", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.ClearDomainEvents()

		err := flag.Update("Online Class Booking", "Booking from the member app", &userID)
		assert.NoError(t, err)
		assert.Equal(t, "Online Class Booking", flag.Name)
		assert.Equal(t, "Booking from the member app", flag.Description)
		assert.Equal(t, &userID, flag.UpdatedBy)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("update archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		err := flag.Update("Online Class Booking", "Booking from the member app", nil)
		assert.Error(t, err)
	})

	t.Run("update with empty name", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.Update("", "Description", nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_SetDefault(t *testing.T) {
	userID := uuid.New()

	t.Run("valid set default", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.ClearDomainEvents()

		err := flag.SetDefault(NewBooleanFlagValue(true), &userID)
		assert.NoError(t, err)
		assert.True(t, flag.DefaultValue.Enabled)
		assert.Equal(t, &userID, flag.UpdatedBy)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("set default on archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		err := flag.SetDefault(NewBooleanFlagValue(true), nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_AddRule(t *testing.T) {
	userID := uuid.New()

	t.Run("add valid rule", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.ClearDomainEvents()

		rule, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		err := flag.AddRule(rule, &userID)
		assert.NoError(t, err)
		assert.Len(t, flag.Rules, 1)
		assert.Equal(t, "vip-members", flag.Rules[0].RuleID)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("add rule to archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		rule, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		err := flag.AddRule(rule, nil)
		assert.Error(t, err)
	})

	t.Run("add duplicate rule ID", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule1, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		_ = flag.AddRule(rule1, nil)
		rule2, _ := NewTargetingRule("vip-members", 2, nil, NewBooleanFlagValue(false))
		err := flag.AddRule(rule2, nil)
		assert.Error(t, err)
	})

	t.Run("rules sorted by priority", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule1, _ := NewTargetingRule("vip-members", 10, nil, NewBooleanFlagValue(true))
		rule2, _ := NewTargetingRule("staff", 5, nil, NewBooleanFlagValue(false))
		rule3, _ := NewTargetingRule("beta-cohort", 1, nil, NewBooleanFlagValue(true))
		_ = flag.AddRule(rule1, nil)
		_ = flag.AddRule(rule2, nil)
		_ = flag.AddRule(rule3, nil)

		assert.Equal(t, "beta-cohort", flag.Rules[0].RuleID)
		assert.Equal(t, "staff", flag.Rules[1].RuleID)
		assert.Equal(t, "vip-members", flag.Rules[2].RuleID)
	})
}

func TestFeatureFlag_RemoveRule(t *testing.T) {
	userID := uuid.New()

	t.Run("remove existing rule", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		_ = flag.AddRule(rule, nil)
		flag.ClearDomainEvents()

		err := flag.RemoveRule("vip-members", &userID)
		assert.NoError(t, err)
		assert.Len(t, flag.Rules, 0)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("remove non-existing rule", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.RemoveRule("nonexistent", nil)
		assert.Error(t, err)
	})

	t.Run("remove rule from archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		_ = flag.AddRule(rule, nil)
		_ = flag.Archive(nil)
		err := flag.RemoveRule("vip-members", nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_UpdateRule(t *testing.T) {
	t.Run("update existing rule", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		_ = flag.AddRule(rule, nil)
		flag.ClearDomainEvents()

		updatedRule, _ := NewTargetingRuleWithPercentage("vip-members", 5, nil, NewBooleanFlagValue(false), 50)
		err := flag.UpdateRule(updatedRule, nil)
		assert.NoError(t, err)
		assert.Equal(t, 5, flag.Rules[0].Priority)
		assert.Equal(t, 50, flag.Rules[0].Percentage)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("update non-existing rule", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule, _ := NewTargetingRule("nonexistent", 1, nil, NewBooleanFlagValue(true))
		err := flag.UpdateRule(rule, nil)
		assert.Error(t, err)
	})

	t.Run("update rule on archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		_ = flag.AddRule(rule, nil)
		_ = flag.Archive(nil)
		err := flag.UpdateRule(rule, nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_ClearRules(t *testing.T) {
	t.Run("clear rules", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule1, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		rule2, _ := NewTargetingRule("staff", 2, nil, NewBooleanFlagValue(false))
		_ = flag.AddRule(rule1, nil)
		_ = flag.AddRule(rule2, nil)
		flag.ClearDomainEvents()

		err := flag.ClearRules(nil)
		assert.NoError(t, err)
		assert.Len(t, flag.Rules, 0)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("clear rules on archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		err := flag.ClearRules(nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_SetTags(t *testing.T) {
	t.Run("set tags", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.SetTags([]string{"Billing", "BETA", "pilot"}, nil)
		assert.NoError(t, err)
		assert.Equal(t, []string{"billing", "beta", "pilot"}, flag.Tags)
	})

	t.Run("set tags deduplicates", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.SetTags([]string{"billing", "BILLING", "Billing"}, nil)
		assert.NoError(t, err)
		assert.Len(t, flag.Tags, 1)
	})

	t.Run("set tags filters empty", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.SetTags([]string{"billing", "", "  ", "beta"}, nil)
		assert.NoError(t, err)
		assert.Equal(t, []string{"billing", "beta"}, flag.Tags)
	})

	t.Run("set tags on archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		err := flag.SetTags([]string{"billing"}, nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_AddTag(t *testing.T) {
	t.Run("add tag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.AddTag("billing", nil)
		assert.NoError(t, err)
		assert.Contains(t, flag.Tags, "billing")
	})

	t.Run("add duplicate tag is noop", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.AddTag("billing", nil)
		err := flag.AddTag("BILLING", nil)
		assert.NoError(t, err)
		assert.Len(t, flag.Tags, 1)
	})

	t.Run("add empty tag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.AddTag("", nil)
		assert.Error(t, err)
	})

	t.Run("add tag to archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		err := flag.AddTag("billing", nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_RemoveTag(t *testing.T) {
	t.Run("remove tag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.AddTag("billing", nil)
		_ = flag.AddTag("beta", nil)

		err := flag.RemoveTag("billing", nil)
		assert.NoError(t, err)
		assert.NotContains(t, flag.Tags, "billing")
		assert.Contains(t, flag.Tags, "beta")
	})

	t.Run("remove non-existing tag is noop", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.RemoveTag("nonexistent", nil)
		assert.NoError(t, err)
	})

	t.Run("remove tag from archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.AddTag("billing", nil)
		_ = flag.Archive(nil)
		err := flag.RemoveTag("billing", nil)
		assert.Error(t, err)
	})
}

func TestFeatureFlag_GetRuleByID(t *testing.T) {
	flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
	rule1, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
	rule2, _ := NewTargetingRule("staff", 2, nil, NewBooleanFlagValue(false))
	_ = flag.AddRule(rule1, nil)
	_ = flag.AddRule(rule2, nil)

	r := flag.GetRuleByID("vip-members")
	assert.NotNil(t, r)
	assert.Equal(t, "vip-members", r.RuleID)

	r = flag.GetRuleByID("nonexistent")
	assert.Nil(t, r)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid simple key", "booking", false},
		{"valid with underscore", "online_booking", false},
		{"valid with hyphen", "online-booking", false},
		{"valid with dot", "online.booking", false},
		{"valid with number", "booking123", false},
		{"empty key", "", true},
		{"starts with number", "123booking", true},
		{"has space", "online booking", true},
		{"has uppercase", "Online_Booking", false},
		{"too long", string(make([]byte, 101)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeatureFlag_ValidateRules(t *testing.T) {
	t.Run("valid rules", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule1, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		rule2, _ := NewTargetingRule("staff", 2, nil, NewBooleanFlagValue(false))
		flag.Rules = []TargetingRule{rule1, rule2}

		err := flag.ValidateRules()
		assert.NoError(t, err)
	})

	t.Run("duplicate rule IDs", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		rule1, _ := NewTargetingRule("vip-members", 1, nil, NewBooleanFlagValue(true))
		rule2, _ := NewTargetingRule("vip-members", 2, nil, NewBooleanFlagValue(false))
		flag.Rules = []TargetingRule{rule1, rule2}

		err := flag.ValidateRules()
		assert.Error(t, err)
	})

	t.Run("invalid rule", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.Rules = []TargetingRule{{RuleID: "", Priority: 1, Percentage: 100}}

		err := flag.ValidateRules()
		assert.Error(t, err)
	})
}

func TestRequiredPlan_IsValid(t *testing.T) {
	tests := []struct {
		plan    RequiredPlan
		isValid bool
	}{
		{RequiredPlanNone, true},
		{RequiredPlanFree, true},
		{RequiredPlanBasic, true},
		{RequiredPlanPro, true},
		{RequiredPlanEnterprise, true},
		{RequiredPlan("invalid"), false},
		{RequiredPlan("premium"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.plan.IsValid())
		})
	}
}

func TestRequiredPlan_MeetsPlanRequirement(t *testing.T) {
	tests := []struct {
		name         string
		requiredPlan RequiredPlan
		tenantPlan   string
		expected     bool
	}{
		{"no restriction - free tenant", RequiredPlanNone, "free", true},
		{"no restriction - enterprise tenant", RequiredPlanNone, "enterprise", true},
		{"empty restriction - free tenant", RequiredPlan(""), "free", true},

		// Free plan requirement
		{"free required - free tenant", RequiredPlanFree, "free", true},
		{"free required - basic tenant", RequiredPlanFree, "basic", true},
		{"free required - pro tenant", RequiredPlanFree, "pro", true},
		{"free required - enterprise tenant", RequiredPlanFree, "enterprise", true},

		// Basic plan requirement
		{"basic required - free tenant", RequiredPlanBasic, "free", false},
		{"basic required - basic tenant", RequiredPlanBasic, "basic", true},
		{"basic required - pro tenant", RequiredPlanBasic, "pro", true},
		{"basic required - enterprise tenant", RequiredPlanBasic, "enterprise", true},

		// Pro plan requirement
		{"pro required - free tenant", RequiredPlanPro, "free", false},
		{"pro required - basic tenant", RequiredPlanPro, "basic", false},
		{"pro required - pro tenant", RequiredPlanPro, "pro", true},
		{"pro required - enterprise tenant", RequiredPlanPro, "enterprise", true},

		// Enterprise plan requirement
		{"enterprise required - free tenant", RequiredPlanEnterprise, "free", false},
		{"enterprise required - basic tenant", RequiredPlanEnterprise, "basic", false},
		{"enterprise required - pro tenant", RequiredPlanEnterprise, "pro", false},
		{"enterprise required - enterprise tenant", RequiredPlanEnterprise, "enterprise", true},

		// Case insensitivity
		{"case insensitive - PRO tenant", RequiredPlanBasic, "PRO", true},
		{"case insensitive - Enterprise tenant", RequiredPlanPro, "Enterprise", true},

		// Unknown tenant plan defaults to free
		{"unknown tenant plan", RequiredPlanBasic, "unknown", false},
		{"empty tenant plan", RequiredPlanBasic, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.requiredPlan.MeetsPlanRequirement(tt.tenantPlan)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFeatureFlag_RequiredPlan(t *testing.T) {
	userID := uuid.New()

	t.Run("new flag has no plan restriction", func(t *testing.T) {
		flag, err := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		require.NoError(t, err)
		assert.Equal(t, RequiredPlanNone, flag.GetRequiredPlan())
		assert.False(t, flag.HasPlanRestriction())
	})

	t.Run("set required plan", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		flag.ClearDomainEvents()

		err := flag.SetRequiredPlan(RequiredPlanPro, &userID)
		assert.NoError(t, err)
		assert.Equal(t, RequiredPlanPro, flag.GetRequiredPlan())
		assert.True(t, flag.HasPlanRestriction())
		assert.Equal(t, &userID, flag.UpdatedBy)
		assert.Len(t, flag.GetDomainEvents(), 1)
	})

	t.Run("set invalid required plan", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		err := flag.SetRequiredPlan(RequiredPlan("invalid"), nil)
		assert.Error(t, err)
	})

	t.Run("cannot set required plan on archived flag", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.Archive(nil)
		err := flag.SetRequiredPlan(RequiredPlanPro, nil)
		assert.Error(t, err)
	})

	t.Run("meets plan requirement - no restriction", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		assert.True(t, flag.MeetsPlanRequirement("free"))
		assert.True(t, flag.MeetsPlanRequirement("enterprise"))
	})

	t.Run("meets plan requirement - with restriction", func(t *testing.T) {
		flag, _ := NewFeatureFlag("pool_access", "Pool Access", FlagTypeBoolean, NewBooleanFlagValue(false), nil)
		_ = flag.SetRequiredPlan(RequiredPlanPro, nil)

		assert.False(t, flag.MeetsPlanRequirement("free"))
		assert.False(t, flag.MeetsPlanRequirement("basic"))
		assert.True(t, flag.MeetsPlanRequirement("pro"))
		assert.True(t, flag.MeetsPlanRequirement("enterprise"))
	})
}

func TestAllRequiredPlans(t *testing.T) {
	plans := AllRequiredPlans()
	assert.Len(t, plans, 5)
	assert.Contains(t, plans, RequiredPlanNone)
	assert.Contains(t, plans, RequiredPlanFree)
	assert.Contains(t, plans, RequiredPlanBasic)
	assert.Contains(t, plans, RequiredPlanPro)
	assert.Contains(t, plans, RequiredPlanEnterprise)
}
