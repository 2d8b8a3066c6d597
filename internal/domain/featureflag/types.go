package featureflag

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// FlagType classifies how a flag is evaluated.
type FlagType string

const (
	// FlagTypeBoolean is plain on/off.
	FlagTypeBoolean FlagType = "boolean"
	// FlagTypePercentage rolls out to a stable 0-100% slice of users.
	FlagTypePercentage FlagType = "percentage"
	// FlagTypeVariant assigns one of several variants, for A/B tests.
	FlagTypeVariant FlagType = "variant"
	// FlagTypeUserSegment matches targeting conditions on user attributes.
	FlagTypeUserSegment FlagType = "user_segment"
)

func AllFlagTypes() []FlagType {
	return []FlagType{
		FlagTypeBoolean,
		FlagTypePercentage,
		FlagTypeVariant,
		FlagTypeUserSegment,
	}
}

func (t FlagType) IsValid() bool {
	switch t {
	case FlagTypeBoolean, FlagTypePercentage, FlagTypeVariant, FlagTypeUserSegment:
		return true
	default:
		return false
	}
}

func (t FlagType) String() string {
	return string(t)
}

func (t *FlagType) Scan(value any) error {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("featureflag: cannot scan type %T into FlagType", value)
	}
	*t = FlagType(strings.ToLower(s))
	if !t.IsValid() {
		return fmt.Errorf("featureflag: invalid flag type: %s", s)
	}
	return nil
}

func (t FlagType) Value() (driver.Value, error) {
	return string(t), nil
}

// FlagStatus is the lifecycle state of a flag.
type FlagStatus string

const (
	FlagStatusEnabled FlagStatus = "enabled"
	// FlagStatusDisabled short-circuits evaluation to the default value.
	FlagStatusDisabled FlagStatus = "disabled"
	// FlagStatusArchived flags are kept for audit history only.
	FlagStatusArchived FlagStatus = "archived"
)

func AllFlagStatuses() []FlagStatus {
	return []FlagStatus{
		FlagStatusEnabled,
		FlagStatusDisabled,
		FlagStatusArchived,
	}
}

func (s FlagStatus) IsValid() bool {
	switch s {
	case FlagStatusEnabled, FlagStatusDisabled, FlagStatusArchived:
		return true
	default:
		return false
	}
}

func (s FlagStatus) String() string {
	return string(s)
}

func (s *FlagStatus) Scan(value any) error {
	if value == nil {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("featureflag: cannot scan type %T into FlagStatus", value)
	}
	*s = FlagStatus(strings.ToLower(str))
	if !s.IsValid() {
		return fmt.Errorf("featureflag: invalid flag status: %s", str)
	}
	return nil
}

func (s FlagStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// OverrideTargetType says whether an override pins a single staff user or
// a whole club tenant.
type OverrideTargetType string

const (
	OverrideTargetTypeUser   OverrideTargetType = "user"
	OverrideTargetTypeTenant OverrideTargetType = "tenant"
)

func AllOverrideTargetTypes() []OverrideTargetType {
	return []OverrideTargetType{
		OverrideTargetTypeUser,
		OverrideTargetTypeTenant,
	}
}

func (t OverrideTargetType) IsValid() bool {
	switch t {
	case OverrideTargetTypeUser, OverrideTargetTypeTenant:
		return true
	default:
		return false
	}
}

func (t OverrideTargetType) String() string {
	return string(t)
}

func (t *OverrideTargetType) Scan(value any) error {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("featureflag: cannot scan type %T into OverrideTargetType", value)
	}
	*t = OverrideTargetType(strings.ToLower(s))
	if !t.IsValid() {
		return fmt.Errorf("featureflag: invalid override target type: %s", s)
	}
	return nil
}

func (t OverrideTargetType) Value() (driver.Value, error) {
	return string(t), nil
}

// ConditionOperator compares a user attribute against a condition value.
type ConditionOperator string

const (
	ConditionOperatorEquals    ConditionOperator = "equals"
	ConditionOperatorNotEquals ConditionOperator = "not_equals"
	// ConditionOperatorIn and NotIn match against a list value.
	ConditionOperatorIn    ConditionOperator = "in"
	ConditionOperatorNotIn ConditionOperator = "not_in"
	// ConditionOperatorContains does substring matching on strings.
	ConditionOperatorContains ConditionOperator = "contains"
	// GreaterThan and LessThan compare numerically when both sides parse
	// as numbers, lexically otherwise.
	ConditionOperatorGreaterThan ConditionOperator = "greater_than"
	ConditionOperatorLessThan    ConditionOperator = "less_than"
)

func AllConditionOperators() []ConditionOperator {
	return []ConditionOperator{
		ConditionOperatorEquals,
		ConditionOperatorNotEquals,
		ConditionOperatorIn,
		ConditionOperatorNotIn,
		ConditionOperatorContains,
		ConditionOperatorGreaterThan,
		ConditionOperatorLessThan,
	}
}

func (o ConditionOperator) IsValid() bool {
	switch o {
	case ConditionOperatorEquals, ConditionOperatorNotEquals, ConditionOperatorIn,
		ConditionOperatorNotIn, ConditionOperatorContains, ConditionOperatorGreaterThan,
		ConditionOperatorLessThan:
		return true
	default:
		return false
	}
}

func (o ConditionOperator) String() string {
	return string(o)
}

func (o *ConditionOperator) Scan(value any) error {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("featureflag: cannot scan type %T into ConditionOperator", value)
	}
	*o = ConditionOperator(strings.ToLower(s))
	if !o.IsValid() {
		return fmt.Errorf("featureflag: invalid condition operator: %s", s)
	}
	return nil
}

func (o ConditionOperator) Value() (driver.Value, error) {
	return string(o), nil
}

// AuditAction is what happened to a flag, recorded in the audit trail.
type AuditAction string

const (
	AuditActionCreated         AuditAction = "created"
	AuditActionUpdated         AuditAction = "updated"
	AuditActionEnabled         AuditAction = "enabled"
	AuditActionDisabled        AuditAction = "disabled"
	AuditActionArchived        AuditAction = "archived"
	AuditActionOverrideAdded   AuditAction = "override_added"
	AuditActionOverrideRemoved AuditAction = "override_removed"
)

func AllAuditActions() []AuditAction {
	return []AuditAction{
		AuditActionCreated,
		AuditActionUpdated,
		AuditActionEnabled,
		AuditActionDisabled,
		AuditActionArchived,
		AuditActionOverrideAdded,
		AuditActionOverrideRemoved,
	}
}

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreated, AuditActionUpdated, AuditActionEnabled,
		AuditActionDisabled, AuditActionArchived, AuditActionOverrideAdded,
		AuditActionOverrideRemoved:
		return true
	default:
		return false
	}
}

func (a AuditAction) String() string {
	return string(a)
}

func (a *AuditAction) Scan(value any) error {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("featureflag: cannot scan type %T into AuditAction", value)
	}
	*a = AuditAction(strings.ToLower(s))
	if !a.IsValid() {
		return fmt.Errorf("featureflag: invalid audit action: %s", s)
	}
	return nil
}

func (a AuditAction) Value() (driver.Value, error) {
	return string(a), nil
}
