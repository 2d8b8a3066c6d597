package featureflag

import (
	"maps"
	"time"
)

// EvaluationReason records which branch of the evaluation produced the
// result; it surfaces in evaluation responses and the audit trail.
type EvaluationReason string

const (
	EvaluationReasonOverrideUser   EvaluationReason = "override_user"
	EvaluationReasonOverrideTenant EvaluationReason = "override_tenant"
	EvaluationReasonRuleMatch      EvaluationReason = "rule_match"
	EvaluationReasonPercentage     EvaluationReason = "percentage"
	EvaluationReasonDefault        EvaluationReason = "default"
	EvaluationReasonDisabled       EvaluationReason = "disabled"
	EvaluationReasonFlagNotFound   EvaluationReason = "flag_not_found"
	EvaluationReasonError          EvaluationReason = "error"
)

func (r EvaluationReason) String() string {
	return string(r)
}

// EvaluationContext carries everything targeting rules can see: the club
// tenant, the staff user and their role, the tenant's plan tier, and any
// free-form attributes the caller attaches.
type EvaluationContext struct {
	TenantID string `json:"tenant_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	UserRole string `json:"user_role,omitempty"`
	// UserPlan is the tenant's plan tier (free, basic, pro, enterprise).
	UserPlan       string         `json:"user_plan,omitempty"`
	UserAttributes map[string]any `json:"user_attributes,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Environment    string         `json:"environment,omitempty"`
}

// NewEvaluationContext stamps the context with the current time; the
// With* builders below copy rather than mutate so a base context can be
// shared across goroutines.
func NewEvaluationContext() *EvaluationContext {
	return &EvaluationContext{
		Timestamp:      time.Now(),
		UserAttributes: make(map[string]any),
	}
}

func (c *EvaluationContext) WithTenant(tenantID string) *EvaluationContext {
	return &EvaluationContext{
		TenantID:       tenantID,
		UserID:         c.UserID,
		UserRole:       c.UserRole,
		UserPlan:       c.UserPlan,
		UserAttributes: copyMap(c.UserAttributes),
		RequestID:      c.RequestID,
		Timestamp:      c.Timestamp,
		Environment:    c.Environment,
	}
}

func (c *EvaluationContext) WithUser(userID string) *EvaluationContext {
	return &EvaluationContext{
		TenantID:       c.TenantID,
		UserID:         userID,
		UserRole:       c.UserRole,
		UserPlan:       c.UserPlan,
		UserAttributes: copyMap(c.UserAttributes),
		RequestID:      c.RequestID,
		Timestamp:      c.Timestamp,
		Environment:    c.Environment,
	}
}

func (c *EvaluationContext) WithUserRole(role string) *EvaluationContext {
	return &EvaluationContext{
		TenantID:       c.TenantID,
		UserID:         c.UserID,
		UserRole:       role,
		UserPlan:       c.UserPlan,
		UserAttributes: copyMap(c.UserAttributes),
		RequestID:      c.RequestID,
		Timestamp:      c.Timestamp,
		Environment:    c.Environment,
	}
}

func (c *EvaluationContext) WithUserPlan(plan string) *EvaluationContext {
	return &EvaluationContext{
		TenantID:       c.TenantID,
		UserID:         c.UserID,
		UserRole:       c.UserRole,
		UserPlan:       plan,
		UserAttributes: copyMap(c.UserAttributes),
		RequestID:      c.RequestID,
		Timestamp:      c.Timestamp,
		Environment:    c.Environment,
	}
}

func (c *EvaluationContext) WithAttribute(key string, value any) *EvaluationContext {
	newAttrs := copyMap(c.UserAttributes)
	newAttrs[key] = value
	return &EvaluationContext{
		TenantID:       c.TenantID,
		UserID:         c.UserID,
		UserRole:       c.UserRole,
		UserPlan:       c.UserPlan,
		UserAttributes: newAttrs,
		RequestID:      c.RequestID,
		Timestamp:      c.Timestamp,
		Environment:    c.Environment,
	}
}

func (c *EvaluationContext) WithRequestID(requestID string) *EvaluationContext {
	return &EvaluationContext{
		TenantID:       c.TenantID,
		UserID:         c.UserID,
		UserRole:       c.UserRole,
		UserPlan:       c.UserPlan,
		UserAttributes: copyMap(c.UserAttributes),
		RequestID:      requestID,
		Timestamp:      c.Timestamp,
		Environment:    c.Environment,
	}
}

func (c *EvaluationContext) WithEnvironment(env string) *EvaluationContext {
	return &EvaluationContext{
		TenantID:       c.TenantID,
		UserID:         c.UserID,
		UserRole:       c.UserRole,
		UserPlan:       c.UserPlan,
		UserAttributes: copyMap(c.UserAttributes),
		RequestID:      c.RequestID,
		Timestamp:      c.Timestamp,
		Environment:    env,
	}
}

func (c *EvaluationContext) WithTimestamp(timestamp time.Time) *EvaluationContext {
	return &EvaluationContext{
		TenantID:       c.TenantID,
		UserID:         c.UserID,
		UserRole:       c.UserRole,
		UserPlan:       c.UserPlan,
		UserAttributes: copyMap(c.UserAttributes),
		RequestID:      c.RequestID,
		Timestamp:      timestamp,
		Environment:    c.Environment,
	}
}

func (c *EvaluationContext) GetAttribute(key string) (any, bool) {
	if c.UserAttributes == nil {
		return nil, false
	}
	val, ok := c.UserAttributes[key]
	return val, ok
}

// GetAttributeString returns "" for missing or non-string attributes.
func (c *EvaluationContext) GetAttributeString(key string) string {
	val, ok := c.GetAttribute(key)
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

func (c *EvaluationContext) HasUser() bool {
	return c.UserID != ""
}

func (c *EvaluationContext) HasTenant() bool {
	return c.TenantID != ""
}

// EvaluationResult is what an evaluation returns to the caller.
type EvaluationResult struct {
	Key     string           `json:"key"`
	Enabled bool             `json:"enabled"`
	Variant string           `json:"variant,omitempty"`
	Value   FlagValue        `json:"value"`
	Reason  EvaluationReason `json:"reason"`
	// RuleID identifies the targeting rule that matched, when one did.
	RuleID      string    `json:"rule_id,omitempty"`
	FlagVersion int       `json:"flag_version"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	Error       error     `json:"-"`
}

func NewEvaluationResult(key string, value FlagValue, reason EvaluationReason, flagVersion int) EvaluationResult {
	return EvaluationResult{
		Key:         key,
		Enabled:     value.Enabled,
		Variant:     value.Variant,
		Value:       value,
		Reason:      reason,
		FlagVersion: flagVersion,
		EvaluatedAt: time.Now(),
	}
}

func NewDisabledResult(key string, defaultValue FlagValue, flagVersion int) EvaluationResult {
	return EvaluationResult{
		Key:         key,
		Enabled:     false,
		Variant:     defaultValue.Variant,
		Value:       NewBooleanFlagValue(false),
		Reason:      EvaluationReasonDisabled,
		FlagVersion: flagVersion,
		EvaluatedAt: time.Now(),
	}
}

// NewFlagNotFoundResult is the fail-closed answer for an unknown key.
func NewFlagNotFoundResult(key string) EvaluationResult {
	return EvaluationResult{
		Key:         key,
		Enabled:     false,
		Value:       NewBooleanFlagValue(false),
		Reason:      EvaluationReasonFlagNotFound,
		FlagVersion: 0,
		EvaluatedAt: time.Now(),
	}
}

// NewErrorResult fails closed and carries the cause for logging.
func NewErrorResult(key string, err error) EvaluationResult {
	return EvaluationResult{
		Key:         key,
		Enabled:     false,
		Value:       NewBooleanFlagValue(false),
		Reason:      EvaluationReasonError,
		FlagVersion: 0,
		EvaluatedAt: time.Now(),
		Error:       err,
	}
}

func (r EvaluationResult) WithRuleID(ruleID string) EvaluationResult {
	return EvaluationResult{
		Key:         r.Key,
		Enabled:     r.Enabled,
		Variant:     r.Variant,
		Value:       r.Value,
		Reason:      r.Reason,
		RuleID:      ruleID,
		FlagVersion: r.FlagVersion,
		EvaluatedAt: r.EvaluatedAt,
		Error:       r.Error,
	}
}

func (r EvaluationResult) IsEnabled() bool {
	return r.Enabled
}

func (r EvaluationResult) IsDisabled() bool {
	return !r.Enabled
}

func (r EvaluationResult) HasVariant() bool {
	return r.Variant != ""
}

func (r EvaluationResult) HasError() bool {
	return r.Error != nil
}

func (r EvaluationResult) GetError() error {
	return r.Error
}

func (r EvaluationResult) IsFromOverride() bool {
	return r.Reason == EvaluationReasonOverrideUser || r.Reason == EvaluationReasonOverrideTenant
}

func (r EvaluationResult) IsFromRule() bool {
	return r.Reason == EvaluationReasonRuleMatch || r.Reason == EvaluationReasonPercentage
}

func (r EvaluationResult) IsDefault() bool {
	return r.Reason == EvaluationReasonDefault
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(m))
	maps.Copy(result, m)
	return result
}
