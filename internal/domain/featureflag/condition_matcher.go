package featureflag

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchCondition decides whether one targeting condition holds for the
// evaluation context. Built-in attributes (tenant_id, user_id, user_role,
// user_plan, environment) are checked before the free-form UserAttributes
// map, so a custom attribute cannot shadow a built-in one.
func MatchCondition(condition Condition, ctx *EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	attrValue := getAttributeValue(condition.Attribute, ctx)
	return applyOperator(condition.Operator, attrValue, condition.Values)
}

// MatchAllConditions is the AND combinator; an empty slice matches.
func MatchAllConditions(conditions []Condition, ctx *EvaluationContext) bool {
	if ctx == nil {
		return false
	}

	for _, condition := range conditions {
		if !MatchCondition(condition, ctx) {
			return false
		}
	}
	return true
}

// MatchAnyCondition is the OR combinator; an empty slice does not match.
func MatchAnyCondition(conditions []Condition, ctx *EvaluationContext) bool {
	if ctx == nil || len(conditions) == 0 {
		return false
	}

	for _, condition := range conditions {
		if MatchCondition(condition, ctx) {
			return true
		}
	}
	return false
}

func getAttributeValue(attribute string, ctx *EvaluationContext) any {
	switch strings.ToLower(attribute) {
	case "tenant_id", "tenantid":
		return ctx.TenantID
	case "user_id", "userid":
		return ctx.UserID
	case "user_role", "userrole", "role":
		return ctx.UserRole
	case "user_plan", "userplan", "plan":
		return ctx.UserPlan
	case "environment", "env":
		return ctx.Environment
	case "request_id", "requestid":
		return ctx.RequestID
	}

	if ctx.UserAttributes != nil {
		if val, ok := ctx.UserAttributes[attribute]; ok {
			return val
		}
	}

	return nil
}

func applyOperator(op ConditionOperator, attrValue any, condValues []string) bool {
	switch op {
	case ConditionOperatorEquals:
		return operatorEquals(attrValue, condValues)
	case ConditionOperatorNotEquals:
		return !operatorEquals(attrValue, condValues)
	case ConditionOperatorIn:
		return operatorIn(attrValue, condValues)
	case ConditionOperatorNotIn:
		return !operatorIn(attrValue, condValues)
	case ConditionOperatorContains:
		return operatorContains(attrValue, condValues)
	case ConditionOperatorGreaterThan:
		return operatorGreaterThan(attrValue, condValues)
	case ConditionOperatorLessThan:
		return operatorLessThan(attrValue, condValues)
	default:
		return false
	}
}

// operatorEquals is case-insensitive and treats multiple condition values
// as alternatives.
func operatorEquals(attrValue any, condValues []string) bool {
	if attrValue == nil || len(condValues) == 0 {
		return false
	}

	attrStr := toString(attrValue)
	for _, condValue := range condValues {
		if strings.EqualFold(attrStr, condValue) {
			return true
		}
	}
	return false
}


func operatorIn(attrValue any, condValues []string) bool {
	if attrValue == nil || len(condValues) == 0 {
		return false
	}

	attrStr := strings.ToLower(toString(attrValue))
	for _, condValue := range condValues {
		if strings.ToLower(condValue) == attrStr {
			return true
		}
	}
	return false
}


func operatorContains(attrValue any, condValues []string) bool {
	if attrValue == nil || len(condValues) == 0 {
		return false
	}

	attrStr := strings.ToLower(toString(attrValue))
	for _, condValue := range condValues {
		if strings.Contains(attrStr, strings.ToLower(condValue)) {
			return true
		}
	}
	return false
}

// operatorGreaterThan compares numerically when both sides parse as
// numbers, lexically otherwise. Only the first condition value is used.
func operatorGreaterThan(attrValue any, condValues []string) bool {
	if attrValue == nil || len(condValues) == 0 {
		return false
	}
	if attrNum, ok := toFloat64(attrValue); ok {
		if condNum, err := strconv.ParseFloat(condValues[0], 64); err == nil {
			return attrNum > condNum
		}
	}
	return toString(attrValue) > condValues[0]
}

func operatorLessThan(attrValue any, condValues []string) bool {
	if attrValue == nil || len(condValues) == 0 {
		return false
	}
	if attrNum, ok := toFloat64(attrValue); ok {
		if condNum, err := strconv.ParseFloat(condValues[0], 64); err == nil {
			return attrNum < condNum
		}
	}
	return toString(attrValue) < condValues[0]
}

func toString(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat64(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}

	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ConditionMatcher wraps the matching functions behind a value so the
// evaluator can take it as a collaborator.
type ConditionMatcher struct{}

func NewConditionMatcher() *ConditionMatcher {
	return &ConditionMatcher{}
}

func (m *ConditionMatcher) Match(condition Condition, ctx *EvaluationContext) bool {
	return MatchCondition(condition, ctx)
}

func (m *ConditionMatcher) MatchAll(conditions []Condition, ctx *EvaluationContext) bool {
	return MatchAllConditions(conditions, ctx)
}

func (m *ConditionMatcher) MatchAny(conditions []Condition, ctx *EvaluationContext) bool {
	return MatchAnyCondition(conditions, ctx)
}
