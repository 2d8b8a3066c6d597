package identity

import (
	"context"
	"time"

	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FeatureKey represents a unique identifier for a feature
type FeatureKey string

// Predefined feature keys for the system
const (
	// Core features
	FeatureMultiLocation     FeatureKey = "multi_location"
	FeatureClassBooking      FeatureKey = "class_booking"
	FeatureGuestPasses       FeatureKey = "guest_passes"
	FeatureMultiCurrency     FeatureKey = "multi_currency"
	FeatureAdvancedReporting FeatureKey = "advanced_reporting"
	FeatureAPIAccess         FeatureKey = "api_access"
	FeatureCustomFields      FeatureKey = "custom_fields"
	FeatureAuditLog          FeatureKey = "audit_log"
	FeatureDataExport        FeatureKey = "data_export"
	FeatureDataImport        FeatureKey = "data_import"

	// Membership features
	FeatureSubscriptionFreeze   FeatureKey = "subscription_freeze"
	FeatureSubscriptionTransfer FeatureKey = "subscription_transfer"
	FeatureAutoRenewal          FeatureKey = "auto_renewal"
	FeatureContracts            FeatureKey = "contracts"
	FeatureDigitalSignature     FeatureKey = "digital_signature"
	FeatureTerminationFees      FeatureKey = "termination_fees"

	// Billing and compliance features
	FeatureVATInvoicing      FeatureKey = "vat_invoicing"
	FeatureCardCharges       FeatureKey = "card_charges"
	FeatureDunningAutomation FeatureKey = "dunning_automation"
	FeatureTaxSubmission     FeatureKey = "tax_submission"
	FeatureRevenueReports    FeatureKey = "revenue_reports"

	// Advanced features
	FeatureNotifications    FeatureKey = "notifications"
	FeatureIntegrations     FeatureKey = "integrations"
	FeatureWhiteLabeling    FeatureKey = "white_labeling"
	FeaturePrioritySupport  FeatureKey = "priority_support"
	FeatureDedicatedSupport FeatureKey = "dedicated_support"
	FeatureSLA              FeatureKey = "sla"
)

// PlanFeature represents a feature mapping for a subscription plan
// It defines which features are available for each plan and their limits
type PlanFeature struct {
	ID          uuid.UUID
	PlanID      TenantPlan // The subscription plan (free, basic, pro, enterprise)
	FeatureKey  FeatureKey // Unique identifier for the feature
	Enabled     bool       // Whether the feature is enabled for this plan
	Limit       *int       // Optional limit for the feature (nil = unlimited)
	Description string     // Human-readable description of the feature
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPlanFeature creates a new PlanFeature with the given parameters
func NewPlanFeature(planID TenantPlan, featureKey FeatureKey, enabled bool, description string) *PlanFeature {
	now := time.Now()
	return &PlanFeature{
		ID:          uuid.New(),
		PlanID:      planID,
		FeatureKey:  featureKey,
		Enabled:     enabled,
		Limit:       nil,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewPlanFeatureWithLimit creates a new PlanFeature with a limit
func NewPlanFeatureWithLimit(planID TenantPlan, featureKey FeatureKey, enabled bool, limit int, description string) *PlanFeature {
	pf := NewPlanFeature(planID, featureKey, enabled, description)
	pf.Limit = &limit
	return pf
}

// NewValidatedPlanFeature creates a PlanFeature after validating the plan and feature key
func NewValidatedPlanFeature(planID TenantPlan, featureKey FeatureKey, enabled bool, description string) (*PlanFeature, error) {
	if err := validateTenantPlan(planID); err != nil {
		return nil, err
	}
	if !IsValidFeatureKey(featureKey) {
		return nil, shared.NewDomainError("INVALID_FEATURE_KEY", "Invalid feature key: "+string(featureKey))
	}
	return NewPlanFeature(planID, featureKey, enabled, description), nil
}

// NewValidatedPlanFeatureWithLimit creates a limited PlanFeature after validating all inputs
func NewValidatedPlanFeatureWithLimit(planID TenantPlan, featureKey FeatureKey, enabled bool, limit int, description string) (*PlanFeature, error) {
	if limit < 0 {
		return nil, shared.NewDomainError("INVALID_LIMIT", "Feature limit cannot be negative")
	}
	pf, err := NewValidatedPlanFeature(planID, featureKey, enabled, description)
	if err != nil {
		return nil, err
	}
	pf.Limit = &limit
	return pf, nil
}

// SetLimit sets the limit for this feature
func (pf *PlanFeature) SetLimit(limit int) error {
	if limit < 0 {
		return shared.NewDomainError("INVALID_LIMIT", "Feature limit cannot be negative")
	}
	pf.Limit = &limit
	pf.UpdatedAt = time.Now()
	return nil
}

// ClearLimit removes the limit for this feature (makes it unlimited)
func (pf *PlanFeature) ClearLimit() {
	pf.Limit = nil
	pf.UpdatedAt = time.Now()
}

// Enable enables this feature
func (pf *PlanFeature) Enable() {
	pf.Enabled = true
	pf.UpdatedAt = time.Now()
}

// Disable disables this feature
func (pf *PlanFeature) Disable() {
	pf.Enabled = false
	pf.UpdatedAt = time.Now()
}

// IsUnlimited returns true if the feature has no limit
func (pf *PlanFeature) IsUnlimited() bool {
	return pf.Limit == nil
}

// GetLimit returns the limit value, or -1 if unlimited
func (pf *PlanFeature) GetLimit() int {
	if pf.Limit == nil {
		return -1
	}
	return *pf.Limit
}

// PlanFeatureRepository defines the interface for plan feature persistence
type PlanFeatureRepository interface {
	// FindByID finds a plan feature by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PlanFeature, error)

	// FindByPlan finds all features for a specific plan
	FindByPlan(ctx context.Context, planID TenantPlan) ([]PlanFeature, error)

	// FindByPlanAndFeature finds a specific feature for a plan
	FindByPlanAndFeature(ctx context.Context, planID TenantPlan, featureKey FeatureKey) (*PlanFeature, error)

	// FindEnabledByPlan finds all enabled features for a plan
	FindEnabledByPlan(ctx context.Context, planID TenantPlan) ([]PlanFeature, error)

	// HasFeature checks if a plan has a specific feature enabled
	HasFeature(ctx context.Context, planID TenantPlan, featureKey FeatureKey) (bool, error)

	// GetFeatureLimit returns the limit for a feature in a plan (nil if unlimited or not found)
	GetFeatureLimit(ctx context.Context, planID TenantPlan, featureKey FeatureKey) (*int, error)

	// Save creates or updates a plan feature
	Save(ctx context.Context, feature *PlanFeature) error

	// SaveBatch creates or updates multiple plan features
	SaveBatch(ctx context.Context, features []PlanFeature) error

	// Delete deletes a plan feature
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByPlan deletes all features for a plan
	DeleteByPlan(ctx context.Context, planID TenantPlan) error
}

// DefaultPlanFeatures returns the default feature set for a given plan
// This defines which features are available for each subscription tier
func DefaultPlanFeatures(plan TenantPlan) []PlanFeature {
	switch plan {
	case TenantPlanFree:
		return defaultFreePlanFeatures()
	case TenantPlanBasic:
		return defaultBasicPlanFeatures()
	case TenantPlanPro:
		return defaultProPlanFeatures()
	case TenantPlanEnterprise:
		return defaultEnterprisePlanFeatures()
	default:
		return defaultFreePlanFeatures()
	}
}

// defaultFreePlanFeatures returns features for the free plan
func defaultFreePlanFeatures() []PlanFeature {
	plan := TenantPlanFree
	features := []PlanFeature{
		// Core features - limited
		*NewPlanFeature(plan, FeatureMultiLocation, false, "Multiple gym locations"),
		*NewPlanFeatureWithLimit(plan, FeatureClassBooking, true, 50, "Class pack subscriptions (50 classes/pack)"),
		*NewPlanFeature(plan, FeatureGuestPasses, false, "Guest pass allowances"),
		*NewPlanFeature(plan, FeatureMultiCurrency, false, "Multi-currency support"),
		*NewPlanFeature(plan, FeatureAdvancedReporting, false, "Advanced analytics and reports"),
		*NewPlanFeature(plan, FeatureAPIAccess, false, "API access for integrations"),
		*NewPlanFeature(plan, FeatureCustomFields, false, "Custom fields on entities"),
		*NewPlanFeature(plan, FeatureAuditLog, false, "Audit log tracking"),
		*NewPlanFeature(plan, FeatureDataExport, true, "Export data to CSV/Excel"),
		*NewPlanFeatureWithLimit(plan, FeatureDataImport, true, 100, "Import data from CSV (100 rows/import)"),

		// Membership features - basic only
		*NewPlanFeature(plan, FeatureSubscriptionFreeze, true, "Freeze and unfreeze subscriptions"),
		*NewPlanFeature(plan, FeatureSubscriptionTransfer, false, "Transfer subscriptions between members"),
		*NewPlanFeature(plan, FeatureAutoRenewal, false, "Automatic subscription renewal"),
		*NewPlanFeature(plan, FeatureContracts, false, "Commitment contracts"),
		*NewPlanFeature(plan, FeatureDigitalSignature, false, "Digital contract signing"),
		*NewPlanFeature(plan, FeatureTerminationFees, false, "Early termination fees"),

		// Billing features - basic only
		*NewPlanFeature(plan, FeatureVATInvoicing, true, "VAT invoicing"),
		*NewPlanFeature(plan, FeatureCardCharges, false, "Automatic card charges"),
		*NewPlanFeature(plan, FeatureDunningAutomation, false, "Automated dunning escalation"),
		*NewPlanFeature(plan, FeatureTaxSubmission, false, "Tax authority submission"),
		*NewPlanFeature(plan, FeatureRevenueReports, false, "Revenue reports"),

		// Advanced features - none
		*NewPlanFeature(plan, FeatureNotifications, false, "Email/SMS notifications"),
		*NewPlanFeature(plan, FeatureIntegrations, false, "Third-party integrations"),
		*NewPlanFeature(plan, FeatureWhiteLabeling, false, "White-label branding"),
		*NewPlanFeature(plan, FeaturePrioritySupport, false, "Priority support"),
		*NewPlanFeature(plan, FeatureDedicatedSupport, false, "Dedicated support manager"),
		*NewPlanFeature(plan, FeatureSLA, false, "Service level agreement"),
	}
	return features
}

// defaultBasicPlanFeatures returns features for the basic plan
func defaultBasicPlanFeatures() []PlanFeature {
	plan := TenantPlanBasic
	features := []PlanFeature{
		// Core features - some enabled
		*NewPlanFeature(plan, FeatureMultiLocation, true, "Multiple gym locations"),
		*NewPlanFeature(plan, FeatureClassBooking, true, "Class pack subscriptions"),
		*NewPlanFeature(plan, FeatureGuestPasses, true, "Guest pass allowances"),
		*NewPlanFeature(plan, FeatureMultiCurrency, false, "Multi-currency support"),
		*NewPlanFeature(plan, FeatureAdvancedReporting, false, "Advanced analytics and reports"),
		*NewPlanFeature(plan, FeatureAPIAccess, false, "API access for integrations"),
		*NewPlanFeature(plan, FeatureCustomFields, false, "Custom fields on entities"),
		*NewPlanFeature(plan, FeatureAuditLog, true, "Audit log tracking"),
		*NewPlanFeature(plan, FeatureDataExport, true, "Export data to CSV/Excel"),
		*NewPlanFeatureWithLimit(plan, FeatureDataImport, true, 1000, "Import data from CSV (1000 rows/import)"),

		// Membership features - most enabled
		*NewPlanFeature(plan, FeatureSubscriptionFreeze, true, "Freeze and unfreeze subscriptions"),
		*NewPlanFeature(plan, FeatureSubscriptionTransfer, true, "Transfer subscriptions between members"),
		*NewPlanFeature(plan, FeatureAutoRenewal, true, "Automatic subscription renewal"),
		*NewPlanFeature(plan, FeatureContracts, true, "Commitment contracts"),
		*NewPlanFeature(plan, FeatureDigitalSignature, false, "Digital contract signing"),
		*NewPlanFeature(plan, FeatureTerminationFees, true, "Early termination fees"),

		// Billing features - most enabled
		*NewPlanFeature(plan, FeatureVATInvoicing, true, "VAT invoicing"),
		*NewPlanFeature(plan, FeatureCardCharges, true, "Automatic card charges"),
		*NewPlanFeature(plan, FeatureDunningAutomation, true, "Automated dunning escalation"),
		*NewPlanFeature(plan, FeatureTaxSubmission, false, "Tax authority submission"),
		*NewPlanFeature(plan, FeatureRevenueReports, false, "Revenue reports"),

		// Advanced features - limited
		*NewPlanFeature(plan, FeatureNotifications, true, "Email/SMS notifications"),
		*NewPlanFeature(plan, FeatureIntegrations, false, "Third-party integrations"),
		*NewPlanFeature(plan, FeatureWhiteLabeling, false, "White-label branding"),
		*NewPlanFeature(plan, FeaturePrioritySupport, false, "Priority support"),
		*NewPlanFeature(plan, FeatureDedicatedSupport, false, "Dedicated support manager"),
		*NewPlanFeature(plan, FeatureSLA, false, "Service level agreement"),
	}
	return features
}

// defaultProPlanFeatures returns features for the pro plan
func defaultProPlanFeatures() []PlanFeature {
	plan := TenantPlanPro
	features := []PlanFeature{
		// Core features - most enabled
		*NewPlanFeature(plan, FeatureMultiLocation, true, "Multiple gym locations"),
		*NewPlanFeature(plan, FeatureClassBooking, true, "Class pack subscriptions"),
		*NewPlanFeature(plan, FeatureGuestPasses, true, "Guest pass allowances"),
		*NewPlanFeature(plan, FeatureMultiCurrency, true, "Multi-currency support"),
		*NewPlanFeature(plan, FeatureAdvancedReporting, true, "Advanced analytics and reports"),
		*NewPlanFeature(plan, FeatureAPIAccess, true, "API access for integrations"),
		*NewPlanFeature(plan, FeatureCustomFields, true, "Custom fields on entities"),
		*NewPlanFeature(plan, FeatureAuditLog, true, "Audit log tracking"),
		*NewPlanFeature(plan, FeatureDataExport, true, "Export data to CSV/Excel"),
		*NewPlanFeatureWithLimit(plan, FeatureDataImport, true, 10000, "Import data from CSV (10000 rows/import)"),

		// Membership features - all enabled
		*NewPlanFeature(plan, FeatureSubscriptionFreeze, true, "Freeze and unfreeze subscriptions"),
		*NewPlanFeature(plan, FeatureSubscriptionTransfer, true, "Transfer subscriptions between members"),
		*NewPlanFeature(plan, FeatureAutoRenewal, true, "Automatic subscription renewal"),
		*NewPlanFeature(plan, FeatureContracts, true, "Commitment contracts"),
		*NewPlanFeature(plan, FeatureDigitalSignature, true, "Digital contract signing"),
		*NewPlanFeature(plan, FeatureTerminationFees, true, "Early termination fees"),

		// Billing features - all enabled
		*NewPlanFeature(plan, FeatureVATInvoicing, true, "VAT invoicing"),
		*NewPlanFeature(plan, FeatureCardCharges, true, "Automatic card charges"),
		*NewPlanFeature(plan, FeatureDunningAutomation, true, "Automated dunning escalation"),
		*NewPlanFeature(plan, FeatureTaxSubmission, true, "Tax authority submission"),
		*NewPlanFeature(plan, FeatureRevenueReports, true, "Revenue reports"),

		// Advanced features - most enabled
		*NewPlanFeature(plan, FeatureNotifications, true, "Email/SMS notifications"),
		*NewPlanFeature(plan, FeatureIntegrations, true, "Third-party integrations"),
		*NewPlanFeature(plan, FeatureWhiteLabeling, false, "White-label branding"),
		*NewPlanFeature(plan, FeaturePrioritySupport, true, "Priority support"),
		*NewPlanFeature(plan, FeatureDedicatedSupport, false, "Dedicated support manager"),
		*NewPlanFeature(plan, FeatureSLA, false, "Service level agreement"),
	}
	return features
}

// defaultEnterprisePlanFeatures returns features for the enterprise plan
func defaultEnterprisePlanFeatures() []PlanFeature {
	plan := TenantPlanEnterprise
	features := []PlanFeature{
		// Core features - all enabled, unlimited
		*NewPlanFeature(plan, FeatureMultiLocation, true, "Multiple gym locations"),
		*NewPlanFeature(plan, FeatureClassBooking, true, "Class pack subscriptions"),
		*NewPlanFeature(plan, FeatureGuestPasses, true, "Guest pass allowances"),
		*NewPlanFeature(plan, FeatureMultiCurrency, true, "Multi-currency support"),
		*NewPlanFeature(plan, FeatureAdvancedReporting, true, "Advanced analytics and reports"),
		*NewPlanFeature(plan, FeatureAPIAccess, true, "API access for integrations"),
		*NewPlanFeature(plan, FeatureCustomFields, true, "Custom fields on entities"),
		*NewPlanFeature(plan, FeatureAuditLog, true, "Audit log tracking"),
		*NewPlanFeature(plan, FeatureDataExport, true, "Export data to CSV/Excel"),
		*NewPlanFeature(plan, FeatureDataImport, true, "Import data from CSV (unlimited)"),

		// Membership features - all enabled
		*NewPlanFeature(plan, FeatureSubscriptionFreeze, true, "Freeze and unfreeze subscriptions"),
		*NewPlanFeature(plan, FeatureSubscriptionTransfer, true, "Transfer subscriptions between members"),
		*NewPlanFeature(plan, FeatureAutoRenewal, true, "Automatic subscription renewal"),
		*NewPlanFeature(plan, FeatureContracts, true, "Commitment contracts"),
		*NewPlanFeature(plan, FeatureDigitalSignature, true, "Digital contract signing"),
		*NewPlanFeature(plan, FeatureTerminationFees, true, "Early termination fees"),

		// Billing features - all enabled
		*NewPlanFeature(plan, FeatureVATInvoicing, true, "VAT invoicing"),
		*NewPlanFeature(plan, FeatureCardCharges, true, "Automatic card charges"),
		*NewPlanFeature(plan, FeatureDunningAutomation, true, "Automated dunning escalation"),
		*NewPlanFeature(plan, FeatureTaxSubmission, true, "Tax authority submission"),
		*NewPlanFeature(plan, FeatureRevenueReports, true, "Revenue reports"),

		// Advanced features - all enabled
		*NewPlanFeature(plan, FeatureNotifications, true, "Email/SMS notifications"),
		*NewPlanFeature(plan, FeatureIntegrations, true, "Third-party integrations"),
		*NewPlanFeature(plan, FeatureWhiteLabeling, true, "White-label branding"),
		*NewPlanFeature(plan, FeaturePrioritySupport, true, "Priority support"),
		*NewPlanFeature(plan, FeatureDedicatedSupport, true, "Dedicated support manager"),
		*NewPlanFeature(plan, FeatureSLA, true, "Service level agreement"),
	}
	return features
}

// GetAllFeatureKeys returns all defined feature keys
func GetAllFeatureKeys() []FeatureKey {
	return []FeatureKey{
		FeatureMultiLocation,
		FeatureClassBooking,
		FeatureGuestPasses,
		FeatureMultiCurrency,
		FeatureAdvancedReporting,
		FeatureAPIAccess,
		FeatureCustomFields,
		FeatureAuditLog,
		FeatureDataExport,
		FeatureDataImport,
		FeatureSubscriptionFreeze,
		FeatureSubscriptionTransfer,
		FeatureAutoRenewal,
		FeatureContracts,
		FeatureDigitalSignature,
		FeatureTerminationFees,
		FeatureVATInvoicing,
		FeatureCardCharges,
		FeatureDunningAutomation,
		FeatureTaxSubmission,
		FeatureRevenueReports,
		FeatureNotifications,
		FeatureIntegrations,
		FeatureWhiteLabeling,
		FeaturePrioritySupport,
		FeatureDedicatedSupport,
		FeatureSLA,
	}
}

// IsValidFeatureKey checks if a feature key is valid
func IsValidFeatureKey(key FeatureKey) bool {
	for _, k := range GetAllFeatureKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// PlanHasFeature is a helper function to check if a plan has a specific feature enabled
// based on the default feature definitions
func PlanHasFeature(plan TenantPlan, featureKey FeatureKey) bool {
	features := DefaultPlanFeatures(plan)
	for _, f := range features {
		if f.FeatureKey == featureKey {
			return f.Enabled
		}
	}
	return false
}

// GetPlanFeatureLimit returns the limit for a feature in a plan based on default definitions
// Returns nil if the feature is unlimited or not found
func GetPlanFeatureLimit(plan TenantPlan, featureKey FeatureKey) *int {
	features := DefaultPlanFeatures(plan)
	for _, f := range features {
		if f.FeatureKey == featureKey {
			return f.Limit
		}
	}
	return nil
}
