package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultVATRate is the standard Saudi VAT rate (15%)
var DefaultVATRate = decimal.NewFromFloat(0.15)

// TaxableFee is a value object representing a net fee with an attached tax rate.
// Tax amount and gross amount are always derived, never stored, so the three
// figures can never drift apart.
// It is immutable - all operations return new TaxableFee instances.
type TaxableFee struct {
	amount   decimal.Decimal
	currency Currency
	taxRate  decimal.Decimal
}

// NewTaxableFee creates a new TaxableFee with the specified net amount, currency and tax rate.
// The tax rate is a fraction (0.15 for 15%), not a percentage.
func NewTaxableFee(amount decimal.Decimal, currency Currency, taxRate decimal.Decimal) (TaxableFee, error) {
	if currency == "" {
		return TaxableFee{}, fmt.Errorf("currency cannot be empty")
	}
	if taxRate.IsNegative() {
		return TaxableFee{}, fmt.Errorf("tax rate cannot be negative: %s", taxRate)
	}
	return TaxableFee{
		amount:   amount,
		currency: currency,
		taxRate:  taxRate,
	}, nil
}

// NewTaxableFeeSAR creates a TaxableFee in SAR with the default VAT rate
func NewTaxableFeeSAR(amount decimal.Decimal) TaxableFee {
	return TaxableFee{amount: amount, currency: SAR, taxRate: DefaultVATRate}
}

// NewTaxableFeeSARFromFloat creates a TaxableFee in SAR from float64 with the default VAT rate
func NewTaxableFeeSARFromFloat(amount float64) TaxableFee {
	return NewTaxableFeeSAR(decimal.NewFromFloat(amount))
}

// ZeroTaxableFee returns a zero-value TaxableFee in the specified currency
func ZeroTaxableFee(currency Currency) TaxableFee {
	return TaxableFee{amount: decimal.Zero, currency: currency, taxRate: decimal.Zero}
}

// Amount returns the net (pre-tax) decimal amount
func (f TaxableFee) Amount() decimal.Decimal {
	return f.amount
}

// Currency returns the currency code
func (f TaxableFee) Currency() Currency {
	return f.currency
}

// TaxRate returns the tax rate as a fraction
func (f TaxableFee) TaxRate() decimal.Decimal {
	return f.taxRate
}

// IsZero returns true if the net amount is zero
func (f TaxableFee) IsZero() bool {
	return f.amount.IsZero()
}

// NetAmount returns the pre-tax amount as Money
func (f TaxableFee) NetAmount() Money {
	return Money{amount: f.amount, currency: f.currency}
}

// TaxAmount returns the derived tax portion (amount * taxRate) as Money
func (f TaxableFee) TaxAmount() Money {
	return Money{amount: f.amount.Mul(f.taxRate), currency: f.currency}
}

// GrossAmount returns the derived tax-inclusive total (amount + taxAmount) as Money
func (f TaxableFee) GrossAmount() Money {
	return Money{amount: f.amount.Add(f.amount.Mul(f.taxRate)), currency: f.currency}
}

// Add returns a new TaxableFee with the sum of both net amounts.
// Returns error if currencies or tax rates don't match.
func (f TaxableFee) Add(other TaxableFee) (TaxableFee, error) {
	if f.currency != other.currency {
		return TaxableFee{}, fmt.Errorf("cannot add fees with different currencies: %s and %s", f.currency, other.currency)
	}
	if !f.taxRate.Equal(other.taxRate) {
		return TaxableFee{}, fmt.Errorf("cannot add fees with different tax rates: %s and %s", f.taxRate, other.taxRate)
	}
	return TaxableFee{
		amount:   f.amount.Add(other.amount),
		currency: f.currency,
		taxRate:  f.taxRate,
	}, nil
}

// MultiplyByInt returns a new TaxableFee with the net amount multiplied by an integer
func (f TaxableFee) MultiplyByInt(factor int64) TaxableFee {
	return TaxableFee{
		amount:   f.amount.Mul(decimal.NewFromInt(factor)),
		currency: f.currency,
		taxRate:  f.taxRate,
	}
}

// Equals returns true if both fees have the same amount, currency and tax rate
func (f TaxableFee) Equals(other TaxableFee) bool {
	return f.currency == other.currency &&
		f.amount.Equal(other.amount) &&
		f.taxRate.Equal(other.taxRate)
}

// String returns a string representation of the TaxableFee
func (f TaxableFee) String() string {
	return fmt.Sprintf("%s %s (+%s%% tax)", f.amount.StringFixed(2), f.currency,
		f.taxRate.Mul(decimal.NewFromInt(100)).StringFixed(0))
}

// MarshalJSON implements json.Marshaler
func (f TaxableFee) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
		TaxRate  string   `json:"tax_rate"`
	}{
		Amount:   f.amount.String(),
		Currency: f.currency,
		TaxRate:  f.taxRate.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler for deserialization purposes
func (f *TaxableFee) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
		TaxRate  string   `json:"tax_rate"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	taxRate, err := decimal.NewFromString(v.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid tax rate: %w", err)
	}
	f.amount = amount
	f.currency = v.Currency
	f.taxRate = taxRate
	return nil
}
