/*
calc.go - Per-type duty derivation

PURPOSE:
  Derives customs value, duty rate, duty amount, secondary tax and total
  charge for one matched (or self-contained) master record. Every type has
  its own derivation; the shared pieces are:

  - zero-rate substitution: a 0% rate against a positive customs value is
    replaced by the configured substitution rate (a 0% duty would leave
    the bond uncovered for a real shipment)
  - secondary tax: (customsValue + dutyAmount) * vatRate
  - total charge: the duty amount while a real customs value exists,
    otherwise the configured flat default

ROUNDING:
  Monetary amounts round to 2 decimals at every intermediate step, not
  only at output. Rates round to 1 decimal where derived (Type III).
  Reported totals must reproduce bit-exact across runs; rounding late
  would let equal inputs drift through different intermediate paths.
*/
package customs

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	oneHundred = decimal.NewFromInt(100)
	one        = decimal.NewFromInt(1)
)

// valueSet is the numeric outcome of one derivation.
type valueSet struct {
	customsValue decimal.Decimal
	dutyRate     decimal.Decimal // percent
	dutyAmount   decimal.Decimal
	secondaryTax decimal.Decimal
	totalCharge  decimal.Decimal
}

// calculator derives positions under one immutable config.
type calculator struct {
	cfg Config
}

// substituteRate applies the zero-rate substitution: when enabled and the
// rate is zero against a positive customs value, the configured replacement
// rate takes over. Returns the effective rate and whether it was replaced.
func (c calculator) substituteRate(rate, customsValue decimal.Decimal) (decimal.Decimal, bool) {
	if c.cfg.ZeroRateSubstitutionEnabled && rate.IsZero() && customsValue.IsPositive() {
		return c.cfg.ZeroRateSubstitutionRate, true
	}
	return rate, false
}

// totalOrFlat is the shared total-charge rule: the duty amount while a real
// customs value exists, the flat default otherwise.
func (c calculator) totalOrFlat(dutyAmount, customsValue decimal.Decimal) decimal.Decimal {
	if customsValue.IsPositive() {
		return dutyAmount
	}
	return c.cfg.FlatDefault
}

func (c calculator) secondaryTax(customsValue, dutyAmount decimal.Decimal) decimal.Decimal {
	return customsValue.Add(dutyAmount).Mul(c.cfg.VATRate).Round(2)
}

// =============================================================================
// TYPE I - import duty: value and rate taken directly from the import row
// =============================================================================

func (c calculator) importDuty(imp ImportRecord) valueSet {
	value := imp.CustomsValue
	rate, _ := c.substituteRate(imp.DutyRate, value)

	duty := value.Mul(rate).Div(oneHundred).Round(2)
	return valueSet{
		customsValue: value,
		dutyRate:     rate,
		dutyAmount:   duty,
		secondaryTax: c.secondaryTax(value, duty),
		totalCharge:  c.totalOrFlat(duty, value),
	}
}

// =============================================================================
// TYPE II - warehouse discharge: customs value reconstructed from projections
// =============================================================================

// warehouseValue reconstructs the customs value of one warehouse row from
// its projected duty figures: a zero projected rate means the converted
// invoice amount is the value; otherwise the value is backed out of the
// projected duty amount. Division by a zero rate is guarded to zero.
func warehouseValue(imp ImportRecord) decimal.Decimal {
	if imp.ProjectedDutyRate.IsZero() {
		return imp.ConvertedInvoiceAmount
	}
	if !imp.ProjectedDutyRate.IsPositive() {
		return decimal.Zero
	}
	return imp.ProjectedDutyAmount.Div(imp.ProjectedDutyRate.Div(oneHundred)).Round(2)
}

func (c calculator) warehouseDuty(imp ImportRecord) valueSet {
	duty := imp.ProjectedDutyAmount
	rate := imp.ProjectedDutyRate
	value := warehouseValue(imp)

	if subst, ok := c.substituteRate(rate, value); ok {
		rate = subst
		duty = value.Mul(rate).Div(oneHundred).Round(2)
	}

	return valueSet{
		customsValue: value,
		dutyRate:     rate,
		dutyAmount:   duty,
		secondaryTax: c.secondaryTax(value, duty),
		totalCharge:  c.totalOrFlat(duty, value),
	}
}

// =============================================================================
// TYPE III - follow-up procedure: self-contained, rate derived from master
// =============================================================================

func (c calculator) followUpDuty(m MasterRecord) valueSet {
	value := m.FollowUpCustomsValue
	duty := m.FollowUpDutyAmount

	rate := decimal.Zero
	if value.IsPositive() {
		rate = duty.Div(value).Mul(oneHundred).Round(1)
	}
	if subst, ok := c.substituteRate(rate, value); ok {
		rate = subst
		duty = value.Mul(rate).Div(oneHundred).Round(2)
	}

	return valueSet{
		customsValue: value,
		dutyRate:     rate,
		dutyAmount:   duty,
		secondaryTax: c.secondaryTax(value, duty),
		totalCharge:  c.totalOrFlat(duty, value),
	}
}

// =============================================================================
// TYPE IV - transit: the charge is the security amount from the transit file
// =============================================================================

// securityAmountPattern extracts the amount out of a security blob, which is
// either a structured sub-field or free text. Decimal commas are tolerated.
var securityAmountPattern = regexp.MustCompile(`Sicherheit:\s*([\d.,]+)`)

// extractSecurityAmount parses the security amount from a transit security
// blob. Unparseable input yields zero with a warning; the record still
// produces a position.
func extractSecurityAmount(blob string, warn func(Warning)) decimal.Decimal {
	m := securityAmountPattern.FindStringSubmatch(blob)
	if m == nil {
		if strings.TrimSpace(blob) != "" && warn != nil {
			warn(Warning{
				Context: "security blob",
				Value:   blob,
				Message: "no security amount found",
			})
		}
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil {
		if warn != nil {
			warn(Warning{
				Context: "security blob",
				Value:   m[1],
				Message: "security amount is not a number",
			})
		}
		return decimal.Zero
	}
	return amount
}

func (c calculator) transitSecurity(imp ImportRecord, warn func(Warning)) valueSet {
	return valueSet{
		totalCharge: extractSecurityAmount(imp.SecurityBlob, warn).Round(2),
	}
}

// =============================================================================
// FLAT RATE AND NO MATCH
// =============================================================================

func (c calculator) flatRate() valueSet {
	return valueSet{totalCharge: c.cfg.FlatDefault}
}
