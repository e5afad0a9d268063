/*
rules.go - Charge normalization applied once across all computed positions

RULES (in order, per position):
  1. 0 < totalCharge < 1           -> totalCharge = 1
  2. totalCharge == 0, value > 0   -> totalCharge = 1
  3. totalCharge == 0, value == 0  -> totalCharge = flat default
  4. dutyAmount := totalCharge     (always; the recorded duty figure is
                                    defined to equal the total charge)

  Sub-1 charges exist (anti-dumping remainders, rounding of tiny
  consignments) but a bond movement below 1 is not bookable downstream.
*/
package customs

// Normalize applies the minimum-charge and zero-value substitution rules to
// every position, in place. After it returns, TotalCharge is either the
// flat default or >= 1, and DutyAmount equals TotalCharge.
func Normalize(positions []ComputedPosition, cfg Config) {
	for i := range positions {
		p := &positions[i]

		switch {
		case p.TotalCharge.IsPositive() && p.TotalCharge.LessThan(one):
			p.TotalCharge = one
		case p.TotalCharge.IsZero() && p.CustomsValue.IsPositive():
			p.TotalCharge = one
		case p.TotalCharge.IsZero():
			p.TotalCharge = cfg.FlatDefault
		}

		p.DutyAmount = p.TotalCharge
	}
}
