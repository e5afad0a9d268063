/*
aggregate.go - Multi-candidate aggregation for warehouse matches

PURPOSE:
  A warehouse master record can match several import positions under the
  same registration number. Exactly one computed position must result; the
  configured policy decides how:

  First:    lowest position number only, annotated "(1 of N)"
  MaxValue: row with the largest derived customs value, "(max of N)"
  Sum:      per-row values and duties summed, averaged rate, "SUM (N positions)"

  The Sum policy averages the rate across the aggregate BEFORE the
  zero-rate substitution check, then applies the substitution to the
  aggregate. The single-match path substitutes per row. The ordering
  difference is carried over from the reference behavior on purpose; see
  DESIGN.md.
*/
package customs

import (
	"github.com/shopspring/decimal"
)

// aggregate collapses a multi-row warehouse match into one value set plus
// its label. rows must be non-empty; single rows bypass this path.
func (c calculator) aggregate(rows []ImportRecord, policy AggregationPolicy) (valueSet, PositionLabel, ImportRecord) {
	switch policy {
	case AggregateFirst:
		row := selectLowestPosition(rows)
		vs := c.warehouseDuty(row)
		label := PositionLabel{Kind: LabelFirstOf, Value: row.PositionNumber, Count: len(rows)}
		return vs, label, row

	case AggregateSum:
		return c.aggregateSum(rows)

	default: // AggregateMaxValue
		row := selectMaxValue(rows)
		vs := c.warehouseDuty(row)
		label := PositionLabel{Kind: LabelMaxOf, Value: row.PositionNumber, Count: len(rows)}
		return vs, label, row
	}
}

// selectMaxValue picks the row whose derived customs value is largest.
// Ties keep the earliest row.
func selectMaxValue(rows []ImportRecord) ImportRecord {
	best := rows[0]
	bestValue := warehouseValue(best)
	for _, row := range rows[1:] {
		if v := warehouseValue(row); v.GreaterThan(bestValue) {
			best, bestValue = row, v
		}
	}
	return best
}

// aggregateSum derives value and duty independently per row, sums both and
// recomputes an averaged rate over the aggregate. The guarded division
// yields a zero rate when the summed customs value is zero.
func (c calculator) aggregateSum(rows []ImportRecord) (valueSet, PositionLabel, ImportRecord) {
	totalValue := decimal.Zero
	totalDuty := decimal.Zero
	for _, row := range rows {
		totalValue = totalValue.Add(warehouseValue(row))
		totalDuty = totalDuty.Add(row.ProjectedDutyAmount)
	}

	rate := decimal.Zero
	if totalValue.IsPositive() {
		rate = totalDuty.Div(totalValue).Mul(oneHundred).Round(2)
	}
	if subst, ok := c.substituteRate(rate, totalValue); ok {
		rate = subst
		totalDuty = totalValue.Mul(rate).Div(oneHundred).Round(2)
	}

	vs := valueSet{
		customsValue: totalValue,
		dutyRate:     rate,
		dutyAmount:   totalDuty,
		secondaryTax: c.secondaryTax(totalValue, totalDuty),
		totalCharge:  c.totalOrFlat(totalDuty, totalValue),
	}
	label := PositionLabel{Kind: LabelSum, Count: len(rows)}
	// No single source row for a sum; tariff and position stay empty.
	return vs, label, ImportRecord{}
}
