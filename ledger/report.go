/*
report.go - Three-part ledger report

PURPOSE:
  Assembles the report consumed downstream: the annotated position table,
  the full chronological movement trail with synthetic marker rows, and the
  compact per-day summary with watermarks and utilization.

STRUCTURE:
  Part 1: every computed position in standard order; the last row of each
          presentation-date day carries that day's totals and balance.
  Part 2: START row, then per day an optional BOND INCREASE row, one row
          per movement with the running balance after it, a DAY TOTAL row,
          and a spacer row between days.
  Part 3: one row per date with debit/credit/net/low/high/close and
          utilization, closed by a TOTAL row over the whole run.
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clearport/surety-engine/customs"
)

// AnnotatedPosition is one line of the report's position table. Day is set
// on the last row of each presentation-date day and nil everywhere else.
type AnnotatedPosition struct {
	Position customs.ComputedPosition
	Marker   string // "DAY TOTAL <date>" on day-closing rows
	Day      *DayBalance
}

// TrailRowKind tags the synthetic structure of the movement trail.
type TrailRowKind int

const (
	TrailStart TrailRowKind = iota
	TrailMovement
	TrailIncrease
	TrailDayTotal
	TrailSpacer
)

// TrailRow is one rendered line of the movement trail. Monetary fields are
// nullable so that spacer and marker rows stay visibly blank.
type TrailRow struct {
	Kind            TrailRowKind
	Date            customs.Date
	ATBNumber       string
	ReferenceNumber string
	SumaPosition    string
	Label           customs.PositionLabel
	Debit           decimal.NullDecimal
	Credit          decimal.NullDecimal
	Net             decimal.NullDecimal
	Balance         decimal.NullDecimal
}

// Totals closes the per-day summary.
type Totals struct {
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	Net            decimal.Decimal
	Low            decimal.Decimal
	High           decimal.Decimal
	Close          decimal.Decimal
	MaxUtilization decimal.Decimal
}

// Report is the complete three-part run report.
type Report struct {
	Start     decimal.Decimal // configured bond start amount
	Positions []AnnotatedPosition
	Trail     []TrailRow
	Days      []DayBalance
	Totals    Totals
}

// BuildReport renders positions, their movements, and the folded days into
// the report. Positions must be in standard order and movements in ledger
// order; days must come from FoldDaily over the same movements.
func BuildReport(positions []customs.ComputedPosition, movements []Movement, days []DayBalance, cfg customs.Config) *Report {
	return &Report{
		Start:     cfg.BondStartAmount,
		Positions: annotatePositions(positions, days, cfg),
		Trail:     buildTrail(movements, days, cfg),
		Days:      days,
		Totals:    buildTotals(days, cfg),
	}
}

func annotatePositions(positions []customs.ComputedPosition, days []DayBalance, cfg customs.Config) []AnnotatedPosition {
	byDate := make(map[customs.Date]*DayBalance, len(days))
	for i := range days {
		byDate[days[i].Date] = &days[i]
	}

	out := make([]AnnotatedPosition, len(positions))
	for i, p := range positions {
		out[i] = AnnotatedPosition{Position: p}

		last := i == len(positions)-1 || !positions[i+1].PresentationDate.Equal(p.PresentationDate)
		if !last || p.PresentationDate.IsZero() {
			continue
		}
		day, ok := byDate[p.PresentationDate]
		if !ok {
			continue
		}
		out[i].Day = day
		out[i].Marker = dayMarker(*day)
	}
	return out
}

func dayMarker(day DayBalance) string {
	if day.IncreaseApplied {
		return fmt.Sprintf("DAY TOTAL %s (bond increase)", day.Date)
	}
	return fmt.Sprintf("DAY TOTAL %s", day.Date)
}

func buildTrail(movements []Movement, days []DayBalance, cfg customs.Config) []TrailRow {
	byDate := make(map[customs.Date]DayBalance, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}

	trail := []TrailRow{{
		Kind:      TrailStart,
		ATBNumber: "START",
		Balance:   validDecimal(cfg.BondStartAmount),
	}}

	balance := cfg.BondStartAmount
	inc := cfg.ScheduledIncrease

	var current customs.Date
	closeDay := func() {
		day, ok := byDate[current]
		if !ok {
			return
		}
		trail = append(trail, TrailRow{
			Kind:      TrailDayTotal,
			Date:      current,
			ATBNumber: "DAY TOTAL",
			Debit:     validDecimal(day.DebitSum),
			Credit:    validDecimal(day.CreditSum),
			Net:       validDecimal(day.Net),
			Balance:   validDecimal(day.Balance),
		})
	}

	for _, m := range movements {
		if !m.Date.Equal(current) {
			if !current.IsZero() {
				closeDay()
				trail = append(trail, TrailRow{Kind: TrailSpacer})
			}
			current = m.Date

			if inc.Enabled && current.Equal(inc.Date) {
				balance = balance.Add(inc.Amount).Round(2)
				trail = append(trail, TrailRow{
					Kind:            TrailIncrease,
					Date:            current,
					ATBNumber:       "BOND INCREASE",
					ReferenceNumber: "scheduled increase of the available bond",
					Credit:          validDecimal(inc.Amount),
					Balance:         validDecimal(balance),
				})
			}
		}

		balance = balance.Sub(m.DebitAmount()).Add(m.CreditAmount()).Round(2)
		row := TrailRow{
			Kind:            TrailMovement,
			Date:            m.Date,
			ATBNumber:       m.ATBNumber,
			ReferenceNumber: m.ReferenceNumber,
			SumaPosition:    m.SumaPosition,
			Label:           m.Label,
			Balance:         validDecimal(balance),
		}
		if m.Kind == Debit {
			row.Debit = validDecimal(m.Amount)
		} else {
			row.Credit = validDecimal(m.Amount)
		}
		trail = append(trail, row)
	}
	if !current.IsZero() {
		closeDay()
	}
	return trail
}

func buildTotals(days []DayBalance, cfg customs.Config) Totals {
	t := Totals{
		Low:   cfg.BondStartAmount,
		High:  cfg.BondStartAmount,
		Close: cfg.BondStartAmount,
	}
	for _, d := range days {
		t.Debit = t.Debit.Add(d.DebitSum)
		t.Credit = t.Credit.Add(d.CreditSum)
		if d.Low.LessThan(t.Low) {
			t.Low = d.Low
		}
		if d.High.GreaterThan(t.High) {
			t.High = d.High
		}
		t.Close = d.Balance
	}
	t.Debit = t.Debit.Round(2)
	t.Credit = t.Credit.Round(2)
	t.Net = t.Credit.Sub(t.Debit).Round(2)
	t.MaxUtilization = Utilization(cfg.BondStartAmount, t.Low)
	return t
}

func validDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
