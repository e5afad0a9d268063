/*
balance.go - Daily balance fold

PURPOSE:
  Folds ledger-ordered movements into per-date totals, a running bond
  balance, and intra-day low/high watermarks. One optional scheduled
  increase is credited on its configured date.

INVARIANTS:
  - balance[d] = balance[d-1] - debitSum[d] + creditSum[d], seeded from the
    configured start amount. The scheduled increase is part of creditSum on
    its date.
  - Watermarks replay every single event in ledger order, so a same-day
    debit/credit pair moves the low even though the close is unchanged.
  - The fold is strictly ordered and must stay single-threaded.
*/
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/clearport/surety-engine/customs"
)

// DayBalance is the folded outcome of one calendar date with movements.
type DayBalance struct {
	Date      customs.Date    `json:"date"`
	DebitSum  decimal.Decimal `json:"debitSum"`
	CreditSum decimal.Decimal `json:"creditSum"`
	Net       decimal.Decimal `json:"net"` // creditSum - debitSum
	Balance   decimal.Decimal `json:"balance"`

	// Low and High replay each event of the day against the running
	// balance; they depend on intra-day ordering, the close does not.
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`

	// IncreaseApplied marks the scheduled increase date. Its amount is
	// already inside CreditSum.
	IncreaseApplied bool `json:"increaseApplied,omitempty"`
}

// FoldDaily folds movements (which must already be in ledger order, see
// BuildMovements) into one DayBalance per distinct date, ascending. The
// scheduled increase only materializes when its date actually has
// movements; a quiet calendar day produces no row.
func FoldDaily(movements []Movement, cfg customs.Config) []DayBalance {
	var days []DayBalance
	balance := cfg.BondStartAmount
	inc := cfg.ScheduledIncrease

	for i := 0; i < len(movements); {
		date := movements[i].Date
		day := DayBalance{Date: date}

		// Watermarks start from the day-open balance. The scheduled
		// increase lands before the day's events in the trail, so it
		// raises the open here as well.
		if inc.Enabled && date.Equal(inc.Date) {
			day.IncreaseApplied = true
			day.CreditSum = inc.Amount
			balance = balance.Add(inc.Amount)
		}
		day.Low = balance
		day.High = balance

		for ; i < len(movements) && movements[i].Date.Equal(date); i++ {
			m := movements[i]
			day.DebitSum = day.DebitSum.Add(m.DebitAmount())
			day.CreditSum = day.CreditSum.Add(m.CreditAmount())
			balance = balance.Sub(m.DebitAmount()).Add(m.CreditAmount())
			if balance.LessThan(day.Low) {
				day.Low = balance
			}
			if balance.GreaterThan(day.High) {
				day.High = balance
			}
		}

		day.DebitSum = day.DebitSum.Round(2)
		day.CreditSum = day.CreditSum.Round(2)
		day.Net = day.CreditSum.Sub(day.DebitSum).Round(2)
		balance = balance.Round(2)
		day.Balance = balance
		day.Low = day.Low.Round(2)
		day.High = day.High.Round(2)
		days = append(days, day)
	}
	return days
}

// Utilization is the day's peak bond usage as a percentage of the start
// amount: (start - low) / start * 100, zero when the start amount is zero.
func Utilization(start, low decimal.Decimal) decimal.Decimal {
	if start.IsZero() {
		return decimal.Zero
	}
	return start.Sub(low).Div(start).Mul(decimal.NewFromInt(100)).Round(2)
}
