/*
movement.go - Movement events

PURPOSE:
  Expands computed positions into dated bond movements: a debit when goods
  are presented, a credit when the procedure ends. A position with neither
  date contributes nothing; with one date it contributes one event.

INVARIANTS:
  - Both events of a position carry the same amount (its total charge), so
    a completed position is bond-neutral over its lifetime.
  - Ledger order is total and deterministic: (date, debit before credit,
    position order, numeric position label). Everything downstream - daily
    fold, watermarks, the trail - consumes events in this order.

SEE ALSO:
  - balance.go for the daily fold
  - report.go for the rendered trail
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/clearport/surety-engine/customs"
)

// Kind distinguishes the two movement directions.
type Kind int

const (
	Debit  Kind = iota // bond is drawn when goods are presented
	Credit             // bond is released when the procedure ends
)

func (k Kind) String() string {
	if k == Debit {
		return "DEBIT"
	}
	return "CREDIT"
}

// Movement is one dated bond event derived from a computed position.
type Movement struct {
	Date            customs.Date
	Kind            Kind
	ATBNumber       string
	ReferenceNumber string
	Label           customs.PositionLabel
	SumaPosition    string
	Amount          decimal.Decimal
	DeclarationType customs.DeclarationType

	// Order is the originating position's index in the standard result
	// sort; it breaks ties between same-day events of the same kind.
	Order int
}

// DebitAmount is the amount when the movement draws the bond, zero otherwise.
func (m Movement) DebitAmount() decimal.Decimal {
	if m.Kind == Debit {
		return m.Amount
	}
	return decimal.Zero
}

// CreditAmount is the amount when the movement releases the bond, zero
// otherwise.
func (m Movement) CreditAmount() decimal.Decimal {
	if m.Kind == Credit {
		return m.Amount
	}
	return decimal.Zero
}

// BuildMovements expands positions into their movement events and returns
// them in ledger order. Positions with unparseable dates simply emit fewer
// events; that is data quality, not an error.
func BuildMovements(positions []customs.ComputedPosition) []Movement {
	movements := make([]Movement, 0, 2*len(positions))
	for _, p := range positions {
		if !p.PresentationDate.IsZero() {
			movements = append(movements, movementFor(p, Debit, p.PresentationDate))
		}
		if !p.EndDate.IsZero() {
			movements = append(movements, movementFor(p, Credit, p.EndDate))
		}
	}
	sortLedger(movements)
	return movements
}

func movementFor(p customs.ComputedPosition, kind Kind, on customs.Date) Movement {
	return Movement{
		Date:            on,
		Kind:            kind,
		ATBNumber:       p.ATBNumber,
		ReferenceNumber: p.ReferenceNumber,
		Label:           p.Label,
		SumaPosition:    p.SumaPosition,
		Amount:          p.TotalCharge,
		DeclarationType: p.DeclarationType,
		Order:           p.Order,
	}
}

// sortLedger establishes the canonical event order: date ascending, debits
// before credits within a day, then originating position order, then the
// numeric position label with non-numeric labels last.
func sortLedger(movements []Movement) {
	sort.SliceStable(movements, func(i, j int) bool {
		a, b := movements[i], movements[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind == Debit
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Label.Ord() < b.Label.Ord()
	})
}
