package customs

import "github.com/shopspring/decimal"

// TypeSummary totals the monetary columns for one declaration type.
type TypeSummary struct {
	DeclarationType DeclarationType `json:"declarationType"`
	Positions       int             `json:"positions"`
	CustomsValue    decimal.Decimal `json:"customsValue"`
	DutyAmount      decimal.Decimal `json:"dutyAmount"`
	SecondaryTax    decimal.Decimal `json:"secondaryTax"`
	TotalCharge     decimal.Decimal `json:"totalCharge"`
}

// FinancialSummary totals a result set overall and per declaration type.
type FinancialSummary struct {
	Positions    int             `json:"positions"`
	CustomsValue decimal.Decimal `json:"customsValue"`
	DutyAmount   decimal.Decimal `json:"dutyAmount"`
	SecondaryTax decimal.Decimal `json:"secondaryTax"`
	TotalCharge  decimal.Decimal `json:"totalCharge"`
	ByType       []TypeSummary   `json:"byType"`
}

// summaryTypeOrder is the display order of per-type blocks.
var summaryTypeOrder = []DeclarationType{
	DeclImport, DeclWarehouse, DeclFollowUp, DeclTransit,
	DeclEmpty, DeclArchive, DeclDiversion, DeclArrival,
}

// Summarize totals a computed result set. Types absent from the set are
// omitted from the per-type blocks.
func Summarize(positions []ComputedPosition) FinancialSummary {
	byType := make(map[DeclarationType]*TypeSummary)
	var s FinancialSummary

	for _, p := range positions {
		s.Positions++
		s.CustomsValue = s.CustomsValue.Add(p.CustomsValue)
		s.DutyAmount = s.DutyAmount.Add(p.DutyAmount)
		s.SecondaryTax = s.SecondaryTax.Add(p.SecondaryTax)
		s.TotalCharge = s.TotalCharge.Add(p.TotalCharge)

		ts, ok := byType[p.DeclarationType]
		if !ok {
			ts = &TypeSummary{DeclarationType: p.DeclarationType}
			byType[p.DeclarationType] = ts
		}
		ts.Positions++
		ts.CustomsValue = ts.CustomsValue.Add(p.CustomsValue)
		ts.DutyAmount = ts.DutyAmount.Add(p.DutyAmount)
		ts.SecondaryTax = ts.SecondaryTax.Add(p.SecondaryTax)
		ts.TotalCharge = ts.TotalCharge.Add(p.TotalCharge)
	}

	for _, t := range summaryTypeOrder {
		if ts, ok := byType[t]; ok {
			s.ByType = append(s.ByType, *ts)
		}
	}
	return s
}
