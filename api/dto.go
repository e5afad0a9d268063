/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract. DTOs are pure data carriers;
  validation happens in handlers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/ledger"
	"github.com/clearport/surety-engine/service"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RunDTO is the detail view of a run.
type RunDTO struct {
	ID        string                   `json:"id"`
	CreatedAt string                   `json:"createdAt"`
	Stats     customs.Stats            `json:"stats"`
	Summary   customs.FinancialSummary `json:"summary"`
	Warnings  []WarningDTO             `json:"warnings,omitempty"`
	Positions int                      `json:"positions"`
	Movements int                      `json:"movements"`
	Days      int                      `json:"days"`
}

// WarningDTO is one recovered data-quality problem.
type WarningDTO struct {
	Context string `json:"context"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// PositionDTO is one computed result line.
type PositionDTO struct {
	Order            int    `json:"order"`
	ReferenceNumber  string `json:"referenceNumber"`
	EntryMRN         string `json:"entryMrn"`
	ATBNumber        string `json:"atbNumber"`
	SumaPosition     string `json:"sumaPosition,omitempty"`
	ResolvedWith     string `json:"resolvedWith,omitempty"`
	PresentationDate string `json:"presentationDate,omitempty"`
	EndDate          string `json:"endDate,omitempty"`
	StorageDeadline  string `json:"storageDeadline,omitempty"`
	StorageDays      int    `json:"storageDays"`
	Label            string `json:"label"`
	TariffCode       string `json:"tariffCode,omitempty"`
	Quantity         string `json:"quantity,omitempty"`
	CustomsValue     string `json:"customsValue"`
	DutyRate         string `json:"dutyRate"`
	DutyAmount       string `json:"dutyAmount"`
	SecondaryTax     string `json:"secondaryTax"`
	TotalCharge      string `json:"totalCharge"`
	DeclarationType  string `json:"declarationType"`
}

func toRunDTO(run *service.Run) RunDTO {
	dto := RunDTO{
		ID:        run.ID,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		Stats:     run.Stats,
		Summary:   run.Summary,
		Positions: len(run.Positions),
		Movements: len(run.Movements),
		Days:      len(run.Days),
	}
	for _, w := range run.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{Context: w.Context, Value: w.Value, Message: w.Message})
	}
	return dto
}

func toPositionDTOs(positions []customs.ComputedPosition) []PositionDTO {
	dtos := make([]PositionDTO, len(positions))
	for i, p := range positions {
		dtos[i] = PositionDTO{
			Order:            p.Order,
			ReferenceNumber:  p.ReferenceNumber,
			EntryMRN:         p.EntryMRN,
			ATBNumber:        p.ATBNumber,
			SumaPosition:     p.SumaPosition,
			ResolvedWith:     p.ResolvedWith,
			PresentationDate: p.PresentationDate.String(),
			EndDate:          p.EndDate.String(),
			StorageDeadline:  p.StorageDeadline.String(),
			StorageDays:      p.StorageDurationDays,
			Label:            p.Label.String(),
			TariffCode:       p.TariffCode,
			CustomsValue:     p.CustomsValue.StringFixed(2),
			DutyRate:         p.DutyRate.String(),
			DutyAmount:       p.DutyAmount.StringFixed(2),
			SecondaryTax:     p.SecondaryTax.StringFixed(2),
			TotalCharge:      p.TotalCharge.StringFixed(2),
			DeclarationType:  string(p.DeclarationType),
		}
		if p.Quantity.Valid {
			dtos[i].Quantity = p.Quantity.Decimal.String()
		}
	}
	return dtos
}

// DayBalanceDTO is one folded date.
type DayBalanceDTO struct {
	Date            string `json:"date"`
	DebitSum        string `json:"debitSum"`
	CreditSum       string `json:"creditSum"`
	Net             string `json:"net"`
	Balance         string `json:"balance"`
	Low             string `json:"low"`
	High            string `json:"high"`
	IncreaseApplied bool   `json:"increaseApplied,omitempty"`
}

func toDayBalanceDTOs(days []ledger.DayBalance) []DayBalanceDTO {
	dtos := make([]DayBalanceDTO, len(days))
	for i, d := range days {
		dtos[i] = DayBalanceDTO{
			Date:            d.Date.String(),
			DebitSum:        d.DebitSum.StringFixed(2),
			CreditSum:       d.CreditSum.StringFixed(2),
			Net:             d.Net.StringFixed(2),
			Balance:         d.Balance.StringFixed(2),
			Low:             d.Low.StringFixed(2),
			High:            d.High.StringFixed(2),
			IncreaseApplied: d.IncreaseApplied,
		}
	}
	return dtos
}
