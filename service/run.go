/*
run.go - Run model and storage contract

PURPOSE:
  A Run is one complete execution of the engine over one uploaded input
  set: the computed positions, their movements, the folded daily balances,
  and the run's statistics and warnings, all under the settings snapshot
  that produced them.

IMMUTABILITY:
  Runs are insert-only. A changed input or setting is a new run; nothing
  updates a stored run in place. That keeps every past report reproducible.
*/
package service

import (
	"context"
	"errors"
	"time"

	"github.com/clearport/surety-engine/config"
	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/ledger"
)

// ErrRunNotFound is returned by stores for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored engine execution.
type Run struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"createdAt"`
	Settings  config.SettingsDocument  `json:"settings"`
	Stats     customs.Stats            `json:"stats"`
	Warnings  []customs.Warning        `json:"warnings,omitempty"`
	Summary   customs.FinancialSummary `json:"summary"`

	Positions []customs.ComputedPosition `json:"-"`
	Movements []ledger.Movement          `json:"-"`
	Days      []ledger.DayBalance        `json:"-"`
}

// RunHeader is the listing view of a run: everything except the bulk
// collections.
type RunHeader struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"createdAt"`
	Stats     customs.Stats            `json:"stats"`
	Summary   customs.FinancialSummary `json:"summary"`
}

// Store persists runs. Implementations are insert-only; SaveRun with an
// existing ID is an error.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]RunHeader, error)
	Close() error
}

// Header projects the listing view.
func (r *Run) Header() RunHeader {
	return RunHeader{ID: r.ID, CreatedAt: r.CreatedAt, Stats: r.Stats, Summary: r.Summary}
}
