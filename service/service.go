/*
service.go - Run orchestration service

PURPOSE:
  Glues the pieces into one synchronous pipeline behind the API and the
  CLI: read workbooks, build the engine config from the settings
  document, run the engine, overlay transport data, expand the ledger,
  fold the balances, persist the run.

CACHING:
  Rendered report workbooks are cached by run ID with a short TTL. Runs
  are immutable, so a cache hit can never be stale; the TTL only bounds
  memory.
*/
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/clearport/surety-engine/config"
	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/ledger"
	"github.com/clearport/surety-engine/logger"
	"github.com/clearport/surety-engine/xlsxio"
)

const (
	reportCacheTTL     = 15 * time.Minute
	reportCacheCleanup = 30 * time.Minute
)

// RunInput carries the uploaded workbooks of one run. Master is required;
// the import files are required exactly when the master batch contains
// their declaration type; Transport is always optional.
type RunInput struct {
	Master     io.Reader
	ImportDuty io.Reader
	Warehouse  io.Reader
	Transit    io.Reader
	Transport  io.Reader
}

// Service executes and serves runs.
type Service struct {
	store        Store
	settingsPath string
	reports      *cache.Cache
}

func New(store Store, settingsPath string) *Service {
	return &Service{
		store:        store,
		settingsPath: settingsPath,
		reports:      cache.New(reportCacheTTL, reportCacheCleanup),
	}
}

// Execute runs the engine over one input set and persists the result.
func (s *Service) Execute(ctx context.Context, in RunInput) (*Run, error) {
	log := logger.FromContext(ctx)

	doc, err := config.LoadSettings(s.settingsPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.BuildConfig(doc)
	if err != nil {
		return nil, err
	}

	var warnings []customs.Warning
	warn := func(w customs.Warning) { warnings = append(warnings, w) }

	master, err := xlsxio.ReadMaster(in.Master)
	if err != nil {
		return nil, err
	}

	inputs := customs.Inputs{Master: master}
	if in.ImportDuty != nil {
		if inputs.ImportDuty, err = xlsxio.ReadImportDuty(in.ImportDuty, doc.ImportColumnReduction, warn); err != nil {
			return nil, err
		}
	}
	if in.Warehouse != nil {
		if inputs.Warehouse, err = xlsxio.ReadWarehouse(in.Warehouse); err != nil {
			return nil, err
		}
	}
	if in.Transit != nil {
		if inputs.Transit, err = xlsxio.ReadTransit(in.Transit); err != nil {
			return nil, err
		}
	}

	result, err := customs.Process(cfg, inputs)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, result.Warnings...)

	if in.Transport != nil {
		transport, err := xlsxio.ReadTransport(in.Transport)
		if err != nil {
			return nil, err
		}
		mrns, quantities := customs.EnhanceTransport(result.Positions, transport)
		log.Info("transport enhancement applied", "mrnFilled", mrns, "quantityFilled", quantities)
	}

	movements := ledger.BuildMovements(result.Positions)
	days := ledger.FoldDaily(movements, cfg)

	run := &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Settings:  doc,
		Stats:     result.Stats,
		Warnings:  warnings,
		Summary:   customs.Summarize(result.Positions),
		Positions: result.Positions,
		Movements: movements,
		Days:      days,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	log.Info("run completed",
		"runID", run.ID,
		"positions", len(run.Positions),
		"movements", len(run.Movements),
		"days", len(run.Days),
		"warnings", len(warnings),
	)
	return run, nil
}

// Get loads one run.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	return s.store.GetRun(ctx, id)
}

// List lists run headers, newest first.
func (s *Service) List(ctx context.Context) ([]RunHeader, error) {
	return s.store.ListRuns(ctx)
}

// Report renders (or serves from cache) the three-sheet workbook of a run.
func (s *Service) Report(ctx context.Context, id string) ([]byte, error) {
	if cached, ok := s.reports.Get(id); ok {
		return cached.([]byte), nil
	}

	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := config.BuildConfig(run.Settings)
	if err != nil {
		return nil, err
	}

	report := ledger.BuildReport(run.Positions, run.Movements, run.Days, cfg)

	var buf bytes.Buffer
	if err := xlsxio.WriteReport(&buf, report); err != nil {
		return nil, err
	}
	s.reports.Set(id, buf.Bytes(), cache.DefaultExpiration)
	return buf.Bytes(), nil
}

// Settings returns the current settings document.
func (s *Service) Settings() (config.SettingsDocument, error) {
	return config.LoadSettings(s.settingsPath)
}

// UpdateSettings validates and persists a new settings document. It only
// affects future runs.
func (s *Service) UpdateSettings(doc config.SettingsDocument) error {
	if _, err := config.BuildConfig(doc); err != nil {
		return err
	}
	return config.SaveSettings(s.settingsPath, doc)
}
