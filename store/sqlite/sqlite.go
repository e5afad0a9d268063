/*
Package sqlite persists runs in SQLite.

PURPOSE:
  Stores every executed run with its full result set: positions,
  movements, daily balances, plus the settings snapshot and statistics
  that produced them.

INSERT-ONLY ENFORCEMENT:
  Runs are immutable: no UPDATE or DELETE statements exist on any run
  table. Changed inputs or settings produce a new run row.

KEY TABLES:
  runs:           One row per execution with settings/stats/summary JSON
  positions:      Computed result lines, ordered by the standard sort
  movements:      Ledger events in canonical ledger order
  daily_balances: The folded per-date balances

WAL MODE:
  The database is opened in WAL mode: readers do not block the single
  writer, and crash recovery is cheap.

USAGE:
  store, err := sqlite.New("./surety.db")
  if err != nil { ... }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/ledger"
	"github.com/clearport/surety-engine/service"
)

// Store implements service.Store on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and if needed creates) the database at dbPath. Use
// ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		settings_json TEXT NOT NULL,
		stats_json TEXT NOT NULL,
		warnings_json TEXT,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS positions (
		run_id TEXT NOT NULL REFERENCES runs(id),
		ord INTEGER NOT NULL,
		reference_number TEXT NOT NULL,
		entry_mrn TEXT NOT NULL,
		atb_number TEXT NOT NULL,
		suma_position TEXT NOT NULL,
		resolved_with TEXT NOT NULL,
		presentation_date TEXT,
		end_date TEXT,
		storage_deadline TEXT,
		storage_days INTEGER NOT NULL,
		label_kind INTEGER NOT NULL,
		label_value TEXT NOT NULL,
		label_count INTEGER NOT NULL,
		tariff_code TEXT NOT NULL,
		quantity TEXT,
		customs_value TEXT NOT NULL,
		duty_rate TEXT NOT NULL,
		duty_amount TEXT NOT NULL,
		secondary_tax TEXT NOT NULL,
		total_charge TEXT NOT NULL,
		declaration_type TEXT NOT NULL,
		PRIMARY KEY (run_id, ord)
	);

	CREATE TABLE IF NOT EXISTS movements (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		kind INTEGER NOT NULL,
		atb_number TEXT NOT NULL,
		reference_number TEXT NOT NULL,
		label_kind INTEGER NOT NULL,
		label_value TEXT NOT NULL,
		label_count INTEGER NOT NULL,
		suma_position TEXT NOT NULL,
		amount TEXT NOT NULL,
		declaration_type TEXT NOT NULL,
		position_ord INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS daily_balances (
		run_id TEXT NOT NULL REFERENCES runs(id),
		date TEXT NOT NULL,
		debit_sum TEXT NOT NULL,
		credit_sum TEXT NOT NULL,
		net TEXT NOT NULL,
		balance TEXT NOT NULL,
		low TEXT NOT NULL,
		high TEXT NOT NULL,
		increase_applied INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE
// =============================================================================

// SaveRun stores a run and all of its collections in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *service.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	settingsJSON, err := json.Marshal(run.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	warningsJSON, err := json.Marshal(run.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, settings_json, stats_json, warnings_json, summary_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		string(settingsJSON),
		string(statsJSON),
		string(warningsJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range run.Positions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions (run_id, ord, reference_number, entry_mrn, atb_number,
				suma_position, resolved_with, presentation_date, end_date, storage_deadline,
				storage_days, label_kind, label_value, label_count, tariff_code, quantity,
				customs_value, duty_rate, duty_amount, secondary_tax, total_charge, declaration_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, p.Order, p.ReferenceNumber, p.EntryMRN, p.ATBNumber,
			p.SumaPosition, p.ResolvedWith, dateToDB(p.PresentationDate), dateToDB(p.EndDate), dateToDB(p.StorageDeadline),
			p.StorageDurationDays, int(p.Label.Kind), p.Label.Value, p.Label.Count, p.TariffCode, nullDecimalToDB(p.Quantity),
			p.CustomsValue.String(), p.DutyRate.String(), p.DutyAmount.String(), p.SecondaryTax.String(), p.TotalCharge.String(), string(p.DeclarationType),
		)
		if err != nil {
			return fmt.Errorf("insert position %d: %w", p.Order, err)
		}
	}

	for seq, m := range run.Movements {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO movements (run_id, seq, date, kind, atb_number, reference_number,
				label_kind, label_value, label_count, suma_position, amount, declaration_type, position_ord)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, seq, dateToDB(m.Date), int(m.Kind), m.ATBNumber, m.ReferenceNumber,
			int(m.Label.Kind), m.Label.Value, m.Label.Count, m.SumaPosition, m.Amount.String(), string(m.DeclarationType), m.Order,
		)
		if err != nil {
			return fmt.Errorf("insert movement %d: %w", seq, err)
		}
	}

	for _, d := range run.Days {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_balances (run_id, date, debit_sum, credit_sum, net, balance, low, high, increase_applied)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, dateToDB(d.Date), d.DebitSum.String(), d.CreditSum.String(), d.Net.String(),
			d.Balance.String(), d.Low.String(), d.High.String(), boolToInt(d.IncreaseApplied),
		)
		if err != nil {
			return fmt.Errorf("insert daily balance %s: %w", d.Date, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// LOAD
// =============================================================================

// GetRun loads one run with its full result set.
func (s *Store) GetRun(ctx context.Context, id string) (*service.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := &service.Run{ID: id}

	var createdAt, settingsJSON, statsJSON, summaryJSON string
	var warningsJSON sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at, settings_json, stats_json, warnings_json, summary_json
		FROM runs WHERE id = ?`, id,
	).Scan(&createdAt, &settingsJSON, &statsJSON, &warningsJSON, &summaryJSON)
	if err == sql.ErrNoRows {
		return nil, service.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("run %s: bad created_at: %w", id, err)
	}
	if err := json.Unmarshal([]byte(settingsJSON), &run.Settings); err != nil {
		return nil, fmt.Errorf("run %s: decode settings: %w", id, err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("run %s: decode stats: %w", id, err)
	}
	if warningsJSON.Valid && warningsJSON.String != "" && warningsJSON.String != "null" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &run.Warnings); err != nil {
			return nil, fmt.Errorf("run %s: decode warnings: %w", id, err)
		}
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return nil, fmt.Errorf("run %s: decode summary: %w", id, err)
	}

	if run.Positions, err = s.loadPositions(ctx, id); err != nil {
		return nil, err
	}
	if run.Movements, err = s.loadMovements(ctx, id); err != nil {
		return nil, err
	}
	if run.Days, err = s.loadDays(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) loadPositions(ctx context.Context, runID string) ([]customs.ComputedPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ord, reference_number, entry_mrn, atb_number, suma_position, resolved_with,
			presentation_date, end_date, storage_deadline, storage_days,
			label_kind, label_value, label_count, tariff_code, quantity,
			customs_value, duty_rate, duty_amount, secondary_tax, total_charge, declaration_type
		FROM positions WHERE run_id = ? ORDER BY ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	var positions []customs.ComputedPosition
	for rows.Next() {
		var p customs.ComputedPosition
		var presentation, end, deadline string
		var labelKind int
		var quantity sql.NullString
		var customsValue, dutyRate, dutyAmount, secondaryTax, totalCharge, declType string

		err := rows.Scan(&p.Order, &p.ReferenceNumber, &p.EntryMRN, &p.ATBNumber, &p.SumaPosition, &p.ResolvedWith,
			&presentation, &end, &deadline, &p.StorageDurationDays,
			&labelKind, &p.Label.Value, &p.Label.Count, &p.TariffCode, &quantity,
			&customsValue, &dutyRate, &dutyAmount, &secondaryTax, &totalCharge, &declType)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}

		p.Label.Kind = customs.LabelKind(labelKind)
		p.PresentationDate = customs.ParseDate(presentation)
		p.EndDate = customs.ParseDate(end)
		p.StorageDeadline = customs.ParseDate(deadline)
		p.DeclarationType = customs.DeclarationType(declType)
		if p.Quantity, err = dbToNullDecimal(quantity); err != nil {
			return nil, fmt.Errorf("scan position quantity: %w", err)
		}
		if p.CustomsValue, err = decimal.NewFromString(customsValue); err != nil {
			return nil, fmt.Errorf("scan customs value: %w", err)
		}
		if p.DutyRate, err = decimal.NewFromString(dutyRate); err != nil {
			return nil, fmt.Errorf("scan duty rate: %w", err)
		}
		if p.DutyAmount, err = decimal.NewFromString(dutyAmount); err != nil {
			return nil, fmt.Errorf("scan duty amount: %w", err)
		}
		if p.SecondaryTax, err = decimal.NewFromString(secondaryTax); err != nil {
			return nil, fmt.Errorf("scan secondary tax: %w", err)
		}
		if p.TotalCharge, err = decimal.NewFromString(totalCharge); err != nil {
			return nil, fmt.Errorf("scan total charge: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *Store) loadMovements(ctx context.Context, runID string) ([]ledger.Movement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, kind, atb_number, reference_number, label_kind, label_value, label_count,
			suma_position, amount, declaration_type, position_ord
		FROM movements WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}
	defer rows.Close()

	var movements []ledger.Movement
	for rows.Next() {
		var m ledger.Movement
		var date, amount, declType string
		var kind, labelKind int

		err := rows.Scan(&date, &kind, &m.ATBNumber, &m.ReferenceNumber, &labelKind, &m.Label.Value, &m.Label.Count,
			&m.SumaPosition, &amount, &declType, &m.Order)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}

		m.Date = customs.ParseDate(date)
		m.Kind = ledger.Kind(kind)
		m.Label.Kind = customs.LabelKind(labelKind)
		m.DeclarationType = customs.DeclarationType(declType)
		if m.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("scan movement amount: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *Store) loadDays(ctx context.Context, runID string) ([]ledger.DayBalance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, debit_sum, credit_sum, net, balance, low, high, increase_applied
		FROM daily_balances WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, fmt.Errorf("load daily balances: %w", err)
	}
	defer rows.Close()

	var days []ledger.DayBalance
	for rows.Next() {
		var d ledger.DayBalance
		var date, debit, credit, net, balance, low, high string
		var increase int

		if err := rows.Scan(&date, &debit, &credit, &net, &balance, &low, &high, &increase); err != nil {
			return nil, fmt.Errorf("scan daily balance: %w", err)
		}

		d.Date = customs.ParseDate(date)
		d.IncreaseApplied = increase != 0
		if d.DebitSum, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("scan debit sum: %w", err)
		}
		if d.CreditSum, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("scan credit sum: %w", err)
		}
		if d.Net, err = decimal.NewFromString(net); err != nil {
			return nil, fmt.Errorf("scan net: %w", err)
		}
		if d.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		if d.Low, err = decimal.NewFromString(low); err != nil {
			return nil, fmt.Errorf("scan low: %w", err)
		}
		if d.High, err = decimal.NewFromString(high); err != nil {
			return nil, fmt.Errorf("scan high: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ListRuns lists run headers, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]service.RunHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, stats_json, summary_json
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var headers []service.RunHeader
	for rows.Next() {
		var h service.RunHeader
		var createdAt, statsJSON, summaryJSON string
		if err := rows.Scan(&h.ID, &createdAt, &statsJSON, &summaryJSON); err != nil {
			return nil, fmt.Errorf("scan run header: %w", err)
		}
		if h.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at: %w", h.ID, err)
		}
		if err := json.Unmarshal([]byte(statsJSON), &h.Stats); err != nil {
			return nil, fmt.Errorf("run %s: decode stats: %w", h.ID, err)
		}
		if err := json.Unmarshal([]byte(summaryJSON), &h.Summary); err != nil {
			return nil, fmt.Errorf("run %s: decode summary: %w", h.ID, err)
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

const dbDateLayout = "2006-01-02"

func dateToDB(d customs.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dbDateLayout)
}

func nullDecimalToDB(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func dbToNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid || s.String == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
