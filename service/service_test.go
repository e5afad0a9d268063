package service_test

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/clearport/surety-engine/config"
	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/service"
	"github.com/clearport/surety-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) *service.Service {
	t.Helper()
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	return service.New(memory.New(), settingsPath)
}

func buildWorkbook(t *testing.T, rows [][]any) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, axis, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func masterWorkbook(t *testing.T) io.Reader {
	return buildWorkbook(t, [][]any{
		{
			"Datum Überlassung - CUSTST", "Datum Ende - CUSFIN",
			"Registriernummer Folgeverfahren", "Anmeldeart Folgeverfahren",
			"Bezugsnummer/LRN SumA", "Registriernummer/MRN SumA",
		},
		{"05.03.2024", "08.03.2024", "24DE100", "IMDC", "LRN-1", "ATB900"},
	})
}

func importDutyWorkbook(t *testing.T) io.Reader {
	return buildWorkbook(t, [][]any{
		{
			"Teilnehmer", "Verfahren", "Bezugsnummer/LRN", "Überlassungsdatum",
			"Registriernummer/MRN", "PositionNo", "Zollwert", "AbgabeZoll",
			"AbgabeZollsatz", "Eustwert", "AbgabeEust", "Warentarifnummer",
			"BEAnteil SumA",
		},
		{"T1", "V1", "LRN", "05.03.2024", "24DE100", "1", "1000", "0", "4", "0", "0", "12345678", ""},
	})
}

func executeTestRun(t *testing.T, svc *service.Service) *service.Run {
	t.Helper()
	run, err := svc.Execute(context.Background(), service.RunInput{
		Master:     masterWorkbook(t),
		ImportDuty: importDutyWorkbook(t),
	})
	require.NoError(t, err)
	require.NotNil(t, run)
	return run
}

// =============================================================================
// RUN EXECUTION
// =============================================================================

func TestService_ExecuteAndGet(t *testing.T) {
	// GIVEN: A master and import-duty workbook with one matching record
	// WHEN: Executing a run
	// THEN: The run persists with positions, movements and days attached

	svc := newTestService(t)
	run := executeTestRun(t, svc)

	assert.NotEmpty(t, run.ID)
	require.Len(t, run.Positions, 1)
	assert.Len(t, run.Movements, 2)
	assert.Len(t, run.Days, 2)
	assert.Equal(t, 1, run.Stats.Match[customs.DeclImport].Matched)
	assert.Equal(t, 1, run.Summary.Positions)
	assert.Equal(t, "40.00", run.Positions[0].TotalCharge.StringFixed(2))

	loaded, err := svc.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
}

func TestService_ExecuteRejectsBadMaster(t *testing.T) {
	// GIVEN: A master workbook missing required columns
	// WHEN: Executing
	// THEN: The run fails with a schema error and nothing is stored

	svc := newTestService(t)
	bad := buildWorkbook(t, [][]any{{"Spalte A"}, {"x"}})

	_, err := svc.Execute(context.Background(), service.RunInput{Master: bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, customs.ErrSchema)

	headers, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, headers)
}

func TestService_List(t *testing.T) {
	svc := newTestService(t)
	first := executeTestRun(t, svc)
	second := executeTestRun(t, svc)

	headers, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, headers, 2)
	ids := []string{headers[0].ID, headers[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

// =============================================================================
// REPORT RENDERING
// =============================================================================

func TestService_ReportWorkbook(t *testing.T) {
	// GIVEN: An executed run
	// WHEN: Requesting its report twice
	// THEN: A valid workbook comes back, identical on the cached second call

	svc := newTestService(t)
	run := executeTestRun(t, svc)

	data, err := svc.Report(context.Background(), run.ID)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Result", "Movement Details", "Daily Summary"}, f.GetSheetList())

	again, err := svc.Report(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestService_ReportUnknownRun(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Report(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrRunNotFound)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestService_SettingsLifecycle(t *testing.T) {
	// GIVEN: A fresh service
	// WHEN: Reading, updating and re-reading the settings
	// THEN: Defaults first, the update persists, invalid documents bounce

	svc := newTestService(t)

	doc, err := svc.Settings()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), doc)

	doc.BondStartAmount = "2500000"
	require.NoError(t, svc.UpdateSettings(doc))

	reloaded, err := svc.Settings()
	require.NoError(t, err)
	assert.Equal(t, doc, reloaded)

	doc.AggregationPolicy = "median"
	require.Error(t, svc.UpdateSettings(doc))
}

// =============================================================================
// RUN HEADER PROJECTION
// =============================================================================

func TestRun_Header(t *testing.T) {
	svc := newTestService(t)
	run := executeTestRun(t, svc)

	h := run.Header()
	assert.Equal(t, run.ID, h.ID)
	assert.Equal(t, run.CreatedAt, h.CreatedAt)
	assert.Equal(t, run.Summary, h.Summary)
}
