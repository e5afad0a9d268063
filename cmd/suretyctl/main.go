/*
main.go - Batch CLI

PURPOSE:
  Runs the engine once over local workbooks and writes the three-sheet
  report, without the HTTP server. Useful for scripted month-end runs and
  for reproducing a stored run's inputs locally.

USAGE:
  suretyctl -master leit.xlsx -import eza.xlsx -warehouse zl.xlsx \
            -transit ncts.xlsx -transport ncar.xlsx \
            -settings settings.json -out report.xlsx
*/
package main

import (
	"context"
	"flag"
	"os"

	"github.com/clearport/surety-engine/logger"
	"github.com/clearport/surety-engine/service"
	"github.com/clearport/surety-engine/store/memory"
)

func main() {
	masterPath := flag.String("master", "", "master workbook (required)")
	importPath := flag.String("import", "", "import-duty workbook")
	warehousePath := flag.String("warehouse", "", "warehouse workbook")
	transitPath := flag.String("transit", "", "transit workbook")
	transportPath := flag.String("transport", "", "transport workbook (optional overlay)")
	settingsPath := flag.String("settings", "./settings.json", "engine settings document")
	outPath := flag.String("out", "report.xlsx", "report output path")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	flag.Parse()

	logger.Init(*logLevel)
	log := logger.L

	if *masterPath == "" {
		log.Error("-master is required")
		flag.Usage()
		os.Exit(2)
	}

	in, closers, err := openInputs(*masterPath, *importPath, *warehousePath, *transitPath, *transportPath)
	if err != nil {
		log.Error("failed to open input", "error", err)
		os.Exit(1)
	}
	defer closers.closeAll()

	store := memory.New()
	svc := service.New(store, *settingsPath)

	ctx := context.Background()
	run, err := svc.Execute(ctx, in)
	if err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}

	for _, w := range run.Warnings {
		log.Warn("data warning", "context", w.Context, "value", w.Value, "message", w.Message)
	}

	data, err := svc.Report(ctx, run.ID)
	if err != nil {
		log.Error("report rendering failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Error("failed to write report", "path", *outPath, "error", err)
		os.Exit(1)
	}

	log.Info("report written",
		"path", *outPath,
		"positions", len(run.Positions),
		"movements", len(run.Movements),
		"days", len(run.Days),
	)
}

type closerList []*os.File

func (c closerList) closeAll() {
	for _, f := range c {
		f.Close()
	}
}

func openInputs(master, imp, warehouse, transit, transport string) (service.RunInput, closerList, error) {
	var closers closerList
	open := func(path string) (*os.File, error) {
		if path == "" {
			return nil, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		return f, nil
	}

	var in service.RunInput
	var err error

	masterFile, err := open(master)
	if err != nil {
		return in, closers, err
	}
	in.Master = masterFile

	importFile, err := open(imp)
	if err != nil {
		return in, closers, err
	}
	if importFile != nil {
		in.ImportDuty = importFile
	}
	warehouseFile, err := open(warehouse)
	if err != nil {
		return in, closers, err
	}
	if warehouseFile != nil {
		in.Warehouse = warehouseFile
	}
	transitFile, err := open(transit)
	if err != nil {
		return in, closers, err
	}
	if transitFile != nil {
		in.Transit = transitFile
	}
	transportFile, err := open(transport)
	if err != nil {
		return in, closers, err
	}
	if transportFile != nil {
		in.Transport = transportFile
	}

	return in, closers, nil
}
