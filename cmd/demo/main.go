package main

import (
	"flag"
	"fmt"

	"microgrid-sizer/internal/config"
	"microgrid-sizer/internal/cost"
	"microgrid-sizer/internal/ingest"
	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/simulation"
)

// Demo:
// - Load a system preset and a time series
// - Size a plant by hand (flags)
// - Run the dispatch for a few steps to show how the pieces fit together
func main() {
	systemPath := flag.String("system", "examples/systems/island_village.yaml", "Path to a system preset YAML")
	dataPath := flag.String("data", "examples/data/village_week.csv", "Path to a time series (.csv or .json)")
	pv := flag.Int("pv", 60, "PV modules")
	storage := flag.Int("storage", 3, "Storage units")
	backup := flag.Int("backup", 1, "Backup units")
	soc := flag.Float64("soc", 0, "Initial SOC (0 = max_soc)")
	n := flag.Int("n", 24, "Number of steps to print")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/ledger.csv)")
	flag.Parse()

	sys, err := config.LoadSystemFile(*systemPath)
	if err != nil {
		panic(err)
	}
	if sys.Dispatch.Priority == "" {
		sys.Dispatch.Priority = model.PriorityStorageFirst
	}
	series, err := ingest.LoadFile(*dataPath)
	if err != nil {
		panic(err)
	}

	d := model.Decision{PVModules: *pv, StorageUnits: *storage, BackupUnits: *backup, InitialSOC: *soc}
	if d.InitialSOC == 0 {
		d.InitialSOC = sys.Storage.MaxSOC
	}

	engine, err := simulation.New(sys)
	if err != nil {
		panic(err)
	}
	result, err := engine.Run(d, series)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Loaded %d steps of %.2f h\n", len(series), sys.StepHours)
	fmt.Printf("Design: %s  priority=%s\n\n", d, sys.Dispatch.Priority)

	for i := 0; i < min(*n, len(result.Ledger)); i++ {
		r := result.Ledger[i]
		fmt.Printf(
			"%4d %-8s demand=%6.2f  pv=%6.2f  curt=%6.2f  chg=%6.2f  dis=%6.2f  backup=%6.2f  unmet=%6.2f  soc=%.3f->%.3f\n",
			r.Index,
			string(r.Mode),
			r.DemandKWh,
			r.PVAvailableKWh,
			r.CurtailedKWh,
			r.ChargeKWh,
			r.DischargeKWh,
			r.BackupKWh,
			r.UnmetKWh,
			r.SOCStart,
			r.SOCEnd,
		)
	}

	if *outCSV != "" {
		if err := simulation.WriteLedgerCSV(*outCSV, result.Ledger); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	b := cost.Evaluate(d, result, sys)
	fmt.Printf("\nDone. Final SOC=%.3f  Unmet=%.1f kWh  Fuel=%.1f L  Annual cost=$%.2f\n",
		result.FinalSOC, result.Totals.UnmetKWh, result.Totals.FuelLitres, b.Total)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
