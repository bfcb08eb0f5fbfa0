package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"microgrid-sizer/internal/analysis"
	"microgrid-sizer/internal/config"
	"microgrid-sizer/internal/ingest"
	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/report"
	"microgrid-sizer/internal/search"
	"microgrid-sizer/internal/simulation"
	"microgrid-sizer/internal/sizing"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "search":
		cmdSearch(os.Args[2:])
	case "profile":
		cmdProfile(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config examples/config.yaml [--out results/ledger.csv] [--report results/report.json]")
	fmt.Println("  cli search   --config examples/config.yaml [--optimizer genetic|grid] [--seed 7] [--report results/best.json]")
	fmt.Println("  cli profile  --config examples/config.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - simulate runs the decision block of the config and writes the per-step ledger")
	fmt.Println("  - search looks for the cheapest feasible design within search.bounds (best effort)")
	fmt.Println("  - profile summarises the input series before any sizing")
}

// load reads the config and the time series it points at.
func load(cfgPath string) (*config.Config, model.Series) {
	if cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	series, err := ingest.LoadFile(cfg.Data.SeriesFile)
	if err != nil {
		panic(err)
	}
	if cfg.Data.ExpectSteps > 0 {
		if err := series.ExpectSteps(cfg.Data.ExpectSteps); err != nil {
			panic(err)
		}
	}
	return cfg, series
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "", "Ledger CSV path (overrides output.ledger_csv)")
	reportPath := fs.String("report", "", "Report JSON path (overrides output.report_json)")
	_ = fs.Parse(args)

	cfg, series := load(*cfgPath)
	if err := cfg.Decision.Validate(cfg.System.Storage); err != nil {
		panic(fmt.Errorf("decision: %w", err))
	}

	d := cfg.Decision
	pin := func(n int) sizing.Range { return sizing.Range{Min: float64(n), Max: float64(n)} }
	bounds := sizing.Bounds{
		PVModules:    pin(d.PVModules),
		StorageUnits: pin(d.StorageUnits),
		BackupUnits:  pin(d.BackupUnits),
		InitialSOC:   sizing.Range{Min: d.InitialSOC, Max: d.InitialSOC},
	}
	p, err := sizing.NewProblem(series, cfg.System, bounds, cfg.Constraints)
	if err != nil {
		panic(err)
	}
	ev, err := p.Evaluate(d)
	if err != nil {
		panic(err)
	}

	writeOutputs(ev, report.Build(cfg.System, ev, nil), first(*outPath, cfg.Output.LedgerCSV), first(*reportPath, cfg.Output.ReportJSON))
	printSummary(ev)
}

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	optName := fs.String("optimizer", "", "Override search.optimizer (genetic or grid)")
	seed := fs.Int64("seed", 0, "Override search.genetic.seed (0 = keep config)")
	quiet := fs.Bool("quiet", false, "Do not print per-generation progress")
	outPath := fs.String("out", "", "Ledger CSV path for the best design (overrides output.ledger_csv)")
	reportPath := fs.String("report", "", "Report JSON path (overrides output.report_json)")
	_ = fs.Parse(args)

	cfg, series := load(*cfgPath)
	if *optName != "" {
		cfg.Search.Optimizer = *optName
	}
	if *seed != 0 {
		cfg.Search.Genetic.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	p, err := sizing.NewProblem(series, cfg.System, cfg.Search.Bounds, cfg.Constraints)
	if err != nil {
		panic(err)
	}

	var progress search.ProgressFunc
	if !*quiet {
		progress = func(g search.Generation) {
			fmt.Printf("gen %3d  evals=%-6d feasible=%-4d best=%.2f violation=%.4g\n",
				g.Index, g.Evaluations, g.Feasible, g.Best.Cost, g.Best.Violation)
		}
	}
	cfg.Search.Genetic.Progress = progress
	cfg.Search.Grid.Progress = progress

	// Ctrl-C stops the search and keeps the best design found so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sol, err := sizing.Solve(ctx, p, cfg.Optimizer())
	if err != nil {
		if !errors.Is(err, context.Canceled) || sol == nil || sol.Best == nil {
			panic(err)
		}
		fmt.Println("search interrupted; reporting best design so far")
	}

	writeOutputs(sol.Best, report.Build(cfg.System, sol.Best, sol), first(*outPath, cfg.Output.LedgerCSV), first(*reportPath, cfg.Output.ReportJSON))
	fmt.Printf("Optimizer=%s evaluations=%d duration=%s\n", sol.Search.Optimizer, sol.Search.Evaluations, sol.Duration)
	printSummary(sol.Best)
}

func cmdProfile(args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	_ = fs.Parse(args)

	cfg, series := load(*cfgPath)
	pr := analysis.ComputeProfile(series, cfg.System)

	fmt.Printf("steps=%d step_hours=%.2f horizon_hours=%.1f\n", pr.Steps, pr.StepHours, pr.HorizonHours)
	fmt.Printf("%-16s %-10s %-10s %-10s %-10s %-10s\n", "column", "min", "mean", "max", "p05", "p95")
	for _, col := range []struct {
		name string
		s    analysis.ColumnStats
	}{
		{"demand_kw", pr.Demand},
		{"irradiance_wm2", pr.Irradiance},
		{"temperature_c", pr.Temperature},
	} {
		fmt.Printf("%-16s %-10.2f %-10.2f %-10.2f %-10.2f %-10.2f\n", col.name, col.s.Min, col.s.Mean, col.s.Max, col.s.P05, col.s.P95)
	}
	fmt.Printf("demand=%.1f kWh  peak_sun_hours=%.2f  backup_outage_hours=%.1f\n", pr.DemandKWh, pr.PeakSunHours, pr.BackupOutageHours)
	fmt.Printf("pv_yield=%.2f kWh/module  modules_for_energy_balance=%d  longest_deficit=%.1f kWh\n",
		pr.PVYieldKWhPerModule, pr.ModulesForEnergyBalance, pr.LongestDeficitKWh)
}

func writeOutputs(ev *sizing.Evaluation, rep *report.Report, ledgerPath, reportPath string) {
	if ledgerPath != "" {
		// ensure output dir exists
		if err := os.MkdirAll(filepath.Dir(ledgerPath), 0o755); err != nil {
			panic(err)
		}
		if err := simulation.WriteLedgerCSV(ledgerPath, ev.Result.Ledger); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(ev.Result.Ledger), ledgerPath)
	}
	if reportPath != "" {
		if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
			panic(err)
		}
		if err := rep.WriteJSON(reportPath); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote report %s to %s\n", rep.RunID, reportPath)
	}
}

func printSummary(ev *sizing.Evaluation) {
	fmt.Printf("Design: %s\n", ev.Decision)
	fmt.Printf("Annual cost=$%.2f (capital=$%.2f fuel=$%.2f unmet penalty=$%.2f) LCOE=$%.4f/kWh\n",
		ev.Cost.Total, ev.Cost.AnnualizedCapital, ev.Cost.Fuel, ev.Cost.UnmetPenalty, ev.Cost.LCOE)
	fmt.Printf("Reliability=%.2f%% renewable fraction=%.1f%% final SOC=%.3f\n",
		ev.Cost.ReliabilityPct, 100*ev.Cost.RenewableFraction, ev.Result.FinalSOC)
	if !ev.Feasible() {
		fmt.Printf("INFEASIBLE (violation=%.4g):\n", ev.Violation)
		for _, v := range ev.Violations {
			fmt.Printf("  %s: %.4g\n", v.Name, v.Amount)
		}
	}
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
