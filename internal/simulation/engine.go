package simulation

import (
	"fmt"

	"microgrid-sizer/internal/dispatch"
	"microgrid-sizer/internal/model"
)

// Engine runs the dispatch step across a whole time series.
// It holds only immutable inputs; Run is a pure function of its arguments
// and may be called from several goroutines at once.
type Engine struct {
	sys        model.SystemParams
	dispatcher *dispatch.Dispatcher
}

func New(sys model.SystemParams) (*Engine, error) {
	if err := sys.Validate(); err != nil {
		return nil, fmt.Errorf("system params invalid: %w", err)
	}
	d, err := dispatch.New(sys)
	if err != nil {
		return nil, err
	}
	return &Engine{sys: sys, dispatcher: d}, nil
}

func (e *Engine) Params() model.SystemParams { return e.sys }

// Run executes one simulation from decision.InitialSOC over series.
// Input shape problems are configuration errors and are returned before
// any step is taken.
func (e *Engine) Run(decision model.Decision, series model.Series) (*Result, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("time series invalid: %w", err)
	}
	if err := decision.Validate(e.sys.Storage); err != nil {
		return nil, fmt.Errorf("decision invalid: %w", err)
	}

	fleet := model.NewFleet(decision, e.sys)
	ledger := make([]LedgerRow, 0, len(series))
	totals := Totals{MinSOC: decision.InitialSOC, MaxSOC: decision.InitialSOC}
	soc := decision.InitialSOC

	for _, rec := range series {
		var out model.Outcome
		out, soc = e.dispatcher.Step(soc, rec, fleet)
		totals.add(out, e.sys.StepHours)

		ledger = append(ledger, LedgerRow{
			Outcome:      out,
			Timestamp:    rec.Timestamp,
			CumUnmetKWh:  totals.UnmetKWh,
			CumFuelLitre: totals.FuelLitres,
		})
	}

	return &Result{
		Decision:     decision,
		StepHours:    e.sys.StepHours,
		Ledger:       ledger,
		Totals:       totals,
		InitialSOC:   decision.InitialSOC,
		FinalSOC:     soc,
		HorizonHours: series.HorizonHours(e.sys.StepHours),
	}, nil
}
