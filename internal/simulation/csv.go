package simulation

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, ledger)
}

func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"index",
		"timestamp",
		"mode",
		"demand_kwh",
		"pv_available_kwh",
		"pv_to_load_kwh",
		"curtailed_kwh",
		"charge_kwh",
		"discharge_kwh",
		"backup_kwh",
		"backup_capacity_kw",
		"dump_kwh",
		"fuel_litres",
		"unmet_kwh",
		"soc_start",
		"soc_end",
		"cum_unmet_kwh",
		"cum_fuel_litres",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			string(r.Mode),
			fmtFloat(r.DemandKWh),
			fmtFloat(r.PVAvailableKWh),
			fmtFloat(r.PVToLoadKWh),
			fmtFloat(r.CurtailedKWh),
			fmtFloat(r.ChargeKWh),
			fmtFloat(r.DischargeKWh),
			fmtFloat(r.BackupKWh),
			fmtFloat(r.BackupCapacityKW),
			fmtFloat(r.DumpKWh),
			fmtFloat(r.FuelLitres),
			fmtFloat(r.UnmetKWh),
			fmtFloat(r.SOCStart),
			fmtFloat(r.SOCEnd),
			fmtFloat(r.CumUnmetKWh),
			fmtFloat(r.CumFuelLitre),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
