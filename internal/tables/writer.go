package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/awaistahir/loadplan/internal/engine"
)

// Column names of the output tables
var (
	scheduleColumns = []string{ColHour, ColTariff, "Load_kW", "Appliances"}
	costColumns     = []string{ColName, "Hours", "Energy_KWh", "Cost_Rs"}
)

// WriteSchedule writes one CSV row per hour
func WriteSchedule(w io.Writer, rows []engine.ScheduleRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scheduleColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Hour),
			formatFloat(r.TariffPerKWh),
			formatFloat(r.LoadKW),
			r.AppliancesLabel(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCosts writes the cost breakdown in the given order
func WriteCosts(w io.Writer, rows []engine.CostRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(costColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Name,
			strconv.Itoa(r.Hours),
			formatFloat(r.EnergyKWh),
			formatFloat(r.Cost),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTariffs writes a 24-row tariff table readable by ReadTariffs
func WriteTariffs(w io.Writer, rows []TariffRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColHour, ColTariff}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.Hour), formatFloat(r.Price)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteScheduleFile creates path and writes the schedule into it
func WriteScheduleFile(path string, rows []engine.ScheduleRow) error {
	return writeFile(path, func(w io.Writer) error { return WriteSchedule(w, rows) })
}

// WriteCostsFile creates path and writes the cost breakdown into it
func WriteCostsFile(path string, rows []engine.CostRow) error {
	return writeFile(path, func(w io.Writer) error { return WriteCosts(w, rows) })
}

// WriteTariffsFile creates path and writes the tariff table into it
func WriteTariffsFile(path string, rows []TariffRow) error {
	return writeFile(path, func(w io.Writer) error { return WriteTariffs(w, rows) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
