package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cast"

	"github.com/awaistahir/loadplan/internal/engine"
)

// Column names of the appliance and tariff tables
const (
	ColName          = "Name"
	ColPowerW        = "Power_W"
	ColDurationH     = "Duration_h"
	ColEarliestStart = "EarliestStart"
	ColLatestEnd     = "LatestEnd"
	ColPriority      = "Priority"
	ColFlexible      = "Flexible"
	ColMustRun       = "MustRun"

	ColHour   = "Hour"
	ColTariff = "Tariff_Rs_per_kWh"
)

var applianceColumns = []string{
	ColName, ColPowerW, ColDurationH, ColEarliestStart,
	ColLatestEnd, ColPriority, ColFlexible, ColMustRun,
}

// ReadAppliances parses an appliance CSV, coerces every cell and clamps the
// integer fields. Extra columns are ignored.
func ReadAppliances(r io.Reader) ([]engine.Appliance, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading appliance header: %w", err)
	}
	cols := indexColumns(header)

	var missing []string
	for _, c := range applianceColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var appliances []engine.Appliance
	lineNum := 1 // header was line 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading appliance line %d: %w", lineNum, err)
		}

		a, err := parseAppliance(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%w on line %d: %v", ErrInvalidAppliance, lineNum, err)
		}
		appliances = append(appliances, a)
	}

	return CleanAppliances(appliances)
}

// ReadTariffs parses a tariff CSV with Hour and Tariff_Rs_per_kWh columns
func ReadTariffs(r io.Reader) (engine.Tariff, error) {
	rows, err := ReadTariffRows(r)
	if err != nil {
		return engine.Tariff{}, err
	}
	return BuildTariff(rows)
}

// ReadTariffRows parses the tariff CSV without checking hour coverage
func ReadTariffRows(r io.Reader) ([]TariffRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading tariff header: %w", err)
	}
	cols := indexColumns(header)
	hourIdx, okHour := cols[ColHour]
	priceIdx, okPrice := cols[ColTariff]
	if !okHour || !okPrice {
		return nil, fmt.Errorf("%w: columns %s and %s are required", ErrInvalidTariffTable, ColHour, ColTariff)
	}

	var rows []TariffRow
	lineNum := 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tariff line %d: %w", lineNum, err)
		}

		hour, err := parseFloat(cell(record, hourIdx))
		if err != nil || hour != math.Trunc(hour) {
			return nil, fmt.Errorf("%w: line %d: hour %q is not an integer", ErrInvalidTariffTable, lineNum, cell(record, hourIdx))
		}
		price, err := parseFloat(cell(record, priceIdx))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidTariffTable, lineNum, err)
		}

		rows = append(rows, TariffRow{Hour: int(hour), Price: price})
	}

	return rows, nil
}

// ReadAppliancesFile opens path and reads it with ReadAppliances
func ReadAppliancesFile(path string) ([]engine.Appliance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening appliances: %w", err)
	}
	defer f.Close()

	return ReadAppliances(f)
}

// ReadTariffsFile opens path and reads it with ReadTariffs
func ReadTariffsFile(path string) (engine.Tariff, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Tariff{}, fmt.Errorf("opening tariffs: %w", err)
	}
	defer f.Close()

	return ReadTariffs(f)
}

func parseAppliance(record []string, cols map[string]int) (engine.Appliance, error) {
	var a engine.Appliance
	var err error

	a.Name = strings.TrimSpace(cell(record, cols[ColName]))

	if a.PowerW, err = parseFloat(cell(record, cols[ColPowerW])); err != nil {
		return a, fmt.Errorf("%s: %w", ColPowerW, err)
	}
	if a.DurationH, err = parseClamped(cell(record, cols[ColDurationH]), 0, maxDurationH); err != nil {
		return a, fmt.Errorf("%s: %w", ColDurationH, err)
	}
	if a.EarliestStart, err = parseClamped(cell(record, cols[ColEarliestStart]), 0, 23); err != nil {
		return a, fmt.Errorf("%s: %w", ColEarliestStart, err)
	}
	if a.LatestEnd, err = parseClamped(cell(record, cols[ColLatestEnd]), 1, 24); err != nil {
		return a, fmt.Errorf("%s: %w", ColLatestEnd, err)
	}
	if a.Priority, err = parseClamped(cell(record, cols[ColPriority]), 1, 5); err != nil {
		return a, fmt.Errorf("%s: %w", ColPriority, err)
	}
	if a.Flexible, err = parseBool(cell(record, cols[ColFlexible])); err != nil {
		return a, fmt.Errorf("%s: %w", ColFlexible, err)
	}
	if a.MustRun, err = parseBool(cell(record, cols[ColMustRun])); err != nil {
		return a, fmt.Errorf("%s: %w", ColMustRun, err)
	}

	return a, nil
}

// indexColumns maps trimmed header names to their position
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.TrimSpace(h)] = i
	}
	return cols
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// maxDurationH caps Duration_h so the conversion to int cannot overflow
const maxDurationH = math.MaxInt32

// parseFloat coerces a cell and rejects NaN and infinities
func parseFloat(s string) (float64, error) {
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

// parseClamped clamps a numeric cell into [lo, hi] and truncates it to an int
func parseClamped(s string, lo, hi float64) (int, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return int(math.Trunc(clampFloat(v, lo, hi))), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n", "":
		return false, nil
	}
	if b, err := cast.ToBoolE(s); err == nil {
		return b, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return false, fmt.Errorf("not a boolean: %q", s)
	}
	return v != 0, nil
}
