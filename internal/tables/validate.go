package tables

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/awaistahir/loadplan/internal/engine"
)

var (
	ErrMissingColumns     = errors.New("appliance table missing required columns")
	ErrInvalidTariffTable = errors.New("tariff table must have 24 rows with Hour = 0..23")
	ErrInvalidAppliance   = errors.New("invalid appliance row")
)

var validate = newValidator()

// newValidator adds the "finite" tag, which rejects NaN and infinities
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}); err != nil {
		panic(err)
	}
	return v
}

// TariffRow is one row of the hourly tariff table
type TariffRow struct {
	Hour  int     `json:"hour" validate:"min=0,max=23"`
	Price float64 `json:"tariff_per_kwh" validate:"gte=0,finite"`
}

// CleanAppliances clamps the integer fields into range and rejects rows that
// are still invalid afterwards: blank or duplicate names, negative power.
// The input slice is not modified.
func CleanAppliances(in []engine.Appliance) ([]engine.Appliance, error) {
	out := make([]engine.Appliance, 0, len(in))
	seen := make(map[string]int, len(in))

	for i, a := range in {
		a.DurationH = max(a.DurationH, 0)
		a.EarliestStart = clampInt(a.EarliestStart, 0, 23)
		a.LatestEnd = clampInt(a.LatestEnd, 1, 24)
		a.Priority = clampInt(a.Priority, 1, 5)

		if err := validate.Struct(a); err != nil {
			return nil, fmt.Errorf("%w %d (%q): %v", ErrInvalidAppliance, i+1, a.Name, err)
		}
		if first, dup := seen[a.Name]; dup {
			return nil, fmt.Errorf("%w %d: name %q already used by row %d", ErrInvalidAppliance, i+1, a.Name, first)
		}
		seen[a.Name] = i + 1

		out = append(out, a)
	}

	return out, nil
}

// BuildTariff checks that rows cover hours 0..23 exactly once with
// non-negative prices and returns them as a Tariff
func BuildTariff(rows []TariffRow) (engine.Tariff, error) {
	var tariff engine.Tariff

	if len(rows) != engine.HoursPerDay {
		return tariff, fmt.Errorf("%w: got %d rows", ErrInvalidTariffTable, len(rows))
	}

	var seen [engine.HoursPerDay]bool
	for _, r := range rows {
		if err := validate.Struct(r); err != nil {
			return tariff, fmt.Errorf("%w: hour %d: %v", ErrInvalidTariffTable, r.Hour, err)
		}
		if seen[r.Hour] {
			return tariff, fmt.Errorf("%w: hour %d appears more than once", ErrInvalidTariffTable, r.Hour)
		}
		seen[r.Hour] = true
		tariff[r.Hour] = r.Price
	}

	return tariff, nil
}

// TariffRows expands a Tariff back into table rows
func TariffRows(t engine.Tariff) []TariffRow {
	rows := make([]TariffRow, engine.HoursPerDay)
	for h, price := range t {
		rows[h] = TariffRow{Hour: h, Price: price}
	}
	return rows
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
