package engine

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Schedule returns one row per hour with the tariff, the load rounded to
// 4 decimals and the appliances in placement order
func (s *Scheduler) Schedule() []ScheduleRow {
	rows := make([]ScheduleRow, HoursPerDay)
	for h := range rows {
		rows[h] = ScheduleRow{
			Hour:         h,
			TariffPerKWh: s.tariff[h],
			LoadKW:       round(s.load[h], 4),
			Appliances:   slices.Clone(s.names[h]),
		}
	}
	return rows
}

// Costs builds the per-appliance cost breakdown, most expensive first.
// Appliances with equal cost keep the order of placements.
func Costs(placements []Placement, tariff Tariff) []CostRow {
	rows := make([]CostRow, 0, len(placements))
	for _, p := range placements {
		kw := p.Appliance.PowerKW()

		energy, cost := 0.0, 0.0
		if len(p.Hours) > 0 {
			energy = kw * float64(len(p.Hours))
			for _, h := range p.Hours {
				cost += kw * tariff[h]
			}
		}

		rows = append(rows, CostRow{
			Name:      p.Appliance.Name,
			Hours:     len(p.Hours),
			EnergyKWh: round(energy, 4),
			Cost:      round(cost, 2),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Cost > rows[j].Cost
	})
	return rows
}

// Summarize computes peak load, total energy and approximate cost from the schedule
func Summarize(rows []ScheduleRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	loads := make([]float64, len(rows))
	prices := make([]float64, len(rows))
	for i, r := range rows {
		loads[i] = r.LoadKW
		prices[i] = r.TariffPerKWh
	}

	return Summary{
		PeakKW:         round(floats.Max(loads), 3),
		TotalEnergyKWh: round(floats.Sum(loads), 3),
		ApproxCost:     round(floats.Dot(loads, prices), 2),
	}
}

// round rounds half to even, so 0.125 becomes 0.12
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(x*p) / p
}
