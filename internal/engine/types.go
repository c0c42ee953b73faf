package engine

import "strings"

// HoursPerDay is the length of the scheduling horizon
const HoursPerDay = 24

// EmptySlot marks an hour with no appliance assigned
const EmptySlot = "-"

// Appliance represents one household appliance to be placed in the day
type Appliance struct {
	Name          string  `json:"name" validate:"required"`
	PowerW        float64 `json:"power_w" validate:"gte=0,finite"`
	DurationH     int     `json:"duration_h" validate:"gte=0"`
	EarliestStart int     `json:"earliest_start" validate:"min=0,max=23"`
	LatestEnd     int     `json:"latest_end" validate:"min=1,max=24"`
	Priority      int     `json:"priority" validate:"min=1,max=5"` // 1-5, higher is scheduled first
	Flexible      bool    `json:"flexible"`                        // hours may be non-contiguous
	MustRun       bool    `json:"must_run"`                        // placed before all other appliances
}

// PowerKW returns the rated power in kilowatts
func (a Appliance) PowerKW() float64 {
	return a.PowerW / 1000.0
}

// Tariff holds the price per kWh for each hour of the day
type Tariff [HoursPerDay]float64

// Options contains the weights of the per-hour score
type Options struct {
	Alpha float64 `json:"alpha"` // weight for tariff price
	Beta  float64 `json:"beta"`  // weight for normalized load
}

// DefaultOptions weighs tariff and load balance equally
func DefaultOptions() Options {
	return Options{Alpha: 1.0, Beta: 1.0}
}

// Placement records the hours assigned to an appliance, in ascending order
type Placement struct {
	Appliance Appliance `json:"appliance"`
	Hours     []int     `json:"hours"`
}

// ScheduleRow is the state of one hour after optimization
type ScheduleRow struct {
	Hour         int      `json:"hour"`
	TariffPerKWh float64  `json:"tariff_per_kwh"`
	LoadKW       float64  `json:"load_kw"`
	Appliances   []string `json:"appliances"`
}

// AppliancesLabel joins the assigned appliance names, or returns EmptySlot
func (r ScheduleRow) AppliancesLabel() string {
	if len(r.Appliances) == 0 {
		return EmptySlot
	}
	return strings.Join(r.Appliances, ", ")
}

// CostRow is the cost breakdown for one appliance
type CostRow struct {
	Name      string  `json:"name"`
	Hours     int     `json:"hours"`
	EnergyKWh float64 `json:"energy_kwh"`
	Cost      float64 `json:"cost"`
}

// Summary aggregates the whole schedule
type Summary struct {
	PeakKW         float64 `json:"peak_kw"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	ApproxCost     float64 `json:"approx_cost"`
}

// Result is the outcome of a full optimization pass
type Result struct {
	Placements []Placement   `json:"placements"` // in processing order
	Schedule   []ScheduleRow `json:"schedule"`
	Costs      []CostRow     `json:"costs"` // descending by cost
	Summary    Summary       `json:"summary"`
}
