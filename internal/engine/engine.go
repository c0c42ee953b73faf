package engine

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// loadEpsilon keeps the load normalization finite when every hour carries the same load
const loadEpsilon = 1e-9

// Scheduler places appliances one at a time into the 24 hours of a day.
// It owns the load state of a single optimization pass and is not safe for concurrent use.
type Scheduler struct {
	tariff Tariff
	opts   Options
	load   [HoursPerDay]float64
	names  [HoursPerDay][]string
}

// NewScheduler creates a scheduler with an empty load profile
func NewScheduler(tariff Tariff, opts Options) *Scheduler {
	return &Scheduler{
		tariff: tariff,
		opts:   opts,
	}
}

// Optimize runs the greedy pass over all appliances and builds the report views
func Optimize(appliances []Appliance, tariff Tariff, opts Options) *Result {
	s := NewScheduler(tariff, opts)

	ordered := Order(appliances)
	placements := make([]Placement, 0, len(ordered))
	for _, a := range ordered {
		placements = append(placements, s.Place(a))
	}

	schedule := s.Schedule()
	return &Result{
		Placements: placements,
		Schedule:   schedule,
		Costs:      Costs(placements, tariff),
		Summary:    Summarize(schedule),
	}
}

// Order returns appliances in processing order: must-run first, then higher
// priority, then higher power. Ties keep their input order.
func Order(appliances []Appliance) []Appliance {
	ordered := slices.Clone(appliances)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.MustRun != b.MustRun {
			return a.MustRun
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.PowerKW() > b.PowerKW()
	})
	return ordered
}

// Load returns a copy of the accumulated load per hour in kW
func (s *Scheduler) Load() [HoursPerDay]float64 {
	return s.load
}

// Scores returns the per-hour score against the current load (lower is better)
func (s *Scheduler) Scores() [HoursPerDay]float64 {
	lo := floats.Min(s.load[:])
	hi := floats.Max(s.load[:])

	var scores [HoursPerDay]float64
	for h := range scores {
		normalized := (s.load[h] - lo) / (hi - lo + loadEpsilon)
		scores[h] = s.opts.Alpha*s.tariff[h] + s.opts.Beta*normalized
	}
	return scores
}

// Place chooses hours for one appliance and adds its power to the load profile.
// It never fails: appliances that cannot get a contiguous block fall back to
// the cheapest individual hours of their window.
func (s *Scheduler) Place(a Appliance) Placement {
	if a.DurationH <= 0 {
		return Placement{Appliance: a, Hours: []int{}}
	}

	window := Window(a.EarliestStart, a.LatestEnd)
	scores := s.Scores()

	var hours []int
	if a.Flexible {
		hours = cheapestHours(window, scores, a.DurationH)
	} else if block, ok := bestBlock(window, scores, a.DurationH); ok {
		hours = block
	} else {
		hours = cheapestHours(window, scores, a.DurationH)
	}

	kw := a.PowerKW()
	for _, h := range hours {
		s.load[h] += kw
		s.names[h] = append(s.names[h], a.Name)
	}

	assigned := slices.Clone(hours)
	slices.Sort(assigned)
	return Placement{Appliance: a, Hours: assigned}
}

// cheapestHours picks up to need hours of the window with the lowest score.
// Equal scores keep window order, so 22 comes before 0 in a 22 -> 6 window.
func cheapestHours(window []int, scores [HoursPerDay]float64, need int) []int {
	candidates := slices.Clone(window)
	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i]] < scores[candidates[j]]
	})
	return candidates[:min(need, len(candidates))]
}

// bestBlock finds the contiguous block of duration hours inside the window
// with the lowest total score. Start hours are tried in window order and the
// first minimum wins.
func bestBlock(window []int, scores [HoursPerDay]float64, duration int) ([]int, bool) {
	if duration > len(window) {
		return nil, false
	}
	inWindow := windowMask(window)

	var best []int
	bestScore := math.Inf(1)
	for _, start := range window {
		block := blockHours(start, duration)

		fits := true
		total := 0.0
		for _, h := range block {
			if !inWindow[h] {
				fits = false
				break
			}
			total += scores[h]
		}
		if !fits {
			continue
		}

		if total < bestScore {
			best, bestScore = block, total
		}
	}

	return best, best != nil
}
