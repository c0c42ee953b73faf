package charts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awaistahir/loadplan/internal/engine"
)

func assertNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLoadCurve(t *testing.T) {
	rows := engine.NewScheduler(engine.Tariff{}, engine.DefaultOptions()).Schedule()
	rows[3].LoadKW = 7.2
	rows[4].LoadKW = 7.35
	path := filepath.Join(t.TempDir(), "load_curve.png")

	require.NoError(t, LoadCurve(rows, path))
	assertNonEmptyFile(t, path)
}

func TestCostBars(t *testing.T) {
	rows := []engine.CostRow{
		{Name: "EV", Hours: 4, EnergyKWh: 28.8, Cost: 129.6},
		{Name: "Dryer", Hours: 2, EnergyKWh: 5, Cost: 40},
		{Name: "Washer", Hours: 2, EnergyKWh: 1, Cost: 8},
	}
	path := filepath.Join(t.TempDir(), "cost_breakdown.png")

	require.NoError(t, CostBars(rows, path, 2))
	assertNonEmptyFile(t, path)
}

func TestCostBars_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cost_breakdown.svg")

	require.NoError(t, CostBars(nil, path, 0))
	assertNonEmptyFile(t, path)
}
