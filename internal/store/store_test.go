package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awaistahir/loadplan/internal/engine"
	"github.com/awaistahir/loadplan/internal/tables"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "plan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIsDatabasePath(t *testing.T) {
	assert.True(t, IsDatabasePath("plan.db"))
	assert.True(t, IsDatabasePath("/tmp/Plan.SQLITE"))
	assert.False(t, IsDatabasePath("appliances.csv"))
	assert.False(t, IsDatabasePath("db"))
}

func TestStore_AppliancesKeepOrder(t *testing.T) {
	st := newTestStore(t)
	appliances := []engine.Appliance{
		{Name: "Washer", PowerW: 500, DurationH: 2, EarliestStart: 8, LatestEnd: 20, Priority: 3},
		{Name: "EV", PowerW: 7200, DurationH: 4, EarliestStart: 22, LatestEnd: 6, Priority: 4, Flexible: true},
		{Name: "Fridge", PowerW: 150, DurationH: 24, LatestEnd: 24, Priority: 5, Flexible: true, MustRun: true},
	}

	require.NoError(t, st.SaveAppliances(appliances))
	got, err := st.GetAppliances()

	require.NoError(t, err)
	assert.Equal(t, appliances, got)

	// saving again replaces the table
	require.NoError(t, st.SaveAppliances(appliances[:1]))
	got, err = st.GetAppliances()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_Tariffs(t *testing.T) {
	st := newTestStore(t)
	var tariff engine.Tariff
	for h := range tariff {
		tariff[h] = 4 + float64(h)/2
	}

	require.NoError(t, st.SaveTariffs(tables.TariffRows(tariff)))
	rows, err := st.GetTariffs()
	require.NoError(t, err)

	got, err := tables.BuildTariff(rows)
	require.NoError(t, err)
	assert.Equal(t, tariff, got)
}

func TestStore_IncompleteTariffsRejected(t *testing.T) {
	st := newTestStore(t)
	rows := tables.TariffRows(engine.Tariff{})
	rows = append(rows[:17], rows[18:]...)

	require.NoError(t, st.SaveTariffs(rows))
	got, err := st.GetTariffs()
	require.NoError(t, err)

	_, err = tables.BuildTariff(got)
	assert.ErrorIs(t, err, tables.ErrInvalidTariffTable)
}

func TestStore_Outputs(t *testing.T) {
	st := newTestStore(t)
	var tariff engine.Tariff
	for h := range tariff {
		tariff[h] = 6
	}
	res := engine.Optimize([]engine.Appliance{
		{Name: "EV", PowerW: 7200, DurationH: 2, EarliestStart: 0, LatestEnd: 6, Priority: 4, Flexible: true},
		{Name: "Kettle", PowerW: 2000, DurationH: 1, EarliestStart: 0, LatestEnd: 6, Priority: 1, Flexible: true},
		{Name: "Heater", PowerW: 2000, DurationH: 0, LatestEnd: 24, Priority: 1},
	}, tariff, engine.DefaultOptions())

	require.NoError(t, st.SaveSchedule(res.Schedule))
	require.NoError(t, st.SaveCosts(res.Costs))

	schedule, err := st.GetSchedule()
	require.NoError(t, err)
	require.Len(t, schedule, engine.HoursPerDay)
	for i := range schedule {
		assert.Equal(t, res.Schedule[i].LoadKW, schedule[i].LoadKW)
		assert.Equal(t, res.Schedule[i].AppliancesLabel(), schedule[i].AppliancesLabel())
	}

	costs, err := st.GetCosts()
	require.NoError(t, err)
	assert.Equal(t, res.Costs, costs)
}
