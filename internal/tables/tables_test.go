package tables

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awaistahir/loadplan/internal/engine"
)

const applianceHeader = "Name,Power_W,Duration_h,EarliestStart,LatestEnd,Priority,Flexible,MustRun\n"

func tariffCSV(skip int) string {
	var b strings.Builder
	b.WriteString("Hour,Tariff_Rs_per_kWh\n")
	for h := 0; h < 24; h++ {
		if h == skip {
			continue
		}
		fmt.Fprintf(&b, "%d,%.2f\n", h, 5+float64(h)/4)
	}
	return b.String()
}

func TestReadAppliances(t *testing.T) {
	input := applianceHeader +
		"Washer,500,2,8,20,3,False,False\n" +
		"EV,7200,4,22,6,4,True,False\n" +
		"Fridge,150,24,0,24,5,1,1\n"

	appliances, err := ReadAppliances(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, appliances, 3)

	assert.Equal(t, engine.Appliance{
		Name: "Washer", PowerW: 500, DurationH: 2, EarliestStart: 8, LatestEnd: 20, Priority: 3,
	}, appliances[0])
	assert.True(t, appliances[1].Flexible)
	assert.Equal(t, 22, appliances[1].EarliestStart)
	assert.Equal(t, 6, appliances[1].LatestEnd)
	assert.True(t, appliances[2].Flexible)
	assert.True(t, appliances[2].MustRun)
}

func TestReadAppliances_ClampsFields(t *testing.T) {
	input := applianceHeader +
		"Heater,2000,-3,-1,30,9,yes,no\n" +
		"Lamp,60,2.7,23.5,0,0,TRUE,false\n"

	appliances, err := ReadAppliances(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, appliances, 2)

	assert.Equal(t, 0, appliances[0].DurationH)
	assert.Equal(t, 0, appliances[0].EarliestStart)
	assert.Equal(t, 24, appliances[0].LatestEnd)
	assert.Equal(t, 5, appliances[0].Priority)
	assert.True(t, appliances[0].Flexible)
	assert.False(t, appliances[0].MustRun)

	assert.Equal(t, 2, appliances[1].DurationH)
	assert.Equal(t, 23, appliances[1].EarliestStart)
	assert.Equal(t, 1, appliances[1].LatestEnd)
	assert.Equal(t, 1, appliances[1].Priority)
}

func TestReadAppliances_ExtraColumnsAndOrder(t *testing.T) {
	input := "Notes,MustRun,Flexible,Priority,LatestEnd,EarliestStart,Duration_h,Power_W,Name\n" +
		"kitchen,0,1,2,12,8,1,1200,Kettle\n"

	appliances, err := ReadAppliances(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, appliances, 1)
	assert.Equal(t, "Kettle", appliances[0].Name)
	assert.InDelta(t, 1200, appliances[0].PowerW, 0.001)
	assert.Equal(t, 8, appliances[0].EarliestStart)
	assert.Equal(t, 12, appliances[0].LatestEnd)
}

func TestReadAppliances_MissingColumns(t *testing.T) {
	input := "Name,Power_W,Duration_h\nWasher,500,2\n"

	_, err := ReadAppliances(strings.NewReader(input))

	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "EarliestStart")
	assert.Contains(t, err.Error(), "MustRun")
}

func TestReadAppliances_InvalidRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{name: "non numeric power", row: "Washer,lots,2,8,20,3,0,0\n"},
		{name: "negative power", row: "Washer,-5,2,8,20,3,0,0\n"},
		{name: "blank name", row: ",500,2,8,20,3,0,0\n"},
		{name: "bad boolean", row: "Washer,500,2,8,20,3,maybe,0\n"},
		{name: "duplicate name", row: "Washer,500,2,8,20,3,0,0\nWasher,800,1,0,24,1,1,0\n"},
		{name: "infinite power", row: "Washer,Inf,2,8,20,3,0,0\n"},
		{name: "nan duration", row: "Washer,500,NaN,8,20,3,0,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAppliances(strings.NewReader(applianceHeader + tt.row))
			assert.ErrorIs(t, err, ErrInvalidAppliance)
		})
	}
}

func TestReadTariffs(t *testing.T) {
	tariff, err := ReadTariffs(strings.NewReader(tariffCSV(-1)))

	require.NoError(t, err)
	assert.InDelta(t, 5.0, tariff[0], 1e-9)
	assert.InDelta(t, 10.75, tariff[23], 1e-9)
}

func TestReadTariffs_Shuffled(t *testing.T) {
	var b strings.Builder
	b.WriteString("Tariff_Rs_per_kWh,Hour\n")
	for h := 23; h >= 0; h-- {
		fmt.Fprintf(&b, "%d.5,%d.0\n", h, h)
	}

	tariff, err := ReadTariffs(strings.NewReader(b.String()))

	require.NoError(t, err)
	for h, price := range tariff {
		assert.InDelta(t, float64(h)+0.5, price, 1e-9)
	}
}

func TestReadTariffs_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing hour 17", input: tariffCSV(17)},
		{name: "duplicate hour replaces 17", input: strings.Replace(tariffCSV(-1), "17,", "16,", 1)},
		{name: "too many rows", input: tariffCSV(-1) + "0,3\n"},
		{name: "hour out of range", input: strings.Replace(tariffCSV(-1), "23,", "24,", 1)},
		{name: "fractional hour", input: strings.Replace(tariffCSV(-1), "\n3,", "\n3.5,", 1)},
		{name: "negative price", input: strings.Replace(tariffCSV(-1), "4,6.00", "4,-6.00", 1)},
		{name: "infinite price", input: strings.Replace(tariffCSV(-1), "4,6.00", "4,+Inf", 1)},
		{name: "missing tariff column", input: "Hour,Price\n0,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTariffs(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidTariffTable)
		})
	}
}

func TestReadAppliances_HugeDurationIsCapped(t *testing.T) {
	appliances, err := ReadAppliances(strings.NewReader(applianceHeader + "Pump,750,1e20,0,24,2,1,0\n"))

	require.NoError(t, err)
	require.Len(t, appliances, 1)
	assert.Equal(t, math.MaxInt32, appliances[0].DurationH)
}

func TestCleanAppliances_RejectsNonFinitePower(t *testing.T) {
	for _, power := range []float64{math.Inf(1), math.NaN()} {
		_, err := CleanAppliances([]engine.Appliance{{Name: "Heater", PowerW: power, LatestEnd: 24, Priority: 1}})
		assert.ErrorIs(t, err, ErrInvalidAppliance, "power %v", power)
	}
}

func TestBuildTariff_RejectsInfinitePrice(t *testing.T) {
	var tariff engine.Tariff
	tariff[7] = math.Inf(1)

	_, err := BuildTariff(TariffRows(tariff))

	assert.ErrorIs(t, err, ErrInvalidTariffTable)
}

func TestCleanAppliances_DoesNotMutateInput(t *testing.T) {
	in := []engine.Appliance{{Name: "Dryer", PowerW: 2500, DurationH: -1, EarliestStart: 40, LatestEnd: 0, Priority: 0}}

	out, err := CleanAppliances(in)

	require.NoError(t, err)
	assert.Equal(t, -1, in[0].DurationH)
	assert.Equal(t, engine.Appliance{Name: "Dryer", PowerW: 2500, DurationH: 0, EarliestStart: 23, LatestEnd: 1, Priority: 1}, out[0])
}

func TestWriteSchedule(t *testing.T) {
	rows := []engine.ScheduleRow{
		{Hour: 0, TariffPerKWh: 4.5, LoadKW: 7.35, Appliances: []string{"EV", "Fridge"}},
		{Hour: 1, TariffPerKWh: 4, LoadKW: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSchedule(&buf, rows))

	want := "Hour,Tariff_Rs_per_kWh,Load_kW,Appliances\n" +
		"0,4.5,7.35,\"EV, Fridge\"\n" +
		"1,4,0,-\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCosts(t *testing.T) {
	rows := []engine.CostRow{
		{Name: "EV", Hours: 4, EnergyKWh: 28.8, Cost: 129.6},
		{Name: "Heater", Hours: 0, EnergyKWh: 0, Cost: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCosts(&buf, rows))

	want := "Name,Hours,Energy_KWh,Cost_Rs\n" +
		"EV,4,28.8,129.6\n" +
		"Heater,0,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestTariffRoundTripFile(t *testing.T) {
	var tariff engine.Tariff
	for h := range tariff {
		tariff[h] = float64(h) * 1.25
	}
	path := filepath.Join(t.TempDir(), "tariffs.csv")

	require.NoError(t, WriteTariffsFile(path, TariffRows(tariff)))
	got, err := ReadTariffsFile(path)

	require.NoError(t, err)
	assert.Equal(t, tariff, got)
}

func TestReadAppliancesFile_NotFound(t *testing.T) {
	_, err := ReadAppliancesFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
