package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	require.NoError(t, Init(v, ""))

	cfg, err := Load(v)

	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Alpha)
	assert.Equal(t, 1.0, cfg.Beta)
	assert.Equal(t, "sample_appliances.csv", cfg.Appliances)
	assert.Equal(t, "sample_tariffs.csv", cfg.Tariffs)
	assert.Equal(t, "optimized_schedule.csv", cfg.ScheduleOut)
	assert.Equal(t, "cost_breakdown.csv", cfg.CostOut)
	assert.Equal(t, "load_curve.png", cfg.PlotLoad)
	assert.Equal(t, "cost_breakdown.png", cfg.PlotCost)
	assert.Equal(t, 10, cfg.TopN)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "alpha: 2.5\nbeta: 0.25\ntariffs: octopus.csv\ntop_n: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("LOADPLAN_BETA", "3")

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)

	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Alpha)
	assert.Equal(t, 3.0, cfg.Beta)
	assert.Equal(t, "octopus.csv", cfg.Tariffs)
	assert.Equal(t, 5, cfg.TopN)
}

func TestInitMissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := Init(v, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{TopN: 0}
	assert.Error(t, cfg.Validate())

	cfg.TopN = 3
	assert.NoError(t, cfg.Validate())
}
