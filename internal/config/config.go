package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Keys shared by the config file, environment and flags
const (
	KeyAlpha       = "alpha"
	KeyBeta        = "beta"
	KeyAppliances  = "appliances"
	KeyTariffs     = "tariffs"
	KeyScheduleOut = "schedule_out"
	KeyCostOut     = "cost_out"
	KeyPlotLoad    = "plot_load"
	KeyPlotCost    = "plot_cost"
	KeyTopN        = "top_n"
	KeyRegion      = "region"
	KeyAddr        = "addr"
)

// EnvPrefix prefixes environment overrides, e.g. LOADPLAN_ALPHA
const EnvPrefix = "LOADPLAN"

// Config holds every runtime setting of the CLI and the daemon
type Config struct {
	Alpha       float64 `mapstructure:"alpha"`
	Beta        float64 `mapstructure:"beta"`
	Appliances  string  `mapstructure:"appliances"`
	Tariffs     string  `mapstructure:"tariffs"`
	ScheduleOut string  `mapstructure:"schedule_out"`
	CostOut     string  `mapstructure:"cost_out"`
	PlotLoad    string  `mapstructure:"plot_load"`
	PlotCost    string  `mapstructure:"plot_cost"`
	TopN        int     `mapstructure:"top_n"`
	Region      string  `mapstructure:"region"`
	Addr        string  `mapstructure:"addr"`
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAlpha, 1.0)
	v.SetDefault(KeyBeta, 1.0)
	v.SetDefault(KeyAppliances, "sample_appliances.csv")
	v.SetDefault(KeyTariffs, "sample_tariffs.csv")
	v.SetDefault(KeyScheduleOut, "optimized_schedule.csv")
	v.SetDefault(KeyCostOut, "cost_breakdown.csv")
	v.SetDefault(KeyPlotLoad, "load_curve.png")
	v.SetDefault(KeyPlotCost, "cost_breakdown.png")
	v.SetDefault(KeyTopN, 10)
	v.SetDefault(KeyRegion, "C")
	v.SetDefault(KeyAddr, ":8080")
}

// Init points v at cfgFile, or at $HOME/.loadplan/config.yaml when empty,
// and enables environment overrides. A missing default config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(filepath.Join(home, ".loadplan"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// Load decodes the merged settings of v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the optimizer cannot use
func (c *Config) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	return nil
}
