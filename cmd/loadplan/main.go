package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/awaistahir/loadplan/internal/charts"
	"github.com/awaistahir/loadplan/internal/config"
	"github.com/awaistahir/loadplan/internal/engine"
	"github.com/awaistahir/loadplan/internal/logger"
	"github.com/awaistahir/loadplan/internal/prices"
	"github.com/awaistahir/loadplan/internal/tables"
)

func main() {
	a := newApp(os.Stdout, logger.NewWithWriter("loadplan", os.Stderr))
	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand of one invocation
type app struct {
	v       *viper.Viper
	out     io.Writer
	log     logger.Logger
	cfgFile string

	// newTariffClient is swapped in tests
	newTariffClient func(region string) tariffClient
}

type tariffClient interface {
	Hourly(ctx context.Context, day time.Time, region string) ([]tables.TariffRow, error)
}

func newApp(out io.Writer, log logger.Logger) *app {
	return &app{
		v:   viper.New(),
		out: out,
		log: log,
		newTariffClient: func(region string) tariffClient {
			return prices.NewOctopusClient(region)
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loadplan",
		Short: "loadplan - Schedule household appliances across a 24 hour tariff",
		Long: `loadplan places each appliance into the hours of its allowed window that
are cheapest and least loaded, then reports the resulting load curve and
per-appliance energy cost.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(a.v, a.cfgFile)
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.loadplan/config.yaml)")

	rootCmd.AddCommand(a.optimizeCmd())
	rootCmd.AddCommand(a.validateCmd())
	rootCmd.AddCommand(a.fetchTariffsCmd())
	rootCmd.AddCommand(a.importCmd())

	return rootCmd
}

// loadConfig binds the flags of the running command to their config keys
// and decodes the merged settings. Binding happens per run because several
// subcommands share keys.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = a.v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	if bindErr != nil {
		return nil, bindErr
	}
	return config.Load(a.v)
}

func (a *app) optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Schedule the appliances and write the schedule, cost breakdown and charts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			return a.optimize(cfg)
		},
	}

	cmd.Flags().String("appliances", "sample_appliances.csv", "appliance table (CSV or .db)")
	cmd.Flags().String("tariffs", "sample_tariffs.csv", "24 hour tariff table (CSV or .db)")
	cmd.Flags().Float64("alpha", 1.0, "weight of the tariff in the hour score")
	cmd.Flags().Float64("beta", 1.0, "weight of the normalized load in the hour score")
	cmd.Flags().String("schedule-out", "optimized_schedule.csv", "schedule output (CSV or .db)")
	cmd.Flags().String("cost-out", "cost_breakdown.csv", "cost breakdown output (CSV or .db)")
	cmd.Flags().String("plot-load", "load_curve.png", "load curve image, empty to skip")
	cmd.Flags().String("plot-cost", "cost_breakdown.png", "cost chart image, empty to skip")
	cmd.Flags().Int("top-n", charts.DefaultTopN, "appliances shown in the cost chart")

	return cmd
}

func (a *app) optimize(cfg *config.Config) error {
	appliances, err := readAppliances(cfg.Appliances)
	if err != nil {
		return err
	}
	tariff, err := readTariff(cfg.Tariffs)
	if err != nil {
		return err
	}

	a.log.Infof("optimizing %d appliances (alpha=%g beta=%g)", len(appliances), cfg.Alpha, cfg.Beta)
	res := engine.Optimize(appliances, tariff, engine.Options{Alpha: cfg.Alpha, Beta: cfg.Beta})

	if err := writeSchedule(cfg.ScheduleOut, res.Schedule); err != nil {
		return err
	}
	if err := writeCosts(cfg.CostOut, res.Costs); err != nil {
		return err
	}

	var plots []string
	if cfg.PlotLoad != "" {
		if err := charts.LoadCurve(res.Schedule, cfg.PlotLoad); err != nil {
			return err
		}
		plots = append(plots, cfg.PlotLoad)
	}
	if cfg.PlotCost != "" {
		if err := charts.CostBars(res.Costs, cfg.PlotCost, cfg.TopN); err != nil {
			return err
		}
		plots = append(plots, cfg.PlotCost)
	}

	printSummary(a.out, res.Summary, cfg.ScheduleOut, cfg.CostOut, plots)
	return nil
}

func printSummary(w io.Writer, s engine.Summary, scheduleOut, costOut string, plots []string) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Bold)
	ok := color.New(color.FgGreen)

	title.Fprintln(w, "=== Optimization Summary ===")
	label.Fprint(w, "Peak Load (kW): ")
	fmt.Fprintln(w, s.PeakKW)
	label.Fprint(w, "Total Energy (kWh): ")
	fmt.Fprintln(w, s.TotalEnergyKWh)
	label.Fprint(w, "Approx Cost (Rs): ")
	fmt.Fprintln(w, s.ApproxCost)
	ok.Fprintf(w, "Schedule saved to: %s\n", scheduleOut)
	ok.Fprintf(w, "Cost breakdown saved to: %s\n", costOut)
	if len(plots) > 0 {
		ok.Fprintf(w, "Plots saved to: %s\n", strings.Join(plots, ", "))
	}
}

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the appliance and tariff tables without optimizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			appliances, err := readAppliances(cfg.Appliances)
			if err != nil {
				return err
			}
			if _, err := readTariff(cfg.Tariffs); err != nil {
				return err
			}

			var flexible, mustRun int
			for _, ap := range appliances {
				if ap.Flexible {
					flexible++
				}
				if ap.MustRun {
					mustRun++
				}
			}
			color.New(color.FgGreen).Fprintf(a.out, "%d appliances (%d flexible, %d must-run) and 24 tariff hours are valid\n",
				len(appliances), flexible, mustRun)
			return nil
		},
	}

	cmd.Flags().String("appliances", "sample_appliances.csv", "appliance table (CSV or .db)")
	cmd.Flags().String("tariffs", "sample_tariffs.csv", "24 hour tariff table (CSV or .db)")

	return cmd
}

func (a *app) fetchTariffsCmd() *cobra.Command {
	var date, out string

	cmd := &cobra.Command{
		Use:   "fetch-tariffs",
		Short: "Fetch a day of Octopus Agile prices as an hourly tariff table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			day := time.Now().UTC()
			if date != "today" {
				day, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			rows, err := a.newTariffClient(cfg.Region).Hourly(ctx, day, cfg.Region)
			if err != nil {
				return fmt.Errorf("fetching tariffs: %w", err)
			}
			if out == "" {
				out = fetchedTariffsPath(day)
			}
			if err := writeTariffs(out, rows); err != nil {
				return err
			}

			a.log.Infof("fetched %d hourly prices for %s region %s", len(rows), day.Format("2006-01-02"), cfg.Region)
			color.New(color.FgGreen).Fprintf(a.out, "Tariffs saved to: %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "today", "Date to fetch (YYYY-MM-DD or 'today')")
	cmd.Flags().StringP("region", "r", "C", "Octopus region (A-P)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "tariff table to write, CSV or .db (default tariffs_<date>.csv)")

	return cmd
}

// fetchedTariffsPath names the default output of fetch-tariffs after the day
// so that it never replaces the tariff input of optimize
func fetchedTariffsPath(day time.Time) string {
	return fmt.Sprintf("tariffs_%s.csv", day.Format("2006-01-02"))
}

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <database>",
		Short: "Copy the appliance and tariff CSVs into a SQLite table file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			return importTables(args[0], cfg.Appliances, cfg.Tariffs)
		},
	}

	cmd.Flags().String("appliances", "sample_appliances.csv", "appliance CSV")
	cmd.Flags().String("tariffs", "sample_tariffs.csv", "tariff CSV")

	return cmd
}
