package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/awaistahir/loadplan/internal/config"
	"github.com/awaistahir/loadplan/internal/engine"
	"github.com/awaistahir/loadplan/internal/logger"
	"github.com/awaistahir/loadplan/internal/metrics"
	"github.com/awaistahir/loadplan/internal/prices"
	"github.com/awaistahir/loadplan/internal/uiapi"
)

func main() {
	var cfgFile string
	v := viper.New()
	log := logger.New("loadpland")

	rootCmd := &cobra.Command{
		Use:          "loadpland",
		Short:        "loadplan HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(v, cfgFile); err != nil {
				return err
			}
			for _, key := range []string{config.KeyAddr, config.KeyRegion, config.KeyAlpha, config.KeyBeta} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
					return err
				}
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			sink, err := metrics.NewPromSink(reg)
			if err != nil {
				return fmt.Errorf("registering metrics: %w", err)
			}

			srv := uiapi.NewServer(uiapi.Config{
				Logger:   log,
				Sink:     sink,
				Gatherer: reg,
				Tariffs:  prices.NewOctopusClient(cfg.Region),
				Region:   cfg.Region,
				Defaults: engine.Options{Alpha: cfg.Alpha, Beta: cfg.Beta},
			})

			return serve(cmd.Context(), log, cfg.Addr, srv.Handler())
		},
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.loadplan/config.yaml)")
	rootCmd.Flags().String(config.KeyAddr, ":8080", "HTTP listen address")
	rootCmd.Flags().String(config.KeyRegion, "C", "Octopus region used by /api/tariffs")
	rootCmd.Flags().Float64(config.KeyAlpha, 1.0, "default tariff weight")
	rootCmd.Flags().Float64(config.KeyBeta, 1.0, "default load weight")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serve runs the API until ctx is cancelled, then drains open requests
func serve(ctx context.Context, log logger.Logger, addr string, h http.Handler) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("loadplan API listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
