package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openfund/livetrader/internal/launcher"
	"github.com/openfund/livetrader/internal/logger"
	"github.com/openfund/livetrader/internal/metrics"
)

var launchCmd = &cobra.Command{
	Use:   "launch [args...]",
	Short: "Launch the legacy Python live runner",
	Long: `Launch spawns the legacy live-trading program through its environment
manager, from the launcher's own directory, and blocks until it exits.
The child's exit code becomes this process's exit code.

Extra arguments are accepted for compatibility but not forwarded: the
legacy wrapper always ran a single fixed ticker.`,
	RunE: runLaunch,
}

var (
	launchInterpreter string
	launchScript      string
)

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().StringVar(&launchInterpreter, "interpreter", "", "override the configured environment manager")
	launchCmd.Flags().StringVar(&launchScript, "script", "", "override the configured target script")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	log = configuredLogger(log, cfg)

	reg := metrics.NewRegistry()
	stopMetrics := serveMetrics(cfg.Metrics, reg, log)
	defer stopMetrics()

	opts := launcher.Options{
		Interpreter: cfg.Launcher.Interpreter,
		RunnerArgs:  cfg.Launcher.RunnerArgs,
		Script:      cfg.Launcher.Script,
	}
	if launchInterpreter != "" {
		opts.Interpreter = launchInterpreter
	}
	if launchScript != "" {
		opts.Script = launchScript
	}

	log.Info("launching live runner",
		zap.String("interpreter", opts.Interpreter),
		zap.String("script", opts.Script))

	began := time.Now()
	result, err := launcher.Run(cmd.Context(), opts, args)
	if err != nil {
		reg.RecordLaunch("error")
		return fmt.Errorf("launch failed: %w", err)
	}

	reg.RecordLaunch("ok")
	reg.RecordChildExit(strconv.Itoa(result.ExitCode), time.Since(began).Seconds())

	log.Info("live runner exited",
		zap.Int("exit_code", result.ExitCode),
		zap.Strings("argv", result.Argv),
		zap.String("dir", result.Dir))

	if result.ExitCode != 0 {
		return &ExitError{Code: result.ExitCode}
	}
	return nil
}
