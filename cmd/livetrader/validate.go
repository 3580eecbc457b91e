package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfund/livetrader/internal/logger"
	"github.com/openfund/livetrader/internal/validator"
)

var validateQuick bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run pre-flight checks against the trading setup",
	Long: `Validate checks configuration, provider connectivity, market data,
risk controls and order submission before a live session is started.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVarP(&validateQuick, "quick", "q", false, "configuration and connection checks only")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	log = configuredLogger(log, cfg)

	t, err := getTrader(cfg)
	if err != nil {
		return err
	}

	v := validator.New(cfg, t, log)

	if validateQuick {
		if v.RunQuick(cmd.Context()) {
			fmt.Println("Quick validation passed")
			return nil
		}
		return fmt.Errorf("quick validation failed")
	}

	report := v.RunFull(cmd.Context())

	fmt.Println("Validation report")
	fmt.Println("-----------------")
	for _, r := range report.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %-20s %s\n", status, r.Name, r.Message)
	}
	fmt.Printf("\nChecks passed: %d/%d\n", report.Passed, report.TotalChecks)
	for _, rec := range report.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}

	if !report.Ready() {
		return fmt.Errorf("validation failed: %d checks did not pass", report.Failed)
	}
	return nil
}
