package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfund/livetrader/internal/advisor"
	"github.com/openfund/livetrader/internal/advisor/factory"
	"github.com/openfund/livetrader/internal/audit"
	"github.com/openfund/livetrader/internal/executor"
	"github.com/openfund/livetrader/internal/logger"
	"github.com/openfund/livetrader/internal/metrics"
	"github.com/openfund/livetrader/internal/risk"
	"github.com/openfund/livetrader/internal/session"
)

// liveConfirmation is the phrase required before real money is at risk.
const liveConfirmation = "CONFIRM LIVE TRADING"

var (
	runTickers       []string
	runLive          bool
	runShowReasoning bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a live trading session",
	Long: `Run executes one full trading session: connect to the provider, ask
the advisor for decisions, execute them under risk controls, then record
and deliver the results.

Live trading requires ENABLE_LIVE_TRADING=true (or dry_run: false in the
config) and an interactive confirmation.`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceVarP(&runTickers, "tickers", "t", nil, "tickers to trade (required)")
	runCmd.Flags().BoolVar(&runLive, "live", false, "enable live trading (requires interactive confirmation)")
	runCmd.Flags().BoolVar(&runShowReasoning, "show-reasoning", false, "print the advisor's reasoning for each decision")
	runCmd.MarkFlagRequired("tickers")
}

func runSession(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	log = configuredLogger(log, cfg)

	dryRun := cfg.Trading.DryRun && !runLive
	if dryRun {
		fmt.Println("DRY RUN MODE - no real trades will be executed")
	} else {
		fmt.Println("LIVE TRADING MODE ENABLED - real money will be at risk")
		fmt.Printf("Max position size: $%.2f\n", cfg.Risk.MaxPositionSize)
		fmt.Printf("Max order value:   $%.2f\n", cfg.Trading.MaxOrderValue)
		if !confirmLive(cmd) {
			fmt.Println("Cancelled for safety")
			return nil
		}
	}

	t, err := getTrader(cfg)
	if err != nil {
		return err
	}

	provider, err := factory.New(cfg.Advisor)
	if err != nil {
		return fmt.Errorf("building advisor: %w", err)
	}

	riskMgr := risk.NewManager(risk.Limits{
		MaxPositionSize:          cfg.Risk.MaxPositionSize,
		MaxPortfolioValue:        cfg.Risk.MaxPortfolioValue,
		MaxDailyLoss:             cfg.Risk.MaxDailyLoss,
		MaxPositionConcentration: cfg.Risk.MaxPositionConcentration,
		MaxDailyTrades:           cfg.Risk.MaxDailyTrades,
		MinCashReserve:           cfg.Risk.MinCashReserve,
	}, log)

	recorder, err := audit.FromConfig(cfg.Audit, log)
	if err != nil {
		return fmt.Errorf("building audit recorder: %w", err)
	}

	notifiers, err := buildNotifiers(cfg, log)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	stopMetrics := serveMetrics(cfg.Metrics, reg, log)
	defer stopMetrics()

	s := session.New(session.Deps{
		Trader:    t,
		Advisor:   advisor.New(provider, log),
		Executor:  executor.New(t, riskMgr, log),
		Risk:      riskMgr,
		Audit:     recorder,
		Notifiers: notifiers,
		Metrics:   reg,
		Logger:    log,
	}, dryRun)

	result, err := s.Run(cmd.Context(), normalizeTickers(runTickers))
	if err != nil {
		return fmt.Errorf("session failed: %w", err)
	}

	printSessionResult(result)
	if runShowReasoning {
		printReasoning(result)
	}
	return nil
}

// confirmLive reads the safety phrase from the command's input stream.
func confirmLive(cmd *cobra.Command) bool {
	fmt.Printf("Type '%s' to proceed with real money: ", liveConfirmation)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == liveConfirmation
}

func normalizeTickers(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printReasoning(result *session.Result) {
	fmt.Println("\nAdvisor reasoning")
	fmt.Println("-----------------")
	for _, d := range result.Decisions {
		reasoning := d.Reasoning
		if reasoning == "" {
			reasoning = "(none given)"
		}
		fmt.Printf("  %s: %s\n", d.Ticker, reasoning)
	}
}

func printSessionResult(result *session.Result) {
	fmt.Println("\nSession summary")
	fmt.Println("---------------")
	for _, o := range result.Outcomes {
		line := fmt.Sprintf("  %s: %s %d", o.Ticker, strings.ToUpper(string(o.Action)), o.Quantity)
		switch o.Status {
		case session.StatusExecuted:
			fmt.Printf("%s @ $%.2f\n", line, o.Price)
		default:
			fmt.Printf("%s (%s: %s)\n", line, o.Status, o.Reason)
		}
	}
	fmt.Printf("Successful trades: %d/%d\n", result.SuccessfulTrades, result.TotalDecisions)
	fmt.Printf("Total value:       $%.2f\n", result.ExecutedValue)
	if result.RiskSummary.CircuitBreakerActive {
		fmt.Println("Circuit breaker:   ACTIVE")
	} else {
		fmt.Println("Circuit breaker:   inactive")
	}
	if result.FinalAccount != nil {
		fmt.Printf("Final cash:        $%.2f\n", result.FinalAccount.Cash)
		fmt.Printf("Total assets:      $%.2f\n", result.FinalAccount.TotalAssets)
	}
	fmt.Println("\nSession completed")
}
