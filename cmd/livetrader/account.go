package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openfund/livetrader/internal/audit"
	"github.com/openfund/livetrader/internal/logger"
	"github.com/openfund/livetrader/internal/trader"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account operations",
	Long:  `Commands for inspecting the trading account (summary, positions, trade history).`,
}

var accountInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show account summary",
	RunE:  runAccountInfo,
}

var accountPositionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List current positions",
	RunE:  runAccountPositions,
}

var accountHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded trades for a day",
	RunE:  runAccountHistory,
}

var historyDate string

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountInfoCmd)
	accountCmd.AddCommand(accountPositionsCmd)
	accountCmd.AddCommand(accountHistoryCmd)

	accountHistoryCmd.Flags().StringVar(&historyDate, "date", "", "Day to list (YYYY-MM-DD, default today)")
}

// withTraderConnection handles common provider setup and teardown.
func withTraderConnection(fn func(t trader.Trader, log *zap.Logger) error) error {
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

	ctx := context.Background()
	if err := t.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to provider: %w", err)
	}
	defer t.Disconnect()

	return fn(t, log)
}

func runAccountInfo(cmd *cobra.Command, args []string) error {
	return withTraderConnection(func(t trader.Trader, log *zap.Logger) error {
		info, err := t.AccountInfo(context.Background())
		if err != nil {
			return fmt.Errorf("getting account info: %w", err)
		}

		fmt.Println("Account Summary")
		fmt.Println("---------------")
		fmt.Printf("Provider:      %s\n", t.Name())
		fmt.Printf("Account:       %s\n", info.AccountID)
		fmt.Printf("Total Assets:  $%.2f\n", info.TotalAssets)
		fmt.Printf("Cash:          $%.2f\n", info.Cash)
		fmt.Printf("Market Value:  $%.2f\n", info.MarketValue)
		fmt.Printf("Buying Power:  $%.2f\n", info.BuyingPower)
		fmt.Printf("Unrealized PL: $%.2f\n", info.UnrealizedPL)

		log.Info("account info displayed", zap.String("provider", t.Name()))
		return nil
	})
}

func runAccountPositions(cmd *cobra.Command, args []string) error {
	return withTraderConnection(func(t trader.Trader, log *zap.Logger) error {
		positions, err := t.Positions(context.Background())
		if err != nil {
			return fmt.Errorf("getting positions: %w", err)
		}

		if len(positions) == 0 {
			fmt.Println("No positions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tMARKET\tQTY\tAVG COST\tMKT VALUE\tP&L\t")
		fmt.Fprintln(w, "------\t------\t---\t--------\t---------\t---\t")

		for _, p := range positions {
			plSign := ""
			if p.UnrealizedPL >= 0 {
				plSign = "+"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%s%.2f\t\n",
				p.Symbol, p.Market, p.Quantity, p.AverageCost, p.MarketValue, plSign, p.UnrealizedPL)
		}
		w.Flush()

		log.Info("positions listed", zap.Int("count", len(positions)))
		return nil
	})
}

func runAccountHistory(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	log = configuredLogger(log, cfg)

	recorder, err := audit.FromConfig(cfg.Audit, log)
	if err != nil {
		return fmt.Errorf("building audit recorder: %w", err)
	}
	if recorder == nil {
		return fmt.Errorf("audit trail is disabled in the configuration")
	}

	day := time.Now()
	if historyDate != "" {
		day, err = time.Parse("2006-01-02", historyDate)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
	}

	records, err := recorder.TradesOn(context.Background(), day)
	if err != nil {
		return fmt.Errorf("reading trade records: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No trades recorded on %s.\n", day.Format("2006-01-02"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSYMBOL\tSIDE\tQTY\tPRICE\tFEE\tSTATUS\tDRY RUN\t")
	fmt.Fprintln(w, "----\t------\t----\t---\t-----\t---\t------\t-------\t")

	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%.2f\t%s\t%t\t\n",
			r.Timestamp.Format("15:04:05"), r.Symbol, r.Side, r.FilledQty,
			r.FillPrice, r.Commission, r.Status, r.DryRun)
	}
	w.Flush()

	log.Info("trade history listed", zap.Int("count", len(records)))
	return nil
}
