package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/di"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/rebalancing"
	"github.com/aristath/folio/pkg/logger"
)

// openContainer wires the same dependencies as the server. Logs go to stderr
// so command output stays machine readable.
func openContainer(ctx context.Context) (*di.Container, *di.JobInstances, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Level:  "warn",
		Pretty: true,
		Output: os.Stderr,
	})

	return di.Wire(ctx, cfg, log)
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Portfolio rebalance planning",
		Long:          "folio projects a trade ledger into positions and builds rebalance plans from signals and allocation policy.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(newPlanCmd(), newPositionsCmd(), newPolicyCmd(), newBackupCmd())
	return root
}

func newPlanCmd() *cobra.Command {
	var portfolioID int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build the rebalance plan of a portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			result, err := container.RebalancingService.BuildPlan(cmd.Context(), portfolioID)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printPlan(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().Int64Var(&portfolioID, "portfolio", 1, "portfolio ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full plan as JSON")
	return cmd
}

func newPositionsCmd() *cobra.Command {
	var portfolioID int64

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List open positions and cash",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, _, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			snap, err := ledger.LoadSnapshot(ctx, container.LedgerRepo, portfolioID)
			if err != nil {
				return err
			}
			tickers := make([]string, 0, len(snap.Positions))
			for _, p := range snap.Positions {
				tickers = append(tickers, p.Ticker)
			}
			prices, err := container.PriceSource.LatestCloses(ctx, tickers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			t := newTable(out, 1, 2, 3, 4).Headers("TICKER", "SHARES", "AVG COST", "PRICE", "VALUE")
			total := snap.Cash
			for _, p := range snap.Positions {
				price, ok := prices[p.Ticker]
				value := p.MarketValue(price, ok)
				total += value
				priceCol := "-"
				if ok {
					priceCol = eur(price)
				}
				t.Row(p.Ticker, fmt.Sprintf("%.4f", p.Shares), eur(p.AvgCost), priceCol, eur(value))
			}
			t.Row("CASH", "", "", "", eur(snap.Cash))
			t.Row("TOTAL", "", "", "", eur(total))
			_, err = fmt.Fprintln(out, t.Render())
			return err
		},
	}
	cmd.Flags().Int64Var(&portfolioID, "portfolio", 1, "portfolio ID")
	return cmd
}

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage allocation policy",
	}

	var portfolioID int64
	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace a portfolio's policy and targets from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open policy file: %w", err)
			}
			defer f.Close()

			doc, err := policy.ImportYAML(f)
			if err != nil {
				return err
			}

			container, _, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.PolicyRepo.Import(cmd.Context(), portfolioID, doc); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported policy for portfolio %d: %d sector targets, %d region targets, %d tickers\n",
				portfolioID, len(doc.SectorTargets), len(doc.RegionTargets), len(doc.Tickers))
			if sum, off := doc.TargetSum(); off {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: sector targets plus cash sum to %.1f%%\n", sum)
			}
			return nil
		},
	}
	importCmd.Flags().Int64Var(&portfolioID, "portfolio", 1, "portfolio ID")

	cmd.AddCommand(importCmd)
	return cmd
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the databases and upload them to the backup bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			if container.BackupService == nil {
				return errors.New("backups are disabled, set BACKUP_ENABLED=true and BACKUP_BUCKET")
			}
			key, err := container.BackupService.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", key)
			return nil
		},
	}
}

func printPlan(out io.Writer, result *rebalancing.Result) error {
	plan := result.Plan
	fmt.Fprintf(out, "Plan %s (portfolio %d, sizing %s)\n", result.PlanID, result.PortfolioID, result.SizingMode)
	fmt.Fprintf(out, "Cash %s -> %s (%s)\n",
		eur(plan.CashPreviewFull.StartingCash), eur(plan.CashPreviewFull.EndingCash), plan.Summary.CashStatus)
	fmt.Fprintf(out, "Breaches: %d sector, %d region\n\n", plan.Summary.SectorBreaches, plan.Summary.RegionBreaches)

	if len(plan.AllTrades) == 0 {
		fmt.Fprintln(out, "No trades")
	} else {
		t := newTable(out, 3, 4, 5).Headers("LAYER", "TICKER", "SIGNAL", "SHARES", "PRICE", "EUR", "REASON")
		for _, trade := range plan.AllTrades {
			t.Row(string(trade.Layer), trade.Ticker, trade.Signal, fmt.Sprintf("%+d", trade.SharesDelta),
				eur(trade.Price), eur(trade.EstimatedEUR), trade.Reason)
		}
		if _, err := fmt.Fprintln(out, t.Render()); err != nil {
			return err
		}
	}

	if len(result.MissingTickers) > 0 {
		fmt.Fprintf(out, "\nMissing prices: %v\n", result.MissingTickers)
	}
	return nil
}

// newTable builds a table whose listed columns are right aligned. On a
// terminal it gets a rounded border and a bold header; otherwise it renders
// as plain space-separated columns so output can be piped.
func newTable(out io.Writer, rightAligned ...int) *table.Table {
	r := lipgloss.NewRenderer(out)
	right := make(map[int]bool, len(rightAligned))
	for _, col := range rightAligned {
		right[col] = true
	}

	cell := r.NewStyle().Padding(0, 1)
	t := table.New().StyleFunc(func(row, col int) lipgloss.Style {
		style := cell
		if row == table.HeaderRow {
			style = style.Bold(true)
		}
		if right[col] {
			style = style.Align(lipgloss.Right)
		}
		return style
	})

	if isTerminal(out) {
		return t.Border(lipgloss.RoundedBorder()).BorderStyle(r.NewStyle().Faint(true))
	}
	return t.Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func eur(amount float64) string {
	return money.New(int64(math.Round(amount*100)), money.EUR).Display()
}
