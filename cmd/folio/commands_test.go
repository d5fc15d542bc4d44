package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/rebalancing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedLedger(t *testing.T) {
	t.Helper()
	container, _, err := openContainer(context.Background())
	require.NoError(t, err)
	defer container.Close()

	ctx := context.Background()
	_, err = container.LedgerRepo.InsertCashMovement(ctx, 1, domain.CashMovement{
		Type: domain.CashTypeCredit, AmountEUR: 5000, Date: "2024-01-01",
	})
	require.NoError(t, err)
	_, err = container.LedgerRepo.InsertTrade(ctx, 1, domain.LedgerTrade{
		Ticker: "ASML", Side: domain.TradeSideBuy, Shares: 4, PriceEUR: 600, Date: "2024-01-02",
	})
	require.NoError(t, err)
	require.NoError(t, container.PriceRepo.UpsertBars(ctx, "ASML", []domain.OHLCVBar{
		{Date: "2024-01-03", Open: 600, High: 660, Low: 590, Close: 650},
	}))
}

func TestCLI(t *testing.T) {
	t.Setenv("FOLIO_DATA_DIR", t.TempDir())
	seedLedger(t)

	policyFile := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(policyFile, []byte(`
policy:
  cash_min_pct: 5
  cash_target_pct: 10
  cash_max_pct: 30
sector_targets:
  - {bucket: Technology, target_pct: 90, min_pct: 80, max_pct: 100}
tickers:
  asml: {sector: Technology, region: EU}
`), 0644))

	t.Run("policy import", func(t *testing.T) {
		out, err := run(t, "policy", "import", "--portfolio", "1", policyFile)
		require.NoError(t, err)
		assert.Contains(t, out, "1 sector targets")
		assert.NotContains(t, out, "Warning")
	})

	t.Run("positions", func(t *testing.T) {
		out, err := run(t, "positions", "--portfolio", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "ASML")
		assert.Contains(t, out, "€2,600.00")
		assert.Contains(t, out, "€5,200.00")
		assert.NotContains(t, out, "\x1b[", "piped output carries no escape codes")
	})

	t.Run("plan json", func(t *testing.T) {
		out, err := run(t, "plan", "--portfolio", "1", "--json")
		require.NoError(t, err)

		var result rebalancing.Result
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, int64(1), result.PortfolioID)
		assert.InDelta(t, 2600.0, result.Cash, 1e-9)
		assert.Equal(t, "off", result.SizingMode)
	})

	t.Run("plan text", func(t *testing.T) {
		out, err := run(t, "plan")
		require.NoError(t, err)
		assert.Contains(t, out, "Plan ")
		assert.Contains(t, out, "Breaches:")
	})

	t.Run("backup disabled", func(t *testing.T) {
		_, err := run(t, "backup")
		assert.ErrorContains(t, err, "backups are disabled")
	})

	t.Run("missing policy file", func(t *testing.T) {
		_, err := run(t, "policy", "import", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestPrintPlan(t *testing.T) {
	result := &rebalancing.Result{
		PlanID:      "plan-1",
		PortfolioID: 1,
		SizingMode:  "off",
		Plan: rebalancing.Plan{
			AllTrades: []rebalancing.TradeProposal{
				{Layer: rebalancing.LayerSignal, Ticker: "ASML", Signal: "BUY", SharesDelta: 2, Price: 650, EstimatedEUR: 1300, Reason: "breakout"},
				{Layer: rebalancing.LayerRebalance, Ticker: "SAP", Signal: "HOLD", SharesDelta: -12, Price: 110, EstimatedEUR: -1320, Reason: "Raise cash to minimum"},
			},
		},
		MissingTickers: []string{"NOVO"},
	}

	var out bytes.Buffer
	require.NoError(t, printPlan(&out, result))
	text := out.String()

	assert.Contains(t, text, "Plan plan-1 (portfolio 1, sizing off)")
	assert.Contains(t, text, "Missing prices: [NOVO]")
	assert.NotContains(t, text, "\x1b[")
	assert.NotContains(t, text, "│")

	var rows []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "ASML") || strings.Contains(line, "SAP") || strings.Contains(line, "LAYER") {
			rows = append(rows, line)
		}
	}
	require.Len(t, rows, 3)
	assert.Contains(t, rows[1], "+2")
	assert.Contains(t, rows[1], "€1,300.00")
	assert.Contains(t, rows[2], "-12")

	// Cells are padded to a common column width
	assert.Equal(t, lipgloss.Width(rows[0]), lipgloss.Width(rows[1]))
	assert.Equal(t, lipgloss.Width(rows[1]), lipgloss.Width(rows[2]))
	assert.Equal(t, strings.Index(rows[1], "ASML"), strings.Index(rows[2], "SAP"))
}

func TestPrintPlan_NoTrades(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printPlan(&out, &rebalancing.Result{PlanID: "plan-2"}))
	assert.Contains(t, out.String(), "No trades")
	assert.NotContains(t, out.String(), "Missing prices")
}
