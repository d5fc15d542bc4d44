package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/folio/internal/domain"
)

func TestValidateCashTransaction(t *testing.T) {
	tests := []struct {
		name    string
		input   CashInput
		balance float64
		valid   bool
		message string
	}{
		{"valid credit", CashInput{Type: domain.CashTypeCredit, AmountEUR: 100, Date: "2024-01-01"}, 0, true, ""},
		{"zero amount", CashInput{Type: domain.CashTypeCredit, AmountEUR: 0, Date: "2024-01-01"}, 0, false, "Amount must be greater than zero"},
		{"missing date", CashInput{Type: domain.CashTypeCredit, AmountEUR: 5}, 0, false, "Date is required"},
		{"bad type", CashInput{Type: "fee", AmountEUR: 5, Date: "2024-01-01"}, 0, false, "Cash type must be credit or debit"},
		{
			"debit exceeds balance",
			CashInput{Type: domain.CashTypeDebit, AmountEUR: 1500, Date: "2024-01-01"},
			1234.5, false,
			"Insufficient cash: balance is €1,234.50, cannot withdraw €1,500.00",
		},
		{"debit within balance", CashInput{Type: domain.CashTypeDebit, AmountEUR: 100, Date: "2024-01-01"}, 100, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, message := ValidateCashTransaction(tt.input, tt.balance)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestValidateTrade(t *testing.T) {
	positions := []domain.Position{{Ticker: "AAPL", Shares: 5}}
	base := TradeInput{Side: domain.TradeSideBuy, Ticker: "aapl", Shares: 2, PriceEUR: 100, Commission: 1, Date: "2024-01-01"}

	tests := []struct {
		name    string
		mutate  func(in *TradeInput)
		balance float64
		valid   bool
		message string
	}{
		{"valid buy", func(in *TradeInput) {}, 1000, true, ""},
		{"bad side", func(in *TradeInput) { in.Side = "short" }, 1000, false, "Transaction type must be buy or sell"},
		{"missing ticker", func(in *TradeInput) { in.Ticker = "  " }, 1000, false, "Ticker is required"},
		{"zero shares", func(in *TradeInput) { in.Shares = 0 }, 1000, false, "Quantity must be greater than zero"},
		{"zero price", func(in *TradeInput) { in.PriceEUR = 0 }, 1000, false, "Price must be greater than zero"},
		{"negative commission", func(in *TradeInput) { in.Commission = -1 }, 1000, false, "Commission cannot be negative"},
		{"missing date", func(in *TradeInput) { in.Date = "" }, 1000, false, "Date is required"},
		{"buy exceeds cash", func(in *TradeInput) {}, 150, false, "Insufficient cash: balance is €150.00, required €201.00"},
		{"sell unknown ticker", func(in *TradeInput) { in.Side = domain.TradeSideSell; in.Ticker = "msft" }, 0, false, "No position in MSFT to sell"},
		{"sell too many", func(in *TradeInput) { in.Side = domain.TradeSideSell; in.Shares = 6 }, 0, false, "Insufficient shares: have 5.0000, trying to sell 6.0000"},
		{"sell all", func(in *TradeInput) { in.Side = domain.TradeSideSell; in.Shares = 5 }, 0, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			valid, message := ValidateTrade(in, tt.balance, positions)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestTradeInputToTrade(t *testing.T) {
	trade := TradeInput{Side: domain.TradeSideBuy, Ticker: " sap ", Shares: 1, PriceEUR: 2}.ToTrade()
	assert.Equal(t, "SAP", trade.Ticker)
	assert.Equal(t, domain.TradeSideBuy, trade.Side)
}
