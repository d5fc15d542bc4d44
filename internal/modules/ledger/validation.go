package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/aristath/folio/internal/domain"
)

// TradeInput is an unsaved trade as entered by a user
type TradeInput struct {
	Side       domain.TradeSide `json:"transaction_type"`
	Ticker     string           `json:"ticker"`
	Shares     float64          `json:"shares"`
	PriceEUR   float64          `json:"price_eur"`
	Commission float64          `json:"commission"`
	Date       string           `json:"transaction_date"`
	Notes      string           `json:"notes"`
}

// ToTrade converts the input into a ledger trade with a normalized ticker
func (in TradeInput) ToTrade() domain.LedgerTrade {
	return domain.LedgerTrade{
		Ticker:     domain.NormalizeTicker(in.Ticker),
		Side:       in.Side,
		Shares:     in.Shares,
		PriceEUR:   in.PriceEUR,
		Commission: in.Commission,
		Date:       in.Date,
		Notes:      in.Notes,
	}
}

// CashInput is an unsaved cash movement as entered by a user
type CashInput struct {
	Type      domain.CashType `json:"cash_type"`
	AmountEUR float64         `json:"amount_eur"`
	Date      string          `json:"transaction_date"`
	Notes     string          `json:"notes"`
}

// ToMovement converts the input into a ledger cash movement
func (in CashInput) ToMovement() domain.CashMovement {
	return domain.CashMovement{
		Type:      in.Type,
		AmountEUR: in.AmountEUR,
		Date:      in.Date,
		Notes:     in.Notes,
	}
}

// formatEUR renders an amount the way validation messages show it (€1,234.56)
func formatEUR(amount float64) string {
	return money.New(int64(math.Round(amount*100)), money.EUR).Display()
}

// ValidateCashTransaction checks a cash movement against the current balance.
// It returns (false, message) instead of an error so callers can show the
// message next to the form.
func ValidateCashTransaction(in CashInput, currentBalance float64) (bool, string) {
	if !in.Type.IsValid() {
		return false, "Cash type must be credit or debit"
	}

	if in.AmountEUR <= 0 {
		return false, "Amount must be greater than zero"
	}

	if strings.TrimSpace(in.Date) == "" {
		return false, "Date is required"
	}

	if in.Type == domain.CashTypeDebit && in.AmountEUR > currentBalance {
		return false, fmt.Sprintf("Insufficient cash: balance is %s, cannot withdraw %s",
			formatEUR(currentBalance), formatEUR(in.AmountEUR))
	}

	return true, ""
}

// ValidateTrade checks a trade against the current balance and positions.
// Buys must be covered by cash; sells must not exceed the held shares.
func ValidateTrade(in TradeInput, currentBalance float64, positions []domain.Position) (bool, string) {
	if !in.Side.IsValid() {
		return false, "Transaction type must be buy or sell"
	}

	ticker := domain.NormalizeTicker(in.Ticker)
	if ticker == "" {
		return false, "Ticker is required"
	}

	if in.Shares <= 0 {
		return false, "Quantity must be greater than zero"
	}

	if in.PriceEUR <= 0 {
		return false, "Price must be greater than zero"
	}

	if in.Commission < 0 {
		return false, "Commission cannot be negative"
	}

	if strings.TrimSpace(in.Date) == "" {
		return false, "Date is required"
	}

	switch in.Side {
	case domain.TradeSideBuy:
		required := in.Shares*in.PriceEUR + in.Commission
		if required > currentBalance {
			return false, fmt.Sprintf("Insufficient cash: balance is %s, required %s",
				formatEUR(currentBalance), formatEUR(required))
		}

	case domain.TradeSideSell:
		var held *domain.Position
		for i := range positions {
			if positions[i].Ticker == ticker {
				held = &positions[i]
				break
			}
		}
		if held == nil {
			return false, fmt.Sprintf("No position in %s to sell", ticker)
		}
		if in.Shares > held.Shares {
			return false, fmt.Sprintf("Insufficient shares: have %.4f, trying to sell %.4f", held.Shares, in.Shares)
		}
	}

	return true, ""
}
