package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BuyCommand asks the trading bot to buy Amount SOL of TokenID.
type BuyCommand struct {
	TokenID string
	Amount  string
}

func (c BuyCommand) Validate() error {
	if c.TokenID == "" {
		return fmt.Errorf("token id cannot be empty")
	}
	if strings.ContainsAny(c.TokenID, " \t\n") {
		return fmt.Errorf("token id contains whitespace: %q", c.TokenID)
	}
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return fmt.Errorf("invalid buy amount %q: %w", c.Amount, err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("buy amount must be positive, got: %s", c.Amount)
	}
	return nil
}

// Text renders the command as it is sent to the trading bot.
func (c BuyCommand) Text() string {
	return fmt.Sprintf("/buy %s %s", c.TokenID, c.Amount)
}

// SellCommand asks the trading bot to sell Percent of the original size.
type SellCommand struct {
	TokenID string
	Percent int
}

func (c SellCommand) Validate() error {
	if c.TokenID == "" {
		return fmt.Errorf("token id cannot be empty")
	}
	if c.Percent <= 0 || c.Percent > 100 {
		return fmt.Errorf("percent must be between 1 and 100, got: %d", c.Percent)
	}
	return nil
}

func (c SellCommand) Text() string {
	return fmt.Sprintf("/sell %s %d%%", c.TokenID, c.Percent)
}
