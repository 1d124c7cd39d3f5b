package history

import (
	"strconv"
	"time"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Trade is one delivered (or failed) buy or sell command.
type Trade struct {
	ID           string
	Timestamp    time.Time
	TokenID      string
	Action       string
	Amount       string // buy size, buys only
	Percent      int    // sells only
	Reason       string // sells only
	Price        float64
	Multiplier   float64
	SoldFraction float64
	Closed       bool
	Source       string
	Success      bool
	ErrorMsg     string
}

// ToCSV converts trade to CSV record
func (t *Trade) ToCSV() []string {
	return []string{
		t.ID,
		t.Timestamp.Format(time.RFC3339),
		t.TokenID,
		t.Action,
		t.Amount,
		strconv.Itoa(t.Percent),
		t.Reason,
		formatFloat(t.Price),
		formatFloat(t.Multiplier),
		formatFloat(t.SoldFraction),
		strconv.FormatBool(t.Closed),
		t.Source,
		strconv.FormatBool(t.Success),
		t.ErrorMsg,
	}
}

// CSVHeaders returns the header row for trade CSV files
func CSVHeaders() []string {
	return []string{
		"id",
		"timestamp",
		"token",
		"action",
		"amount_sol",
		"percent",
		"reason",
		"price",
		"multiplier",
		"sold_fraction",
		"closed",
		"source",
		"success",
		"error",
	}
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
