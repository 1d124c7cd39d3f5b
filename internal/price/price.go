// Package price looks up spot prices of tokens.
package price

import "context"

// Lookup returns the current spot price of a token in USD.
//
// A zero price with a nil error means the price is unavailable, for example
// because the service is not configured or does not know the token.
type Lookup interface {
	SpotPrice(ctx context.Context, tokenID string) (float64, error)
}
