package price

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

const (
	DefaultHeliusURL = "https://mainnet.helius-rpc.com"
	DefaultTimeout   = 10 * time.Second
)

// assetResponse is the subset of the DAS getAsset result we read.
type assetResponse struct {
	ID        string `json:"id"`
	TokenInfo *struct {
		Symbol    string `json:"symbol"`
		Decimals  int    `json:"decimals"`
		PriceInfo *struct {
			PricePerToken float64 `json:"price_per_token"`
			Currency      string  `json:"currency"`
		} `json:"price_info"`
	} `json:"token_info"`
}

// Helius reads prices from the Helius DAS getAsset method. getAsset takes
// its params as a JSON object, not the positional array rpc.Client sends.
type Helius struct {
	client  jsonrpc.RPCClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewHelius creates a lookup against baseURL. Without an API key the lookup
// is unconfigured and every price is reported unavailable.
func NewHelius(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*Helius, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &Helius{
		timeout: timeout,
		logger:  logger.Named("helius"),
	}
	if apiKey == "" {
		h.logger.Warn("HELIUS_API_KEY not set, spot prices are unavailable")
		return h, nil
	}

	if baseURL == "" {
		baseURL = DefaultHeliusURL
	}
	endpoint, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid helius url: %w", err)
	}
	q := endpoint.Query()
	q.Set("api-key", apiKey)
	endpoint.RawQuery = q.Encode()

	h.client = jsonrpc.NewClientWithOpts(endpoint.String(), &jsonrpc.RPCClientOpts{
		HTTPClient: cleanhttp.DefaultPooledClient(),
	})
	return h, nil
}

// Configured reports whether an API key was supplied.
func (h *Helius) Configured() bool {
	return h.client != nil
}

// SpotPrice implements Lookup.
func (h *Helius) SpotPrice(ctx context.Context, tokenID string) (float64, error) {
	if h.client == nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var asset assetResponse
	params := map[string]string{"id": tokenID}
	if err := h.client.CallFor(ctx, &asset, "getAsset", params); err != nil {
		return 0, fmt.Errorf("getAsset %s: %w", tokenID, err)
	}

	if asset.TokenInfo == nil || asset.TokenInfo.PriceInfo == nil {
		h.logger.Debug("No price info for token", zap.String("token", tokenID))
		return 0, nil
	}
	return asset.TokenInfo.PriceInfo.PricePerToken, nil
}

// Close releases idle connections.
func (h *Helius) Close() error {
	if c, ok := h.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
