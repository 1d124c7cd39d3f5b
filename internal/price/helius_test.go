package price

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func heliusServer(t *testing.T, prices map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		var req rpcRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getAsset", req.Method)

		// getAsset rejects positional params.
		var params map[string]string
		assert.NoError(t, json.Unmarshal(req.Params, &params), "params must be an object: %s", req.Params)

		result := map[string]interface{}{"id": params["id"]}
		if p, ok := prices[params["id"]]; ok {
			result["token_info"] = map[string]interface{}{
				"symbol": "MEME",
				"price_info": map[string]interface{}{
					"price_per_token": p,
					"currency":        "USDC",
				},
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHelius_SpotPrice(t *testing.T) {
	srv := heliusServer(t, map[string]float64{"known": 0.0042})
	h, err := NewHelius(srv.URL, "test-key", time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, h.Configured())
	defer h.Close()

	p, err := h.SpotPrice(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, 0.0042, p)

	p, err = h.SpotPrice(context.Background(), "unlisted")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p, "no price info means unavailable")
}

func TestHelius_SendsNamedParams(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		body, err = io.ReadAll(r.Body)
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"id":"tok"}}`))
	}))
	defer srv.Close()

	h, err := NewHelius(srv.URL, "test-key", time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = h.SpotPrice(context.Background(), "tok")
	require.NoError(t, err)

	var req struct {
		Params interface{} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, map[string]interface{}{"id": "tok"}, req.Params)
}

func TestHelius_Unconfigured(t *testing.T) {
	h, err := NewHelius("", "", 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, h.Configured())

	p, err := h.SpotPrice(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
	assert.NoError(t, h.Close())
}

func TestHelius_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h, err := NewHelius(srv.URL, "test-key", time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)

	p, err := h.SpotPrice(context.Background(), "known")
	assert.Error(t, err)
	assert.Equal(t, 0.0, p)
}
