package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecashkit/cashu"
)

// HTTPTransport is the default MintTransport, a thin net/http client that
// logs every request/response pair at debug level (never logging request
// bodies, which may carry proof secrets on /v1/swap and /v1/melt/bolt11).
type HTTPTransport struct {
	Client   *http.Client
	Log      zerolog.Logger
	AuthFunc func(endpoint string) (string, error)
}

// NewHTTPTransport returns an HTTPTransport with sane defaults: a 30s
// client timeout and no auth tokens.
func NewHTTPTransport(log zerolog.Logger) *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{Timeout: 30 * time.Second},
		Log:    log,
	}
}

// AuthToken implements MintTransport.
func (t *HTTPTransport) AuthToken(endpoint string) (string, error) {
	if t.AuthFunc == nil {
		return "", nil
	}
	return t.AuthFunc(endpoint)
}

func (t *HTTPTransport) do(ctx context.Context, method, url, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, err := t.AuthToken(endpoint); err != nil {
		return cashu.NewAuthError("failed to obtain auth token", err)
	} else if token != "" {
		req.Header.Set("Clear-auth", token)
	}

	t.Log.Debug().Str("method", method).Str("url", url).Msg("mint request")

	resp, err := t.Client.Do(req)
	if err != nil {
		return cashu.NewTransportError(0, err.Error(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return cashu.NewTransportError(resp.StatusCode, "failed to read response body", err)
	}

	t.Log.Debug().Int("status", resp.StatusCode).Msg("mint response")

	if resp.StatusCode >= 400 {
		var errBody ErrorResponse
		_ = json.Unmarshal(raw, &errBody)
		return cashu.NewTransportError(resp.StatusCode, errBody.Detail, fmt.Errorf("mint error code %d", errBody.Code))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return cashu.NewTransportError(resp.StatusCode, "failed to decode response", err)
	}
	return nil
}

func (t *HTTPTransport) Info(ctx context.Context, mintURL string) (*cashu.MintInfo, error) {
	var out cashu.MintInfo
	if err := t.do(ctx, http.MethodGet, mintURL+"/v1/info", "/v1/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) Keys(ctx context.Context, mintURL, keysetID string) (*KeysetsResponse, error) {
	url := mintURL + "/v1/keys"
	if keysetID != "" {
		url += "/" + keysetID
	}
	var out KeysetsResponse
	if err := t.do(ctx, http.MethodGet, url, "/v1/keys", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) Keysets(ctx context.Context, mintURL string) (*KeysetsInfoResponse, error) {
	var out KeysetsInfoResponse
	if err := t.do(ctx, http.MethodGet, mintURL+"/v1/keysets", "/v1/keysets", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) MintQuote(ctx context.Context, mintURL string, req MintQuoteRequest) (*cashu.MintQuote, error) {
	var out cashu.MintQuote
	if err := t.do(ctx, http.MethodPost, mintURL+"/v1/mint/quote/bolt11", "/v1/mint/quote/bolt11", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) MintQuoteStatus(ctx context.Context, mintURL, quote string) (*cashu.MintQuote, error) {
	var out cashu.MintQuote
	url := mintURL + "/v1/mint/quote/bolt11/" + quote
	if err := t.do(ctx, http.MethodGet, url, "/v1/mint/quote/bolt11", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) Mint(ctx context.Context, mintURL string, req MintRequest) (*MintResponse, error) {
	var out MintResponse
	if err := t.do(ctx, http.MethodPost, mintURL+"/v1/mint/bolt11", "/v1/mint/bolt11", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) MeltQuote(ctx context.Context, mintURL string, req MeltQuoteRequest) (*cashu.MeltQuote, error) {
	var out cashu.MeltQuote
	if err := t.do(ctx, http.MethodPost, mintURL+"/v1/melt/quote/bolt11", "/v1/melt/quote/bolt11", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) MeltQuoteStatus(ctx context.Context, mintURL, quote string) (*cashu.MeltQuote, error) {
	var out cashu.MeltQuote
	url := mintURL + "/v1/melt/quote/bolt11/" + quote
	if err := t.do(ctx, http.MethodGet, url, "/v1/melt/quote/bolt11", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) Melt(ctx context.Context, mintURL string, req MeltRequest) (*MeltResponse, error) {
	var out MeltResponse
	if err := t.do(ctx, http.MethodPost, mintURL+"/v1/melt/bolt11", "/v1/melt/bolt11", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) Swap(ctx context.Context, mintURL string, req SwapRequest) (*SwapResponse, error) {
	var out SwapResponse
	if err := t.do(ctx, http.MethodPost, mintURL+"/v1/swap", "/v1/swap", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) CheckState(ctx context.Context, mintURL string, req CheckStateRequest) (*CheckStateResponse, error) {
	var out CheckStateResponse
	if err := t.do(ctx, http.MethodPost, mintURL+"/v1/checkstate", "/v1/checkstate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) Restore(ctx context.Context, mintURL string, req RestoreRequest) (*RestoreResponse, error) {
	var out RestoreResponse
	if err := t.do(ctx, http.MethodPost, mintURL+"/v1/restore", "/v1/restore", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
