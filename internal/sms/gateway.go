package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"signals-api/internal/config"
	"signals-api/internal/util"
)

// Gateway dispatches a one-time code to a phone number. Implementations must
// bound the call; a dead provider fails the request, it never hangs it.
type Gateway interface {
	Send(ctx context.Context, number, code string) error
}

// HTTPGateway talks to a Fast2SMS-style bulk endpoint: a GET with the code
// and destination in query parameters.
type HTTPGateway struct {
	apiKey  string
	baseURL string
	route   string
	client  *http.Client
}

func NewHTTPGateway(cfg *config.Config) *HTTPGateway {
	return &HTTPGateway{
		apiKey:  cfg.SMS.APIKey,
		baseURL: cfg.SMS.BaseURL,
		route:   cfg.SMS.Route,
		client: &http.Client{
			Timeout: cfg.SMS.Timeout,
		},
	}
}

func (g *HTTPGateway) Send(ctx context.Context, number, code string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build SMS request: %w", err)
	}

	query := url.Values{}
	query.Set("authorization", g.apiKey)
	query.Set("variables_values", code)
	query.Set("route", g.route)
	query.Set("numbers", number)
	req.URL.RawQuery = query.Encode()
	req.Header.Set("cache-control", "no-cache")

	resp, err := g.client.Do(req)
	if err != nil {
		util.Error("SMS dispatch failed",
			zap.String("number", number),
			zap.Error(err))
		return fmt.Errorf("sms dispatch failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		util.Error("SMS provider rejected dispatch",
			zap.String("number", number),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}

	util.Info("Reset code dispatched", zap.String("number", number))
	return nil
}
