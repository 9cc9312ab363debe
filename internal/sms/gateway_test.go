package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signals-api/internal/config"
)

func gatewayFor(serverURL string) *HTTPGateway {
	cfg := &config.Config{}
	cfg.SMS.APIKey = "test-key"
	cfg.SMS.BaseURL = serverURL
	cfg.SMS.Route = "otp"
	cfg.SMS.Timeout = 5 * time.Second
	return NewHTTPGateway(cfg)
}

func TestSendBuildsProviderRequest(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := gatewayFor(srv.URL)
	err := gw.Send(context.Background(), "9876543210", "123456")
	require.NoError(t, err)

	require.NotNil(t, got)
	query := got.URL.Query()
	assert.Equal(t, "test-key", query.Get("authorization"))
	assert.Equal(t, "123456", query.Get("variables_values"))
	assert.Equal(t, "otp", query.Get("route"))
	assert.Equal(t, "9876543210", query.Get("numbers"))
	assert.Equal(t, "no-cache", got.Header.Get("cache-control"))
}

func TestSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	gw := gatewayFor(srv.URL)
	err := gw.Send(context.Background(), "9876543210", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSendUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	gw := gatewayFor(srv.URL)
	err := gw.Send(context.Background(), "9876543210", "123456")
	assert.Error(t, err)
}
