package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"findphone-functions/internal/config"
)

// fakeHMS serves the OAuth token and send endpoints of the push provider
type fakeHMS struct {
	server      *httptest.Server
	tokenStatus int
	tokenCalls  atomic.Int32
	sendCalls   atomic.Int32
}

func newFakeHMS(t *testing.T) *fakeHMS {
	t.Helper()
	f := &fakeHMS{tokenStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/v3/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = io.WriteString(w, `{"access_token":"at-1","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		f.sendCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"code":"80000000","msg":"Success"}`)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeHMS) config() config.HMSConfig {
	return config.HMSConfig{
		AppID:        "app-42",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		TokenURL:     f.server.URL + "/oauth2/v3/token",
		PushURL:      f.server.URL + "/v1/{app_id}/messages:send",
		Timeout:      5 * time.Second,
	}
}
