package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findphone-functions/internal/config"
)

type fakeHMS struct {
	server      *httptest.Server
	tokenStatus int
	tokenBody   string
	sendStatus  int
	tokenCalls  atomic.Int32
	sendCalls   atomic.Int32

	lastForm     map[string]string
	lastAuth     string
	lastPath     string
	lastMessage  Message
	lastMimeType string
}

func newFakeHMS(t *testing.T) *fakeHMS {
	t.Helper()
	f := &fakeHMS{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"at-1","expires_in":3600,"token_type":"Bearer"}`,
		sendStatus:  http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/v3/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		f.lastForm = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = io.WriteString(w, f.tokenBody)
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		f.sendCalls.Add(1)
		f.lastAuth = r.Header.Get("Authorization")
		f.lastPath = r.URL.Path
		f.lastMimeType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastMessage))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.sendStatus)
		_, _ = io.WriteString(w, `{"code":"80000000","msg":"Success","requestId":"r-1"}`)
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

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestClient_Send(t *testing.T) {
	hms := newFakeHMS(t)
	client := NewClient(hms.config(), newTestLogger())

	result, err := client.Send(context.Background(), "tok1", DefaultMessage)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hms.tokenCalls.Load())
	assert.Equal(t, int32(1), hms.sendCalls.Load())

	assert.Equal(t, map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     "client-1",
		"client_secret": "secret-1",
	}, hms.lastForm)

	assert.Equal(t, "Bearer at-1", hms.lastAuth)
	assert.Equal(t, "/v1/app-42/messages:send", hms.lastPath)
	assert.Contains(t, hms.lastMimeType, "application/json")
	assert.Equal(t, []string{"tok1"}, hms.lastMessage.Message.Token)
	assert.Equal(t, AlertData, hms.lastMessage.Message.Data)
	assert.Equal(t, "80000000", result["code"])
}

func TestClient_MessageIsNotTemplated(t *testing.T) {
	hms := newFakeHMS(t)
	client := NewClient(hms.config(), newTestLogger())

	_, err := client.Send(context.Background(), "tok1", "ring ring")
	require.NoError(t, err)
	assert.Equal(t, "{'alert':'true','message':'oops'}", hms.lastMessage.Message.Data)
}

func TestClient_TokenFailurePreventsSend(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":1101,"error_description":"invalid client"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "no access token", status: http.StatusOK, body: `{"expires_in":3600}`},
		{name: "malformed json", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hms := newFakeHMS(t)
			hms.tokenStatus = tt.status
			hms.tokenBody = tt.body
			client := NewClient(hms.config(), newTestLogger())

			_, err := client.Send(context.Background(), "tok1", DefaultMessage)
			require.Error(t, err)
			assert.Equal(t, int32(1), hms.tokenCalls.Load())
			assert.Equal(t, int32(0), hms.sendCalls.Load())

			if tt.status >= 300 {
				var httpErr *HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, "token", httpErr.Stage)
				assert.Equal(t, tt.status, httpErr.StatusCode)
			}
		})
	}
}

func TestClient_SendFailure(t *testing.T) {
	hms := newFakeHMS(t)
	hms.sendStatus = http.StatusBadRequest
	client := NewClient(hms.config(), newTestLogger())

	_, err := client.Send(context.Background(), "tok1", DefaultMessage)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "send", httpErr.Stage)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, int32(1), hms.sendCalls.Load())
}

func TestClient_NoRetry(t *testing.T) {
	hms := newFakeHMS(t)
	hms.tokenStatus = http.StatusServiceUnavailable
	client := NewClient(hms.config(), newTestLogger())

	_, err := client.GetAccessToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), hms.tokenCalls.Load())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(config.HMSConfig{AppID: "a1", PushURL: config.DefaultHMSPushURL}, nil)

	assert.Equal(t, "https://push-api.cloud.huawei.com/v1/a1/messages:send", client.SendURL())
	assert.Equal(t, config.DefaultHMSTimeout, client.client.GetClient().Timeout)
}
