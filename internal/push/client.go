package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"findphone-functions/internal/config"
	"findphone-functions/internal/metrics"
)

// AlertData is the data string sent with every push. The caller's message is
// not templated into it; devices recognise this exact literal.
const AlertData = "{'alert':'true','message':'oops'}"

// DefaultMessage is the message the lookup function asks to send.
const DefaultMessage = "oops"

const appIDPlaceholder = "{app_id}"

// Sender sends a push notification to one device token
type Sender interface {
	Send(ctx context.Context, pushToken, message string) (map[string]interface{}, error)
}

// HTTPError reports a non-2xx answer from the push provider
type HTTPError struct {
	Stage      string // "token" or "send"
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("hms %s request failed with status %d: %s", e.Stage, e.StatusCode, e.Body)
}

// Message is the send request body
type Message struct {
	Message MessageBody `json:"message"`
}

// MessageBody addresses a data message to device tokens
type MessageBody struct {
	Token []string `json:"token"`
	Data  string   `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Client talks to HMS Push Kit. Access tokens are fetched for every send.
type Client struct {
	client   *resty.Client
	tokenURL string
	pushURL  string
	appID    string
	clientID string
	secret   string
	logger   *logrus.Logger
}

// NewClient creates an HMS Push client from configuration
func NewClient(cfg config.HMSConfig, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHMSTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{
		client:   client,
		tokenURL: cfg.TokenURL,
		pushURL:  cfg.PushURL,
		appID:    cfg.AppID,
		clientID: cfg.ClientID,
		secret:   cfg.ClientSecret,
		logger:   logger,
	}
}

// SendURL returns the send endpoint with the app id filled in
func (c *Client) SendURL() string {
	return strings.ReplaceAll(c.pushURL, appIDPlaceholder, c.appID)
}

// GetAccessToken exchanges the client credentials for an access token
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	var result tokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.clientID,
			"client_secret": c.secret,
		}).
		Post(c.tokenURL)
	if err != nil {
		metrics.IncPushRequest(metrics.StageToken, false)
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	if !resp.IsSuccess() {
		metrics.IncPushRequest(metrics.StageToken, false)
		return "", &HTTPError{Stage: metrics.StageToken, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		metrics.IncPushRequest(metrics.StageToken, false)
		return "", fmt.Errorf("failed to decode access token response: %w", err)
	}
	if result.AccessToken == "" {
		metrics.IncPushRequest(metrics.StageToken, false)
		return "", fmt.Errorf("access token response does not include access_token")
	}

	metrics.IncPushRequest(metrics.StageToken, true)
	return result.AccessToken, nil
}

// SendMessage sends the alert data message to pushToken
func (c *Client) SendMessage(ctx context.Context, accessToken, pushToken string) (map[string]interface{}, error) {
	payload := Message{
		Message: MessageBody{
			Token: []string{pushToken},
			Data:  AlertData,
		},
	}
	c.logger.WithField("payload", payload).Debug("Sending push message")

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.SendURL())
	if err != nil {
		metrics.IncPushRequest(metrics.StageSend, false)
		return nil, fmt.Errorf("failed to send push message: %w", err)
	}
	if !resp.IsSuccess() {
		metrics.IncPushRequest(metrics.StageSend, false)
		return nil, &HTTPError{Stage: metrics.StageSend, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		metrics.IncPushRequest(metrics.StageSend, false)
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}

	metrics.IncPushRequest(metrics.StageSend, true)
	return result, nil
}

// Send fetches a fresh access token and sends the alert to pushToken.
// A failed token exchange returns before any send request is made.
func (c *Client) Send(ctx context.Context, pushToken, message string) (map[string]interface{}, error) {
	c.logger.WithField("message", message).Info("Sending push notification")

	accessToken, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.SendMessage(ctx, accessToken, pushToken)
}
