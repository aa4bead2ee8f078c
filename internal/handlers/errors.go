package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"findphone-functions/internal/adapters/storage"
	"findphone-functions/pkg/lambda"
)

// Error messages returned in error envelopes
const (
	MsgMissingCredentials      = "Missing credentials in context"
	MsgMissingSecurityToken    = "Missing security token in credentials"
	MsgMissingOSSConfiguration = "Missing OSS configuration"
	MsgMissingK                = "Missing k parameter"
	MsgMissingActivateCode     = "Missing Activate-Code parameter"
	MsgMissingHMSCredentials   = "Missing HMS credentials"
	MsgInternalServerError     = "Internal server error"
)

// ErrorResponse is the error envelope body
type ErrorResponse struct {
	Error string `json:"error"`
}

// errorResult builds an HTTP result whose body is the JSON text of the envelope
func errorResult(statusCode int, message string) *lambda.Result {
	return lambda.HTTPResult(statusCode, jsonText(ErrorResponse{Error: message}))
}

func jsonText(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// accessErrorMessage maps storage access errors to their envelope message
func accessErrorMessage(err error) (string, bool) {
	if !storage.IsAccessError(err) {
		return "", false
	}
	switch {
	case errors.Is(err, storage.ErrMissingCredentials):
		return MsgMissingCredentials, true
	case errors.Is(err, storage.ErrMissingSecurityToken):
		return MsgMissingSecurityToken, true
	default:
		return MsgMissingOSSConfiguration, true
	}
}

// notHTTPTriggerResult is the bare diagnostic for payloads that are not HTTP trigger events
func notHTTPTriggerResult(err error, raw []byte) *lambda.Result {
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return lambda.TextResult(msg + ", event: " + string(raw))
}

// storageCredentials converts invocation credentials, keeping nil as nil
func storageCredentials(inv *lambda.Invocation) *storage.Credentials {
	if inv == nil || inv.Credentials == nil {
		return nil
	}
	return &storage.Credentials{
		AccessKeyID:     inv.Credentials.AccessKeyID,
		AccessKeySecret: inv.Credentials.AccessKeySecret,
		SecurityToken:   inv.Credentials.SecurityToken,
	}
}
