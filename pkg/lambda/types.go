package lambda

import (
	"context"
	"encoding/json"
)

// Response represents an HTTP-shaped response handed back to the platform.
// Body is either pre-serialized JSON text or a value the platform serializes.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       interface{}       `json:"body"`
}

// Result is the outcome of a function invocation: a bare string or an
// HTTP-shaped Response. Exactly one of Text or HTTP is meaningful.
type Result struct {
	Text string
	HTTP *Response
}

// TextResult returns a Result carrying a bare string.
func TextResult(text string) *Result {
	return &Result{Text: text}
}

// HTTPResult returns a Result carrying an HTTP-shaped response.
func HTTPResult(statusCode int, body interface{}) *Result {
	return &Result{HTTP: &Response{StatusCode: statusCode, Body: body}}
}

// IsText reports whether the result is a bare string.
func (r *Result) IsText() bool {
	return r.HTTP == nil
}

// MarshalJSON encodes the result the way the platform expects it.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.HTTP != nil {
		return json.Marshal(r.HTTP)
	}
	return json.Marshal(r.Text)
}

// Credentials are the temporary security-token credentials the platform
// injects for one invocation.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
}

// Invocation describes the platform context of a single call.
type Invocation struct {
	RequestID    string       `json:"request_id"`
	Region       string       `json:"region"`
	FunctionName string       `json:"function_name,omitempty"`
	Credentials  *Credentials `json:"credentials,omitempty"`
}

// HandlerFunc is a platform-agnostic function handler. Returning an error
// signals an unrecoverable fault to the hosting platform.
type HandlerFunc func(ctx context.Context, inv *Invocation, raw []byte) (*Result, error)
