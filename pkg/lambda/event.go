package lambda

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotHTTPTrigger is returned when a payload is not an HTTP trigger event.
var ErrNotHTTPTrigger = errors.New("the request did not come from an HTTP Trigger")

// Event is the HTTP trigger envelope delivered by the platform.
type Event struct {
	Version         string                 `json:"version,omitempty"`
	RawPath         string                 `json:"rawPath,omitempty"`
	Body            string                 `json:"body"`
	IsBase64Encoded bool                   `json:"isBase64Encoded"`
	Headers         map[string]interface{} `json:"headers,omitempty"`
	QueryParameters interface{}            `json:"queryParameters,omitempty"`
	RequestContext  map[string]interface{} `json:"requestContext,omitempty"`

	// Raw is the whole decoded event, kept for audit logging.
	Raw map[string]interface{} `json:"-"`
}

// ParseEvent decodes an HTTP trigger event. It fails with ErrNotHTTPTrigger
// when the payload is not a JSON object or carries no body field.
func ParseEvent(raw []byte) (*Event, error) {
	evt, err := DecodeEvent(raw)
	if err != nil {
		return nil, fmt.Errorf("%w because the event is not a json string", ErrNotHTTPTrigger)
	}
	if _, ok := evt.Raw["body"]; !ok {
		return nil, fmt.Errorf("%w because the event does not include the 'body' field", ErrNotHTTPTrigger)
	}
	return evt, nil
}

// DecodeEvent decodes any JSON object event. Missing envelope fields are left empty.
func DecodeEvent(raw []byte) (*Event, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("failed to decode event: not a JSON object")
	}

	evt := &Event{Raw: fields}
	evt.Version, _ = fields["version"].(string)
	evt.RawPath, _ = fields["rawPath"].(string)
	evt.IsBase64Encoded, _ = fields["isBase64Encoded"].(bool)
	evt.Headers, _ = fields["headers"].(map[string]interface{})
	evt.QueryParameters = fields["queryParameters"]
	evt.RequestContext, _ = fields["requestContext"].(map[string]interface{})

	switch body := fields["body"].(type) {
	case string:
		evt.Body = body
	case nil:
	default:
		// Some gateways forward an already-parsed JSON body.
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode event body: %w", err)
		}
		evt.Body = string(data)
	}

	return evt, nil
}

// DecodedBody returns the request body, base64-decoded when flagged.
func (e *Event) DecodedBody() ([]byte, error) {
	if !e.IsBase64Encoded {
		return []byte(e.Body), nil
	}
	data, err := base64.StdEncoding.DecodeString(e.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 body: %w", err)
	}
	return data, nil
}

// Header returns the first value of the named header, matched case-insensitively.
func (e *Event) Header(name string) string {
	for key, value := range e.Headers {
		if strings.EqualFold(key, name) {
			return stringValue(value)
		}
	}
	return ""
}

// QueryParam returns the named query parameter or "" when absent.
func (e *Event) QueryParam(name string) string {
	params, ok := e.QueryParameters.(map[string]interface{})
	if !ok {
		return ""
	}
	return stringValue(params[name])
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		if len(val) > 0 {
			return stringValue(val[0])
		}
	case nil:
	default:
		return fmt.Sprint(val)
	}
	return ""
}
