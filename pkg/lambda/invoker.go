package lambda

import (
	"context"
	"encoding/json"
	"fmt"
)

// Invoker adapts a HandlerFunc to the aws-lambda-go Handler interface so the
// raw event bytes reach the function untouched.
type Invoker struct {
	handler    HandlerFunc
	invocation func(ctx context.Context) *Invocation
}

// NewInvoker creates an Invoker that resolves the invocation from the runtime.
func NewInvoker(handler HandlerFunc) *Invoker {
	return &Invoker{
		handler:    handler,
		invocation: InvocationFromContext,
	}
}

// Invoke implements lambda.Handler.
func (i *Invoker) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	result, err := i.handler(ctx, i.invocation(ctx), unwrapPayload(payload))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("handler returned no result")
	}
	return json.Marshal(result)
}

// unwrapPayload accepts an event delivered either as a JSON object or as a
// JSON string containing the event text.
func unwrapPayload(payload []byte) []byte {
	var text string
	if err := json.Unmarshal(payload, &text); err == nil {
		return []byte(text)
	}
	return payload
}
