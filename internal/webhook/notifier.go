package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Arity names the argument set a Notifier callback accepts.
type Arity int

const (
	// ArityNone marks an unset Notifier.
	ArityNone Arity = iota
	// ArityParams callbacks receive the sanitized params only.
	ArityParams
	// ArityBody callbacks also receive the raw request body.
	ArityBody
	// ArityRequest callbacks also receive the inbound request.
	ArityRequest
)

func (a Arity) String() string {
	switch a {
	case ArityParams:
		return "params"
	case ArityBody:
		return "params+body"
	case ArityRequest:
		return "params+body+request"
	default:
		return "none"
	}
}

// ParamsFunc is a notification callback taking the sanitized params.
type ParamsFunc func(ctx context.Context, feed Feed, params url.Values) error

// BodyFunc is a notification callback taking params and the raw body.
type BodyFunc func(ctx context.Context, feed Feed, params url.Values, body []byte) error

// RequestFunc is a notification callback taking params, the raw body and the request.
type RequestFunc func(ctx context.Context, feed Feed, params url.Values, body []byte, r *http.Request) error

// Notifier is the application callback run for verified notifications.
// Build one with NotifyParams, NotifyWithBody or NotifyWithRequest; the zero
// value is an undefined Notifier and makes the receiver drop every payload.
type Notifier struct {
	arity   Arity
	params  ParamsFunc
	body    BodyFunc
	request RequestFunc
}

// NotifyParams registers a callback that only wants the sanitized params.
func NotifyParams(fn ParamsFunc) Notifier {
	if fn == nil {
		return Notifier{}
	}
	return Notifier{arity: ArityParams, params: fn}
}

// NotifyWithBody registers a callback that wants params and the raw body.
func NotifyWithBody(fn BodyFunc) Notifier {
	if fn == nil {
		return Notifier{}
	}
	return Notifier{arity: ArityBody, body: fn}
}

// NotifyWithRequest registers a callback that wants params, body and the request.
func NotifyWithRequest(fn RequestFunc) Notifier {
	if fn == nil {
		return Notifier{}
	}
	return Notifier{arity: ArityRequest, request: fn}
}

// Arity reports which callback variant was registered.
func (n Notifier) Arity() Arity { return n.arity }

// Defined reports whether a callback was registered.
func (n Notifier) Defined() bool { return n.arity != ArityNone }

func (n Notifier) notify(ctx context.Context, feed Feed, params url.Values, body []byte, r *http.Request) error {
	switch n.arity {
	case ArityParams:
		return n.params(ctx, feed, params)
	case ArityBody:
		return n.body(ctx, feed, params, body)
	case ArityRequest:
		return n.request(ctx, feed, params, body, r)
	default:
		return fmt.Errorf("notifier has no callback registered")
	}
}
