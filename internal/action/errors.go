package action

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for classified action failures. A [*Failure] matches the
// sentinel of its kind under errors.Is.
var (
	// ErrRateLimited indicates the remote service throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates missing credentials or an unselected
	// privileged capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyResponse indicates the call succeeded but produced no usable output.
	ErrEmptyResponse = errors.New("empty response")

	// ErrTransport indicates the call could not be completed.
	ErrTransport = errors.New("transport error")

	// ErrStreamInterrupted indicates a stream ended early after delivering
	// at least one chunk. The partial output is kept in the [Result].
	ErrStreamInterrupted = errors.New("stream interrupted")

	// ErrMalformedResponse indicates structured output that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// FailureKind classifies a [Failure].
type FailureKind string

const (
	KindRateLimited       FailureKind = "rate_limited"
	KindUnauthorized      FailureKind = "unauthorized"
	KindEmptyResponse     FailureKind = "empty_response"
	KindTransport         FailureKind = "transport_error"
	KindStreamInterrupted FailureKind = "stream_interrupted"
	KindMalformedResponse FailureKind = "malformed_response"
)

var kindSentinels = map[FailureKind]error{
	KindRateLimited:       ErrRateLimited,
	KindUnauthorized:      ErrUnauthorized,
	KindEmptyResponse:     ErrEmptyResponse,
	KindTransport:         ErrTransport,
	KindStreamInterrupted: ErrStreamInterrupted,
	KindMalformedResponse: ErrMalformedResponse,
}

// Failure is a classified action failure.
type Failure struct {
	// Kind is the failure class.
	Kind FailureKind

	// Capability is the capability that was being executed.
	Capability Capability

	// Err is the underlying cause, if any.
	Err error
}

// NewFailure creates a [*Failure].
func NewFailure(kind FailureKind, capability Capability, cause error) *Failure {
	return &Failure{Kind: kind, Capability: capability, Err: cause}
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if sentinel, ok := kindSentinels[f.Kind]; ok {
		msg = sentinel.Error()
	}
	if f.Capability != "" {
		msg = fmt.Sprintf("%s: %s", f.Capability, msg)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel error for the failure's kind.
func (f *Failure) Is(target error) bool {
	sentinel, ok := kindSentinels[f.Kind]
	return ok && target == sentinel
}

// KindOf extracts the [FailureKind] from err. Context cancellation and
// deadline errors that were never classified count as transport failures.
// Returns false for nil or unclassified errors.
func KindOf(err error) (FailureKind, bool) {
	if err == nil {
		return "", false
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransport, true
	}
	return "", false
}
