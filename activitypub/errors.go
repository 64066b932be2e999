package activitypub

import (
	"errors"
	"fmt"
)

// Verification failures. Every one of these is surfaced to the inbound caller
// as a plain authentication rejection; the distinction exists for logs and
// tests, never for the remote peer.
var (
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrDigestMismatch     = errors.New("digest header does not match body")
	ErrUnknownSigner      = errors.New("could not resolve signing actor")
	ErrInvalidSignature   = errors.New("invalid request signature")
	ErrStaleRequest       = errors.New("request date outside freshness window")
	ErrActorMismatch      = errors.New("body actor does not match signing actor")
)

// Outbound failures.
var (
	ErrUnknownRecipient = errors.New("could not resolve recipient inbox")
	ErrAlreadyFollowing = errors.New("already following this actor")
)

// FetchError reports a failed actor document fetch.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching actor %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching actor %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError reports an actor document that does not conform to the minimal
// actor shape.
type SchemaError struct {
	URL    string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("actor %s: %s", e.URL, e.Reason)
}

// DeliveryError reports a non-2xx response to a signed delivery.
type DeliveryError struct {
	Recipient string
	Status    int
	Body      string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed with status %d: %s", e.Recipient, e.Status, e.Body)
}
