package activitypub

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Sender delivers a signed activity to a remote actor's inbox.
type Sender interface {
	Send(ctx context.Context, recipient string, message any) error
}

// Signer constructs signed outbound deliveries for the local actor.
type Signer struct {
	resolver *Resolver
	client   *http.Client
	key      *rsa.PrivateKey
	actorURI string
}

// NewSigner creates a Signer for the local actor identified by actorURI.
// A nil client gets a 30 second timeout default.
func NewSigner(resolver *Resolver, key *rsa.PrivateKey, actorURI string, client *http.Client) *Signer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Signer{
		resolver: resolver,
		client:   client,
		key:      key,
		actorURI: actorURI,
	}
}

// Send resolves the recipient's inbox and POSTs the message there with an
// HTTP signature over "(request-target) host date digest". It fails with
// ErrUnknownRecipient when the recipient cannot be resolved and with
// *DeliveryError on a non-2xx response.
func (s *Signer) Send(ctx context.Context, recipient string, message any) error {
	actor, err := s.resolver.Resolve(ctx, recipient)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownRecipient, err)
	}
	if actor.Inbox == "" {
		return fmt.Errorf("%w: actor %s has no inbox", ErrUnknownRecipient, recipient)
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	hash := sha256.Sum256(body)
	digest := "SHA-256=" + base64.StdEncoding.EncodeToString(hash[:])

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, actor.Inbox, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "dumbo/1.0 ActivityPub")
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", req.URL.Host)
	req.Header.Set("Digest", digest)

	keyID := s.actorURI + "#main-key"
	if err := SignRequest(req, s.key, keyID); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{Recipient: recipient, Status: resp.StatusCode, Body: string(text)}
	}

	log.Printf("Outbox: Sent activity to %s (status: %d)", actor.Inbox, resp.StatusCode)
	return nil
}
