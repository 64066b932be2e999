package activitypub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Actor represents the JSON structure of an ActivityPub actor document.
type Actor struct {
	Context           any        `json:"@context,omitempty"`
	ID                string     `json:"id"`
	Type              string     `json:"type"`
	PreferredUsername string     `json:"preferredUsername,omitempty"`
	Inbox             string     `json:"inbox"`
	Outbox            string     `json:"outbox,omitempty"`
	Followers         string     `json:"followers,omitempty"`
	Following         string     `json:"following,omitempty"`
	PublicKey         *PublicKey `json:"publicKey,omitempty"`
}

// PublicKey is the actor's published signing key.
type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

type cachedActor struct {
	actor     *Actor
	fetchedAt time.Time
}

// Resolver fetches and validates remote actor documents. Every inbound
// request re-resolves its sender, so resolved documents are kept in a
// time-bounded in-memory cache keyed by URL.
type Resolver struct {
	client *http.Client
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cachedActor
}

// NewResolver creates a Resolver. A nil client gets a 10 second timeout
// default; a zero ttl disables caching.
func NewResolver(client *http.Client, ttl time.Duration) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{
		client: client,
		ttl:    ttl,
		cache:  make(map[string]cachedActor),
	}
}

// Resolve fetches the actor document at the given URL. It fails with
// *FetchError on transport failure or non-2xx status and with *SchemaError
// when the response does not conform to the minimal actor shape.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Actor, error) {
	if cached := r.cached(url); cached != nil {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req.Header.Set("Accept", "application/activity+json")
	req.Header.Set("User-Agent", "dumbo/1.0 ActivityPub")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading response: %w", err)}
	}

	var actor Actor
	if err := json.Unmarshal(body, &actor); err != nil {
		return nil, &SchemaError{URL: url, Reason: "response is not valid JSON"}
	}

	if actor.ID == "" || actor.Type == "" || actor.Inbox == "" {
		return nil, &SchemaError{URL: url, Reason: "missing required fields (id, type, inbox)"}
	}

	r.store(url, &actor)
	return &actor, nil
}

func (r *Resolver) cached(url string) *Actor {
	if r.ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.cache[url]; ok && time.Since(entry.fetchedAt) < r.ttl {
		return entry.actor
	}
	return nil
}

func (r *Resolver) store(url string, actor *Actor) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[url] = cachedActor{actor: actor, fetchedAt: time.Now()}
}

// stripFragment removes a #fragment from a key id, turning
// "https://example.com/alice#main-key" into the actor URL.
func stripFragment(keyID string) string {
	return strings.SplitN(keyID, "#", 2)[0]
}
