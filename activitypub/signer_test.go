package activitypub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newDeliveryServer serves an actor document at /actor whose inbox is
// /actor/inbox, and records what arrives there.
func newDeliveryServer(t *testing.T, inboxStatus int) (*httptest.Server, *http.Request, *[]byte) {
	t.Helper()

	var inboxReq http.Request
	var inboxBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc("/actor", func(w http.ResponseWriter, r *http.Request) {
		id := "http://" + r.Host + "/actor"
		json.NewEncoder(w).Encode(map[string]any{
			"id":    id,
			"type":  "Person",
			"inbox": id + "/inbox",
		})
	})
	mux.HandleFunc("/actor/inbox", func(w http.ResponseWriter, r *http.Request) {
		inboxReq = *r
		inboxBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(inboxStatus)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &inboxReq, &inboxBody
}

func TestSendDeliversSignedActivity(t *testing.T) {
	privateKey, _ := generateTestKeyPair(t)
	server, inboxReq, inboxBody := newDeliveryServer(t, http.StatusAccepted)

	signer := NewSigner(NewResolver(server.Client(), 0), privateKey, "https://local.test/users/alice", server.Client())

	activity := Activity{
		Context: ActivityStreamsContext,
		ID:      "https://local.test/follows/1",
		Type:    "Follow",
		Actor:   "https://local.test/users/alice",
		Object:  server.URL + "/actor",
	}

	if err := signer.Send(context.Background(), server.URL+"/actor", activity); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if inboxReq.Header.Get("Signature") == "" {
		t.Error("Delivery missing Signature header")
	}
	if inboxReq.Header.Get("Digest") != calculateDigest(*inboxBody) {
		t.Error("Digest header does not match delivered body")
	}
	if _, err := http.ParseTime(inboxReq.Header.Get("Date")); err != nil {
		t.Errorf("Unparseable Date header: %v", err)
	}

	var delivered Activity
	if err := json.Unmarshal(*inboxBody, &delivered); err != nil {
		t.Fatalf("Delivered body is not valid JSON: %v", err)
	}
	if delivered.Type != "Follow" || delivered.ID != "https://local.test/follows/1" {
		t.Errorf("Unexpected delivered activity: %+v", delivered)
	}
}

func TestSendUnknownRecipient(t *testing.T) {
	privateKey, _ := generateTestKeyPair(t)

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	signer := NewSigner(NewResolver(server.Client(), 0), privateKey, "https://local.test/users/alice", server.Client())

	err := signer.Send(context.Background(), server.URL+"/nobody", Activity{Type: "Follow"})
	if !errors.Is(err, ErrUnknownRecipient) {
		t.Errorf("Expected ErrUnknownRecipient, got %v", err)
	}
}

func TestSendRejectedDelivery(t *testing.T) {
	privateKey, _ := generateTestKeyPair(t)
	server, _, _ := newDeliveryServer(t, http.StatusForbidden)

	signer := NewSigner(NewResolver(server.Client(), 0), privateKey, "https://local.test/users/alice", server.Client())

	err := signer.Send(context.Background(), server.URL+"/actor", Activity{Type: "Follow"})

	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("Expected *DeliveryError, got %v", err)
	}
	if deliveryErr.Status != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", deliveryErr.Status)
	}
}

func TestSendRoundTripVerifies(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)

	// One server plays both roles: it publishes the sender's actor document
	// and receives the delivery.
	var received *http.Request
	var receivedBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc("/actor", func(w http.ResponseWriter, r *http.Request) {
		id := "http://" + r.Host + "/actor"
		json.NewEncoder(w).Encode(map[string]any{
			"id":    id,
			"type":  "Person",
			"inbox": id + "/inbox",
			"publicKey": map[string]any{
				"id":           id + "#main-key",
				"owner":        id,
				"publicKeyPem": publicKeyToPEM(t, publicKey),
			},
		})
	})
	mux.HandleFunc("/actor/inbox", func(w http.ResponseWriter, r *http.Request) {
		received = r.Clone(context.Background())
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	actorID := server.URL + "/actor"
	signer := NewSigner(NewResolver(server.Client(), 0), privateKey, actorID, server.Client())

	activity := Activity{
		Context: ActivityStreamsContext,
		ID:      actorID + "/follows/1",
		Type:    "Follow",
		Actor:   actorID,
		Object:  actorID,
	}
	if err := signer.Send(context.Background(), actorID, activity); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	verifier := NewVerifier(NewResolver(server.Client(), 0))
	sender, err := verifier.Verify(received, receivedBody)
	if err != nil {
		t.Fatalf("Verify rejected our own delivery: %v", err)
	}
	if sender != actorID {
		t.Errorf("Expected sender %q, got %q", actorID, sender)
	}
}
