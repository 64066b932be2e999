package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetWebfinger(t *testing.T) {
	app := newTestApp(t)

	body, ok := GetWebfinger(app, "acct:alice@example.com")
	if !ok {
		t.Fatal("Expected webfinger match for the local account")
	}

	var doc struct {
		Subject string `json:"subject"`
		Links   []struct {
			Rel  string `json:"rel"`
			Type string `json:"type"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("Invalid webfinger JSON: %v", err)
	}

	if doc.Subject != "acct:alice@example.com" {
		t.Errorf("Unexpected subject: %s", doc.Subject)
	}
	if len(doc.Links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(doc.Links))
	}
	if doc.Links[0].Href != "https://example.com/users/alice" {
		t.Errorf("Unexpected href: %s", doc.Links[0].Href)
	}
	if doc.Links[0].Type != "application/activity+json" {
		t.Errorf("Unexpected link type: %s", doc.Links[0].Type)
	}
}

func TestGetWebfingerUnknownResource(t *testing.T) {
	app := newTestApp(t)

	tests := []string{
		"acct:bob@example.com",
		"acct:alice@other.example",
		"alice@example.com",
		"",
	}

	for _, resource := range tests {
		if _, ok := GetWebfinger(app, resource); ok {
			t.Errorf("Expected no match for resource %q", resource)
		}
	}
}

func TestWebfingerRoute(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/.well-known/webfinger?resource=acct:alice@example.com", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/.well-known/webfinger?resource=acct:bob@example.com", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown account, got %d", w.Code)
	}
}
