package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGetRSS(t *testing.T) {
	app := newTestApp(t)

	if err := app.DB.CreatePost(uuid.New(), `{"type":"Create","object":{"type":"Note","content":"hello feed"}}`); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := app.DB.CreatePost(uuid.New(), `{"type":"Note","content":"bare object"}`); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	rss, err := GetRSS(app)
	if err != nil {
		t.Fatalf("GetRSS failed: %v", err)
	}

	if !strings.Contains(rss, "<rss") {
		t.Error("Expected RSS XML output")
	}
	if !strings.Contains(rss, "alice@example.com") {
		t.Error("Feed title should carry the account handle")
	}
	if !strings.Contains(rss, "hello feed") {
		t.Error("Feed should contain the post content")
	}
	if strings.Contains(rss, "bare object") {
		t.Error("Feed must only list Create activities")
	}
}

func TestFeedRoute(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/feed", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/xml; charset=utf-8" {
		t.Errorf("Unexpected content type: %s", ct)
	}
}
