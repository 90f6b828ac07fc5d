package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
)

func testItems() []model.Item {
	return []model.Item{
		{
			Key:       "s1_i1",
			Store:     "Bakery",
			Name:      "Surprise Bag",
			Price:     model.Price{MinorUnits: 399, Decimals: 2, Code: "EUR"},
			Available: 2,
			Address:   "Main Street 1",
			IsNew:     true,
		},
		{
			Key:       "s2_i1",
			Store:     "Deli",
			Name:      "Lunch Bag",
			Price:     model.Price{MinorUnits: 550, Decimals: 2, Code: "EUR"},
			Available: 1,
			Address:   "Market Square 4",
		},
	}
}

func TestSend(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if key := r.Header.Get("api-key"); key != "test-key" {
			t.Errorf("api-key = %q", key)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender := NewEmailSender(server.URL, "test-key", "Bag Alerts", "alerts@example.com",
		"https://bags.example.com", zap.NewNop())

	if err := sender.Send(context.Background(), "alice@example.com", testItems(), 1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.Sender.Email != "alerts@example.com" || got.Sender.Name != "Bag Alerts" {
		t.Errorf("sender = %+v", got.Sender)
	}
	if len(got.To) != 1 || got.To[0].Email != "alice@example.com" {
		t.Errorf("to = %+v", got.To)
	}
	if got.Subject != "A new store has surprise bags available!" {
		t.Errorf("subject = %q", got.Subject)
	}

	html := got.HTMLContent
	for _, want := range []string{
		"Bakery", "Deli", "Surprise Bag", "Lunch Bag",
		"3.99 EUR", "5.50 EUR", "2 left", "1 left",
		"Main Street 1", "https://bags.example.com/unsubscribe",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("email body missing %q", want)
		}
	}

	// Only the Bakery block carries the NEW badge.
	if strings.Count(html, ">NEW<") != 1 {
		t.Errorf("expected exactly one NEW badge, body:\n%s", html)
	}
}

func TestSendPluralSubject(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender := NewEmailSender(server.URL, "test-key", "Bag Alerts", "alerts@example.com",
		"https://bags.example.com", zap.NewNop())

	if err := sender.Send(context.Background(), "alice@example.com", testItems(), 3); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Subject != "3 new stores have surprise bags available!" {
		t.Errorf("subject = %q", got.Subject)
	}
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"unauthorized"}`))
	}))
	defer server.Close()

	sender := NewEmailSender(server.URL, "bad-key", "Bag Alerts", "alerts@example.com",
		"https://bags.example.com", zap.NewNop())

	err := sender.Send(context.Background(), "alice@example.com", testItems(), 1)
	if err == nil {
		t.Fatal("expected error on 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestSendEscapesHTML(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender := NewEmailSender(server.URL, "test-key", "Bag Alerts", "alerts@example.com",
		"https://bags.example.com", zap.NewNop())

	items := []model.Item{{
		Key:       "s1_i1",
		Store:     `<script>alert("x")</script>`,
		Name:      "Bag",
		Price:     model.Price{MinorUnits: 100, Decimals: 2, Code: "EUR"},
		Available: 1,
		Address:   "Somewhere",
	}}
	if err := sender.Send(context.Background(), "alice@example.com", items, 1); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if strings.Contains(got.HTMLContent, "<script>") {
		t.Error("store name was not escaped")
	}
}
