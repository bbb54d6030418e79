package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"budgeter/internal/core"
)

func testTx() core.Transaction {
	return core.Transaction{
		ID:          42,
		Date:        "2025-01-15",
		AmountCents: 1250,
		Type:        core.Expense,
		Category:    "Groceries",
		Description: "weekly shop",
		CreatedAt:   time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestPush(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Push(context.Background(), testTx()); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/transactions/42" {
		t.Errorf("path = %s, want /transactions/42", gotPath)
	}
	if gotBody["iso_date"] != "2025-01-15" {
		t.Errorf("iso_date = %v", gotBody["iso_date"])
	}
	if gotBody["amount_cents"] != float64(1250) {
		t.Errorf("amount_cents = %v", gotBody["amount_cents"])
	}
	if gotBody["type"] != "expense" {
		t.Errorf("type = %v", gotBody["type"])
	}
	if gotBody["created_at"] != "2025-01-15T10:00:00Z" {
		t.Errorf("created_at = %v", gotBody["created_at"])
	}
	if gotBody["synced_locally_at"] == "" {
		t.Error("synced_locally_at missing")
	}
}

func TestPushRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Push(context.Background(), testTx()); err == nil {
		t.Error("Push should fail on non-2xx status")
	}
}

func TestPushTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Push(context.Background(), testTx()); err == nil {
		t.Error("Push should fail on transport error")
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Error("New should reject an empty URL")
	}
}
