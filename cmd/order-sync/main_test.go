package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afterten/orderbox"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     syncConfig
		wantErr bool
	}{
		{
			name: "valid mysql",
			cfg:  syncConfig{dsn: "user:pass@tcp(db:3306)/app", driver: "mysql", endpoint: "http://api/orders"},
		},
		{
			name: "valid postgres",
			cfg:  syncConfig{dsn: "postgres://db/app", driver: "postgres", endpoint: "http://api/orders"},
		},
		{
			name:    "missing dsn",
			cfg:     syncConfig{driver: "mysql", endpoint: "http://api/orders"},
			wantErr: true,
		},
		{
			name:    "missing endpoint",
			cfg:     syncConfig{dsn: "dsn", driver: "mysql"},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     syncConfig{dsn: "dsn", driver: "sqlite", endpoint: "http://api/orders"},
			wantErr: true,
		},
		{
			name:    "negative max attempts",
			cfg:     syncConfig{dsn: "dsn", driver: "mysql", endpoint: "http://api/orders", maxAttempts: -1},
			wantErr: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			err := validateConfig(test.cfg)
			if test.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !test.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestHTTPSubmitterPostsOrder(t *testing.T) {
	var (
		gotKey  string
		gotAuth string
		gotBody orderPayload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	submitter := &httpSubmitter{client: server.Client(), endpoint: server.URL, token: "secret"}
	order := orderbox.PendingOrder{
		ID:           7,
		OutletID:     "outlet-1",
		EmployeeName: "Dana",
		ClientRef:    "ref-123",
		Items:        json.RawMessage(`[{"k":"p1","qty":2}]`),
	}

	if err := submitter.Submit(context.Background(), order); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotKey != "ref-123" {
		t.Fatalf("expected idempotency key, got %q", gotKey)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotBody.OutletID != "outlet-1" || gotBody.EmployeeName != "Dana" {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
}

func TestHTTPSubmitterRejectsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "outlet closed", http.StatusConflict)
	}))
	defer server.Close()

	submitter := &httpSubmitter{client: server.Client(), endpoint: server.URL}
	order := orderbox.PendingOrder{OutletID: "outlet-1", Items: json.RawMessage(`[]`)}

	err := submitter.Submit(context.Background(), order)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
