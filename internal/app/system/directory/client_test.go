package directory_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/directory"
	"go.uber.org/zap"
)

func newClient(t *testing.T, baseURL string) *directory.Client {
	t.Helper()
	c, err := directory.New(directory.Config{
		BaseURL:    baseURL,
		Token:      "test-token",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/u-123" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"user_id": "u-123",
			"company_id": "c-9",
			"display_name": "<b>Dana</b> Ruiz",
			"email": "dana@example.com",
			"role": "employee",
			"project_ids": ["p-1", "p-2"]
		}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	u, err := c.FetchUser(context.Background(), "u-123")
	if err != nil {
		t.Fatalf("FetchUser failed: %v", err)
	}
	if u.UserID != "u-123" {
		t.Errorf("UserID: got %q, want %q", u.UserID, "u-123")
	}
	if u.CompanyID == nil || *u.CompanyID != "c-9" {
		t.Errorf("CompanyID: got %v, want c-9", u.CompanyID)
	}
	if u.DisplayName != "Dana Ruiz" {
		t.Errorf("DisplayName not sanitized: got %q", u.DisplayName)
	}
	if len(u.ProjectIDs) != 2 {
		t.Errorf("ProjectIDs: got %v", u.ProjectIDs)
	}
	if !c.Online() {
		t.Error("expected Online() after a successful fetch")
	}
}

func TestFetchUser_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.FetchUser(context.Background(), "missing")
	if !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchUser_SchemaRejectsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// user_id missing entirely
		w.Write([]byte(`{"display_name": "Nobody"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.FetchUser(context.Background(), "u-1")
	if !errors.Is(err, directory.ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestFetchCompany_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"company_id": "c-9", "name": "Acme Field Ops", "subscription_status": "active", "max_seats": 5, "seated_employee_ids": ["u-1"], "admin_ids": ["u-1"]}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	comp, err := c.FetchCompany(context.Background(), "c-9")
	if err != nil {
		t.Fatalf("FetchCompany failed: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls: got %d, want 3", got)
	}
	if comp.MaxSeats != 5 {
		t.Errorf("MaxSeats: got %d, want 5", comp.MaxSeats)
	}
	if status, ok := comp.Subscription(); !ok || status != "active" {
		t.Errorf("Subscription: got %q ok=%v", status, ok)
	}
}

func TestUpdateCompanySeats_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.UpdateCompanySeats(context.Background(), "c-9", []string{"u-1", "u-2"})
	if !errors.Is(err, directory.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("seat update must not retry: got %d calls", got)
	}
	if c.Online() {
		t.Error("expected Online() false after a server error")
	}
}

func TestUpdateCompanySeats_ReturnsServerList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: got %q, want PUT", r.Method)
		}
		// Server trims the requested list; the caller must adopt this.
		w.Write([]byte(`{"company_id": "c-9", "name": "Acme", "subscription_status": "active", "max_seats": 2, "seated_employee_ids": ["u-1"], "admin_ids": ["u-1"]}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	comp, err := c.UpdateCompanySeats(context.Background(), "c-9", []string{"u-1", "u-2"})
	if err != nil {
		t.Fatalf("UpdateCompanySeats failed: %v", err)
	}
	if len(comp.SeatedEmployeeIDs) != 1 || comp.SeatedEmployeeIDs[0] != "u-1" {
		t.Errorf("seat list: got %v, want server-returned [u-1]", comp.SeatedEmployeeIDs)
	}
}
