package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
)

func newTestServer(t *testing.T) (*HTTPClient, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second), mux
}

func TestGetByID(t *testing.T) {
	c, mux := newTestServer(t)
	mux.HandleFunc("/v1/users/u-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(User{ID: "u-1", Email: "a@x.com", DisplayName: "Ana"})
	})

	u, err := c.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.ID != "u-1" || u.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	c, mux := newTestServer(t)
	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})

	_, err := c.GetByID(context.Background(), "ghost")
	if !repository.IsNotFound(err) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByEmail_QueryEncoding(t *testing.T) {
	c, mux := newTestServer(t)
	mux.HandleFunc("/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "a+b@x.com" {
			t.Fatalf("email query: %q", got)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "u-2", Email: "a+b@x.com"})
	})

	u, err := c.GetByEmail(context.Background(), "a+b@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != "u-2" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestCreate(t *testing.T) {
	c, mux := newTestServer(t)
	mux.HandleFunc("/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method: %s", r.Method)
		}
		var in CreateUserInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode input: %v", err)
		}
		if in.Email != "new@x.com" || in.Locale != "en" {
			t.Fatalf("unexpected input: %+v", in)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(User{ID: "u-3", Email: in.Email, DisplayName: in.DisplayName})
	})

	u, err := c.Create(context.Background(), CreateUserInput{Email: "new@x.com", Locale: "en", DisplayName: "Nuevo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != "u-3" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestCreate_ServerError(t *testing.T) {
	c, mux := newTestServer(t)
	mux.HandleFunc("/v1/users", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := c.Create(context.Background(), CreateUserInput{Email: "x@x.com"}); err == nil {
		t.Fatal("want error on 500")
	}
}

func TestGetByID_RejectsEmptyID(t *testing.T) {
	c, mux := newTestServer(t)
	mux.HandleFunc("/v1/users/u-ok", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"email": "sin-id@x.com"})
	})

	if _, err := c.GetByID(context.Background(), "u-ok"); err == nil {
		t.Fatal("want error when the response carries no id")
	}
}
