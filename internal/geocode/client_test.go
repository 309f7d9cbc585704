package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reliefgrid/relief-api/internal/apperr"
)

func TestResolveFirstResult(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if r.URL.Path != "/geocode/v1/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"geometry":{"lat":10.76,"lng":106.66}},{"geometry":{"lat":0,"lng":0}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	coord, err := client.Resolve(context.Background(), "District 1, Ho Chi Minh City")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if coord.Lat != 10.76 || coord.Lng != 106.66 {
		t.Fatalf("expected first result geometry, got %+v", coord)
	}
	if gotQuery != "District 1, Ho Chi Minh City" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}

func TestResolveFailureModes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "zero-results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results":[]}`))
			},
		},
		{
			name: "provider-error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				w.Write([]byte(`{"status":{"code":402,"message":"quota exceeded"}}`))
			},
		},
		{
			name: "malformed-body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, "test-key", time.Second)
			if _, err := client.Resolve(context.Background(), "nowhere"); !apperr.IsUnresolvedLocation(err) {
				t.Fatalf("expected unresolved-location error, got %v", err)
			}
		})
	}
}

func TestResolveShortCircuits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called")
	}))
	defer server.Close()

	withKey := NewClient(server.URL, "test-key", time.Second)
	if _, err := withKey.Resolve(context.Background(), "   "); !apperr.IsUnresolvedLocation(err) {
		t.Fatalf("expected unresolved-location error for empty input, got %v", err)
	}

	noKey := NewClient(server.URL, "", time.Second)
	if _, err := noKey.Resolve(context.Background(), "Springfield"); !apperr.IsUnresolvedLocation(err) {
		t.Fatalf("expected unresolved-location error without api key, got %v", err)
	}
}

func TestResolveUnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, "test-key", time.Second)
	if _, err := client.Resolve(context.Background(), "Springfield"); !apperr.IsUnresolvedLocation(err) {
		t.Fatalf("expected unresolved-location error, got %v", err)
	}
}
