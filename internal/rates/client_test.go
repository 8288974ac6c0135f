package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"USD","rates":{"USD":1,"EUR":0.9,"GBP":0.8}}`))
	}))
	defer srv.Close()

	table, err := NewClient(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(table) != 3 {
		t.Fatalf("Fetch() returned %d rates, want 3", len(table))
	}
	if table["EUR"] != 0.9 {
		t.Errorf("EUR rate = %v, want 0.9", table["EUR"])
	}
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "empty rates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"base":"USD","rates":{}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if _, err := NewClient(srv.URL).Fetch(context.Background()); err == nil {
				t.Error("Fetch() error = nil, want error")
			}
		})
	}
}

func TestSnapshotKeepsPreviousOnEmptyGet(t *testing.T) {
	snap := NewSnapshot()

	got := snap.Get()
	if len(got) != 0 {
		t.Fatalf("fresh snapshot = %v, want empty", got)
	}

	snap.Set(map[string]float64{"EUR": 0.9})
	got = snap.Get()
	if got["EUR"] != 0.9 {
		t.Errorf("snapshot EUR = %v, want 0.9", got["EUR"])
	}

	// Mutating the returned copy must not affect the snapshot.
	got["EUR"] = 999
	if snap.Get()["EUR"] != 0.9 {
		t.Error("snapshot mutated through returned copy")
	}
}
