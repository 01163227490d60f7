package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rah-labs/rah-core/internal/types"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		target string
		public string
		hint   string
		want   string
	}{
		{"target env wins", "http://api.internal:8088/", "http://public", "5000", "http://api.internal:8088"},
		{"public env second", "", "http://public:3100", "5000", "http://public:3100"},
		{"full-url hint third", "", "", "http://localhost:5000", "http://localhost:5000"},
		{"bare-port hint third", "", "", "5000", "http://localhost:5000"},
		{"loopback default", "", "", "", "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RAH_MCP_TARGET_URL", tt.target)
			t.Setenv("NEXT_PUBLIC_BASE_URL", tt.public)
			if got := ResolveBaseURL(tt.hint); got != tt.want {
				t.Errorf("ResolveBaseURL(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}

func TestClient_EnvelopeHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/nodes/1":
			// Wrapped envelope.
			fmt.Fprint(w, `{"success":true,"data":{"id":1,"title":"wrapped"}}`)
		case "/api/nodes/2":
			// Bare body without envelope.
			fmt.Fprint(w, `{"id":2,"title":"bare"}`)
		case "/api/nodes/3":
			// 200 with success:false still fails.
			fmt.Fprint(w, `{"success":false,"error":"soft failure"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"success":false,"error":"node not found"}`)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	wrapped, err := client.GetNode(ctx, 1)
	if err != nil || wrapped.Title != "wrapped" {
		t.Errorf("GetNode(1) = %+v, %v", wrapped, err)
	}

	bare, err := client.GetNode(ctx, 2)
	if err != nil || bare.Title != "bare" {
		t.Errorf("GetNode(2) = %+v, %v", bare, err)
	}

	_, err = client.GetNode(ctx, 3)
	var uerr *types.UpstreamRequestError
	if !errors.As(err, &uerr) || uerr.Error() != "soft failure" {
		t.Errorf("GetNode(3) error = %v, want soft failure", err)
	}

	_, err = client.GetNode(ctx, 4)
	if !errors.As(err, &uerr) {
		t.Fatalf("GetNode(4) error = %v", err)
	}
	if uerr.Status != http.StatusNotFound || uerr.Error() != "node not found" {
		t.Errorf("GetNode(4) = %+v", uerr)
	}
}

func TestClient_ErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.GetNode(context.Background(), 1)

	var uerr *types.UpstreamRequestError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v", err)
	}
	// No upstream message: the fallback names the path.
	if uerr.Error() != "request failed at /api/nodes/1" {
		t.Errorf("Error() = %q", uerr.Error())
	}
}

func TestClient_ListDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/nodes/search" && r.Method == http.MethodGet:
			// Bare array in the data field.
			fmt.Fprint(w, `{"success":true,"data":[{"id":1,"title":"a"},{"id":2,"title":"b"}]}`)
		case r.URL.Path == "/api/edges":
			// Array wrapped under a named key.
			fmt.Fprint(w, `{"success":true,"data":{"edges":[{"id":9,"from_node_id":1,"to_node_id":2}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	nodes, err := client.SearchNodes(ctx, "q", []string{"research"}, 10)
	if err != nil || len(nodes) != 2 {
		t.Errorf("SearchNodes = %v, %v", nodes, err)
	}

	edges, err := client.QueryEdges(ctx, 0, "")
	if err != nil || len(edges) != 1 || edges[0].ID != 9 {
		t.Errorf("QueryEdges = %v, %v", edges, err)
	}
}

func TestClient_SearchNodesQueryEncoding(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.SearchNodes(context.Background(), "my query", []string{"a", "b"}, 7)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}

	if gotQuery != "dimension=a&dimension=b&limit=7&q=my+query" {
		t.Errorf("query = %q", gotQuery)
	}
}
