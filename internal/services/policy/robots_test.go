package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
)

func testRobotsConfig() common.RobotsConfig {
	return common.RobotsConfig{
		Enabled:      true,
		UserAgent:    "VenariJobScraper/1.0",
		FetchTimeout: 2 * time.Second,
		FetchRate:    time.Millisecond,
	}
}

func TestRobotsGate_DisallowedPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gate := NewRobotsGate(testRobotsConfig(), arbor.NewLogger())
	ctx := context.Background()

	if gate.IsAllowed(ctx, server.URL+"/private/jobs") {
		t.Error("Expected /private/ to be disallowed")
	}
	if !gate.IsAllowed(ctx, server.URL+"/careers") {
		t.Error("Expected /careers to be allowed")
	}
}

func TestRobotsGate_FetchFailureFailsOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gate := NewRobotsGate(testRobotsConfig(), arbor.NewLogger())

	if !gate.IsAllowed(context.Background(), url+"/jobs") {
		t.Error("Expected unreachable robots.txt to fail open")
	}
}

func TestRobotsGate_MissingRobotsFailsOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	gate := NewRobotsGate(testRobotsConfig(), arbor.NewLogger())

	if !gate.IsAllowed(context.Background(), server.URL+"/jobs") {
		t.Error("Expected 404 robots.txt to allow everything")
	}
}

func TestRobotsGate_DisabledAllowsEverything(t *testing.T) {
	config := testRobotsConfig()
	config.Enabled = false

	gate := NewRobotsGate(config, arbor.NewLogger())

	// No server exists; a disabled gate must not even try to fetch
	if !gate.IsAllowed(context.Background(), "http://127.0.0.1:1/anything") {
		t.Error("Expected disabled gate to allow")
	}
}

func TestRobotsGate_CachesPerHost(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches++
			w.Write([]byte("User-agent: *\nAllow: /\n"))
		}
	}))
	defer server.Close()

	gate := NewRobotsGate(testRobotsConfig(), arbor.NewLogger())
	ctx := context.Background()

	gate.IsAllowed(ctx, server.URL+"/jobs")
	gate.IsAllowed(ctx, server.URL+"/other")
	gate.IsAllowed(ctx, server.URL+"/third")

	if fetches != 1 {
		t.Errorf("Expected a single robots.txt fetch, got %d", fetches)
	}
}

func TestRobotsGate_UnparseableURLAllows(t *testing.T) {
	gate := NewRobotsGate(testRobotsConfig(), arbor.NewLogger())

	if !gate.IsAllowed(context.Background(), "://not-a-url") {
		t.Error("Expected unparseable URL to allow")
	}
}

func TestRobotsGate_AgentSpecificGroup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: VenariJobScraper\nDisallow: /\n\nUser-agent: *\nAllow: /\n"))
		}
	}))
	defer server.Close()

	gate := NewRobotsGate(testRobotsConfig(), arbor.NewLogger())

	if gate.IsAllowed(context.Background(), server.URL+"/jobs") {
		t.Error("Expected the agent-specific group to apply")
	}
}
