package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRouter_APIKeyRequired(t *testing.T) {
	server := setupTestServer(t)
	router := NewRouter(server, server.metrics)

	tests := []struct {
		name           string
		apiKey         string
		expectedStatus int
	}{
		{
			name:           "missing key",
			apiKey:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong key",
			apiKey:         "not-the-key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "correct key",
			apiKey:         "test-key",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/health", nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if tt.expectedStatus == http.StatusUnauthorized {
				if response.Success {
					t.Error("Expected success to be false")
				}
				if response.Error == "" {
					t.Error("Expected an error message in the envelope")
				}
			} else if !response.Success {
				t.Error("Expected success to be true")
			}
		})
	}
}

func TestNewRouter_MetricsUnprotected(t *testing.T) {
	server := setupTestServer(t)
	router := NewRouter(server, server.metrics)

	// Labeled collectors only show up in the scrape once a sample has
	// been recorded, so hit an instrumented route first.
	warm := httptest.NewRequest("GET", "/api/v1/health", nil)
	warm.Header.Set("X-API-Key", "test-key")
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 without API key, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("oggmux_")) {
		t.Error("Expected oggmux metrics in scrape output")
	}
}

func TestNewRouter_InspectThroughRouter(t *testing.T) {
	server := setupTestServer(t)
	router := NewRouter(server, server.metrics)

	data := wireStream(t, 3, "routed")

	req := httptest.NewRequest("POST", "/api/v1/inspect", bytes.NewReader(data))
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServerConfig_Defaults(t *testing.T) {
	server := setupTestServer(t)

	if server.config.APIKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got %q", server.config.APIKey)
	}
	if server.config.MaxBodyBytes != 1<<20 {
		t.Errorf("Expected body cap 1MiB, got %d", server.config.MaxBodyBytes)
	}
}
