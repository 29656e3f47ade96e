//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestHealthz(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:3001")
	resp, err := http.Get(fmt.Sprintf("%s/healthz", baseURL))
	if err != nil {
		t.Fatalf("health check request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
}

func TestStatusEndpointShape(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:3001")
	resp, err := http.Get(fmt.Sprintf("%s/status", baseURL))
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()

	var snapshot struct {
		Students       *int  `json:"students"`
		ActiveQuestion *bool `json:"activeQuestion"`
		Answers        *int  `json:"answers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if snapshot.Students == nil || snapshot.ActiveQuestion == nil || snapshot.Answers == nil {
		t.Fatalf("status response is missing expected fields")
	}
}
