package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carelayer/triage/config"
)

// newTestServer builds a server with no database. The pipeline and
// safety endpoints work without one; region endpoints report 503.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Port:       "0",
		SessionTTL: 5 * time.Minute,
		Flags: config.Flags{
			ConciseMode:        true,
			RolePrompts:        true,
			ExpansionPrompts:   true,
			QuestionClassifier: true,
		},
	}
	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
}

func TestRouteEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/route", RouteRequest{
		Query: "I have a mild headache since yesterday",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["enhancedPrompt"] == "" {
		t.Error("Expected non-empty enhanced prompt")
	}
	if highRisk, _ := body["isHighRisk"].(bool); highRisk {
		t.Error("Mild headache should not be high risk")
	}
	meta, ok := body["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("Expected metadata object, got %v", body["metadata"])
	}
	if meta["triageLevel"] != "non_urgent" {
		t.Errorf("Expected non_urgent triage, got %v", meta["triageLevel"])
	}
}

func TestRouteEndpointEmergency(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/route", RouteRequest{
		Query: "I have severe chest pain and can't breathe",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if highRisk, _ := body["isHighRisk"].(bool); !highRisk {
		t.Error("Expected high-risk flag for emergency input")
	}
	meta, _ := body["metadata"].(map[string]any)
	if meta["triageLevel"] != "emergency" {
		t.Errorf("Expected emergency triage, got %v", meta["triageLevel"])
	}
}

func TestSafetyEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/safety", SafetyRequest{
		Query: "I have crushing chest pain radiating to my arm",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SafetyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode safety response: %v", err)
	}
	if !resp.ShouldBlockAI {
		t.Error("Expected AI blocked for cardiac emergency")
	}
	if !resp.RouteToProvider {
		t.Error("Expected provider routing for cardiac emergency")
	}
	if resp.TriageLevel != "emergency" {
		t.Errorf("Expected emergency triage, got %q", resp.TriageLevel)
	}
	if resp.FallbackResponse == nil {
		t.Fatal("Expected fallback response for blocked turn")
	}
	if resp.EmergencyProtocol == nil {
		t.Error("Expected emergency protocol")
	}
	if len(resp.SafetyNotices) == 0 {
		t.Error("Expected safety notices")
	}
}

func TestSafetyEndpointRoutine(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/safety", SafetyRequest{
		Query: "what is a balanced diet",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp SafetyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode safety response: %v", err)
	}
	if resp.ShouldBlockAI {
		t.Error("Routine question should not block AI")
	}
	if resp.FallbackResponse != nil {
		t.Error("Routine question should not carry a fallback")
	}
	if len(resp.SafetyNotices) == 0 {
		t.Error("Every turn carries at least the base disclaimer")
	}
}

func TestInvalidJSONReturns400(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/api/v1/route", "/api/v1/safety"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestRegionEndpointsWithoutDatabase(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   any
		want   int
	}{
		{http.MethodGet, "/api/v1/regions/", nil, http.StatusServiceUnavailable},
		{http.MethodPost, "/api/v1/regions/", CreateRegionRequest{ID: "eu-west", Name: "Western Europe"}, http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/regions/eu-west/rules", nil, http.StatusServiceUnavailable},
		{http.MethodPost, "/api/v1/regions/eu-west/rules", CreateRuleRequest{Name: "r", Expression: "true", Action: "block_ai", Active: true}, http.StatusNotFound},
		{http.MethodDelete, "/api/v1/regions/eu-west/rules/some-id", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := doJSON(t, server, tt.method, tt.path, tt.body)
		if rec.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, rec.Code)
		}
	}
}

func TestParseRole(t *testing.T) {
	if parseRole("clinician") != "clinician" {
		t.Error("clinician role not recognized")
	}
	if parseRole("") != "public" {
		t.Error("empty role should default to public")
	}
	if parseRole("admin") != "public" {
		t.Error("unknown role should default to public")
	}
}
