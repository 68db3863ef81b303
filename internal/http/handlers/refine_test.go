package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRefineStaticAdvisor(t *testing.T) {
	app := testApp(t)
	body := `{"target_model":"nano-banana","spec":{"subject":"a rusty bicycle","style":"film photo"}}`
	req := httptest.NewRequest("POST", "/v1/refine", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.Refine(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Title    string `json:"title"`
		Prompt   string `json:"prompt"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Provider != "static" {
		t.Fatalf("provider = %q", payload.Provider)
	}
	if payload.Prompt == "" || payload.Title == "" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestRefineValidatesSpec(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest("POST", "/v1/refine", strings.NewReader(`{"spec":{}}`))
	rr := httptest.NewRecorder()

	app.Refine(rr, req)

	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestEnqueueJobRejectsUnknownTaskType(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest("POST", "/v1/jobs", strings.NewReader(`{"task_type":"AUDIO_GEN"}`))
	rr := httptest.NewRecorder()

	app.EnqueueJob(rr, req)

	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestEnqueueJobRejectsUnknownProvider(t *testing.T) {
	app := testApp(t)
	app.ImageProviders = nil
	body := `{"task_type":"IMAGE_GEN","provider":"dalle","spec":{"subject":"a cat"}}`
	req := httptest.NewRequest("POST", "/v1/jobs", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.EnqueueJob(rr, req)

	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestTemplatesListing(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest("GET", "/v1/templates", nil)
	rr := httptest.NewRecorder()

	app.Templates(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload struct {
		Models  []string `json:"models"`
		Default string   `json:"default"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Models) == 0 || payload.Default == "" {
		t.Fatalf("payload = %+v", payload)
	}
}
