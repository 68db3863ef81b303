package wavespeed

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func response(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{contentType}},
	}
}

func TestOfflineSyntheticImages(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if !client.Offline() {
		t.Fatal("client without key must be offline")
	}

	task := Task{
		Model:       "bytedance/seedream-v4",
		Kind:        KindImage,
		RequestID:   "req-1",
		Prompt:      "a lighthouse at dusk",
		AspectRatio: "16:9",
		Quantity:    3,
	}
	artifacts, err := client.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("artifacts = %d", len(artifacts))
	}
	for _, a := range artifacts {
		if a.MIME != "image/png" {
			t.Fatalf("mime = %q", a.MIME)
		}
		img, err := png.Decode(bytes.NewReader(a.Data))
		if err != nil {
			t.Fatalf("decode png: %v", err)
		}
		b := img.Bounds()
		if b.Dx() != 1280 || b.Dy() != 720 {
			t.Fatalf("dimensions = %dx%d", b.Dx(), b.Dy())
		}
	}

	again, err := client.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again[0].StorageKey != artifacts[0].StorageKey {
		t.Fatal("synthetic artifacts must be deterministic per request")
	}
}

func TestOfflineSyntheticVideoIgnoresQuantity(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	artifacts, err := client.Run(context.Background(), Task{
		Model:     "bytedance/seedance-v1-pro-i2v-720p",
		Kind:      KindVideo,
		RequestID: "req-2",
		Prompt:    "slow pan across the harbor",
		Quantity:  4,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("video artifacts = %d", len(artifacts))
	}
	if artifacts[0].MIME != "video/mp4" {
		t.Fatalf("mime = %q", artifacts[0].MIME)
	}
}

func TestRunSubmitsPollsAndDownloads(t *testing.T) {
	polls := 0
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/api/v3/bytedance/seedream-v4"):
			if got := r.Header.Get("Authorization"); got != "Bearer ws-test" {
				t.Fatalf("authorization = %q", got)
			}
			return response(http.StatusOK, "application/json", `{"code":200,"data":{"id":"pred-1","status":"created"}}`), nil
		case strings.Contains(r.URL.Path, "/predictions/pred-1/result"):
			polls++
			if polls < 2 {
				return response(http.StatusOK, "application/json", `{"code":200,"data":{"id":"pred-1","status":"processing"}}`), nil
			}
			return response(http.StatusOK, "application/json", `{"code":200,"data":{"id":"pred-1","status":"completed","outputs":["https://cdn.example.com/out.png"]}}`), nil
		case strings.HasSuffix(r.URL.Path, "/out.png"):
			return response(http.StatusOK, "image/png", "not-really-a-png"), nil
		}
		t.Fatalf("unexpected request: %s %s", r.Method, r.URL)
		return nil, nil
	})

	client, err := NewClient(Options{
		APIKey:       "ws-test",
		HTTPClient:   &http.Client{Transport: transport},
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	artifacts, err := client.Run(context.Background(), Task{
		Model:  "bytedance/seedream-v4",
		Kind:   KindImage,
		Prompt: "a lighthouse",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if polls != 2 {
		t.Fatalf("polls = %d", polls)
	}
	if len(artifacts) != 1 || artifacts[0].MIME != "image/png" {
		t.Fatalf("artifacts = %+v", artifacts)
	}
	if string(artifacts[0].Data) != "not-really-a-png" {
		t.Fatal("downloaded bytes mismatch")
	}
}

func TestRunFailedPrediction(t *testing.T) {
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.Method == http.MethodPost {
			return response(http.StatusOK, "application/json", `{"code":200,"data":{"id":"pred-9","status":"created"}}`), nil
		}
		return response(http.StatusOK, "application/json", `{"code":200,"data":{"id":"pred-9","status":"failed","error":"nsfw content"}}`), nil
	})
	client, err := NewClient(Options{
		APIKey:       "ws-test",
		HTTPClient:   &http.Client{Transport: transport},
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Run(context.Background(), Task{Model: "bytedance/seedream-v4", Kind: KindImage})
	if err == nil || !strings.Contains(err.Error(), "nsfw content") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunRequiresModel(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Run(context.Background(), Task{}); err == nil {
		t.Fatal("expected error for empty model")
	}
}
