package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthLive(&config.Config{App: config.AppConfig{Env: "dev"}})(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if resp.Header().Get("X-Lekhapadi-Env") != "dev" {
		t.Fatalf("missing env header")
	}
}

func TestHealthReadyAllHealthy(t *testing.T) {
	resp := httptest.NewRecorder()
	handler := HealthReady(&config.Config{}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		ReadinessCheck{Name: "db", Pinger: stubPinger{}},
		ReadinessCheck{Name: "redis", Pinger: stubPinger{}},
		ReadinessCheck{Name: "gcs", Pinger: nil},
	)
	handler(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestHealthReadyReportsFailures(t *testing.T) {
	resp := httptest.NewRecorder()
	handler := HealthReady(&config.Config{}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		ReadinessCheck{Name: "db", Pinger: stubPinger{}},
		ReadinessCheck{Name: "redis", Pinger: stubPinger{err: errors.New("connection refused")}},
	)
	handler(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Details["redis"] != "unavailable" {
		t.Fatalf("expected redis failure detail, got %+v", envelope.Error.Details)
	}
	if _, ok := envelope.Error.Details["db"]; ok {
		t.Fatalf("healthy db reported as failed")
	}
}
