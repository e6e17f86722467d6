package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	kafkamw "dayslot/pkg/kafka/middleware"
	"dayslot/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

func TestHealth_WithoutNotifications(t *testing.T) {
	h := NewHealthHandler(nil, nil, logger.Discard())
	w := httptest.NewRecorder()

	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil), httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
	if _, ok := resp["notifications"]; ok {
		t.Error("notifications must be omitted when publishing is disabled")
	}
}

func TestHealth_ReportsPublishStats(t *testing.T) {
	h := NewHealthHandler(nil, kafkamw.NewPublishMetrics(), logger.Discard())
	w := httptest.NewRecorder()

	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil), httprouter.Params{})

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Notifications == nil {
		t.Fatal("expected notification stats")
	}
	if resp.Notifications.Published != 0 || resp.Notifications.Failed != 0 {
		t.Errorf("expected zero counts, got %+v", resp.Notifications)
	}
}
