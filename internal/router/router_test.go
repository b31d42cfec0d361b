package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"dayplan/internal/db"
	"dayplan/internal/handler"
	"dayplan/internal/repository"
	"dayplan/internal/router"
	"dayplan/internal/service"
	"dayplan/migrations"
)

type scheduleEnvelope struct {
	Schedule struct {
		ID        string `json:"id"`
		Confirmed bool   `json:"confirmed"`
		Items     []struct {
			ID    string `json:"id"`
			Kind  string `json:"kind"`
			Title string `json:"title"`
			Timer *struct {
				IsActive bool `json:"isActive"`
			} `json:"timer"`
		} `json:"items"`
	} `json:"schedule"`
}

type timerEnvelope struct {
	Timer struct {
		ItemID           string `json:"itemId"`
		IsActive         bool   `json:"isActive"`
		Completed        bool   `json:"completed"`
		TimeSpentSeconds int    `json:"timeSpentSeconds"`
	} `json:"timer"`
	Deactivated []struct {
		ItemID string `json:"itemId"`
	} `json:"deactivated"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Field string `json:"field"`
			Index *int   `json:"index"`
		} `json:"details"`
	} `json:"error"`
}

func TestScheduleAndExecuteFlow(t *testing.T) {
	engine := setupTestEngine(t)

	status, body := requestJSON(t, engine, http.MethodPost, "/api/schedules", map[string]interface{}{
		"userInput": "finish slides",
		"startTime": "09:00",
		"items": []map[string]interface{}{
			{"title": "Outline", "estimatedMinutes": 25},
			{"title": "Polish"},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on create, got %d: %s", status, string(body))
	}
	var created scheduleEnvelope
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("unmarshal schedule: %v", err)
	}
	if len(created.Schedule.Items) != 3 {
		t.Fatalf("expected work, break, work; got %d items", len(created.Schedule.Items))
	}
	if created.Schedule.Items[1].Kind != "break" {
		t.Fatalf("expected a break after 25 minutes of work, got %s", created.Schedule.Items[1].Kind)
	}
	outline := created.Schedule.Items[0].ID
	polish := created.Schedule.Items[2].ID

	status, body = requestJSON(t, engine, http.MethodPost, "/api/items/"+outline+"/start", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d: %s", status, string(body))
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/items/"+polish+"/start", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on second start, got %d", status)
	}
	var second timerEnvelope
	if err := json.Unmarshal(body, &second); err != nil {
		t.Fatalf("unmarshal timer: %v", err)
	}
	if len(second.Deactivated) != 1 || second.Deactivated[0].ItemID != outline {
		t.Fatalf("expected %s to be deactivated, got %+v", outline, second.Deactivated)
	}

	// Pausing an item that lost activity is rejected.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/items/"+outline+"/pause", nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on pause of inactive item, got %d", status)
	}
	assertErrorCode(t, body, "invalid_transition")

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/items/"+polish+"/elapsed", map[string]int{"seconds": 120})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on elapsed report, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/items/"+polish+"/complete", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on complete, got %d", status)
	}
	var done timerEnvelope
	if err := json.Unmarshal(body, &done); err != nil {
		t.Fatalf("unmarshal completed timer: %v", err)
	}
	if !done.Timer.Completed || done.Timer.IsActive {
		t.Fatalf("expected completed inactive timer, got %+v", done.Timer)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/items/"+polish+"/summary", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on summary, got %d", status)
	}
	var summary struct {
		Summary struct {
			TotalSessions int `json:"totalSessions"`
			Events        []struct {
				Action string `json:"action"`
			} `json:"events"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if summary.Summary.TotalSessions != 1 || len(summary.Summary.Events) != 2 {
		t.Fatalf("unexpected summary: %+v", summary.Summary)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/schedules/"+created.Schedule.ID+"/progress", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on progress, got %d", status)
	}
	var progress struct {
		Progress struct {
			TotalWorkItems int `json:"totalWorkItems"`
			CompletedCount int `json:"completedCount"`
		} `json:"progress"`
	}
	if err := json.Unmarshal(body, &progress); err != nil {
		t.Fatalf("unmarshal progress: %v", err)
	}
	if progress.Progress.TotalWorkItems != 2 || progress.Progress.CompletedCount != 1 {
		t.Fatalf("unexpected progress: %+v", progress.Progress)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/schedules/"+created.Schedule.ID+"/tips", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on tips, got %d", status)
	}
	var tips struct {
		Tips []string `json:"tips"`
	}
	if err := json.Unmarshal(body, &tips); err != nil {
		t.Fatalf("unmarshal tips: %v", err)
	}
	if len(tips.Tips) == 0 {
		t.Fatal("expected generic tips")
	}

	// Edits are refused once execution started.
	status, body = requestJSON(t, engine, http.MethodPut, "/api/schedules/"+created.Schedule.ID+"/confirm", map[string]interface{}{
		"items": []map[string]interface{}{{"title": "Redo", "estimatedMinutes": 10}},
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on confirm after start, got %d", status)
	}
	assertErrorCode(t, body, "schedule_started")
}

func TestBreakdownConfirmListDelete(t *testing.T) {
	engine := setupTestEngine(t)

	status, body := requestJSON(t, engine, http.MethodPost, "/api/schedules/breakdown", map[string]string{
		"text":      "1. read brief (10 min)\n2. sketch ideas",
		"startTime": "14:00",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on breakdown, got %d: %s", status, string(body))
	}
	var draft scheduleEnvelope
	if err := json.Unmarshal(body, &draft); err != nil {
		t.Fatalf("unmarshal draft: %v", err)
	}
	if draft.Schedule.Confirmed {
		t.Fatal("breakdown must not confirm")
	}
	if len(draft.Schedule.Items) != 2 || draft.Schedule.Items[0].Title != "read brief" {
		t.Fatalf("unexpected draft items: %+v", draft.Schedule.Items)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/schedules?confirmed=true", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", status)
	}
	if strings.Contains(string(body), draft.Schedule.ID) {
		t.Fatal("unconfirmed schedule listed as confirmed")
	}

	status, body = requestJSON(t, engine, http.MethodPut, "/api/schedules/"+draft.Schedule.ID+"/confirm", map[string]interface{}{
		"items": []map[string]interface{}{
			{"title": "read brief", "estimatedMinutes": 10},
			{"title": "", "estimatedMinutes": 10},
		},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %d", status)
	}
	var invalid apiErrorEnvelope
	if err := json.Unmarshal(body, &invalid); err != nil {
		t.Fatalf("unmarshal validation error: %v", err)
	}
	if invalid.Error.Code != "validation_error" || invalid.Error.Details.Field != "title" {
		t.Fatalf("unexpected validation error: %+v", invalid.Error)
	}
	if invalid.Error.Details.Index == nil || *invalid.Error.Details.Index != 1 {
		t.Fatalf("expected index 1 in details, got %+v", invalid.Error.Details.Index)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/schedules/"+draft.Schedule.ID+"/confirm", map[string]interface{}{
		"items": []map[string]interface{}{{"title": "read brief", "estimatedMinutes": 10}},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on confirm, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/schedules?confirmed=true", nil)
	if status != http.StatusOK || !strings.Contains(string(body), draft.Schedule.ID) {
		t.Fatalf("expected confirmed schedule in list, got %d: %s", status, string(body))
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/schedules/"+draft.Schedule.ID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}
	status, body = requestJSON(t, engine, http.MethodGet, "/api/schedules/"+draft.Schedule.ID, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
	assertErrorCode(t, body, "schedule_not_found")
}

func TestRejectsMalformedRequests(t *testing.T) {
	engine := setupTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken json, got %d", recorder.Code)
	}
	assertErrorCode(t, recorder.Body.Bytes(), "invalid_json")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/schedules", map[string]interface{}{
		"startTime": "23:30",
		"items":     []map[string]interface{}{{"title": "late night", "estimatedMinutes": 45}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a plan past midnight, got %d", status)
	}
	assertErrorCode(t, body, "validation_error")

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/items/nope/start", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/schedules/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(recorder.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Fatalf("DELETE not allowed: %s", recorder.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	engine := setupTestEngine(t)

	status, _ := requestJSON(t, engine, http.MethodGet, "/health", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on health, got %d", status)
	}
	status, body := requestJSON(t, engine, http.MethodGet, "/metrics", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on metrics, got %d", status)
	}
	if !strings.Contains(string(body), "dayplan_") {
		t.Fatal("expected dayplan metrics in exposition")
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := db.RunMigrations(database, migrations.Files); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	scheduleRepo := repository.NewScheduleRepository(database)
	scheduleService := service.NewScheduleService(scheduleRepo)

	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	itemHandler := handler.NewItemHandler(scheduleService)

	return router.New(scheduleHandler, itemHandler, zerolog.Nop(), []string{"http://localhost:5173"})
}

func assertErrorCode(t *testing.T, body []byte, want string) {
	t.Helper()
	var resp apiErrorEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Error.Code != want {
		t.Fatalf("expected error code %s, got %s (%s)", want, resp.Error.Code, resp.Error.Message)
	}
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
