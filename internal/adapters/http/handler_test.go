package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

func newTestRouter() (http.Handler, *memory.Repositories) {
	repos := memory.NewRepositories()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	service := application.NewService(application.Dependencies{
		Cases:        repos.Cases,
		Episodes:     repos.Episodes,
		Messages:     repos.Messages,
		IssueEvents:  repos.IssueEvents,
		StatusEvents: repos.StatusEvents,
		Agents:       repos.Agents,
		Summaries:    repos.Summaries,
		NowFn:        func() time.Time { return now },
	})
	handler := NewHandler(service)
	handler.nowFn = func() time.Time { return now }
	return NewRouter(handler, slog.Default()), repos
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, res.Code)
		}
	}
}

func TestMessageLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()

	body := `{"customer_ref":"wa:+911234567890","sender":"CUSTOMER","text":"machine is stuck"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var created struct {
		Data domain.Message `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	caseID := created.Data.CaseID.String()

	// The episode list shows the auto-opened episode.
	req = httptest.NewRequest(http.MethodGet, "/v1/cases/"+caseID+"/episodes", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("list episodes: expected 200, got %d", res.Code)
	}
	var listed struct {
		Data struct {
			Episodes []domain.Episode `json:"episodes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode episodes: %v", err)
	}
	if len(listed.Data.Episodes) != 1 || !listed.Data.Episodes[0].Open() {
		t.Fatalf("expected one open episode, got %+v", listed.Data.Episodes)
	}

	// Close, then reopen.
	req = httptest.NewRequest(http.MethodPost, "/v1/cases/"+caseID+"/close", strings.NewReader(`{"final_status":"SOLVED","actor_id":"agent-1"}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d: %s", res.Code, res.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/cases/"+caseID+"/reopen", strings.NewReader(`{"actor_id":"agent-1"}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("reopen: expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var reopened struct {
		Data domain.Episode `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &reopened); err != nil {
		t.Fatalf("decode reopened episode: %v", err)
	}
	if reopened.Data.Sequence != 2 {
		t.Fatalf("expected sequence 2 after reopen, got %d", reopened.Data.Sequence)
	}
}

func TestCloseRejectsNonFinalStatus(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"customer_ref":"wa:+91999","sender":"CUSTOMER","text":"hi"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	var created struct {
		Data domain.Message `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/cases/"+created.Data.CaseID.String()+"/close", strings.NewReader(`{"final_status":"IN_PROGRESS"}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUnknownCaseReturnsNotFound(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/cases/00000000-0000-0000-0000-000000000001/episodes", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestInvalidCaseIDReturnsBadRequest(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/cases/not-a-uuid/episodes", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestOverviewReportEndpoint(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/overview?preset=today", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var envelope struct {
		Status string                `json:"status"`
		Data   application.KPIReport `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success envelope, got %q", envelope.Status)
	}
	if envelope.Data.Mode != application.AttributionOpened {
		t.Fatalf("expected opened attribution default, got %s", envelope.Data.Mode)
	}
}

func TestOverviewReportRejectsUnknownPreset(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/overview?preset=90d", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if got := res.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
