package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	resp := decode[healthLiveResponse](t, rec)
	if resp.Status != "ok" || resp.Service != "videostream" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		pg, idp    ReadinessChecker
		media      ReadinessChecker
		wantStatus string
		wantCode   int
	}{
		{"все ok", staticChecker{"ok"}, staticChecker{"ok"}, staticChecker{"ok"}, "ok", http.StatusOK},
		{"degraded", staticChecker{"ok"}, staticChecker{"degraded"}, staticChecker{"ok"}, "degraded", http.StatusOK},
		{"fail", staticChecker{"fail"}, staticChecker{"degraded"}, staticChecker{"ok"}, "fail", http.StatusServiceUnavailable},
		{"checker не задан", staticChecker{"ok"}, staticChecker{"ok"}, nil, "fail", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pg, tt.idp, tt.media)
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			rec := httptest.NewRecorder()

			h.HealthReady(rec, req)
			validateResponse(t, req, rec)

			if rec.Code != tt.wantCode {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.wantCode)
			}
			resp := decode[healthReadyResponse](t, rec)
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, ожидается %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

// ctxChecker проверяет, что readiness получает контекст с дедлайном.
type ctxChecker struct{ sawDeadline *bool }

func (c ctxChecker) CheckReady(ctx context.Context) (string, string) {
	_, *c.sawDeadline = ctx.Deadline()
	return "ok", ""
}

func TestHealthReady_Deadline(t *testing.T) {
	var saw bool
	h := NewHealthHandler(ctxChecker{&saw}, staticChecker{"ok"}, staticChecker{"ok"})

	h.HealthReady(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if !saw {
		t.Error("readiness вызван без дедлайна")
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"ok", "ok"}, "ok"},
		{[]string{"ok", "degraded"}, "degraded"},
		{[]string{"degraded", "fail", "ok"}, "fail"},
		{nil, "ok"},
	}
	for _, tt := range tests {
		if got := overallStatus(tt.in...); got != tt.want {
			t.Errorf("overallStatus(%v) = %q, ожидается %q", tt.in, got, tt.want)
		}
	}
}

func TestRootInfo(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	info := decode[RootInfo](t, rec)
	if info.Status != "running" || info.Endpoints.Videos != "/api/videos" {
		t.Errorf("info = %+v", info)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус = %d, ожидается 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_FOUND" {
		t.Errorf("code = %q", code)
	}

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodPatch, "/api/users/profile", nil), "alice"))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH: статус = %d, ожидается 405", rec.Code)
	}
}

func TestOpenAPIAndMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "openapi: 3.0") {
		t.Errorf("openapi.yaml: статус = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics: статус = %d", rec.Code)
	}
}
