package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Dev4EM/tutorDepartment/config"
	"github.com/Dev4EM/tutorDepartment/internal/api/handler"
	"github.com/Dev4EM/tutorDepartment/internal/dto"
	"github.com/Dev4EM/tutorDepartment/internal/service"
	"github.com/Dev4EM/tutorDepartment/pkg/jwt"
)

// ── 最小化 Service 替身，仅记录命中的操作 ──

type stubScheduleService struct{ hit string }

func (s *stubScheduleService) Create(context.Context, *dto.CreateScheduleRequest, string) (*dto.ScheduleResponse, error) {
	s.hit = "create"
	return &dto.ScheduleResponse{}, nil
}
func (s *stubScheduleService) GetByID(context.Context, string) (*dto.ScheduleResponse, error) {
	s.hit = "get"
	return &dto.ScheduleResponse{}, nil
}
func (s *stubScheduleService) List(_ context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, error) {
	s.hit = "list:" + req.AssignedTo
	return nil, nil
}
func (s *stubScheduleService) Update(context.Context, string, *dto.UpdateScheduleRequest, string) (*dto.ScheduleResponse, error) {
	s.hit = "update"
	return &dto.ScheduleResponse{}, nil
}
func (s *stubScheduleService) Resize(context.Context, string, *dto.ResizeScheduleRequest, string) (*dto.ScheduleResponse, error) {
	s.hit = "resize"
	return &dto.ScheduleResponse{}, nil
}
func (s *stubScheduleService) SetStatus(context.Context, string, *dto.SetDateStatusRequest, string) (*dto.ScheduleResponse, error) {
	s.hit = "status"
	return &dto.ScheduleResponse{}, nil
}
func (s *stubScheduleService) DeleteDate(context.Context, string, string) (service.DeleteOutcome, error) {
	s.hit = "delete-date"
	return service.OutcomePartiallyDeleted, nil
}
func (s *stubScheduleService) Delete(context.Context, string) error {
	s.hit = "delete"
	return nil
}

type stubExportService struct{ hit string }

func (s *stubExportService) ExportTimeline(context.Context, *dto.ScheduleExportRequest) (*bytes.Buffer, string, error) {
	s.hit = "xlsx"
	return bytes.NewBufferString("PK"), "t.xlsx", nil
}
func (s *stubExportService) ExportICS(context.Context, *dto.ScheduleExportRequest) ([]byte, string, error) {
	s.hit = "ics"
	return []byte("BEGIN:VCALENDAR"), "t.ics", nil
}

func setupRouter(t *testing.T) (http.Handler, *stubScheduleService, *stubExportService, string) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			MaxBodyBytes: 1 << 20,
			RateLimit:    config.RateConfig{Limit: 100, Window: time.Minute},
		},
		Auth: config.AuthConfig{JWTSecret: "router-test-secret-0123456789"},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	token, err := jwtMgr.GenerateAccessToken("user-001", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	sched, export := &stubScheduleService{}, &stubExportService{}
	h := &handler.Handler{
		Schedule: handler.NewScheduleHandler(sched),
		Export:   handler.NewExportHandler(export),
	}
	engine, err := Setup(cfg, h, jwtMgr, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("Setup 失败: %v", err)
	}
	return engine, sched, export, token
}

func TestRouter_Health(t *testing.T) {
	engine, _, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("应设置 X-Request-ID")
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	engine, _, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/schedules", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRouter_Routes(t *testing.T) {
	cases := []struct {
		method, path, body string
		want               string
	}{
		{"POST", "/api/v1/schedules", `{"title":"t","assigned_to":"u","start_date":"2024-01-01","end_date":"2024-01-02","task_type":"daily"}`, "create"},
		{"GET", "/api/v1/schedules", "", "list:"},
		{"GET", "/api/v1/schedules/user/user-007", "", "list:user-007"},
		{"GET", "/api/v1/schedules/sch-1", "", "get"},
		{"PUT", "/api/v1/schedules/sch-1", `{"title":"x"}`, "update"},
		{"PUT", "/api/v1/schedules/sch-1/range", `{"start_date":"2024-01-01","end_date":"2024-01-02"}`, "resize"},
		{"PATCH", "/api/v1/schedules/sch-1/status", `{"date":"2024-01-01","status":"missed"}`, "status"},
		{"DELETE", "/api/v1/schedules/sch-1?date=2024-01-01", "", "delete-date"},
		{"DELETE", "/api/v1/schedules/sch-1", "", "delete"},
		{"GET", "/api/v1/schedules/export/xlsx?start_date=2024-01-01&end_date=2024-01-02", "", "xlsx"},
		{"GET", "/api/v1/schedules/export/ics?start_date=2024-01-01&end_date=2024-01-02", "", "ics"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			engine, sched, export, token := setupRouter(t)

			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tc.method, tc.path, nil)
			}
			req.Header.Set("Authorization", "Bearer "+token)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			if w.Code >= 300 {
				t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
			}
			if got := sched.hit + export.hit; got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRouter_CustomValidationRegistered(t *testing.T) {
	engine, sched, _, token := setupRouter(t)

	req := httptest.NewRequest("PATCH", "/api/v1/schedules/sch-1/status", strings.NewReader(`{"date":"2024-02-30","status":"missed"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if sched.hit != "" {
		t.Error("校验失败时不应调用 Service")
	}
}
