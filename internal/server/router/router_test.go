package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/repository/mongodb"
	"github.com/inst346/attendance/internal/server/handlers"
	attendancesvc "github.com/inst346/attendance/internal/service/attendance"
	statssvc "github.com/inst346/attendance/internal/service/stats"
)

type fakeRoster struct {
	students []models.Student
}

func (f *fakeRoster) FindByUID(_ context.Context, uid string) (*models.Student, error) {
	for _, s := range f.students {
		if s.UID == uid {
			return &s, nil
		}
	}
	return nil, mongodb.ErrStudentNotFound
}

func (f *fakeRoster) ListAll(_ context.Context) ([]models.Student, error) {
	return f.students, nil
}

type fakeAttendance struct {
	records  []models.AttendanceRecord
	existing map[string]struct{}
}

func (f *fakeAttendance) Insert(_ context.Context, record models.AttendanceRecord) error {
	key := record.UID + "|" + record.Date
	if f.existing == nil {
		f.existing = make(map[string]struct{})
	}
	if _, dup := f.existing[key]; dup {
		return mongodb.ErrDuplicateRecord
	}
	f.existing[key] = struct{}{}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeAttendance) ListAll(_ context.Context) ([]models.AttendanceRecord, error) {
	return f.records, nil
}

var testSections = []config.SectionWindow{
	{Code: "0201", StartHour: 10, EndHour: 11},
	{Code: "0202", StartHour: 11, EndHour: 12},
	{Code: "0203", StartHour: 12, EndHour: 13},
}

func newTestEngine(t *testing.T) (*gin.Engine, *fakeAttendance) {
	t.Helper()

	roster := &fakeRoster{students: []models.Student{
		{UID: "117765432", Name: "Jane Doe", Section: "0201", Email: "jdoe@example.edu"},
	}}
	att := &fakeAttendance{}

	// Bypass keeps these tests independent of the wall clock; the window
	// arithmetic has its own coverage in the attendance service tests.
	svc, err := attendancesvc.NewService(roster, att, config.AttendanceConfig{
		Timezone:   "America/New_York",
		Sections:   testSections,
		BypassTime: true,
	}, nil)
	if err != nil {
		t.Fatalf("attendance service: %v", err)
	}

	stats := statssvc.NewService(roster, att, testSections, nil)

	engine := New(
		handlers.NewAttendanceHandler(svc, nil),
		handlers.NewStatsHandler(stats, nil),
		config.AdminConfig{User: "staff", Pass: "secret"},
		nil,
	)
	return engine, att
}

func doRequest(engine *gin.Engine, method, path, body string, auth func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != nil {
		auth(req)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitEndpoint(t *testing.T) {
	engine, att := newTestEngine(t)

	w := doRequest(engine, http.MethodPost, "/api/attend", `{"uid":"117765432","section":"0201"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp models.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Date != time.Now().In(mustLocation(t)).Format("2006-01-02") {
		t.Errorf("date = %q, want today's lab date", resp.Date)
	}
	if len(att.records) != 1 {
		t.Errorf("records = %d, want 1", len(att.records))
	}
}

func TestSubmitEndpointDuplicate(t *testing.T) {
	engine, _ := newTestEngine(t)

	body := `{"uid":"117765432","section":"0201"}`
	if w := doRequest(engine, http.MethodPost, "/api/attend", body, nil); w.Code != http.StatusOK {
		t.Fatalf("first submit status = %d", w.Code)
	}

	w := doRequest(engine, http.MethodPost, "/api/attend", body, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second submit status = %d, want 409", w.Code)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("conflict response missing error message")
	}
}

func TestSubmitEndpointValidation(t *testing.T) {
	engine, att := newTestEngine(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"uid":`},
		{"missing section", `{"uid":"117765432"}`},
		{"non numeric uid", `{"uid":"12ab","section":"0201"}`},
		{"unknown uid", `{"uid":"999999999","section":"0201"}`},
		{"section mismatch", `{"uid":"117765432","section":"0202"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(engine, http.MethodPost, "/api/attend", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}

	if len(att.records) != 0 {
		t.Errorf("records = %d, want 0 after failed submissions", len(att.records))
	}
}

func TestSubmitEndpointMethodNotAllowed(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := doRequest(engine, http.MethodGet, "/api/attend", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestStatsEndpointRequiresAuth(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := doRequest(engine, http.MethodGet, "/api/stats", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if challenge := w.Header().Get("WWW-Authenticate"); !strings.Contains(challenge, "Basic") {
		t.Errorf("WWW-Authenticate = %q, want Basic challenge", challenge)
	}

	w = doRequest(engine, http.MethodGet, "/api/stats", "", func(r *http.Request) {
		r.SetBasicAuth("staff", "wrong")
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials status = %d, want 401", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	engine, _ := newTestEngine(t)

	if w := doRequest(engine, http.MethodPost, "/api/attend", `{"uid":"117765432","section":"0201"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("seed submit status = %d", w.Code)
	}

	w := doRequest(engine, http.MethodGet, "/api/stats", "", func(r *http.Request) {
		r.SetBasicAuth("staff", "secret")
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var report models.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Dates) != 1 {
		t.Errorf("dates = %v, want one entry", report.Dates)
	}
	if report.RosterTotals["0201"] != 1 {
		t.Errorf("rosterTotals = %v, want 0201:1", report.RosterTotals)
	}
}

func TestHealthz(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := doRequest(engine, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func mustLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}
