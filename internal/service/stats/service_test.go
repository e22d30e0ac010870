package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/repository/mongodb"
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
	records []models.AttendanceRecord
}

func (f *fakeAttendance) ListAll(_ context.Context) ([]models.AttendanceRecord, error) {
	return f.records, nil
}

var testSections = []config.SectionWindow{
	{Code: "0201", StartHour: 10, EndHour: 11},
	{Code: "0202", StartHour: 11, EndHour: 12},
	{Code: "0203", StartHour: 12, EndHour: 13},
}

func record(uid, date, section string) models.AttendanceRecord {
	return models.AttendanceRecord{UID: uid, Date: date, Section: section, Timestamp: time.Now()}
}

func newTestService(students []models.Student, records []models.AttendanceRecord) *Service {
	return NewService(&fakeRoster{students: students}, &fakeAttendance{records: records}, testSections, nil)
}

func TestBuildReportExample(t *testing.T) {
	students := []models.Student{
		{UID: "1", Name: "First Student", Section: "0201"},
		{UID: "2", Name: "Second Student", Section: "0201", Email: "two@example.edu"},
	}
	records := []models.AttendanceRecord{
		record("1", "2026-02-06", "0201"),
	}

	report, err := newTestService(students, records).BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if len(report.Dates) != 1 || report.Dates[0] != "2026-02-06" {
		t.Errorf("dates = %v, want [2026-02-06]", report.Dates)
	}
	if got := report.Sections["0201"]; len(got) != 1 || got[0] != 1 {
		t.Errorf("sections[0201] = %v, want [1]", got)
	}
	if report.RosterTotals["0201"] != 2 {
		t.Errorf("rosterTotals[0201] = %d, want 2", report.RosterTotals["0201"])
	}

	ranked := report.StudentsBySection["0201"]
	if len(ranked) != 2 {
		t.Fatalf("ranked roster size = %d, want 2", len(ranked))
	}
	if ranked[0].UID != "2" || ranked[0].Absences != 1 {
		t.Errorf("top of ranking = %+v, want uid 2 with 1 absence", ranked[0])
	}
	if ranked[1].UID != "1" || ranked[1].Absences != 0 {
		t.Errorf("second in ranking = %+v, want uid 1 with 0 absences", ranked[1])
	}

	detail := report.Details["2026-02-06"]["0201"]
	if len(detail.Present) != 1 || detail.Present[0].UID != "1" {
		t.Errorf("present = %+v, want uid 1", detail.Present)
	}
	if len(detail.Absent) != 1 || detail.Absent[0].UID != "2" {
		t.Errorf("absent = %+v, want uid 2", detail.Absent)
	}
	if detail.Absent[0].Email != "two@example.edu" {
		t.Errorf("absent email = %q, want two@example.edu", detail.Absent[0].Email)
	}
}

func TestBuildReportEmptyAttendance(t *testing.T) {
	students := []models.Student{
		{UID: "1", Name: "Only Student", Section: "0202"},
	}

	report, err := newTestService(students, nil).BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if len(report.Dates) != 0 {
		t.Errorf("dates = %v, want empty", report.Dates)
	}
	if len(report.Sections["0202"]) != 0 {
		t.Errorf("sections[0202] = %v, want empty series", report.Sections["0202"])
	}
	if report.RosterTotals["0202"] != 1 {
		t.Errorf("rosterTotals[0202] = %d, want 1", report.RosterTotals["0202"])
	}
	if got := report.StudentsBySection["0202"]; len(got) != 1 || got[0].Absences != 0 {
		t.Errorf("studentsBySection[0202] = %+v, want one student with 0 absences", got)
	}
}

func TestBuildReportDatesSorted(t *testing.T) {
	students := []models.Student{{UID: "1", Name: "A", Section: "0201"}}
	records := []models.AttendanceRecord{
		record("1", "2026-02-06", "0201"),
		record("1", "2026-01-23", "0201"),
		record("1", "2026-01-30", "0201"),
	}

	report, err := newTestService(students, records).BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	want := []string{"2026-01-23", "2026-01-30", "2026-02-06"}
	if len(report.Dates) != len(want) {
		t.Fatalf("dates = %v, want %v", report.Dates, want)
	}
	for i, d := range want {
		if report.Dates[i] != d {
			t.Errorf("dates[%d] = %q, want %q", i, report.Dates[i], d)
		}
	}
}

func TestBuildReportOrphanRecords(t *testing.T) {
	students := []models.Student{{UID: "1", Name: "A", Section: "0201"}}
	records := []models.AttendanceRecord{
		record("1", "2026-02-06", "0201"),
		record("424242", "2026-02-06", "0201"), // no roster entry
	}

	report, err := newTestService(students, records).BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if report.Orphans != 1 {
		t.Errorf("orphans = %d, want 1", report.Orphans)
	}
	if got := report.Sections["0201"]; len(got) != 1 || got[0] != 1 {
		t.Errorf("sections[0201] = %v, orphan must not inflate counts", got)
	}
}

func TestBuildReportIgnoresUnconfiguredSection(t *testing.T) {
	students := []models.Student{
		{UID: "1", Name: "A", Section: "0201"},
		{UID: "2", Name: "B", Section: "0299"},
	}
	records := []models.AttendanceRecord{
		record("2", "2026-02-06", "0299"),
	}

	report, err := newTestService(students, records).BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if _, ok := report.Sections["0299"]; ok {
		t.Errorf("unconfigured section 0299 must not appear in the report")
	}
	if _, ok := report.Details["2026-02-06"]["0299"]; ok {
		t.Errorf("unconfigured section 0299 must not appear in details")
	}
}

func TestBuildReportAbsenceInvariants(t *testing.T) {
	students := []models.Student{
		{UID: "1", Name: "A", Section: "0201"},
		{UID: "2", Name: "B", Section: "0201"},
		{UID: "3", Name: "C", Section: "0202"},
	}
	records := []models.AttendanceRecord{
		record("1", "2026-01-23", "0201"),
		record("1", "2026-01-30", "0201"),
		record("2", "2026-01-30", "0201"),
		record("3", "2026-01-23", "0202"),
	}

	report, err := newTestService(students, records).BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	for code, series := range report.Sections {
		sum := 0
		for _, n := range series {
			sum += n
		}
		if limit := report.RosterTotals[code] * len(report.Dates); sum > limit {
			t.Errorf("section %s: sum(counts)=%d exceeds roster*dates=%d", code, sum, limit)
		}
	}

	attendedByUID := map[string]int{}
	for _, rec := range records {
		attendedByUID[rec.UID]++
	}
	for code, roster := range report.StudentsBySection {
		for _, s := range roster {
			want := len(report.Dates) - attendedByUID[s.UID]
			if s.Absences != want {
				t.Errorf("section %s uid %s: absences=%d, want %d", code, s.UID, s.Absences, want)
			}
		}
	}
}

func TestBuildReportStableTieBreak(t *testing.T) {
	// Both students have identical absence counts; roster order must hold.
	students := []models.Student{
		{UID: "10", Name: "First", Section: "0203"},
		{UID: "20", Name: "Second", Section: "0203"},
	}
	records := []models.AttendanceRecord{
		record("10", "2026-01-23", "0203"),
		record("20", "2026-01-30", "0203"),
	}

	report, err := newTestService(students, records).BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	ranked := report.StudentsBySection["0203"]
	if len(ranked) != 2 || ranked[0].UID != "10" || ranked[1].UID != "20" {
		t.Errorf("ranked = %+v, want roster order 10 then 20", ranked)
	}
}

func TestBuildReportDeterministic(t *testing.T) {
	students := []models.Student{
		{UID: "1", Name: "A", Section: "0201"},
		{UID: "2", Name: "B", Section: "0201"},
		{UID: "3", Name: "C", Section: "0202"},
	}
	records := []models.AttendanceRecord{
		record("1", "2026-01-23", "0201"),
		record("3", "2026-01-23", "0202"),
		record("2", "2026-01-30", "0201"),
	}

	svc := newTestService(students, records)

	first, err := svc.BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	second, err := svc.BuildReport(context.Background())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("repeated aggregation produced different reports")
	}
}
