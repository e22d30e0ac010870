package stats

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/repository/mongodb"
)

// Service aggregates the roster and attendance collections into the
// dashboard report. Aggregation is a pure function of the two collections;
// the report is recomputed in full on every call.
type Service struct {
	roster     mongodb.RosterReader
	attendance mongodb.AttendanceReader
	sections   []string
	logger     *zap.Logger
}

// NewService wires the aggregator. Section order follows the configuration,
// and attendance for unconfigured section codes is ignored.
func NewService(roster mongodb.RosterReader, attendanceRepo mongodb.AttendanceReader, sections []config.SectionWindow, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	codes := make([]string, 0, len(sections))
	for _, s := range sections {
		codes = append(codes, s.Code)
	}

	return &Service{
		roster:     roster,
		attendance: attendanceRepo,
		sections:   codes,
		logger:     logger,
	}
}

// BuildReport loads both collections and assembles the report.
func (s *Service) BuildReport(ctx context.Context) (*models.Report, error) {
	students, err := s.roster.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	records, err := s.attendance.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	report := s.aggregate(students, records)

	if report.Orphans > 0 {
		s.logger.Warn("attendance records without a roster entry",
			zap.Int("count", report.Orphans))
	}

	return report, nil
}

// aggregate is the in-memory join of roster and attendance. Dates are
// ISO-formatted, so lexicographic order is chronological order.
func (s *Service) aggregate(students []models.Student, records []models.AttendanceRecord) *models.Report {
	rostered := make(map[string]struct{}, len(students))
	for _, st := range students {
		rostered[st.UID] = struct{}{}
	}

	attended := make(map[string]map[string]struct{})
	dateSet := make(map[string]struct{})
	orphans := 0
	for _, rec := range records {
		dateSet[rec.Date] = struct{}{}
		if _, ok := rostered[rec.UID]; !ok {
			orphans++
			continue
		}
		byDate, ok := attended[rec.UID]
		if !ok {
			byDate = make(map[string]struct{})
			attended[rec.UID] = byDate
		}
		byDate[rec.Date] = struct{}{}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	bySection := make(map[string][]models.Student)
	for _, st := range students {
		bySection[st.Section] = append(bySection[st.Section], st)
	}

	report := &models.Report{
		Dates:             dates,
		Sections:          make(map[string][]int, len(s.sections)),
		RosterTotals:      make(map[string]int, len(s.sections)),
		StudentsBySection: make(map[string][]models.StudentSummary, len(s.sections)),
		Details:           make(map[string]map[string]models.DetailRosters, len(dates)),
		Orphans:           orphans,
	}

	for _, code := range s.sections {
		roster := bySection[code]
		report.RosterTotals[code] = len(roster)

		counts := make([]int, len(dates))
		for i, date := range dates {
			for _, st := range roster {
				if _, ok := attended[st.UID][date]; ok {
					counts[i]++
				}
			}
		}
		report.Sections[code] = counts

		summaries := make([]models.StudentSummary, 0, len(roster))
		for _, st := range roster {
			absences := len(dates) - len(attended[st.UID])
			summaries = append(summaries, models.StudentSummary{
				UID:      st.UID,
				Name:     st.Name,
				Email:    st.Email,
				Absences: absences,
			})
		}
		// Stable keeps roster order for equal absence counts.
		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[i].Absences > summaries[j].Absences
		})
		report.StudentsBySection[code] = summaries
	}

	for _, date := range dates {
		perSection := make(map[string]models.DetailRosters, len(s.sections))
		for _, code := range s.sections {
			rosters := models.DetailRosters{
				Present: []models.PresentEntry{},
				Absent:  []models.AbsentEntry{},
			}
			for _, st := range bySection[code] {
				if _, ok := attended[st.UID][date]; ok {
					rosters.Present = append(rosters.Present, models.PresentEntry{
						UID:  st.UID,
						Name: st.Name,
					})
				} else {
					rosters.Absent = append(rosters.Absent, models.AbsentEntry{
						UID:   st.UID,
						Name:  st.Name,
						Email: st.Email,
					})
				}
			}
			perSection[code] = rosters
		}
		report.Details[date] = perSection
	}

	return report
}
