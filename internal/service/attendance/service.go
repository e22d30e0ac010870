package attendance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/repository/mongodb"
)

const dateLayout = "2006-01-02"

var numericUID = regexp.MustCompile(`^\d+$`)

// Service validates attendance submissions and records accepted ones.
type Service struct {
	roster     mongodb.RosterReader
	attendance mongodb.AttendanceWriter
	sections   map[string]config.SectionWindow
	location   *time.Location
	bypassTime bool
	now        func() time.Time
	logger     *zap.Logger
}

// NewService wires the submission validator. The timezone is resolved once
// here; every window decision uses it regardless of the server's locale.
func NewService(roster mongodb.RosterReader, attendanceRepo mongodb.AttendanceWriter, cfg config.AttendanceConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	sections := make(map[string]config.SectionWindow, len(cfg.Sections))
	for _, s := range cfg.Sections {
		sections[s.Code] = s
	}

	if cfg.BypassTime {
		logger.Warn("time window bypass enabled, submissions accepted at any time")
	}

	return &Service{
		roster:     roster,
		attendance: attendanceRepo,
		sections:   sections,
		location:   location,
		bypassTime: cfg.BypassTime,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// Submit runs the validation pipeline and writes exactly one record on
// success. Checks run in order and the first failure wins; nothing is
// written unless every check passes.
func (s *Service) Submit(ctx context.Context, req models.SubmitRequest) (*models.SubmitResponse, error) {
	if req.UID == "" || req.Section == "" {
		return nil, validationErr("uid and section are required")
	}

	if !numericUID.MatchString(req.UID) {
		return nil, validationErr("uid must be numeric")
	}

	window, ok := s.sections[req.Section]
	if !ok {
		return nil, validationErr(fmt.Sprintf("invalid section %q", req.Section))
	}

	now := s.now().In(s.location)
	date := now.Format(dateLayout)

	if !s.bypassTime {
		if now.Weekday() != time.Friday {
			return nil, validationErr("attendance can only be submitted during Friday lab sessions")
		}

		minute := now.Hour()*60 + now.Minute()
		if minute < window.StartHour*60 || minute >= window.EndHour*60 {
			return nil, validationErr(fmt.Sprintf(
				"section %s attendance is only open %02d:00-%02d:00",
				window.Code, window.StartHour, window.EndHour))
		}
	}

	student, err := s.roster.FindByUID(ctx, req.UID)
	if errors.Is(err, mongodb.ErrStudentNotFound) {
		return nil, validationErr("uid not found in course roster")
	}
	if err != nil {
		return nil, fmt.Errorf("roster lookup for %s: %w", req.UID, err)
	}

	if student.Section != req.Section {
		return nil, validationErr(fmt.Sprintf("uid is enrolled in section %s, not %s", student.Section, req.Section))
	}

	record := models.AttendanceRecord{
		UID:       req.UID,
		Date:      date,
		Section:   req.Section,
		Timestamp: now,
	}

	err = s.attendance.Insert(ctx, record)
	if errors.Is(err, mongodb.ErrDuplicateRecord) {
		return nil, ErrAlreadySubmitted
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("attendance recorded",
		zap.String("uid", req.UID),
		zap.String("section", req.Section),
		zap.String("date", date))

	return &models.SubmitResponse{
		Message: "attendance recorded",
		Date:    date,
	}, nil
}
