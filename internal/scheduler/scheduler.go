package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/service/stats"
	"github.com/inst346/attendance/pkg/clients/webhook"
)

// Scheduler posts a turnout summary to the staff webhook after each lab day.
type Scheduler struct {
	cron     *cron.Cron
	statsSvc *stats.Service
	notifier webhook.Client
	cfg      config.SummaryConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. Cron fires in the lab
// timezone so the schedule tracks the section windows, not the host clock.
func NewScheduler(cfg config.SummaryConfig, location *time.Location, statsSvc *stats.Service, notifier webhook.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithLocation(location))

	return &Scheduler{
		cron:     c,
		statsSvc: statsSvc,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.postWeeklySummary)
	if err != nil {
		s.logger.Error("failed to schedule weekly summary", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) postWeeklySummary() {
	s.logger.Info("building weekly summary")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.statsSvc.BuildReport(ctx)
	if err != nil {
		s.logger.Error("failed to build weekly summary", zap.Error(err))
		return
	}

	if len(report.Dates) == 0 {
		s.logger.Info("no attendance recorded yet, skipping summary")
		return
	}

	summary := buildSummary(report.Dates[len(report.Dates)-1], report.Sections, report.RosterTotals)

	if err := s.notifier.PostSummary(ctx, summary); err != nil {
		s.logger.Error("failed to post weekly summary", zap.Error(err))
		return
	}

	s.logger.Info("weekly summary posted", zap.String("date", summary.Date))
}

func buildSummary(date string, counts map[string][]int, totals map[string]int) webhook.WeeklySummary {
	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	summary := webhook.WeeklySummary{Date: date}
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		present := 0
		if series := counts[code]; len(series) > 0 {
			present = series[len(series)-1]
		}
		summary.Sections = append(summary.Sections, webhook.SectionSummary{
			Code:    code,
			Present: present,
			Roster:  totals[code],
		})
		parts = append(parts, fmt.Sprintf("%s %d/%d", code, present, totals[code]))
	}

	summary.Text = fmt.Sprintf("Lab attendance %s: %s", date, strings.Join(parts, ", "))
	return summary
}
