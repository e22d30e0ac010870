package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Admin      AdminConfig
	Attendance AttendanceConfig
	Summary    SummaryConfig
	Sheets     SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AdminConfig is the credential pair guarding the stats endpoint.
type AdminConfig struct {
	User string
	Pass string
}

// SectionWindow describes one lab section and its weekly submission slot.
// The window is half-open: minute StartHour:00 is accepted, EndHour:00 is not.
type SectionWindow struct {
	Code      string
	StartHour int
	EndHour   int
}

// AttendanceConfig drives the submission validator.
type AttendanceConfig struct {
	Timezone   string
	Sections   []SectionWindow
	BypassTime bool
}

// SummaryConfig drives the weekly summary job. An empty WebhookURL disables it.
type SummaryConfig struct {
	WebhookURL   string
	CronSchedule string
}

// SheetsConfig is only needed by rosterctl's sheet import mode.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// defaultSections are the three lab slots of the reference deployment,
// consecutive one-hour windows on Friday.
var defaultSections = []SectionWindow{
	{Code: "0201", StartHour: 10, EndHour: 11},
	{Code: "0202", StartHour: 11, EndHour: 12},
	{Code: "0203", StartHour: 12, EndHour: 13},
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	sections, err := parseSectionWindows(os.Getenv("SECTION_WINDOWS"))
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		sections = defaultSections
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "inst346_attendance"),
		},
		Admin: AdminConfig{
			User: os.Getenv("ADMIN_USER"),
			Pass: os.Getenv("ADMIN_PASS"),
		},
		Attendance: AttendanceConfig{
			Timezone:   getenvWithDefault("TIMEZONE", "America/New_York"),
			Sections:   sections,
			BypassTime: getenvBool("ATTENDANCE_TIME_BYPASS"),
		},
		Summary: SummaryConfig{
			WebhookURL:   os.Getenv("SUMMARY_WEBHOOK_URL"),
			CronSchedule: getenvWithDefault("SUMMARY_CRON", "0 18 * * 5"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ROSTER_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	switch {
	case c.Admin.User == "":
		return errors.New("ADMIN_USER must be provided")
	case c.Admin.Pass == "":
		return errors.New("ADMIN_PASS must be provided")
	}

	if c.Attendance.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if len(c.Attendance.Sections) == 0 {
		return errors.New("at least one section window must be configured")
	}
	for _, s := range c.Attendance.Sections {
		if s.Code == "" {
			return errors.New("section window with empty code")
		}
		if s.StartHour < 0 || s.EndHour > 24 || s.StartHour >= s.EndHour {
			return fmt.Errorf("section %s has invalid window %d-%d", s.Code, s.StartHour, s.EndHour)
		}
	}

	if c.Summary.WebhookURL != "" && c.Summary.CronSchedule == "" {
		return errors.New("SUMMARY_CRON must be provided when SUMMARY_WEBHOOK_URL is set")
	}

	return nil
}

// parseSectionWindows parses "0201=10-11,0202=11-12" into section windows.
// An empty value yields nil so callers can fall back to defaults.
func parseSectionWindows(raw string) ([]SectionWindow, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var sections []SectionWindow
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		code, window, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("malformed SECTION_WINDOWS entry %q", entry)
		}
		startRaw, endRaw, ok := strings.Cut(window, "-")
		if !ok {
			return nil, fmt.Errorf("malformed window in SECTION_WINDOWS entry %q", entry)
		}

		start, err := strconv.Atoi(strings.TrimSpace(startRaw))
		if err != nil {
			return nil, fmt.Errorf("invalid start hour in SECTION_WINDOWS entry %q: %w", entry, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(endRaw))
		if err != nil {
			return nil, fmt.Errorf("invalid end hour in SECTION_WINDOWS entry %q: %w", entry, err)
		}

		sections = append(sections, SectionWindow{
			Code:      strings.TrimSpace(code),
			StartHour: start,
			EndHour:   end,
		})
	}

	return sections, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}
	return value
}
