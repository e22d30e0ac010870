package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/domain/models"
)

// Importer converts roster exports into students ready for upsert.
//
// The registrar CSV export has headers that are misaligned with the actual
// data, so columns are addressed positionally: name in column 0, uid in
// column 3, section in column 4 (formatted "COURSE-XXXX"). Emails live in a
// separate headerless name,email export and are merged by normalized name.
type Importer struct {
	sections map[string]struct{}
	logger   *zap.Logger
}

// ParseResult carries the parsed students plus everything worth reporting
// back to the operator.
type ParseResult struct {
	Students      []models.Student
	Errors        []string
	MissingEmails []string
}

// NewImporter builds an importer accepting only the configured section codes.
func NewImporter(sectionCodes []string, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}

	sections := make(map[string]struct{}, len(sectionCodes))
	for _, code := range sectionCodes {
		sections[code] = struct{}{}
	}

	return &Importer{sections: sections, logger: logger}
}

// ParseEmailRoster reads the headerless name,email export into a lookup map
// keyed by normalized name.
func (i *Importer) ParseEmailRoster(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	emails := make(map[string]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read email roster: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		emails[normalizeName(row[0])] = strings.TrimSpace(row[1])
	}

	return emails, nil
}

// ParseRoster reads the registrar CSV export. The first row is the
// (misaligned) header and is skipped. Rows that fail validation are reported
// in the result rather than aborting the parse.
func (i *Importer) ParseRoster(r io.Reader, emails map[string]string) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return &ParseResult{}, nil
		}
		return nil, fmt.Errorf("read roster header: %w", err)
	}

	result := &ParseResult{}
	seen := make(map[string]int)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row: %w", err)
		}
		line++

		student, rowErr := i.convertRow(row, emails, line)
		if rowErr != "" {
			result.Errors = append(result.Errors, rowErr)
			continue
		}

		if prev, dup := seen[student.UID]; dup {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: duplicate uid %s (first seen on line %d)", line, student.UID, prev))
			continue
		}
		seen[student.UID] = line

		if student.Email == "" {
			result.MissingEmails = append(result.MissingEmails,
				fmt.Sprintf("line %d: no email found for %q", line, student.Name))
		}

		result.Students = append(result.Students, student)
	}

	i.logger.Info("roster parsed",
		zap.Int("students", len(result.Students)),
		zap.Int("errors", len(result.Errors)),
		zap.Int("missing_emails", len(result.MissingEmails)))

	return result, nil
}

// FromSheetRows converts rows read from the staff-maintained Google Sheet,
// which uses the same column layout as the CSV export minus the header row.
func (i *Importer) FromSheetRows(rows [][]interface{}, emails map[string]string) *ParseResult {
	result := &ParseResult{}
	seen := make(map[string]int)
	for idx, raw := range rows {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprint(cell)
		}

		student, rowErr := i.convertRow(row, emails, idx+1)
		if rowErr != "" {
			result.Errors = append(result.Errors, rowErr)
			continue
		}

		if prev, dup := seen[student.UID]; dup {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: duplicate uid %s (first seen on row %d)", idx+1, student.UID, prev))
			continue
		}
		seen[student.UID] = idx + 1

		if student.Email == "" {
			result.MissingEmails = append(result.MissingEmails,
				fmt.Sprintf("row %d: no email found for %q", idx+1, student.Name))
		}

		result.Students = append(result.Students, student)
	}

	return result
}

// SectionCounts tallies students per section for the operator summary.
func SectionCounts(students []models.Student) map[string]int {
	counts := make(map[string]int)
	for _, s := range students {
		counts[s.Section]++
	}
	return counts
}

func (i *Importer) convertRow(row []string, emails map[string]string, line int) (models.Student, string) {
	if len(row) < 5 {
		return models.Student{}, fmt.Sprintf("line %d: expected 5 columns, got %d", line, len(row))
	}

	name := strings.TrimSpace(row[0])
	uid := strings.TrimSpace(row[3])
	rawSection := strings.TrimSpace(row[4])

	if uid == "" || !isDigits(uid) {
		return models.Student{}, fmt.Sprintf("line %d: invalid uid %q for %q", line, uid, name)
	}

	_, section, ok := strings.Cut(rawSection, "-")
	if !ok {
		return models.Student{}, fmt.Sprintf("line %d: unexpected section format %q for %q", line, rawSection, name)
	}

	if _, valid := i.sections[section]; !valid {
		return models.Student{}, fmt.Sprintf("line %d: unknown section %q for %q", line, section, name)
	}

	return models.Student{
		UID:     uid,
		Name:    name,
		Section: section,
		Email:   emails[normalizeName(name)],
	}, ""
}

// normalizeName lowercases and collapses whitespace so the two exports'
// spellings of the same name match.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
