package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/repository/mongodb"
	"github.com/inst346/attendance/internal/repository/sheets"
	"github.com/inst346/attendance/internal/service/roster"
	"github.com/inst346/attendance/pkg/logger"
)

// rosterctl is the operational companion to the attendance server: it loads
// the roster from the registrar CSV export or the staff Google Sheet, and
// seeds or purges attendance data for testing.
func main() {
	var (
		csvPath    = flag.String("csv", "", "path to the registrar roster CSV export")
		emailsPath = flag.String("emails", "", "path to the headerless name,email roster CSV")
		sheetRange = flag.String("sheet", "", "Google Sheets range to read the roster from, e.g. 'Roster!A2:E'")
		jsonPath   = flag.String("json", "", "write parsed roster to this JSON file instead of uploading")
		upload     = flag.Bool("upload", false, "upsert the parsed roster into MongoDB")
		seedDates  = flag.String("seed", "", "comma-separated dates (YYYY-MM-DD) to seed with random attendance")
		purge      = flag.Bool("purge", false, "delete ALL attendance records")
	)
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	ctx := context.Background()

	switch {
	case *csvPath != "" || *sheetRange != "":
		runImport(ctx, cfg, baseLogger, *csvPath, *emailsPath, *sheetRange, *jsonPath, *upload)
	case *seedDates != "":
		runSeed(ctx, cfg, baseLogger, strings.Split(*seedDates, ","))
	case *purge:
		runPurge(ctx, cfg, baseLogger)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runImport(ctx context.Context, cfg *config.Config, log *zap.Logger, csvPath, emailsPath, sheetRange, jsonPath string, upload bool) {
	codes := make([]string, 0, len(cfg.Attendance.Sections))
	for _, s := range cfg.Attendance.Sections {
		codes = append(codes, s.Code)
	}
	importer := roster.NewImporter(codes, log.Named("importer"))

	emails := map[string]string{}
	if emailsPath != "" {
		f, err := os.Open(emailsPath)
		if err != nil {
			log.Fatal("open email roster", zap.Error(err))
		}
		emails, err = importer.ParseEmailRoster(f)
		f.Close()
		if err != nil {
			log.Fatal("parse email roster", zap.Error(err))
		}
		fmt.Printf("loaded %d emails from email roster\n", len(emails))
	}

	var result *roster.ParseResult
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			log.Fatal("open roster csv", zap.Error(err))
		}
		result, err = importer.ParseRoster(f, emails)
		f.Close()
		if err != nil {
			log.Fatal("parse roster csv", zap.Error(err))
		}
	} else {
		sheetRepo, err := sheets.NewRosterSheetRepository(ctx, cfg.Sheets, log.Named("repo.sheets"))
		if err != nil {
			log.Fatal("init sheets repository", zap.Error(err))
		}
		rows, err := sheetRepo.ReadRange(ctx, sheetRange)
		if err != nil {
			log.Fatal("read roster sheet", zap.Error(err))
		}
		result = importer.FromSheetRows(rows, emails)
	}

	if len(result.Errors) > 0 {
		fmt.Println("errors found, aborting:")
		for _, e := range result.Errors {
			fmt.Println(" ", e)
		}
		os.Exit(1)
	}

	fmt.Printf("parsed %d students\n", len(result.Students))
	counts := roster.SectionCounts(result.Students)
	sections := make([]string, 0, len(counts))
	for sec := range counts {
		sections = append(sections, sec)
	}
	sort.Strings(sections)
	for _, sec := range sections {
		fmt.Printf("  section %s: %d students\n", sec, counts[sec])
	}
	if len(result.MissingEmails) > 0 {
		fmt.Println("missing emails:")
		for _, m := range result.MissingEmails {
			fmt.Println(" ", m)
		}
	}

	switch {
	case jsonPath != "":
		data, err := json.MarshalIndent(result.Students, "", "  ")
		if err != nil {
			log.Fatal("marshal roster", zap.Error(err))
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			log.Fatal("write roster json", zap.Error(err))
		}
		fmt.Printf("wrote %d students to %s\n", len(result.Students), jsonPath)
	case upload:
		store := mustStore(ctx, cfg, log)
		defer store.Close(ctx)

		res, err := store.Roster().BulkUpsert(ctx, result.Students)
		if err != nil {
			log.Fatal("upsert roster", zap.Error(err))
		}
		fmt.Printf("matched: %d, upserted: %d, modified: %d\n", res.Matched, res.Upserted, res.Modified)
	default:
		fmt.Println("dry run: pass -json out.json to preview or -upload to write to MongoDB")
	}
}

// runSeed inserts randomized attendance for the given dates, taking a random
// 70-95% sample of each section's roster per date. Duplicate records from
// earlier runs are skipped.
func runSeed(ctx context.Context, cfg *config.Config, log *zap.Logger, dates []string) {
	store := mustStore(ctx, cfg, log)
	defer store.Close(ctx)

	students, err := store.Roster().ListAll(ctx)
	if err != nil {
		log.Fatal("load roster", zap.Error(err))
	}

	bySection := make(map[string][]models.Student)
	for _, s := range students {
		bySection[s.Section] = append(bySection[s.Section], s)
	}

	for _, date := range dates {
		date = strings.TrimSpace(date)
		if _, err := time.Parse("2006-01-02", date); err != nil {
			log.Fatal("invalid seed date", zap.String("date", date), zap.Error(err))
		}

		inserted := 0
		for sec, pool := range bySection {
			count := len(pool) * (70 + rand.Intn(26)) / 100
			for _, idx := range rand.Perm(len(pool))[:count] {
				record := models.AttendanceRecord{
					UID:       pool[idx].UID,
					Date:      date,
					Section:   sec,
					Timestamp: time.Now(),
				}
				err := store.Attendance().Insert(ctx, record)
				if errors.Is(err, mongodb.ErrDuplicateRecord) {
					continue
				}
				if err != nil {
					log.Fatal("insert attendance", zap.Error(err))
				}
				inserted++
			}
		}
		fmt.Printf("%s: inserted %d records\n", date, inserted)
	}
}

func runPurge(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	store := mustStore(ctx, cfg, log)
	defer store.Close(ctx)

	deleted, err := store.Attendance().DeleteAll(ctx)
	if err != nil {
		log.Fatal("purge attendance", zap.Error(err))
	}
	fmt.Printf("deleted %d attendance records\n", deleted)
}

func mustStore(ctx context.Context, cfg *config.Config, log *zap.Logger) *mongodb.Store {
	store, err := mongodb.NewStore(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		log.Fatal("init mongodb store", zap.Error(err))
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal("ensure indexes", zap.Error(err))
	}
	return store
}
