package attendance

import (
	"errors"
	"testing"
	"time"

	"schoolmgmt_go/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database with the columns the service touches.
// Raw DDL instead of AutoMigrate because the model tags carry MySQL enum types.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{
		`CREATE TABLE sections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
			class_id INTEGER, name TEXT, assigned_staff TEXT)`,
		`CREATE TABLE students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
			class_id INTEGER, section_id INTEGER, section_name TEXT,
			enrolment_state TEXT, full_name TEXT)`,
		`CREATE TABLE attendance_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
			attendance_code TEXT, class_id INTEGER, section TEXT, date DATETIME,
			student_id INTEGER, status TEXT, created_by INTEGER, updated_by INTEGER)`,
		`CREATE UNIQUE INDEX idx_attendance_key
			ON attendance_records (class_id, section, date, student_id)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// seedSectionedClass sets up class 5 with sections A (id 1) and B (id 2),
// students 1 and 2 enrolled in A, student 3 in B, student 4 withdrawn from A.
func seedSectionedClass(t *testing.T, db *gorm.DB) {
	t.Helper()
	seed := []string{
		`INSERT INTO sections (id, class_id, name, assigned_staff) VALUES (1, 5, 'A', '7')`,
		`INSERT INTO sections (id, class_id, name, assigned_staff) VALUES (2, 5, 'B', '8')`,
		`INSERT INTO students (id, class_id, section_id, section_name, enrolment_state, full_name)
			VALUES (1, 5, 1, 'A', 'enrolled', 'John')`,
		`INSERT INTO students (id, class_id, section_id, section_name, enrolment_state, full_name)
			VALUES (2, 5, NULL, 'A', 'enrolled', 'Mary')`,
		`INSERT INTO students (id, class_id, section_id, section_name, enrolment_state, full_name)
			VALUES (3, 5, 2, 'B', 'enrolled', 'Omar')`,
		`INSERT INTO students (id, class_id, section_id, section_name, enrolment_state, full_name)
			VALUES (4, 5, 1, 'A', 'withdrawn', 'Lena')`,
	}
	for _, stmt := range seed {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func loadRecords(t *testing.T, db *gorm.DB) []models.AttendanceRecord {
	t.Helper()
	var records []models.AttendanceRecord
	if err := db.Order("student_id").Find(&records).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	return records
}

func TestBulkUpsertPartialRosterLeavesOtherRowsUntouched(t *testing.T) {
	db := newTestDB(t)
	seedSectionedClass(t, db)
	svc := NewServiceWithDB(db)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	// Full submit first: both students of section A.
	_, err := svc.BulkUpsert(5, "A", day, []MarkRecord{
		{StudentID: "1", Status: models.StatusPresent},
		{StudentID: "2", Status: models.StatusAbsent},
	}, 10)
	if err != nil {
		t.Fatalf("initial upsert: %v", err)
	}

	// Partial submit touching only student 1.
	_, err = svc.BulkUpsert(5, "A", day, []MarkRecord{
		{StudentID: "1", Status: models.StatusLate},
	}, 11)
	if err != nil {
		t.Fatalf("partial upsert: %v", err)
	}

	records := loadRecords(t, db)
	if len(records) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(records))
	}
	if records[0].Status != models.StatusLate || records[0].UpdatedBy != 11 {
		t.Errorf("student 1 not updated: status=%s updated_by=%d", records[0].Status, records[0].UpdatedBy)
	}
	if records[1].Status != models.StatusAbsent || records[1].UpdatedBy != 10 {
		t.Errorf("student 2 should be untouched: status=%s updated_by=%d", records[1].Status, records[1].UpdatedBy)
	}
}

func TestBulkUpsertRejectsStudentsOutsideRoster(t *testing.T) {
	db := newTestDB(t)
	seedSectionedClass(t, db)
	svc := NewServiceWithDB(db)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		studentID string
	}{
		{name: "student of another section", studentID: "3"},
		{name: "withdrawn student", studentID: "4"},
		{name: "unknown student", studentID: "99"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.BulkUpsert(5, "A", day, []MarkRecord{
				{StudentID: "1", Status: models.StatusPresent},
				{StudentID: tc.studentID, Status: models.StatusPresent},
			}, 10)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			// Transaction rolled back: the in-roster student gets no row either.
			if records := loadRecords(t, db); len(records) != 0 {
				t.Fatalf("expected no rows after rejection, got %d", len(records))
			}
		})
	}
}

func TestBulkUpsertNormalizesSectionKey(t *testing.T) {
	db := newTestDB(t)
	seedSectionedClass(t, db)
	svc := NewServiceWithDB(db)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	// Submit by section id, then re-submit by section name: same rows.
	if _, err := svc.BulkUpsert(5, "1", day, []MarkRecord{
		{StudentID: "1", Status: models.StatusPresent},
	}, 10); err != nil {
		t.Fatalf("id-keyed upsert: %v", err)
	}
	if _, err := svc.BulkUpsert(5, "A", day, []MarkRecord{
		{StudentID: "1", Status: models.StatusExcused},
	}, 10); err != nil {
		t.Fatalf("name-keyed upsert: %v", err)
	}

	records := loadRecords(t, db)
	if len(records) != 1 {
		t.Fatalf("expected a single row, got %d", len(records))
	}
	if records[0].Section != "A" || records[0].Status != models.StatusExcused {
		t.Errorf("row = section %q status %q", records[0].Section, records[0].Status)
	}
}

func TestBulkUpsertUnknownSection(t *testing.T) {
	db := newTestDB(t)
	seedSectionedClass(t, db)
	svc := NewServiceWithDB(db)

	_, err := svc.BulkUpsert(5, "Z", time.Now(), []MarkRecord{
		{StudentID: "1", Status: models.StatusPresent},
	}, 10)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
