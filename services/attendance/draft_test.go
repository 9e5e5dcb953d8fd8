package attendance

import (
	"context"
	"errors"
	"testing"
)

type fakeMarker struct {
	calls   int
	lastKey [3]string
	lastRec []MarkRecord
	result  []Record
	err     error

	started chan struct{}
	release chan struct{}
}

func (m *fakeMarker) BulkMark(_ context.Context, classID, section, date string, records []MarkRecord) ([]Record, error) {
	m.calls++
	m.lastKey = [3]string{classID, section, date}
	m.lastRec = records
	if m.started != nil {
		close(m.started)
		<-m.release
	}
	return m.result, m.err
}

func loadedDraft(t *testing.T, user CurrentUser, existing []Record) *Draft {
	t.Helper()
	students, classes := directory()

	d := NewDraft(user)
	gen := d.Select("5", "A", "2026-08-29")
	if d.State() != StateLoading {
		t.Fatalf("expected loading state, got %s", d.State())
	}
	roster := ResolveRoster("5", "A", students, classes)
	if !d.Populate(gen, roster, existing) {
		t.Fatalf("populate rejected a current generation")
	}
	return d
}

func TestDraftPopulateDefaultsToPresent(t *testing.T) {
	d := loadedDraft(t, CurrentUser{ID: "S1", Role: "Staff"}, []Record{
		{ID: "a1", StudentID: "mary", Status: "Late"},
	})

	if d.State() != StateReady {
		t.Fatalf("expected ready state, got %s", d.State())
	}
	entries := d.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		switch e.StudentID {
		case "mary":
			if e.Status != "Late" || e.AttendanceID != "a1" {
				t.Fatalf("existing record not applied: %+v", e)
			}
		default:
			if e.Status != "Present" {
				t.Fatalf("expected default Present for %s, got %s", e.StudentID, e.Status)
			}
		}
	}
}

func TestDraftStalePopulateDiscarded(t *testing.T) {
	students, classes := directory()

	d := NewDraft(CurrentUser{ID: "u1", Role: "Admin"})
	stale := d.Select("5", "A", "2026-08-28")
	fresh := d.Select("5", "B", "2026-08-29")

	if d.Populate(stale, ResolveRoster("5", "A", students, classes), nil) {
		t.Fatalf("stale populate must be discarded")
	}
	if !d.Populate(fresh, ResolveRoster("5", "B", students, classes), nil) {
		t.Fatalf("current populate must apply")
	}
	entries := d.Entries()
	if len(entries) != 1 || entries[0].StudentID != "omar" {
		t.Fatalf("expected section B roster, got %+v", entries)
	}
}

func TestDraftSelectionChangeDiscardsEdits(t *testing.T) {
	d := loadedDraft(t, CurrentUser{ID: "u1", Role: "Admin"}, nil)

	if err := d.SetStatus("john", "Absent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.State() != StateEditing {
		t.Fatalf("expected editing state, got %s", d.State())
	}

	// Switching the date discards unsaved edits without warning.
	d.Select("5", "A", "2026-08-30")
	if d.State() != StateLoading {
		t.Fatalf("expected loading state, got %s", d.State())
	}
	if len(d.Entries()) != 0 {
		t.Fatalf("expected cleared entries")
	}
}

func TestDraftSetStatusRejectsInvalid(t *testing.T) {
	d := loadedDraft(t, CurrentUser{ID: "u1", Role: "Admin"}, nil)

	var vErr *ValidationError
	if err := d.SetStatus("john", "NotAStatus"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := d.SetStatus("stranger", "Present"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for unknown student, got %v", err)
	}
}

func TestDraftSubmitGuards(t *testing.T) {
	students, classes := directory()
	marker := &fakeMarker{}

	t.Run("missing selection", func(t *testing.T) {
		d := NewDraft(CurrentUser{ID: "u1", Role: "Admin"})
		var vErr *ValidationError
		if _, err := d.Submit(context.Background(), marker); !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("roster still loading", func(t *testing.T) {
		// Selection made but Populate has not run; this is a readiness
		// problem, not an authorization verdict.
		d := NewDraft(CurrentUser{ID: "S1", Role: "Staff", StaffID: "S1"})
		d.Select("5", "A", "2026-08-29")

		_, err := d.Submit(context.Background(), marker)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		var aErr *AuthorizationError
		if errors.As(err, &aErr) {
			t.Fatalf("loading draft must not report an authorization failure")
		}
	})

	t.Run("unauthorized staff", func(t *testing.T) {
		d := NewDraft(CurrentUser{ID: "S2", Role: "Staff", StaffID: "S2"})
		gen := d.Select("5", "A", "2026-08-29")
		d.Populate(gen, ResolveRoster("5", "A", students, classes), nil)

		var aErr *AuthorizationError
		if _, err := d.Submit(context.Background(), marker); !errors.As(err, &aErr) {
			t.Fatalf("expected AuthorizationError, got %v", err)
		}
	})

	t.Run("empty roster", func(t *testing.T) {
		d := NewDraft(CurrentUser{ID: "u1", Role: "Admin"})
		gen := d.Select("99", "A", "2026-08-29")
		d.Populate(gen, ResolveRoster("99", "A", students, classes), nil)

		var vErr *ValidationError
		if _, err := d.Submit(context.Background(), marker); !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	if marker.calls != 0 {
		t.Fatalf("guard failures must not reach the marker, got %d calls", marker.calls)
	}
}

func TestDraftSubmitHappyPath(t *testing.T) {
	// Staff S1 is assigned to class 5 section A; John belongs to it.
	classes := []ClassInfo{
		{ID: "5", Name: "Grade 5", Sections: []SectionInfo{{ID: "51", Name: "A", Staff: "S1"}}},
	}
	students := []StudentInfo{
		{ID: "john", FullName: "John", Class: "5", Section: "51"},
	}

	d := NewDraft(CurrentUser{ID: "S1", Role: "Staff"})
	gen := d.Select("5", "A", "2026-08-29")
	if !d.Populate(gen, ResolveRoster("5", "A", students, classes), nil) {
		t.Fatalf("populate rejected")
	}
	if !d.Authorized() {
		t.Fatalf("expected S1 to be authorized")
	}
	entries := d.Entries()
	if len(entries) != 1 || entries[0].Status != "Present" {
		t.Fatalf("expected John defaulted to Present, got %+v", entries)
	}

	if err := d.SetStatus("john", "Absent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	marker := &fakeMarker{result: []Record{{ID: "a77", StudentID: "john", Status: "Absent"}}}
	saved, err := d.Submit(context.Background(), marker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 1 || saved[0].Status != "Absent" {
		t.Fatalf("unexpected response: %+v", saved)
	}
	if marker.lastKey != [3]string{"5", "A", "2026-08-29"} {
		t.Fatalf("unexpected submission key: %v", marker.lastKey)
	}
	if len(marker.lastRec) != 1 || marker.lastRec[0] != (MarkRecord{StudentID: "john", Status: "Absent"}) {
		t.Fatalf("unexpected payload: %+v", marker.lastRec)
	}
	if d.State() != StateReady {
		t.Fatalf("expected ready after submit, got %s", d.State())
	}
	if d.Entries()[0].AttendanceID != "a77" {
		t.Fatalf("attendance id not refreshed from response")
	}
}

func TestDraftSubmitFailureLeavesDraftUnchanged(t *testing.T) {
	d := loadedDraft(t, CurrentUser{ID: "u1", Role: "Admin"}, nil)
	if err := d.SetStatus("john", "Late"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := d.Entries()

	marker := &fakeMarker{err: errors.New("http 500")}
	if _, err := d.Submit(context.Background(), marker); err == nil {
		t.Fatalf("expected submit error")
	}
	if d.State() != StateReady {
		t.Fatalf("expected ready after failure, got %s", d.State())
	}
	after := d.Entries()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("entries changed on failed submit: %+v vs %+v", before[i], after[i])
		}
	}
}

func TestDraftRejectsConcurrentSubmit(t *testing.T) {
	d := loadedDraft(t, CurrentUser{ID: "u1", Role: "Admin"}, nil)

	marker := &fakeMarker{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background(), marker)
		done <- err
	}()
	<-marker.started

	var vErr *ValidationError
	if _, err := d.Submit(context.Background(), marker); !errors.As(err, &vErr) {
		t.Fatalf("expected in-flight submit to be rejected, got %v", err)
	}

	close(marker.release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error from first submit: %v", err)
	}
	if marker.calls != 1 {
		t.Fatalf("expected exactly one bulk call, got %d", marker.calls)
	}
}
