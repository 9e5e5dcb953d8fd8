package attendance

import (
	"context"
	"sync"
)

// Draft states. Changing class, section or date from any state discards
// unsaved edits and returns to Loading (or Empty when the selection is
// incomplete); there is no autosave.
type State string

const (
	StateEmpty      State = "empty"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
)

// Statuses a draft entry may hold.
var validStatuses = map[string]struct{}{
	"Present":  {},
	"Absent":   {},
	"Late":     {},
	"Excused":  {},
	"Half Day": {},
}

// ValidStatus reports whether s belongs to the closed status set.
func ValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

// Entry is one student's row in the draft ledger.
type Entry struct {
	StudentID    string
	StudentName  string
	Status       string
	AttendanceID string // set when a persisted record already exists for the key
}

// Record is a persisted attendance record as returned by the backend.
type Record struct {
	ID        string
	StudentID string
	Status    string
}

// MarkRecord is one student/status pair in a bulk submission.
type MarkRecord struct {
	StudentID string
	Status    string
}

// Marker performs the bulk write: one call carrying the whole draft, upserted
// per (class, section, date, student). Records for students absent from the
// submission are left untouched.
type Marker interface {
	BulkMark(ctx context.Context, classID, section, date string, records []MarkRecord) ([]Record, error)
}

// Draft is the in-memory attendance ledger for one editing session. It owns
// its entries exclusively; the whole draft is the unit of submission.
type Draft struct {
	mu sync.Mutex

	user       CurrentUser
	state      State
	classID    string
	sectionKey string
	date       string
	section    *SectionInfo
	authorized bool
	entries    []Entry

	// generation guards against stale resolution results: a Populate carrying
	// an older generation is silently discarded.
	generation uint64
}

// NewDraft creates an empty draft for the acting user.
func NewDraft(user CurrentUser) *Draft {
	return &Draft{user: user, state: StateEmpty}
}

// Select records a new class/section/date selection. Unsaved edits are
// discarded without warning. Returns the generation token the caller must
// pass back to Populate so a superseded fetch cannot overwrite a newer
// selection.
func (d *Draft) Select(classID, sectionKey, date string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	d.classID = classID
	d.sectionKey = sectionKey
	d.date = date
	d.entries = nil
	d.section = nil
	d.authorized = false

	if classID == "" || sectionKey == "" || date == "" {
		d.state = StateEmpty
	} else {
		d.state = StateLoading
	}
	return d.generation
}

// Populate installs a resolved roster and any existing records for the
// selection identified by gen. Stale results (gen older than the current
// selection) are dropped and false is returned. Every resolved student gets a
// row; status defaults to Present unless an existing record supplies one.
// Authorization is re-evaluated here, never cached across selections.
func (d *Draft) Populate(gen uint64, roster Roster, existing []Record) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation || d.state != StateLoading {
		return false
	}

	d.section = roster.Section
	d.authorized = CanMark(d.user, roster.Section)

	byStudent := make(map[string]Record, len(existing))
	for _, r := range existing {
		byStudent[r.StudentID] = r
	}

	d.entries = make([]Entry, 0, len(roster.Students))
	for _, st := range roster.Students {
		e := Entry{StudentID: st.StudentID, StudentName: st.StudentName, Status: "Present"}
		if prev, ok := byStudent[st.StudentID]; ok {
			if ValidStatus(prev.Status) {
				e.Status = prev.Status
			}
			e.AttendanceID = prev.ID
		}
		d.entries = append(d.entries, e)
	}
	d.state = StateReady
	return true
}

// SetStatus changes one student's status. Editing one row never affects
// another. Fails when the draft is not editable or the status is outside the
// closed set.
func (d *Draft) SetStatus(studentID, status string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateReady && d.state != StateEditing {
		return &ValidationError{Title: "Not ready", Message: "No roster loaded"}
	}
	if !ValidStatus(status) {
		return &ValidationError{Title: "Invalid", Message: "Invalid attendance status: " + status}
	}
	for i := range d.entries {
		if d.entries[i].StudentID == studentID {
			d.entries[i].Status = status
			d.state = StateEditing
			return nil
		}
	}
	return &ValidationError{Title: "Unknown student", Message: "Student is not on the resolved roster"}
}

// State returns the current draft state.
func (d *Draft) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Entries returns a copy of the current ledger rows.
func (d *Draft) Entries() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Authorized reports the last authorization verdict for the selection.
func (d *Draft) Authorized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authorized
}

// Submit validates the ledger and performs the bulk write through m. On
// success the entries' attendance ids are refreshed from the response and the
// draft returns to Ready. On failure the draft returns to Ready unmodified so
// the user can retry unchanged; the caller cannot assume any subset was
// persisted. Guard failures block the network call entirely.
func (d *Draft) Submit(ctx context.Context, m Marker) ([]Record, error) {
	d.mu.Lock()
	if d.state == StateSubmitting {
		d.mu.Unlock()
		return nil, &ValidationError{Title: "Busy", Message: "A submission is already in flight"}
	}
	if d.classID == "" || d.sectionKey == "" {
		d.mu.Unlock()
		return nil, &ValidationError{Title: "Missing", Message: "Select class & section"}
	}
	if d.state == StateLoading {
		// Roster not populated yet; authorization has no verdict to give.
		d.mu.Unlock()
		return nil, &ValidationError{Title: "Not ready", Message: "Roster is still loading"}
	}
	if !d.authorized {
		d.mu.Unlock()
		return nil, &AuthorizationError{Message: "You are not assigned to this section"}
	}
	if len(d.entries) == 0 {
		d.mu.Unlock()
		return nil, &ValidationError{Title: "Empty", Message: "No students to save"}
	}

	gen := d.generation
	classID, sectionKey, date := d.classID, d.sectionKey, d.date
	records := make([]MarkRecord, len(d.entries))
	for i, e := range d.entries {
		records[i] = MarkRecord{StudentID: e.StudentID, Status: e.Status}
	}
	d.state = StateSubmitting
	d.mu.Unlock()

	saved, err := m.BulkMark(ctx, classID, sectionKey, date, records)

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		// Selection changed while the call was in flight; the new selection
		// owns the draft now.
		return saved, err
	}
	d.state = StateReady
	if err != nil {
		return nil, err
	}

	byStudent := make(map[string]Record, len(saved))
	for _, r := range saved {
		byStudent[r.StudentID] = r
	}
	for i := range d.entries {
		if r, ok := byStudent[d.entries[i].StudentID]; ok {
			d.entries[i].AttendanceID = r.ID
		}
	}
	return saved, nil
}
