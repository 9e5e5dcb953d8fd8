package attendance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"schoolmgmt_go/database"
	"schoolmgmt_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the calendar-date format used throughout the attendance API.
const DateLayout = "2006-01-02"

// Service persists attendance records and builds directory snapshots for the
// resolver. It also satisfies Marker, so a Draft can submit straight into the
// local database.
type Service struct {
	db *gorm.DB
}

// NewService creates a service on the global database handle.
func NewService() *Service {
	return &Service{db: database.GetDB()}
}

// NewServiceWithDB creates a service on an explicit handle.
func NewServiceWithDB(db *gorm.DB) *Service {
	return &Service{db: db}
}

// UserSnapshot converts an authenticated account into the core's CurrentUser.
func UserSnapshot(u *models.User) CurrentUser {
	cu := CurrentUser{ID: strconv.FormatUint(uint64(u.ID), 10), Role: u.Role}
	if u.StaffID != nil {
		cu.StaffID = strconv.FormatUint(uint64(*u.StaffID), 10)
	}
	return cu
}

// ClassSnapshots loads every class with its sections as resolver input.
func (s *Service) ClassSnapshots() ([]ClassInfo, error) {
	var classes []models.Class
	if err := s.db.Preload("Sections").Find(&classes).Error; err != nil {
		return nil, err
	}
	out := make([]ClassInfo, 0, len(classes))
	for _, c := range classes {
		ci := ClassInfo{
			ID:   strconv.FormatUint(uint64(c.ID), 10),
			Name: c.ClassName,
		}
		for _, sec := range c.Sections {
			ci.Sections = append(ci.Sections, SectionInfo{
				ID:    strconv.FormatUint(uint64(sec.ID), 10),
				Name:  sec.Name,
				Staff: sec.AssignedStaff,
			})
		}
		out = append(out, ci)
	}
	return out, nil
}

// StudentSnapshots loads the enrolled student directory as resolver input.
func (s *Service) StudentSnapshots() ([]StudentInfo, error) {
	var students []models.Student
	if err := s.db.Where("enrolment_state = ?", "enrolled").Order("id").Find(&students).Error; err != nil {
		return nil, err
	}
	out := make([]StudentInfo, 0, len(students))
	for _, st := range students {
		si := StudentInfo{
			ID:          strconv.FormatUint(uint64(st.ID), 10),
			FullName:    st.FullName,
			SectionName: st.SectionName,
		}
		if st.ClassID != nil {
			si.Class = strconv.FormatUint(uint64(*st.ClassID), 10)
		}
		if st.SectionID != nil {
			si.Section = strconv.FormatUint(uint64(*st.SectionID), 10)
		}
		out = append(out, si)
	}
	return out, nil
}

// SectionForKey resolves a section of a class by id-or-name key, id first.
// Returns nil when nothing matches.
func (s *Service) SectionForKey(classID uint, key string) (*models.Section, error) {
	var sections []models.Section
	if err := s.db.Where("class_id = ?", classID).Order("id").Find(&sections).Error; err != nil {
		return nil, err
	}
	if id, err := strconv.ParseUint(key, 10, 32); err == nil {
		for i := range sections {
			if sections[i].ID == uint(id) {
				return &sections[i], nil
			}
		}
	}
	for i := range sections {
		if sections[i].Name == key {
			return &sections[i], nil
		}
	}
	return nil, nil
}

// GetForDate returns the records stored for (class, section key, date).
func (s *Service) GetForDate(classID uint, sectionKey string, date time.Time) ([]models.AttendanceRecord, error) {
	section, err := s.SectionForKey(classID, sectionKey)
	if err != nil {
		return nil, err
	}
	name := sectionKey
	if section != nil {
		name = section.Name
	}
	var records []models.AttendanceRecord
	err = s.db.Preload("Student").
		Where("class_id = ? AND section = ? AND date = ?", classID, name, date.Format(DateLayout)).
		Order("student_id").
		Find(&records).Error
	return records, err
}

// rosterStudentIDs returns the ids of enrolled students belonging to the
// section, by section reference or by denormalized section name.
func rosterStudentIDs(tx *gorm.DB, classID uint, section *models.Section) (map[uint]struct{}, error) {
	var ids []uint
	err := tx.Model(&models.Student{}).
		Where("class_id = ? AND (section_id = ? OR section_name = ?) AND enrolment_state = ?",
			classID, section.ID, section.Name, "enrolled").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	members := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	return members, nil
}

// BulkUpsert writes one record per (class, section, date, student) pair,
// updating rows that already exist. The section key is normalized to the
// section's label before storage so id- and name-keyed submissions land on
// the same rows. Every student in the batch must belong to the section's
// roster; the client cannot be trusted to enforce that. The whole batch runs
// in one transaction; students absent from the batch keep their previously
// stored statuses.
func (s *Service) BulkUpsert(classID uint, sectionKey string, date time.Time, records []MarkRecord, actorID uint) ([]models.AttendanceRecord, error) {
	if len(records) == 0 {
		return nil, &ValidationError{Title: "Empty", Message: "No records to save"}
	}

	section, err := s.SectionForKey(classID, sectionKey)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, &ValidationError{Title: "Unknown section", Message: "Section not found for class"}
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	saved := make([]models.AttendanceRecord, 0, len(records))

	err = s.db.Transaction(func(tx *gorm.DB) error {
		members, memberErr := rosterStudentIDs(tx, classID, section)
		if memberErr != nil {
			return memberErr
		}
		for _, r := range records {
			if !ValidStatus(r.Status) {
				return &ValidationError{Title: "Invalid", Message: "Invalid attendance status: " + r.Status}
			}
			studentID, convErr := strconv.ParseUint(r.StudentID, 10, 32)
			if convErr != nil {
				return &ValidationError{Title: "Invalid", Message: "Invalid student id: " + r.StudentID}
			}
			if _, ok := members[uint(studentID)]; !ok {
				return &ValidationError{Title: "Not in roster", Message: "Student " + r.StudentID + " is not in the selected section"}
			}

			var rec models.AttendanceRecord
			findErr := tx.Where("class_id = ? AND section = ? AND date = ? AND student_id = ?",
				classID, section.Name, day, uint(studentID)).First(&rec).Error
			switch {
			case findErr == nil:
				rec.Status = r.Status
				rec.UpdatedBy = actorID
				if saveErr := tx.Save(&rec).Error; saveErr != nil {
					return saveErr
				}
			case errors.Is(findErr, gorm.ErrRecordNotFound):
				rec = models.AttendanceRecord{
					AttendanceCode: "ATT-" + uuid.New().String()[:8],
					ClassID:        classID,
					Section:        section.Name,
					Date:           day,
					StudentID:      uint(studentID),
					Status:         r.Status,
					CreatedBy:      actorID,
					UpdatedBy:      actorID,
				}
				if createErr := tx.Create(&rec).Error; createErr != nil {
					return createErr
				}
			default:
				return findErr
			}
			saved = append(saved, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateStatus changes a single record's status.
func (s *Service) UpdateStatus(id uint, status string, actorID uint) (*models.AttendanceRecord, error) {
	if !ValidStatus(status) {
		return nil, &ValidationError{Title: "Invalid", Message: "Invalid attendance status: " + status}
	}
	var rec models.AttendanceRecord
	if err := s.db.First(&rec, id).Error; err != nil {
		return nil, err
	}
	rec.Status = status
	rec.UpdatedBy = actorID
	if err := s.db.Save(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a single record.
func (s *Service) Delete(id uint) error {
	var rec models.AttendanceRecord
	if err := s.db.First(&rec, id).Error; err != nil {
		return err
	}
	return s.db.Delete(&rec).Error
}

// BulkMark implements Marker over the local database so drafts can submit
// without an HTTP round trip.
func (s *Service) BulkMark(ctx context.Context, classID, sectionKey, date string, records []MarkRecord) ([]Record, error) {
	cid, err := strconv.ParseUint(classID, 10, 32)
	if err != nil {
		return nil, &ValidationError{Title: "Invalid", Message: "Invalid class id: " + classID}
	}
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, &ValidationError{Title: "Invalid", Message: "Invalid date: " + date}
	}
	saved, err := s.BulkUpsert(uint(cid), sectionKey, day, records, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(saved))
	for i, rec := range saved {
		out[i] = Record{
			ID:        fmt.Sprintf("%d", rec.ID),
			StudentID: fmt.Sprintf("%d", rec.StudentID),
			Status:    rec.Status,
		}
	}
	return out, nil
}
