package utils

import (
	"strconv"
	"time"

	"schoolmgmt_go/models"
)

// Compact representations used across APIs

// UserDTO is the current-user shape the console consumes: id, fullName, role
// and the optional linked staff id, all identifiers as strings.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	StaffID  string `json:"staffId,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ToUserDTO maps a models.User to the compact DTO.
func ToUserDTO(u *models.User) UserDTO {
	dto := UserDTO{
		ID:       strconv.FormatUint(uint64(u.ID), 10),
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Avatar:   u.Avatar,
		Status:   u.Status,
	}
	if u.StaffID != nil {
		dto.StaffID = strconv.FormatUint(uint64(*u.StaffID), 10)
	}
	if dto.FullName == "" {
		dto.FullName = u.Username
	}
	return dto
}

// SectionDTO mirrors the wire shape of one section inside a class payload.
type SectionDTO struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Staff string `json:"staff,omitempty"`
}

// ClassDTO mirrors the wire shape of a class with embedded sections.
type ClassDTO struct {
	ID        string       `json:"id"`
	ClassCode string       `json:"classCode,omitempty"`
	ClassName string       `json:"className"`
	Sections  []SectionDTO `json:"sections"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ToClassDTO maps a class and its sections.
func ToClassDTO(c *models.Class) ClassDTO {
	dto := ClassDTO{
		ID:        strconv.FormatUint(uint64(c.ID), 10),
		ClassCode: c.ClassCode,
		ClassName: c.ClassName,
		Sections:  make([]SectionDTO, 0, len(c.Sections)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, s := range c.Sections {
		dto.Sections = append(dto.Sections, SectionDTO{
			ID:    strconv.FormatUint(uint64(s.ID), 10),
			Name:  s.Name,
			Staff: s.AssignedStaff,
		})
	}
	return dto
}

// AttendanceDTO mirrors one persisted attendance record on the wire.
type AttendanceDTO struct {
	ID             string    `json:"id"`
	AttendanceCode string    `json:"attendanceCode"`
	StudentID      string    `json:"studentId"`
	StudentName    string    `json:"studentName,omitempty"`
	ClassID        string    `json:"classId"`
	Section        string    `json:"section"`
	Date           string    `json:"date"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToAttendanceDTO maps a record; the student name is filled when preloaded.
func ToAttendanceDTO(r *models.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		ID:             strconv.FormatUint(uint64(r.ID), 10),
		AttendanceCode: r.AttendanceCode,
		StudentID:      strconv.FormatUint(uint64(r.StudentID), 10),
		StudentName:    r.Student.FullName,
		ClassID:        strconv.FormatUint(uint64(r.ClassID), 10),
		Section:        r.Section,
		Date:           r.Date.Format("2006-01-02"),
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
