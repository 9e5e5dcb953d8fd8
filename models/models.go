package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Roles recognized by the API. SuperAdmin and Admin are privileged everywhere;
// Staff users are gated per section assignment when marking attendance.
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"
	RoleStaff      = "Staff"
	RoleStudent    = "Student"
)

// Attendance statuses (closed set)
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
	StatusExcused = "Excused"
	StatusHalfDay = "Half Day"
)

// User model
type User struct {
	BaseModel
	Username             string     `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password             string     `json:"-" gorm:"size:255;not null"`
	Email                string     `json:"email" gorm:"size:255;uniqueIndex"`
	Phone                string     `json:"phone" gorm:"size:20"`
	FullName             string     `json:"full_name" gorm:"size:200"`
	Role                 string     `json:"role" gorm:"size:50;not null;default:'Staff';type:enum('SuperAdmin','Admin','Staff','Student')"`
	Status               string     `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"`
	Avatar               string     `json:"avatar" gorm:"size:500"`
	StaffID              *uint      `json:"staff_id"` // links the account to a Staff profile when set
	PasswordResetToken   string     `json:"-" gorm:"size:255"`
	PasswordResetExpires *time.Time `json:"-"`
	PasswordResetByAdmin bool       `json:"-" gorm:"default:false"`

	// Relationships
	Staff *Staff `json:"staff,omitempty" gorm:"foreignKey:StaffID"`
}

// Staff model
type Staff struct {
	BaseModel
	StaffCode     string `json:"staff_code" gorm:"size:50;not null;uniqueIndex"`
	FullName      string `json:"full_name" gorm:"size:200;not null"`
	Email         string `json:"email" gorm:"size:255"`
	Phone         string `json:"phone" gorm:"size:20"`
	Designation   string `json:"designation" gorm:"size:100"`
	Qualification string `json:"qualification" gorm:"size:200"`
	Photo         string `json:"photo" gorm:"size:500"`
	Documents     JSON   `json:"documents" gorm:"type:json"`
	UserID        *uint  `json:"user_id" gorm:"uniqueIndex"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Class model. Sections are embedded in every class payload.
type Class struct {
	BaseModel
	ClassCode string `json:"class_code" gorm:"size:50;uniqueIndex"`
	ClassName string `json:"class_name" gorm:"size:100;not null"`
	CreatedBy uint   `json:"created_by"`
	UpdatedBy uint   `json:"updated_by"`

	// Relationships
	Sections []Section `json:"sections" gorm:"foreignKey:ClassID"`
}

// Section model. Name is the public label and is unique per class only by
// convention. AssignedStaff is stored as text: historical rows carry either a
// staff id or a user id, so consumers must compare against both (see
// services/attendance).
type Section struct {
	BaseModel
	ClassID       uint   `json:"class_id" gorm:"not null;index"`
	Name          string `json:"name" gorm:"size:50;not null"`
	AssignedStaff string `json:"staff" gorm:"size:100"`

	// Relationships
	Class Class `json:"-" gorm:"foreignKey:ClassID"`
}

// Student model. ClassID/SectionID are the canonical references; SectionName is
// a denormalized label kept because transitional rows reference sections by
// name only.
type Student struct {
	BaseModel
	StudentCode    string     `json:"student_code" gorm:"size:50;uniqueIndex"`
	AdmissionNo    string     `json:"admission_no" gorm:"size:50"`
	RollNumber     string     `json:"roll_number" gorm:"size:50"`
	FullName       string     `json:"full_name" gorm:"size:200;not null"`
	Email          string     `json:"email" gorm:"size:255"`
	Mobile         string     `json:"mobile" gorm:"size:20"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         string     `json:"gender" gorm:"size:20"`
	BloodGroup     string     `json:"blood_group" gorm:"size:10"`
	Nationality    string     `json:"nationality" gorm:"size:100"`
	FatherName     string     `json:"father_name" gorm:"size:200"`
	FatherMobile   string     `json:"father_mobile" gorm:"size:20"`
	MotherName     string     `json:"mother_name" gorm:"size:200"`
	MotherMobile   string     `json:"mother_mobile" gorm:"size:20"`
	GuardianName   string     `json:"guardian_name" gorm:"size:200"`
	GuardianMobile string     `json:"guardian_mobile" gorm:"size:20"`
	CurrentCity    string     `json:"current_city" gorm:"size:100"`
	CurrentState   string     `json:"current_state" gorm:"size:100"`
	CurrentPin     string     `json:"current_pin" gorm:"size:20"`
	ClassID        *uint      `json:"class" gorm:"index"`
	SectionID      *uint      `json:"section" gorm:"index"`
	SectionName    string     `json:"section_name" gorm:"size:50"`
	Photo          string     `json:"photo" gorm:"size:500"`
	Documents      JSON       `json:"documents" gorm:"type:json"`
	EnrolmentState string     `json:"enrolment_status" gorm:"size:50;default:'enrolled';type:enum('enrolled','transferred','withdrawn')"`

	// Relationships
	Class *Class `json:"class_ref,omitempty" gorm:"foreignKey:ClassID"`
}

// AttendanceRecord model. Upsert key is (class, section, date, student);
// Section stores the key the client submitted, which is the section label.
type AttendanceRecord struct {
	BaseModel
	AttendanceCode string    `json:"attendance_code" gorm:"size:50;uniqueIndex"`
	ClassID        uint      `json:"class_id" gorm:"not null;uniqueIndex:idx_attendance_key"`
	Section        string    `json:"section" gorm:"size:50;not null;uniqueIndex:idx_attendance_key"`
	Date           time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_attendance_key"`
	StudentID      uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_key"`
	Status         string    `json:"status" gorm:"size:20;not null;type:enum('Present','Absent','Late','Excused','Half Day')"`
	CreatedBy      uint      `json:"created_by"`
	UpdatedBy      uint      `json:"updated_by"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Class   Class   `json:"-" gorm:"foreignKey:ClassID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"`
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"`
	Error       string    `json:"error" gorm:"type:text"`
}
