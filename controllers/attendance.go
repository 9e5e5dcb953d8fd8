package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"schoolmgmt_go/database"
	"schoolmgmt_go/middleware"
	"schoolmgmt_go/models"
	"schoolmgmt_go/services/attendance"
	"schoolmgmt_go/services/report"
	"schoolmgmt_go/utils"

	"github.com/gofiber/fiber/v2"
)

type AttendanceController struct{}

// GetByClassSection returns attendance records for a class/section on a date.
// The section segment accepts either a section id or a section label.
func (ac *AttendanceController) GetByClassSection(c *fiber.Ctx) error {
	classID, err := strconv.ParseUint(c.Params("classId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}
	sectionKey := c.Params("section")
	if sectionKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Section is required",
		})
	}

	date, err := parseDateQuery(c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	svc := attendance.NewService()
	records, err := svc.GetForDate(uint(classID), sectionKey, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch attendance",
		})
	}

	dtos := make([]utils.AttendanceDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, utils.ToAttendanceDTO(&records[i]))
	}

	return c.JSON(fiber.Map{
		"attendance": dtos,
		"date":       date.Format(attendance.DateLayout),
		"total":      len(dtos),
	})
}

// GetRoster resolves the student roster for a class/section selection, merges
// in any records already stored for the date, and reports whether the caller
// is allowed to mark the section.
func (ac *AttendanceController) GetRoster(c *fiber.Ctx) error {
	classKey := c.Query("class_id")
	sectionKey := c.Query("section")
	if classKey == "" || sectionKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "class_id and section are required",
		})
	}

	date, err := parseDateQuery(c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	svc := attendance.NewService()
	classes, err := svc.ClassSnapshots()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load classes",
		})
	}
	students, err := svc.StudentSnapshots()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load students",
		})
	}

	roster := attendance.ResolveRoster(classKey, sectionKey, students, classes)
	canMark := attendance.CanMark(attendance.UserSnapshot(user), roster.Section)

	// Existing records for the date, keyed by student, so the client can show
	// stored statuses instead of the Present default.
	existing := map[string]utils.AttendanceDTO{}
	if roster.Section != nil {
		if cid, convErr := strconv.ParseUint(classKey, 10, 32); convErr == nil {
			records, recErr := svc.GetForDate(uint(cid), sectionKey, date)
			if recErr != nil {
				// Rendering everyone as Present on a read failure would look
				// like an unmarked day; fail instead.
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to load attendance records",
				})
			}
			for i := range records {
				dto := utils.ToAttendanceDTO(&records[i])
				existing[dto.StudentID] = dto
			}
		}
	}

	entries := make([]fiber.Map, 0, len(roster.Students))
	for _, st := range roster.Students {
		entry := fiber.Map{
			"student_id":   st.StudentID,
			"student_name": st.StudentName,
			"status":       models.StatusPresent,
		}
		if dto, ok := existing[st.StudentID]; ok {
			entry["status"] = dto.Status
			entry["attendance_id"] = dto.ID
		}
		entries = append(entries, entry)
	}

	resp := fiber.Map{
		"students": entries,
		"can_mark": canMark,
		"date":     date.Format(attendance.DateLayout),
	}
	if roster.Section != nil {
		resp["section"] = fiber.Map{
			"id":    roster.Section.ID,
			"name":  roster.Section.Name,
			"staff": attendance.ExtractID(roster.Section.Staff),
		}
	}
	return c.JSON(resp)
}

type markRequest struct {
	ClassID string `json:"class_id"`
	Section string `json:"section"`
	Date    string `json:"date"`
	Records []struct {
		StudentID string `json:"student_id"`
		Status    string `json:"status"`
	} `json:"records"`
}

// Mark saves a batch of attendance records for one class/section/date. Staff
// callers must be assigned to the section; Admin and SuperAdmin always pass.
func (ac *AttendanceController) Mark(c *fiber.Ctx) error {
	var req markRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	classID, err := strconv.ParseUint(req.ClassID, 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}
	if req.Section == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Section is required",
		})
	}
	date, err := time.Parse(attendance.DateLayout, req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}
	if len(req.Records) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No students to save",
		})
	}

	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	svc := attendance.NewService()

	// Authorization gate is re-checked server side; the client's own check is
	// advisory only.
	section, err := svc.SectionForKey(uint(classID), req.Section)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve section",
		})
	}
	if section == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Section not found for class",
		})
	}
	sectionInfo := &attendance.SectionInfo{
		ID:    strconv.FormatUint(uint64(section.ID), 10),
		Name:  section.Name,
		Staff: section.AssignedStaff,
	}
	if !attendance.CanMark(attendance.UserSnapshot(user), sectionInfo) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not assigned to this section",
		})
	}

	records := make([]attendance.MarkRecord, 0, len(req.Records))
	for _, r := range req.Records {
		records = append(records, attendance.MarkRecord{
			StudentID: r.StudentID,
			Status:    r.Status,
		})
	}

	saved, err := svc.BulkUpsert(uint(classID), req.Section, date, records, user.ID)
	if err != nil {
		var verr *attendance.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": verr.Message,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save attendance",
		})
	}

	middleware.LogActivity(c, "CREATE", "attendance", uint(classID), fiber.Map{
		"section": section.Name,
		"date":    req.Date,
		"count":   len(saved),
	})

	dtos := make([]utils.AttendanceDTO, 0, len(saved))
	for i := range saved {
		dtos = append(dtos, utils.ToAttendanceDTO(&saved[i]))
	}

	return c.JSON(fiber.Map{
		"message":    "Attendance saved successfully",
		"attendance": dtos,
		"total":      len(dtos),
	})
}

// UpdateRecord changes the status of a single attendance record
func (ac *AttendanceController) UpdateRecord(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attendance ID",
		})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	svc := attendance.NewService()
	rec, err := svc.UpdateStatus(uint(id), req.Status, user.ID)
	if err != nil {
		var verr *attendance.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": verr.Message,
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attendance record not found",
		})
	}

	middleware.LogActivity(c, "UPDATE", "attendance", rec.ID, fiber.Map{
		"status": rec.Status,
	})

	return c.JSON(fiber.Map{
		"message":    "Attendance updated successfully",
		"attendance": utils.ToAttendanceDTO(rec),
	})
}

// DeleteRecord removes a single attendance record
func (ac *AttendanceController) DeleteRecord(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attendance ID",
		})
	}

	svc := attendance.NewService()
	if err := svc.Delete(uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attendance record not found",
		})
	}

	middleware.LogActivity(c, "DELETE", "attendance", uint(id), nil)

	return c.JSON(fiber.Map{
		"message": "Attendance record deleted successfully",
	})
}

// Export streams an xlsx attendance register for a class/section date range
func (ac *AttendanceController) Export(c *fiber.Ctx) error {
	classID, err := strconv.ParseUint(c.Query("class_id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}
	sectionKey := c.Query("section")
	if sectionKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Section is required",
		})
	}

	from, err := parseDateQuery(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid from date, expected YYYY-MM-DD",
		})
	}
	to, err := parseDateQuery(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid to date, expected YYYY-MM-DD",
		})
	}
	if to.Before(from) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to date is before from date",
		})
	}

	file, fileName, err := report.BuildAttendanceRegister(database.GetDB(), uint(classID), sectionKey, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build attendance register",
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	return file.Write(c.Response().BodyWriter())
}

// parseDateQuery parses an optional YYYY-MM-DD query value, defaulting to today.
func parseDateQuery(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(attendance.DateLayout, value)
}
