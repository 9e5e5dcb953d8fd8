// Package report builds downloadable attendance reports.
package report

import (
	"fmt"
	"time"

	"schoolmgmt_go/models"
	"schoolmgmt_go/services/attendance"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// statusAbbrev maps stored statuses to register cell labels.
var statusAbbrev = map[string]string{
	models.StatusPresent: "P",
	models.StatusAbsent:  "A",
	models.StatusLate:    "L",
	models.StatusExcused: "E",
	models.StatusHalfDay: "H",
}

// BuildAttendanceRegister produces an xlsx register for one class/section over
// a date range: one row per student, one column per day, stored statuses
// abbreviated and missing days left blank. Returns the workbook and a
// suggested file name.
func BuildAttendanceRegister(db *gorm.DB, classID uint, sectionKey string, from, to time.Time) (*excelize.File, string, error) {
	svc := attendance.NewServiceWithDB(db)
	section, err := svc.SectionForKey(classID, sectionKey)
	if err != nil {
		return nil, "", err
	}
	if section == nil {
		return nil, "", fmt.Errorf("section %q not found for class %d", sectionKey, classID)
	}

	var class models.Class
	if err := db.First(&class, classID).Error; err != nil {
		return nil, "", err
	}

	var students []models.Student
	if err := db.Where("class_id = ? AND (section_id = ? OR section_name = ?) AND enrolment_state = ?",
		classID, section.ID, section.Name, "enrolled").
		Order("id").Find(&students).Error; err != nil {
		return nil, "", err
	}

	var records []models.AttendanceRecord
	if err := db.Where("class_id = ? AND section = ? AND date BETWEEN ? AND ?",
		classID, section.Name, from.Format(attendance.DateLayout), to.Format(attendance.DateLayout)).
		Find(&records).Error; err != nil {
		return nil, "", err
	}

	// (student, day) -> status
	byKey := make(map[string]string, len(records))
	for _, rec := range records {
		key := fmt.Sprintf("%d|%s", rec.StudentID, rec.Date.Format(attendance.DateLayout))
		byKey[key] = rec.Status
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	f := excelize.NewFile()
	sheet := "Register"
	f.SetSheetName(f.GetSheetName(0), sheet)

	title := fmt.Sprintf("%s / %s  (%s to %s)", class.ClassName, section.Name,
		from.Format(attendance.DateLayout), to.Format(attendance.DateLayout))
	f.SetCellValue(sheet, "A1", title)

	f.SetCellValue(sheet, "A2", "Roll No")
	f.SetCellValue(sheet, "B2", "Student")
	for i, d := range days {
		cell, _ := excelize.CoordinatesToCellName(3+i, 2)
		f.SetCellValue(sheet, cell, d.Format("02 Jan"))
	}
	presentCol := 3 + len(days)
	cell, _ := excelize.CoordinatesToCellName(presentCol, 2)
	f.SetCellValue(sheet, cell, "Present")
	cell, _ = excelize.CoordinatesToCellName(presentCol+1, 2)
	f.SetCellValue(sheet, cell, "Absent")

	for row, st := range students {
		r := row + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), st.RollNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), st.FullName)

		present, absent := 0, 0
		for i, d := range days {
			status, ok := byKey[fmt.Sprintf("%d|%s", st.ID, d.Format(attendance.DateLayout))]
			if !ok {
				continue
			}
			switch status {
			case models.StatusAbsent:
				absent++
			default:
				present++
			}
			cell, _ := excelize.CoordinatesToCellName(3+i, r)
			f.SetCellValue(sheet, cell, statusAbbrev[status])
		}
		cell, _ := excelize.CoordinatesToCellName(presentCol, r)
		f.SetCellValue(sheet, cell, present)
		cell, _ = excelize.CoordinatesToCellName(presentCol+1, r)
		f.SetCellValue(sheet, cell, absent)
	}

	fileName := fmt.Sprintf("attendance_%s_%s_%s.xlsx",
		class.ClassCode, section.Name, from.Format(attendance.DateLayout))
	return f, fileName, nil
}
