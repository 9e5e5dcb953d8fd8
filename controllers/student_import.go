package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"schoolmgmt_go/database"
	"schoolmgmt_go/middleware"
	"schoolmgmt_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// StudentImportController handles bulk enrolment from CSV/XLSX admission lists
type StudentImportController struct{}

type studentImportRow struct {
	RowNumber   int
	FullName    string
	RollNumber  string
	ClassRef    string
	SectionName string
	AdmissionNo string
	Gender      string
	Email       string
	Mobile      string
	FatherName  string
	MotherName  string
	DateOfBirth *time.Time
}

type studentImportStats struct {
	TotalRows       int      `json:"total_rows"`
	StudentsCreated int      `json:"students_created"`
	StudentsSkipped int      `json:"students_skipped"`
	MissingClasses  []string `json:"missing_classes"`
	MissingSections []string `json:"missing_sections"`
}

// Import parses a CSV/XLSX admission list and enrols the students it contains.
// Rows referencing an unknown class or section are reported, not created.
func (sic *StudentImportController) Import(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
	}
	defer file.Close()

	filename := strings.ToLower(fileHeader.Filename)
	var rows [][]string
	var parseErr error

	if strings.HasSuffix(filename, ".csv") {
		rows, parseErr = readImportCSV(file)
	} else if strings.HasSuffix(filename, ".xlsx") || strings.HasSuffix(filename, ".xls") {
		tmpDir, _ := os.MkdirTemp("", "smimport-")
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeImportFilename(fileHeader.Filename)))
		if err := c.SaveFile(fileHeader, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		rows, parseErr = readImportXLSX(tmp)
		_ = os.Remove(tmp)
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv, xlsx)"})
	}
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": parseErr.Error()})
	}
	if len(rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}

	colIndex := buildImportColumnIndex(rows[0])
	for _, key := range []string{"full name", "class", "section"} {
		if _, ok := colIndex[key]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("missing column: %s", key)})
		}
	}

	parsedRows := make([]studentImportRow, 0, len(rows)-1)
	var parseErrors []string
	for i := 1; i < len(rows); i++ {
		raw := rows[i]
		if isImportRowEmpty(raw) {
			continue
		}
		r, err := parseStudentImportRow(raw, colIndex, i+1)
		if err != nil {
			parseErrors = append(parseErrors, err.Error())
			continue
		}
		parsedRows = append(parsedRows, r)
	}
	if len(parsedRows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no valid data rows found", "parse_errors": parseErrors})
	}

	stats := &studentImportStats{TotalRows: len(parsedRows)}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var nextSeq int64
		tx.Model(&models.Student{}).Unscoped().Count(&nextSeq)
		for _, r := range parsedRows {
			created, err := importStudentRow(tx, r, &nextSeq, stats)
			if err != nil {
				return err
			}
			if created {
				stats.StudentsCreated++
			} else {
				stats.StudentsSkipped++
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error(), "stats": stats})
	}

	middleware.LogActivity(c, "import", "students", 0, fiber.Map{
		"file_name": fileHeader.Filename,
		"created":   stats.StudentsCreated,
		"skipped":   stats.StudentsSkipped,
	})

	response := fiber.Map{
		"success":          true,
		"file_name":        fileHeader.Filename,
		"total_rows":       stats.TotalRows,
		"students_created": stats.StudentsCreated,
		"students_skipped": stats.StudentsSkipped,
		"missing_classes":  stats.MissingClasses,
		"missing_sections": stats.MissingSections,
		"parse_errors":     parseErrors,
	}
	if len(stats.MissingClasses) > 0 || len(stats.MissingSections) > 0 {
		response["has_unmatched"] = true
	}
	return c.JSON(response)
}

// importStudentRow enrols a single parsed row. Returns false when the row is
// skipped (unknown class/section or duplicate).
func importStudentRow(tx *gorm.DB, r studentImportRow, nextSeq *int64, stats *studentImportStats) (bool, error) {
	class, err := resolveImportClass(tx, r.ClassRef)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			stats.MissingClasses = appendUniqueValue(stats.MissingClasses, r.ClassRef)
			return false, nil
		}
		return false, err
	}

	var section models.Section
	if err := tx.Where("class_id = ? AND name = ?", class.ID, r.SectionName).First(&section).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			stats.MissingSections = appendUniqueValue(stats.MissingSections, r.ClassRef+"/"+r.SectionName)
			return false, nil
		}
		return false, err
	}

	// Duplicate checks: admission number first, then roll number within the class
	var dupCount int64
	if r.AdmissionNo != "" {
		if err := tx.Model(&models.Student{}).Where("admission_no = ?", r.AdmissionNo).Count(&dupCount).Error; err != nil {
			return false, err
		}
	}
	if dupCount == 0 && r.RollNumber != "" {
		if err := tx.Model(&models.Student{}).Where("class_id = ? AND roll_number = ?", class.ID, r.RollNumber).Count(&dupCount).Error; err != nil {
			return false, err
		}
	}
	if dupCount > 0 {
		return false, nil
	}

	*nextSeq++
	student := models.Student{
		StudentCode:    fmt.Sprintf("STU-%06d", *nextSeq),
		AdmissionNo:    r.AdmissionNo,
		RollNumber:     r.RollNumber,
		FullName:       r.FullName,
		Email:          r.Email,
		Mobile:         r.Mobile,
		DateOfBirth:    r.DateOfBirth,
		Gender:         r.Gender,
		FatherName:     r.FatherName,
		MotherName:     r.MotherName,
		ClassID:        &class.ID,
		SectionID:      &section.ID,
		SectionName:    section.Name,
		EnrolmentState: "enrolled",
	}
	if err := tx.Create(&student).Error; err != nil {
		return false, err
	}
	return true, nil
}

// resolveImportClass matches the class column against class_code first, then
// class_name.
func resolveImportClass(tx *gorm.DB, ref string) (*models.Class, error) {
	var class models.Class
	if err := tx.Where("class_code = ?", ref).First(&class).Error; err == nil {
		return &class, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err := tx.Where("class_name = ?", ref).First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func parseStudentImportRow(row []string, col map[string]int, rowNum int) (studentImportRow, error) {
	get := func(key string) string {
		if idx, ok := col[key]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	fullName := get("full name")
	if fullName == "" {
		return studentImportRow{}, fmt.Errorf("row %d: missing full name", rowNum)
	}
	classRef := get("class")
	if classRef == "" {
		return studentImportRow{}, fmt.Errorf("row %d: missing class", rowNum)
	}
	sectionName := get("section")
	if sectionName == "" {
		return studentImportRow{}, fmt.Errorf("row %d: missing section", rowNum)
	}

	parsed := studentImportRow{
		RowNumber:   rowNum,
		FullName:    fullName,
		RollNumber:  get("roll number"),
		ClassRef:    classRef,
		SectionName: sectionName,
		AdmissionNo: get("admission no"),
		Gender:      get("gender"),
		Email:       get("email"),
		Mobile:      get("mobile"),
		FatherName:  get("father name"),
		MotherName:  get("mother name"),
	}
	if raw := get("date of birth"); raw != "" {
		if dob, err := parseImportDate(raw); err == nil {
			parsed.DateOfBirth = &dob
		} else {
			return studentImportRow{}, fmt.Errorf("row %d: invalid date of birth: %v", rowNum, err)
		}
	}
	return parsed, nil
}

func parseImportDate(value string) (time.Time, error) {
	layouts := []string{"2006-01-02", "02/01/2006", "2/1/2006", "01/02/06", "2006/01/02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", value)
}

func buildImportColumnIndex(header []string) map[string]int {
	col := map[string]int{}
	for idx, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		col[key] = idx
		// allow alternate spellings
		switch key {
		case "name", "student name":
			col["full name"] = idx
		case "roll", "roll no", "roll no.":
			col["roll number"] = idx
		case "admission number", "admission no.":
			col["admission no"] = idx
		case "dob":
			col["date of birth"] = idx
		case "phone":
			col["mobile"] = idx
		}
	}
	return col
}

func isImportRowEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func appendUniqueValue(slice []string, value string) []string {
	if value == "" {
		return slice
	}
	for _, v := range slice {
		if strings.EqualFold(v, value) {
			return slice
		}
	}
	return append(slice, value)
}

func readImportCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readImportXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sht := f.GetSheetName(0)
	if sht == "" {
		sht = "Sheet1"
	}
	return f.GetRows(sht)
}

func sanitizeImportFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}
