package controllers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"schoolmgmt_go/database"
	"schoolmgmt_go/middleware"
	"schoolmgmt_go/models"
	"schoolmgmt_go/storage"
	"schoolmgmt_go/utils"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct{}

// GetStudents returns all students with pagination. Filters: class_id,
// section_id, section (label), enrolment_status, search.
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset := (page - 1) * limit

	var students []models.Student
	var total int64

	query := database.DB.Model(&models.Student{})

	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}
	if sectionID := c.Query("section_id"); sectionID != "" {
		query = query.Where("section_id = ?", sectionID)
	}
	if section := c.Query("section"); section != "" {
		query = query.Where("section_name = ?", section)
	}
	status := c.Query("enrolment_status", "enrolled")
	if status != "all" {
		query = query.Where("enrolment_state = ?", status)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + utils.SanitizeString(search) + "%"
		query = query.Where("full_name LIKE ? OR student_code LIKE ? OR roll_number LIKE ?", like, like, like)
	}

	query.Count(&total)

	if err := query.Preload("Class").Order("id").
		Offset(offset).Limit(limit).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudent returns a specific student by ID
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.Preload("Class").First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	return c.JSON(fiber.Map{
		"student": student,
	})
}

// CreateStudent creates a new student record
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var student models.Student
	if err := c.BodyParser(&student); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(student.FullName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Full name is required",
		})
	}

	if err := resolveStudentPlacement(&student); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if student.StudentCode == "" {
		student.StudentCode = generateStudentCode()
	}
	if student.EnrolmentState == "" {
		student.EnrolmentState = "enrolled"
	}

	var existing models.Student
	if err := database.DB.Where("student_code = ?", student.StudentCode).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Student code already exists",
		})
	}

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, fiber.Map{
		"student_code": student.StudentCode,
		"full_name":    student.FullName,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent updates an existing student record
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var updateData models.Student
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Student code is immutable
	updateData.StudentCode = student.StudentCode

	if updateData.ClassID != nil || updateData.SectionID != nil {
		if updateData.ClassID == nil {
			updateData.ClassID = student.ClassID
		}
		if err := resolveStudentPlacement(&updateData); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	if updateData.EnrolmentState != "" {
		switch updateData.EnrolmentState {
		case "enrolled", "transferred", "withdrawn":
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid enrolment status",
			})
		}
	}

	if err := database.DB.Model(&student).Updates(updateData).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, updateData)

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent soft deletes a student record
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	if err := database.DB.Delete(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete student",
		})
	}

	middleware.LogActivity(c, "DELETE", "students", student.ID, fiber.Map{
		"student_code": student.StudentCode,
	})

	return c.JSON(fiber.Map{
		"message": "Student deleted successfully",
	})
}

// UploadStudentPhoto uploads a photo for a student
func (sc *StudentController) UploadStudentPhoto(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Storage service initialization failed",
		})
	}

	photoURL, err := storageService.UploadFile(file, "students/photos", student.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload photo",
		})
	}

	if student.Photo != "" {
		go storageService.DeleteFile(student.Photo)
	}

	if err := database.DB.Model(&student).Update("photo", photoURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student photo",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, fiber.Map{
		"action": "photo_upload",
		"photo":  photoURL,
	})

	return c.JSON(fiber.Map{
		"message": "Photo uploaded successfully",
		"photo":   photoURL,
	})
}

// UploadStudentDocuments uploads one or more documents for a student
func (sc *StudentController) UploadStudentDocuments(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}
	files := form.File["documents"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files uploaded",
		})
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Storage service initialization failed",
		})
	}

	uploaded, err := storageService.UploadDocuments(files, "students/documents", student.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload documents",
		})
	}

	var docs []storage.DocumentEntry
	if !student.Documents.IsNull() {
		if err := json.Unmarshal(student.Documents, &docs); err != nil {
			docs = nil
		}
	}
	docs = append(docs, uploaded...)

	raw, err := json.Marshal(docs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to encode documents",
		})
	}

	if err := database.DB.Model(&student).Update("documents", models.JSON(raw)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student documents",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, fiber.Map{
		"action": "documents_upload",
		"count":  len(uploaded),
	})

	return c.JSON(fiber.Map{
		"message":   "Documents uploaded successfully",
		"documents": docs,
	})
}

// resolveStudentPlacement validates the class/section references and keeps the
// denormalized section label in sync with the section row.
func resolveStudentPlacement(student *models.Student) error {
	if student.ClassID == nil {
		return nil
	}

	var class models.Class
	if err := database.DB.First(&class, *student.ClassID).Error; err != nil {
		return fmt.Errorf("class not found")
	}

	if student.SectionID != nil {
		var section models.Section
		if err := database.DB.Where("id = ? AND class_id = ?", *student.SectionID, class.ID).
			First(&section).Error; err != nil {
			return fmt.Errorf("section does not belong to the class")
		}
		student.SectionName = section.Name
		return nil
	}

	// Name-only placement: accept it when the label matches a section of the class
	if student.SectionName != "" {
		var section models.Section
		if err := database.DB.Where("class_id = ? AND name = ?", class.ID, student.SectionName).
			First(&section).Error; err == nil {
			student.SectionID = &section.ID
		}
	}
	return nil
}

func generateStudentCode() string {
	var count int64
	database.DB.Model(&models.Student{}).Count(&count)
	return fmt.Sprintf("STU-%06d", count+1)
}
