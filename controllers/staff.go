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

type StaffController struct{}

// GetStaff returns all staff profiles with pagination
func (sc *StaffController) GetStaff(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var staff []models.Staff
	var total int64

	query := database.DB.Model(&models.Staff{})

	if designation := c.Query("designation"); designation != "" {
		query = query.Where("designation = ?", designation)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + utils.SanitizeString(search) + "%"
		query = query.Where("full_name LIKE ? OR staff_code LIKE ?", like, like)
	}

	query.Count(&total)

	if err := query.Preload("User").
		Offset(offset).Limit(limit).Find(&staff).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch staff",
		})
	}

	return c.JSON(fiber.Map{
		"staff": staff,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStaffMember returns a specific staff profile by ID
func (sc *StaffController) GetStaffMember(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid staff ID",
		})
	}

	var staff models.Staff
	if err := database.DB.Preload("User").First(&staff, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Staff not found",
		})
	}

	return c.JSON(fiber.Map{
		"staff": staff,
	})
}

// CreateStaff creates a new staff profile
func (sc *StaffController) CreateStaff(c *fiber.Ctx) error {
	var staff models.Staff
	if err := c.BodyParser(&staff); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(staff.FullName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Full name is required",
		})
	}

	if staff.StaffCode == "" {
		staff.StaffCode = generateStaffCode()
	}

	var existing models.Staff
	if err := database.DB.Where("staff_code = ?", staff.StaffCode).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Staff code already exists",
		})
	}

	if staff.UserID != nil {
		var user models.User
		if err := database.DB.First(&user, *staff.UserID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Linked user not found",
			})
		}
	}

	if err := database.DB.Create(&staff).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create staff profile",
		})
	}

	// Backlink the user account to the new profile so tokens carry the staff id
	if staff.UserID != nil {
		database.DB.Model(&models.User{}).Where("id = ?", *staff.UserID).
			Update("staff_id", staff.ID)
	}

	middleware.LogActivity(c, "CREATE", "staff", staff.ID, fiber.Map{
		"staff_code": staff.StaffCode,
		"full_name":  staff.FullName,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Staff profile created successfully",
		"staff":   staff,
	})
}

// UpdateStaff updates an existing staff profile
func (sc *StaffController) UpdateStaff(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid staff ID",
		})
	}

	var staff models.Staff
	if err := database.DB.First(&staff, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Staff not found",
		})
	}

	var updateData models.Staff
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Staff code and user link are immutable through this endpoint
	updateData.StaffCode = staff.StaffCode
	updateData.UserID = staff.UserID

	if err := database.DB.Model(&staff).Updates(updateData).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update staff profile",
		})
	}

	middleware.LogActivity(c, "UPDATE", "staff", staff.ID, updateData)

	return c.JSON(fiber.Map{
		"message": "Staff profile updated successfully",
		"staff":   staff,
	})
}

// DeleteStaff soft deletes a staff profile
func (sc *StaffController) DeleteStaff(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid staff ID",
		})
	}

	var staff models.Staff
	if err := database.DB.First(&staff, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Staff not found",
		})
	}

	if err := database.DB.Delete(&staff).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete staff profile",
		})
	}

	// Drop the backlink so the user no longer passes section assignment checks
	if staff.UserID != nil {
		database.DB.Model(&models.User{}).Where("id = ?", *staff.UserID).
			Update("staff_id", nil)
	}

	middleware.LogActivity(c, "DELETE", "staff", staff.ID, fiber.Map{
		"staff_code": staff.StaffCode,
	})

	return c.JSON(fiber.Map{
		"message": "Staff profile deleted successfully",
	})
}

// UploadStaffPhoto uploads a photo for a staff profile
func (sc *StaffController) UploadStaffPhoto(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid staff ID",
		})
	}

	var staff models.Staff
	if err := database.DB.First(&staff, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Staff not found",
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

	photoURL, err := storageService.UploadFile(file, "staff/photos", staff.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload photo",
		})
	}

	if staff.Photo != "" {
		go storageService.DeleteFile(staff.Photo)
	}

	if err := database.DB.Model(&staff).Update("photo", photoURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update staff photo",
		})
	}

	middleware.LogActivity(c, "UPDATE", "staff", staff.ID, fiber.Map{
		"action": "photo_upload",
		"photo":  photoURL,
	})

	return c.JSON(fiber.Map{
		"message": "Photo uploaded successfully",
		"photo":   photoURL,
	})
}

// UploadStaffDocuments uploads one or more documents for a staff profile
func (sc *StaffController) UploadStaffDocuments(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid staff ID",
		})
	}

	var staff models.Staff
	if err := database.DB.First(&staff, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Staff not found",
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

	uploaded, err := storageService.UploadDocuments(files, "staff/documents", staff.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload documents",
		})
	}

	// Merge with any documents already on the profile
	var docs []storage.DocumentEntry
	if !staff.Documents.IsNull() {
		if err := json.Unmarshal(staff.Documents, &docs); err != nil {
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

	if err := database.DB.Model(&staff).Update("documents", models.JSON(raw)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update staff documents",
		})
	}

	middleware.LogActivity(c, "UPDATE", "staff", staff.ID, fiber.Map{
		"action": "documents_upload",
		"count":  len(uploaded),
	})

	return c.JSON(fiber.Map{
		"message":   "Documents uploaded successfully",
		"documents": docs,
	})
}

func generateStaffCode() string {
	var count int64
	database.DB.Model(&models.Staff{}).Count(&count)
	return fmt.Sprintf("STF-%05d", count+1)
}
