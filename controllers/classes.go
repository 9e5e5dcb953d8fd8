package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"schoolmgmt_go/database"
	"schoolmgmt_go/middleware"
	"schoolmgmt_go/models"
	"schoolmgmt_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClassController struct{}

type sectionInput struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Staff string `json:"staff"`
}

type classRequest struct {
	ClassCode string         `json:"class_code"`
	ClassName string         `json:"class_name"`
	Sections  []sectionInput `json:"sections"`
}

// GetClasses returns all classes with their sections embedded
func (cc *ClassController) GetClasses(c *fiber.Ctx) error {
	var classes []models.Class
	if err := database.DB.Preload("Sections").Order("class_name").Find(&classes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classes",
		})
	}

	dtos := make([]utils.ClassDTO, 0, len(classes))
	for i := range classes {
		dtos = append(dtos, utils.ToClassDTO(&classes[i]))
	}

	return c.JSON(fiber.Map{
		"classes": dtos,
		"total":   len(dtos),
	})
}

// GetClass returns a specific class by ID
func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.Preload("Sections").First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	return c.JSON(fiber.Map{
		"class": utils.ToClassDTO(&class),
	})
}

// CreateClass creates a new class together with its sections
func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	var req classRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.ClassName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Class name is required",
		})
	}

	currentUser, _ := middleware.GetCurrentUser(c)

	class := models.Class{
		ClassCode: req.ClassCode,
		ClassName: strings.TrimSpace(req.ClassName),
	}
	if currentUser != nil {
		class.CreatedBy = currentUser.ID
		class.UpdatedBy = currentUser.ID
	}
	if class.ClassCode == "" {
		class.ClassCode = generateClassCode(class.ClassName)
	}
	for _, s := range req.Sections {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		class.Sections = append(class.Sections, models.Section{
			Name:          name,
			AssignedStaff: s.Staff,
		})
	}

	if err := database.DB.Create(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create class",
		})
	}

	middleware.LogActivity(c, "CREATE", "classes", class.ID, fiber.Map{
		"class_name": class.ClassName,
		"sections":   len(class.Sections),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   utils.ToClassDTO(&class),
	})
}

// UpdateClass updates a class. The submitted section list replaces the stored
// one: sections carrying an id are updated in place, new ones are created, and
// stored sections missing from the payload are removed.
func (cc *ClassController) UpdateClass(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.Preload("Sections").First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	var req classRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	currentUser, _ := middleware.GetCurrentUser(c)

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if strings.TrimSpace(req.ClassName) != "" {
			updates["class_name"] = strings.TrimSpace(req.ClassName)
		}
		if req.ClassCode != "" {
			updates["class_code"] = req.ClassCode
		}
		if currentUser != nil {
			updates["updated_by"] = currentUser.ID
		}
		if len(updates) > 0 {
			if err := tx.Model(&class).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Sections == nil {
			return nil
		}

		keep := make(map[uint]bool)
		for _, s := range req.Sections {
			name := strings.TrimSpace(s.Name)
			if name == "" {
				continue
			}
			if s.ID != 0 {
				if err := tx.Model(&models.Section{}).
					Where("id = ? AND class_id = ?", s.ID, class.ID).
					Updates(map[string]interface{}{
						"name":           name,
						"assigned_staff": s.Staff,
					}).Error; err != nil {
					return err
				}
				keep[s.ID] = true
				continue
			}
			section := models.Section{
				ClassID:       class.ID,
				Name:          name,
				AssignedStaff: s.Staff,
			}
			if err := tx.Create(&section).Error; err != nil {
				return err
			}
			keep[section.ID] = true
		}

		for _, existing := range class.Sections {
			if !keep[existing.ID] {
				if err := tx.Delete(&models.Section{}, existing.ID).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update class",
		})
	}

	database.DB.Preload("Sections").First(&class, class.ID)

	middleware.LogActivity(c, "UPDATE", "classes", class.ID, fiber.Map{
		"class_name": class.ClassName,
		"sections":   len(class.Sections),
	})

	return c.JSON(fiber.Map{
		"message": "Class updated successfully",
		"class":   utils.ToClassDTO(&class),
	})
}

// DeleteClass soft deletes a class and its sections
func (cc *ClassController) DeleteClass(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.Preload("Sections").First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	var enrolled int64
	database.DB.Model(&models.Student{}).
		Where("class_id = ? AND enrolment_state = ?", class.ID, "enrolled").
		Count(&enrolled)
	if enrolled > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot delete a class with enrolled students",
		})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", class.ID).Delete(&models.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&class).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete class",
		})
	}

	middleware.LogActivity(c, "DELETE", "classes", class.ID, fiber.Map{
		"class_name": class.ClassName,
	})

	return c.JSON(fiber.Map{
		"message": "Class deleted successfully",
	})
}

func generateClassCode(name string) string {
	var count int64
	database.DB.Model(&models.Class{}).Count(&count)
	prefix := strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return fmt.Sprintf("%s-%03d", prefix, count+1)
}
