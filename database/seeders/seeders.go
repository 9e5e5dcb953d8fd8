package seeders

import (
	"fmt"
	"log"

	"schoolmgmt_go/database"
	"schoolmgmt_go/models"
	"schoolmgmt_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedUsers()
	SeedClasses()
	SeedStudents()

	log.Println("Database seeding completed successfully!")
}

// SeedUsers seeds the users and staff tables with a default admin and two
// staff accounts. Default password must be changed on first login.
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	hashedPassword, _ := utils.HashPassword("password123")

	staff := []models.Staff{
		{
			StaffCode:   "STF-00001",
			FullName:    "Meera Nair",
			Email:       "meera.nair@example.edu",
			Designation: "Class Teacher",
		},
		{
			StaffCode:   "STF-00002",
			FullName:    "Arun Pillai",
			Email:       "arun.pillai@example.edu",
			Designation: "Class Teacher",
		},
	}
	for i := range staff {
		if err := database.DB.Create(&staff[i]).Error; err != nil {
			log.Printf("Error seeding staff %s: %v", staff[i].StaffCode, err)
		}
	}

	users := []models.User{
		{
			Username: "superadmin",
			Password: hashedPassword,
			Email:    "superadmin@example.edu",
			FullName: "System Owner",
			Role:     models.RoleSuperAdmin,
			Status:   "active",
		},
		{
			Username: "admin",
			Password: hashedPassword,
			Email:    "admin@example.edu",
			FullName: "School Admin",
			Role:     models.RoleAdmin,
			Status:   "active",
		},
		{
			Username: "meera",
			Password: hashedPassword,
			Email:    staff[0].Email,
			FullName: staff[0].FullName,
			Role:     models.RoleStaff,
			StaffID:  &staff[0].ID,
			Status:   "active",
		},
		{
			Username: "arun",
			Password: hashedPassword,
			Email:    staff[1].Email,
			FullName: staff[1].FullName,
			Role:     models.RoleStaff,
			StaffID:  &staff[1].ID,
			Status:   "active",
		},
	}
	for i := range users {
		if err := database.DB.Create(&users[i]).Error; err != nil {
			log.Printf("Error seeding user %s: %v", users[i].Username, err)
			continue
		}
		if users[i].StaffID != nil {
			database.DB.Model(&models.Staff{}).Where("id = ?", *users[i].StaffID).
				Update("user_id", users[i].ID)
		}
	}

	log.Println("Users seeded successfully")
}

// SeedClasses seeds two classes with sections assigned to the seeded staff.
func SeedClasses() {
	var count int64
	database.DB.Model(&models.Class{}).Count(&count)
	if count > 0 {
		log.Println("Classes already seeded, skipping...")
		return
	}

	var staff []models.Staff
	database.DB.Order("id").Limit(2).Find(&staff)
	staffRef := func(i int) string {
		if i < len(staff) {
			return fmt.Sprintf("%d", staff[i].ID)
		}
		return ""
	}

	classes := []models.Class{
		{
			ClassCode: "GRADE5-001",
			ClassName: "Grade 5",
			Sections: []models.Section{
				{Name: "A", AssignedStaff: staffRef(0)},
				{Name: "B", AssignedStaff: staffRef(1)},
			},
		},
		{
			ClassCode: "GRADE6-002",
			ClassName: "Grade 6",
			Sections: []models.Section{
				{Name: "A", AssignedStaff: staffRef(1)},
			},
		},
	}

	for i := range classes {
		if err := database.DB.Create(&classes[i]).Error; err != nil {
			log.Printf("Error seeding class %s: %v", classes[i].ClassCode, err)
		}
	}

	log.Println("Classes seeded successfully")
}

// SeedStudents seeds a handful of enrolled students spread across the seeded
// sections.
func SeedStudents() {
	var count int64
	database.DB.Model(&models.Student{}).Count(&count)
	if count > 0 {
		log.Println("Students already seeded, skipping...")
		return
	}

	var sections []models.Section
	database.DB.Order("id").Find(&sections)
	if len(sections) == 0 {
		log.Println("No sections present, skipping student seeding")
		return
	}

	names := []string{
		"John Mathew", "Mary Thomas", "Omar Khan",
		"Lena George", "Raj Menon", "Sara Joseph",
	}

	for i, name := range names {
		section := sections[i%len(sections)]
		student := models.Student{
			StudentCode:    fmt.Sprintf("STU-%06d", i+1),
			RollNumber:     fmt.Sprintf("%d", i+1),
			FullName:       name,
			ClassID:        &section.ClassID,
			SectionID:      &section.ID,
			SectionName:    section.Name,
			EnrolmentState: "enrolled",
		}
		if err := database.DB.Create(&student).Error; err != nil {
			log.Printf("Error seeding student %s: %v", student.StudentCode, err)
		}
	}

	log.Println("Students seeded successfully")
}
