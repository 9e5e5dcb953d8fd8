package services

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"schoolmgmt_go/database"
	"schoolmgmt_go/models"
	"schoolmgmt_go/services/attendance"
	"schoolmgmt_go/services/notifications"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler nudges staff who have not marked attendance for their
// assigned sections by the end of the school day.
type ReminderScheduler struct {
	db   *gorm.DB
	cron *cron.Cron
}

// NewReminderScheduler creates a scheduler on the global database handle.
func NewReminderScheduler() *ReminderScheduler {
	return &ReminderScheduler{
		db:   database.DB,
		cron: cron.New(),
	}
}

// Start registers the daily job. Weekdays at 17:00 server time.
func (rs *ReminderScheduler) Start() error {
	_, err := rs.cron.AddFunc("0 17 * * 1-5", func() {
		rs.RemindUnmarkedSections(time.Now())
	})
	if err != nil {
		return err
	}
	rs.cron.Start()
	logrus.Info("Attendance reminder scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (rs *ReminderScheduler) Stop() {
	ctx := rs.cron.Stop()
	<-ctx.Done()
}

// RemindUnmarkedSections finds sections with no attendance stored for the day
// and notifies their assigned staff.
func (rs *ReminderScheduler) RemindUnmarkedSections(day time.Time) {
	date := day.Format(attendance.DateLayout)

	var sections []models.Section
	if err := rs.db.Preload("Class").Find(&sections).Error; err != nil {
		logrus.WithError(err).Error("reminder: failed to load sections")
		return
	}

	notifier := notifications.NewService()
	reminded := 0

	for _, section := range sections {
		var count int64
		rs.db.Model(&models.AttendanceRecord{}).
			Where("class_id = ? AND section = ? AND date = ?", section.ClassID, section.Name, date).
			Count(&count)
		if count > 0 {
			continue
		}

		// Skip sections with no enrolled students; nothing to mark
		var enrolled int64
		rs.db.Model(&models.Student{}).
			Where("class_id = ? AND (section_id = ? OR section_name = ?) AND enrolment_state = ?",
				section.ClassID, section.ID, section.Name, "enrolled").
			Count(&enrolled)
		if enrolled == 0 {
			continue
		}

		userID := rs.resolveAssignedUser(section.AssignedStaff)
		if userID == 0 {
			continue
		}

		msg := fmt.Sprintf("Attendance for %s / %s has not been marked today (%s).",
			section.Class.ClassName, section.Name, date)
		if err := notifier.EnqueueOrCreate([]uint{userID},
			notifications.Queued("Attendance pending", msg, "warning")); err != nil {
			logrus.WithError(err).Warnf("reminder: failed to notify user %d", userID)
			continue
		}
		reminded++
	}

	logrus.Infof("Attendance reminders sent for %d sections", reminded)
}

// resolveAssignedUser maps the stored assignment reference, which may be a
// staff id or a user id, to a user account id. Staff takes precedence to match
// the marking gate.
func (rs *ReminderScheduler) resolveAssignedUser(assigned string) uint {
	id, err := strconv.ParseUint(assigned, 10, 32)
	if err != nil {
		return 0
	}

	var user models.User
	if err := rs.db.Where("staff_id = ? AND status = ?", uint(id), "active").First(&user).Error; err == nil {
		return user.ID
	}
	if err := rs.db.Where("id = ? AND status = ?", uint(id), "active").First(&user).Error; err == nil {
		return user.ID
	}
	return 0
}
