package routes

import (
	"schoolmgmt_go/controllers"
	"schoolmgmt_go/middleware"
	"schoolmgmt_go/services"
	"schoolmgmt_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub, healthService *services.HealthService) {
	authController := &controllers.AuthController{}
	userController := &controllers.UserController{}
	staffController := &controllers.StaffController{}
	classController := &controllers.ClassController{}
	studentController := &controllers.StudentController{}
	studentImportController := &controllers.StudentImportController{}
	attendanceController := &controllers.AttendanceController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	wsController := controllers.NewWebSocketController(wsHub)
	healthController := controllers.NewHealthController(healthService)

	// API group
	api := app.Group("/api")

	// Health (no auth, for load balancers)
	app.Get("/health", healthController.GetHealthStatus)
	api.Get("/health", healthController.GetHealthStatus)

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Post("/reset-password-token", authController.ResetPasswordWithToken)
	auth.Get("/me", middleware.JWTMiddleware(), authController.Me)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Post("/auth/logout", authController.Logout)
	protected.Put("/profile/password", authController.ChangePassword)

	// Password reset routes (admin only)
	passwordReset := protected.Group("/password-reset", middleware.RequireAdmin())
	passwordReset.Post("/generate-token", authController.GeneratePasswordResetToken)
	passwordReset.Post("/reset-by-admin", authController.ResetPasswordByAdmin)

	// User management routes
	users := protected.Group("/users")
	users.Get("/", middleware.RequireStaffOrAdmin(), userController.GetUsers)
	users.Get("/:id", middleware.RequireStaffOrAdmin(), userController.GetUser)
	users.Post("/", middleware.RequireAdmin(), userController.CreateUser)
	users.Put("/:id", middleware.RequireAdmin(), userController.UpdateUser)
	users.Delete("/:id", middleware.RequireAdmin(), userController.DeleteUser)
	users.Post("/:id/avatar", userController.UploadAvatar) // users manage their own avatar

	// Staff management routes
	staff := protected.Group("/staff")
	staff.Get("/", middleware.RequireStaffOrAdmin(), staffController.GetStaff)
	staff.Get("/:id", middleware.RequireStaffOrAdmin(), staffController.GetStaffMember)
	staff.Post("/", middleware.RequireAdmin(), staffController.CreateStaff)
	staff.Put("/:id", middleware.RequireAdmin(), staffController.UpdateStaff)
	staff.Delete("/:id", middleware.RequireAdmin(), staffController.DeleteStaff)
	staff.Post("/:id/photo", middleware.RequireAdmin(), staffController.UploadStaffPhoto)
	staff.Post("/:id/documents", middleware.RequireAdmin(), staffController.UploadStaffDocuments)

	// Class management routes; every class payload embeds its sections
	classes := protected.Group("/classes")
	classes.Get("/", middleware.RequireStaffOrAdmin(), classController.GetClasses)
	classes.Get("/:id", middleware.RequireStaffOrAdmin(), classController.GetClass)
	classes.Post("/", middleware.RequireAdmin(), classController.CreateClass)
	classes.Put("/:id", middleware.RequireAdmin(), classController.UpdateClass)
	classes.Delete("/:id", middleware.RequireAdmin(), classController.DeleteClass)

	// Student management routes
	students := protected.Group("/student")
	students.Post("/import", middleware.RequireAdmin(), studentImportController.Import)
	students.Get("/", middleware.RequireStaffOrAdmin(), studentController.GetStudents)
	students.Get("/:id", middleware.RequireStaffOrAdmin(), studentController.GetStudent)
	students.Post("/", middleware.RequireAdmin(), studentController.CreateStudent)
	students.Put("/:id", middleware.RequireAdmin(), studentController.UpdateStudent)
	students.Delete("/:id", middleware.RequireAdmin(), studentController.DeleteStudent)
	students.Post("/:id/photo", middleware.RequireAdmin(), studentController.UploadStudentPhoto)
	students.Post("/:id/documents", middleware.RequireAdmin(), studentController.UploadStudentDocuments)

	// Attendance routes. Staff access is further gated per section assignment
	// inside the controller.
	att := protected.Group("/attendance", middleware.RequireStaffOrAdmin())
	att.Get("/roster", attendanceController.GetRoster)
	att.Get("/export", middleware.RequireAdmin(), attendanceController.Export)
	att.Get("/class/:classId/section/:section", attendanceController.GetByClassSection)
	att.Post("/mark", attendanceController.Mark)
	att.Put("/:id", attendanceController.UpdateRecord)
	att.Delete("/:id", middleware.RequireAdmin(), attendanceController.DeleteRecord)

	// Notification management routes
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Post("/", middleware.RequireAdmin(), notificationController.CreateNotification)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)

	// Log management routes (admin only)
	logs := protected.Group("/logs", middleware.RequireAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
	logs.Get("/export", logController.ExportLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)
	logs.Delete("/old", logController.DeleteOldLogs)
	logs.Post("/flush-cache", logController.FlushCachedLogs)
	logs.Get("/:id", logController.GetLog)

	// WebSocket routes
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireAdmin(), wsController.GetWebSocketStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}
