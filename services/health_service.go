package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"schoolmgmt_go/config"
	"schoolmgmt_go/database"
	"schoolmgmt_go/models"
)

const (
	overallStatusOK       = "ok"
	overallStatusDegraded = "degraded"
	overallStatusCritical = "critical"

	dependencyStatusUp       = "up"
	dependencyStatusDown     = "down"
	dependencyStatusDisabled = "disabled"

	defaultServiceName = "School Management API"
	defaultVersion     = "1.0.0"
	defaultTimeout     = 1500 * time.Millisecond
)

// HealthService aggregates dependency probes with a snapshot of today's
// attendance workload for the health endpoints.
type HealthService struct {
	serviceName string
	version     string
	startTime   time.Time
	timeout     time.Duration
}

// HealthReport is the JSON body of the health endpoints.
type HealthReport struct {
	Status        string             `json:"status"`
	Service       string             `json:"service"`
	Version       string             `json:"version"`
	Environment   string             `json:"environment"`
	Time          time.Time          `json:"time"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	UptimeHuman   string             `json:"uptime_human"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Runtime       RuntimeMetrics     `json:"runtime"`
	Attendance    *AttendanceHealth  `json:"attendance,omitempty"`
	Flags         HealthFlags        `json:"flags"`
}

// DependencyStatus captures the health of a single external dependency.
type DependencyStatus struct {
	Name      string                 `json:"name"`
	Status    string                 `json:"status"`
	LatencyMs int64                  `json:"latency_ms"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// RuntimeMetrics is a small diagnostics block; detailed profiling belongs to
// pprof, not the health endpoint.
type RuntimeMetrics struct {
	Goroutines     int            `json:"goroutines"`
	HeapAllocBytes uint64         `json:"heap_alloc_bytes"`
	Database       *DatabaseStats `json:"database,omitempty"`
}

// DatabaseStats captures statistics from the SQL connection pool.
type DatabaseStats struct {
	OpenConnections    int   `json:"open_connections"`
	InUse              int   `json:"in_use"`
	Idle               int   `json:"idle"`
	WaitCount          int64 `json:"wait_count"`
	WaitDurationMs     int64 `json:"wait_duration_ms"`
	MaxOpenConnections int   `json:"max_open_connections"`
}

// AttendanceHealth summarizes today's marking progress. Omitted entirely when
// the database probe fails.
type AttendanceHealth struct {
	Date           string `json:"date"`
	SectionsTotal  int64  `json:"sections_total"`
	SectionsMarked int64  `json:"sections_marked"`
	RecordsToday   int64  `json:"records_today"`
}

// HealthFlags exposes feature toggles that influence runtime behaviour.
type HealthFlags struct {
	SkipMigrate           bool `json:"skip_migrate"`
	UseRedisNotifications bool `json:"use_redis_notifications"`
	EnableReminders       bool `json:"enable_reminders"`
	RunSeeders            bool `json:"run_seeders"`
}

// NewHealthService creates a new HealthService with sensible defaults.
func NewHealthService(serviceName, version string) *HealthService {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = defaultServiceName
	}
	if strings.TrimSpace(version) == "" {
		version = defaultVersion
	}

	return &HealthService{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		timeout:     defaultTimeout,
	}
}

// GetHealthReport collects the current health information.
func (s *HealthService) GetHealthReport() HealthReport {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report := HealthReport{
		Status:      overallStatusOK,
		Service:     s.serviceName,
		Version:     s.version,
		Environment: currentEnvironment(),
		Time:        time.Now().UTC(),
	}

	uptime := time.Since(s.startTime)
	if uptime < 0 {
		uptime = 0
	}
	report.UptimeSeconds = uptime.Seconds()
	report.UptimeHuman = humanizeDuration(uptime)

	dbDep, dbStats := s.checkDatabase(ctx)
	report.Dependencies = append(report.Dependencies, dbDep)
	if dbDep.Status == dependencyStatusDown {
		report.Status = overallStatusCritical
	} else {
		report.Attendance = attendanceSnapshot()
	}

	redisDep := s.checkRedis(ctx)
	report.Dependencies = append(report.Dependencies, redisDep)
	if redisDep.Status == dependencyStatusDown && report.Status == overallStatusOK {
		report.Status = overallStatusDegraded
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	report.Runtime = RuntimeMetrics{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		Database:       dbStats,
	}
	report.Flags = collectFlags()

	return report
}

// HTTPStatusForOverall maps a health status to an HTTP status code.
func (s *HealthService) HTTPStatusForOverall(status string) int {
	if status == overallStatusCritical {
		return 503
	}
	return 200
}

func (s *HealthService) checkDatabase(ctx context.Context) (DependencyStatus, *DatabaseStats) {
	dep := DependencyStatus{Name: "mysql"}

	if database.DB == nil {
		dep.Status = dependencyStatusDown
		dep.Error = "database connection not initialised"
		return dep, nil
	}

	sqlDB, err := database.DB.DB()
	if err != nil {
		dep.Status = dependencyStatusDown
		dep.Error = fmt.Sprintf("sql DB handle error: %v", err)
		return dep, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	start := time.Now()
	err = sqlDB.PingContext(pingCtx)
	cancel()
	dep.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		dep.Status = dependencyStatusDown
		dep.Error = err.Error()
		return dep, nil
	}

	dep.Status = dependencyStatusUp
	stats := sqlDB.Stats()
	return dep, &DatabaseStats{
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDurationMs:     stats.WaitDuration.Milliseconds(),
		MaxOpenConnections: stats.MaxOpenConnections,
	}
}

func (s *HealthService) checkRedis(ctx context.Context) DependencyStatus {
	dep := DependencyStatus{Name: "redis"}

	client := database.GetRedisClient()
	useRedis := config.AppConfig != nil && config.AppConfig.UseRedisNotifications

	if client == nil {
		if useRedis {
			dep.Status = dependencyStatusDown
			dep.Error = "redis client not initialised"
		} else {
			dep.Status = dependencyStatusDisabled
		}
		return dep
	}

	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	start := time.Now()
	err := client.Ping(pingCtx).Err()
	cancel()
	dep.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		// Redis is an accelerator here; losing it degrades, never kills
		if useRedis {
			dep.Status = dependencyStatusDown
			dep.Error = err.Error()
		} else {
			dep.Status = dependencyStatusDisabled
			dep.Error = err.Error()
		}
		return dep
	}

	dep.Status = dependencyStatusUp
	dep.Details = map[string]interface{}{"address": client.Options().Addr}
	if useRedis {
		queueCtx, cancelQueue := context.WithTimeout(ctx, 500*time.Millisecond)
		if depth, qErr := client.LLen(queueCtx, "notifications:queue").Result(); qErr == nil {
			dep.Details["notification_queue_depth"] = depth
		}
		cancelQueue()
	}
	return dep
}

// attendanceSnapshot counts today's marking progress against the section list.
func attendanceSnapshot() *AttendanceHealth {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	snap := &AttendanceHealth{Date: day.Format("2006-01-02")}
	database.DB.Model(&models.Section{}).Count(&snap.SectionsTotal)
	database.DB.Model(&models.AttendanceRecord{}).Where("date = ?", day).Count(&snap.RecordsToday)
	database.DB.Raw(
		"SELECT COUNT(DISTINCT class_id, section) FROM attendance_records WHERE date = ? AND deleted_at IS NULL",
		day,
	).Scan(&snap.SectionsMarked)
	return snap
}

func collectFlags() HealthFlags {
	if config.AppConfig == nil {
		return HealthFlags{}
	}

	return HealthFlags{
		SkipMigrate:           config.AppConfig.SkipMigrate,
		UseRedisNotifications: config.AppConfig.UseRedisNotifications,
		EnableReminders:       config.AppConfig.EnableReminders,
		RunSeeders:            config.AppConfig.RunSeeders,
	}
}

func currentEnvironment() string {
	if config.AppConfig == nil {
		return "unknown"
	}
	env := strings.TrimSpace(config.AppConfig.AppEnv)
	if env == "" {
		return "unknown"
	}
	return env
}

func humanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}

	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d %= 24 * time.Hour
	hours := d / time.Hour
	d %= time.Hour
	minutes := d / time.Minute
	d %= time.Minute
	seconds := d / time.Second

	parts := []string{}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}
