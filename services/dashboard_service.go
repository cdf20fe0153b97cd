package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/cache"
)

// dashboardCacheTTL keeps counts fresh enough for an admin screen without
// hammering the database on every page load.
const dashboardCacheTTL = 60 * time.Second

// DashboardStats is the academy-wide counter set shown on the admin dashboard
type DashboardStats struct {
	TotalStudents       int64 `json:"total_students"`
	ActiveStudents      int64 `json:"active_students"`
	TotalClasses        int64 `json:"total_classes"`
	TotalProblems       int64 `json:"total_problems"`
	PendingScanJobs     int64 `json:"pending_scan_jobs"`
	OpenAssignments     int64 `json:"open_assignments"`
	UngradedSubmissions int64 `json:"ungraded_submissions"`
	AIAnalysesToday     int   `json:"ai_analyses_today"`
}

// DashboardService aggregates academy counters with a short Redis cache
type DashboardService struct {
	db    *gorm.DB
	cache *cache.RedisCache
	quota *QuotaService
}

// NewDashboardService creates a dashboard service. cache may be nil; counts
// are then computed on every call.
func NewDashboardService(db *gorm.DB, c *cache.RedisCache, quota *QuotaService) *DashboardService {
	return &DashboardService{db: db, cache: c, quota: quota}
}

// GetStats returns the academy's dashboard counters
func (d *DashboardService) GetStats(ctx context.Context, academyID uint) (*DashboardStats, error) {
	cacheKey := fmt.Sprintf("dashboard:%d", academyID)

	if d.cache != nil {
		var cached DashboardStats
		if err := d.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats := &DashboardStats{}
	db := d.db.WithContext(ctx)

	if err := db.Model(&model.Student{}).Where("academy_id = ?", academyID).Count(&stats.TotalStudents).Error; err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	if err := db.Model(&model.Student{}).Where("academy_id = ? AND active = ?", academyID, true).Count(&stats.ActiveStudents).Error; err != nil {
		return nil, fmt.Errorf("failed to count active students: %w", err)
	}
	if err := db.Model(&model.Class{}).Where("academy_id = ?", academyID).Count(&stats.TotalClasses).Error; err != nil {
		return nil, fmt.Errorf("failed to count classes: %w", err)
	}
	if err := db.Model(&model.Problem{}).Where("academy_id = ?", academyID).Count(&stats.TotalProblems).Error; err != nil {
		return nil, fmt.Errorf("failed to count problems: %w", err)
	}
	if err := db.Model(&model.ScanJob{}).
		Where("academy_id = ? AND status IN ?", academyID, []model.ScanStatus{model.ScanPending, model.ScanProcessing}).
		Count(&stats.PendingScanJobs).Error; err != nil {
		return nil, fmt.Errorf("failed to count scan jobs: %w", err)
	}
	if err := db.Model(&model.Assignment{}).
		Joins("JOIN classes ON classes.id = assignments.class_id").
		Where("classes.academy_id = ? AND (assignments.due_date IS NULL OR assignments.due_date >= ?)", academyID, time.Now()).
		Count(&stats.OpenAssignments).Error; err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	if err := db.Model(&model.StudentAssignment{}).
		Joins("JOIN students ON students.id = student_assignments.student_id").
		Where("students.academy_id = ? AND student_assignments.status = ?", academyID, model.SubmissionSubmitted).
		Count(&stats.UngradedSubmissions).Error; err != nil {
		return nil, fmt.Errorf("failed to count ungraded submissions: %w", err)
	}

	if d.quota != nil {
		// The quota counter is global, not per academy; it reads as today's
		// AI analysis usage across the deployment.
		if remaining, err := d.quota.Remaining(ctx); err == nil {
			stats.AIAnalysesToday = d.quota.Limit() - remaining
		} else {
			log.Printf("DashboardService: failed to read AI usage: %v", err)
		}
	}

	if d.cache != nil {
		if err := d.cache.SetJSON(ctx, cacheKey, stats, dashboardCacheTTL); err != nil {
			log.Printf("DashboardService: failed to cache stats for academy %d: %v", academyID, err)
		}
	}

	return stats, nil
}
