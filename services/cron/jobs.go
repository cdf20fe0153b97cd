package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/services"
)

// stuckScanThreshold is how long a scan job may sit in processing before the
// sweeper declares it dead. The scan pipeline itself times out well before
// this; a job stuck longer lost its goroutine (e.g. a restart mid-process).
const stuckScanThreshold = 30 * time.Minute

// SweepStuckScanJobs fails scan jobs whose background processing never
// finished. Runs every 10 minutes.
func (m *CronManager) SweepStuckScanJobs() {
	jobName := "sweep_stuck_scan_jobs"
	cutoff := time.Now().Add(-stuckScanThreshold)

	result := m.db.Model(&model.ScanJob{}).
		Where("status = ? AND updated_at < ?", model.ScanProcessing, cutoff).
		Updates(map[string]interface{}{
			"status": model.ScanFailed,
			"error":  "processing did not finish, likely interrupted by a restart",
		})

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to sweep scan jobs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Failed %d stuck scan jobs", result.RowsAffected))
}

// CleanupExpiredNotices soft-deletes notices past their expiry. Runs hourly.
func (m *CronManager) CleanupExpiredNotices() {
	jobName := "cleanup_expired_notices"

	result := m.db.
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&model.Notice{})

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete expired notices: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d expired notices", result.RowsAffected))
}

// GradeSubmittedBacklog grades submissions that are still sitting in
// submitted state an hour after submission. Grading normally happens inline
// when the student submits; this catches the ones that slipped through.
func (m *CronManager) GradeSubmittedBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "grade_submitted_backlog"
	cutoff := time.Now().Add(-1 * time.Hour)

	var submissions []model.StudentAssignment
	err := m.db.
		Where("status = ? AND submitted_at < ?", model.SubmissionSubmitted, cutoff).
		Limit(100).
		Find(&submissions).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query submissions: %w", err))
		return
	}

	if len(submissions) == 0 {
		m.logJobComplete(jobName, "No submissions to grade")
		return
	}

	grader := services.NewGradingService(m.db)
	graded := 0
	failed := 0
	for _, sub := range submissions {
		if _, err := grader.GradeSubmission(ctx, sub.ID); err != nil {
			log.Printf("[CRON] Failed to grade submission %d: %v", sub.ID, err)
			failed++
			continue
		}
		graded++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Graded %d submissions, %d failed", graded, failed))
}

// CleanupOldData removes aged operational records. Runs daily at 3 AM.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	logCutoff := time.Now().AddDate(0, 0, -30)
	logs := m.db.Unscoped().
		Where("created_at < ?", logCutoff).
		Delete(&model.CronJobLog{})
	if logs.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old cron logs: %w", logs.Error))
		return
	}

	scanCutoff := time.Now().AddDate(0, 0, -30)
	scans := m.db.
		Where("status = ? AND updated_at < ?", model.ScanFailed, scanCutoff).
		Delete(&model.ScanJob{})
	if scans.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old scan jobs: %w", scans.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old cron logs and %d failed scan jobs", logs.RowsAffected, scans.RowsAffected))
}
