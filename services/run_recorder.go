// services/run_recorder.go
package services

import (
	"context"

	"lashapp-notifier/models"

	"gorm.io/gorm"
)

type RunRecorder interface {
	Record(ctx context.Context, run *models.NotificationRun) error
}

type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]models.NotificationRun, error)
}

// GormRunRecorder keeps one notification_runs row per pipeline run.
type GormRunRecorder struct {
	db *gorm.DB
}

func NewGormRunRecorder(db *gorm.DB) *GormRunRecorder {
	return &GormRunRecorder{db: db}
}

func (r *GormRunRecorder) Record(ctx context.Context, run *models.NotificationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *GormRunRecorder) RecentRuns(ctx context.Context, limit int) ([]models.NotificationRun, error) {
	var runs []models.NotificationRun
	err := r.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

// NopRunRecorder is used when no database is configured.
type NopRunRecorder struct{}

func (NopRunRecorder) Record(context.Context, *models.NotificationRun) error { return nil }
