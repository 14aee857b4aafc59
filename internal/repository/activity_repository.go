package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/step-lms-api/internal/models"
)

// ActivityRepository stores the school activity feed.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity entry.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activity_logs (id, actor, action, description, created_at) VALUES (:id, :actor, :action, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// ListRecent returns the newest limit entries.
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	items := make([]models.Activity, 0)
	const query = `SELECT id, actor, action, description, created_at FROM activity_logs ORDER BY created_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	return items, nil
}
