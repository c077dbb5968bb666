package attendance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
)

// Repository exposes persistence helpers for attendance and achievements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, record *models.Attendance) (bool, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Attendance, error)
	InsertAchievement(ctx context.Context, achievement *models.Achievement) (bool, error)
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an attendance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Insert records the check-in unless the (user, event) pair already exists.
func (r *repositoryImpl) Insert(ctx context.Context, record *models.Attendance) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO attendance (id, user_id, event_id, checked_in_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, event_id) DO NOTHING`,
		record.ID, record.UserID, record.EventID, record.CheckedInAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

func (r *repositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Attendance, error) {
	var records []models.Attendance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("checked_in_at DESC").
		Find(&records).
		Error
	return records, err
}

// InsertAchievement awards the milestone unless the (user, kind) pair already
// exists.
func (r *repositoryImpl) InsertAchievement(ctx context.Context, achievement *models.Achievement) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO achievements (id, user_id, kind, earned_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, kind) DO NOTHING`,
		achievement.ID, achievement.UserID, achievement.Kind, achievement.EarnedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&achievements).
		Error
	return achievements, err
}
