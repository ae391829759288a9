//go:generate mockery --name ResultRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"
	"time"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResultRepository はアクティビティ実行結果の永続化を担当します
type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *model.ActivityResult) error
	FindByUserSince(ctx context.Context, db *gorm.DB, userID uuid.UUID, since time.Time) ([]*model.ActivityResult, error)
	FindRecentByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, limit int) ([]*model.ActivityResult, error)
	CountByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error)
}

type gormResultRepository struct{}

func NewGormResultRepository() ResultRepository {
	return &gormResultRepository{}
}

func (r *gormResultRepository) Create(ctx context.Context, tx *gorm.DB, res *model.ActivityResult) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(res)
	if result.Error != nil {
		logger.Error("Error creating activity result in DB",
			"error", result.Error,
			"user_id", res.UserID.String(),
			"activity_id", res.ActivityID,
		)
		return fmt.Errorf("gormResultRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormResultRepository) FindByUserSince(ctx context.Context, db *gorm.DB, userID uuid.UUID, since time.Time) ([]*model.ActivityResult, error) {
	logger := middleware.GetLogger(ctx)
	var results []*model.ActivityResult
	err := db.WithContext(ctx).
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Order("completed_at ASC").
		Find(&results).Error
	if err != nil {
		logger.Error("Error finding activity results in DB",
			"error", err,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormResultRepository.FindByUserSince: %w", err)
	}
	return results, nil
}

func (r *gormResultRepository) FindRecentByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, limit int) ([]*model.ActivityResult, error) {
	logger := middleware.GetLogger(ctx)
	var results []*model.ActivityResult
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		logger.Error("Error finding recent activity results in DB",
			"error", err,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormResultRepository.FindRecentByUser: %w", err)
	}
	return results, nil
}

func (r *gormResultRepository) CountByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	err := db.WithContext(ctx).
		Model(&model.ActivityResult{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		logger.Error("Error counting activity results in DB",
			"error", err,
			"user_id", userID.String(),
		)
		return 0, fmt.Errorf("gormResultRepository.CountByUser: %w", err)
	}
	return count, nil
}
