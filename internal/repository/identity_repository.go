//go:generate mockery --name IdentityRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IdentityRepository interface {
	Create(ctx context.Context, db *gorm.DB, identity *model.Identity) error
	FindByProvider(ctx context.Context, db *gorm.DB, authProvider string, providerID string) (*model.Identity, error)
	UpdatePasswordHash(ctx context.Context, db *gorm.DB, userID uuid.UUID, passwordHash string) error
}

type gormIdentityRepository struct{}

func NewGormIdentityRepository() IdentityRepository {
	return &gormIdentityRepository{}
}

func (r *gormIdentityRepository) Create(ctx context.Context, db *gorm.DB, identity *model.Identity) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Create(identity)
	if result.Error != nil {
		logger.Error(
			"Error creating identity in DB",
			"error", result.Error,
			"auth_provider", identity.AuthProvider,
			"provider_id", identity.ProviderID,
		)
		return fmt.Errorf("gormIdentityRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormIdentityRepository) FindByProvider(ctx context.Context, db *gorm.DB, authProvider string, providerID string) (*model.Identity, error) {
	logger := middleware.GetLogger(ctx)
	var identity model.Identity

	result := db.WithContext(ctx).
		Where("auth_provider = ? AND provider_id = ?", authProvider, providerID).
		First(&identity)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error(
			"Error finding identity by provider in DB",
			"error", result.Error,
			"auth_provider", authProvider,
			"provider_id", providerID,
		)
		return nil, fmt.Errorf("gormIdentityRepository.FindByProvider: %w", result.Error)
	}
	return &identity, nil
}

func (r *gormIdentityRepository) UpdatePasswordHash(ctx context.Context, db *gorm.DB, userID uuid.UUID, passwordHash string) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("user_id = ? AND auth_provider = ?", userID, model.AuthProviderLocal).
		Update("password_hash", passwordHash)

	if result.Error != nil {
		logger.Error(
			"Error updating password hash in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return fmt.Errorf("gormIdentityRepository.UpdatePasswordHash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
