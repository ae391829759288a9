package mocks

import (
	"context"
	"time"

	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// ResultRepository は repository.ResultRepository のモックです
type ResultRepository struct {
	mock.Mock
}

func (m *ResultRepository) Create(ctx context.Context, tx *gorm.DB, result *model.ActivityResult) error {
	args := m.Called(ctx, tx, result)
	return args.Error(0)
}

func (m *ResultRepository) FindByUserSince(ctx context.Context, db *gorm.DB, userID uuid.UUID, since time.Time) ([]*model.ActivityResult, error) {
	args := m.Called(ctx, db, userID, since)
	var results []*model.ActivityResult
	if args.Get(0) != nil {
		results = args.Get(0).([]*model.ActivityResult)
	}
	return results, args.Error(1)
}

func (m *ResultRepository) FindRecentByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, limit int) ([]*model.ActivityResult, error) {
	args := m.Called(ctx, db, userID, limit)
	var results []*model.ActivityResult
	if args.Get(0) != nil {
		results = args.Get(0).([]*model.ActivityResult)
	}
	return results, args.Error(1)
}

func (m *ResultRepository) CountByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, db, userID)
	return args.Get(0).(int64), args.Error(1)
}
