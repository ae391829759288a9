package mocks

import (
	"context"

	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// UserRepository は repository.UserRepository のモックです
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, db *gorm.DB, user *model.UserProfile) error {
	args := m.Called(ctx, db, user)
	return args.Error(0)
}

func (m *UserRepository) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.UserProfile, error) {
	args := m.Called(ctx, db, userID)
	var user *model.UserProfile
	if args.Get(0) != nil {
		user = args.Get(0).(*model.UserProfile)
	}
	return user, args.Error(1)
}

func (m *UserRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.UserProfile, error) {
	args := m.Called(ctx, db, email)
	var user *model.UserProfile
	if args.Get(0) != nil {
		user = args.Get(0).(*model.UserProfile)
	}
	return user, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, db *gorm.DB, userID uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, db, userID, updates)
	return args.Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, db *gorm.DB, userID uuid.UUID) error {
	args := m.Called(ctx, db, userID)
	return args.Error(0)
}
