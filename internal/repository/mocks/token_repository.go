package mocks

import (
	"context"
	"time"

	"go_bilingual_tutor/internal/model"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// TokenRepository は repository.TokenRepository のモックです
type TokenRepository struct {
	mock.Mock
}

func (m *TokenRepository) CreateVerificationToken(ctx context.Context, db *gorm.DB, token *model.UserVerificationToken) error {
	args := m.Called(ctx, db, token)
	return args.Error(0)
}

func (m *TokenRepository) FindVerificationToken(ctx context.Context, db *gorm.DB, token string) (*model.UserVerificationToken, error) {
	args := m.Called(ctx, db, token)
	var result *model.UserVerificationToken
	if args.Get(0) != nil {
		result = args.Get(0).(*model.UserVerificationToken)
	}
	return result, args.Error(1)
}

func (m *TokenRepository) DeleteVerificationToken(ctx context.Context, db *gorm.DB, token string) error {
	args := m.Called(ctx, db, token)
	return args.Error(0)
}

func (m *TokenRepository) CreatePasswordResetToken(ctx context.Context, db *gorm.DB, token *model.PasswordResetToken) error {
	args := m.Called(ctx, db, token)
	return args.Error(0)
}

func (m *TokenRepository) FindPasswordResetToken(ctx context.Context, db *gorm.DB, token string) (*model.PasswordResetToken, error) {
	args := m.Called(ctx, db, token)
	var result *model.PasswordResetToken
	if args.Get(0) != nil {
		result = args.Get(0).(*model.PasswordResetToken)
	}
	return result, args.Error(1)
}

func (m *TokenRepository) DeletePasswordResetToken(ctx context.Context, db *gorm.DB, token string) error {
	args := m.Called(ctx, db, token)
	return args.Error(0)
}

func (m *TokenRepository) DeleteExpiredTokens(ctx context.Context, db *gorm.DB, now time.Time) error {
	args := m.Called(ctx, db, now)
	return args.Error(0)
}
