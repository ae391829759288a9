package mocks

import (
	"context"

	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// IdentityRepository は repository.IdentityRepository のモックです
type IdentityRepository struct {
	mock.Mock
}

func (m *IdentityRepository) Create(ctx context.Context, db *gorm.DB, identity *model.Identity) error {
	args := m.Called(ctx, db, identity)
	return args.Error(0)
}

func (m *IdentityRepository) FindByProvider(ctx context.Context, db *gorm.DB, authProvider string, providerID string) (*model.Identity, error) {
	args := m.Called(ctx, db, authProvider, providerID)
	var identity *model.Identity
	if args.Get(0) != nil {
		identity = args.Get(0).(*model.Identity)
	}
	return identity, args.Error(1)
}

func (m *IdentityRepository) UpdatePasswordHash(ctx context.Context, db *gorm.DB, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, db, userID, passwordHash)
	return args.Error(0)
}
