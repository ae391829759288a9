package mocks

import (
	"context"

	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// UserService は service.UserService のモックです
type UserService struct {
	mock.Mock
}

func (m *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	args := m.Called(ctx, userID)
	var user *model.UserProfile
	if args.Get(0) != nil {
		user = args.Get(0).(*model.UserProfile)
	}
	return user, args.Error(1)
}

func (m *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.PatchProfileRequest) (*model.UserProfile, error) {
	args := m.Called(ctx, userID, req)
	var user *model.UserProfile
	if args.Get(0) != nil {
		user = args.Get(0).(*model.UserProfile)
	}
	return user, args.Error(1)
}

func (m *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
