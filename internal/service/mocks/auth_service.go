package mocks

import (
	"context"

	"go_bilingual_tutor/internal/model"

	"github.com/stretchr/testify/mock"
)

// AuthService は service.AuthService のモックです
type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.UserProfile, error) {
	args := m.Called(ctx, req)
	var user *model.UserProfile
	if args.Get(0) != nil {
		user = args.Get(0).(*model.UserProfile)
	}
	return user, args.Error(1)
}

func (m *AuthService) VerifyAccount(ctx context.Context, tokenString string) error {
	args := m.Called(ctx, tokenString)
	return args.Error(0)
}

func (m *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, req)
	var resp *model.LoginResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*model.LoginResponse)
	}
	return resp, args.Error(1)
}

func (m *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	args := m.Called(ctx, token, newPassword)
	return args.Error(0)
}
