// internal/service/user_service.go
package service

import (
	"context"
	"errors"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.PatchProfileRequest) (*model.UserProfile, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
}

func NewUserService(db *gorm.DB, repo repository.UserRepository) UserService {
	return &userService{db: db, userRepo: repo}
}

// GetUser は指定されたIDのユーザープロファイルを取得します
func (s *userService) GetUser(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	logger := middleware.GetLogger(ctx)

	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User not found", "user_id", userID.String())
			return nil, model.NewAppError("USER_NOT_FOUND", "找不到用户。", "", model.ErrNotFound)
		}
		logger.Error("Error finding user by ID", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "服务器内部错误", "", err)
	}
	return user, nil
}

// UpdateProfile はプロファイルの指定項目だけを更新します
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.PatchProfileRequest) (*model.UserProfile, error) {
	logger := middleware.GetLogger(ctx)

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.DailyStudyTime != nil {
		updates["daily_study_time"] = *req.DailyStudyTime
	}
	if req.Goals != nil {
		updates["goals"] = *req.Goals
	}
	if req.Preferences != nil {
		updates["preferences"] = *req.Preferences
	}
	if len(updates) == 0 {
		return nil, model.NewAppError("NO_UPDATABLE_FIELDS", "请求中不包含可更新的项目。", "", model.ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Update(ctx, tx, userID, updates); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("USER_NOT_FOUND", "找不到用户。", "", model.ErrNotFound)
			}
			logger.Error("Failed to update user profile", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "更新用户信息失败。", "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User profile updated", "user_id", userID.String())
	return s.GetUser(ctx, userID)
}

// DeleteUser はユーザーを論理削除します
func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	if err := s.userRepo.Delete(ctx, s.db, userID); err != nil {
		logger.Error("Failed to delete user", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "删除用户失败。", "", err)
	}

	logger.Info("User deleted", "user_id", userID.String())
	return nil
}
