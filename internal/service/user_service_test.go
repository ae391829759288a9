package service_test

import (
	"context"
	"errors"
	"testing"

	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/repository/mocks"
	"go_bilingual_tutor/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_userService_GetUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("正常系: ユーザーが取得できる", func(t *testing.T) {
		mockRepo := new(mocks.UserRepository)
		svc := service.NewUserService(setupAuthTestDB(), mockRepo)

		expected := &model.UserProfile{UserID: userID, Name: "田中"}
		mockRepo.On("FindByID", ctx, mock.Anything, userID).Return(expected, nil).Once()

		user, err := svc.GetUser(ctx, userID)

		require.NoError(t, err)
		assert.Same(t, expected, user)
		mockRepo.AssertExpectations(t)
	})

	t.Run("異常系: ユーザーが存在しない", func(t *testing.T) {
		mockRepo := new(mocks.UserRepository)
		svc := service.NewUserService(setupAuthTestDB(), mockRepo)

		mockRepo.On("FindByID", ctx, mock.Anything, userID).Return(nil, model.ErrNotFound).Once()

		user, err := svc.GetUser(ctx, userID)

		assert.Nil(t, user)
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "USER_NOT_FOUND", appErr.Detail.Code)
	})
}

func Test_userService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("正常系: 指定した項目だけが更新される", func(t *testing.T) {
		mockRepo := new(mocks.UserRepository)
		svc := service.NewUserService(setupAuthTestDB(), mockRepo)

		name := "新しい名前"
		minutes := 90
		req := &model.PatchProfileRequest{Name: &name, DailyStudyTime: &minutes}

		mockRepo.On("Update", ctx, mock.Anything, userID,
			map[string]interface{}{"name": name, "daily_study_time": minutes}).Return(nil).Once()
		mockRepo.On("FindByID", ctx, mock.Anything, userID).
			Return(&model.UserProfile{UserID: userID, Name: name, DailyStudyTime: minutes}, nil).Once()

		user, err := svc.UpdateProfile(ctx, userID, req)

		require.NoError(t, err)
		assert.Equal(t, name, user.Name)
		assert.Equal(t, minutes, user.DailyStudyTime)
		mockRepo.AssertExpectations(t)
	})

	t.Run("異常系: 更新項目が1つもない", func(t *testing.T) {
		mockRepo := new(mocks.UserRepository)
		svc := service.NewUserService(setupAuthTestDB(), mockRepo)

		user, err := svc.UpdateProfile(ctx, userID, &model.PatchProfileRequest{})

		assert.Nil(t, user)
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NO_UPDATABLE_FIELDS", appErr.Detail.Code)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: 更新対象のユーザーが存在しない", func(t *testing.T) {
		mockRepo := new(mocks.UserRepository)
		svc := service.NewUserService(setupAuthTestDB(), mockRepo)

		name := "新しい名前"
		mockRepo.On("Update", ctx, mock.Anything, userID, mock.Anything).
			Return(model.ErrNotFound).Once()

		user, err := svc.UpdateProfile(ctx, userID, &model.PatchProfileRequest{Name: &name})

		assert.Nil(t, user)
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "USER_NOT_FOUND", appErr.Detail.Code)
	})
}

func Test_userService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("正常系: ユーザーが削除される", func(t *testing.T) {
		mockRepo := new(mocks.UserRepository)
		svc := service.NewUserService(setupAuthTestDB(), mockRepo)

		mockRepo.On("Delete", ctx, mock.Anything, userID).Return(nil).Once()

		require.NoError(t, svc.DeleteUser(ctx, userID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("異常系: 削除に失敗する", func(t *testing.T) {
		mockRepo := new(mocks.UserRepository)
		svc := service.NewUserService(setupAuthTestDB(), mockRepo)

		mockRepo.On("Delete", ctx, mock.Anything, userID).Return(errors.New("db down")).Once()

		err := svc.DeleteUser(ctx, userID)

		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", appErr.Detail.Code)
	})
}
