package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go_bilingual_tutor/internal/config"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/repository/mocks"
	"go_bilingual_tutor/internal/service"
	servicemocks "go_bilingual_tutor/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// トランザクションを実際に通すため、インメモリのSQLiteを使う
func setupAuthTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic("failed to connect database for testing: " + err.Error())
	}
	if err := db.AutoMigrate(&model.UserProfile{}); err != nil {
		panic("failed to migrate database for testing: " + err.Error())
	}
	return db
}

type AuthServiceTestSuite struct {
	suite.Suite

	db               *gorm.DB
	mockUserRepo     *mocks.UserRepository
	mockIdentityRepo *mocks.IdentityRepository
	mockTokenRepo    *mocks.TokenRepository
	mockMailer       *servicemocks.Mailer
	cfg              *config.Config
	authService      service.AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = setupAuthTestDB()
	s.mockUserRepo = new(mocks.UserRepository)
	s.mockIdentityRepo = new(mocks.IdentityRepository)
	s.mockTokenRepo = new(mocks.TokenRepository)
	s.mockMailer = new(servicemocks.Mailer)

	s.cfg = &config.Config{}
	s.cfg.App.Name = "BilingualTutor"
	s.cfg.App.FrontendURL = "http://localhost:3000"
	s.cfg.App.DefaultMinutes = 60
	s.cfg.JWT.SecretKey = "test-secret"
	s.cfg.JWT.AccessTokenTTL = 15 * time.Minute

	s.authService = service.NewAuthService(s.db, s.mockUserRepo, s.mockIdentityRepo, s.mockTokenRepo, s.mockMailer, s.cfg)
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) assertAppErrorCode(err error, code string) {
	s.Require().Error(err)
	var appErr *model.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(code, appErr.Detail.Code)
}

func (s *AuthServiceTestSuite) TestRegister() {
	testCases := []struct {
		name        string
		req         *model.RegisterRequest
		setupMocks  func()
		checkResult func(user *model.UserProfile, err error)
	}{
		{
			name: "Success - 正常に登録できる",
			req:  &model.RegisterRequest{Name: "田中", Email: "tanaka@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, "tanaka@example.com").
					Return(nil, model.ErrNotFound).Once()
				s.mockUserRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*model.UserProfile")).
					Run(func(args mock.Arguments) {
						user := args.Get(2).(*model.UserProfile)
						s.False(user.IsActive, "登録直後は未アクティブ")
						s.Equal("CET-4", user.EnglishLevel)
						s.Equal("N5", user.JapaneseLevel)
						s.Equal(60, user.DailyStudyTime)
					}).Return(nil).Once()
				s.mockIdentityRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Identity")).
					Run(func(args mock.Arguments) {
						identity := args.Get(2).(*model.Identity)
						s.Equal(model.AuthProviderLocal, identity.AuthProvider)
						s.Equal("tanaka@example.com", identity.ProviderID)
						s.Require().NotNil(identity.PasswordHash)
						s.NoError(bcrypt.CompareHashAndPassword([]byte(*identity.PasswordHash), []byte("password123")))
					}).Return(nil).Once()
				s.mockTokenRepo.On("CreateVerificationToken", mock.Anything, mock.Anything, mock.AnythingOfType("*model.UserVerificationToken")).
					Return(nil).Once()
				s.mockMailer.On("Send", mock.Anything, "tanaka@example.com", mock.Anything, mock.Anything).
					Return(nil).Once()
			},
			checkResult: func(user *model.UserProfile, err error) {
				s.NoError(err)
				s.Require().NotNil(user)
				s.Equal("tanaka@example.com", user.Email)
				s.NotEqual(uuid.Nil, user.UserID)
			},
		},
		{
			name: "Failure - Emailが重複している",
			req:  &model.RegisterRequest{Name: "田中", Email: "used@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, "used@example.com").
					Return(&model.UserProfile{}, nil).Once()
			},
			checkResult: func(user *model.UserProfile, err error) {
				s.Nil(user)
				s.assertAppErrorCode(err, "DUPLICATE_EMAIL")
				s.ErrorIs(err, model.ErrConflict)
			},
		},
		{
			name: "Failure - 確認メールの送信に失敗する",
			req:  &model.RegisterRequest{Name: "田中", Email: "mailfail@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, "mailfail@example.com").
					Return(nil, model.ErrNotFound).Once()
				s.mockUserRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				s.mockIdentityRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				s.mockTokenRepo.On("CreateVerificationToken", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				s.mockMailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(errors.New("smtp unavailable")).Once()
			},
			checkResult: func(user *model.UserProfile, err error) {
				s.Nil(user)
				s.assertAppErrorCode(err, "EMAIL_SEND_FAILED")
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMocks()

			user, err := s.authService.Register(context.Background(), tc.req)

			tc.checkResult(user, err)
			s.mockUserRepo.AssertExpectations(s.T())
			s.mockIdentityRepo.AssertExpectations(s.T())
			s.mockTokenRepo.AssertExpectations(s.T())
			s.mockMailer.AssertExpectations(s.T())
		})
	}
}

// アカウント有効化のユーザー検索用に、テストごとに一意のユーザーをDBへ入れる
func (s *AuthServiceTestSuite) seedUser(isActive bool) *model.UserProfile {
	user := &model.UserProfile{
		UserID:         uuid.New(),
		Name:           "テストユーザー",
		Email:          fmt.Sprintf("user-%s@example.com", uuid.NewString()),
		IsActive:       isActive,
		EnglishLevel:   "CET-4",
		JapaneseLevel:  "N5",
		DailyStudyTime: 60,
	}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *AuthServiceTestSuite) TestVerifyAccount() {
	s.Run("Success - アカウントが有効化される", func() {
		s.SetupTest()
		user := s.seedUser(false)

		s.mockTokenRepo.On("FindVerificationToken", mock.Anything, mock.Anything, "valid-token").
			Return(&model.UserVerificationToken{
				Token:     "valid-token",
				UserID:    user.UserID,
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil).Once()
		s.mockTokenRepo.On("DeleteVerificationToken", mock.Anything, mock.Anything, "valid-token").
			Return(nil).Once()

		err := s.authService.VerifyAccount(context.Background(), "valid-token")

		s.Require().NoError(err)
		var reloaded model.UserProfile
		s.Require().NoError(s.db.First(&reloaded, "user_id = ?", user.UserID).Error)
		s.True(reloaded.IsActive)
		s.mockTokenRepo.AssertExpectations(s.T())
	})

	s.Run("Failure - トークンが存在しない", func() {
		s.SetupTest()
		s.mockTokenRepo.On("FindVerificationToken", mock.Anything, mock.Anything, "unknown-token").
			Return(nil, model.ErrNotFound).Once()

		err := s.authService.VerifyAccount(context.Background(), "unknown-token")

		s.assertAppErrorCode(err, "INVALID_TOKEN")
	})

	s.Run("Failure - トークンが期限切れ", func() {
		s.SetupTest()
		user := s.seedUser(false)

		s.mockTokenRepo.On("FindVerificationToken", mock.Anything, mock.Anything, "expired-token").
			Return(&model.UserVerificationToken{
				Token:     "expired-token",
				UserID:    user.UserID,
				ExpiresAt: time.Now().Add(-1 * time.Minute),
			}, nil).Once()
		// 期限切れトークンは削除される
		s.mockTokenRepo.On("DeleteVerificationToken", mock.Anything, mock.Anything, "expired-token").
			Return(nil).Once()

		err := s.authService.VerifyAccount(context.Background(), "expired-token")

		s.assertAppErrorCode(err, "INVALID_TOKEN")
		s.mockTokenRepo.AssertExpectations(s.T())
	})

	s.Run("Failure - 対象ユーザーが存在しない", func() {
		s.SetupTest()
		s.mockTokenRepo.On("FindVerificationToken", mock.Anything, mock.Anything, "orphan-token").
			Return(&model.UserVerificationToken{
				Token:     "orphan-token",
				UserID:    uuid.New(),
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil).Once()

		err := s.authService.VerifyAccount(context.Background(), "orphan-token")

		s.assertAppErrorCode(err, "NOT_FOUND")
	})
}

func (s *AuthServiceTestSuite) TestLogin() {
	password := "password123"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	s.Require().NoError(err)
	hash := string(hashed)

	activeUser := &model.UserProfile{
		UserID:   uuid.New(),
		Name:     "田中",
		Email:    "tanaka@example.com",
		IsActive: true,
	}

	testCases := []struct {
		name        string
		req         *model.LoginRequest
		setupMocks  func()
		checkResult func(resp *model.LoginResponse, err error)
	}{
		{
			name: "Success - 正しい認証情報でトークンが発行される",
			req:  &model.LoginRequest{Email: activeUser.Email, Password: password},
			setupMocks: func() {
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, activeUser.Email).
					Return(activeUser, nil).Once()
				s.mockIdentityRepo.On("FindByProvider", mock.Anything, mock.Anything, model.AuthProviderLocal, activeUser.Email).
					Return(&model.Identity{UserID: activeUser.UserID, PasswordHash: &hash}, nil).Once()
			},
			checkResult: func(resp *model.LoginResponse, err error) {
				s.NoError(err)
				s.Require().NotNil(resp)
				s.NotEmpty(resp.AccessToken)
			},
		},
		{
			name: "Failure - ユーザーが存在しない",
			req:  &model.LoginRequest{Email: "nobody@example.com", Password: password},
			setupMocks: func() {
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, "nobody@example.com").
					Return(nil, model.ErrNotFound).Once()
			},
			checkResult: func(resp *model.LoginResponse, err error) {
				s.Nil(resp)
				s.assertAppErrorCode(err, "AUTHENTICATION_FAILED")
			},
		},
		{
			name: "Failure - パスワードが一致しない",
			req:  &model.LoginRequest{Email: activeUser.Email, Password: "wrong-password"},
			setupMocks: func() {
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, activeUser.Email).
					Return(activeUser, nil).Once()
				s.mockIdentityRepo.On("FindByProvider", mock.Anything, mock.Anything, model.AuthProviderLocal, activeUser.Email).
					Return(&model.Identity{UserID: activeUser.UserID, PasswordHash: &hash}, nil).Once()
			},
			checkResult: func(resp *model.LoginResponse, err error) {
				s.Nil(resp)
				s.assertAppErrorCode(err, "AUTHENTICATION_FAILED")
			},
		},
		{
			name: "Failure - ローカル認証情報がない",
			req:  &model.LoginRequest{Email: activeUser.Email, Password: password},
			setupMocks: func() {
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, activeUser.Email).
					Return(activeUser, nil).Once()
				s.mockIdentityRepo.On("FindByProvider", mock.Anything, mock.Anything, model.AuthProviderLocal, activeUser.Email).
					Return(&model.Identity{UserID: activeUser.UserID, PasswordHash: nil}, nil).Once()
			},
			checkResult: func(resp *model.LoginResponse, err error) {
				s.Nil(resp)
				s.assertAppErrorCode(err, "AUTHENTICATION_FAILED")
			},
		},
		{
			name: "Failure - アカウントが未アクティブ",
			req:  &model.LoginRequest{Email: "inactive@example.com", Password: password},
			setupMocks: func() {
				inactive := &model.UserProfile{UserID: uuid.New(), Email: "inactive@example.com", IsActive: false}
				s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, "inactive@example.com").
					Return(inactive, nil).Once()
				s.mockIdentityRepo.On("FindByProvider", mock.Anything, mock.Anything, model.AuthProviderLocal, "inactive@example.com").
					Return(&model.Identity{UserID: inactive.UserID, PasswordHash: &hash}, nil).Once()
			},
			checkResult: func(resp *model.LoginResponse, err error) {
				s.Nil(resp)
				s.assertAppErrorCode(err, "ACCOUNT_NOT_ACTIVE")
				s.ErrorIs(err, model.ErrForbidden)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMocks()

			resp, err := s.authService.Login(context.Background(), tc.req)

			tc.checkResult(resp, err)
			s.mockUserRepo.AssertExpectations(s.T())
			s.mockIdentityRepo.AssertExpectations(s.T())
		})
	}
}

func (s *AuthServiceTestSuite) TestRequestPasswordReset() {
	s.Run("Success - リセットメールが送信される", func() {
		s.SetupTest()
		user := &model.UserProfile{UserID: uuid.New(), Email: "tanaka@example.com"}

		s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, user.Email).
			Return(user, nil).Once()
		s.mockTokenRepo.On("CreatePasswordResetToken", mock.Anything, mock.Anything, mock.AnythingOfType("*model.PasswordResetToken")).
			Run(func(args mock.Arguments) {
				token := args.Get(2).(*model.PasswordResetToken)
				s.Equal(user.UserID, token.UserID)
				s.NotEmpty(token.Token)
			}).Return(nil).Once()
		s.mockMailer.On("Send", mock.Anything, user.Email, mock.Anything, mock.Anything).
			Return(nil).Once()

		err := s.authService.RequestPasswordReset(context.Background(), user.Email)

		s.NoError(err)
		s.mockTokenRepo.AssertExpectations(s.T())
		s.mockMailer.AssertExpectations(s.T())
	})

	s.Run("Success - 存在しないEmailでもエラーにしない", func() {
		s.SetupTest()
		s.mockUserRepo.On("FindByEmail", mock.Anything, mock.Anything, "nobody@example.com").
			Return(nil, model.ErrNotFound).Once()

		err := s.authService.RequestPasswordReset(context.Background(), "nobody@example.com")

		s.NoError(err)
		// 存在の有無を悟らせないため、メールは送らずに成功として扱う
		s.mockMailer.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func (s *AuthServiceTestSuite) TestResetPassword() {
	s.Run("Success - パスワードが更新される", func() {
		s.SetupTest()
		userID := uuid.New()

		s.mockTokenRepo.On("FindPasswordResetToken", mock.Anything, mock.Anything, "valid-token").
			Return(&model.PasswordResetToken{
				Token:     "valid-token",
				UserID:    userID,
				ExpiresAt: time.Now().Add(30 * time.Minute),
			}, nil).Once()
		s.mockIdentityRepo.On("UpdatePasswordHash", mock.Anything, mock.Anything, userID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				hash := args.Get(3).(string)
				s.NoError(bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password123")))
			}).Return(nil).Once()
		s.mockTokenRepo.On("DeletePasswordResetToken", mock.Anything, mock.Anything, "valid-token").
			Return(nil).Once()

		err := s.authService.ResetPassword(context.Background(), "valid-token", "new-password123")

		s.NoError(err)
		s.mockIdentityRepo.AssertExpectations(s.T())
		s.mockTokenRepo.AssertExpectations(s.T())
	})

	s.Run("Failure - トークンが無効", func() {
		s.SetupTest()
		s.mockTokenRepo.On("FindPasswordResetToken", mock.Anything, mock.Anything, "unknown-token").
			Return(nil, model.ErrNotFound).Once()

		err := s.authService.ResetPassword(context.Background(), "unknown-token", "new-password123")

		s.assertAppErrorCode(err, "INVALID_TOKEN")
	})

	s.Run("Failure - トークンが期限切れ", func() {
		s.SetupTest()
		s.mockTokenRepo.On("FindPasswordResetToken", mock.Anything, mock.Anything, "expired-token").
			Return(&model.PasswordResetToken{
				Token:     "expired-token",
				UserID:    uuid.New(),
				ExpiresAt: time.Now().Add(-1 * time.Minute),
			}, nil).Once()
		s.mockTokenRepo.On("DeletePasswordResetToken", mock.Anything, mock.Anything, "expired-token").
			Return(nil).Once()

		err := s.authService.ResetPassword(context.Background(), "expired-token", "new-password123")

		s.assertAppErrorCode(err, "INVALID_TOKEN")
		s.mockTokenRepo.AssertExpectations(s.T())
	})
}
