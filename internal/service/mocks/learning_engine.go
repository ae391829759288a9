package mocks

import (
	"context"

	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// LearningEngine は service.LearningEngine のモックです
type LearningEngine struct {
	mock.Mock
}

func (m *LearningEngine) StartDailySession(ctx context.Context, profile *model.UserProfile) *model.StudySession {
	args := m.Called(ctx, profile)
	var session *model.StudySession
	if args.Get(0) != nil {
		session = args.Get(0).(*model.StudySession)
	}
	return session
}

func (m *LearningEngine) GetActiveSession(userID uuid.UUID) *model.StudySession {
	args := m.Called(userID)
	var session *model.StudySession
	if args.Get(0) != nil {
		session = args.Get(0).(*model.StudySession)
	}
	return session
}

func (m *LearningEngine) UpdateSessionStatus(userID uuid.UUID, status model.SessionStatus) bool {
	args := m.Called(userID, status)
	return args.Bool(0)
}

func (m *LearningEngine) CompleteSession(userID uuid.UUID) *model.StudySession {
	args := m.Called(userID)
	var session *model.StudySession
	if args.Get(0) != nil {
		session = args.Get(0).(*model.StudySession)
	}
	return session
}

func (m *LearningEngine) AddActivityToSession(userID uuid.UUID, activity model.LearningActivity) bool {
	args := m.Called(userID, activity)
	return args.Bool(0)
}

func (m *LearningEngine) ExecuteSessionActivities(ctx context.Context, userID uuid.UUID) []*model.ActivityResult {
	args := m.Called(ctx, userID)
	var results []*model.ActivityResult
	if args.Get(0) != nil {
		results = args.Get(0).([]*model.ActivityResult)
	}
	return results
}

func (m *LearningEngine) GenerateLearningPlan(ctx context.Context, profile *model.UserProfile) *model.DailyPlan {
	args := m.Called(ctx, profile)
	var plan *model.DailyPlan
	if args.Get(0) != nil {
		plan = args.Get(0).(*model.DailyPlan)
	}
	return plan
}

func (m *LearningEngine) ExecuteLearningActivity(activity *model.LearningActivity) *model.ActivityResult {
	args := m.Called(activity)
	var result *model.ActivityResult
	if args.Get(0) != nil {
		result = args.Get(0).(*model.ActivityResult)
	}
	return result
}

func (m *LearningEngine) ProcessActivityCompletion(ctx context.Context, profile *model.UserProfile, activity *model.LearningActivity, result *model.ActivityResult) error {
	args := m.Called(ctx, profile, activity, result)
	return args.Error(0)
}

func (m *LearningEngine) PredictActivityPerformance(userID uuid.UUID, activity *model.LearningActivity) float64 {
	args := m.Called(userID, activity)
	return args.Get(0).(float64)
}

func (m *LearningEngine) CalculateCurriculumBalance(plan *model.DailyPlan) model.BalanceMetrics {
	args := m.Called(plan)
	return args.Get(0).(model.BalanceMetrics)
}

func (m *LearningEngine) GetWeaknessFocusRecommendations(profile *model.UserProfile) []string {
	args := m.Called(profile)
	var recs []string
	if args.Get(0) != nil {
		recs = args.Get(0).([]string)
	}
	return recs
}

func (m *LearningEngine) GetComprehensiveUserStatus(ctx context.Context, profile *model.UserProfile) *model.UserStatus {
	args := m.Called(ctx, profile)
	var status *model.UserStatus
	if args.Get(0) != nil {
		status = args.Get(0).(*model.UserStatus)
	}
	return status
}
