package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go_bilingual_tutor/internal/config"
	"go_bilingual_tutor/internal/i18n"
	"go_bilingual_tutor/internal/model"
	repomocks "go_bilingual_tutor/internal/repository/mocks"
	"go_bilingual_tutor/internal/service"
	svcmocks "go_bilingual_tutor/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type LearningEngineTestSuite struct {
	suite.Suite
	engine     service.LearningEngine
	vocab      service.VocabularyTracker
	progress   service.ProgressTracker
	history    service.HistoryIntegrator
	resultRepo *repomocks.ResultRepository
	wordRepo   *repomocks.WordRepository
	userRepo   *repomocks.UserRepository
	mailer     *svcmocks.Mailer
	profile    *model.UserProfile
	ctx        context.Context
}

func (s *LearningEngineTestSuite) SetupTest() {
	cfg := &config.Config{}
	cfg.App.DefaultMinutes = 60
	cfg.App.HistoryDays = 30
	cfg.App.InsightLimit = 50

	msgs := i18n.NewZhCN()
	s.progress = service.NewProgressTracker(msgs)
	s.vocab = service.NewVocabularyTracker(msgs)
	s.history = service.NewHistoryIntegrator(msgs)
	s.resultRepo = new(repomocks.ResultRepository)
	s.wordRepo = new(repomocks.WordRepository)
	s.userRepo = new(repomocks.UserRepository)
	s.mailer = new(svcmocks.Mailer)

	// DB読み出しは個別テストで必要にならない限り空とみなす
	s.resultRepo.On("FindByUserSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	s.resultRepo.On("FindRecentByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	s.engine = service.NewLearningEngine(
		nil,
		cfg,
		service.NewTimeAllocator(),
		s.progress,
		s.vocab,
		s.history,
		service.NewWeaknessPrioritizer(msgs),
		service.NewContentGenerator(),
		msgs,
		s.mailer,
		s.resultRepo,
		s.wordRepo,
		s.userRepo,
	)

	s.profile = &model.UserProfile{
		UserID:         uuid.New(),
		Name:           "田中",
		Email:          "tanaka@example.com",
		EnglishLevel:   "CET-4",
		JapaneseLevel:  "N5",
		DailyStudyTime: 60,
	}
	s.ctx = context.Background()
}

func (s *LearningEngineTestSuite) TestSessionLifecycle() {
	session := s.engine.StartDailySession(s.ctx, s.profile)
	s.Require().NotNil(session)
	s.Equal(model.SessionPlanned, session.Status)
	s.Equal(s.profile.UserID, session.UserID)
	s.Require().NotNil(session.Plan)
	// 60分の配分では復習・英語・日本語の3アクティビティになる
	s.Len(session.Plan.Activities, 3)
	s.Len(session.Plan.Objectives, 3)

	s.Same(session, s.engine.GetActiveSession(s.profile.UserID))

	s.True(s.engine.UpdateSessionStatus(s.profile.UserID, model.SessionInProgress))
	s.Equal(model.SessionInProgress, session.Status)

	added := s.engine.AddActivityToSession(s.profile.UserID, model.LearningActivity{
		ActivityID:    uuid.NewString(),
		Type:          model.ActivityListening,
		Language:      model.LanguageJapanese,
		EstimatedTime: 10,
	})
	s.True(added)
	s.Len(session.Plan.Activities, 4)

	completed := s.engine.CompleteSession(s.profile.UserID)
	s.Require().NotNil(completed)
	s.Equal(model.SessionCompleted, completed.Status)
	s.Require().NotNil(completed.EndedAt)

	// 完了後は管理対象から外れる
	s.Nil(s.engine.GetActiveSession(s.profile.UserID))
	s.False(s.engine.UpdateSessionStatus(s.profile.UserID, model.SessionInProgress))
	s.Nil(s.engine.CompleteSession(s.profile.UserID))
}

func (s *LearningEngineTestSuite) TestSessionRestartOverwrites() {
	first := s.engine.StartDailySession(s.ctx, s.profile)
	second := s.engine.StartDailySession(s.ctx, s.profile)

	s.NotEqual(first.SessionID, second.SessionID)
	s.Same(second, s.engine.GetActiveSession(s.profile.UserID))
}

func (s *LearningEngineTestSuite) TestExecuteLearningActivity() {
	tests := []struct {
		name       string
		actType    model.ActivityType
		wantScore  float64
		wantErrors bool
	}{
		{"復習は高スコアで誤答なし", model.ActivityReview, 0.9, false},
		{"文法はやや低スコアで誤答あり", model.ActivityGrammar, 0.65, true},
		{"語彙は基準スコア", model.ActivityVocabulary, 0.75, true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			activity := &model.LearningActivity{
				ActivityID:      uuid.NewString(),
				Type:            tt.actType,
				Language:        model.LanguageEnglish,
				EstimatedTime:   15,
				SkillsPracticed: []model.Skill{model.SkillVocabulary},
			}

			result := s.engine.ExecuteLearningActivity(activity)

			s.InDelta(tt.wantScore, result.Score, 1e-9)
			s.Equal(activity.ActivityID, result.ActivityID)
			s.Equal(tt.actType, result.ActivityType)
			s.Equal(15, result.TimeSpent)
			s.NotEmpty(result.Feedback)
			if tt.wantErrors {
				s.NotEmpty(result.Errors)
			} else {
				s.Empty(result.Errors)
			}
		})
	}
}

func (s *LearningEngineTestSuite) TestExecuteSessionActivities() {
	s.Nil(s.engine.ExecuteSessionActivities(s.ctx, s.profile.UserID), "セッションがなければnil")

	session := s.engine.StartDailySession(s.ctx, s.profile)
	results := s.engine.ExecuteSessionActivities(s.ctx, s.profile.UserID)

	s.Require().Len(results, len(session.Plan.Activities))
	for i, result := range results {
		s.Equal(s.profile.UserID, result.UserID)
		s.Equal(session.Plan.Activities[i].ActivityID, result.ActivityID)
	}
}

func (s *LearningEngineTestSuite) TestGenerateLearningPlan_Base() {
	plan := s.engine.GenerateLearningPlan(s.ctx, s.profile)

	s.Require().NotNil(plan)
	s.Equal(s.profile.UserID, plan.UserID)
	s.Equal(60, plan.Allocation.TotalMinutes)
	s.Len(plan.Activities, 3)

	// 復習は両言語にまたがるmixed扱い
	s.Equal(model.ActivityReview, plan.Activities[0].Type)
	s.Equal(model.LanguageMixed, plan.Activities[0].Language)
	s.Equal(model.LanguageEnglish, plan.Activities[1].Language)
	s.Equal(model.LanguageJapanese, plan.Activities[2].Language)
}

func (s *LearningEngineTestSuite) TestGenerateLearningPlan_DefaultMinutes() {
	s.profile.DailyStudyTime = 0
	plan := s.engine.GenerateLearningPlan(s.ctx, s.profile)
	s.Equal(60, plan.Allocation.TotalMinutes)
}

func (s *LearningEngineTestSuite) TestGenerateLearningPlan_WeaknessAdjustment() {
	s.profile.WeakAreas = []model.WeakArea{{
		Skill:        model.SkillGrammar,
		Language:     model.LanguageEnglish,
		Severity:     0.8,
		IdentifiedAt: time.Now().AddDate(0, 0, -3),
	}}

	plan := s.engine.GenerateLearningPlan(s.ctx, s.profile)

	s.Require().NotNil(plan)
	// 弱点調整で目標とアクティビティが追加される
	s.Greater(len(plan.Objectives), 3)
	s.Greater(len(plan.Activities), 3)
	// 英語アクティビティの主練習スキルは最も深刻な弱点になる
	s.Equal(model.ActivityGrammar, plan.Activities[1].Type)
	s.Contains(plan.Activities[1].SkillsPracticed, model.SkillGrammar)
}

func (s *LearningEngineTestSuite) TestProcessActivityCompletion() {
	activity := &model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            model.ActivityVocabulary,
		Language:        model.LanguageEnglish,
		EstimatedTime:   20,
		SkillsPracticed: []model.Skill{model.SkillVocabulary},
	}
	result := &model.ActivityResult{
		ActivityID:      activity.ActivityID,
		ActivityType:    activity.Type,
		Language:        activity.Language,
		SkillsPracticed: activity.SkillsPracticed,
		Score:           0.9,
		TimeSpent:       20,
		Words:           []string{"apple"},
	}

	s.resultRepo.On("Create", mock.Anything, mock.Anything, result).Return(nil).Once()
	s.wordRepo.On("FindByWord", mock.Anything, mock.Anything, s.profile.UserID, model.LanguageEnglish, "apple").
		Return(nil, gorm.ErrRecordNotFound).Once()
	s.wordRepo.On("Upsert", mock.Anything, mock.Anything, mock.AnythingOfType("*model.VocabularyWord")).Return(nil).Once()
	s.userRepo.On("Update", mock.Anything, mock.Anything, s.profile.UserID, mock.Anything).Return(nil)

	err := s.engine.ProcessActivityCompletion(s.ctx, s.profile, activity, result)

	s.Require().NoError(err)
	s.Equal(s.profile.UserID, result.UserID)
	s.NotEqual(uuid.Nil, result.ResultID)
	s.False(result.CompletedAt.IsZero())

	// 進捗トラッカーと語彙トラッカーの両方へ反映される
	s.Len(s.progress.GetHistory(s.profile.UserID), 1)
	s.Equal(1, s.vocab.MasteredCount(s.profile.UserID, model.LanguageEnglish))

	s.resultRepo.AssertExpectations(s.T())
	s.wordRepo.AssertExpectations(s.T())
}

func (s *LearningEngineTestSuite) TestProcessActivityCompletion_CreateError() {
	dbErr := errors.New("connection reset")
	s.resultRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(dbErr).Once()

	activity := &model.LearningActivity{
		ActivityID: uuid.NewString(),
		Type:       model.ActivityReading,
		Language:   model.LanguageEnglish,
	}
	result := &model.ActivityResult{ActivityID: activity.ActivityID, Language: activity.Language, Score: 0.8}

	err := s.engine.ProcessActivityCompletion(s.ctx, s.profile, activity, result)

	s.Require().Error(err)
	s.ErrorIs(err, dbErr)
}

func (s *LearningEngineTestSuite) TestProcessActivityCompletion_RefreshesWeakAreas() {
	s.resultRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
	s.userRepo.On("Update", mock.Anything, mock.Anything, s.profile.UserID, mock.Anything).Return(nil)

	// 同じ (スキル, 言語) で低スコアが3回続くと弱点になる
	for i := 0; i < 3; i++ {
		activity := &model.LearningActivity{
			ActivityID:      uuid.NewString(),
			Type:            model.ActivityGrammar,
			Language:        model.LanguageEnglish,
			EstimatedTime:   10,
			SkillsPracticed: []model.Skill{model.SkillGrammar},
		}
		result := &model.ActivityResult{
			ActivityID:      activity.ActivityID,
			ActivityType:    activity.Type,
			Language:        activity.Language,
			SkillsPracticed: activity.SkillsPracticed,
			Score:           0.4,
			TimeSpent:       10,
		}
		s.Require().NoError(s.engine.ProcessActivityCompletion(s.ctx, s.profile, activity, result))
	}

	s.Require().Len(s.profile.WeakAreas, 1)
	area := s.profile.WeakAreas[0]
	s.Equal(model.SkillGrammar, area.Skill)
	s.Equal(model.LanguageEnglish, area.Language)
	s.InDelta(0.6, area.Severity, 1e-9)
	s.False(area.IdentifiedAt.IsZero())
}

func (s *LearningEngineTestSuite) TestProcessActivityCompletion_LevelAdvancement() {
	// N5の必要語彙数を高スコアで習得済みにしておく
	for i := 0; i < 800; i++ {
		s.vocab.RecordWordLearned(s.profile.UserID, fmt.Sprintf("単語%d", i), model.LanguageJapanese, 0.9)
	}
	s.profile.Preferences.NotifyByEmail = true

	s.resultRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	s.userRepo.On("Update", mock.Anything, mock.Anything, s.profile.UserID,
		map[string]interface{}{"japanese_level": "N4"}).Return(nil).Once()
	s.userRepo.On("Update", mock.Anything, mock.Anything, s.profile.UserID, mock.Anything).Return(nil)
	s.mailer.On("Send", mock.Anything, s.profile.Email, mock.Anything, mock.Anything).Return(nil).Once()

	activity := &model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            model.ActivityVocabulary,
		Language:        model.LanguageJapanese,
		EstimatedTime:   15,
		SkillsPracticed: []model.Skill{model.SkillVocabulary},
	}
	result := &model.ActivityResult{
		ActivityID:      activity.ActivityID,
		ActivityType:    activity.Type,
		Language:        activity.Language,
		SkillsPracticed: activity.SkillsPracticed,
		Score:           0.9,
		TimeSpent:       15,
	}

	err := s.engine.ProcessActivityCompletion(s.ctx, s.profile, activity, result)

	s.Require().NoError(err)
	s.Equal("N4", s.profile.JapaneseLevel)
	s.userRepo.AssertExpectations(s.T())
	s.mailer.AssertExpectations(s.T())

	notifications := s.vocab.GetPendingNotifications(s.profile.UserID)
	s.Require().Len(notifications, 1)
	s.Equal("N5", notifications[0].FromLevel)
	s.Equal("N4", notifications[0].ToLevel)
}

func (s *LearningEngineTestSuite) TestPredictActivityPerformance() {
	activity := &model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            model.ActivityReading,
		Language:        model.LanguageEnglish,
		SkillsPracticed: []model.Skill{model.SkillReading},
	}
	// 履歴がなければデフォルトの予測値を返す
	s.InDelta(0.7, s.engine.PredictActivityPerformance(s.profile.UserID, activity), 1e-9)
}

func (s *LearningEngineTestSuite) TestGetWeaknessFocusRecommendations() {
	recommendations := s.engine.GetWeaknessFocusRecommendations(s.profile)
	s.NotEmpty(recommendations)
}

func (s *LearningEngineTestSuite) TestGetComprehensiveUserStatus() {
	s.resultRepo.On("CountByUser", mock.Anything, mock.Anything, s.profile.UserID).Return(int64(5), nil).Once()
	s.wordRepo.On("CountMastered", mock.Anything, mock.Anything, s.profile.UserID, mock.Anything).Return(int64(0), nil)

	status := s.engine.GetComprehensiveUserStatus(s.ctx, s.profile)

	s.Require().NotNil(status)
	s.Equal(s.profile.UserID, status.UserID)
	s.Equal(int64(5), status.TotalResults)
	s.Require().Contains(status.Vocabulary, model.LanguageEnglish)
	s.Require().Contains(status.Vocabulary, model.LanguageJapanese)
	s.Equal("CET-4", status.Vocabulary[model.LanguageEnglish].CurrentLevel)
	s.Equal(4500, status.Vocabulary[model.LanguageEnglish].RequiredCount)
	s.Equal("N5", status.Vocabulary[model.LanguageJapanese].CurrentLevel)
	s.False(status.GeneratedAt.IsZero())
}

func (s *LearningEngineTestSuite) TestProcessActivityCompletion_GeneratesInsights() {
	s.resultRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(6)
	s.userRepo.On("Update", mock.Anything, mock.Anything, s.profile.UserID, mock.Anything).Return(nil)

	// 同一スキルで6件、後半に下降する履歴を積むとインサイトに弱点が現れる
	scores := []float64{0.9, 0.9, 0.9, 0.5, 0.5, 0.5}
	for _, score := range scores {
		activity := &model.LearningActivity{
			ActivityID:      uuid.NewString(),
			Type:            model.ActivityGrammar,
			Language:        model.LanguageEnglish,
			EstimatedTime:   10,
			SkillsPracticed: []model.Skill{model.SkillGrammar},
		}
		result := &model.ActivityResult{
			ActivityID:      activity.ActivityID,
			ActivityType:    activity.Type,
			Language:        activity.Language,
			SkillsPracticed: activity.SkillsPracticed,
			Score:           score,
			TimeSpent:       10,
			CompletedAt:     time.Now(),
		}
		s.Require().NoError(s.engine.ProcessActivityCompletion(s.ctx, s.profile, activity, result))
	}

	insight := s.history.GetPerformanceInsights(s.profile.UserID)
	s.Require().NotNil(insight, "完了処理の後はインサイトが参照できる")
	s.Equal(s.profile.UserID, insight.UserID)
	s.NotEmpty(insight.Weaknesses)
}

func (s *LearningEngineTestSuite) TestGenerateLearningPlan_StoredHistory() {
	// メモリ上の履歴が空でも、保存済みの結果から履歴分析が走る
	cfg := &config.Config{}
	cfg.App.DefaultMinutes = 60
	cfg.App.HistoryDays = 30
	cfg.App.InsightLimit = 50

	msgs := i18n.NewZhCN()
	resultRepo := new(repomocks.ResultRepository)

	var stored []*model.ActivityResult
	for i := 0; i < 4; i++ {
		stored = append(stored, &model.ActivityResult{
			ResultID:        uuid.New(),
			UserID:          s.profile.UserID,
			ActivityType:    model.ActivityReading,
			Language:        model.LanguageEnglish,
			SkillsPracticed: []model.Skill{model.SkillReading},
			Score:           0.9,
			TimeSpent:       10,
			CompletedAt:     time.Now().AddDate(0, 0, -i),
		})
	}
	resultRepo.On("FindByUserSince", mock.Anything, mock.Anything, s.profile.UserID, mock.Anything).
		Return(stored, nil).Once()

	history := service.NewHistoryIntegrator(msgs)
	engine := service.NewLearningEngine(
		nil,
		cfg,
		service.NewTimeAllocator(),
		service.NewProgressTracker(msgs),
		service.NewVocabularyTracker(msgs),
		history,
		service.NewWeaknessPrioritizer(msgs),
		service.NewContentGenerator(),
		msgs,
		s.mailer,
		resultRepo,
		s.wordRepo,
		s.userRepo,
	)

	plan := engine.GenerateLearningPlan(s.ctx, s.profile)

	s.Require().NotNil(plan)
	resultRepo.AssertExpectations(s.T())

	// 分析されたパターンが予測にも反映される
	predicted := engine.PredictActivityPerformance(s.profile.UserID, &model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            model.ActivityReading,
		Language:        model.LanguageEnglish,
		SkillsPracticed: []model.Skill{model.SkillReading},
	})
	s.InDelta(0.9, predicted, 1e-9)
}

func (s *LearningEngineTestSuite) TestGetComprehensiveUserStatus_RehydratesVocabulary() {
	s.resultRepo.On("CountByUser", mock.Anything, mock.Anything, s.profile.UserID).Return(int64(0), nil).Once()

	// 英語はDB側に習得済み語彙が2件、日本語はなし
	s.wordRepo.On("CountMastered", mock.Anything, mock.Anything, s.profile.UserID, model.LanguageEnglish).
		Return(int64(2), nil).Once()
	s.wordRepo.On("CountMastered", mock.Anything, mock.Anything, s.profile.UserID, model.LanguageJapanese).
		Return(int64(0), nil).Once()
	s.wordRepo.On("FindByUserAndLanguage", mock.Anything, mock.Anything, s.profile.UserID, model.LanguageEnglish).
		Return([]*model.VocabularyWord{
			{WordID: uuid.New(), UserID: s.profile.UserID, Language: model.LanguageEnglish, Word: "research", Mastered: true, LastScore: 0.9},
			{WordID: uuid.New(), UserID: s.profile.UserID, Language: model.LanguageEnglish, Word: "analysis", Mastered: true, LastScore: 0.6},
		}, nil).Once()

	status := s.engine.GetComprehensiveUserStatus(s.ctx, s.profile)

	s.Require().NotNil(status)
	// 習得済みフラグ付きの語はスコアが低くても習得扱いで読み戻される
	s.Equal(2, status.Vocabulary[model.LanguageEnglish].MasteredCount)
	s.Equal(0, status.Vocabulary[model.LanguageJapanese].MasteredCount)
	s.wordRepo.AssertExpectations(s.T())
}

func TestLearningEngineTestSuite(t *testing.T) {
	suite.Run(t, new(LearningEngineTestSuite))
}
