package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go_bilingual_tutor/internal/config"
	"go_bilingual_tutor/internal/i18n"
	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LearningEngine は全コンポーネントを束ねる学習オーケストレータです。
// 計画生成はメモリ上のトラッカーに基づき、完了処理でDBへ書き込みます。
type LearningEngine interface {
	StartDailySession(ctx context.Context, profile *model.UserProfile) *model.StudySession
	GetActiveSession(userID uuid.UUID) *model.StudySession
	UpdateSessionStatus(userID uuid.UUID, status model.SessionStatus) bool
	CompleteSession(userID uuid.UUID) *model.StudySession
	AddActivityToSession(userID uuid.UUID, activity model.LearningActivity) bool
	ExecuteSessionActivities(ctx context.Context, userID uuid.UUID) []*model.ActivityResult

	GenerateLearningPlan(ctx context.Context, profile *model.UserProfile) *model.DailyPlan
	ExecuteLearningActivity(activity *model.LearningActivity) *model.ActivityResult
	ProcessActivityCompletion(ctx context.Context, profile *model.UserProfile, activity *model.LearningActivity, result *model.ActivityResult) error

	PredictActivityPerformance(userID uuid.UUID, activity *model.LearningActivity) float64
	CalculateCurriculumBalance(plan *model.DailyPlan) model.BalanceMetrics
	GetWeaknessFocusRecommendations(profile *model.UserProfile) []string
	GetComprehensiveUserStatus(ctx context.Context, profile *model.UserProfile) *model.UserStatus
}

type learningEngine struct {
	db  *gorm.DB
	cfg *config.Config

	allocator TimeAllocator
	progress  ProgressTracker
	vocab     VocabularyTracker
	history   HistoryIntegrator
	weakness  WeaknessPrioritizer
	content   ContentSource
	msgs      i18n.Localizer
	mailer    Mailer

	resultRepo repository.ResultRepository
	wordRepo   repository.WordRepository
	userRepo   repository.UserRepository

	// ユーザーごとのアクティブセッション。同一ユーザーの再開始は上書きします
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.StudySession
}

func NewLearningEngine(
	db *gorm.DB,
	cfg *config.Config,
	allocator TimeAllocator,
	progress ProgressTracker,
	vocab VocabularyTracker,
	history HistoryIntegrator,
	weakness WeaknessPrioritizer,
	content ContentSource,
	msgs i18n.Localizer,
	mailer Mailer,
	resultRepo repository.ResultRepository,
	wordRepo repository.WordRepository,
	userRepo repository.UserRepository,
) LearningEngine {
	return &learningEngine{
		db:         db,
		cfg:        cfg,
		allocator:  allocator,
		progress:   progress,
		vocab:      vocab,
		history:    history,
		weakness:   weakness,
		content:    content,
		msgs:       msgs,
		mailer:     mailer,
		resultRepo: resultRepo,
		wordRepo:   wordRepo,
		userRepo:   userRepo,
		sessions:   make(map[uuid.UUID]*model.StudySession),
	}
}

// StartDailySession は当日の学習計画を生成してセッションを開始します
func (e *learningEngine) StartDailySession(ctx context.Context, profile *model.UserProfile) *model.StudySession {
	plan := e.GenerateLearningPlan(ctx, profile)

	session := &model.StudySession{
		SessionID: uuid.New(),
		UserID:    profile.UserID,
		Plan:      plan,
		Status:    model.SessionPlanned,
		StartedAt: time.Now(),
	}

	e.mu.Lock()
	e.sessions[profile.UserID] = session
	e.mu.Unlock()

	return session
}

func (e *learningEngine) GetActiveSession(userID uuid.UUID) *model.StudySession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[userID]
}

func (e *learningEngine) UpdateSessionStatus(userID uuid.UUID, status model.SessionStatus) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessions[userID]
	if !ok {
		return false
	}
	session.Status = status
	return true
}

// CompleteSession はセッションを完了状態にして管理対象から外します
func (e *learningEngine) CompleteSession(userID uuid.UUID) *model.StudySession {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessions[userID]
	if !ok {
		return nil
	}
	now := time.Now()
	session.Status = model.SessionCompleted
	session.EndedAt = &now
	delete(e.sessions, userID)
	return session
}

func (e *learningEngine) AddActivityToSession(userID uuid.UUID, activity model.LearningActivity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessions[userID]
	if !ok || session.Plan == nil {
		return false
	}
	session.Plan.Activities = append(session.Plan.Activities, activity)
	return true
}

// ExecuteSessionActivities はアクティブセッションの全アクティビティを順に実行します
func (e *learningEngine) ExecuteSessionActivities(ctx context.Context, userID uuid.UUID) []*model.ActivityResult {
	session := e.GetActiveSession(userID)
	if session == nil || session.Plan == nil {
		return nil
	}

	results := make([]*model.ActivityResult, 0, len(session.Plan.Activities))
	for i := range session.Plan.Activities {
		result := e.ExecuteLearningActivity(&session.Plan.Activities[i])
		result.UserID = userID
		results = append(results, result)
	}
	return results
}

// GenerateLearningPlan はプロファイルと履歴から当日の学習計画を組み立てます。
// 履歴があれば適応計画を、弱点があればさらに弱点調整を適用します。
// 付加的な調整が効かない場合でもベース計画は必ず返します。
func (e *learningEngine) GenerateLearningPlan(ctx context.Context, profile *model.UserProfile) *model.DailyPlan {
	basePlan := e.buildBasePlan(profile)

	history := e.progress.GetHistory(profile.UserID)
	if len(history) == 0 {
		// プロセス再起動後はメモリ上の履歴が空なのでDBから読み直す
		since := time.Now().Add(-time.Duration(e.cfg.App.HistoryDays) * 24 * time.Hour)
		stored, err := e.resultRepo.FindByUserSince(ctx, e.db, profile.UserID, since)
		if err != nil {
			middleware.GetLogger(ctx).Warn("failed to load stored history", "error", err)
		} else {
			history = stored
		}
	}
	if len(history) > 0 {
		timeframe := time.Duration(e.cfg.App.HistoryDays) * 24 * time.Hour
		patterns := e.history.AnalyzePerformanceHistory(profile.UserID, history, timeframe)
		adapted := e.history.GenerateAdaptivePlan(profile, patterns, basePlan)

		if len(profile.WeakAreas) > 0 {
			prioritized, balance := e.weakness.PrioritizeWeaknessesWithBalance(profile, profile.WeakAreas, adapted)
			return e.weakness.AdjustCurriculumForWeaknesses(adapted, prioritized, balance)
		}
		return adapted
	}

	if len(profile.WeakAreas) > 0 {
		prioritized, balance := e.weakness.PrioritizeWeaknessesWithBalance(profile, profile.WeakAreas, basePlan)
		return e.weakness.AdjustCurriculumForWeaknesses(basePlan, prioritized, balance)
	}

	return basePlan
}

func (e *learningEngine) buildBasePlan(profile *model.UserProfile) *model.DailyPlan {
	minutes := profile.DailyStudyTime
	if minutes <= 0 {
		minutes = e.cfg.App.DefaultMinutes
	}
	allocation := e.allocator.AllocateStudyTime(minutes)

	var activities []model.LearningActivity
	var objectives []string

	if allocation.ReviewMinutes > 0 {
		activities = append(activities, e.reviewActivity(allocation.ReviewMinutes))
		objectives = append(objectives, e.msgs.ObjectiveReview())
	}
	if allocation.EnglishMinutes > 0 {
		activities = append(activities, e.languageActivity(profile, model.LanguageEnglish, allocation.EnglishMinutes))
		objectives = append(objectives, e.msgs.ObjectiveImproveLanguage(model.LanguageEnglish, profile.EnglishLevel))
	}
	if allocation.JapaneseMinutes > 0 {
		activities = append(activities, e.languageActivity(profile, model.LanguageJapanese, allocation.JapaneseMinutes))
		objectives = append(objectives, e.msgs.ObjectiveImproveLanguage(model.LanguageJapanese, profile.JapaneseLevel))
	}

	return &model.DailyPlan{
		PlanID:     uuid.New(),
		UserID:     profile.UserID,
		Date:       time.Now(),
		Allocation: allocation,
		Activities: activities,
		Objectives: objectives,
		CreatedAt:  time.Now(),
	}
}

// reviewActivity は間隔反復の復習アクティビティ。両言語にまたがるため言語はmixedです
func (e *learningEngine) reviewActivity(minutes int) model.LearningActivity {
	return model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            model.ActivityReview,
		Language:        model.LanguageMixed,
		Title:           e.msgs.ReviewActivityTitle(),
		EstimatedTime:   minutes,
		Difficulty:      0.5,
		SkillsPracticed: []model.Skill{model.SkillVocabulary, model.SkillGrammar},
	}
}

// languageActivity は言語別の学習アクティビティを作成します。
// 主練習スキルはその言語で最も深刻な弱点から決めます（弱点がなければ語彙）。
func (e *learningEngine) languageActivity(profile *model.UserProfile, lang model.Language, minutes int) model.LearningActivity {
	level := profile.Level(lang)

	primarySkill := model.SkillVocabulary
	maxSeverity := -1.0
	for _, w := range profile.WeakAreas {
		if w.Language == lang && w.Severity > maxSeverity {
			primarySkill = w.Skill
			maxSeverity = w.Severity
		}
	}

	activityType := model.ActivityVocabulary
	if primarySkill != model.SkillVocabulary {
		activityType = model.ActivityGrammar
	}

	title := e.msgs.StudyActivityTitle(lang)
	contentID := ""
	contents := e.content.GenerateLevelAppropriateContent(profile, lang, model.ActivityReading)
	if len(contents) > 0 {
		title = contents[0].Title
		contentID = contents[0].ContentID
	}

	return model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            activityType,
		Language:        lang,
		Title:           title,
		ContentID:       contentID,
		EstimatedTime:   minutes,
		Difficulty:      levelDifficulty(lang, level),
		SkillsPracticed: []model.Skill{primarySkill, model.SkillReading},
	}
}

// ExecuteLearningActivity はアクティビティ実行をシミュレートして結果を返します。
// 復習は成功しやすく、文法はやや難しい想定のスコアを付けます。
func (e *learningEngine) ExecuteLearningActivity(activity *model.LearningActivity) *model.ActivityResult {
	baseScore := 0.75

	var score float64
	switch activity.Type {
	case model.ActivityReview:
		score = minFloat(0.95, baseScore+0.15)
	case model.ActivityGrammar:
		score = baseScore - 0.1
		if score < 0.5 {
			score = 0.5
		}
	default:
		score = baseScore
	}

	feedback := e.msgs.Feedback(score)
	if score < 0.7 {
		feedback += e.msgs.FeedbackHint(activity.Type)
	}

	var errs []string
	if score < 0.8 {
		errs = e.msgs.SimulatedErrors(activity.Language, activity.Type)
	}

	return &model.ActivityResult{
		ResultID:        uuid.New(),
		ActivityID:      activity.ActivityID,
		ActivityType:    activity.Type,
		Language:        activity.Language,
		SkillsPracticed: append([]model.Skill(nil), activity.SkillsPracticed...),
		Score:           score,
		TimeSpent:       activity.EstimatedTime,
		Errors:          errs,
		Feedback:        feedback,
		CompletedAt:     time.Now(),
	}
}

// ProcessActivityCompletion は完了結果を各コンポーネントへ伝搬し、DBへ書き込みます。
// 結果本体の永続化失敗のみエラーとし、周辺コンポーネントの失敗はログに留めます。
func (e *learningEngine) ProcessActivityCompletion(ctx context.Context, profile *model.UserProfile, activity *model.LearningActivity, result *model.ActivityResult) error {
	logger := middleware.GetLogger(ctx)

	result.UserID = profile.UserID
	if result.ResultID == uuid.Nil {
		result.ResultID = uuid.New()
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	e.progress.RecordPerformance(profile.UserID, activity, result)

	if err := e.resultRepo.Create(ctx, e.db, result); err != nil {
		return fmt.Errorf("learningEngine.ProcessActivityCompletion: %w", err)
	}

	// 語彙アクティビティなら出題単語を語彙トラッカーへ反映し、DBにも書き込む
	for _, word := range result.Words {
		e.vocab.RecordWordLearned(profile.UserID, word, result.Language, result.Score)
		if err := e.persistWord(ctx, profile.UserID, result.Language, word, result.Score); err != nil {
			logger.Warn("failed to persist vocabulary word", "word", word, "error", err)
		}
	}

	e.checkLevelAdvancement(ctx, profile, result.Language)
	e.refreshWeakAreas(ctx, profile)
	e.refreshInsights(ctx, profile.UserID)

	return nil
}

// refreshInsights は保存済みの直近結果から学習インサイトを再生成します
func (e *learningEngine) refreshInsights(ctx context.Context, userID uuid.UUID) {
	logger := middleware.GetLogger(ctx)

	recent, err := e.resultRepo.FindRecentByUser(ctx, e.db, userID, e.cfg.App.InsightLimit)
	if err != nil {
		logger.Warn("failed to load recent results for insights", "error", err)
		return
	}
	if len(recent) == 0 {
		recent = e.progress.GetHistory(userID)
	}
	e.history.RecognizeLearningPatterns(userID, recent)
}

// persistWord は単語の習得状態をupsertします。一度習得した単語は未習得に戻しません
func (e *learningEngine) persistWord(ctx context.Context, userID uuid.UUID, lang model.Language, word string, score float64) error {
	mastered := score >= 0.8
	reviewCount := 1
	if existing, err := e.wordRepo.FindByWord(ctx, e.db, userID, lang, word); err == nil {
		mastered = mastered || existing.Mastered
		reviewCount = existing.ReviewCount + 1
	}

	return e.wordRepo.Upsert(ctx, e.db, &model.VocabularyWord{
		WordID:      uuid.New(),
		UserID:      userID,
		Language:    lang,
		Word:        word,
		Mastered:    mastered,
		ReviewCount: reviewCount,
		LastScore:   score,
	})
}

// checkLevelAdvancement は昇格条件を満たしていればレベルを進め、本人へ通知します
func (e *learningEngine) checkLevelAdvancement(ctx context.Context, profile *model.UserProfile, lang model.Language) {
	if !lang.Valid() {
		return
	}
	logger := middleware.GetLogger(ctx)

	if !e.vocab.SuggestLevelAdvancement(profile.UserID, lang) {
		return
	}

	oldLevel := profile.Level(lang)
	newLevel := e.vocab.AdvanceLevel(profile.UserID, lang)
	if newLevel == oldLevel {
		// 既に最上位レベル
		return
	}
	profile.SetLevel(lang, newLevel)

	column := "english_level"
	if lang == model.LanguageJapanese {
		column = "japanese_level"
	}
	if err := e.userRepo.Update(ctx, e.db, profile.UserID, map[string]interface{}{column: newLevel}); err != nil {
		logger.Warn("failed to persist level advancement", "language", lang, "error", err)
	}

	logger.Info("user advanced to new level", "user_id", profile.UserID, "language", lang, "from", oldLevel, "to", newLevel)

	if profile.Preferences.NotifyByEmail && e.mailer != nil {
		subject := e.msgs.AdvancementMessage(lang, oldLevel, newLevel)
		body := subject + "\n" +
			e.msgs.AdvancementExpectations(lang, LevelRequirement(lang, newLevel)) + "\n" +
			e.msgs.AdvancementEncouragement()
		if err := e.mailer.Send(ctx, profile.Email, subject, body); err != nil {
			logger.Warn("failed to send advancement notification", "error", err)
		}
	}
}

// refreshWeakAreas は直近履歴から弱点を再判定し、プロファイルへ保存します。
// (スキル, 言語) ごとの平均スコアが0.6未満なら弱点とみなします。
func (e *learningEngine) refreshWeakAreas(ctx context.Context, profile *model.UserProfile) {
	logger := middleware.GetLogger(ctx)

	type groupKey struct {
		skill model.Skill
		lang  model.Language
	}
	sums := make(map[groupKey]float64)
	counts := make(map[groupKey]int)

	for _, r := range e.progress.GetHistory(profile.UserID) {
		if !r.Language.Valid() {
			continue
		}
		for _, skill := range r.SkillsPracticed {
			key := groupKey{skill: skill, lang: r.Language}
			sums[key] += r.Score
			counts[key]++
		}
	}

	identifiedAt := make(map[groupKey]time.Time, len(profile.WeakAreas))
	for _, w := range profile.WeakAreas {
		identifiedAt[groupKey{skill: w.Skill, lang: w.Language}] = w.IdentifiedAt
	}

	var areas []model.WeakArea
	for key, count := range counts {
		if count < 3 {
			continue
		}
		avg := sums[key] / float64(count)
		if avg >= 0.6 {
			continue
		}
		// 既知の弱点は発見日時を引き継ぐ
		at, ok := identifiedAt[key]
		if !ok {
			at = time.Now()
		}
		areas = append(areas, model.WeakArea{
			Skill:        key.skill,
			Language:     key.lang,
			Severity:     1.0 - avg,
			IdentifiedAt: at,
		})
	}

	profile.WeakAreas = areas
	if err := e.userRepo.Update(ctx, e.db, profile.UserID, map[string]interface{}{"weak_areas": areas}); err != nil {
		logger.Warn("failed to persist weak areas", "error", err)
	}
}

func (e *learningEngine) PredictActivityPerformance(userID uuid.UUID, activity *model.LearningActivity) float64 {
	return e.history.PredictPerformance(userID, activity)
}

func (e *learningEngine) CalculateCurriculumBalance(plan *model.DailyPlan) model.BalanceMetrics {
	return e.weakness.CalculateBalanceMetrics(plan)
}

func (e *learningEngine) GetWeaknessFocusRecommendations(profile *model.UserProfile) []string {
	prioritized, _ := e.weakness.PrioritizeWeaknessesWithBalance(profile, profile.WeakAreas, nil)
	return e.weakness.GetWeaknessFocusRecommendations(profile, prioritized)
}

// syncVocabulary はDB上の習得語彙がメモリより多い場合にトラッカーへ読み戻します。
// プロセス再起動でメモリ上の語彙状態が失われたケースの救済です
func (e *learningEngine) syncVocabulary(ctx context.Context, userID uuid.UUID, lang model.Language) {
	logger := middleware.GetLogger(ctx)

	stored, err := e.wordRepo.CountMastered(ctx, e.db, userID, lang)
	if err != nil {
		logger.Warn("failed to count mastered words", "language", lang, "error", err)
		return
	}
	if int(stored) <= e.vocab.MasteredCount(userID, lang) {
		return
	}

	words, err := e.wordRepo.FindByUserAndLanguage(ctx, e.db, userID, lang)
	if err != nil {
		logger.Warn("failed to load vocabulary words", "language", lang, "error", err)
		return
	}
	for _, w := range words {
		score := w.LastScore
		if w.Mastered && score < 0.8 {
			// 習得済みフラグを落とさないよう習得しきい値で読み戻す
			score = 0.8
		}
		e.vocab.RecordWordLearned(userID, w.Word, lang, score)
	}
}

// GetComprehensiveUserStatus は進捗・語彙・弱点を横断したサマリを返します
func (e *learningEngine) GetComprehensiveUserStatus(ctx context.Context, profile *model.UserProfile) *model.UserStatus {
	logger := middleware.GetLogger(ctx)

	vocab := make(map[model.Language]model.VocabularyStatus, len(model.Languages))
	for _, lang := range model.Languages {
		e.syncVocabulary(ctx, profile.UserID, lang)
		level := e.vocab.CurrentLevel(profile.UserID, lang)
		vocab[lang] = model.VocabularyStatus{
			Language:       lang,
			CurrentLevel:   level,
			MasteredCount:  e.vocab.MasteredCount(profile.UserID, lang),
			RequiredCount:  LevelRequirement(lang, level),
			LevelCompleted: e.vocab.CheckLevelCompletion(profile.UserID, lang),
			ReadyToAdvance: e.vocab.SuggestLevelAdvancement(profile.UserID, lang),
			RetentionRate:  e.vocab.CalculateRetentionRate(profile.UserID, lang, 30*24*time.Hour),
		}
	}

	totalResults, err := e.resultRepo.CountByUser(ctx, e.db, profile.UserID)
	if err != nil {
		logger.Warn("failed to count activity results", "error", err)
	}

	return &model.UserStatus{
		UserID:       profile.UserID,
		Progress:     e.progress.GetCurrentMetrics(profile.UserID),
		Vocabulary:   vocab,
		WeakAreas:    profile.WeakAreas,
		TotalResults: totalResults,
		GeneratedAt:  time.Now(),
	}
}
