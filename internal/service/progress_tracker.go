package service

import (
	"sync"
	"time"

	"go_bilingual_tutor/internal/i18n"
	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
)

// ProgressTracker は学習成績を集計し、進捗レポートを生成します。
type ProgressTracker interface {
	RecordPerformance(userID uuid.UUID, activity *model.LearningActivity, result *model.ActivityResult)
	CalculateLearningVelocity(userID uuid.UUID, timeframe time.Duration) float64
	GenerateProgressReport(userID uuid.UUID, period string) *model.ProgressReport
	CalculateAchievementRate(userID uuid.UUID, timeframe time.Duration) float64
	TrackSkillImprovement(userID uuid.UUID, skill model.Skill) float64
	GetCurrentMetrics(userID uuid.UUID) *model.ProgressMetrics
	GetHistory(userID uuid.UUID) []*model.ActivityResult
}

// progressTracker はユーザーごとの成績をメモリ上に保持します。
// 粗粒度のMutexで保護します（アクセス頻度が低いため十分）。
type progressTracker struct {
	mu            sync.Mutex
	userMetrics   map[uuid.UUID]*model.ProgressMetrics
	history       map[uuid.UUID][]*model.ActivityResult
	skillProgress map[uuid.UUID]map[model.Skill]float64
	msgs          i18n.Localizer
}

func NewProgressTracker(msgs i18n.Localizer) ProgressTracker {
	return &progressTracker{
		userMetrics:   make(map[uuid.UUID]*model.ProgressMetrics),
		history:       make(map[uuid.UUID][]*model.ActivityResult),
		skillProgress: make(map[uuid.UUID]map[model.Skill]float64),
		msgs:          msgs,
	}
}

// RecordPerformance は完了したアクティビティの結果を集計に反映します
func (t *progressTracker) RecordPerformance(userID uuid.UUID, activity *model.LearningActivity, result *model.ActivityResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.skillProgress[userID]; !ok {
		t.skillProgress[userID] = make(map[model.Skill]float64)
	}
	if _, ok := t.userMetrics[userID]; !ok {
		t.userMetrics[userID] = &model.ProgressMetrics{
			UserID:        userID,
			Language:      activity.Language,
			SkillProgress: make(map[model.Skill]float64),
			LastUpdated:   time.Now(),
		}
	}

	t.history[userID] = append(t.history[userID], result)

	// スキル進捗の加重平均更新 (旧0.8 / 新0.2)、上限1.0
	for _, skill := range activity.SkillsPracticed {
		current := t.skillProgress[userID][skill]
		updated := current*0.8 + result.Score*0.2
		if updated > 1.0 {
			updated = 1.0
		}
		t.skillProgress[userID][skill] = updated
	}

	metrics := t.userMetrics[userID]
	switch activity.Type {
	case model.ActivityVocabulary:
		// スコア80%以上で習得とみなす
		if result.Score >= 0.8 {
			metrics.VocabularyMastered++
		}
	case model.ActivityGrammar:
		if result.Score >= 0.8 {
			metrics.GrammarPointsLearned++
		}
	case model.ActivityReading:
		metrics.ReadingScore = metrics.ReadingScore*0.7 + result.Score*0.3
	case model.ActivityListening:
		metrics.ListeningScore = metrics.ListeningScore*0.7 + result.Score*0.3
	case model.ActivitySpeaking:
		metrics.SpeakingScore = metrics.SpeakingScore*0.7 + result.Score*0.3
	case model.ActivityWriting:
		metrics.WritingScore = metrics.WritingScore*0.7 + result.Score*0.3
	}

	// 全体進捗は「値のある」スコアのみの平均
	// ゼロのスコアを母数に含めない仕様のため、片方のスキルだけ学習しても平均が下がりません
	typeScores := []float64{
		metrics.ReadingScore,
		metrics.ListeningScore,
		metrics.SpeakingScore,
		metrics.WritingScore,
	}
	sum, count := 0.0, 0
	for _, s := range typeScores {
		if s > 0 {
			sum += s
			count++
		}
	}
	if count > 0 {
		metrics.OverallProgress = sum / float64(count)
	} else {
		metrics.OverallProgress = 0.0
	}

	for skill, progress := range t.skillProgress[userID] {
		metrics.SkillProgress[skill] = progress
	}
	metrics.LastUpdated = time.Now()
}

// CalculateLearningVelocity は期間内の「1時間あたりのスコア」を返します
func (t *progressTracker) CalculateLearningVelocity(userID uuid.UUID, timeframe time.Duration) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	results, ok := t.history[userID]
	if !ok {
		return 0.0
	}

	cutoff := time.Now().Add(-timeframe)
	totalScore := 0.0
	totalMinutes := 0
	for _, r := range results {
		if r.CompletedAt.Before(cutoff) {
			continue
		}
		totalScore += r.Score
		totalMinutes += r.TimeSpent
	}

	totalHours := float64(totalMinutes) / 60.0
	if totalHours == 0 {
		return 0.0
	}
	return totalScore / totalHours
}

// GenerateProgressReport は期間指定の進捗レポートを生成します
func (t *progressTracker) GenerateProgressReport(userID uuid.UUID, period string) *model.ProgressReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if _, ok := t.history[userID]; !ok {
		// 履歴のない新規ユーザー向けの空レポート
		return &model.ProgressReport{
			UserID:          userID,
			PeriodStart:     now.AddDate(0, 0, -7),
			PeriodEnd:       now,
			SkillsImproved:  []model.Skill{},
			Achievements:    []string{},
			Recommendations: []string{t.msgs.RecommendStartLearning()},
		}
	}

	var timeframe time.Duration
	switch period {
	case "monthly":
		timeframe = 30 * 24 * time.Hour
	case "weekly":
		timeframe = 7 * 24 * time.Hour
	default:
		timeframe = 7 * 24 * time.Hour
	}

	periodStart := now.Add(-timeframe)
	var periodResults []*model.ActivityResult
	for _, r := range t.history[userID] {
		if !r.CompletedAt.Before(periodStart) && !r.CompletedAt.After(now) {
			periodResults = append(periodResults, r)
		}
	}

	activityCount := len(periodResults)
	totalTime := 0
	totalScore := 0.0
	achievedCount := 0
	for _, r := range periodResults {
		totalTime += r.TimeSpent
		totalScore += r.Score
		if r.Score >= 0.7 {
			achievedCount++
		}
	}
	avgScore := 0.0
	achievementRate := 0.0
	if activityCount > 0 {
		avgScore = totalScore / float64(activityCount)
		achievementRate = float64(achievedCount) / float64(activityCount) * 100
	}

	// 進捗70%以上のスキルを「改善したスキル」とみなす
	skillsImproved := []model.Skill{}
	for skill, progress := range t.skillProgress[userID] {
		if progress >= 0.7 {
			skillsImproved = append(skillsImproved, skill)
		}
	}

	achievements := []string{}
	if activityCount >= 7 {
		achievements = append(achievements, t.msgs.AchievementWeeklyGoal())
	}
	if totalTime >= 300 {
		achievements = append(achievements, t.msgs.AchievementStudyTime())
	}
	if avgScore >= 0.8 {
		achievements = append(achievements, t.msgs.AchievementExcellentAverage())
	}

	recommendations := []string{}
	if activityCount < 5 {
		recommendations = append(recommendations, t.msgs.RecommendMoreFrequency())
	}
	if avgScore < 0.6 {
		recommendations = append(recommendations, t.msgs.RecommendReviewBasics())
	}
	if len(skillsImproved) == 0 {
		recommendations = append(recommendations, t.msgs.RecommendVariety())
	}

	return &model.ProgressReport{
		UserID:          userID,
		PeriodStart:     periodStart,
		PeriodEnd:       now,
		ActivityCount:   activityCount,
		TotalTime:       totalTime,
		AverageScore:    avgScore,
		AchievementRate: achievementRate,
		SkillsImproved:  skillsImproved,
		Achievements:    achievements,
		Recommendations: recommendations,
	}
}

// CalculateAchievementRate は期間内でスコア0.7以上だった結果の割合（%）を返します
func (t *progressTracker) CalculateAchievementRate(userID uuid.UUID, timeframe time.Duration) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	results, ok := t.history[userID]
	if !ok {
		return 0.0
	}

	cutoff := time.Now().Add(-timeframe)
	total, achieved := 0, 0
	for _, r := range results {
		if r.CompletedAt.Before(cutoff) {
			continue
		}
		total++
		if r.Score >= 0.7 {
			achieved++
		}
	}
	if total == 0 {
		return 0.0
	}
	return float64(achieved) / float64(total) * 100
}

func (t *progressTracker) TrackSkillImprovement(userID uuid.UUID, skill model.Skill) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress, ok := t.skillProgress[userID]
	if !ok {
		return 0.0
	}
	return progress[skill]
}

func (t *progressTracker) GetCurrentMetrics(userID uuid.UUID) *model.ProgressMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics, ok := t.userMetrics[userID]
	if !ok {
		// 新規ユーザー向けのデフォルト値
		return &model.ProgressMetrics{
			UserID:        userID,
			Language:      model.LanguageEnglish,
			SkillProgress: make(map[model.Skill]float64),
			LastUpdated:   time.Now(),
		}
	}

	// 呼び出し側での変更から守るためコピーを返す
	clone := *metrics
	clone.SkillProgress = make(map[model.Skill]float64, len(metrics.SkillProgress))
	for k, v := range metrics.SkillProgress {
		clone.SkillProgress[k] = v
	}
	return &clone
}

func (t *progressTracker) GetHistory(userID uuid.UUID) []*model.ActivityResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	results := t.history[userID]
	out := make([]*model.ActivityResult, len(results))
	copy(out, results)
	return out
}
