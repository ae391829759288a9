package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"go_bilingual_tutor/internal/i18n"
	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
)

// HistoryIntegrator は成績履歴から傾向を分析し、計画を適応させます。
type HistoryIntegrator interface {
	AnalyzePerformanceHistory(userID uuid.UUID, history []*model.ActivityResult, timeframe time.Duration) []model.PerformancePattern
	GenerateAdaptivePlan(profile *model.UserProfile, patterns []model.PerformancePattern, basePlan *model.DailyPlan) *model.DailyPlan
	RecognizeLearningPatterns(userID uuid.UUID, history []*model.ActivityResult) *model.LearningInsight
	PredictPerformance(userID uuid.UUID, activity *model.LearningActivity) float64
	GetPerformanceInsights(userID uuid.UUID) *model.LearningInsight
}

type historyIntegrator struct {
	mu       sync.Mutex
	patterns map[uuid.UUID][]model.PerformancePattern
	insights map[uuid.UUID]*model.LearningInsight
	msgs     i18n.Localizer
}

func NewHistoryIntegrator(msgs i18n.Localizer) HistoryIntegrator {
	return &historyIntegrator{
		patterns: make(map[uuid.UUID][]model.PerformancePattern),
		insights: make(map[uuid.UUID]*model.LearningInsight),
		msgs:     msgs,
	}
}

// primarySkill は結果の主要スキルを返します。
// スキルは結果のメタデータとして明示的に持たせています（IDからの推測はしません）。
func primarySkill(result *model.ActivityResult) model.Skill {
	if len(result.SkillsPracticed) > 0 {
		return result.SkillsPracticed[0]
	}
	return model.SkillComprehension
}

// AnalyzePerformanceHistory は期間内の結果を (スキル, 言語) でグループ化し、
// 3件以上あるグループごとに傾向パターンを算出します。
func (h *historyIntegrator) AnalyzePerformanceHistory(userID uuid.UUID, history []*model.ActivityResult, timeframe time.Duration) []model.PerformancePattern {
	cutoff := time.Now().Add(-timeframe)
	var recent []*model.ActivityResult
	for _, r := range history {
		if !r.CompletedAt.Before(cutoff) {
			recent = append(recent, r)
		}
	}
	if len(recent) == 0 {
		return nil
	}

	type groupKey struct {
		skill model.Skill
		lang  model.Language
	}
	groups := make(map[groupKey][]*model.ActivityResult)
	for _, r := range recent {
		key := groupKey{skill: primarySkill(r), lang: r.Language}
		groups[key] = append(groups[key], r)
	}

	var patterns []model.PerformancePattern
	for key, results := range groups {
		// パターン分析には最低3件必要
		if len(results) < 3 {
			continue
		}
		sort.Slice(results, func(i, j int) bool {
			return results[i].CompletedAt.Before(results[j].CompletedAt)
		})
		scores := make([]float64, len(results))
		for i, r := range results {
			scores[i] = r.Score
		}

		recentScores := scores
		if len(recentScores) > 5 {
			recentScores = recentScores[len(recentScores)-5:]
		}

		patterns = append(patterns, model.PerformancePattern{
			Skill:        key.skill,
			Language:     key.lang,
			Trend:        calculateTrend(scores),
			Confidence:   patternConfidence(scores),
			RecentScores: recentScores,
			SampleCount:  len(results),
		})
	}

	// 出力順を安定させる
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Skill != patterns[j].Skill {
			return patterns[i].Skill < patterns[j].Skill
		}
		return patterns[i].Language < patterns[j].Language
	})

	h.mu.Lock()
	h.patterns[userID] = patterns
	h.mu.Unlock()

	return patterns
}

// calculateTrend はスコア列から傾向を判定します。
// 6件未満では判断せず stable を返します。直近3件の平均とそれ以前の平均を±0.1で比較します。
func calculateTrend(scores []float64) model.Trend {
	if len(scores) < 6 {
		return model.TrendStable
	}

	recentAvg := mean(scores[len(scores)-3:])
	earlierAvg := mean(scores[:len(scores)-3])

	switch {
	case recentAvg > earlierAvg+0.1:
		return model.TrendImproving
	case recentAvg < earlierAvg-0.1:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// patternConfidence は変動係数からパターンの信頼度を算出します (0.1〜1.0)
func patternConfidence(scores []float64) float64 {
	if len(scores) < 3 {
		return 0.5
	}
	m := mean(scores)
	if m == 0 {
		return 0.5
	}
	cv := stdev(scores) / m
	confidence := math.Max(0.1, 1.0-cv)
	return math.Min(1.0, confidence)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdev は標本標準偏差を返します
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// GenerateAdaptivePlan はベース計画のコピーに適応を加えた計画を返します。
// 既存のアクティビティは削除も再重み付けもせず、目標の追記のみ行います。
func (h *historyIntegrator) GenerateAdaptivePlan(profile *model.UserProfile, patterns []model.PerformancePattern, basePlan *model.DailyPlan) *model.DailyPlan {
	adapted := &model.DailyPlan{
		PlanID:     uuid.New(),
		UserID:     profile.UserID,
		Date:       basePlan.Date,
		Allocation: basePlan.Allocation,
		Activities: append([]model.LearningActivity(nil), basePlan.Activities...),
		Objectives: append([]string(nil), basePlan.Objectives...),
		CreatedAt:  time.Now(),
	}

	// 下降傾向のスキルに注意喚起の目標を追加
	var declining []model.Skill
	for _, p := range patterns {
		if p.Trend == model.TrendDeclining {
			declining = append(declining, p.Skill)
		}
	}
	if len(declining) > 0 {
		adapted.Objectives = append(adapted.Objectives, h.msgs.ObjectiveDecliningSkills(declining))
	}

	// 上位2件の弱点に対する目標を追加
	weakAreas := profile.WeakAreas
	if len(weakAreas) > 2 {
		weakAreas = weakAreas[:2]
	}
	for _, w := range weakAreas {
		adapted.Objectives = append(adapted.Objectives, h.msgs.ObjectiveWeaknessFocus(w.Skill, w.Language))
	}

	return adapted
}

// RecognizeLearningPatterns は履歴全体からユーザー向けインサイトを生成します
func (h *historyIntegrator) RecognizeLearningPatterns(userID uuid.UUID, history []*model.ActivityResult) *model.LearningInsight {
	insight := &model.LearningInsight{
		UserID:      userID,
		GeneratedAt: time.Now(),
		Strengths:   []string{},
		Weaknesses:  []string{},
		Suggestions: []string{},
	}

	// スキルごとの成長・後退を判定 (5件以上のスキルのみ)
	skillGroups := make(map[model.Skill][]*model.ActivityResult)
	for _, r := range history {
		skill := primarySkill(r)
		skillGroups[skill] = append(skillGroups[skill], r)
	}

	skills := make([]model.Skill, 0, len(skillGroups))
	for skill := range skillGroups {
		skills = append(skills, skill)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i] < skills[j] })

	for _, skill := range skills {
		results := skillGroups[skill]
		if len(results) < 5 {
			continue
		}
		sort.Slice(results, func(i, j int) bool {
			return results[i].CompletedAt.Before(results[j].CompletedAt)
		})
		scores := make([]float64, len(results))
		for i, r := range results {
			scores[i] = r.Score
		}
		switch calculateTrend(scores) {
		case model.TrendImproving:
			insight.Strengths = append(insight.Strengths, h.msgs.InsightStrength(skill))
		case model.TrendDeclining:
			insight.Weaknesses = append(insight.Weaknesses, h.msgs.InsightWeakness(skill))
		}
	}

	// 頻出エラーの検出 (全体で5件以上、同一エラー3回以上)
	errorCounts := make(map[string]int)
	totalErrors := 0
	for _, r := range history {
		for _, e := range r.Errors {
			errorCounts[e]++
			totalErrors++
		}
	}
	if totalErrors >= 5 {
		var frequent []string
		for e, count := range errorCounts {
			if count >= 3 {
				frequent = append(frequent, e)
			}
		}
		sort.Strings(frequent)
		if len(frequent) > 0 {
			insight.Suggestions = append(insight.Suggestions, h.msgs.InsightErrorPattern(frequent))
		}
	}

	h.mu.Lock()
	insight.Patterns = h.patterns[userID]
	h.insights[userID] = insight
	h.mu.Unlock()

	return insight
}

// PredictPerformance は過去のパターンからアクティビティの予想スコアを返します。
// 履歴がない場合のデフォルトは0.7です。
func (h *historyIntegrator) PredictPerformance(userID uuid.UUID, activity *model.LearningActivity) float64 {
	h.mu.Lock()
	patterns, ok := h.patterns[userID]
	h.mu.Unlock()
	if !ok || len(patterns) == 0 {
		return 0.7
	}

	practiced := make(map[model.Skill]bool, len(activity.SkillsPracticed))
	for _, s := range activity.SkillsPracticed {
		practiced[s] = true
	}

	totalWeight := 0.0
	weightedScore := 0.0
	for _, p := range patterns {
		if p.Language != activity.Language || !practiced[p.Skill] {
			continue
		}
		if len(p.RecentScores) == 0 {
			continue
		}
		weightedScore += mean(p.RecentScores) * p.Confidence
		totalWeight += p.Confidence
	}

	if totalWeight == 0 {
		return 0.7
	}

	predicted := weightedScore / totalWeight
	return math.Max(0.0, math.Min(1.0, predicted))
}

func (h *historyIntegrator) GetPerformanceInsights(userID uuid.UUID) *model.LearningInsight {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.insights[userID]
}
