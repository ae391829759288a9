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

// skillImportance は影響度係数のテーブル。語彙が最重要です。
var skillImportance = map[model.Skill]float64{
	model.SkillVocabulary:    1.0,
	model.SkillGrammar:       0.9,
	model.SkillReading:       0.8,
	model.SkillListening:     0.8,
	model.SkillComprehension: 0.8,
	model.SkillSpeaking:      0.7,
	model.SkillWriting:       0.7,
	model.SkillPronunciation: 0.6,
}

// skillDependency は基礎度係数のテーブル。土台となるスキルほど高くします。
var skillDependency = map[model.Skill]float64{
	model.SkillVocabulary:    1.0,
	model.SkillGrammar:       0.9,
	model.SkillPronunciation: 0.8,
	model.SkillComprehension: 0.8,
	model.SkillReading:       0.7,
	model.SkillListening:     0.7,
	model.SkillSpeaking:      0.6,
	model.SkillWriting:       0.6,
}

// skillToActivityType は弱点スキルから練習アクティビティ種別への対応
var skillToActivityType = map[model.Skill]model.ActivityType{
	model.SkillVocabulary: model.ActivityVocabulary,
	model.SkillGrammar:    model.ActivityGrammar,
	model.SkillReading:    model.ActivityReading,
	model.SkillListening:  model.ActivityListening,
	model.SkillSpeaking:   model.ActivitySpeaking,
	model.SkillWriting:    model.ActivityWriting,
}

// WeaknessPrioritizer は弱点の優先度付けとカリキュラム調整を行います
type WeaknessPrioritizer interface {
	PrioritizeWeaknessesWithBalance(profile *model.UserProfile, weaknesses []model.WeakArea, currentPlan *model.DailyPlan) ([]model.PrioritizedWeakness, model.CurriculumBalance)
	AdjustCurriculumForWeaknesses(basePlan *model.DailyPlan, prioritized []model.PrioritizedWeakness, balance model.CurriculumBalance) *model.DailyPlan
	CalculateBalanceMetrics(plan *model.DailyPlan) model.BalanceMetrics
	GetWeaknessFocusRecommendations(profile *model.UserProfile, weaknesses []model.PrioritizedWeakness) []string
}

type adjustmentRecord struct {
	Timestamp           time.Time
	BasePlanID          uuid.UUID
	AdjustedPlanID      uuid.UUID
	WeaknessesAddressed int
	ActivitiesAdded     int
	ObjectivesAdded     int
}

type weaknessPrioritizer struct {
	mu              sync.Mutex
	priorityHistory map[uuid.UUID][]model.PrioritizedWeakness
	adjustments     map[uuid.UUID][]adjustmentRecord
	msgs            i18n.Localizer
}

func NewWeaknessPrioritizer(msgs i18n.Localizer) WeaknessPrioritizer {
	return &weaknessPrioritizer{
		priorityHistory: make(map[uuid.UUID][]model.PrioritizedWeakness),
		adjustments:     make(map[uuid.UUID][]adjustmentRecord),
		msgs:            msgs,
	}
}

// PrioritizeWeaknessesWithBalance は各弱点の優先度を算出し、
// バランス制約を適用した上で優先度降順のリストと推奨配分を返します。
func (w *weaknessPrioritizer) PrioritizeWeaknessesWithBalance(profile *model.UserProfile, weaknesses []model.WeakArea, currentPlan *model.DailyPlan) ([]model.PrioritizedWeakness, model.CurriculumBalance) {
	if len(weaknesses) == 0 {
		return nil, defaultCurriculumBalance()
	}

	prioritized := make([]model.PrioritizedWeakness, 0, len(weaknesses))
	for _, weak := range weaknesses {
		prioritized = append(prioritized, w.calculateDetailedPriority(weak, profile, currentPlan))
	}

	sort.SliceStable(prioritized, func(i, j int) bool {
		return prioritized[i].Priority > prioritized[j].Priority
	})

	prioritized = applyBalanceConstraints(prioritized)

	balance := generateCurriculumBalance(prioritized)

	w.mu.Lock()
	w.priorityHistory[profile.UserID] = prioritized
	w.mu.Unlock()

	return prioritized, balance
}

// calculateDetailedPriority は1件の弱点の優先度を内訳つきで算出します
func (w *weaknessPrioritizer) calculateDetailedPriority(weak model.WeakArea, profile *model.UserProfile, currentPlan *model.DailyPlan) model.PrioritizedWeakness {
	severityScore := weak.Severity

	// 発見から日が経つほど緊急度は下がる（下限0.1）
	days := time.Since(weak.IdentifiedAt).Hours() / 24
	urgencyScore := math.Max(0.1, 1.0-math.Floor(days)*0.05)

	impactScore := impactFactor(weak, profile)
	dependencyScore := dependencyFactor(weak.Skill)
	balanceScore := planBalanceFactor(weak, currentPlan)

	priority := severityScore*0.3 +
		urgencyScore*0.2 +
		impactScore*0.2 +
		dependencyScore*0.2 +
		balanceScore*0.1

	return model.PrioritizedWeakness{
		WeakArea:        weak,
		Priority:        priority,
		SeverityScore:   severityScore,
		UrgencyScore:    urgencyScore,
		ImpactScore:     impactScore,
		DependencyScore: dependencyScore,
		BalanceScore:    balanceScore,
	}
}

func impactFactor(weak model.WeakArea, profile *model.UserProfile) float64 {
	impact, ok := skillImportance[weak.Skill]
	if !ok {
		impact = 0.5
	}
	for _, s := range profile.Preferences.PrioritySkills {
		if s == weak.Skill {
			impact *= 1.2
			break
		}
	}
	return math.Min(1.0, impact)
}

func dependencyFactor(skill model.Skill) float64 {
	if f, ok := skillDependency[skill]; ok {
		return f
	}
	return 0.5
}

// planBalanceFactor は弱点が現在の計画でどれだけ扱われているかの補正です。
// 計画内で手薄な弱点ほど高い値になります。
func planBalanceFactor(weak model.WeakArea, currentPlan *model.DailyPlan) float64 {
	if currentPlan == nil || len(currentPlan.Activities) == 0 {
		return 1.0
	}
	addressing := 0
	for _, a := range currentPlan.Activities {
		if a.Language != weak.Language {
			continue
		}
		for _, s := range a.SkillsPracticed {
			if s == weak.Skill {
				addressing++
				break
			}
		}
	}
	ratio := float64(addressing) / float64(len(currentPlan.Activities))
	return math.Max(0.1, 1.0-ratio)
}

// applyBalanceConstraints は同一スキル・同一言語への偏りに減衰ペナルティをかけます。
// ペナルティは累積で負値になり得ますが、順位付けとしては意図した挙動です。
func applyBalanceConstraints(prioritized []model.PrioritizedWeakness) []model.PrioritizedWeakness {
	skillCounts := make(map[model.Skill]int)
	langCounts := make(map[model.Language]int)

	adjusted := make([]model.PrioritizedWeakness, 0, len(prioritized))
	for _, p := range prioritized {
		skillPenalty := math.Min(1.0, 1.0-float64(skillCounts[p.Skill])*0.2)
		langPenalty := math.Min(1.0, 1.0-float64(langCounts[p.Language])*0.3)

		p.Priority = p.Priority * skillPenalty * langPenalty
		p.BalanceScore = p.BalanceScore * skillPenalty * langPenalty
		adjusted = append(adjusted, p)

		skillCounts[p.Skill]++
		langCounts[p.Language]++
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Priority > adjusted[j].Priority
	})
	return adjusted
}

// generateCurriculumBalance は優先度付けの結果から推奨配分を組み立てます
func generateCurriculumBalance(prioritized []model.PrioritizedWeakness) model.CurriculumBalance {
	totalSeverity := 0.0
	totalPriority := 0.0
	for _, p := range prioritized {
		totalSeverity += p.Severity
		totalPriority += p.Priority
	}

	focusRatio := 0.2
	if len(prioritized) > 0 {
		avgSeverity := totalSeverity / float64(len(prioritized))
		focusRatio = math.Min(0.6, avgSeverity*0.8)
	}

	skillDist := make(map[model.Skill]float64)
	if totalPriority > 0 {
		for _, p := range prioritized {
			skillDist[p.Skill] += p.Priority / totalPriority
		}
	}
	// 全スキルに最低限の配分を持たせてから正規化する
	floor := 0.1 / float64(len(model.AllSkills))
	for _, skill := range model.AllSkills {
		if _, ok := skillDist[skill]; !ok {
			skillDist[skill] = floor
		}
	}
	totalWeight := 0.0
	for _, v := range skillDist {
		totalWeight += v
	}
	if totalWeight > 0 {
		for skill, v := range skillDist {
			skillDist[skill] = v / totalWeight
		}
	}

	return model.CurriculumBalance{
		WeaknessFocusRatio: focusRatio,
		SkillDistribution:  skillDist,
		LanguageBalance: map[model.Language]float64{
			model.LanguageEnglish:  0.5,
			model.LanguageJapanese: 0.5,
		},
		NewVsReviewRatio: 0.8,
	}
}

func defaultCurriculumBalance() model.CurriculumBalance {
	skillDist := make(map[model.Skill]float64, len(model.AllSkills))
	for _, skill := range model.AllSkills {
		skillDist[skill] = 1.0 / float64(len(model.AllSkills))
	}
	return model.CurriculumBalance{
		WeaknessFocusRatio: 0.2,
		SkillDistribution:  skillDist,
		LanguageBalance: map[model.Language]float64{
			model.LanguageEnglish:  0.5,
			model.LanguageJapanese: 0.5,
		},
		NewVsReviewRatio: 0.8,
	}
}

// AdjustCurriculumForWeaknesses はベース計画に弱点特化アクティビティと目標を追加した
// 調整済み計画を返します。既存のアクティビティは削除しません。
func (w *weaknessPrioritizer) AdjustCurriculumForWeaknesses(basePlan *model.DailyPlan, prioritized []model.PrioritizedWeakness, balance model.CurriculumBalance) *model.DailyPlan {
	adjusted := &model.DailyPlan{
		PlanID:     uuid.New(),
		UserID:     basePlan.UserID,
		Date:       basePlan.Date,
		Allocation: basePlan.Allocation,
		Activities: append([]model.LearningActivity(nil), basePlan.Activities...),
		Objectives: append([]string(nil), basePlan.Objectives...),
		CreatedAt:  time.Now(),
	}

	w.addWeaknessActivities(adjusted, prioritized, balance)
	w.ensureCurriculumBalance(adjusted)
	w.addWeaknessObjectives(adjusted, prioritized)

	w.mu.Lock()
	w.adjustments[basePlan.UserID] = append(w.adjustments[basePlan.UserID], adjustmentRecord{
		Timestamp:           time.Now(),
		BasePlanID:          basePlan.PlanID,
		AdjustedPlanID:      adjusted.PlanID,
		WeaknessesAddressed: len(prioritized),
		ActivitiesAdded:     len(adjusted.Activities) - len(basePlan.Activities),
		ObjectivesAdded:     len(adjusted.Objectives) - len(basePlan.Objectives),
	})
	w.mu.Unlock()

	return adjusted
}

// addWeaknessActivities はコンテンツ時間の一部を上位3件の弱点練習に割り当てます
func (w *weaknessPrioritizer) addWeaknessActivities(plan *model.DailyPlan, prioritized []model.PrioritizedWeakness, balance model.CurriculumBalance) {
	if len(prioritized) == 0 {
		return
	}

	contentMinutes := plan.Allocation.EnglishMinutes + plan.Allocation.JapaneseMinutes
	weaknessMinutes := int(float64(contentMinutes) * balance.WeaknessFocusRatio)

	top := prioritized
	if len(top) > 3 {
		top = top[:3]
	}
	timePer := weaknessMinutes / len(top)
	if timePer <= 0 {
		return
	}

	for _, p := range top {
		plan.Activities = append(plan.Activities, w.weaknessActivity(p.WeakArea, timePer))
	}
}

func (w *weaknessPrioritizer) weaknessActivity(weak model.WeakArea, minutes int) model.LearningActivity {
	activityType, ok := skillToActivityType[weak.Skill]
	if !ok {
		activityType = model.ActivityVocabulary
	}
	return model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            activityType,
		Language:        weak.Language,
		Title:           w.msgs.WeaknessActivityTitle(weak.Skill),
		EstimatedTime:   minutes,
		Difficulty:      weak.Severity,
		SkillsPracticed: []model.Skill{weak.Skill},
	}
}

// ensureCurriculumBalance は全体バランスが閾値を下回る場合に、
// 計画内で手薄な言語の短い補充練習を1つ追加します。
func (w *weaknessPrioritizer) ensureCurriculumBalance(plan *model.DailyPlan) {
	metrics := w.CalculateBalanceMetrics(plan)
	if metrics.OverallBalance >= 0.6 || len(plan.Activities) == 0 {
		return
	}

	counts := make(map[model.Language]int)
	for _, a := range plan.Activities {
		counts[a.Language]++
	}
	under := model.LanguageEnglish
	if counts[model.LanguageJapanese] < counts[model.LanguageEnglish] {
		under = model.LanguageJapanese
	}

	plan.Activities = append(plan.Activities, model.LearningActivity{
		ActivityID:      uuid.NewString(),
		Type:            model.ActivityVocabulary,
		Language:        under,
		Title:           w.msgs.BalanceActivityTitle(under),
		EstimatedTime:   5,
		Difficulty:      0.5,
		SkillsPracticed: []model.Skill{model.SkillVocabulary},
	})
}

func (w *weaknessPrioritizer) addWeaknessObjectives(plan *model.DailyPlan, prioritized []model.PrioritizedWeakness) {
	top := prioritized
	if len(top) > 3 {
		top = top[:3]
	}
	for _, p := range top {
		plan.Objectives = append(plan.Objectives, w.msgs.ObjectiveWeaknessDetail(p.Skill, p.Language, p.Severity))
	}
	if len(prioritized) > 3 {
		plan.Objectives = append(plan.Objectives, w.msgs.ObjectiveOtherWeaknesses(len(prioritized)-3))
	}
}

// CalculateBalanceMetrics は計画の偏りを次元ごとの正規化エントロピーで評価します
func (w *weaknessPrioritizer) CalculateBalanceMetrics(plan *model.DailyPlan) model.BalanceMetrics {
	var metrics model.BalanceMetrics
	if plan == nil || len(plan.Activities) == 0 {
		return metrics
	}

	skillCounts := make(map[model.Skill]int)
	langCounts := make(map[model.Language]int)
	difficultyCounts := make(map[string]int)
	typeCounts := make(map[model.ActivityType]int)
	for _, a := range plan.Activities {
		for _, s := range a.SkillsPracticed {
			skillCounts[s]++
		}
		langCounts[a.Language]++
		difficultyCounts[difficultyBand(a.Difficulty)]++
		typeCounts[a.Type]++
	}

	metrics.SkillBalance = entropyBalance(countValues(skillCounts))
	metrics.LanguageBalance = entropyBalance(countValues(langCounts))
	metrics.DifficultyBalance = entropyBalance(countValues(difficultyCounts))
	metrics.TypeBalance = entropyBalance(countValues(typeCounts))
	metrics.OverallBalance = metrics.SkillBalance*0.3 +
		metrics.LanguageBalance*0.3 +
		metrics.DifficultyBalance*0.2 +
		metrics.TypeBalance*0.2

	return metrics
}

// difficultyBand は難易度の連続値を分布計算用の帯に落とします
func difficultyBand(difficulty float64) string {
	switch {
	case difficulty < 0.35:
		return "easy"
	case difficulty < 0.7:
		return "medium"
	default:
		return "hard"
	}
}

func countValues[K comparable](counts map[K]int) []int {
	values := make([]int, 0, len(counts))
	for _, c := range counts {
		values = append(values, c)
	}
	return values
}

// entropyBalance はカテゴリ分布の均等さを0〜1で返します (1 = 完全に均等)
func entropyBalance(counts []int) float64 {
	if len(counts) == 0 {
		return 0
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}

	if len(counts) <= 1 {
		return entropy // 単一カテゴリならエントロピー0のまま
	}
	return entropy / math.Log2(float64(len(counts)))
}

// GetWeaknessFocusRecommendations はユーザー向けの改善提案（中国語）を返します
func (w *weaknessPrioritizer) GetWeaknessFocusRecommendations(profile *model.UserProfile, weaknesses []model.PrioritizedWeakness) []string {
	if len(weaknesses) == 0 {
		return []string{w.msgs.RecommendNoWeakness()}
	}

	top := weaknesses
	if len(top) > 3 {
		top = top[:3]
	}

	recommendations := make([]string, 0, len(top)+2)
	for i, weak := range top {
		recommendations = append(recommendations,
			w.msgs.RecommendPriority(i, weak.Skill, weak.Language, weak.Severity))
	}
	if len(weaknesses) > 3 {
		recommendations = append(recommendations, w.msgs.RecommendOtherWeaknesses(len(weaknesses)-3))
	}

	focusTime := math.Min(0.6, float64(len(top))*0.15)
	recommendations = append(recommendations, w.msgs.RecommendWeaknessTime(focusTime))

	return recommendations
}
