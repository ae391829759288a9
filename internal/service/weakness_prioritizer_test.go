package service_test

import (
	"testing"
	"time"

	"go_bilingual_tutor/internal/i18n"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeaknessPrioritizer_PrioritizeWeaknessesWithBalance(t *testing.T) {
	prioritizer := service.NewWeaknessPrioritizer(i18n.NewZhCN())
	profile := &model.UserProfile{UserID: uuid.New()}
	now := time.Now()

	t.Run("弱点なしならデフォルトの配分", func(t *testing.T) {
		prioritized, balance := prioritizer.PrioritizeWeaknessesWithBalance(profile, nil, nil)
		assert.Empty(t, prioritized)
		assert.InDelta(t, 0.2, balance.WeaknessFocusRatio, 0.001)
		assert.InDelta(t, 0.5, balance.LanguageBalance[model.LanguageEnglish], 0.001)
		// 全スキルに均等配分
		assert.InDelta(t, 1.0/float64(len(model.AllSkills)), balance.SkillDistribution[model.SkillReading], 0.001)
	})

	t.Run("深刻かつ基礎的な弱点が上位になる", func(t *testing.T) {
		weaknesses := []model.WeakArea{
			{Skill: model.SkillWriting, Language: model.LanguageEnglish, Severity: 0.3, IdentifiedAt: now},
			{Skill: model.SkillVocabulary, Language: model.LanguageJapanese, Severity: 0.9, IdentifiedAt: now},
		}
		prioritized, balance := prioritizer.PrioritizeWeaknessesWithBalance(profile, weaknesses, nil)

		require.Len(t, prioritized, 2)
		assert.Equal(t, model.SkillVocabulary, prioritized[0].Skill)
		assert.Greater(t, prioritized[0].Priority, prioritized[1].Priority)

		// 優先度の内訳が埋まっている
		assert.InDelta(t, 0.9, prioritized[0].SeverityScore, 0.001)
		assert.InDelta(t, 1.0, prioritized[0].DependencyScore, 0.001)

		// 平均深刻度 0.6 → focus ratio = 0.48
		assert.InDelta(t, 0.48, balance.WeaknessFocusRatio, 0.001)
	})

	t.Run("同一スキルの重複には減衰ペナルティがかかる", func(t *testing.T) {
		weaknesses := []model.WeakArea{
			{Skill: model.SkillGrammar, Language: model.LanguageEnglish, Severity: 0.8, IdentifiedAt: now},
			{Skill: model.SkillGrammar, Language: model.LanguageJapanese, Severity: 0.8, IdentifiedAt: now},
		}
		prioritized, _ := prioritizer.PrioritizeWeaknessesWithBalance(profile, weaknesses, nil)

		require.Len(t, prioritized, 2)
		// 2件目の文法弱点はスキル重複ペナルティ x0.8 を受ける
		assert.Greater(t, prioritized[0].Priority, prioritized[1].Priority)
		assert.InDelta(t, prioritized[0].Priority*0.8, prioritized[1].Priority, 0.001)
	})

	t.Run("優先スキルは影響度が増幅される", func(t *testing.T) {
		boosted := &model.UserProfile{
			UserID:      uuid.New(),
			Preferences: model.Preferences{PrioritySkills: []model.Skill{model.SkillWriting}},
		}
		weaknesses := []model.WeakArea{
			{Skill: model.SkillWriting, Language: model.LanguageEnglish, Severity: 0.5, IdentifiedAt: now},
		}
		withBoost, _ := prioritizer.PrioritizeWeaknessesWithBalance(boosted, weaknesses, nil)
		without, _ := prioritizer.PrioritizeWeaknessesWithBalance(profile, weaknesses, nil)

		require.Len(t, withBoost, 1)
		require.Len(t, without, 1)
		// 0.7 * 1.2 = 0.84
		assert.InDelta(t, 0.84, withBoost[0].ImpactScore, 0.001)
		assert.Greater(t, withBoost[0].Priority, without[0].Priority)
	})

	t.Run("計画で既に扱われている弱点はバランス補正が下がる", func(t *testing.T) {
		weak := model.WeakArea{Skill: model.SkillReading, Language: model.LanguageEnglish, Severity: 0.5, IdentifiedAt: now}
		plan := &model.DailyPlan{
			Activities: []model.LearningActivity{
				{Language: model.LanguageEnglish, SkillsPracticed: []model.Skill{model.SkillReading}},
				{Language: model.LanguageJapanese, SkillsPracticed: []model.Skill{model.SkillVocabulary}},
			},
		}
		covered, _ := prioritizer.PrioritizeWeaknessesWithBalance(profile, []model.WeakArea{weak}, plan)
		uncovered, _ := prioritizer.PrioritizeWeaknessesWithBalance(profile, []model.WeakArea{weak}, nil)

		// 半分のアクティビティが既に対応済み → 1 - 0.5 = 0.5
		assert.InDelta(t, 0.5, covered[0].BalanceScore, 0.001)
		assert.InDelta(t, 1.0, uncovered[0].BalanceScore, 0.001)
	})
}

func TestWeaknessPrioritizer_AdjustCurriculumForWeaknesses(t *testing.T) {
	prioritizer := service.NewWeaknessPrioritizer(i18n.NewZhCN())
	profile := &model.UserProfile{UserID: uuid.New()}
	now := time.Now()

	weaknesses := []model.WeakArea{
		{Skill: model.SkillGrammar, Language: model.LanguageEnglish, Severity: 0.8, IdentifiedAt: now},
		{Skill: model.SkillListening, Language: model.LanguageJapanese, Severity: 0.6, IdentifiedAt: now},
	}
	basePlan := &model.DailyPlan{
		PlanID: uuid.New(),
		UserID: profile.UserID,
		Date:   time.Now(),
		Allocation: model.TimeAllocation{
			TotalMinutes:    60,
			ReviewMinutes:   12,
			EnglishMinutes:  22,
			JapaneseMinutes: 22,
			BreakMinutes:    4,
		},
		Activities: []model.LearningActivity{
			{ActivityID: "base-1", Type: model.ActivityReading, Language: model.LanguageEnglish,
				EstimatedTime: 22, Difficulty: 0.4, SkillsPracticed: []model.Skill{model.SkillReading}},
		},
		Objectives: []string{"base"},
	}

	prioritized, balance := prioritizer.PrioritizeWeaknessesWithBalance(profile, weaknesses, basePlan)
	adjusted := prioritizer.AdjustCurriculumForWeaknesses(basePlan, prioritized, balance)

	assert.NotEqual(t, basePlan.PlanID, adjusted.PlanID)
	assert.Len(t, basePlan.Activities, 1, "base plan remains untouched")

	// 弱点ごとの練習が追加される
	assert.Greater(t, len(adjusted.Activities), len(basePlan.Activities))
	var weaknessTypes []model.ActivityType
	for _, a := range adjusted.Activities[1:] {
		weaknessTypes = append(weaknessTypes, a.Type)
		assert.Positive(t, a.EstimatedTime)
	}
	assert.Contains(t, weaknessTypes, model.ActivityGrammar)
	assert.Contains(t, weaknessTypes, model.ActivityListening)

	// 弱点の目標が追記される
	assert.Greater(t, len(adjusted.Objectives), len(basePlan.Objectives))
	assert.Equal(t, "base", adjusted.Objectives[0])
}

func TestWeaknessPrioritizer_CalculateBalanceMetrics(t *testing.T) {
	prioritizer := service.NewWeaknessPrioritizer(i18n.NewZhCN())

	t.Run("空の計画はゼロ", func(t *testing.T) {
		metrics := prioritizer.CalculateBalanceMetrics(&model.DailyPlan{})
		assert.Zero(t, metrics.OverallBalance)
	})

	t.Run("完全に均等な2言語はバランス1", func(t *testing.T) {
		plan := &model.DailyPlan{
			Activities: []model.LearningActivity{
				{Type: model.ActivityReading, Language: model.LanguageEnglish, Difficulty: 0.2,
					SkillsPracticed: []model.Skill{model.SkillReading}},
				{Type: model.ActivityListening, Language: model.LanguageJapanese, Difficulty: 0.8,
					SkillsPracticed: []model.Skill{model.SkillListening}},
			},
		}
		metrics := prioritizer.CalculateBalanceMetrics(plan)
		assert.InDelta(t, 1.0, metrics.LanguageBalance, 0.001)
		assert.InDelta(t, 1.0, metrics.SkillBalance, 0.001)
		assert.InDelta(t, 1.0, metrics.TypeBalance, 0.001)
		assert.InDelta(t, 1.0, metrics.DifficultyBalance, 0.001)
		assert.InDelta(t, 1.0, metrics.OverallBalance, 0.001)
	})

	t.Run("単一言語への偏りはバランス0", func(t *testing.T) {
		plan := &model.DailyPlan{
			Activities: []model.LearningActivity{
				{Type: model.ActivityReading, Language: model.LanguageEnglish, Difficulty: 0.5,
					SkillsPracticed: []model.Skill{model.SkillReading}},
				{Type: model.ActivityReading, Language: model.LanguageEnglish, Difficulty: 0.5,
					SkillsPracticed: []model.Skill{model.SkillReading}},
			},
		}
		metrics := prioritizer.CalculateBalanceMetrics(plan)
		assert.Zero(t, metrics.LanguageBalance)
		assert.Zero(t, metrics.OverallBalance)
	})
}

func TestWeaknessPrioritizer_GetWeaknessFocusRecommendations(t *testing.T) {
	prioritizer := service.NewWeaknessPrioritizer(i18n.NewZhCN())
	profile := &model.UserProfile{UserID: uuid.New()}

	t.Run("弱点がなければ励ましのみ", func(t *testing.T) {
		recs := prioritizer.GetWeaknessFocusRecommendations(profile, nil)
		require.Len(t, recs, 1)
	})

	t.Run("上位3件と時間配分の提案", func(t *testing.T) {
		weaknesses := make([]model.PrioritizedWeakness, 0, 4)
		for _, skill := range []model.Skill{model.SkillVocabulary, model.SkillGrammar, model.SkillReading, model.SkillWriting} {
			weaknesses = append(weaknesses, model.PrioritizedWeakness{
				WeakArea: model.WeakArea{Skill: skill, Language: model.LanguageEnglish, Severity: 0.7},
				Priority: 0.7,
			})
		}
		recs := prioritizer.GetWeaknessFocusRecommendations(profile, weaknesses)

		// 上位3件 + 残り1件のまとめ + 時間配分
		assert.Len(t, recs, 5)
	})
}
