// internal/i18n/i18n.go
package i18n

import (
	"fmt"
	"strings"

	"go_bilingual_tutor/internal/model"
)

// Localizer はユーザー向け文言（中国語）を生成します。
// コアのロジックから文言の組み立てを分離するための境界です。
type Localizer interface {
	LanguageName(lang model.Language) string

	ObjectiveReview() string
	ObjectiveImproveLanguage(lang model.Language, level string) string
	ObjectiveDecliningSkills(skills []model.Skill) string
	ObjectiveWeaknessFocus(skill model.Skill, lang model.Language) string
	ObjectiveWeaknessDetail(skill model.Skill, lang model.Language, severity float64) string
	ObjectiveOtherWeaknesses(count int) string

	ReviewActivityTitle() string
	ReviewActivityBody() string
	StudyActivityTitle(lang model.Language) string
	StudyActivityBody(lang model.Language, level string) string
	WeaknessActivityTitle(skill model.Skill) string
	WeaknessActivityBody(skill model.Skill) string
	BalanceActivityTitle(lang model.Language) string
	BalanceActivityBody(lang model.Language) string

	Feedback(score float64) string
	FeedbackHint(activityType model.ActivityType) string
	SimulatedErrors(lang model.Language, activityType model.ActivityType) []string

	AchievementWeeklyGoal() string
	AchievementStudyTime() string
	AchievementExcellentAverage() string
	RecommendStartLearning() string
	RecommendMoreFrequency() string
	RecommendReviewBasics() string
	RecommendVariety() string
	RecommendNoWeakness() string
	RecommendPriority(rank int, skill model.Skill, lang model.Language, severity float64) string
	RecommendOtherWeaknesses(count int) string
	RecommendWeaknessTime(ratio float64) string

	AdvancementMessage(lang model.Language, oldLevel, newLevel string) string
	AdvancementExpectations(lang model.Language, requiredWords int) string
	AdvancementEncouragement() string

	InsightStrength(skill model.Skill) string
	InsightWeakness(skill model.Skill) string
	InsightErrorPattern(errors []string) string
}

// zhCN は簡体字中国語のメッセージカタログです
type zhCN struct{}

func NewZhCN() Localizer {
	return &zhCN{}
}

func (z *zhCN) LanguageName(lang model.Language) string {
	if lang == model.LanguageJapanese {
		return "日语"
	}
	return "英语"
}

func (z *zhCN) ObjectiveReview() string {
	return "复习之前学过的内容以加强记忆"
}

func (z *zhCN) ObjectiveImproveLanguage(lang model.Language, level string) string {
	return fmt.Sprintf("提高%s水平 (%s)", z.LanguageName(lang), level)
}

func (z *zhCN) ObjectiveDecliningSkills(skills []model.Skill) string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, string(s))
	}
	return fmt.Sprintf("加强练习表现下降的技能: %s", strings.Join(names, ", "))
}

func (z *zhCN) ObjectiveWeaknessFocus(skill model.Skill, lang model.Language) string {
	return fmt.Sprintf("重点改进: %s (%s)", skill, z.LanguageName(lang))
}

func (z *zhCN) ObjectiveWeaknessDetail(skill model.Skill, lang model.Language, severity float64) string {
	return fmt.Sprintf("重点改进 %s (%s) - 严重程度: %.0f%%", skill, z.LanguageName(lang), severity*100)
}

func (z *zhCN) ObjectiveOtherWeaknesses(count int) string {
	return fmt.Sprintf("同时关注其他 %d 个弱点", count)
}

func (z *zhCN) ReviewActivityTitle() string {
	return "复习活动"
}

func (z *zhCN) ReviewActivityBody() string {
	return "基于遗忘曲线的间隔重复复习"
}

func (z *zhCN) StudyActivityTitle(lang model.Language) string {
	return fmt.Sprintf("%s学习内容", z.LanguageName(lang))
}

func (z *zhCN) StudyActivityBody(lang model.Language, level string) string {
	return fmt.Sprintf("适合 %s 水平的%s学习材料", level, z.LanguageName(lang))
}

func (z *zhCN) WeaknessActivityTitle(skill model.Skill) string {
	return fmt.Sprintf("%s 弱点改进练习", skill)
}

func (z *zhCN) WeaknessActivityBody(skill model.Skill) string {
	return fmt.Sprintf("针对 %s 弱点的专项练习", skill)
}

func (z *zhCN) BalanceActivityTitle(lang model.Language) string {
	return fmt.Sprintf("%s平衡补充练习", z.LanguageName(lang))
}

func (z *zhCN) BalanceActivityBody(lang model.Language) string {
	return fmt.Sprintf("用于平衡学习计划的%s短练习", z.LanguageName(lang))
}

// Feedback はスコア帯に応じたフィードバック文を返します
func (z *zhCN) Feedback(score float64) string {
	switch {
	case score >= 0.9:
		return "优秀！您在这个练习中表现出色。"
	case score >= 0.8:
		return "很好！您掌握得不错，继续保持。"
	case score >= 0.7:
		return "良好。还有一些地方需要改进。"
	case score >= 0.6:
		return "及格。建议多练习相关内容。"
	default:
		return "需要更多练习。不要气馁，继续努力！"
	}
}

func (z *zhCN) FeedbackHint(activityType model.ActivityType) string {
	switch activityType {
	case model.ActivityVocabulary:
		return " 建议使用间隔重复法来加强词汇记忆。"
	case model.ActivityGrammar:
		return " 语法规则需要更多练习和理解。"
	case model.ActivityReading:
		return " 多读相似难度的文章来提高理解能力。"
	default:
		return ""
	}
}

// SimulatedErrors はシミュレーション実行時の典型的なエラー例を返します
func (z *zhCN) SimulatedErrors(lang model.Language, activityType model.ActivityType) []string {
	if lang == model.LanguageJapanese {
		switch activityType {
		case model.ActivityVocabulary:
			return []string{"假名书写错误", "汉字读音混淆"}
		case model.ActivityGrammar:
			return []string{"助词使用错误", "敬语形式不当"}
		default:
			return []string{"语境理解偏差", "文化背景缺失"}
		}
	}
	switch activityType {
	case model.ActivityVocabulary:
		return []string{"词汇拼写错误", "词义理解偏差"}
	case model.ActivityGrammar:
		return []string{"时态使用错误", "语序问题"}
	default:
		return []string{"细节理解不准确", "主旨把握不够"}
	}
}

func (z *zhCN) AchievementWeeklyGoal() string {
	return "完成了一周的学习目标"
}

func (z *zhCN) AchievementStudyTime() string {
	return "学习时间超过5小时"
}

func (z *zhCN) AchievementExcellentAverage() string {
	return "平均成绩优秀 (80%+)"
}

func (z *zhCN) RecommendStartLearning() string {
	return "开始学习以获得进度报告"
}

func (z *zhCN) RecommendMoreFrequency() string {
	return "建议增加学习频率，每周至少5次"
}

func (z *zhCN) RecommendReviewBasics() string {
	return "建议复习基础知识，提高理解程度"
}

func (z *zhCN) RecommendVariety() string {
	return "尝试不同类型的练习来提高技能"
}

func (z *zhCN) RecommendNoWeakness() string {
	return "目前没有发现明显的弱点，继续保持均衡学习"
}

func (z *zhCN) RecommendPriority(rank int, skill model.Skill, lang model.Language, severity float64) string {
	levels := []string{"最高", "高", "中等"}
	priorityLevel := "一般"
	if rank < len(levels) {
		priorityLevel = levels[rank]
	}
	return fmt.Sprintf("%s优先级：加强 %s (%s) - 严重程度: %.1f%%",
		priorityLevel, skill, z.LanguageName(lang), severity*100)
}

func (z *zhCN) RecommendOtherWeaknesses(count int) string {
	return fmt.Sprintf("同时关注其他 %d 个弱点，但优先级较低", count)
}

func (z *zhCN) RecommendWeaknessTime(ratio float64) string {
	return fmt.Sprintf("建议将 %.0f%% 的学习时间用于改进弱点", ratio*100)
}

func (z *zhCN) AdvancementMessage(lang model.Language, oldLevel, newLevel string) string {
	return fmt.Sprintf("恭喜！您的%s水平已从%s提升到%s！", z.LanguageName(lang), oldLevel, newLevel)
}

func (z *zhCN) AdvancementExpectations(lang model.Language, requiredWords int) string {
	return fmt.Sprintf("新目标：掌握%d个%s词汇", requiredWords, z.LanguageName(lang))
}

func (z *zhCN) AdvancementEncouragement() string {
	return "继续努力，您正在稳步进步！"
}

func (z *zhCN) InsightStrength(skill model.Skill) string {
	return fmt.Sprintf("%s 技能持续改进", skill)
}

func (z *zhCN) InsightWeakness(skill model.Skill) string {
	return fmt.Sprintf("%s 技能需要更多关注", skill)
}

func (z *zhCN) InsightErrorPattern(errs []string) string {
	if len(errs) > 3 {
		errs = errs[:3]
	}
	return fmt.Sprintf("常见错误模式: %s", strings.Join(errs, ", "))
}
