// internal/model/plan.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// TimeAllocation は1日の学習時間の内訳（すべて分単位）
// Review + English + Japanese + Break = Total が常に成り立ちます
type TimeAllocation struct {
	TotalMinutes    int `json:"total_minutes"`
	ReviewMinutes   int `json:"review_minutes"`
	EnglishMinutes  int `json:"english_minutes"`
	JapaneseMinutes int `json:"japanese_minutes"`
	BreakMinutes    int `json:"break_minutes"`
}

// LearningActivity は計画に含まれる1つの学習アクティビティ
type LearningActivity struct {
	ActivityID      string       `json:"activity_id"`
	Type            ActivityType `json:"type"`
	Language        Language     `json:"language"`
	Title           string       `json:"title"`
	ContentID       string       `json:"content_id,omitempty"`
	EstimatedTime   int          `json:"estimated_time"` // 分単位
	Difficulty      float64      `json:"difficulty"`     // 0.0〜1.0
	SkillsPracticed []Skill      `json:"skills_practiced"`
}

// DailyPlan は1日分の学習計画
type DailyPlan struct {
	PlanID     uuid.UUID          `json:"plan_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Date       time.Time          `json:"date"`
	Allocation TimeAllocation     `json:"allocation"`
	Activities []LearningActivity `json:"activities"`
	Objectives []string           `json:"objectives"` // 中国語の学習目標
	CreatedAt  time.Time          `json:"created_at"`
}

// TotalEstimatedTime はアクティビティの予定時間の合計を返します
func (p *DailyPlan) TotalEstimatedTime() int {
	total := 0
	for _, a := range p.Activities {
		total += a.EstimatedTime
	}
	return total
}

// CurriculumBalance はカリキュラムの配分指標
type CurriculumBalance struct {
	WeaknessFocusRatio float64              `json:"weakness_focus_ratio"`
	SkillDistribution  map[Skill]float64    `json:"skill_distribution"`
	LanguageBalance    map[Language]float64 `json:"language_balance"`
	NewVsReviewRatio   float64              `json:"new_vs_review_ratio"`
}

// BalanceMetrics は計画の偏り評価（正規化エントロピー）
type BalanceMetrics struct {
	SkillBalance      float64 `json:"skill_balance"`
	LanguageBalance   float64 `json:"language_balance"`
	DifficultyBalance float64 `json:"difficulty_balance"`
	TypeBalance       float64 `json:"type_balance"`
	OverallBalance    float64 `json:"overall_balance"`
}

// PlanRequest は計画生成APIのリクエストDTO
type PlanRequest struct {
	TotalMinutes *int `json:"total_minutes,omitempty" validate:"omitempty,min=10,max=720"`
}
