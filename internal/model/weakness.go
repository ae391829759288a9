// internal/model/weakness.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// WeakArea は改善が必要な (スキル, 言語) の組
type WeakArea struct {
	Skill        Skill     `json:"skill"`
	Language     Language  `json:"language"`
	Severity     float64   `json:"severity"` // 0.0〜1.0
	IdentifiedAt time.Time `json:"identified_at"`
}

// PrioritizedWeakness は優先度計算後の弱点
type PrioritizedWeakness struct {
	WeakArea
	Priority float64 `json:"priority"`

	// 内訳（デバッグ・説明用）
	SeverityScore   float64 `json:"severity_score"`
	UrgencyScore    float64 `json:"urgency_score"`
	ImpactScore     float64 `json:"impact_score"`
	DependencyScore float64 `json:"dependency_score"`
	BalanceScore    float64 `json:"balance_score"`
}

// PerformancePattern は (スキル, 言語) ごとの傾向分析結果。永続化しません
type PerformancePattern struct {
	Skill        Skill     `json:"skill"`
	Language     Language  `json:"language"`
	Trend        Trend     `json:"trend"`
	Confidence   float64   `json:"confidence"` // 0.1〜1.0
	RecentScores []float64 `json:"recent_scores"`
	SampleCount  int       `json:"sample_count"`
}

// LearningInsight はユーザー向けの分析サマリ
type LearningInsight struct {
	UserID      uuid.UUID            `json:"user_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Patterns    []PerformancePattern `json:"patterns"`
	Strengths   []string             `json:"strengths"`   // 中国語
	Weaknesses  []string             `json:"weaknesses"`  // 中国語
	Suggestions []string             `json:"suggestions"` // 中国語
}
