// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ProgressMetrics はユーザー×言語ごとの学習進捗
type ProgressMetrics struct {
	UserID               uuid.UUID         `json:"user_id"`
	Language             Language          `json:"language"`
	VocabularyMastered   int               `json:"vocabulary_mastered"`
	GrammarPointsLearned int               `json:"grammar_points_learned"`
	ReadingScore         float64           `json:"reading_score"`
	ListeningScore       float64           `json:"listening_score"`
	SpeakingScore        float64           `json:"speaking_score"`
	WritingScore         float64           `json:"writing_score"`
	SkillProgress        map[Skill]float64 `json:"skill_progress"`
	OverallProgress      float64           `json:"overall_progress"`
	LastUpdated          time.Time         `json:"last_updated"`
}

// ProgressReport は期間指定の進捗レポート
type ProgressReport struct {
	UserID          uuid.UUID `json:"user_id"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	ActivityCount   int       `json:"activity_count"`
	TotalTime       int       `json:"total_time"` // 分単位
	AverageScore    float64   `json:"average_score"`
	AchievementRate float64   `json:"achievement_rate"` // スコア0.7以上の割合（%）
	SkillsImproved  []Skill   `json:"skills_improved"`
	Achievements    []string  `json:"achievements"`    // 中国語の達成メッセージ
	Recommendations []string  `json:"recommendations"` // 中国語の改善提案
}

// LevelAdvancement はレベル昇格の通知レコード
type LevelAdvancement struct {
	UserID        uuid.UUID `json:"user_id"`
	Language      Language  `json:"language"`
	FromLevel     string    `json:"from_level"`
	ToLevel       string    `json:"to_level"`
	Message       string    `json:"message"`       // 中国語の通知文
	Expectations  string    `json:"expectations"`  // 新レベルの目標
	Encouragement string    `json:"encouragement"` // 励ましの言葉
	AdvancedAt    time.Time `json:"advanced_at"`
}

// VocabularyStatus は言語ごとの語彙習得状況のレスポンスDTO
type VocabularyStatus struct {
	Language       Language `json:"language"`
	CurrentLevel   string   `json:"current_level"`
	MasteredCount  int      `json:"mastered_count"`
	RequiredCount  int      `json:"required_count"`
	LevelCompleted bool     `json:"level_completed"`
	ReadyToAdvance bool     `json:"ready_to_advance"`
	RetentionRate  float64  `json:"retention_rate"`
}

// UserStatus は全コンポーネント横断のユーザー状況サマリ
type UserStatus struct {
	UserID       uuid.UUID                     `json:"user_id"`
	Progress     *ProgressMetrics              `json:"progress"`
	Vocabulary   map[Language]VocabularyStatus `json:"vocabulary"`
	WeakAreas    []WeakArea                    `json:"weak_areas"`
	TotalResults int64                         `json:"total_results"`
	GeneratedAt  time.Time                     `json:"generated_at"`
}
