// internal/model/session.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// StudySession は1日の計画とその実行状態
type StudySession struct {
	SessionID uuid.UUID     `json:"session_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Plan      *DailyPlan    `json:"plan"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

// ActivityResult はアクティビティ実行結果。一度記録したら変更しません
type ActivityResult struct {
	ResultID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"result_id"`
	UserID          uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	ActivityID      string       `gorm:"not null" json:"activity_id"`
	ActivityType    ActivityType `gorm:"not null" json:"activity_type"`
	Language        Language     `gorm:"not null;index" json:"language"`
	SkillsPracticed []Skill      `gorm:"serializer:json" json:"skills_practiced"`
	Score           float64      `gorm:"not null" json:"score"`      // 0.0〜1.0
	TimeSpent       int          `gorm:"not null" json:"time_spent"` // 分単位
	Errors          []string     `gorm:"serializer:json" json:"errors,omitempty"`
	Feedback        string       `json:"feedback,omitempty"`
	Words           []string     `gorm:"serializer:json" json:"words,omitempty"` // 語彙アクティビティで出題した単語
	CompletedAt     time.Time    `gorm:"not null;index" json:"completed_at"`
}

func (ActivityResult) TableName() string {
	return "activity_results"
}

// 結果記録リクエストDTO
type PostResultRequest struct {
	ActivityID      string       `json:"activity_id" validate:"required"`
	ActivityType    ActivityType `json:"activity_type" validate:"required"`
	Language        Language     `json:"language" validate:"required"`
	SkillsPracticed []Skill      `json:"skills_practiced" validate:"required,min=1"`
	Score           *float64     `json:"score" validate:"required,min=0,max=1"`
	TimeSpent       int          `json:"time_spent" validate:"required,min=0"`
	Errors          []string     `json:"errors,omitempty"`
	Words           []string     `json:"words,omitempty"`
}

// セッション状態更新リクエストDTO
type PatchSessionRequest struct {
	Status SessionStatus `json:"status" validate:"required"`
}
