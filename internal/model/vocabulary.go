// internal/model/vocabulary.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VocabularyWord はユーザーが学習した単語の記録
type VocabularyWord struct {
	WordID      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"word_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_lang_word,unique" json:"-"`
	Language    Language       `gorm:"not null;index:idx_user_lang_word,unique" json:"language"`
	Word        string         `gorm:"not null;index:idx_user_lang_word,unique" json:"word"`
	Mastered    bool           `gorm:"not null;default:false" json:"mastered"`
	ReviewCount int            `gorm:"not null;default:0" json:"review_count"`
	LastScore   float64        `json:"last_score"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (VocabularyWord) TableName() string {
	return "vocabulary_words"
}
