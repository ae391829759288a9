// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ユーザーの基本情報と学習プロファイル
type UserProfile struct {
	UserID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name           string         `gorm:"not null" json:"name"`
	Email          string         `gorm:"unique;not null" json:"email"`
	IsActive       bool           `json:"is_active" gorm:"default:false"`
	EnglishLevel   string         `gorm:"not null;default:CET-4" json:"english_level"`
	JapaneseLevel  string         `gorm:"not null;default:N5" json:"japanese_level"`
	DailyStudyTime int            `gorm:"not null;default:60" json:"daily_study_time"` // 分単位
	Goals          []string       `gorm:"serializer:json" json:"goals"`
	Preferences    Preferences    `gorm:"serializer:json" json:"preferences"`
	WeakAreas      []WeakArea     `gorm:"serializer:json" json:"weak_areas,omitempty"` // 弱点分析の結果を保持
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// GORM用のリレーション (JSONには含めない)
	Identities []Identity `gorm:"foreignKey:UserID" json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// Level は言語ごとの現在レベルを返します
func (u *UserProfile) Level(lang Language) string {
	if lang == LanguageJapanese {
		return u.JapaneseLevel
	}
	return u.EnglishLevel
}

// SetLevel は言語ごとのレベルを更新します
func (u *UserProfile) SetLevel(lang Language, level string) {
	if lang == LanguageJapanese {
		u.JapaneseLevel = level
	} else {
		u.EnglishLevel = level
	}
}

// Preferences は学習の好み設定
type Preferences struct {
	PrioritySkills  []Skill        `json:"priority_skills,omitempty"`
	PreferredTypes  []ActivityType `json:"preferred_types,omitempty"`
	SessionMinutes  int            `json:"session_minutes,omitempty"`
	NotifyByEmail   bool           `json:"notify_by_email,omitempty"`
	InterfaceLocale string         `json:"interface_locale,omitempty"`
}

const (
	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
)

// Identity は認証情報を表します
type Identity struct {
	ID     uint      `gorm:"primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"` // user_profilesテーブルへの外部キー

	// どのプロバイダで、どのIDかを示す複合キー
	AuthProvider string `gorm:"type:varchar(50);not null;uniqueIndex:uq_identity_provider"`
	ProviderID   string `gorm:"not null;uniqueIndex:uq_identity_provider"` // localの場合はemail

	// パスワードハッシュは local プロバイダの場合のみ使用
	PasswordHash *string `gorm:"default:null"`
}

func (Identity) TableName() string {
	return "identities"
}

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
)

// RegisterRequest は新規登録APIのリクエストボディの構造体 (DTO)
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserResponse はクライアントに返すユーザー情報の構造体
type UserResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	IsActive       bool      `json:"is_active"`
	EnglishLevel   string    `json:"english_level"`
	JapaneseLevel  string    `json:"japanese_level"`
	DailyStudyTime int       `json:"daily_study_time"`
	CreatedAt      time.Time `json:"created_at"`
}

// プロファイル更新（部分）リクエストDTO
type PatchProfileRequest struct {
	Name           *string      `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	DailyStudyTime *int         `json:"daily_study_time,omitempty" validate:"omitempty,min=10,max=720"`
	Goals          *[]string    `json:"goals,omitempty"`
	Preferences    *Preferences `json:"preferences,omitempty"`
}
