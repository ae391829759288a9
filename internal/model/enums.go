// internal/model/enums.go
package model

// Language は学習対象の言語
type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageJapanese Language = "japanese"

	// LanguageMixed は両言語にまたがる復習アクティビティ専用。入力値としては無効です
	LanguageMixed Language = "mixed"
)

// Languages は対応言語の一覧（表示順）
var Languages = []Language{LanguageEnglish, LanguageJapanese}

func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageJapanese
}

// Skill は学習スキルの区分
type Skill string

const (
	SkillVocabulary    Skill = "vocabulary"
	SkillGrammar       Skill = "grammar"
	SkillReading       Skill = "reading"
	SkillListening     Skill = "listening"
	SkillSpeaking      Skill = "speaking"
	SkillWriting       Skill = "writing"
	SkillPronunciation Skill = "pronunciation"
	SkillComprehension Skill = "comprehension"
)

// AllSkills はスキル分布計算で使う既知スキルの全集合
var AllSkills = []Skill{
	SkillVocabulary, SkillGrammar, SkillReading, SkillListening,
	SkillSpeaking, SkillWriting, SkillPronunciation, SkillComprehension,
}

// ActivityType は学習アクティビティの種別
type ActivityType string

const (
	ActivityVocabulary ActivityType = "vocabulary"
	ActivityGrammar    ActivityType = "grammar"
	ActivityReading    ActivityType = "reading"
	ActivityListening  ActivityType = "listening"
	ActivitySpeaking   ActivityType = "speaking"
	ActivityWriting    ActivityType = "writing"
	ActivityReview     ActivityType = "review"
)

// SessionStatus は学習セッションの状態
type SessionStatus string

const (
	SessionPlanned    SessionStatus = "planned"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPlanned, SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Trend は直近成績の傾向
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)
