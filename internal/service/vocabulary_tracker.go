package service

import (
	"sync"
	"time"

	"go_bilingual_tutor/internal/i18n"
	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
)

// レベルごとの必要習得単語数
var levelRequirements = map[model.Language]map[string]int{
	model.LanguageEnglish: {
		"CET-4":  4500,
		"CET-5":  6000,
		"CET-6":  7500,
		"CET-6+": 10000,
	},
	model.LanguageJapanese: {
		"N5":  800,
		"N4":  1500,
		"N3":  3000,
		"N2":  6000,
		"N1":  10000,
		"N1+": 15000,
	},
}

// レベルの昇格順
var levelProgression = map[model.Language][]string{
	model.LanguageEnglish:  {"CET-4", "CET-5", "CET-6", "CET-6+"},
	model.LanguageJapanese: {"N5", "N4", "N3", "N2", "N1", "N1+"},
}

// DefaultLevel は言語ごとの開始レベルを返します
func DefaultLevel(lang model.Language) string {
	if lang == model.LanguageJapanese {
		return "N5"
	}
	return "CET-4"
}

// LevelRequirement はレベルの必要単語数を返します（未知のレベルは0）
func LevelRequirement(lang model.Language, level string) int {
	return levelRequirements[lang][level]
}

// VocabularyTracker は語彙の習得状況を追跡し、レベル昇格を判定します。
type VocabularyTracker interface {
	RecordWordLearned(userID uuid.UUID, word string, lang model.Language, score float64)
	CheckLevelCompletion(userID uuid.UUID, lang model.Language) bool
	CalculateRetentionRate(userID uuid.UUID, lang model.Language, timeframe time.Duration) float64
	SuggestLevelAdvancement(userID uuid.UUID, lang model.Language) bool
	AdvanceLevel(userID uuid.UUID, lang model.Language) string
	CurrentLevel(userID uuid.UUID, lang model.Language) string
	MasteredCount(userID uuid.UUID, lang model.Language) int
	GetPendingNotifications(userID uuid.UUID) []*model.LevelAdvancement
	ClearNotifications(userID uuid.UUID)
}

type wordRecord struct {
	learnedAt time.Time // 習得と判定された最初の日時（未習得ならゼロ値）
	scores    []float64 // レビュー履歴（古い順）
}

// vocabularyTracker はユーザー×言語ごとの単語記録をメモリ上に保持します。
type vocabularyTracker struct {
	mu            sync.Mutex
	words         map[uuid.UUID]map[model.Language]map[string]*wordRecord
	userLevels    map[uuid.UUID]map[model.Language]string
	notifications map[uuid.UUID][]*model.LevelAdvancement
	msgs          i18n.Localizer
}

func NewVocabularyTracker(msgs i18n.Localizer) VocabularyTracker {
	return &vocabularyTracker{
		words:         make(map[uuid.UUID]map[model.Language]map[string]*wordRecord),
		userLevels:    make(map[uuid.UUID]map[model.Language]string),
		notifications: make(map[uuid.UUID][]*model.LevelAdvancement),
		msgs:          msgs,
	}
}

func (t *vocabularyTracker) wordsFor(userID uuid.UUID, lang model.Language) map[string]*wordRecord {
	if _, ok := t.words[userID]; !ok {
		t.words[userID] = make(map[model.Language]map[string]*wordRecord)
	}
	if _, ok := t.words[userID][lang]; !ok {
		t.words[userID][lang] = make(map[string]*wordRecord)
	}
	return t.words[userID][lang]
}

// RecordWordLearned は単語のレビュー結果を記録します。
// スコア80%以上で習得とみなします。一度習得した単語の習得日時は変わりません。
func (t *vocabularyTracker) RecordWordLearned(userID uuid.UUID, word string, lang model.Language, score float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	words := t.wordsFor(userID, lang)
	record, ok := words[word]
	if !ok {
		record = &wordRecord{}
		words[word] = record
	}

	if score >= 0.8 && record.learnedAt.IsZero() {
		record.learnedAt = time.Now()
	}
	record.scores = append(record.scores, score)
}

// CheckLevelCompletion は現在レベルの必要単語数を満たしたかを返します
func (t *vocabularyTracker) CheckLevelCompletion(userID uuid.UUID, lang model.Language) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkLevelCompletionLocked(userID, lang)
}

func (t *vocabularyTracker) checkLevelCompletionLocked(userID uuid.UUID, lang model.Language) bool {
	langWords, ok := t.words[userID][lang]
	if !ok {
		return false
	}

	currentLevel := t.currentLevelLocked(userID, lang)
	required := levelRequirements[lang][currentLevel]

	return t.masteredCountLocked(langWords) >= required
}

func (t *vocabularyTracker) masteredCountLocked(langWords map[string]*wordRecord) int {
	count := 0
	for _, record := range langWords {
		if !record.learnedAt.IsZero() {
			count++
		}
	}
	return count
}

// CalculateRetentionRate は期間内に習得した単語の保持率（%）を返します。
// 直近3回のレビュー平均が0.7以上なら保持とみなします。
func (t *vocabularyTracker) CalculateRetentionRate(userID uuid.UUID, lang model.Language, timeframe time.Duration) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retentionRateLocked(userID, lang, timeframe)
}

func (t *vocabularyTracker) retentionRateLocked(userID uuid.UUID, lang model.Language, timeframe time.Duration) float64 {
	langWords, ok := t.words[userID][lang]
	if !ok {
		return 0.0
	}

	cutoff := time.Now().Add(-timeframe)
	total, retained := 0, 0
	for _, record := range langWords {
		if record.learnedAt.IsZero() || record.learnedAt.Before(cutoff) {
			continue
		}
		total++
		if len(record.scores) == 0 {
			continue
		}
		recent := record.scores
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		sum := 0.0
		for _, s := range recent {
			sum += s
		}
		if sum/float64(len(recent)) >= 0.7 {
			retained++
		}
	}

	if total == 0 {
		return 0.0
	}
	return float64(retained) / float64(total) * 100.0
}

// SuggestLevelAdvancement はレベル昇格の条件をすべて満たしたかを返します。
// 条件: レベル完了、30日間の保持率70%以上、直近成績の平均75%以上。
func (t *vocabularyTracker) SuggestLevelAdvancement(userID uuid.UUID, lang model.Language) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.checkLevelCompletionLocked(userID, lang) {
		return false
	}

	if t.retentionRateLocked(userID, lang, 30*24*time.Hour) < 70.0 {
		return false
	}

	// 各単語の直近5回分のスコアを合算して平均を取る
	langWords := t.words[userID][lang]
	var allScores []float64
	for _, record := range langWords {
		recent := record.scores
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		allScores = append(allScores, recent...)
	}
	if len(allScores) > 0 {
		sum := 0.0
		for _, s := range allScores {
			sum += s
		}
		if sum/float64(len(allScores)) < 0.75 {
			return false
		}
	}

	return true
}

// AdvanceLevel は次のレベルへ昇格させ、新しいレベルを返します。
// 最上位レベルでは何もせず現在レベルを返します。
func (t *vocabularyTracker) AdvanceLevel(userID uuid.UUID, lang model.Language) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	currentLevel := t.currentLevelLocked(userID, lang)
	progression := levelProgression[lang]

	for i, level := range progression {
		if level != currentLevel {
			continue
		}
		if i >= len(progression)-1 {
			break
		}
		newLevel := progression[i+1]
		if _, ok := t.userLevels[userID]; !ok {
			t.userLevels[userID] = make(map[model.Language]string)
		}
		t.userLevels[userID][lang] = newLevel
		t.appendNotificationLocked(userID, lang, currentLevel, newLevel)
		return newLevel
	}

	return currentLevel
}

func (t *vocabularyTracker) appendNotificationLocked(userID uuid.UUID, lang model.Language, oldLevel, newLevel string) {
	required := levelRequirements[lang][newLevel]
	t.notifications[userID] = append(t.notifications[userID], &model.LevelAdvancement{
		UserID:        userID,
		Language:      lang,
		FromLevel:     oldLevel,
		ToLevel:       newLevel,
		Message:       t.msgs.AdvancementMessage(lang, oldLevel, newLevel),
		Expectations:  t.msgs.AdvancementExpectations(lang, required),
		Encouragement: t.msgs.AdvancementEncouragement(),
		AdvancedAt:    time.Now(),
	})
}

func (t *vocabularyTracker) CurrentLevel(userID uuid.UUID, lang model.Language) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLevelLocked(userID, lang)
}

func (t *vocabularyTracker) currentLevelLocked(userID uuid.UUID, lang model.Language) string {
	if levels, ok := t.userLevels[userID]; ok {
		if level, ok := levels[lang]; ok {
			return level
		}
	}
	return DefaultLevel(lang)
}

func (t *vocabularyTracker) MasteredCount(userID uuid.UUID, lang model.Language) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	langWords, ok := t.words[userID][lang]
	if !ok {
		return 0
	}
	return t.masteredCountLocked(langWords)
}

func (t *vocabularyTracker) GetPendingNotifications(userID uuid.UUID) []*model.LevelAdvancement {
	t.mu.Lock()
	defer t.mu.Unlock()

	notifications := t.notifications[userID]
	out := make([]*model.LevelAdvancement, len(notifications))
	copy(out, notifications)
	return out
}

func (t *vocabularyTracker) ClearNotifications(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.notifications, userID)
}
