package service

import (
	"regexp"
	"sort"
	"strings"

	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
)

// vocabularyLevels はレベル別の既習語彙セット。
// 実運用ではコンテンツDBに置くべきものですが、判定ロジックの基準として内蔵しています。
var vocabularyLevels = map[model.Language]map[string]map[string]bool{
	model.LanguageEnglish: {
		"CET-4": wordSet("hello", "good", "morning", "student", "school", "book", "read", "write", "learn", "study"),
		"CET-5": wordSet("academic", "research", "analysis", "development", "professional", "communication"),
		"CET-6": wordSet("sophisticated", "comprehensive", "methodology", "implementation", "theoretical"),
	},
	model.LanguageJapanese: {
		"N5": wordSet("こんにちは", "学生", "学校", "本", "読む", "書く", "勉強", "友達"),
		"N4": wordSet("研究", "分析", "開発", "専門", "コミュニケーション"),
		"N3": wordSet("理論", "方法論", "実装", "包括的"),
		"N2": wordSet("洗練された", "体系的", "概念的"),
		"N1": wordSet("哲学的", "抽象的", "複雑"),
	},
}

// grammarLevels はレベル別の文法項目セット
var grammarLevels = map[model.Language]map[string]map[string]bool{
	model.LanguageEnglish: {
		"CET-4": wordSet("present_simple", "present_continuous", "past_simple"),
		"CET-5": wordSet("present_perfect", "future_simple", "conditional"),
		"CET-6": wordSet("past_perfect", "subjunctive", "complex_conditional"),
	},
	model.LanguageJapanese: {
		"N5": wordSet("masu_form", "polite_form", "present_tense"),
		"N4": wordSet("past_tense", "progressive", "potential_form"),
		"N3": wordSet("passive_voice", "causative", "conditional"),
		"N2": wordSet("honorific", "humble", "complex_conditional"),
		"N1": wordSet("literary_forms", "classical_grammar", "advanced_keigo"),
	},
}

func wordSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

var (
	englishWordRe   = regexp.MustCompile(`\b[a-zA-Z]+\b`)
	japaneseWordRe  = regexp.MustCompile(`[\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}]+`)
	sentenceSplitRe = regexp.MustCompile(`[.!?。！？]+`)
	punctuationRe   = regexp.MustCompile(`[;:,\-()]`)

	presentPerfectRe    = regexp.MustCompile(`\b(have|has)\s+\w+ed\b`)
	futureSimpleRe      = regexp.MustCompile(`\bwill\s+\w+\b`)
	presentContinuousRe = regexp.MustCompile(`\b\w+ing\b`)
	conditionalRe       = regexp.MustCompile(`\bif\s+.*,\s+.*would\b`)
)

// contentTemplate は内蔵コンテンツの雛形
type contentTemplate struct {
	title string
	body  string
}

// contentTemplates は (言語, レベル, 種別) ごとの雛形カタログ
var contentTemplates = map[model.Language]map[string]map[model.ActivityType][]contentTemplate{
	model.LanguageEnglish: {
		"CET-4": {
			model.ActivityReading: {{
				title: "Daily Life in English",
				body:  "Learning English through daily activities helps students improve their language skills. Simple conversations about weather, food, and hobbies provide practical vocabulary for everyday use.",
			}},
			model.ActivityGrammar: {{
				title: "Basic Grammar Exercise",
				body:  "Complete the sentences with the correct form of the verb: 1. I ___ (go) to school every day. 2. She ___ (like) reading books.",
			}},
		},
	},
	model.LanguageJapanese: {
		"N5": {
			model.ActivityReading: {{
				title: "日本の文化",
				body:  "日本には美しい文化があります。桜の季節には多くの人が花見をします。日本料理も世界中で人気です。",
			}},
			model.ActivityVocabulary: {{
				title: "ひらがな練習",
				body:  "次の単語をひらがなで書いてください：1. 学校 2. 友達 3. 先生",
			}},
		},
	},
}

// ContentSource は学習エンジンが利用するコンテンツ供給の境界です
type ContentSource interface {
	GenerateLevelAppropriateContent(profile *model.UserProfile, lang model.Language, activityType model.ActivityType) []model.Content
}

// ContentGenerator はレベル適合コンテンツの生成・判定を行います
type ContentGenerator interface {
	ContentSource
	AssessContentDifficulty(content *model.Content) string
	MatchVocabularyToLevel(words []string, lang model.Language, targetLevel string) []string
	MatchGrammarToLevel(content *model.Content, targetLevel string) bool
	AdjustContentForLevel(content *model.Content, targetLevel string) model.Content
}

type contentGenerator struct{}

func NewContentGenerator() ContentGenerator {
	return &contentGenerator{}
}

// GenerateLevelAppropriateContent は現在レベルに合うコンテンツを生成し、
// 語彙・文法のフィルタと難易度調整を通した上で弱点カバー順に並べて返します。
func (g *contentGenerator) GenerateLevelAppropriateContent(profile *model.UserProfile, lang model.Language, activityType model.ActivityType) []model.Content {
	level := profile.Level(lang)

	var contents []model.Content
	for _, tpl := range templatesFor(lang, level, activityType) {
		text := tpl.title + " " + tpl.body
		contents = append(contents, model.Content{
			ContentID:     uuid.NewString(),
			Language:      lang,
			Level:         level,
			Type:          activityType,
			Title:         tpl.title,
			Body:          tpl.body,
			Words:         extractWords(text, lang),
			GrammarPoints: extractGrammarPatterns(text, lang),
		})
	}

	filtered := contents[:0]
	for _, c := range contents {
		if !g.isVocabularyAppropriate(&c, lang, level) {
			continue
		}
		if !g.MatchGrammarToLevel(&c, level) {
			continue
		}
		filtered = append(filtered, c)
	}

	adjusted := make([]model.Content, 0, len(filtered))
	for _, c := range filtered {
		if g.AssessContentDifficulty(&c) == level {
			adjusted = append(adjusted, c)
		} else {
			adjusted = append(adjusted, g.AdjustContentForLevel(&c, level))
		}
	}

	return prioritizeByWeakAreas(adjusted, profile.WeakAreas, lang)
}

func templatesFor(lang model.Language, level string, activityType model.ActivityType) []contentTemplate {
	if byLevel, ok := contentTemplates[lang]; ok {
		if byType, ok := byLevel[level]; ok {
			if tpls, ok := byType[activityType]; ok && len(tpls) > 0 {
				return tpls
			}
		}
	}
	return []contentTemplate{{title: "Sample Content", body: "Sample content for practice."}}
}

// AssessContentDifficulty は語彙・文法・構造の3指標の平均でレベル帯を判定します
func (g *contentGenerator) AssessContentDifficulty(content *model.Content) string {
	text := content.Title + " " + content.Body

	vocabDifficulty := vocabularyDifficulty(text, content.Language)
	grammarDifficulty := grammarDifficulty(text, content.Language)
	structuralDifficulty := structuralDifficulty(text)

	overall := (vocabDifficulty + grammarDifficulty + structuralDifficulty) / 3
	return mapDifficultyToLevel(overall, content.Language)
}

// MatchVocabularyToLevel は対象レベル以下で既習の語彙だけを残します
func (g *contentGenerator) MatchVocabularyToLevel(words []string, lang model.Language, targetLevel string) []string {
	byLevel, ok := vocabularyLevels[lang]
	if !ok {
		return words
	}
	progression := levelProgression[lang]
	targetIndex := indexOf(progression, targetLevel)
	if targetIndex < 0 {
		return words
	}

	allowed := make(map[string]bool)
	for i := 0; i <= targetIndex; i++ {
		for w := range byLevel[progression[i]] {
			allowed[w] = true
		}
	}

	var filtered []string
	for _, w := range words {
		if allowed[strings.ToLower(w)] || allowed[w] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// MatchGrammarToLevel は含まれる文法項目がすべて対象レベル以下かを判定します
func (g *contentGenerator) MatchGrammarToLevel(content *model.Content, targetLevel string) bool {
	byLevel, ok := grammarLevels[content.Language]
	if !ok {
		return true
	}
	progression := levelProgression[content.Language]
	targetIndex := indexOf(progression, targetLevel)
	if targetIndex < 0 {
		return true
	}

	allowed := make(map[string]bool)
	for i := 0; i <= targetIndex; i++ {
		for p := range byLevel[progression[i]] {
			allowed[p] = true
		}
	}

	text := content.Title + " " + content.Body
	for _, pattern := range extractGrammarPatterns(text, content.Language) {
		if !allowed[pattern] {
			return false
		}
	}
	return true
}

// AdjustContentForLevel はコンテンツを対象レベル向けに再作成します。
// 本文の書き換えは行わず、レベル表示と難易度を付け替えます。
func (g *contentGenerator) AdjustContentForLevel(content *model.Content, targetLevel string) model.Content {
	adjusted := *content
	adjusted.ContentID = uuid.NewString()
	adjusted.Level = targetLevel
	adjusted.Difficulty = levelDifficulty(content.Language, targetLevel)
	return adjusted
}

// isVocabularyAppropriate は本文の語彙の8割以上が対象レベル以下かを判定します
func (g *contentGenerator) isVocabularyAppropriate(content *model.Content, lang model.Language, level string) bool {
	text := content.Title + " " + content.Body
	words := extractWords(text, lang)
	if len(words) == 0 {
		return true
	}
	appropriate := g.MatchVocabularyToLevel(words, lang, level)
	return float64(len(appropriate))/float64(len(words)) >= 0.8
}

func extractWords(text string, lang model.Language) []string {
	if lang == model.LanguageJapanese {
		return japaneseWordRe.FindAllString(text, -1)
	}
	return englishWordRe.FindAllString(strings.ToLower(text), -1)
}

func extractGrammarPatterns(text string, lang model.Language) []string {
	var patterns []string
	if lang == model.LanguageEnglish {
		if presentPerfectRe.MatchString(text) {
			patterns = append(patterns, "present_perfect")
		}
		if futureSimpleRe.MatchString(text) {
			patterns = append(patterns, "future_simple")
		}
		if presentContinuousRe.MatchString(text) {
			patterns = append(patterns, "present_continuous")
		}
		if conditionalRe.MatchString(text) {
			patterns = append(patterns, "conditional")
		}
		return patterns
	}
	if strings.Contains(text, "です") || strings.Contains(text, "である") {
		patterns = append(patterns, "polite_form")
	}
	if strings.Contains(text, "ます") {
		patterns = append(patterns, "masu_form")
	}
	if strings.Contains(text, "た") || strings.Contains(text, "だ") {
		patterns = append(patterns, "past_tense")
	}
	if strings.Contains(text, "ている") {
		patterns = append(patterns, "progressive")
	}
	return patterns
}

func vocabularyDifficulty(text string, lang model.Language) float64 {
	words := extractWords(text, lang)
	if len(words) == 0 {
		return 0
	}
	sum := 0.0
	for _, w := range words {
		sum += wordDifficulty(w, lang)
	}
	return sum / float64(len(words))
}

// wordDifficulty はレベル階層での位置を難易度として返します。未知語は上級扱いです
func wordDifficulty(word string, lang model.Language) float64 {
	byLevel, ok := vocabularyLevels[lang]
	if !ok {
		return 0.5
	}
	progression := levelProgression[lang]
	lower := strings.ToLower(word)
	for level, vocab := range byLevel {
		if vocab[lower] || vocab[word] {
			if idx := indexOf(progression, level); idx >= 0 {
				return float64(idx) / float64(len(progression))
			}
		}
	}
	return 0.9
}

func grammarDifficulty(text string, lang model.Language) float64 {
	patterns := extractGrammarPatterns(text, lang)
	if len(patterns) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range patterns {
		sum += grammarPatternDifficulty(p, lang)
	}
	return sum / float64(len(patterns))
}

func grammarPatternDifficulty(pattern string, lang model.Language) float64 {
	byLevel, ok := grammarLevels[lang]
	if !ok {
		return 0.5
	}
	progression := levelProgression[lang]
	for level, patterns := range byLevel {
		if patterns[pattern] {
			if idx := indexOf(progression, level); idx >= 0 {
				return float64(idx) / float64(len(progression))
			}
		}
	}
	return 0.7
}

// structuralDifficulty は文長と句読点密度から構造的な複雑さを見積もります
func structuralDifficulty(text string) float64 {
	var sentences []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return 0
	}

	totalWords := 0
	for _, s := range sentences {
		totalWords += len(strings.Fields(s))
	}
	avgLength := float64(totalWords) / float64(len(sentences))
	lengthComplexity := minFloat(1.0, avgLength/20.0)

	punctuation := float64(len(punctuationRe.FindAllString(text, -1))) / float64(len(text))
	punctuationComplexity := minFloat(1.0, punctuation*100)

	return (lengthComplexity + punctuationComplexity) / 2
}

func mapDifficultyToLevel(difficulty float64, lang model.Language) string {
	if lang == model.LanguageJapanese {
		switch {
		case difficulty < 0.2:
			return "N5"
		case difficulty < 0.4:
			return "N4"
		case difficulty < 0.6:
			return "N3"
		case difficulty < 0.8:
			return "N2"
		default:
			return "N1"
		}
	}
	switch {
	case difficulty < 0.3:
		return "CET-4"
	case difficulty < 0.6:
		return "CET-5"
	default:
		return "CET-6"
	}
}

// levelDifficulty はレベル名を0〜1の難易度に逆変換します
func levelDifficulty(lang model.Language, level string) float64 {
	progression := levelProgression[lang]
	idx := indexOf(progression, level)
	if idx < 0 || len(progression) < 2 {
		return 0.5
	}
	// 最下位レベルが0、最上位レベルが1になるよう正規化する
	return float64(idx) / float64(len(progression)-1)
}

// prioritizeByWeakAreas は弱点をよくカバーするコンテンツを先頭に並べます
func prioritizeByWeakAreas(contents []model.Content, weakAreas []model.WeakArea, lang model.Language) []model.Content {
	var relevant []model.WeakArea
	for _, w := range weakAreas {
		if w.Language == lang {
			relevant = append(relevant, w)
		}
	}
	if len(relevant) == 0 {
		return contents
	}

	type scored struct {
		content model.Content
		score   float64
	}
	scoredContents := make([]scored, 0, len(contents))
	for _, c := range contents {
		score := 0.0
		for _, w := range relevant {
			if skillToActivityType[w.Skill] == c.Type {
				score += w.Severity
			}
		}
		scoredContents = append(scoredContents, scored{content: c, score: score / float64(len(relevant))})
	}

	sort.SliceStable(scoredContents, func(i, j int) bool {
		return scoredContents[i].score > scoredContents[j].score
	})

	result := make([]model.Content, len(scoredContents))
	for i, sc := range scoredContents {
		result[i] = sc.content
	}
	return result
}

func indexOf(levels []string, level string) int {
	for i, l := range levels {
		if l == level {
			return i
		}
	}
	return -1
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
