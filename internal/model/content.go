// internal/model/content.go
package model

// Content は学習コンテンツ1件
type Content struct {
	ContentID     string       `json:"content_id"`
	Language      Language     `json:"language"`
	Level         string       `json:"level"`
	Type          ActivityType `json:"type"`
	Title         string       `json:"title"`
	Body          string       `json:"body"`
	Words         []string     `json:"words,omitempty"` // 本文から抽出した単語
	GrammarPoints []string     `json:"grammar_points,omitempty"`
	Difficulty    float64      `json:"difficulty"` // 0.0〜1.0
}
