package service

import (
	"go_bilingual_tutor/internal/model"
)

// TimeAllocator は1日の学習時間を復習・英語・日本語・休憩に配分します。
type TimeAllocator interface {
	AllocateStudyTime(totalMinutes int) model.TimeAllocation
}

type timeAllocator struct{}

func NewTimeAllocator() TimeAllocator {
	return &timeAllocator{}
}

// AllocateStudyTime は固定ルールで時間を配分します。決定的で、同じ入力は常に同じ出力になります。
//   - 復習: 全体の20%（端数切り捨て）
//   - 休憩: 残り12分ごとに1分、最大5分
//   - 残りを英語と日本語で折半（奇数分は日本語側に寄せる）
//
// 負数やゼロの検証は呼び出し側（HTTP境界）で行います。
func (a *timeAllocator) AllocateStudyTime(totalMinutes int) model.TimeAllocation {
	reviewMinutes := totalMinutes / 5

	breakMinutes := (totalMinutes - reviewMinutes) / 12
	if breakMinutes > 5 {
		breakMinutes = 5
	}

	contentMinutes := totalMinutes - reviewMinutes - breakMinutes
	englishMinutes := contentMinutes / 2
	japaneseMinutes := contentMinutes - englishMinutes

	return model.TimeAllocation{
		TotalMinutes:    totalMinutes,
		ReviewMinutes:   reviewMinutes,
		EnglishMinutes:  englishMinutes,
		JapaneseMinutes: japaneseMinutes,
		BreakMinutes:    breakMinutes,
	}
}
