package service_test

import (
	"testing"

	"go_bilingual_tutor/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestTimeAllocator_AllocateStudyTime(t *testing.T) {
	allocator := service.NewTimeAllocator()

	testCases := []struct {
		name             string
		totalMinutes     int
		expectedReview   int
		expectedEnglish  int
		expectedJapanese int
		expectedBreak    int
	}{
		{
			name:             "標準の60分",
			totalMinutes:     60,
			expectedReview:   12,
			expectedEnglish:  22,
			expectedJapanese: 22,
			expectedBreak:    4,
		},
		{
			name:             "90分では休憩が5分で頭打ちになる",
			totalMinutes:     90,
			expectedReview:   18,
			expectedEnglish:  33,
			expectedJapanese: 34,
			expectedBreak:    5,
		},
		{
			name:             "短い30分",
			totalMinutes:     30,
			expectedReview:   6,
			expectedEnglish:  11,
			expectedJapanese: 11,
			expectedBreak:    2,
		},
		{
			name:             "10分では休憩なし",
			totalMinutes:     10,
			expectedReview:   2,
			expectedEnglish:  4,
			expectedJapanese: 4,
			expectedBreak:    0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			allocation := allocator.AllocateStudyTime(tc.totalMinutes)

			assert.Equal(t, tc.totalMinutes, allocation.TotalMinutes)
			assert.Equal(t, tc.expectedReview, allocation.ReviewMinutes)
			assert.Equal(t, tc.expectedEnglish, allocation.EnglishMinutes)
			assert.Equal(t, tc.expectedJapanese, allocation.JapaneseMinutes)
			assert.Equal(t, tc.expectedBreak, allocation.BreakMinutes)

			// 内訳の合計は常に全体と一致する
			sum := allocation.ReviewMinutes + allocation.EnglishMinutes +
				allocation.JapaneseMinutes + allocation.BreakMinutes
			assert.Equal(t, tc.totalMinutes, sum, "allocation parts must sum to total")
		})
	}
}

func TestTimeAllocator_Deterministic(t *testing.T) {
	allocator := service.NewTimeAllocator()

	first := allocator.AllocateStudyTime(75)
	second := allocator.AllocateStudyTime(75)

	assert.Equal(t, first, second)
}
