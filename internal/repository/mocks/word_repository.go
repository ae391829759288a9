package mocks

import (
	"context"

	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// WordRepository は repository.WordRepository のモックです
type WordRepository struct {
	mock.Mock
}

func (m *WordRepository) Upsert(ctx context.Context, tx *gorm.DB, word *model.VocabularyWord) error {
	args := m.Called(ctx, tx, word)
	return args.Error(0)
}

func (m *WordRepository) FindByUserAndLanguage(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language) ([]*model.VocabularyWord, error) {
	args := m.Called(ctx, db, userID, lang)
	var words []*model.VocabularyWord
	if args.Get(0) != nil {
		words = args.Get(0).([]*model.VocabularyWord)
	}
	return words, args.Error(1)
}

func (m *WordRepository) CountMastered(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language) (int64, error) {
	args := m.Called(ctx, db, userID, lang)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WordRepository) FindByWord(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language, word string) (*model.VocabularyWord, error) {
	args := m.Called(ctx, db, userID, lang, word)
	var result *model.VocabularyWord
	if args.Get(0) != nil {
		result = args.Get(0).(*model.VocabularyWord)
	}
	return result, args.Error(1)
}
