//go:generate mockery --name WordRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WordRepository は語彙習得記録の永続化を担当します
type WordRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, word *model.VocabularyWord) error
	FindByUserAndLanguage(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language) ([]*model.VocabularyWord, error)
	CountMastered(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language) (int64, error)
	FindByWord(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language, word string) (*model.VocabularyWord, error)
}

type gormWordRepository struct{}

func NewGormWordRepository() WordRepository {
	return &gormWordRepository{}
}

func (r *gormWordRepository) Upsert(ctx context.Context, tx *gorm.DB, word *model.VocabularyWord) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "language"}, {Name: "word"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"mastered", "review_count", "last_score", "updated_at",
		}),
	}).Create(word)
	if result.Error != nil {
		logger.Error("Error upserting vocabulary word in DB",
			"error", result.Error,
			"user_id", word.UserID.String(),
			"word", word.Word,
		)
		return fmt.Errorf("gormWordRepository.Upsert: %w", result.Error)
	}
	return nil
}

func (r *gormWordRepository) FindByUserAndLanguage(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language) ([]*model.VocabularyWord, error) {
	logger := middleware.GetLogger(ctx)
	var words []*model.VocabularyWord
	err := db.WithContext(ctx).
		Where("user_id = ? AND language = ?", userID, lang).
		Order("created_at DESC").
		Find(&words).Error
	if err != nil {
		logger.Error("Error finding vocabulary words in DB",
			"error", err,
			"user_id", userID.String(),
			"language", string(lang),
		)
		return nil, fmt.Errorf("gormWordRepository.FindByUserAndLanguage: %w", err)
	}
	return words, nil
}

func (r *gormWordRepository) CountMastered(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	err := db.WithContext(ctx).
		Model(&model.VocabularyWord{}).
		Where("user_id = ? AND language = ? AND mastered = ?", userID, lang, true).
		Count(&count).Error
	if err != nil {
		logger.Error("Error counting mastered words in DB",
			"error", err,
			"user_id", userID.String(),
			"language", string(lang),
		)
		return 0, fmt.Errorf("gormWordRepository.CountMastered: %w", err)
	}
	return count, nil
}

func (r *gormWordRepository) FindByWord(ctx context.Context, db *gorm.DB, userID uuid.UUID, lang model.Language, word string) (*model.VocabularyWord, error) {
	logger := middleware.GetLogger(ctx)
	var record model.VocabularyWord
	err := db.WithContext(ctx).
		Where("user_id = ? AND language = ? AND word = ?", userID, lang, word).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding vocabulary word in DB",
			"error", err,
			"user_id", userID.String(),
			"word", word,
		)
		return nil, fmt.Errorf("gormWordRepository.FindByWord: %w", err)
	}
	return &record, nil
}
