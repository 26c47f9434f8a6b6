package knowledge

import (
	"context"
	"errors"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Current returns the single knowledge base row, or nil when none exists.
func (r *Repo) Current(ctx context.Context) (*models.KnowledgeBase, error) {
	var kb models.KnowledgeBase
	err := r.db.WithContext(ctx).Order("id ASC").First(&kb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &kb, nil
}

// Save overwrites the existing row or creates the first one.
func (r *Repo) Save(ctx context.Context, content string) (*models.KnowledgeBase, error) {
	var out *models.KnowledgeBase
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var kb models.KnowledgeBase
		err := tx.Order("id ASC").First(&kb).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			kb = models.KnowledgeBase{Content: content}
			if err := tx.Create(&kb).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&kb).Update("content", content).Error; err != nil {
				return err
			}
			kb.Content = content
		}
		out = &kb
		return nil
	})
	return out, err
}
