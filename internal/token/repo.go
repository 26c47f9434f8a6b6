package token

import (
	"context"
	"errors"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo is the token store.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, t *models.Token) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) GetByToken(ctx context.Context, tokenString string) (*models.Token, error) {
	var t models.Token
	if err := r.db.WithContext(ctx).Where("token = ?", tokenString).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Token, error) {
	var t models.Token
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// GetDetail loads a token with its sessions (newest first), each session's
// conversations and the token's full conversation log (oldest first).
func (r *Repo) GetDetail(ctx context.Context, id string) (*models.Token, error) {
	asc := func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }
	var t models.Token
	err := r.db.WithContext(ctx).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Order("id DESC")
		}).
		Preload("Sessions.Conversations", asc).
		Preload("Conversations", asc).
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Update applies column updates; it returns ErrNotFound when no row has id.
func (r *Repo) Update(ctx context.Context, id string, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Token{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Updates reports zero rows when values are unchanged on MySQL; confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Token{}).Count(&n).Error
	return n, err
}

// Page returns one page of tokens ordered by the given clause, with id as a tiebreaker.
func (r *Repo) Page(ctx context.Context, order clause.OrderByColumn, offset, limit int) ([]models.Token, error) {
	tie := clause.OrderByColumn{Column: clause.Column{Table: "tokens", Name: "id"}, Desc: order.Desc}
	var out []models.Token
	err := r.db.WithContext(ctx).
		Model(&models.Token{}).
		Order(order).
		Order(tie).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountBy counts rows of table grouped by token_id for the given tokens.
func (r *Repo) CountBy(ctx context.Context, table string, tokenIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(tokenIDs))
	if len(tokenIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TokenID string
		N       int64
	}
	err := r.db.WithContext(ctx).
		Table(table).
		Select("token_id, COUNT(*) AS n").
		Where("token_id IN ?", tokenIDs).
		Group("token_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TokenID] = row.N
	}
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
