package chat

import (
	"context"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Exchange is the persisted outcome of one successful chat turn.
type Exchange struct {
	Conversation *models.Conversation
	UsedMessages int
	MaxMessages  int
}

func (e *Exchange) Remaining() int {
	if n := e.MaxMessages - e.UsedMessages; n > 0 {
		return n
	}
	return 0
}

// RecordExchange charges one message to the token and stores the exchange in
// a single transaction. The increment only applies while used_messages is
// below max_messages, so concurrent requests cannot overshoot the budget;
// when it does not apply ErrUsageExhausted is returned and nothing is written.
//
// sessionID links the conversation to a session of the same token; an
// unknown or foreign session id is dropped.
func (r *Repo) RecordExchange(ctx context.Context, tokenID, sessionID, message, response string) (*Exchange, error) {
	var out *Exchange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Token{}).
			Where("id = ? AND used_messages < max_messages", tokenID).
			UpdateColumn("used_messages", gorm.Expr("used_messages + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUsageExhausted
		}

		conv := &models.Conversation{TokenID: tokenID, Message: message, Response: response}
		if sessionID != "" {
			var n int64
			if err := tx.Model(&models.Session{}).
				Where("session_id = ? AND token_id = ?", sessionID, tokenID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				conv.SessionID = &sessionID
			}
		}
		if err := tx.Create(conv).Error; err != nil {
			return err
		}

		var tok models.Token
		if err := tx.Select("used_messages", "max_messages").First(&tok, "id = ?", tokenID).Error; err != nil {
			return err
		}
		out = &Exchange{Conversation: conv, UsedMessages: tok.UsedMessages, MaxMessages: tok.MaxMessages}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
