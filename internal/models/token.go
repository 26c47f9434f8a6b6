package models

import "time"

// Token grants a recruiter a bounded number of chat messages until ExpiresAt.
type Token struct {
	ID           string    `gorm:"primaryKey;size:26" json:"id"` // ULID
	Token        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	Label        string    `gorm:"type:varchar(255);not null" json:"label"`
	Company      *string   `gorm:"type:varchar(255)" json:"company"`
	MaxMessages  int       `gorm:"not null;default:30" json:"maxMessages"`
	UsedMessages int       `gorm:"not null;default:0" json:"usedMessages"`
	ExpiresAt    time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`

	Sessions      []Session      `gorm:"foreignKey:TokenID" json:"sessions,omitempty"`
	Conversations []Conversation `gorm:"foreignKey:TokenID" json:"conversations,omitempty"`
}

func (Token) TableName() string { return "tokens" }

// Remaining is the number of messages still allowed, never negative.
func (t *Token) Remaining() int {
	if n := t.MaxMessages - t.UsedMessages; n > 0 {
		return n
	}
	return 0
}

// Session is one browser visit tied to a token. Rows are never updated.
type Session struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"sessionId"`
	TokenID   string    `gorm:"size:26;index;not null" json:"tokenId"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Conversations []Conversation `gorm:"foreignKey:SessionID;references:SessionID" json:"conversations,omitempty"`
}

func (Session) TableName() string { return "chat_sessions" }

// Conversation is one persisted message/response exchange. Append only.
type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenID   string    `gorm:"size:26;not null;index:idx_conv_token_created,priority:1" json:"tokenId"`
	SessionID *string   `gorm:"type:varchar(36);index" json:"sessionId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	CreatedAt time.Time `gorm:"index:idx_conv_token_created,priority:2" json:"createdAt"`
}

func (Conversation) TableName() string { return "conversations" }
