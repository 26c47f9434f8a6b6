package models

import (
	"time"

	"gorm.io/datatypes"
)

type FailureReason string

const (
	ReasonInvalidToken        FailureReason = "invalid_token"
	ReasonTokenExpired        FailureReason = "token_expired"
	ReasonMessageLimitReached FailureReason = "message_limit_reached"
	ReasonServerError         FailureReason = "server_error"
	ReasonNoToken             FailureReason = "no_token"
)

func (r FailureReason) Valid() bool {
	switch r {
	case ReasonInvalidToken, ReasonTokenExpired, ReasonMessageLimitReached, ReasonServerError, ReasonNoToken:
		return true
	}
	return false
}

type AccessType string

const (
	AccessPageAccess  AccessType = "page_access"
	AccessMessageSend AccessType = "message_send"
)

func (a AccessType) Valid() bool {
	return a == AccessPageAccess || a == AccessMessageSend
}

// TokenAnalyticsEvent is an append-only record of a rejected token.
// It is never read back by validation.
type TokenAnalyticsEvent struct {
	ID            uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	FailureReason FailureReason     `gorm:"type:varchar(32);index;not null" json:"failureReason"`
	TokenString   *string           `gorm:"type:varchar(500)" json:"tokenString,omitempty"`
	UserAgent     *string           `gorm:"type:varchar(500)" json:"userAgent,omitempty"`
	IPAddress     *string           `gorm:"type:varchar(45)" json:"ipAddress,omitempty"`
	AccessType    *AccessType       `gorm:"type:varchar(16)" json:"accessType,omitempty"`
	FullURL       *string           `gorm:"type:varchar(2000)" json:"fullUrl,omitempty"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"index" json:"createdAt"`
}

func (TokenAnalyticsEvent) TableName() string { return "token_analytics" }

// All lists every persisted model in migration order.
func All() []any {
	return []any{&Token{}, &Session{}, &Conversation{}, &KnowledgeBase{}, &TokenAnalyticsEvent{}}
}
