package models

import "time"

// KnowledgeBase holds the candidate facts document. The table keeps at most one row.
type KnowledgeBase struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (KnowledgeBase) TableName() string { return "knowledge_bases" }
