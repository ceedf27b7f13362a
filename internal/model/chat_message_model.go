package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_chat_messages_session_seq,priority:1"`
	Role             string         `gorm:"type:varchar(50);not null"`
	Content          string         `gorm:"type:text;not null"`
	// Unique per session; assignment happens under the session row lock
	SequenceNumber   int            `gorm:"not null;uniqueIndex:idx_chat_messages_session_seq,priority:2"`
	RequestId        string         `gorm:"type:varchar(64);index"`
	ThinkingProcess  string         `gorm:"type:text"`
	KnowledgeSources datatypes.JSON `gorm:"type:jsonb"`
	WebSearchResults datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
