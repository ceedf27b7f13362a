package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByRequestID struct {
	RequestID string
}

func (s ByRequestID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("request_id = ?", s.RequestID)
}

// BySequenceAfter filters messages past a given sequence number,
// used for incremental history loads.
type BySequenceAfter struct {
	Sequence int
}

func (s BySequenceAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sequence_number > ?", s.Sequence)
}
