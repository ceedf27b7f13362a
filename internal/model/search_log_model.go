package model

import (
	"time"

	"github.com/google/uuid"
)

type SearchLog struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;index"`
	SessionId       uuid.UUID `gorm:"type:uuid;index"`
	Query           string    `gorm:"type:text;not null"`
	Strategy        string    `gorm:"type:varchar(50);not null"`
	KnowledgeHits   int       `gorm:"default:0"`
	WebHits         int       `gorm:"default:0"`
	FusedResults    int       `gorm:"default:0"`
	Reasoning       string    `gorm:"type:text"`
	DurationSeconds float64   `gorm:"default:0"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (SearchLog) TableName() string {
	return "search_logs"
}
