package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KbDocument struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	GroupId         *int64         `gorm:"index"`
	Name            string         `gorm:"type:varchar(512);not null"`
	DocType         string         `gorm:"type:varchar(50);not null"`
	Source          string         `gorm:"type:varchar(50);not null"`
	SourcePath      string         `gorm:"type:text"`
	InlineContent   string         `gorm:"type:text"`
	Status          string         `gorm:"type:varchar(50);not null;default:'pending';index"`
	Progress        float64        `gorm:"default:0"`
	TotalChunks     int            `gorm:"default:0"`
	ProcessedChunks int            `gorm:"default:0"`
	ErrorMessage    string         `gorm:"type:text"`
	Result          datatypes.JSON `gorm:"type:jsonb"`
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (KbDocument) TableName() string {
	return "kb_documents"
}
