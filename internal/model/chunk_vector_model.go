package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type ChunkVector struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocId      uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocName    string          `gorm:"type:varchar(512)"`
	DocType    string          `gorm:"type:varchar(50)"`
	SourcePath string          `gorm:"type:text"`
	UserId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	GroupId    *int64          `gorm:"index"`
	ChunkIndex int             `gorm:"default:0"` // 0-based index for ordering
	Content    string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(1024)"` // bge-m3 embeds at 1024 dimensions
	BatchId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (ChunkVector) TableName() string {
	return "chunk_vectors"
}
