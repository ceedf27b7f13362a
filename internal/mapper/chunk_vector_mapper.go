package mapper

import (
	"time"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ChunkVectorMapper struct{}

func NewChunkVectorMapper() *ChunkVectorMapper {
	return &ChunkVectorMapper{}
}

func (m *ChunkVectorMapper) ToEntity(v *model.ChunkVector) *entity.ChunkVector {
	if v == nil {
		return nil
	}

	var updatedAt *time.Time
	if !v.UpdatedAt.IsZero() {
		t := v.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChunkVector{
		Id:         v.Id,
		DocId:      v.DocId,
		DocName:    v.DocName,
		DocType:    v.DocType,
		SourcePath: v.SourcePath,
		UserId:     v.UserId,
		GroupId:    v.GroupId,
		ChunkIndex: v.ChunkIndex,
		Content:    v.Content,
		Embedding:  v.Embedding.Slice(),
		BatchId:    v.BatchId,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ChunkVectorMapper) ToModel(v *entity.ChunkVector) *model.ChunkVector {
	if v == nil {
		return nil
	}

	var updatedAt time.Time
	if v.UpdatedAt != nil {
		updatedAt = *v.UpdatedAt
	}

	return &model.ChunkVector{
		Id:         v.Id,
		DocId:      v.DocId,
		DocName:    v.DocName,
		DocType:    v.DocType,
		SourcePath: v.SourcePath,
		UserId:     v.UserId,
		GroupId:    v.GroupId,
		ChunkIndex: v.ChunkIndex,
		Content:    v.Content,
		Embedding:  pgvector.NewVector(v.Embedding),
		BatchId:    v.BatchId,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}
