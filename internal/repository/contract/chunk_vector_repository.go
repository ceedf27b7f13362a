package contract

import (
	"context"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

// VectorSearchScope narrows similarity search to one user's documents,
// optionally widened to a shared group.
type VectorSearchScope struct {
	UserId  uuid.UUID
	GroupId *int64
}

type ChunkVectorRepository interface {
	CreateBulk(ctx context.Context, vectors []*entity.ChunkVector) error
	DeleteByDocId(ctx context.Context, docId uuid.UUID) error
	// DeleteByDocIdExceptBatch removes every chunk of the document that
	// does not belong to the given batch. Together with CreateBulk in
	// one transaction this swaps a document's chunk set atomically.
	DeleteByDocIdExceptBatch(ctx context.Context, docId uuid.UUID, batchId uuid.UUID) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, scope VectorSearchScope) ([]*entity.ScoredChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChunkVector, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
