package contract

import (
	"context"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type KbDocumentRepository interface {
	Create(ctx context.Context, doc *entity.KbDocument) error
	Update(ctx context.Context, doc *entity.KbDocument) error
	// UpdateFields patches the given columns without touching the rest
	// of the row. Used by the ingestion worker for status transitions.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KbDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KbDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
