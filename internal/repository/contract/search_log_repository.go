package contract

import (
	"context"

	"sparklink-ai-be/internal/entity"
)

type SearchLogRepository interface {
	Create(ctx context.Context, log *entity.SearchLog) error
}
