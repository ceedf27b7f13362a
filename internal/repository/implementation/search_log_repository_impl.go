package implementation

import (
	"context"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/model"
	"sparklink-ai-be/internal/repository/contract"

	"gorm.io/gorm"
)

type SearchLogRepositoryImpl struct {
	db *gorm.DB
}

func NewSearchLogRepository(db *gorm.DB) contract.SearchLogRepository {
	return &SearchLogRepositoryImpl{db: db}
}

func (r *SearchLogRepositoryImpl) Create(ctx context.Context, log *entity.SearchLog) error {
	m := &model.SearchLog{
		Id:              log.Id,
		UserId:          log.UserId,
		SessionId:       log.SessionId,
		Query:           log.Query,
		Strategy:        log.Strategy,
		KnowledgeHits:   log.KnowledgeHits,
		WebHits:         log.WebHits,
		FusedResults:    log.FusedResults,
		Reasoning:       log.Reasoning,
		DurationSeconds: log.DurationSeconds,
		CreatedAt:       log.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	log.Id = m.Id
	log.CreatedAt = m.CreatedAt
	return nil
}
