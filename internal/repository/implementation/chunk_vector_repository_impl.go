package implementation

import (
	"context"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/mapper"
	"sparklink-ai-be/internal/model"
	"sparklink-ai-be/internal/repository/contract"
	"sparklink-ai-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkVectorRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkVectorMapper
}

func NewChunkVectorRepository(db *gorm.DB) contract.ChunkVectorRepository {
	return &ChunkVectorRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkVectorMapper(),
	}
}

func (r *ChunkVectorRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkVectorRepositoryImpl) CreateBulk(ctx context.Context, vectors []*entity.ChunkVector) error {
	if len(vectors) == 0 {
		return nil
	}
	models := make([]*model.ChunkVector, len(vectors))
	for i, v := range vectors {
		models[i] = r.mapper.ToModel(v)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}
	for i, m := range models {
		*vectors[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkVectorRepositoryImpl) DeleteByDocId(ctx context.Context, docId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("doc_id = ?", docId).Delete(&model.ChunkVector{}).Error
}

func (r *ChunkVectorRepositoryImpl) DeleteByDocIdExceptBatch(ctx context.Context, docId uuid.UUID, batchId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("doc_id = ? AND batch_id <> ?", docId, batchId).
		Delete(&model.ChunkVector{}).Error
}

func (r *ChunkVectorRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.ChunkVector{}).Error
}

type chunkVectorWithScore struct {
	model.ChunkVector
	Similarity float64
}

func (r *ChunkVectorRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, scope contract.VectorSearchScope) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(embedding)

	// Cosine similarity via pgvector distance: 1 - (embedding <=> query)
	query := r.db.WithContext(ctx).
		Model(&model.ChunkVector{}).
		Select("chunk_vectors.*, 1 - (embedding <=> ?) as similarity", vec)

	if scope.GroupId != nil {
		query = query.Where("user_id = ? OR group_id = ?", scope.UserId, *scope.GroupId)
	} else {
		query = query.Where("user_id = ?", scope.UserId)
	}

	var results []*chunkVectorWithScore
	err := query.
		Where("1 - (embedding <=> ?) >= ?", vec, threshold).
		Order("similarity DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredChunk{
			ChunkVector: *r.mapper.ToEntity(&res.ChunkVector),
			Similarity:  res.Similarity,
		}
	}
	return scored, nil
}

func (r *ChunkVectorRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChunkVector, error) {
	var models []*model.ChunkVector
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChunkVector, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ChunkVectorRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChunkVector{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
