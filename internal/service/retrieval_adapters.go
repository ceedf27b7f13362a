package service

import (
	"context"

	"sparklink-ai-be/internal/repository/contract"
	"sparklink-ai-be/internal/repository/unitofwork"
	"sparklink-ai-be/pkg/embedding"
	"sparklink-ai-be/pkg/retrieval"

	"github.com/google/uuid"
)

// vectorKnowledgeSearcher answers knowledge-base queries for the
// decision engine: embed the query, then cosine-search the chunk store.
type vectorKnowledgeSearcher struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewVectorKnowledgeSearcher(uowFactory unitofwork.RepositoryFactory, embeddingProvider embedding.EmbeddingProvider) *vectorKnowledgeSearcher {
	return &vectorKnowledgeSearcher{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (s *vectorKnowledgeSearcher) Search(ctx context.Context, query string, topK int, threshold float64, scope retrieval.Scope) ([]retrieval.Hit, error) {
	vec, err := s.embeddingProvider.Generate(ctx, query)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.ChunkVectorRepository().SearchSimilarWithScore(ctx, vec, topK, threshold,
		contract.VectorSearchScope{UserId: scope.UserId, GroupId: scope.GroupId})
	if err != nil {
		return nil, err
	}

	hits := make([]retrieval.Hit, 0, len(chunks))
	for _, c := range chunks {
		hits = append(hits, retrieval.Hit{
			Content: c.Content,
			Score:   c.Similarity,
			Source:  retrieval.SourceKnowledgeBase,
			Title:   c.DocName,
			Locator: c.SourcePath,
			DocId:   c.DocId.String(),
		})
	}
	return hits, nil
}

// sessionTitleUpdater lets the stream coordinator rename sessions
// without depending on the repository layer.
type sessionTitleUpdater struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewSessionTitleUpdater(uowFactory unitofwork.RepositoryFactory) *sessionTitleUpdater {
	return &sessionTitleUpdater{uowFactory: uowFactory}
}

func (u *sessionTitleUpdater) UpdateTitle(ctx context.Context, sessionId uuid.UUID, title string) error {
	uow := u.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().UpdateTitle(ctx, sessionId, title)
}
