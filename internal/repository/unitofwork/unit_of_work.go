package unitofwork

import (
	"context"

	"sparklink-ai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	KbDocumentRepository() contract.KbDocumentRepository
	ChunkVectorRepository() contract.ChunkVectorRepository
	SearchLogRepository() contract.SearchLogRepository
}
