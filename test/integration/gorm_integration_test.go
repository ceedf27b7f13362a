package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"
	"sparklink-ai-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.KbDocumentRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Chunk Vector Repository", func(t *testing.T) {
		count, err := uow.ChunkVectorRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("ChunkVector count: %d", count)
	})

	t.Run("Check Transactional Document Delete", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		user := &entity.User{
			Id:           userId,
			Email:        "test-integration-" + uuid.New().String() + "@example.com",
			PasswordHash: "not-a-real-hash",
			FullName:     "Integration Test User",
			Status:       entity.UserStatusActive,
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)
		defer gormDB.Exec("DELETE FROM users WHERE id = ?", userId)

		docId := uuid.New()
		doc := &entity.KbDocument{
			Id:      docId,
			UserId:  userId,
			Name:    "integration.txt",
			DocType: "txt",
			Source:  entity.DocumentSourceInline,
			Status:  entity.DocumentStatusPending,
		}
		err = uow.KbDocumentRepository().Create(ctx, doc)
		assert.NoError(t, err)

		// Transaction Test: vectors and document go away together
		txUow := uowFactory.NewUnitOfWork(ctx)
		err = txUow.Begin(ctx)
		assert.NoError(t, err)
		defer txUow.Rollback()

		err = txUow.ChunkVectorRepository().DeleteByDocId(ctx, docId)
		assert.NoError(t, err)
		err = txUow.KbDocumentRepository().Delete(ctx, docId)
		assert.NoError(t, err)

		err = txUow.Commit()
		assert.NoError(t, err)

		gone, err := uow.KbDocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
		assert.NoError(t, err)
		assert.Nil(t, gone, "document should be gone after commit")
	})
}
