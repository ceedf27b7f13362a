package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocID struct {
	DocID uuid.UUID
}

func (s ByDocID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_id = ?", s.DocID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
