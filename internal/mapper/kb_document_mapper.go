package mapper

import (
	"encoding/json"
	"time"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KbDocumentMapper struct{}

func NewKbDocumentMapper() *KbDocumentMapper {
	return &KbDocumentMapper{}
}

func (m *KbDocumentMapper) ToEntity(d *model.KbDocument) *entity.KbDocument {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var result *entity.IngestionResult
	if len(d.Result) > 0 {
		var r entity.IngestionResult
		if err := json.Unmarshal(d.Result, &r); err == nil {
			result = &r
		}
	}

	return &entity.KbDocument{
		Id:              d.Id,
		UserId:          d.UserId,
		GroupId:         d.GroupId,
		Name:            d.Name,
		DocType:         d.DocType,
		Source:          entity.DocumentSource(d.Source),
		SourcePath:      d.SourcePath,
		InlineContent:   d.InlineContent,
		Status:          entity.DocumentStatus(d.Status),
		Progress:        d.Progress,
		TotalChunks:     d.TotalChunks,
		ProcessedChunks: d.ProcessedChunks,
		ErrorMessage:    d.ErrorMessage,
		Result:          result,
		StartedAt:       d.StartedAt,
		CompletedAt:     d.CompletedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
		IsDeleted:       d.DeletedAt.Valid,
	}
}

func (m *KbDocumentMapper) ToModel(d *entity.KbDocument) *model.KbDocument {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	var result datatypes.JSON
	if d.Result != nil {
		if data, err := json.Marshal(d.Result); err == nil {
			result = datatypes.JSON(data)
		}
	}

	return &model.KbDocument{
		Id:              d.Id,
		UserId:          d.UserId,
		GroupId:         d.GroupId,
		Name:            d.Name,
		DocType:         d.DocType,
		Source:          string(d.Source),
		SourcePath:      d.SourcePath,
		InlineContent:   d.InlineContent,
		Status:          string(d.Status),
		Progress:        d.Progress,
		TotalChunks:     d.TotalChunks,
		ProcessedChunks: d.ProcessedChunks,
		ErrorMessage:    d.ErrorMessage,
		Result:          result,
		StartedAt:       d.StartedAt,
		CompletedAt:     d.CompletedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
	}
}
