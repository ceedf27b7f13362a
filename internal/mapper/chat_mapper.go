package mapper

import (
	"encoding/json"
	"time"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var deletedAt *time.Time
	if msg.DeletedAt.Valid {
		t := msg.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatMessage{
		Id:               msg.Id,
		ChatSessionId:    msg.ChatSessionId,
		Role:             msg.Role,
		Content:          msg.Content,
		SequenceNumber:   msg.SequenceNumber,
		RequestId:        msg.RequestId,
		ThinkingProcess:  msg.ThinkingProcess,
		KnowledgeSources: sourceRefsFromJSON(msg.KnowledgeSources),
		WebSearchResults: sourceRefsFromJSON(msg.WebSearchResults),
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
		IsDeleted:        msg.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if msg.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *msg.DeletedAt, Valid: true}
	} else if msg.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	return &model.ChatMessage{
		Id:               msg.Id,
		ChatSessionId:    msg.ChatSessionId,
		Role:             msg.Role,
		Content:          msg.Content,
		SequenceNumber:   msg.SequenceNumber,
		RequestId:        msg.RequestId,
		ThinkingProcess:  msg.ThinkingProcess,
		KnowledgeSources: sourceRefsToJSON(msg.KnowledgeSources),
		WebSearchResults: sourceRefsToJSON(msg.WebSearchResults),
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
	}
}

func sourceRefsToJSON(refs []entity.SourceRef) datatypes.JSON {
	if len(refs) == 0 {
		return nil
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func sourceRefsFromJSON(data datatypes.JSON) []entity.SourceRef {
	if len(data) == 0 {
		return nil
	}
	var refs []entity.SourceRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil
	}
	return refs
}
