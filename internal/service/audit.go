package service

import (
	"context"

	"github.com/google/uuid"

	"messenger/internal/domain"
	"messenger/internal/repository"
	"messenger/pkg/logger"
)

type AuditService interface {
	LogEvent(ctx context.Context, actorUserID *uuid.UUID, chatID *uuid.UUID, eventType string, payload map[string]interface{}) error
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
	}
}

func (s *auditService) LogEvent(ctx context.Context, actorUserID *uuid.UUID, chatID *uuid.UUID, eventType string, payload map[string]interface{}) error {
	if payload == nil {
		payload = make(map[string]interface{})
	}

	auditLog := &domain.AuditLog{
		EventTime:   now(),
		ActorUserID: actorUserID,
		ChatID:      chatID,
		EventType:   eventType,
		Payload:     payload,
	}

	return s.auditRepo.CreateLog(ctx, auditLog)
}

// record audits without failing the caller; the mutation already happened.
func record(ctx context.Context, audit AuditService, log logger.Logger, actorID uuid.UUID, chatID *uuid.UUID, eventType string, payload map[string]interface{}) {
	if err := audit.LogEvent(ctx, &actorID, chatID, eventType, payload); err != nil {
		log.Warn("Failed to write audit log", "event_type", eventType, "error", err)
	}
}
