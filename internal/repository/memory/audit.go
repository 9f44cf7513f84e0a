package memory

import (
	"context"

	"messenger/internal/domain"
)

type auditRepo Store

func (r *auditRepo) CreateLog(_ context.Context, log *domain.AuditLog) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	log.ID = int64(len(s.audit) + 1)
	entry := *log
	s.audit = append(s.audit, &entry)
	return nil
}
