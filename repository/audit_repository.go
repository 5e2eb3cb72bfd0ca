package repository

import (
	"context"

	"github.com/Govind-619/PropertyHub/models"
)

// CreateAuditLog appends an audit entry
func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListAuditLogs returns the audit trail of an entity, oldest first
func (s *Store) ListAuditLogs(ctx context.Context, entityID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
