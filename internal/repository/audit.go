package repository

import (
	"context"

	"commune/internal/models"
	"commune/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository records who changed what. Entries are append-only.
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uint, limit int) ([]*models.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates an audit repository over the given connection.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	defer observability.TrackQuery("insert", "audit_logs")()

	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType string, entityID uint, limit int) ([]*models.AuditLog, error) {
	defer observability.TrackQuery("select", "audit_logs")()

	if limit <= 0 {
		limit = 50
	}
	var entries []*models.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
