package repository

import (
	"context"

	"handyhub/internal/model"
	"handyhub/pkg/pagination"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, action string, p pagination.Params) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return translate(GetDB(ctx, r.db).Create(entry).Error, "write audit log", "Audit log")
}

func (r *auditRepository) List(ctx context.Context, action string, p pagination.Params) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.AuditLog{})
	if action != "" {
		db = db.Where("action = ?", action)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count audit logs", "Audit log")
	}

	if err := db.Preload("User").Order("created_at desc").Offset(p.Offset).Limit(p.Limit).Find(&logs).Error; err != nil {
		return nil, 0, translate(err, "list audit logs", "Audit log")
	}

	return logs, total, nil
}
