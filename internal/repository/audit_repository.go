package repository

import (
	"context"
	"smart_lms_analytics/internal/model"

	"gorm.io/gorm"
)

type AuditRepository struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

func (r *AuditRepository) Create(ctx context.Context, audit *model.PredictionAudit) error {
	return r.DB.WithContext(ctx).Create(audit).Error
}

// List studentID 为空时返回所有学生的记录，按时间倒序
func (r *AuditRepository) List(ctx context.Context, studentID string, limit int) ([]model.PredictionAudit, error) {
	var audits []model.PredictionAudit
	query := r.DB.WithContext(ctx).Model(&model.PredictionAudit{})
	if studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&audits).Error
	return audits, err
}
