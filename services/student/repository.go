package student

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository describes database operations on student records.
type Repository interface {
	GetByExternalID(ctx context.Context, tenantID, externalID string) (*StudentRecord, error)
	ListByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (map[string]*StudentRecord, error)
	ListByTenant(ctx context.Context, tenantID string) ([]StudentRecord, error)
	ListUnlinked(ctx context.Context, tenantID string) ([]StudentRecord, error)
	Create(ctx context.Context, record *StudentRecord) error
	Update(ctx context.Context, record *StudentRecord) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByExternalID(ctx context.Context, tenantID, externalID string) (*StudentRecord, error) {
	var record StudentRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_student_id = ?", tenantID, externalID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) ListByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (map[string]*StudentRecord, error) {
	var records []StudentRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_student_id IN ?", tenantID, externalIDs).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]*StudentRecord, len(records))
	for i := range records {
		out[records[i].ExternalStudentID] = &records[i]
	}
	return out, nil
}

func (r *gormRepository) ListByTenant(ctx context.Context, tenantID string) ([]StudentRecord, error) {
	var records []StudentRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("display_name").
		Find(&records).Error
	return records, err
}

func (r *gormRepository) ListUnlinked(ctx context.Context, tenantID string) ([]StudentRecord, error) {
	var records []StudentRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND (external_student_id IS NULL OR external_student_id = '')", tenantID).
		Find(&records).Error
	return records, err
}

func (r *gormRepository) Create(ctx context.Context, record *StudentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gormRepository) Update(ctx context.Context, record *StudentRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
