package repository

import (
	"context"

	"pos-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CashSessionRepository stores cash drawer sessions.
type CashSessionRepository interface {
	// Create returns ErrDuplicate when the tenant already has an OPEN session.
	Create(ctx context.Context, cs *models.CashSession) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.CashSession, error)
	FindOpen(ctx context.Context, tenantID uuid.UUID) (*models.CashSession, error)
	FindOpenForUpdate(ctx context.Context, tenantID uuid.UUID) (*models.CashSession, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]models.CashSession, int64, error)
	Update(ctx context.Context, cs *models.CashSession) error
}

type GormCashSessionRepository struct {
	db *gorm.DB
}

func NewGormCashSessionRepository(db *gorm.DB) CashSessionRepository {
	return &GormCashSessionRepository{db: db}
}

func (r *GormCashSessionRepository) Create(ctx context.Context, cs *models.CashSession) error {
	return translate(r.db.WithContext(ctx).Create(cs).Error)
}

func (r *GormCashSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.CashSession, error) {
	var cs models.CashSession
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&cs).Error; err != nil {
		return nil, translate(err)
	}
	return &cs, nil
}

func (r *GormCashSessionRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) (*models.CashSession, error) {
	return r.findOpen(r.db.WithContext(ctx), tenantID)
}

func (r *GormCashSessionRepository) FindOpenForUpdate(ctx context.Context, tenantID uuid.UUID) (*models.CashSession, error) {
	return r.findOpen(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID)
}

func (r *GormCashSessionRepository) findOpen(db *gorm.DB, tenantID uuid.UUID) (*models.CashSession, error) {
	var cs models.CashSession
	if err := db.
		Where("tenant_id = ? AND status = ?", tenantID, models.CashSessionStatusOpen).
		First(&cs).Error; err != nil {
		return nil, translate(err)
	}
	return &cs, nil
}

func (r *GormCashSessionRepository) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]models.CashSession, int64, error) {
	var sessions []models.CashSession
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CashSession{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Offset(offset(page, limit)).
		Limit(limit).
		Order("opened_at DESC, id DESC").
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *GormCashSessionRepository) Update(ctx context.Context, cs *models.CashSession) error {
	res := r.db.WithContext(ctx).
		Model(cs).
		Where("tenant_id = ?", cs.TenantID).
		Select("status", "closing_cash_cents", "expected_cash_cents", "cash_difference_cents",
			"closed_by", "closed_at", "notes", "updated_at").
		Updates(cs)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
