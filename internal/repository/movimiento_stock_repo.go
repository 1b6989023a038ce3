package repository

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockRepository is append-only: there is no Update or Delete.
type MovimientoStockRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error
	// Kardex returns the newest movements of one product first.
	Kardex(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *movimientoStockRepo) Kardex(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var movimientos []model.MovimientoStock
	err := r.db.WithContext(ctx).
		Preload("Producto").
		Where("producto_id = ?", productoID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movimientos).Error
	return movimientos, err
}
