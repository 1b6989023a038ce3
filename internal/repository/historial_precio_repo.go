package repository

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistorialPrecioRepository stores the cost changes written when a purchase
// is received. Rows are append-only.
type HistorialPrecioRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, h *model.HistorialPrecio) error
	// ListByProducto pages one product's cost changes, newest first. page and
	// limit are expected to be normalized by the caller.
	ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.HistorialPrecio, int64, error)
}

type historialPrecioRepo struct{ db *gorm.DB }

func NewHistorialPrecioRepository(db *gorm.DB) HistorialPrecioRepository {
	return &historialPrecioRepo{db: db}
}

func (r *historialPrecioRepo) CreateTx(ctx context.Context, tx *gorm.DB, h *model.HistorialPrecio) error {
	return conn(ctx, r.db, tx).Create(h).Error
}

func (r *historialPrecioRepo) ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.HistorialPrecio, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.HistorialPrecio{}).Where("producto_id = ?", productoID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.HistorialPrecio
	err := q.Order("created_at DESC, id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error
	return rows, total, err
}
