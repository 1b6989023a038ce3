package repository

import (
	"context"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrecioClienteRepository stores per-client special prices and their history.
type PrecioClienteRepository interface {
	// Find returns (nil, nil) when the client has no special price.
	Find(ctx context.Context, clienteID, productoID uuid.UUID) (*model.PrecioCliente, error)
	UpsertTx(ctx context.Context, tx *gorm.DB, p *model.PrecioCliente) error
	// CerrarHistorialTx sets Hasta on the open interval, if any.
	CerrarHistorialTx(ctx context.Context, tx *gorm.DB, clienteID, productoID uuid.UUID, hasta time.Time) error
	CreateHistorialTx(ctx context.Context, tx *gorm.DB, h *model.HistorialPrecioCliente) error
}

type precioClienteRepo struct{ db *gorm.DB }

func NewPrecioClienteRepository(db *gorm.DB) PrecioClienteRepository {
	return &precioClienteRepo{db: db}
}

func (r *precioClienteRepo) Find(ctx context.Context, clienteID, productoID uuid.UUID) (*model.PrecioCliente, error) {
	var precios []model.PrecioCliente
	err := r.db.WithContext(ctx).
		Where("cliente_id = ? AND producto_id = ?", clienteID, productoID).
		Limit(1).Find(&precios).Error
	if err != nil || len(precios) == 0 {
		return nil, err
	}
	return &precios[0], nil
}

func (r *precioClienteRepo) UpsertTx(ctx context.Context, tx *gorm.DB, p *model.PrecioCliente) error {
	return conn(ctx, r.db, tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cliente_id"}, {Name: "producto_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"precio", "activo", "updated_at"}),
	}).Create(p).Error
}

func (r *precioClienteRepo) CerrarHistorialTx(ctx context.Context, tx *gorm.DB, clienteID, productoID uuid.UUID, hasta time.Time) error {
	return conn(ctx, r.db, tx).Model(&model.HistorialPrecioCliente{}).
		Where("cliente_id = ? AND producto_id = ? AND hasta IS NULL", clienteID, productoID).
		Update("hasta", hasta).Error
}

func (r *precioClienteRepo) CreateHistorialTx(ctx context.Context, tx *gorm.DB, h *model.HistorialPrecioCliente) error {
	return conn(ctx, r.db, tx).Create(h).Error
}
