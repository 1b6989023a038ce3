package repository

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompraRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, c *model.Compra) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Compra, error)
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Compra, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, c *model.Compra) error

	CreateItemTx(ctx context.Context, tx *gorm.DB, item *model.CompraItem) error
	UpdateItemTx(ctx context.Context, tx *gorm.DB, item *model.CompraItem) error
	DeleteItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) error
	CreatePagoTx(ctx context.Context, tx *gorm.DB, p *model.CompraPago) error
	DeletePagoTx(ctx context.Context, tx *gorm.DB, pagoID uuid.UUID) error

	List(ctx context.Context, filter dto.CompraFilter) ([]model.Compra, int64, error)
	DB() *gorm.DB
}

type compraRepo struct{ db *gorm.DB }

func NewCompraRepository(db *gorm.DB) CompraRepository { return &compraRepo{db: db} }

func (r *compraRepo) DB() *gorm.DB { return r.db }

func (r *compraRepo) CreateTx(ctx context.Context, tx *gorm.DB, c *model.Compra) error {
	return conn(ctx, r.db, tx).Omit("Proveedor", "Items.Producto").Create(c).Error
}

func (r *compraRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Compra, error) {
	var c model.Compra
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Producto").
		Preload("Pagos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&c, "id = ?", id).Error
	return &c, err
}

func (r *compraRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Compra, error) {
	var c model.Compra
	err := forUpdate(conn(ctx, r.db, tx), tx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Pagos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&c, "id = ?", id).Error
	return &c, err
}

func (r *compraRepo) UpdateTx(ctx context.Context, tx *gorm.DB, c *model.Compra) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(c).Error
}

func (r *compraRepo) CreateItemTx(ctx context.Context, tx *gorm.DB, item *model.CompraItem) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Create(item).Error
}

func (r *compraRepo) UpdateItemTx(ctx context.Context, tx *gorm.DB, item *model.CompraItem) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(item).Error
}

func (r *compraRepo) DeleteItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.CompraItem{}, "id = ?", itemID).Error
}

func (r *compraRepo) CreatePagoTx(ctx context.Context, tx *gorm.DB, p *model.CompraPago) error {
	return conn(ctx, r.db, tx).Create(p).Error
}

func (r *compraRepo) DeletePagoTx(ctx context.Context, tx *gorm.DB, pagoID uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.CompraPago{}, "id = ?", pagoID).Error
}

func (r *compraRepo) List(ctx context.Context, filter dto.CompraFilter) ([]model.Compra, int64, error) {
	var compras []model.Compra
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Compra{})
	if filter.ProveedorID != "" {
		q = q.Where("proveedor_id = ?", filter.ProveedorID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Entrega != "" {
		q = q.Where("entrega = ?", filter.Entrega)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Producto").Preload("Pagos").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&compras).Error
	return compras, total, err
}
