package repository

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VentaRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// FindForUpdateTx locks the venta row and loads its items and payments.
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	// ClienteIDTx reads the venta's client without locking, so callers can
	// lock the client row first.
	ClienteIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*uuid.UUID, error)
	// UpdateTx saves header fields only; items and payments have their own writers.
	UpdateTx(ctx context.Context, tx *gorm.DB, v *model.Venta) error

	CreateItemTx(ctx context.Context, tx *gorm.DB, item *model.VentaItem) error
	UpdateItemTx(ctx context.Context, tx *gorm.DB, item *model.VentaItem) error
	DeleteItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) error
	CreatePagoTx(ctx context.Context, tx *gorm.DB, p *model.VentaPago) error
	CreateDevolucionTx(ctx context.Context, tx *gorm.DB, d *model.Devolucion) error
	// SumReembolsosEfectivoTx is the cash already handed back for the sale.
	SumReembolsosEfectivoTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (decimal.Decimal, error)

	NextNumeroFactura(ctx context.Context, tx *gorm.DB) (int64, error)

	// ListAbiertasClienteTx returns the client's completed, unpaid sales
	// oldest first, locked for update.
	ListAbiertasClienteTx(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) ([]model.Venta, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	ListCuentaCliente(ctx context.Context, clienteID uuid.UUID, filter dto.EstadoCuentaFilter) ([]model.Venta, int64, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(ctx, r.db, tx).Omit("Cliente", "Pagos", "Items.Producto").Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Producto").
		Preload("Pagos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Cliente").
		First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := forUpdate(conn(ctx, r.db, tx), tx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Pagos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) ClienteIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*uuid.UUID, error) {
	var v model.Venta
	if err := conn(ctx, r.db, tx).Select("id", "cliente_id").First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return v.ClienteID, nil
}

func (r *ventaRepo) UpdateTx(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(v).Error
}

func (r *ventaRepo) CreateItemTx(ctx context.Context, tx *gorm.DB, item *model.VentaItem) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Create(item).Error
}

func (r *ventaRepo) UpdateItemTx(ctx context.Context, tx *gorm.DB, item *model.VentaItem) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(item).Error
}

func (r *ventaRepo) DeleteItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.VentaItem{}, "id = ?", itemID).Error
}

func (r *ventaRepo) CreatePagoTx(ctx context.Context, tx *gorm.DB, p *model.VentaPago) error {
	return conn(ctx, r.db, tx).Create(p).Error
}

func (r *ventaRepo) CreateDevolucionTx(ctx context.Context, tx *gorm.DB, d *model.Devolucion) error {
	// Items and Reembolsos are inserted with the header.
	return conn(ctx, r.db, tx).Create(d).Error
}

func (r *ventaRepo) SumReembolsosEfectivoTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.db, tx).Model(&model.Reembolso{}).
		Select("COALESCE(SUM(reembolsos.monto), 0)").
		Joins("JOIN devoluciones ON devoluciones.id = reembolsos.devolucion_id").
		Where("devoluciones.venta_id = ? AND reembolsos.metodo = ?", ventaID, model.MetodoEfectivo).
		Scan(&total).Error
	return total, err
}

func (r *ventaRepo) NextNumeroFactura(ctx context.Context, tx *gorm.DB) (int64, error) {
	// PostgreSQL sequence, created by infra.NewDatabase schema patches
	var num int64
	err := conn(ctx, r.db, tx).Raw("SELECT nextval('ventas_numero_factura_seq')").Scan(&num).Error
	return num, err
}

func (r *ventaRepo) ListAbiertasClienteTx(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := forUpdate(conn(ctx, r.db, tx), tx).
		Where("cliente_id = ? AND flujo = ? AND saldo > 0", clienteID, model.FlujoCompletada).
		Order("completada_at ASC, created_at ASC, id ASC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.Flujo != "" {
		q = q.Where("flujo = ?", filter.Flujo)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Desde != "" {
		q = q.Where("DATE(created_at) >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("DATE(created_at) <= ?", filter.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Producto").Preload("Pagos").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) ListCuentaCliente(ctx context.Context, clienteID uuid.UUID, filter dto.EstadoCuentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("cliente_id = ? AND flujo = ?", clienteID, model.FlujoCompletada)
	if filter.Desde != "" {
		q = q.Where("DATE(completada_at) >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("DATE(completada_at) <= ?", filter.Hasta)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Pagos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Order("completada_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error
	return ventas, total, err
}
