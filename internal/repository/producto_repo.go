package repository

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type ProductoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error)

	// Used inside transactions, callers must pass the tx instance
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	// AplicarDeltaStockTx adds delta to stock_actual only if the result stays
	// >= 0, in a single statement. applied=false means the guard rejected it.
	AplicarDeltaStockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) (applied bool, err error)
	ActualizarCostoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, costo decimal.Decimal) error

	ListBajoStock(ctx context.Context) ([]model.Producto, error)
	Valorizacion(ctx context.Context) (productos int, unidades int64, valor decimal.Decimal, err error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&productos).Error
	return productos, err
}

func (r *productoRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := forUpdate(conn(ctx, r.db, tx), tx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) AplicarDeltaStockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) (bool, error) {
	res := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("id = ? AND stock_actual + ? >= 0", id, delta).
		Update("stock_actual", gorm.Expr("stock_actual + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productoRepo) ActualizarCostoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, costo decimal.Decimal) error {
	return conn(ctx, r.db, tx).Model(&model.Producto{}).Where("id = ?", id).
		Update("precio_costo", costo).Error
}

func (r *productoRepo) ListBajoStock(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = true AND stock_actual <= stock_minimo").
		Order("stock_actual ASC, nombre ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Valorizacion(ctx context.Context) (int, int64, decimal.Decimal, error) {
	var row struct {
		Productos int
		Unidades  int64
		Valor     decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Producto{}).
		Select("COUNT(*) AS productos, COALESCE(SUM(stock_actual), 0) AS unidades, COALESCE(SUM(stock_actual * precio_costo), 0) AS valor").
		Where("activo = true").
		Scan(&row).Error
	return row.Productos, row.Unidades, row.Valor, err
}
