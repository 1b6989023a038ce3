package repository

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var returningSaldo = clause.Returning{Columns: []clause.Column{{Name: "saldo"}}}

type ProveedorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error)
	// AjustarSaldoTx adds delta to saldo. The result may be negative (credit note).
	AjustarSaldoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *proveedorRepo) AjustarSaldoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var p model.Proveedor
	err := conn(ctx, r.db, tx).Model(&p).
		Clauses(returningSaldo).
		Where("id = ?", id).
		Update("saldo", gorm.Expr("saldo + ?", delta)).Error
	return p.Saldo, err
}
