package repository

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error)
	// AjustarDeudaTx adds delta to deuda_actual, flooring the result at zero.
	AjustarDeudaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := forUpdate(conn(ctx, r.db, tx), tx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) AjustarDeudaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return conn(ctx, r.db, tx).Model(&model.Cliente{}).Where("id = ?", id).
		Update("deuda_actual", gorm.Expr("GREATEST(deuda_actual + ?, 0)", delta)).Error
}
