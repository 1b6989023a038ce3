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

type CajaRepository interface {
	CreateSesionTx(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	// FindSesionAbiertaTx returns (nil, nil) when the user has no open shift.
	// Inside a transaction the row is locked.
	FindSesionAbiertaTx(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (*model.SesionCaja, error)
	FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	UpdateSesionTx(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	ListSesiones(ctx context.Context, filter dto.SesionFilter) ([]model.SesionCaja, int64, error)

	CreateMovimientoTx(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
	// SumMovimientosPorTipoTx returns the signed sum of movements grouped by type.
	SumMovimientosPorTipoTx(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) (map[model.TipoMovimientoCaja]decimal.Decimal, error)
	// SumPagosEfectivoTx sums cash VentaPago rows linked to the shift.
	SumPagosEfectivoTx(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) (decimal.Decimal, error)

	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) CreateSesionTx(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Create(s).Error
}

func (r *cajaRepo) FindSesionAbiertaTx(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	var sesiones []model.SesionCaja
	err := forUpdate(conn(ctx, r.db, tx), tx).
		Where("usuario_id = ? AND estado = ?", usuarioID, model.SesionAbierta).
		Limit(1).
		Find(&sesiones).Error
	if err != nil || len(sesiones) == 0 {
		return nil, err
	}
	return &sesiones[0], nil
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Preload("Movimientos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) UpdateSesionTx(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(s).Error
}

func (r *cajaRepo) ListSesiones(ctx context.Context, filter dto.SesionFilter) ([]model.SesionCaja, int64, error) {
	var sesiones []model.SesionCaja
	var total int64

	q := r.db.WithContext(ctx).Model(&model.SesionCaja{})
	if filter.UsuarioID != "" {
		q = q.Where("usuario_id = ?", filter.UsuarioID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Desde != "" {
		q = q.Where("DATE(opened_at) >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("DATE(opened_at) <= ?", filter.Hasta)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("opened_at DESC").Offset(offset).Limit(filter.Limit).Find(&sesiones).Error
	return sesiones, total, err
}

func (r *cajaRepo) CreateMovimientoTx(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).Where("sesion_caja_id = ?", sesionCajaID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) SumMovimientosPorTipoTx(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) (map[model.TipoMovimientoCaja]decimal.Decimal, error) {
	var rows []struct {
		Tipo  model.TipoMovimientoCaja
		Total decimal.Decimal
	}
	err := conn(ctx, r.db, tx).Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS total").
		Where("sesion_caja_id = ?", sesionCajaID).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[model.TipoMovimientoCaja]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.Tipo] = row.Total
	}
	return sums, nil
}

func (r *cajaRepo) SumPagosEfectivoTx(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.db, tx).Model(&model.VentaPago{}).
		Select("COALESCE(SUM(monto), 0)").
		Where("sesion_caja_id = ? AND metodo = ?", sesionCajaID, model.MetodoEfectivo).
		Scan(&total).Error
	return total, err
}
