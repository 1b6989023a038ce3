package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistorialPrecio registra cada cambio de costo de un producto.
// Los registros son inmutables, nunca se eliminan ni modifican.
type HistorialPrecio struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProveedorID  *uuid.UUID      `gorm:"type:uuid;index"`
	CompraID     *uuid.UUID      `gorm:"type:uuid"`
	CostoAntes   decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	CostoDespues decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Motivo       string          `gorm:"not null;default:'recepcion_compra'"`
	CreatedAt    time.Time
}

func (HistorialPrecio) TableName() string { return "historial_precios" }
