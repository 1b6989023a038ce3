package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrecioCliente is the special price a client pays for a product.
type PrecioCliente struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_precio_cliente_producto"`
	ProductoID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_precio_cliente_producto"`
	Precio     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Activo     bool            `gorm:"not null;default:true"`
	UpdatedAt  time.Time
}

func (PrecioCliente) TableName() string { return "precios_cliente" }

// HistorialPrecioCliente is a validity interval of a special price.
// The current interval has Hasta == nil.
type HistorialPrecioCliente struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_hist_precio_cliente,priority:1"`
	ProductoID uuid.UUID       `gorm:"type:uuid;not null;index:idx_hist_precio_cliente,priority:2"`
	Precio     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentaID    *uuid.UUID      `gorm:"type:uuid"`
	UsuarioID  uuid.UUID       `gorm:"type:uuid;not null"`
	Desde      time.Time       `gorm:"not null"`
	Hasta      *time.Time
}

func (HistorialPrecioCliente) TableName() string { return "historial_precios_cliente" }
