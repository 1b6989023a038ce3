package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is the sellable unit. StockActual and PrecioCosto are written only
// by the inventory ledger; catalog CRUD lives outside this service.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoBarras string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Categoria    string
	// PrecioCosto is the weighted-average unit cost.
	PrecioCosto decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	PrecioVenta decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockActual int             `gorm:"not null;default:0;check:chk_productos_stock_no_negativo,stock_actual >= 0"`
	StockMinimo int             `gorm:"not null;default:5"`
	ProveedorID *uuid.UUID      `gorm:"type:uuid;index"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
