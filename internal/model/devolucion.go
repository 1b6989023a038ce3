package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Devolucion records a post-completion reversal (partial or total, or the
// money side of a cancellation). The original Venta lines are not mutated
// except for VentaItem.CantidadDevuelta.
type Devolucion struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	Motivo        string          `gorm:"not null"`
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CostoDevuelto decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	CreatedAt     time.Time

	Items      []DevolucionItem `gorm:"foreignKey:DevolucionID"`
	Reembolsos []Reembolso      `gorm:"foreignKey:DevolucionID"`
}

func (Devolucion) TableName() string { return "devoluciones" }

// DevolucionItem is one returned line. Reingresa=false means the goods were
// damaged and went out as merma.
type DevolucionItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DevolucionID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	VentaItemID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Reingresa      bool            `gorm:"not null"`
}

// Reembolso is money given back to the customer, either as a debt reduction
// (Metodo "credito") or as cash out of a shift.
type Reembolso struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DevolucionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Metodo       string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SesionCajaID *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt    time.Time
}
