package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Proveedor is a supplier. Saldo is what the pharmacy owes; a negative Saldo
// is a credit note (the supplier owes us).
type Proveedor struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RazonSocial string    `gorm:"not null"`
	RFC         string    `gorm:"column:rfc;uniqueIndex;not null"`
	Telefono    *string
	Email       *string
	Saldo       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Proveedor) TableName() string { return "proveedores" }
