package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cliente carries the credit account. DeudaActual never goes below zero.
type Cliente struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre        string    `gorm:"not null"`
	Email         *string
	Telefono      *string
	TieneCredito  bool            `gorm:"not null;default:false"`
	LimiteCredito decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	DeudaActual   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;check:chk_clientes_deuda_no_negativa,deuda_actual >= 0"`
	Activo        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreditoDisponible is LimiteCredito - DeudaActual, floored at zero.
func (c *Cliente) CreditoDisponible() decimal.Decimal {
	d := c.LimiteCredito.Sub(c.DeudaActual)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
