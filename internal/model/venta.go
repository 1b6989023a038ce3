package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoFlujo governs whether a Venta can still be edited.
type EstadoFlujo string

const (
	FlujoBorrador   EstadoFlujo = "borrador"
	FlujoCompletada EstadoFlujo = "completada"
	FlujoCancelada  EstadoFlujo = "cancelada"
)

// EstadoPago tracks payment progress of a Venta or Compra.
type EstadoPago string

const (
	PagoPendiente EstadoPago = "pendiente"
	PagoParcial   EstadoPago = "parcial"
	PagoPagada    EstadoPago = "pagada"
	PagoCancelada EstadoPago = "cancelada"
)

// Payment methods. Only MetodoEfectivo moves money through the cash drawer.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTarjeta       = "tarjeta"
	MetodoTransferencia = "transferencia"
	MetodoCredito       = "credito"
	// MetodoNotaCredito settles part of a sale with returned goods.
	MetodoNotaCredito = "nota_credito"
)

// Venta is a sale document. Saldo = Total - Pagado at all times.
// NumeroFactura, CostoTotal and Ganancia are frozen when Flujo becomes completada.
type Venta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroFactura *string         `gorm:"uniqueIndex"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClienteID     *uuid.UUID      `gorm:"type:uuid;index"`
	Flujo         EstadoFlujo     `gorm:"type:varchar(20);not null;default:'borrador';index"`
	Estado        EstadoPago      `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CostoTotal    decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	Ganancia      decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	Pagado        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Saldo         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Notas         *string
	CompletadaAt  *time.Time
	CanceladaAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items   []VentaItem `gorm:"foreignKey:VentaID"`
	Pagos   []VentaPago `gorm:"foreignKey:VentaID"`
	Cliente *Cliente    `gorm:"foreignKey:ClienteID"`
}

// VentaItem is one line. PrecioUnitario and CostoUnitario are snapshots.
type VentaItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID       uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad         int             `gorm:"not null"`
	CantidadDevuelta int             `gorm:"not null;default:0"`
	PrecioUnitario   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostoUnitario    decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// VentaPago is a single payment. SesionCajaID is set for cash payments.
type VentaPago struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Metodo       string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SesionCajaID *uuid.UUID      `gorm:"type:uuid;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

// TableName keeps the plural Spanish table names.
func (VentaPago) TableName() string { return "venta_pagos" }
