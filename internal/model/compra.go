package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoEntrega tracks physical receipt of a Compra. recibida is one-way.
type EstadoEntrega string

const (
	EntregaPendiente EstadoEntrega = "pendiente"
	EntregaRecibida  EstadoEntrega = "recibida"
	EntregaCancelada EstadoEntrega = "cancelada"
)

// Compra is a purchase order. Estado (payment) and Entrega (delivery) are
// independent; supplier debt is assumed only on receipt.
type Compra struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProveedorID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	NumeroFactura *string
	Estado        EstadoPago      `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Entrega       EstadoEntrega   `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Pagado        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Saldo         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Notas         *string
	RecibidaAt    *time.Time
	CanceladaAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items     []CompraItem `gorm:"foreignKey:CompraID"`
	Pagos     []CompraPago `gorm:"foreignKey:CompraID"`
	Proveedor *Proveedor   `gorm:"foreignKey:ProveedorID"`
}

type CompraItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompraID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID    uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad      int             `gorm:"not null"`
	CostoUnitario decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

type CompraPago struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompraID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Metodo       string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SesionCajaID *uuid.UUID      `gorm:"type:uuid"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

func (CompraPago) TableName() string { return "compra_pagos" }
