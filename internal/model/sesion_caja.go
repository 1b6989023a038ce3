package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoSesion: abierta → cerrada | auditoria_requerida (both terminal).
type EstadoSesion string

const (
	SesionAbierta            EstadoSesion = "abierta"
	SesionCerrada            EstadoSesion = "cerrada"
	SesionAuditoriaRequerida EstadoSesion = "auditoria_requerida"
)

// SesionCaja is one cash drawer shift. At most one abierta per usuario,
// backed by the partial unique index ux_sesiones_caja_usuario_abierta.
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MontoEsperado, MontoReal and Diferencia are set on close (blind count).
	MontoEsperado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoReal     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Diferencia    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado        EstadoSesion     `gorm:"type:varchar(20);not null;default:'abierta'"`
	Notas         *string
	OpenedAt      time.Time
	ClosedAt      *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

// TipoMovimientoCaja enumerates cash drawer movements.
type TipoMovimientoCaja string

const (
	CajaIngresoManual      TipoMovimientoCaja = "ingreso_manual"
	CajaEgresoManual       TipoMovimientoCaja = "egreso_manual"
	CajaVenta              TipoMovimientoCaja = "venta"
	CajaCobroCredito       TipoMovimientoCaja = "cobro_credito"
	CajaPagoCompra         TipoMovimientoCaja = "pago_compra"
	CajaGasto              TipoMovimientoCaja = "gasto"
	CajaReembolso          TipoMovimientoCaja = "reembolso"
	CajaReintegroProveedor TipoMovimientoCaja = "reintegro_proveedor"
)

// Entrada reports whether the type adds cash to the drawer.
func (t TipoMovimientoCaja) Entrada() bool {
	switch t {
	case CajaIngresoManual, CajaVenta, CajaCobroCredito, CajaReintegroProveedor:
		return true
	}
	return false
}

// GeneradoPorSistema is true for types that only the engines may write.
func (t TipoMovimientoCaja) GeneradoPorSistema() bool {
	return t == CajaVenta || t == CajaCobroCredito
}

// MovimientoCaja is an immutable event in the cash drawer ledger.
// Monto is signed: egresos are stored negative. Movements are never modified
// or deleted; reversals create inverse entries.
type MovimientoCaja struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID          `gorm:"type:uuid;index;not null"`
	Tipo         TipoMovimientoCaja `gorm:"type:varchar(30);not null"`
	Monto        decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	Descripcion  string             `gorm:"not null"`
	// ReferenciaID links to the originating Venta, Compra or Devolucion
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	UsuarioID    uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }
