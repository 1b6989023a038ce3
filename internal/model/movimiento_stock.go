package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoMovimiento enumerates the reasons stock can change.
type TipoMovimiento string

const (
	MovCompra               TipoMovimiento = "compra"
	MovVenta                TipoMovimiento = "venta"
	MovDevolucionEntrada    TipoMovimiento = "devolucion_entrada"
	MovDevolucionSalida     TipoMovimiento = "devolucion_salida"
	MovMerma                TipoMovimiento = "merma"
	MovAjusteEntrada        TipoMovimiento = "ajuste_entrada"
	MovAjusteSalida         TipoMovimiento = "ajuste_salida"
	MovInicial              TipoMovimiento = "inicial"
	MovTransferenciaEntrada TipoMovimiento = "transferencia_entrada"
	MovTransferenciaSalida  TipoMovimiento = "transferencia_salida"
)

// signos is the complete sign table. Every TipoMovimiento has exactly one
// entry; TestSignoCubreTodosLosTipos keeps it in sync with TiposMovimiento.
var signos = map[TipoMovimiento]int{
	MovCompra:               +1,
	MovDevolucionEntrada:    +1,
	MovAjusteEntrada:        +1,
	MovInicial:              +1,
	MovTransferenciaEntrada: +1,
	MovVenta:                -1,
	MovDevolucionSalida:     -1,
	MovMerma:                -1,
	MovAjusteSalida:         -1,
	MovTransferenciaSalida:  -1,
}

// TiposMovimiento lists every movement type in display order.
var TiposMovimiento = []TipoMovimiento{
	MovCompra, MovVenta, MovDevolucionEntrada, MovDevolucionSalida, MovMerma,
	MovAjusteEntrada, MovAjusteSalida, MovInicial, MovTransferenciaEntrada, MovTransferenciaSalida,
}

// Signo returns +1 for entries and -1 for exits. ok is false for unknown types.
func (t TipoMovimiento) Signo() (signo int, ok bool) {
	signo, ok = signos[t]
	return signo, ok
}

// MovimientoStock is one immutable kardex row.
// Cantidad is signed: positive = entrada, negative = salida.
type MovimientoStock struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_mov_producto_fecha,priority:1"`
	Tipo          TipoMovimiento  `gorm:"type:varchar(30);not null"`
	Cantidad      int             `gorm:"not null"`
	StockAnterior int             `gorm:"not null"`
	StockNuevo    int             `gorm:"not null"`
	CostoUnitario decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	CostoTotal    decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid;index"` // venta, compra or devolucion
	UsuarioID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time  `gorm:"index:idx_mov_producto_fecha,priority:2"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
