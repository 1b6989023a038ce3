package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
	Notas        *string         `json:"notas"`
}

// OperacionCajaRequest is a manual drawer movement. venta and cobro_credito
// are generated by the engines and rejected here.
type OperacionCajaRequest struct {
	Tipo        string          `json:"tipo"        validate:"required"`
	Monto       decimal.Decimal `json:"monto"       validate:"gt=0"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
}

// CerrarCajaRequest is the blind count: the cashier declares MontoReal
// without seeing the expected amount.
type CerrarCajaRequest struct {
	MontoReal decimal.Decimal `json:"monto_real" validate:"min=0"`
	Notas     *string         `json:"notas"`
}

// SesionFilter is bound from query string of GET /v1/caja/historial.
type SesionFilter struct {
	UsuarioID string `form:"usuario_id"`
	Estado    string `form:"estado"`
	Desde     string `form:"desde"`
	Hasta     string `form:"hasta"`
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoCajaResponse struct {
	ID           string          `json:"id"`
	Tipo         string          `json:"tipo"`
	Monto        decimal.Decimal `json:"monto"`
	Descripcion  string          `json:"descripcion"`
	ReferenciaID *string         `json:"referencia_id,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type SesionCajaResponse struct {
	ID            string                   `json:"id"`
	UsuarioID     string                   `json:"usuario_id"`
	Estado        string                   `json:"estado"`
	MontoInicial  decimal.Decimal          `json:"monto_inicial"`
	MontoEsperado *decimal.Decimal         `json:"monto_esperado,omitempty"`
	MontoReal     *decimal.Decimal         `json:"monto_real,omitempty"`
	Diferencia    *decimal.Decimal         `json:"diferencia,omitempty"`
	Notas         *string                  `json:"notas,omitempty"`
	OpenedAt      string                   `json:"opened_at"`
	ClosedAt      *string                  `json:"closed_at,omitempty"`
	Movimientos   []MovimientoCajaResponse `json:"movimientos,omitempty"`
}

type SesionListResponse struct {
	Data  []SesionCajaResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// CierreCajaResponse breaks down the expected amount. RequiereAuditoria is a
// soft failure: the shift is closed either way.
type CierreCajaResponse struct {
	SesionCajaID      string          `json:"sesion_caja_id"`
	Estado            string          `json:"estado"`
	MontoInicial      decimal.Decimal `json:"monto_inicial"`
	VentasEfectivo    decimal.Decimal `json:"ventas_efectivo"`
	Ingresos          decimal.Decimal `json:"ingresos"`
	Egresos           decimal.Decimal `json:"egresos"`
	MontoEsperado     decimal.Decimal `json:"monto_esperado"`
	MontoReal         decimal.Decimal `json:"monto_real"`
	Diferencia        decimal.Decimal `json:"diferencia"`
	RequiereAuditoria bool            `json:"requiere_auditoria"`
}
