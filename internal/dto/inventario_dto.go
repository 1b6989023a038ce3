package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// MovimientoRequest registers a manual stock movement. Cantidad is always a
// magnitude; the sign comes from Tipo.
type MovimientoRequest struct {
	ProductoID   string  `json:"producto_id"   validate:"required,uuid"`
	Tipo         string  `json:"tipo"          validate:"required"`
	Cantidad     int     `json:"cantidad"      validate:"required,min=1"`
	Motivo       string  `json:"motivo"        validate:"required,min=3"`
	ReferenciaID *string `json:"referencia_id" validate:"omitempty,uuid"`
}

type AjusteRequest struct {
	ProductoID   string `json:"producto_id"   validate:"required,uuid"`
	CantidadReal int    `json:"cantidad_real" validate:"min=0"`
	Motivo       string `json:"motivo"        validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoStockResponse struct {
	ID            string          `json:"id"`
	ProductoID    string          `json:"producto_id"`
	Producto      string          `json:"producto,omitempty"`
	Tipo          string          `json:"tipo"`
	Cantidad      int             `json:"cantidad"`
	StockAnterior int             `json:"stock_anterior"`
	StockNuevo    int             `json:"stock_nuevo"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"`
	CostoTotal    decimal.Decimal `json:"costo_total"`
	Motivo        string          `json:"motivo"`
	ReferenciaID  *string         `json:"referencia_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type ValorizacionResponse struct {
	Productos       int             `json:"productos"`
	UnidadesTotales int64           `json:"unidades_totales"`
	ValorTotal      decimal.Decimal `json:"valor_total"`
}

type AlertaStockResponse struct {
	ProductoID  string `json:"producto_id"`
	Nombre      string `json:"nombre"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
	Faltante    int    `json:"faltante"`
}
