package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

type CompraFilter struct {
	ProveedorID string `form:"proveedor_id"`
	Estado      string `form:"estado"`
	Entrega     string `form:"entrega"`
	Page        int    `form:"page,default=1"`
	Limit       int    `form:"limit,default=50"`
}

type CompraListResponse struct {
	Data  []CompraResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemCompraRequest struct {
	ProductoID    string          `json:"producto_id"    validate:"required,uuid"`
	Cantidad      int             `json:"cantidad"       validate:"required,min=1"`
	CostoUnitario decimal.Decimal `json:"costo_unitario" validate:"min=0"`
}

type CrearCompraRequest struct {
	ProveedorID   string              `json:"proveedor_id"   validate:"required,uuid"`
	NumeroFactura *string             `json:"numero_factura"`
	Items         []ItemCompraRequest `json:"items"          validate:"required,min=1,dive"`
	Pagos         []PagoRequest       `json:"pagos"          validate:"omitempty,dive"`
	Notas         *string             `json:"notas"`
}

type ActualizarCompraRequest struct {
	ProveedorID   *string `json:"proveedor_id"   validate:"omitempty,uuid"`
	NumeroFactura *string `json:"numero_factura"`
}

// ActualizarItemCompraRequest changes quantity and/or unit cost of a line.
type ActualizarItemCompraRequest struct {
	Cantidad      *int             `json:"cantidad"       validate:"omitempty,min=1"`
	CostoUnitario *decimal.Decimal `json:"costo_unitario"`
}

type CancelarCompraRequest struct {
	// DevolverEfectivo=true: the supplier hands the money back in cash.
	// false: what was paid stays with the supplier as a credit note.
	DevolverEfectivo bool   `json:"devolver_efectivo"`
	Motivo           string `json:"motivo" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemCompraResponse struct {
	ID            string          `json:"id"`
	ProductoID    string          `json:"producto_id"`
	Producto      string          `json:"producto,omitempty"`
	Cantidad      int             `json:"cantidad"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type CompraResponse struct {
	ID             string               `json:"id"`
	ProveedorID    string               `json:"proveedor_id"`
	NumeroFactura  *string              `json:"numero_factura"`
	Estado         string               `json:"estado"`
	Entrega        string               `json:"entrega"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	Total          decimal.Decimal      `json:"total"`
	Pagado         decimal.Decimal      `json:"pagado"`
	Saldo          decimal.Decimal      `json:"saldo"`
	SaldoProveedor *decimal.Decimal     `json:"saldo_proveedor,omitempty"`
	Items          []ItemCompraResponse `json:"items"`
	Pagos          []PagoResponse       `json:"pagos"`
	CreatedAt      string               `json:"created_at"`
	RecibidaAt     *string              `json:"recibida_at,omitempty"`
}

// ─── Cost history ────────────────────────────────────────────────────────────

type HistorialCostoFilter struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=50"`
}

type HistorialCostoResponse struct {
	ID           string          `json:"id"`
	ProveedorID  *string         `json:"proveedor_id"`
	CompraID     *string         `json:"compra_id"`
	CostoAntes   decimal.Decimal `json:"costo_antes"`
	CostoDespues decimal.Decimal `json:"costo_despues"`
	Motivo       string          `json:"motivo"`
	CreatedAt    string          `json:"created_at"`
}

type HistorialCostoListResponse struct {
	ProductoID string                   `json:"producto_id"`
	Data       []HistorialCostoResponse `json:"data"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	Limit      int                      `json:"limit"`
}
