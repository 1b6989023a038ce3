package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Flujo     string `form:"flujo"`      // borrador | completada | cancelada
	Estado    string `form:"estado"`     // pendiente | parcial | pagada | cancelada
	ClienteID string `form:"cliente_id"`
	Desde     string `form:"desde"`      // YYYY-MM-DD
	Hasta     string `form:"hasta"`      // YYYY-MM-DD
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=50"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type CrearVentaRequest struct {
	ClienteID *string            `json:"cliente_id" validate:"omitempty,uuid"`
	Items     []ItemVentaRequest `json:"items"      validate:"required,min=1,dive"`
	Notas     *string            `json:"notas"`
}

// PagoRequest is shared by sales, purchases and client account payments.
type PagoRequest struct {
	Metodo string          `json:"metodo" validate:"required,oneof=efectivo tarjeta transferencia"`
	Monto  decimal.Decimal `json:"monto"  validate:"gt=0"`
}

type CancelarVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3"`
}

type DevolucionItemRequest struct {
	VentaItemID string `json:"venta_item_id" validate:"required,uuid"`
	Cantidad    int    `json:"cantidad"      validate:"required,min=1"`
	// Reingresa=false sends the units out as merma (damaged goods).
	Reingresa bool `json:"reingresa"`
}

type DevolucionRequest struct {
	Items             []DevolucionItemRequest `json:"items"              validate:"required,min=1,dive"`
	ReembolsarCliente bool                    `json:"reembolsar_cliente"`
	Motivo            string                  `json:"motivo"             validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ID               string          `json:"id"`
	ProductoID       string          `json:"producto_id"`
	Producto         string          `json:"producto,omitempty"`
	Cantidad         int             `json:"cantidad"`
	CantidadDevuelta int             `json:"cantidad_devuelta"`
	PrecioUnitario   decimal.Decimal `json:"precio_unitario"`
	Subtotal         decimal.Decimal `json:"subtotal"`
}

type PagoResponse struct {
	ID           string          `json:"id"`
	Metodo       string          `json:"metodo"`
	Monto        decimal.Decimal `json:"monto"`
	SesionCajaID *string         `json:"sesion_caja_id,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type VentaResponse struct {
	ID            string              `json:"id"`
	NumeroFactura *string             `json:"numero_factura"`
	ClienteID     *string             `json:"cliente_id"`
	Flujo         string              `json:"flujo"`
	Estado        string              `json:"estado"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Total         decimal.Decimal     `json:"total"`
	CostoTotal    decimal.Decimal     `json:"costo_total"`
	Ganancia      decimal.Decimal     `json:"ganancia"`
	Pagado        decimal.Decimal     `json:"pagado"`
	Saldo         decimal.Decimal     `json:"saldo"`
	Notas         *string             `json:"notas,omitempty"`
	Items         []ItemVentaResponse `json:"items"`
	Pagos         []PagoResponse      `json:"pagos"`
	CreatedAt     string              `json:"created_at"`
	CompletadaAt  *string             `json:"completada_at,omitempty"`
}

type DevolucionResponse struct {
	ID      string          `json:"id"`
	VentaID string          `json:"venta_id"`
	Total   decimal.Decimal `json:"total"`
	// DeudaReducida is the part of the refund applied against client debt;
	// EfectivoDevuelto is the part paid out of the cash drawer.
	DeudaReducida    decimal.Decimal          `json:"deuda_reducida"`
	EfectivoDevuelto decimal.Decimal          `json:"efectivo_devuelto"`
	Items            []DevolucionItemResponse `json:"items"`
}

type DevolucionItemResponse struct {
	VentaItemID string          `json:"venta_item_id"`
	ProductoID  string          `json:"producto_id"`
	Cantidad    int             `json:"cantidad"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Reingresa   bool            `json:"reingresa"`
}
