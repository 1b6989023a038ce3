package dto

import "github.com/shopspring/decimal"

// AsignacionAbono is the share of a client payment applied to one invoice.
type AsignacionAbono struct {
	VentaID       string          `json:"venta_id"`
	NumeroFactura *string         `json:"numero_factura"`
	Monto         decimal.Decimal `json:"monto"`
	SaldoRestante decimal.Decimal `json:"saldo_restante"`
	Estado        string          `json:"estado"`
}

// AbonoResponse reports a FIFO allocation. Excedente is the part of the
// payment that found no open invoice; it is not applied anywhere.
type AbonoResponse struct {
	ClienteID     string            `json:"cliente_id"`
	Aplicado      decimal.Decimal   `json:"aplicado"`
	Excedente     decimal.Decimal   `json:"excedente"`
	DeudaRestante decimal.Decimal   `json:"deuda_restante"`
	Asignaciones  []AsignacionAbono `json:"asignaciones"`
}

type EstadoCuentaFilter struct {
	Desde string `form:"desde"`
	Hasta string `form:"hasta"`
	Page  int    `form:"page,default=1"`
	Limit int    `form:"limit,default=20"`
}

type VentaCuentaItem struct {
	VentaID       string          `json:"venta_id"`
	NumeroFactura *string         `json:"numero_factura"`
	Fecha         string          `json:"fecha"`
	Total         decimal.Decimal `json:"total"`
	Pagado        decimal.Decimal `json:"pagado"`
	Saldo         decimal.Decimal `json:"saldo"`
	Estado        string          `json:"estado"`
	Pagos         []PagoResponse  `json:"pagos"`
}

type EstadoCuentaResponse struct {
	ClienteID         string            `json:"cliente_id"`
	Nombre            string            `json:"nombre"`
	DeudaActual       decimal.Decimal   `json:"deuda_actual"`
	LimiteCredito     decimal.Decimal   `json:"limite_credito"`
	CreditoDisponible decimal.Decimal   `json:"credito_disponible"`
	Ventas            []VentaCuentaItem `json:"ventas"`
	Total             int64             `json:"total"`
	Page              int               `json:"page"`
	Limit             int               `json:"limit"`
}
