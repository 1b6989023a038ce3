package service

import (
	"time"

	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
)

func fmtTime(t time.Time) string { return t.Format(dto.TimeLayout) }

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

func idPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func movimientoToResponse(m *model.MovimientoStock) *dto.MovimientoStockResponse {
	resp := &dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          string(m.Tipo),
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		CostoUnitario: m.CostoUnitario,
		CostoTotal:    m.CostoTotal,
		Motivo:        m.Motivo,
		ReferenciaID:  idPtr(m.ReferenciaID),
		CreatedAt:     fmtTime(m.CreatedAt),
	}
	if m.Producto != nil {
		resp.Producto = m.Producto.Nombre
	}
	return resp
}

func pagoVentaToResponse(p model.VentaPago) dto.PagoResponse {
	return dto.PagoResponse{
		ID:           p.ID.String(),
		Metodo:       p.Metodo,
		Monto:        p.Monto,
		SesionCajaID: idPtr(p.SesionCajaID),
		CreatedAt:    fmtTime(p.CreatedAt),
	}
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, it := range v.Items {
		ir := dto.ItemVentaResponse{
			ID:               it.ID.String(),
			ProductoID:       it.ProductoID.String(),
			Cantidad:         it.Cantidad,
			CantidadDevuelta: it.CantidadDevuelta,
			PrecioUnitario:   it.PrecioUnitario,
			Subtotal:         it.Subtotal,
		}
		if it.Producto != nil {
			ir.Producto = it.Producto.Nombre
		}
		items = append(items, ir)
	}
	pagos := make([]dto.PagoResponse, 0, len(v.Pagos))
	for _, p := range v.Pagos {
		pagos = append(pagos, pagoVentaToResponse(p))
	}
	return &dto.VentaResponse{
		ID:            v.ID.String(),
		NumeroFactura: v.NumeroFactura,
		ClienteID:     idPtr(v.ClienteID),
		Flujo:         string(v.Flujo),
		Estado:        string(v.Estado),
		Subtotal:      v.Subtotal,
		Total:         v.Total,
		CostoTotal:    v.CostoTotal,
		Ganancia:      v.Ganancia,
		Pagado:        v.Pagado,
		Saldo:         v.Saldo,
		Notas:         v.Notas,
		Items:         items,
		Pagos:         pagos,
		CreatedAt:     fmtTime(v.CreatedAt),
		CompletadaAt:  fmtTimePtr(v.CompletadaAt),
	}
}

func compraToResponse(c *model.Compra) *dto.CompraResponse {
	items := make([]dto.ItemCompraResponse, 0, len(c.Items))
	for _, it := range c.Items {
		ir := dto.ItemCompraResponse{
			ID:            it.ID.String(),
			ProductoID:    it.ProductoID.String(),
			Cantidad:      it.Cantidad,
			CostoUnitario: it.CostoUnitario,
			Subtotal:      it.Subtotal,
		}
		if it.Producto != nil {
			ir.Producto = it.Producto.Nombre
		}
		items = append(items, ir)
	}
	pagos := make([]dto.PagoResponse, 0, len(c.Pagos))
	for _, p := range c.Pagos {
		pagos = append(pagos, dto.PagoResponse{
			ID:           p.ID.String(),
			Metodo:       p.Metodo,
			Monto:        p.Monto,
			SesionCajaID: idPtr(p.SesionCajaID),
			CreatedAt:    fmtTime(p.CreatedAt),
		})
	}
	return &dto.CompraResponse{
		ID:            c.ID.String(),
		ProveedorID:   c.ProveedorID.String(),
		NumeroFactura: c.NumeroFactura,
		Estado:        string(c.Estado),
		Entrega:       string(c.Entrega),
		Subtotal:      c.Subtotal,
		Total:         c.Total,
		Pagado:        c.Pagado,
		Saldo:         c.Saldo,
		Items:         items,
		Pagos:         pagos,
		CreatedAt:     fmtTime(c.CreatedAt),
		RecibidaAt:    fmtTimePtr(c.RecibidaAt),
	}
}

func movimientoCajaToResponse(m model.MovimientoCaja) dto.MovimientoCajaResponse {
	return dto.MovimientoCajaResponse{
		ID:           m.ID.String(),
		Tipo:         string(m.Tipo),
		Monto:        m.Monto,
		Descripcion:  m.Descripcion,
		ReferenciaID: idPtr(m.ReferenciaID),
		CreatedAt:    fmtTime(m.CreatedAt),
	}
}

func sesionToResponse(s *model.SesionCaja) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:            s.ID.String(),
		UsuarioID:     s.UsuarioID.String(),
		Estado:        string(s.Estado),
		MontoInicial:  s.MontoInicial,
		MontoEsperado: s.MontoEsperado,
		MontoReal:     s.MontoReal,
		Diferencia:    s.Diferencia,
		Notas:         s.Notas,
		OpenedAt:      fmtTime(s.OpenedAt),
		ClosedAt:      fmtTimePtr(s.ClosedAt),
	}
	for _, m := range s.Movimientos {
		resp.Movimientos = append(resp.Movimientos, movimientoCajaToResponse(m))
	}
	return resp
}

func historialCostoToResponse(h *model.HistorialPrecio) dto.HistorialCostoResponse {
	return dto.HistorialCostoResponse{
		ID:           h.ID.String(),
		ProveedorID:  idPtr(h.ProveedorID),
		CompraID:     idPtr(h.CompraID),
		CostoAntes:   h.CostoAntes,
		CostoDespues: h.CostoDespues,
		Motivo:       h.Motivo,
		CreatedAt:    fmtTime(h.CreatedAt),
	}
}
