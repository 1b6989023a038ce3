package service

import (
	"context"
	"slices"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Cancelar ──────────────────────────────────────────────────────────────────
// A completed sale gives back the units not yet returned and releases the
// client debt. Collected money is refunded in cash from the canceller's
// shift; without an open shift the refund record is still written and the
// missing drawer movement is logged.

func (s *ventaService) Cancelar(ctx context.Context, usuarioID, ventaID uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	err := withLock(ctx, s.locker, ventaLockKey(ventaID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			v, err := s.bloquearVentaTx(ctx, tx, ventaID)
			if err != nil {
				return err
			}
			if v.Flujo == model.FlujoCancelada {
				return apierror.InvalidState("La venta ya está cancelada")
			}

			if v.Flujo == model.FlujoCompletada {
				for _, line := range v.Items {
					pendiente := line.Cantidad - line.CantidadDevuelta
					if pendiente <= 0 {
						continue
					}
					if _, err := s.inventario.RegistrarMovimientoTx(ctx, tx, MovimientoInput{
						ProductoID:   line.ProductoID,
						Tipo:         model.MovDevolucionEntrada,
						Cantidad:     pendiente,
						Motivo:       "Cancelación de venta " + ventaRef(v),
						ReferenciaID: &v.ID,
						UsuarioID:    &usuarioID,
					}); err != nil {
						return err
					}
				}
				if v.ClienteID != nil && v.Saldo.IsPositive() {
					if err := s.clientes.AjustarDeudaTx(ctx, tx, *v.ClienteID, v.Saldo.Neg()); err != nil {
						return err
					}
				}
			}

			if err := s.reembolsarCancelacion(ctx, tx, usuarioID, v, motivo); err != nil {
				return err
			}

			now := time.Now()
			v.Flujo = model.FlujoCancelada
			v.Estado = model.PagoCancelada
			v.Saldo = decimal.Zero
			v.CanceladaAt = &now
			nota := "Cancelada: " + motivo
			v.Notas = appendNota(v.Notas, &nota)
			return s.repo.UpdateTx(ctx, tx, v)
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("venta_id", ventaID.String()).Str("usuario_id", usuarioID.String()).Msg("venta: cancelada")
	return s.Obtener(ctx, ventaID)
}

// reembolsarCancelacion refunds what was actually collected: payments other
// than credit notes, minus cash already returned by earlier devoluciones.
func (s *ventaService) reembolsarCancelacion(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, v *model.Venta, motivo string) error {
	cobrado := decimal.Zero
	for _, p := range v.Pagos {
		if p.Metodo != model.MetodoNotaCredito {
			cobrado = cobrado.Add(p.Monto)
		}
	}
	if !cobrado.IsPositive() {
		return nil
	}
	devuelto, err := s.repo.SumReembolsosEfectivoTx(ctx, tx, v.ID)
	if err != nil {
		return err
	}
	monto := cobrado.Sub(devuelto)
	if !monto.IsPositive() {
		return nil
	}

	sesion, err := s.caja.SesionAbiertaTx(ctx, tx, usuarioID)
	switch {
	case apierror.Is(err, apierror.KindConflict):
		log.Warn().Str("venta_id", v.ID.String()).Str("usuario_id", usuarioID.String()).
			Str("monto", monto.StringFixed(2)).
			Msg("venta: cancelación sin turno abierto, el reembolso no se registra en caja")
		sesion = nil
	case err != nil:
		return err
	}

	dev := &model.Devolucion{
		ID:        uuid.New(),
		VentaID:   v.ID,
		UsuarioID: usuarioID,
		Motivo:    "Cancelación: " + motivo,
		Total:     monto,
	}
	reembolso := model.Reembolso{ID: uuid.New(), DevolucionID: dev.ID, Metodo: model.MetodoEfectivo, Monto: monto}
	if sesion != nil {
		reembolso.SesionCajaID = &sesion.ID
	}
	dev.Reembolsos = []model.Reembolso{reembolso}
	if err := s.repo.CreateDevolucionTx(ctx, tx, dev); err != nil {
		return err
	}
	if sesion == nil {
		return nil
	}
	_, err = s.caja.RegistrarMovimientoTx(ctx, tx, sesion, model.CajaReembolso, monto,
		"Reembolso por cancelación de venta "+ventaRef(v), &dev.ID)
	return err
}

// ── CrearDevolucion ───────────────────────────────────────────────────────────
// Partial or total return of a completed sale. Restocked units re-enter as
// devolucion_entrada; damaged ones re-enter and leave again as merma so the
// kardex shows both. The refund first cancels open balance (a nota_credito
// payment) and pays any remainder in cash.

func (s *ventaService) CrearDevolucion(ctx context.Context, usuarioID, ventaID uuid.UUID, req dto.DevolucionRequest) (*dto.DevolucionResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Invalid("La devolución debe incluir al menos una línea")
	}

	var resp *dto.DevolucionResponse
	err := withLock(ctx, s.locker, ventaLockKey(ventaID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			v, err := s.bloquearVentaTx(ctx, tx, ventaID)
			if err != nil {
				return err
			}
			if v.Flujo != model.FlujoCompletada {
				return apierror.InvalidState("Solo se pueden devolver ventas completadas (estado %s)", v.Flujo)
			}

			dev := &model.Devolucion{
				ID:        uuid.New(),
				VentaID:   v.ID,
				UsuarioID: usuarioID,
				Motivo:    req.Motivo,
			}
			lineas := make(map[uuid.UUID]*model.VentaItem, len(v.Items))
			for i := range v.Items {
				lineas[v.Items[i].ID] = &v.Items[i]
			}

			total, costo := decimal.Zero, decimal.Zero
			for _, r := range devolucionesPorProducto(req.Items, lineas) {
				if err := s.devolverLinea(ctx, tx, usuarioID, v, dev, lineas, r); err != nil {
					return err
				}
			}
			for _, it := range dev.Items {
				total = total.Add(it.Subtotal)
				costo = costo.Add(lineas[it.VentaItemID].CostoUnitario.Mul(qty(it.Cantidad)))
			}
			dev.Total = money(total)
			dev.CostoDevuelto = costo

			deudaReducida, efectivo := decimal.Zero, decimal.Zero
			var movCaja func() error
			if req.ReembolsarCliente {
				restante := dev.Total
				if v.Saldo.IsPositive() {
					deudaReducida = decimal.Min(restante, v.Saldo)
					if err := s.aplicarNotaCredito(ctx, tx, usuarioID, v, deudaReducida); err != nil {
						return err
					}
					dev.Reembolsos = append(dev.Reembolsos, model.Reembolso{
						ID: uuid.New(), DevolucionID: dev.ID, Metodo: model.MetodoCredito, Monto: deudaReducida,
					})
					restante = restante.Sub(deudaReducida)
				}
				if restante.IsPositive() {
					sesion, err := s.caja.SesionAbiertaTx(ctx, tx, usuarioID)
					if err != nil {
						return err
					}
					efectivo = restante
					dev.Reembolsos = append(dev.Reembolsos, model.Reembolso{
						ID: uuid.New(), DevolucionID: dev.ID, Metodo: model.MetodoEfectivo, Monto: efectivo, SesionCajaID: &sesion.ID,
					})
					movCaja = func() error {
						_, err := s.caja.RegistrarMovimientoTx(ctx, tx, sesion, model.CajaReembolso, efectivo,
							"Devolución de venta "+ventaRef(v), &dev.ID)
						return err
					}
				}
			}

			if err := s.repo.CreateDevolucionTx(ctx, tx, dev); err != nil {
				return err
			}
			if movCaja != nil {
				if err := movCaja(); err != nil {
					return err
				}
			}
			if err := s.repo.UpdateTx(ctx, tx, v); err != nil {
				return err
			}

			resp = &dto.DevolucionResponse{
				ID:               dev.ID.String(),
				VentaID:          v.ID.String(),
				Total:            dev.Total,
				DeudaReducida:    deudaReducida,
				EfectivoDevuelto: efectivo,
			}
			for _, it := range dev.Items {
				resp.Items = append(resp.Items, dto.DevolucionItemResponse{
					VentaItemID: it.VentaItemID.String(),
					ProductoID:  it.ProductoID.String(),
					Cantidad:    it.Cantidad,
					Subtotal:    it.Subtotal,
					Reingresa:   it.Reingresa,
				})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// devolucionesPorProducto orders the requested lines by product so ledger
// locks follow the same order as every other path. Unknown lines sort first
// and are rejected by devolverLinea.
func devolucionesPorProducto(items []dto.DevolucionItemRequest, lineas map[uuid.UUID]*model.VentaItem) []dto.DevolucionItemRequest {
	producto := func(r dto.DevolucionItemRequest) uuid.UUID {
		id, err := uuid.Parse(r.VentaItemID)
		if err != nil {
			return uuid.Nil
		}
		if l, ok := lineas[id]; ok {
			return l.ProductoID
		}
		return uuid.Nil
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b dto.DevolucionItemRequest) int {
		return compararProducto(producto(a), producto(b))
	})
	return out
}

func (s *ventaService) devolverLinea(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, v *model.Venta, dev *model.Devolucion, lineas map[uuid.UUID]*model.VentaItem, r dto.DevolucionItemRequest) error {
	itemID, err := uuid.Parse(r.VentaItemID)
	if err != nil {
		return apierror.Invalid("venta_item_id inválido: %s", r.VentaItemID)
	}
	line, ok := lineas[itemID]
	if !ok {
		return apierror.NotFound("La línea %s no pertenece a la venta", itemID)
	}
	if r.Cantidad <= 0 {
		return apierror.Invalid("La cantidad a devolver debe ser al menos 1")
	}
	if disponible := line.Cantidad - line.CantidadDevuelta; r.Cantidad > disponible {
		return apierror.Invalid("Solo quedan %d unidades por devolver en la línea %s", disponible, itemID)
	}

	motivo := "Devolución de venta " + ventaRef(v)
	in := MovimientoInput{
		ProductoID:   line.ProductoID,
		Tipo:         model.MovDevolucionEntrada,
		Cantidad:     r.Cantidad,
		Motivo:       motivo,
		ReferenciaID: &dev.ID,
		UsuarioID:    &usuarioID,
	}
	if _, err := s.inventario.RegistrarMovimientoTx(ctx, tx, in); err != nil {
		return err
	}
	if !r.Reingresa {
		in.Tipo = model.MovMerma
		in.Motivo = motivo + " (producto dañado)"
		if _, err := s.inventario.RegistrarMovimientoTx(ctx, tx, in); err != nil {
			return err
		}
	}

	line.CantidadDevuelta += r.Cantidad
	if err := s.repo.UpdateItemTx(ctx, tx, line); err != nil {
		return err
	}
	dev.Items = append(dev.Items, model.DevolucionItem{
		ID:             uuid.New(),
		DevolucionID:   dev.ID,
		VentaItemID:    line.ID,
		ProductoID:     line.ProductoID,
		Cantidad:       r.Cantidad,
		PrecioUnitario: line.PrecioUnitario,
		Subtotal:       money(line.PrecioUnitario.Mul(qty(r.Cantidad))),
		Reingresa:      r.Reingresa,
	})
	return nil
}

// aplicarNotaCredito settles part of the open balance with returned goods so
// Saldo = Total - Pagado keeps holding.
func (s *ventaService) aplicarNotaCredito(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, v *model.Venta, monto decimal.Decimal) error {
	pago := &model.VentaPago{
		ID:        uuid.New(),
		VentaID:   v.ID,
		Metodo:    model.MetodoNotaCredito,
		Monto:     monto,
		UsuarioID: usuarioID,
	}
	if err := s.repo.CreatePagoTx(ctx, tx, pago); err != nil {
		return err
	}
	v.Pagos = append(v.Pagos, *pago)
	v.Pagado = v.Pagado.Add(monto)
	v.Saldo = v.Total.Sub(v.Pagado)
	v.Estado = estadoPagoDe(v.Total, v.Pagado)
	if v.ClienteID != nil {
		return s.clientes.AjustarDeudaTx(ctx, tx, *v.ClienteID, monto.Neg())
	}
	return nil
}
