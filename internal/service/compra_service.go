package service

import (
	"context"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CompraService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearCompraRequest) (*dto.CompraResponse, error)
	Actualizar(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.ActualizarCompraRequest) (*dto.CompraResponse, error)
	AgregarItem(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.ItemCompraRequest) (*dto.CompraResponse, error)
	ActualizarItem(ctx context.Context, usuarioID, compraID, itemID uuid.UUID, req dto.ActualizarItemCompraRequest) (*dto.CompraResponse, error)
	EliminarItem(ctx context.Context, usuarioID, compraID, itemID uuid.UUID) (*dto.CompraResponse, error)
	Recibir(ctx context.Context, usuarioID, compraID uuid.UUID) (*dto.CompraResponse, error)
	RegistrarPago(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.PagoRequest) (*dto.CompraResponse, error)
	EliminarPago(ctx context.Context, usuarioID, compraID, pagoID uuid.UUID) (*dto.CompraResponse, error)
	Cancelar(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.CancelarCompraRequest) (*dto.CompraResponse, error)

	Obtener(ctx context.Context, compraID uuid.UUID) (*dto.CompraResponse, error)
	Listar(ctx context.Context, filter dto.CompraFilter) (*dto.CompraListResponse, error)
	// HistorialCostos lists the cost changes receipts applied to a product.
	HistorialCostos(ctx context.Context, productoID uuid.UUID, filter dto.HistorialCostoFilter) (*dto.HistorialCostoListResponse, error)
}

type compraService struct {
	repo        repository.CompraRepository
	proveedores repository.ProveedorRepository
	productos   repository.ProductoRepository
	historial   repository.HistorialPrecioRepository
	inventario  InventarioService
	caja        SesionProvider
	locker      DocumentLocker
}

func NewCompraService(
	repo repository.CompraRepository,
	proveedores repository.ProveedorRepository,
	productos repository.ProductoRepository,
	historial repository.HistorialPrecioRepository,
	inventario InventarioService,
	caja SesionProvider,
	locker DocumentLocker,
) CompraService {
	return &compraService{
		repo:        repo,
		proveedores: proveedores,
		productos:   productos,
		historial:   historial,
		inventario:  inventario,
		caja:        caja,
		locker:      locker,
	}
}

func compraLockKey(id uuid.UUID) string { return "compra:" + id.String() }

func recalcularCompra(c *model.Compra) {
	subtotal := decimal.Zero
	for _, it := range c.Items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	c.Subtotal = money(subtotal)
	c.Total = c.Subtotal
	c.Saldo = c.Total.Sub(c.Pagado)
	c.Estado = estadoPagoDe(c.Total, c.Pagado)
}

func compraRef(c *model.Compra) string {
	if c.NumeroFactura != nil && *c.NumeroFactura != "" {
		return *c.NumeroFactura
	}
	return c.ID.String()
}

func (s *compraService) proveedorActivo(ctx context.Context, raw string) (*model.Proveedor, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierror.Invalid("proveedor_id inválido")
	}
	p, err := s.proveedores.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Proveedor %s no encontrado", raw)
	}
	if !p.Activo {
		return nil, apierror.Invalid("El proveedor %s está inactivo", p.RazonSocial)
	}
	return p, nil
}

func (s *compraService) nuevaLinea(ctx context.Context, compraID uuid.UUID, req dto.ItemCompraRequest) (*model.CompraItem, error) {
	if req.Cantidad <= 0 {
		return nil, apierror.Invalid("La cantidad debe ser al menos 1")
	}
	if req.CostoUnitario.IsNegative() {
		return nil, apierror.Invalid("El costo unitario no puede ser negativo")
	}
	pid, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apierror.Invalid("producto_id inválido: %s", req.ProductoID)
	}
	p, err := s.productos.FindByID(ctx, pid)
	if err != nil {
		return nil, lookupErr(err, "Producto %s no encontrado", req.ProductoID)
	}
	return &model.CompraItem{
		ID:            uuid.New(),
		CompraID:      compraID,
		ProductoID:    p.ID,
		Cantidad:      req.Cantidad,
		CostoUnitario: req.CostoUnitario,
		Subtotal:      money(req.CostoUnitario.Mul(qty(req.Cantidad))),
		Producto:      p,
	}, nil
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *compraService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearCompraRequest) (*dto.CompraResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Invalid("La compra debe tener al menos un producto")
	}
	prov, err := s.proveedorActivo(ctx, req.ProveedorID)
	if err != nil {
		return nil, err
	}

	compra := &model.Compra{
		ID:            uuid.New(),
		ProveedorID:   prov.ID,
		UsuarioID:     usuarioID,
		NumeroFactura: req.NumeroFactura,
		Entrega:       model.EntregaPendiente,
		Notas:         req.Notas,
	}
	for _, it := range req.Items {
		line, err := s.nuevaLinea(ctx, compra.ID, it)
		if err != nil {
			return nil, err
		}
		compra.Items = append(compra.Items, *line)
	}
	recalcularCompra(compra)

	pagos := decimal.Zero
	for _, p := range req.Pagos {
		if !metodosPago[p.Metodo] {
			return nil, apierror.Invalid("Método de pago inválido: %s", p.Metodo)
		}
		if !p.Monto.IsPositive() {
			return nil, apierror.Invalid("El monto de cada pago debe ser mayor a cero")
		}
		pagos = pagos.Add(money(p.Monto))
	}
	if pagos.GreaterThan(compra.Total) {
		return nil, apierror.Insufficient("Los pagos (%s) exceden el total de la compra (%s)",
			pagos.StringFixed(2), compra.Total.StringFixed(2))
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(ctx, tx, compra); err != nil {
			return err
		}
		for _, p := range req.Pagos {
			if err := s.pagarTx(ctx, tx, usuarioID, compra, p.Metodo, money(p.Monto)); err != nil {
				return err
			}
		}
		if len(req.Pagos) == 0 {
			return nil
		}
		return s.repo.UpdateTx(ctx, tx, compra)
	})
	if err != nil {
		return nil, err
	}
	return compraToResponse(compra), nil
}

// pagarTx records one payment and moves the supplier balance when the goods
// were already received. The caller persists the header.
func (s *compraService) pagarTx(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, c *model.Compra, metodo string, monto decimal.Decimal) error {
	pago := &model.CompraPago{
		ID:        uuid.New(),
		CompraID:  c.ID,
		Metodo:    metodo,
		Monto:     monto,
		UsuarioID: usuarioID,
	}
	if metodo == model.MetodoEfectivo {
		sesion, err := s.caja.SesionAbiertaTx(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		pago.SesionCajaID = &sesion.ID
		if _, err := s.caja.RegistrarMovimientoTx(ctx, tx, sesion, model.CajaPagoCompra, monto,
			"Pago de compra "+compraRef(c), &c.ID); err != nil {
			return err
		}
	}
	if err := s.repo.CreatePagoTx(ctx, tx, pago); err != nil {
		return err
	}
	c.Pagos = append(c.Pagos, *pago)
	c.Pagado = c.Pagado.Add(monto)
	c.Saldo = c.Total.Sub(c.Pagado)
	c.Estado = estadoPagoDe(c.Total, c.Pagado)

	if c.Entrega == model.EntregaRecibida {
		_, err := s.proveedores.AjustarSaldoTx(ctx, tx, c.ProveedorID, monto.Neg())
		return err
	}
	return nil
}

// ── Edits while pending delivery ──────────────────────────────────────────────

func (s *compraService) pendienteTx(ctx context.Context, tx *gorm.DB, compraID uuid.UUID) (*model.Compra, error) {
	c, err := s.repo.FindForUpdateTx(ctx, tx, compraID)
	if err != nil {
		return nil, lookupErr(err, "Compra %s no encontrada", compraID)
	}
	if c.Entrega != model.EntregaPendiente {
		return nil, apierror.InvalidState("La compra ya no es editable (entrega %s)", c.Entrega)
	}
	return c, nil
}

// editar runs fn on the locked pending purchase, re-aggregates totals and
// saves the header. Totals may not drop below what was already paid.
func (s *compraService) editar(ctx context.Context, compraID uuid.UUID, fn func(tx *gorm.DB, c *model.Compra) error) (*dto.CompraResponse, error) {
	err := withLock(ctx, s.locker, compraLockKey(compraID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.pendienteTx(ctx, tx, compraID)
			if err != nil {
				return err
			}
			if err := fn(tx, c); err != nil {
				return err
			}
			recalcularCompra(c)
			if c.Saldo.IsNegative() {
				return apierror.InvalidState("El total quedaría por debajo de lo ya pagado (%s)", c.Pagado.StringFixed(2))
			}
			return s.repo.UpdateTx(ctx, tx, c)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, compraID)
}

func (s *compraService) Actualizar(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.ActualizarCompraRequest) (*dto.CompraResponse, error) {
	var prov *model.Proveedor
	if req.ProveedorID != nil {
		var err error
		if prov, err = s.proveedorActivo(ctx, *req.ProveedorID); err != nil {
			return nil, err
		}
	}
	return s.editar(ctx, compraID, func(tx *gorm.DB, c *model.Compra) error {
		if prov != nil {
			c.ProveedorID = prov.ID
		}
		if req.NumeroFactura != nil {
			c.NumeroFactura = req.NumeroFactura
		}
		return nil
	})
}

func (s *compraService) AgregarItem(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.ItemCompraRequest) (*dto.CompraResponse, error) {
	line, err := s.nuevaLinea(ctx, compraID, req)
	if err != nil {
		return nil, err
	}
	return s.editar(ctx, compraID, func(tx *gorm.DB, c *model.Compra) error {
		if err := s.repo.CreateItemTx(ctx, tx, line); err != nil {
			return err
		}
		c.Items = append(c.Items, *line)
		return nil
	})
}

func (s *compraService) ActualizarItem(ctx context.Context, usuarioID, compraID, itemID uuid.UUID, req dto.ActualizarItemCompraRequest) (*dto.CompraResponse, error) {
	if req.Cantidad != nil && *req.Cantidad <= 0 {
		return nil, apierror.Invalid("La cantidad debe ser al menos 1")
	}
	if req.CostoUnitario != nil && req.CostoUnitario.IsNegative() {
		return nil, apierror.Invalid("El costo unitario no puede ser negativo")
	}
	return s.editar(ctx, compraID, func(tx *gorm.DB, c *model.Compra) error {
		for i := range c.Items {
			line := &c.Items[i]
			if line.ID != itemID {
				continue
			}
			if req.Cantidad != nil {
				line.Cantidad = *req.Cantidad
			}
			if req.CostoUnitario != nil {
				line.CostoUnitario = *req.CostoUnitario
			}
			line.Subtotal = money(line.CostoUnitario.Mul(qty(line.Cantidad)))
			return s.repo.UpdateItemTx(ctx, tx, line)
		}
		return apierror.NotFound("La línea %s no pertenece a la compra", itemID)
	})
}

func (s *compraService) EliminarItem(ctx context.Context, usuarioID, compraID, itemID uuid.UUID) (*dto.CompraResponse, error) {
	return s.editar(ctx, compraID, func(tx *gorm.DB, c *model.Compra) error {
		for i := range c.Items {
			if c.Items[i].ID != itemID {
				continue
			}
			if len(c.Items) == 1 {
				return apierror.InvalidState("La compra debe conservar al menos un producto")
			}
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return s.repo.DeleteItemTx(ctx, tx, itemID)
		}
		return apierror.NotFound("La línea %s no pertenece a la compra", itemID)
	})
}

// ── Recibir ───────────────────────────────────────────────────────────────────
// One-way. Each line re-averages the product cost and enters stock through
// the ledger; the outstanding balance becomes supplier debt only now.

func (s *compraService) Recibir(ctx context.Context, usuarioID, compraID uuid.UUID) (*dto.CompraResponse, error) {
	var saldoProveedor *decimal.Decimal

	err := withLock(ctx, s.locker, compraLockKey(compraID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.repo.FindForUpdateTx(ctx, tx, compraID)
			if err != nil {
				return lookupErr(err, "Compra %s no encontrada", compraID)
			}
			switch c.Entrega {
			case model.EntregaRecibida:
				return apierror.InvalidState("La compra ya fue recibida")
			case model.EntregaCancelada:
				return apierror.InvalidState("La compra está cancelada")
			}

			ordenarCompraItems(c.Items)
			for i := range c.Items {
				line := &c.Items[i]
				costo := line.CostoUnitario
				res, err := s.inventario.RegistrarEntradaConCostoTx(ctx, tx, MovimientoInput{
					ProductoID:    line.ProductoID,
					Tipo:          model.MovCompra,
					Cantidad:      line.Cantidad,
					Motivo:        "Recepción de compra " + compraRef(c),
					ReferenciaID:  &c.ID,
					UsuarioID:     &usuarioID,
					CostoUnitario: &costo,
				})
				if err != nil {
					return err
				}
				if res.CostoAnterior.Equal(res.CostoNuevo) {
					continue
				}
				if err := s.historial.CreateTx(ctx, tx, &model.HistorialPrecio{
					ProductoID:   line.ProductoID,
					ProveedorID:  &c.ProveedorID,
					CompraID:     &c.ID,
					CostoAntes:   res.CostoAnterior,
					CostoDespues: res.CostoNuevo,
					Motivo:       "recepcion_compra",
				}); err != nil {
					return err
				}
			}

			if c.Saldo.IsPositive() {
				saldo, err := s.proveedores.AjustarSaldoTx(ctx, tx, c.ProveedorID, c.Saldo)
				if err != nil {
					return err
				}
				saldoProveedor = &saldo
			}

			now := time.Now()
			c.Entrega = model.EntregaRecibida
			c.RecibidaAt = &now
			return s.repo.UpdateTx(ctx, tx, c)
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("compra_id", compraID.String()).Msg("compra: recibida")

	resp, err := s.Obtener(ctx, compraID)
	if err != nil {
		return nil, err
	}
	resp.SaldoProveedor = saldoProveedor
	return resp, nil
}

// ── Pagos ─────────────────────────────────────────────────────────────────────

func (s *compraService) RegistrarPago(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.PagoRequest) (*dto.CompraResponse, error) {
	if !metodosPago[req.Metodo] {
		return nil, apierror.Invalid("Método de pago inválido: %s", req.Metodo)
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.Invalid("El monto debe ser mayor a cero")
	}
	monto := money(req.Monto)

	err := withLock(ctx, s.locker, compraLockKey(compraID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.repo.FindForUpdateTx(ctx, tx, compraID)
			if err != nil {
				return lookupErr(err, "Compra %s no encontrada", compraID)
			}
			if c.Estado == model.PagoCancelada {
				return apierror.InvalidState("La compra está cancelada")
			}
			if !c.Saldo.IsPositive() {
				return apierror.InvalidState("La compra ya está pagada")
			}
			if monto.GreaterThan(c.Saldo) {
				return apierror.Insufficient("El pago excede el saldo pendiente (%s)", c.Saldo.StringFixed(2))
			}
			if err := s.pagarTx(ctx, tx, usuarioID, c, req.Metodo, monto); err != nil {
				return err
			}
			return s.repo.UpdateTx(ctx, tx, c)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, compraID)
}

// EliminarPago reverses a payment. A cash payment returns to the drawer of
// whoever removes it, as a reintegro_proveedor movement.
func (s *compraService) EliminarPago(ctx context.Context, usuarioID, compraID, pagoID uuid.UUID) (*dto.CompraResponse, error) {
	err := withLock(ctx, s.locker, compraLockKey(compraID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.repo.FindForUpdateTx(ctx, tx, compraID)
			if err != nil {
				return lookupErr(err, "Compra %s no encontrada", compraID)
			}
			if c.Estado == model.PagoCancelada {
				return apierror.InvalidState("La compra está cancelada")
			}
			idx := -1
			for i := range c.Pagos {
				if c.Pagos[i].ID == pagoID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return apierror.NotFound("Pago %s no encontrado en la compra", pagoID)
			}
			pago := c.Pagos[idx]

			if pago.SesionCajaID != nil {
				sesion, err := s.caja.SesionAbiertaTx(ctx, tx, usuarioID)
				if err != nil {
					return err
				}
				if _, err := s.caja.RegistrarMovimientoTx(ctx, tx, sesion, model.CajaReintegroProveedor, pago.Monto,
					"Anulación de pago de compra "+compraRef(c), &c.ID); err != nil {
					return err
				}
			}
			if err := s.repo.DeletePagoTx(ctx, tx, pagoID); err != nil {
				return err
			}
			c.Pagos = append(c.Pagos[:idx], c.Pagos[idx+1:]...)
			c.Pagado = c.Pagado.Sub(pago.Monto)
			c.Saldo = c.Total.Sub(c.Pagado)
			c.Estado = estadoPagoDe(c.Total, c.Pagado)

			if c.Entrega == model.EntregaRecibida {
				if _, err := s.proveedores.AjustarSaldoTx(ctx, tx, c.ProveedorID, pago.Monto); err != nil {
					return err
				}
			}
			return s.repo.UpdateTx(ctx, tx, c)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, compraID)
}

// ── Cancelar ──────────────────────────────────────────────────────────────────
// Received goods go back out through the ledger and the outstanding balance
// leaves the supplier account. What was already paid either comes back as
// cash or stays with the supplier as a credit note (negative saldo).

func (s *compraService) Cancelar(ctx context.Context, usuarioID, compraID uuid.UUID, req dto.CancelarCompraRequest) (*dto.CompraResponse, error) {
	var saldoProveedor *decimal.Decimal

	err := withLock(ctx, s.locker, compraLockKey(compraID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.repo.FindForUpdateTx(ctx, tx, compraID)
			if err != nil {
				return lookupErr(err, "Compra %s no encontrada", compraID)
			}
			if c.Entrega == model.EntregaCancelada || c.Estado == model.PagoCancelada {
				return apierror.InvalidState("La compra ya está cancelada")
			}

			ajustar := func(delta decimal.Decimal) error {
				saldo, err := s.proveedores.AjustarSaldoTx(ctx, tx, c.ProveedorID, delta)
				if err != nil {
					return err
				}
				saldoProveedor = &saldo
				return nil
			}

			if c.Entrega == model.EntregaRecibida {
				ordenarCompraItems(c.Items)
				for _, line := range c.Items {
					if _, err := s.inventario.RegistrarMovimientoTx(ctx, tx, MovimientoInput{
						ProductoID:   line.ProductoID,
						Tipo:         model.MovDevolucionSalida,
						Cantidad:     line.Cantidad,
						Motivo:       "Cancelación de compra " + compraRef(c),
						ReferenciaID: &c.ID,
						UsuarioID:    &usuarioID,
					}); err != nil {
						return err
					}
				}
				if c.Saldo.IsPositive() {
					if err := ajustar(c.Saldo.Neg()); err != nil {
						return err
					}
				}
			}

			if c.Pagado.IsPositive() {
				if req.DevolverEfectivo {
					sesion, err := s.caja.SesionAbiertaTx(ctx, tx, usuarioID)
					if err != nil {
						return err
					}
					if _, err := s.caja.RegistrarMovimientoTx(ctx, tx, sesion, model.CajaReintegroProveedor, c.Pagado,
						"Reintegro por cancelación de compra "+compraRef(c), &c.ID); err != nil {
						return err
					}
				} else if err := ajustar(c.Pagado.Neg()); err != nil {
					return err
				}
			}

			now := time.Now()
			c.Estado = model.PagoCancelada
			c.Entrega = model.EntregaCancelada
			c.Saldo = decimal.Zero
			c.CanceladaAt = &now
			nota := "Cancelada: " + req.Motivo
			c.Notas = appendNota(c.Notas, &nota)
			return s.repo.UpdateTx(ctx, tx, c)
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("compra_id", compraID.String()).Bool("devolver_efectivo", req.DevolverEfectivo).Msg("compra: cancelada")

	resp, err := s.Obtener(ctx, compraID)
	if err != nil {
		return nil, err
	}
	resp.SaldoProveedor = saldoProveedor
	return resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *compraService) Obtener(ctx context.Context, compraID uuid.UUID) (*dto.CompraResponse, error) {
	c, err := s.repo.FindByID(ctx, compraID)
	if err != nil {
		return nil, lookupErr(err, "Compra %s no encontrada", compraID)
	}
	return compraToResponse(c), nil
}

func (s *compraService) Listar(ctx context.Context, filter dto.CompraFilter) (*dto.CompraListResponse, error) {
	filter.Page, filter.Limit = dto.Page(filter.Page, filter.Limit, 50, 200)
	compras, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CompraResponse, 0, len(compras))
	for i := range compras {
		data = append(data, *compraToResponse(&compras[i]))
	}
	return &dto.CompraListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *compraService) HistorialCostos(ctx context.Context, productoID uuid.UUID, filter dto.HistorialCostoFilter) (*dto.HistorialCostoListResponse, error) {
	if _, err := s.productos.FindByID(ctx, productoID); err != nil {
		return nil, lookupErr(err, "Producto %s no encontrado", productoID)
	}
	filter.Page, filter.Limit = dto.Page(filter.Page, filter.Limit, 50, 200)
	rows, total, err := s.historial.ListByProducto(ctx, productoID, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.HistorialCostoResponse, 0, len(rows))
	for i := range rows {
		data = append(data, historialCostoToResponse(&rows[i]))
	}
	return &dto.HistorialCostoListResponse{
		ProductoID: productoID.String(),
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}
