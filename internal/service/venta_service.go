package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/repository"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	AgregarItem(ctx context.Context, usuarioID, ventaID uuid.UUID, req dto.ItemVentaRequest) (*dto.VentaResponse, error)
	EliminarItem(ctx context.Context, usuarioID, ventaID, itemID uuid.UUID) (*dto.VentaResponse, error)
	Completar(ctx context.Context, usuarioID, ventaID uuid.UUID) (*dto.VentaResponse, error)
	RegistrarPago(ctx context.Context, usuarioID, ventaID uuid.UUID, req dto.PagoRequest) (*dto.VentaResponse, error)
	Cancelar(ctx context.Context, usuarioID, ventaID uuid.UUID, motivo string) (*dto.VentaResponse, error)
	CrearDevolucion(ctx context.Context, usuarioID, ventaID uuid.UUID, req dto.DevolucionRequest) (*dto.DevolucionResponse, error)

	Obtener(ctx context.Context, ventaID uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo       repository.VentaRepository
	productos  repository.ProductoRepository
	clientes   repository.ClienteRepository
	precios    repository.PrecioClienteRepository
	inventario InventarioService
	caja       SesionProvider
	locker     DocumentLocker
	jobs       JobDispatcher
}

func NewVentaService(
	repo repository.VentaRepository,
	productos repository.ProductoRepository,
	clientes repository.ClienteRepository,
	precios repository.PrecioClienteRepository,
	inventario InventarioService,
	caja SesionProvider,
	locker DocumentLocker,
	jobs JobDispatcher,
) VentaService {
	return &ventaService{
		repo:       repo,
		productos:  productos,
		clientes:   clientes,
		precios:    precios,
		inventario: inventario,
		caja:       caja,
		locker:     locker,
		jobs:       jobs,
	}
}

var metodosPago = map[string]bool{
	model.MetodoEfectivo:      true,
	model.MetodoTarjeta:       true,
	model.MetodoTransferencia: true,
}

func ventaLockKey(id uuid.UUID) string { return "venta:" + id.String() }

// recalcular re-aggregates the totals from the lines so rounding never drifts
// across edits.
func recalcular(v *model.Venta) {
	subtotal := decimal.Zero
	for _, it := range v.Items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	v.Subtotal = money(subtotal)
	v.Total = v.Subtotal
	v.Saldo = v.Total.Sub(v.Pagado)
	v.Estado = estadoPagoDe(v.Total, v.Pagado)
}

// precioPara resolves a line price: the client's active special price first,
// then the catalog price.
func (s *ventaService) precioPara(ctx context.Context, clienteID *uuid.UUID, p *model.Producto) (decimal.Decimal, error) {
	if clienteID != nil {
		pc, err := s.precios.Find(ctx, *clienteID, p.ID)
		if err != nil {
			return decimal.Zero, err
		}
		if pc != nil && pc.Activo {
			return pc.Precio, nil
		}
	}
	return p.PrecioVenta, nil
}

func (s *ventaService) productoVendible(ctx context.Context, raw string) (*model.Producto, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierror.Invalid("producto_id inválido: %s", raw)
	}
	p, err := s.productos.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Producto %s no encontrado", raw)
	}
	if !p.Activo {
		return nil, apierror.Invalid("El producto %s está inactivo y no puede venderse", p.Nombre)
	}
	return p, nil
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// A draft only records intent. Stock is untouched until Completar.

func (s *ventaService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Invalid("La venta debe tener al menos un producto")
	}

	var clienteID *uuid.UUID
	if req.ClienteID != nil {
		id, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, apierror.Invalid("cliente_id inválido")
		}
		cliente, err := s.clientes.FindByID(ctx, id)
		if err != nil {
			return nil, lookupErr(err, "Cliente %s no encontrado", id)
		}
		if !cliente.Activo {
			return nil, apierror.Invalid("El cliente %s está inactivo", cliente.Nombre)
		}
		clienteID = &id
	}

	venta := &model.Venta{
		ID:        uuid.New(),
		UsuarioID: usuarioID,
		ClienteID: clienteID,
		Flujo:     model.FlujoBorrador,
		Notas:     req.Notas,
	}

	// Repeated products collapse into one line.
	lineas := make(map[uuid.UUID]int, len(req.Items))
	for _, item := range req.Items {
		if item.Cantidad <= 0 {
			return nil, apierror.Invalid("La cantidad debe ser al menos 1")
		}
		p, err := s.productoVendible(ctx, item.ProductoID)
		if err != nil {
			return nil, err
		}
		if idx, ok := lineas[p.ID]; ok {
			line := &venta.Items[idx]
			line.Cantidad += item.Cantidad
			line.Subtotal = money(line.PrecioUnitario.Mul(qty(line.Cantidad)))
			continue
		}
		precio, err := s.precioPara(ctx, clienteID, p)
		if err != nil {
			return nil, err
		}
		lineas[p.ID] = len(venta.Items)
		venta.Items = append(venta.Items, model.VentaItem{
			ID:             uuid.New(),
			VentaID:        venta.ID,
			ProductoID:     p.ID,
			Cantidad:       item.Cantidad,
			PrecioUnitario: precio,
			Subtotal:       money(precio.Mul(qty(item.Cantidad))),
			Producto:       p,
		})
	}
	recalcular(venta)

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.CreateTx(ctx, tx, venta)
	})
	if err != nil {
		return nil, err
	}
	return ventaToResponse(venta), nil
}

// bloquearVentaTx locks the client row ahead of the venta, matching the
// order RegistrarAbono takes them, and sorts the lines by product.
func (s *ventaService) bloquearVentaTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.Venta, error) {
	clienteID, err := s.repo.ClienteIDTx(ctx, tx, ventaID)
	if err != nil {
		return nil, lookupErr(err, "Venta %s no encontrada", ventaID)
	}
	if clienteID != nil {
		if _, err := s.clientes.FindForUpdateTx(ctx, tx, *clienteID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	v, err := s.repo.FindForUpdateTx(ctx, tx, ventaID)
	if err != nil {
		return nil, lookupErr(err, "Venta %s no encontrada", ventaID)
	}
	ordenarVentaItems(v.Items)
	return v, nil
}

// ── AgregarItem / EliminarItem ────────────────────────────────────────────────

func (s *ventaService) borradorTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.Venta, error) {
	v, err := s.repo.FindForUpdateTx(ctx, tx, ventaID)
	if err != nil {
		return nil, lookupErr(err, "Venta %s no encontrada", ventaID)
	}
	if v.Flujo != model.FlujoBorrador {
		return nil, apierror.InvalidState("La venta ya no es editable (estado %s)", v.Flujo)
	}
	return v, nil
}

func (s *ventaService) AgregarItem(ctx context.Context, usuarioID, ventaID uuid.UUID, req dto.ItemVentaRequest) (*dto.VentaResponse, error) {
	if req.Cantidad <= 0 {
		return nil, apierror.Invalid("La cantidad debe ser al menos 1")
	}
	p, err := s.productoVendible(ctx, req.ProductoID)
	if err != nil {
		return nil, err
	}

	err = withLock(ctx, s.locker, ventaLockKey(ventaID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			v, err := s.borradorTx(ctx, tx, ventaID)
			if err != nil {
				return err
			}
			precio, err := s.precioPara(ctx, v.ClienteID, p)
			if err != nil {
				return err
			}

			merged := false
			for i := range v.Items {
				line := &v.Items[i]
				if line.ProductoID != p.ID {
					continue
				}
				line.Cantidad += req.Cantidad
				line.PrecioUnitario = precio
				line.Subtotal = money(precio.Mul(qty(line.Cantidad)))
				if err := s.repo.UpdateItemTx(ctx, tx, line); err != nil {
					return err
				}
				merged = true
				break
			}
			if !merged {
				line := model.VentaItem{
					ID:             uuid.New(),
					VentaID:        v.ID,
					ProductoID:     p.ID,
					Cantidad:       req.Cantidad,
					PrecioUnitario: precio,
					Subtotal:       money(precio.Mul(qty(req.Cantidad))),
				}
				if err := s.repo.CreateItemTx(ctx, tx, &line); err != nil {
					return err
				}
				v.Items = append(v.Items, line)
			}

			recalcular(v)
			return s.repo.UpdateTx(ctx, tx, v)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, ventaID)
}

func (s *ventaService) EliminarItem(ctx context.Context, usuarioID, ventaID, itemID uuid.UUID) (*dto.VentaResponse, error) {
	err := withLock(ctx, s.locker, ventaLockKey(ventaID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			v, err := s.borradorTx(ctx, tx, ventaID)
			if err != nil {
				return err
			}
			idx := -1
			for i := range v.Items {
				if v.Items[i].ID == itemID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return apierror.NotFound("La línea %s no pertenece a la venta", itemID)
			}
			v.Items = append(v.Items[:idx], v.Items[idx+1:]...)
			recalcular(v)
			if v.Saldo.IsNegative() {
				return apierror.InvalidState("El total quedaría por debajo de lo ya pagado (%s)", v.Pagado.StringFixed(2))
			}
			if err := s.repo.DeleteItemTx(ctx, tx, itemID); err != nil {
				return err
			}
			return s.repo.UpdateTx(ctx, tx, v)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, ventaID)
}

// ── Completar ─────────────────────────────────────────────────────────────────
// DRAFT → COMPLETED in one transaction:
//   1. credit check and debt increase when a balance remains
//   2. invoice number from the sequence
//   3. one ledger SALE movement per line, snapshotting unit cost
//   4. client special prices follow the prices just charged
// After commit the invoice PDF and low-stock alerts are enqueued.

func (s *ventaService) Completar(ctx context.Context, usuarioID, ventaID uuid.UUID) (*dto.VentaResponse, error) {
	var bajoMinimo []model.Producto

	err := withLock(ctx, s.locker, ventaLockKey(ventaID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			bajoMinimo = nil
			v, err := s.bloquearVentaTx(ctx, tx, ventaID)
			if err != nil {
				return err
			}
			if v.Flujo != model.FlujoBorrador {
				return apierror.InvalidState("Solo se pueden completar ventas en borrador (estado %s)", v.Flujo)
			}
			if len(v.Items) == 0 {
				return apierror.InvalidState("La venta no tiene productos")
			}

			if v.Saldo.IsPositive() {
				if err := s.cargarACredito(ctx, tx, v); err != nil {
					return err
				}
			}

			num, err := s.repo.NextNumeroFactura(ctx, tx)
			if err != nil {
				return fmt.Errorf("venta: numero de factura: %w", err)
			}
			numero := fmt.Sprintf("F-%08d", num)
			v.NumeroFactura = &numero

			costoTotal := decimal.Zero
			for i := range v.Items {
				line := &v.Items[i]
				mov, err := s.inventario.RegistrarMovimientoTx(ctx, tx, MovimientoInput{
					ProductoID:   line.ProductoID,
					Tipo:         model.MovVenta,
					Cantidad:     line.Cantidad,
					Motivo:       "Venta " + numero,
					ReferenciaID: &v.ID,
					UsuarioID:    &usuarioID,
				})
				if err != nil {
					return err
				}
				line.CostoUnitario = mov.CostoUnitario
				if err := s.repo.UpdateItemTx(ctx, tx, line); err != nil {
					return err
				}
				costoTotal = costoTotal.Add(mov.CostoTotal)
				if p := mov.Producto; p != nil && p.StockActual <= p.StockMinimo {
					bajoMinimo = append(bajoMinimo, *p)
				}
			}

			now := time.Now()
			v.CostoTotal = costoTotal
			v.Ganancia = v.Total.Sub(costoTotal)
			v.Flujo = model.FlujoCompletada
			v.CompletadaAt = &now
			if err := s.repo.UpdateTx(ctx, tx, v); err != nil {
				return err
			}

			if v.ClienteID != nil {
				return s.actualizarPreciosCliente(ctx, tx, usuarioID, v, now)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.despacharPostVenta(ctx, ventaID, bajoMinimo)
	return s.Obtener(ctx, ventaID)
}

// cargarACredito moves the outstanding balance onto the client's account.
func (s *ventaService) cargarACredito(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	if v.ClienteID == nil {
		return apierror.Invalid("Una venta con saldo pendiente (%s) requiere un cliente con crédito", v.Saldo.StringFixed(2))
	}
	cliente, err := s.clientes.FindForUpdateTx(ctx, tx, *v.ClienteID)
	if err != nil {
		return lookupErr(err, "Cliente %s no encontrado", *v.ClienteID)
	}
	if !cliente.TieneCredito {
		return apierror.Insufficient("El cliente %s no tiene crédito autorizado", cliente.Nombre)
	}
	if cliente.DeudaActual.Add(v.Saldo).GreaterThan(cliente.LimiteCredito) {
		return apierror.Insufficient("Límite de crédito excedido. Disponible %s, requerido %s",
			cliente.CreditoDisponible().StringFixed(2), v.Saldo.StringFixed(2))
	}
	return s.clientes.AjustarDeudaTx(ctx, tx, cliente.ID, v.Saldo)
}

// actualizarPreciosCliente records the price each line was charged as the
// client's special price, closing the previous history interval when it
// changes.
func (s *ventaService) actualizarPreciosCliente(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, v *model.Venta, now time.Time) error {
	clienteID := *v.ClienteID
	for _, line := range v.Items {
		actual, err := s.precios.Find(ctx, clienteID, line.ProductoID)
		if err != nil {
			return err
		}
		if actual != nil && actual.Activo && actual.Precio.Equal(line.PrecioUnitario) {
			continue
		}
		if err := s.precios.UpsertTx(ctx, tx, &model.PrecioCliente{
			ClienteID:  clienteID,
			ProductoID: line.ProductoID,
			Precio:     line.PrecioUnitario,
			Activo:     true,
		}); err != nil {
			return err
		}
		if err := s.precios.CerrarHistorialTx(ctx, tx, clienteID, line.ProductoID, now); err != nil {
			return err
		}
		if err := s.precios.CreateHistorialTx(ctx, tx, &model.HistorialPrecioCliente{
			ClienteID:  clienteID,
			ProductoID: line.ProductoID,
			Precio:     line.PrecioUnitario,
			VentaID:    &v.ID,
			UsuarioID:  usuarioID,
			Desde:      now,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *ventaService) despacharPostVenta(ctx context.Context, ventaID uuid.UUID, bajoMinimo []model.Producto) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.EnqueueComprobante(ctx, worker.ComprobantePayload{VentaID: ventaID.String()}); err != nil {
		log.Error().Err(err).Str("venta_id", ventaID.String()).Msg("venta: no se pudo encolar el comprobante")
	}
	for _, p := range bajoMinimo {
		err := s.jobs.EnqueueNotificacion(ctx, worker.NotificacionPayload{
			Tipo:    worker.NotifStockBajo,
			Asunto:  "Stock bajo: " + p.Nombre,
			Mensaje: fmt.Sprintf("%s quedó con %d unidades (mínimo %d).", p.Nombre, p.StockActual, p.StockMinimo),
		})
		if err != nil {
			log.Error().Err(err).Str("producto_id", p.ID.String()).Msg("venta: no se pudo encolar la alerta de stock")
		}
	}
}

// ── RegistrarPago ─────────────────────────────────────────────────────────────

func (s *ventaService) RegistrarPago(ctx context.Context, usuarioID, ventaID uuid.UUID, req dto.PagoRequest) (*dto.VentaResponse, error) {
	if !metodosPago[req.Metodo] {
		return nil, apierror.Invalid("Método de pago inválido: %s", req.Metodo)
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.Invalid("El monto debe ser mayor a cero")
	}
	monto := money(req.Monto)

	err := withLock(ctx, s.locker, ventaLockKey(ventaID), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			v, err := s.bloquearVentaTx(ctx, tx, ventaID)
			if err != nil {
				return err
			}
			if v.Flujo == model.FlujoCancelada {
				return apierror.InvalidState("La venta está cancelada")
			}
			if !v.Saldo.IsPositive() {
				return apierror.InvalidState("La venta ya está pagada")
			}
			if monto.GreaterThan(v.Saldo) {
				return apierror.Insufficient("El pago excede el saldo pendiente (%s)", v.Saldo.StringFixed(2))
			}

			pago := &model.VentaPago{
				ID:        uuid.New(),
				VentaID:   v.ID,
				Metodo:    req.Metodo,
				Monto:     monto,
				UsuarioID: usuarioID,
			}
			if req.Metodo == model.MetodoEfectivo {
				sesion, err := s.caja.SesionAbiertaTx(ctx, tx, usuarioID)
				if err != nil {
					return err
				}
				pago.SesionCajaID = &sesion.ID
				if _, err := s.caja.RegistrarMovimientoTx(ctx, tx, sesion, model.CajaVenta, monto,
					"Pago de venta "+ventaRef(v), &v.ID); err != nil {
					return err
				}
			}
			if err := s.repo.CreatePagoTx(ctx, tx, pago); err != nil {
				return err
			}

			v.Pagado = v.Pagado.Add(monto)
			v.Saldo = v.Total.Sub(v.Pagado)
			v.Estado = estadoPagoDe(v.Total, v.Pagado)
			if err := s.repo.UpdateTx(ctx, tx, v); err != nil {
				return err
			}

			// A completed sale with balance was charged to the client's account.
			if v.Flujo == model.FlujoCompletada && v.ClienteID != nil {
				return s.clientes.AjustarDeudaTx(ctx, tx, *v.ClienteID, monto.Neg())
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, ventaID)
}

func ventaRef(v *model.Venta) string {
	if v.NumeroFactura != nil {
		return *v.NumeroFactura
	}
	return v.ID.String()
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *ventaService) Obtener(ctx context.Context, ventaID uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, ventaID)
	if err != nil {
		return nil, lookupErr(err, "Venta %s no encontrada", ventaID)
	}
	return ventaToResponse(v), nil
}

func (s *ventaService) Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	filter.Page, filter.Limit = dto.Page(filter.Page, filter.Limit, 50, 200)
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
