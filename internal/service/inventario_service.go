package service

import (
	"context"
	"fmt"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/infra"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovimientoInput is one ledger request. Cantidad is a magnitude; the sign
// comes from Tipo.
type MovimientoInput struct {
	ProductoID   uuid.UUID
	Tipo         model.TipoMovimiento
	Cantidad     int
	Motivo       string
	ReferenciaID *uuid.UUID
	UsuarioID    *uuid.UUID
	// CostoUnitario overrides the product's current cost (incoming goods).
	CostoUnitario *decimal.Decimal
}

// EntradaConCosto is the result of a costed entry (purchase receipt).
type EntradaConCosto struct {
	Movimiento    *model.MovimientoStock
	CostoAnterior decimal.Decimal
	CostoNuevo    decimal.Decimal
}

// InventarioService is the single choke point for stock changes.
type InventarioService interface {
	// RegistrarMovimientoTx runs inside the caller's transaction. The returned
	// movement carries the locked Producto with its updated stock.
	RegistrarMovimientoTx(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*model.MovimientoStock, error)
	// RegistrarEntradaConCostoTx recomputes the weighted-average cost and
	// then records the entry.
	RegistrarEntradaConCostoTx(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*EntradaConCosto, error)

	RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoStockResponse, error)
	RegistrarAjuste(ctx context.Context, usuarioID uuid.UUID, req dto.AjusteRequest) (*dto.MovimientoStockResponse, error)

	Kardex(ctx context.Context, productoID uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error)
	ExportarKardex(ctx context.Context, productoID uuid.UUID, limit int) ([]byte, error)
	Valorizacion(ctx context.Context) (*dto.ValorizacionResponse, error)
	AlertasStockBajo(ctx context.Context) ([]dto.AlertaStockResponse, error)
}

type inventarioService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	kardexLimit int
}

func NewInventarioService(productos repository.ProductoRepository, movimientos repository.MovimientoStockRepository, kardexLimit int) InventarioService {
	if kardexLimit < 1 {
		kardexLimit = 50
	}
	return &inventarioService{productos: productos, movimientos: movimientos, kardexLimit: kardexLimit}
}

// CostoPromedioPonderado blends the current cost with an incoming lot:
// (stock*costo + cantidad*costoEntrada) / (stock+cantidad).
// When the resulting quantity is not positive the incoming cost wins.
func CostoPromedioPonderado(stock int, costo decimal.Decimal, cantidad int, costoEntrada decimal.Decimal) decimal.Decimal {
	total := stock + cantidad
	if total <= 0 || stock <= 0 {
		return costoEntrada
	}
	valor := qty(stock).Mul(costo).Add(qty(cantidad).Mul(costoEntrada))
	return valor.Div(qty(total)).Round(4)
}

func stockInsuficiente(p *model.Producto, actual, solicitado int) error {
	return apierror.Insufficient("Stock insuficiente. Producto %s, actual %d, solicitado %d", p.Nombre, actual, solicitado)
}

// ── Ledger ────────────────────────────────────────────────────────────────────

func (s *inventarioService) RegistrarMovimientoTx(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*model.MovimientoStock, error) {
	signo, err := validarMovimiento(in)
	if err != nil {
		return nil, err
	}
	p, err := s.productos.FindForUpdateTx(ctx, tx, in.ProductoID)
	if err != nil {
		return nil, lookupErr(err, "Producto %s no encontrado", in.ProductoID)
	}
	return s.aplicar(ctx, tx, p, signo, in)
}

func (s *inventarioService) RegistrarEntradaConCostoTx(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*EntradaConCosto, error) {
	signo, err := validarMovimiento(in)
	if err != nil {
		return nil, err
	}
	if signo < 0 || in.CostoUnitario == nil {
		return nil, fmt.Errorf("inventario: entrada con costo requiere tipo de entrada y costo (tipo=%s)", in.Tipo)
	}
	p, err := s.productos.FindForUpdateTx(ctx, tx, in.ProductoID)
	if err != nil {
		return nil, lookupErr(err, "Producto %s no encontrado", in.ProductoID)
	}

	anterior := p.PrecioCosto
	nuevo := CostoPromedioPonderado(p.StockActual, p.PrecioCosto, in.Cantidad, *in.CostoUnitario)
	if !nuevo.Equal(anterior) {
		if err := s.productos.ActualizarCostoTx(ctx, tx, p.ID, nuevo); err != nil {
			return nil, err
		}
		p.PrecioCosto = nuevo
	}

	mov, err := s.aplicar(ctx, tx, p, signo, in)
	if err != nil {
		return nil, err
	}
	return &EntradaConCosto{Movimiento: mov, CostoAnterior: anterior, CostoNuevo: nuevo}, nil
}

func validarMovimiento(in MovimientoInput) (int, error) {
	if in.Cantidad <= 0 {
		return 0, apierror.Invalid("La cantidad debe ser al menos 1")
	}
	signo, ok := in.Tipo.Signo()
	if !ok {
		return 0, apierror.Invalid("Tipo de movimiento inválido: %s", in.Tipo)
	}
	return signo, nil
}

// aplicar checks the non-negative invariant against the locked row, then
// applies the delta with a guarded UPDATE so a concurrent writer that read
// the same stock cannot oversell.
func (s *inventarioService) aplicar(ctx context.Context, tx *gorm.DB, p *model.Producto, signo int, in MovimientoInput) (*model.MovimientoStock, error) {
	delta := signo * in.Cantidad
	anterior := p.StockActual
	if anterior+delta < 0 {
		return nil, stockInsuficiente(p, anterior, in.Cantidad)
	}

	applied, err := s.productos.AplicarDeltaStockTx(ctx, tx, p.ID, delta)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, stockInsuficiente(p, anterior, in.Cantidad)
	}

	costo := p.PrecioCosto
	if in.CostoUnitario != nil {
		costo = *in.CostoUnitario
	}
	mov := &model.MovimientoStock{
		ProductoID:    p.ID,
		Tipo:          in.Tipo,
		Cantidad:      delta,
		StockAnterior: anterior,
		StockNuevo:    anterior + delta,
		CostoUnitario: costo,
		CostoTotal:    costo.Mul(qty(in.Cantidad)),
		Motivo:        in.Motivo,
		ReferenciaID:  in.ReferenciaID,
		UsuarioID:     in.UsuarioID,
	}
	if err := s.movimientos.CreateTx(ctx, tx, mov); err != nil {
		return nil, err
	}

	p.StockActual = anterior + delta
	mov.Producto = p
	return mov, nil
}

// ── Manual operations ─────────────────────────────────────────────────────────

// RegistrarMovimiento records a manual movement in its own transaction.
// venta and compra movements belong to their engines and are rejected.
func (s *inventarioService) RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoStockResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apierror.Invalid("producto_id inválido")
	}
	tipo := model.TipoMovimiento(req.Tipo)
	if tipo == model.MovVenta || tipo == model.MovCompra {
		return nil, apierror.Invalid("Los movimientos de tipo %s se registran desde ventas o compras", tipo)
	}
	in := MovimientoInput{
		ProductoID: productoID,
		Tipo:       tipo,
		Cantidad:   req.Cantidad,
		Motivo:     req.Motivo,
		UsuarioID:  &usuarioID,
	}
	if req.ReferenciaID != nil {
		ref, err := uuid.Parse(*req.ReferenciaID)
		if err != nil {
			return nil, apierror.Invalid("referencia_id inválido")
		}
		in.ReferenciaID = &ref
	}

	var mov *model.MovimientoStock
	err = runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = s.RegistrarMovimientoTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movimientoToResponse(mov), nil
}

// RegistrarAjuste sets stock to a physical count. A surplus becomes an
// ajuste_entrada and a shortfall becomes merma.
func (s *inventarioService) RegistrarAjuste(ctx context.Context, usuarioID uuid.UUID, req dto.AjusteRequest) (*dto.MovimientoStockResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apierror.Invalid("producto_id inválido")
	}
	if req.CantidadReal < 0 {
		return nil, apierror.Invalid("La cantidad real no puede ser negativa")
	}

	var mov *model.MovimientoStock
	err = runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		p, err := s.productos.FindForUpdateTx(ctx, tx, productoID)
		if err != nil {
			return lookupErr(err, "Producto %s no encontrado", productoID)
		}
		diff := req.CantidadReal - p.StockActual
		if diff == 0 {
			return apierror.Invalid("La cantidad real es igual al stock actual, no hay nada que ajustar")
		}
		in := MovimientoInput{
			ProductoID: productoID,
			Tipo:       model.MovAjusteEntrada,
			Cantidad:   diff,
			Motivo:     req.Motivo,
			UsuarioID:  &usuarioID,
		}
		if diff < 0 {
			in.Tipo = model.MovMerma
			in.Cantidad = -diff
		}
		signo, _ := in.Tipo.Signo()
		mov, err = s.aplicar(ctx, tx, p, signo, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movimientoToResponse(mov), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *inventarioService) Kardex(ctx context.Context, productoID uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error) {
	if limit < 1 {
		limit = s.kardexLimit
	}
	movs, err := s.movimientos.Kardex(ctx, productoID, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MovimientoStockResponse, 0, len(movs))
	for i := range movs {
		resp = append(resp, *movimientoToResponse(&movs[i]))
	}
	return resp, nil
}

func (s *inventarioService) ExportarKardex(ctx context.Context, productoID uuid.UUID, limit int) ([]byte, error) {
	p, err := s.productos.FindByID(ctx, productoID)
	if err != nil {
		return nil, lookupErr(err, "Producto %s no encontrado", productoID)
	}
	if limit < 1 {
		limit = s.kardexLimit
	}
	movs, err := s.movimientos.Kardex(ctx, productoID, limit)
	if err != nil {
		return nil, err
	}
	return infra.KardexXLSX(p, movs)
}

func (s *inventarioService) Valorizacion(ctx context.Context) (*dto.ValorizacionResponse, error) {
	n, unidades, valor, err := s.productos.Valorizacion(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ValorizacionResponse{Productos: n, UnidadesTotales: unidades, ValorTotal: money(valor)}, nil
}

func (s *inventarioService) AlertasStockBajo(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.productos.ListBajoStock(ctx)
	if err != nil {
		return nil, err
	}
	alertas := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		alertas = append(alertas, dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
			Faltante:    p.StockMinimo - p.StockActual,
		})
	}
	return alertas, nil
}
