package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/repository"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories. DB() returns nil so services run fn(nil) instead
// of opening a transaction.

// lockTrail records row locks in the order they are taken. Repeated locks
// on a row already held are kept out of orden.
type lockTrail struct {
	mu    sync.Mutex
	filas []string
}

func (l *lockTrail) add(tabla string, id uuid.UUID) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filas = append(l.filas, tabla+":"+id.String())
}

func (l *lockTrail) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filas = nil
}

func (l *lockTrail) orden() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, f := range l.filas {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// ── Productos ─────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[uuid.UUID]*model.Producto
	trail     *lockTrail
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func newStubProductoRepo(ps ...*model.Producto) *stubProductoRepo {
	r := &stubProductoRepo{productos: map[uuid.UUID]*model.Producto{}}
	for _, p := range ps {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.productos[p.ID] = p
	}
	return r
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

func (r *stubProductoRepo) get(id uuid.UUID) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) stock(id uuid.UUID) int {
	p, _ := r.get(id)
	return p.StockActual
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	return r.get(id)
}

func (r *stubProductoRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, id := range ids {
		if p, err := r.get(id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) FindForUpdateTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	r.trail.add("producto", id)
	return r.get(id)
}

// AplicarDeltaStockTx mirrors the guarded UPDATE: the check and the write
// happen under one lock.
func (r *stubProductoRepo) AplicarDeltaStockTx(_ context.Context, _ *gorm.DB, id uuid.UUID, delta int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok || p.StockActual+delta < 0 {
		return false, nil
	}
	p.StockActual += delta
	return true, nil
}

func (r *stubProductoRepo) ActualizarCostoTx(_ context.Context, _ *gorm.DB, id uuid.UUID, costo decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productos[id].PrecioCosto = costo
	return nil
}

func (r *stubProductoRepo) ListBajoStock(_ context.Context) ([]model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Producto
	for _, p := range r.productos {
		if p.Activo && p.StockActual <= p.StockMinimo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) Valorizacion(_ context.Context) (int, int64, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, unidades, valor := 0, int64(0), decimal.Zero
	for _, p := range r.productos {
		if !p.Activo {
			continue
		}
		n++
		unidades += int64(p.StockActual)
		valor = valor.Add(p.PrecioCosto.Mul(decimal.NewFromInt(int64(p.StockActual))))
	}
	return n, unidades, valor, nil
}

// ── Movimientos de stock ─────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	mu   sync.Mutex
	movs []model.MovimientoStock
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

func (r *stubMovimientoRepo) CreateTx(_ context.Context, _ *gorm.DB, m *model.MovimientoStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.movs = append(r.movs, *m)
	return nil
}

func (r *stubMovimientoRepo) Kardex(_ context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoStock
	for i := len(r.movs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.movs[i].ProductoID == productoID {
			out = append(out, r.movs[i])
		}
	}
	return out, nil
}

func (r *stubMovimientoRepo) porTipo(tipo model.TipoMovimiento) []model.MovimientoStock {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range r.movs {
		if m.Tipo == tipo {
			out = append(out, m)
		}
	}
	return out
}

// ── Clientes ──────────────────────────────────────────────────────────────────

type stubClienteRepo struct {
	mu       sync.Mutex
	clientes map[uuid.UUID]*model.Cliente
	trail    *lockTrail
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

func newStubClienteRepo(cs ...*model.Cliente) *stubClienteRepo {
	r := &stubClienteRepo{clientes: map[uuid.UUID]*model.Cliente{}}
	for _, c := range cs {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.clientes[c.ID] = c
	}
	return r
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) FindForUpdateTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	r.trail.add("cliente", id)
	return r.FindByID(ctx, id)
}

func (r *stubClienteRepo) AjustarDeudaTx(_ context.Context, _ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	r.trail.add("cliente", id)
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.clientes[id]
	c.DeudaActual = decimal.Max(c.DeudaActual.Add(delta), decimal.Zero)
	return nil
}

func (r *stubClienteRepo) deuda(id uuid.UUID) decimal.Decimal {
	c, _ := r.FindByID(context.Background(), id)
	return c.DeudaActual
}

// ── Precios cliente ───────────────────────────────────────────────────────────

type stubPrecioClienteRepo struct {
	mu        sync.Mutex
	precios   map[[2]uuid.UUID]*model.PrecioCliente
	historial []model.HistorialPrecioCliente
}

var _ repository.PrecioClienteRepository = (*stubPrecioClienteRepo)(nil)

func newStubPrecioClienteRepo() *stubPrecioClienteRepo {
	return &stubPrecioClienteRepo{precios: map[[2]uuid.UUID]*model.PrecioCliente{}}
}

func (r *stubPrecioClienteRepo) Find(_ context.Context, clienteID, productoID uuid.UUID) (*model.PrecioCliente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.precios[[2]uuid.UUID{clienteID, productoID}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *stubPrecioClienteRepo) UpsertTx(_ context.Context, _ *gorm.DB, p *model.PrecioCliente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.precios[[2]uuid.UUID{p.ClienteID, p.ProductoID}] = &cp
	return nil
}

func (r *stubPrecioClienteRepo) CerrarHistorialTx(_ context.Context, _ *gorm.DB, clienteID, productoID uuid.UUID, hasta time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.historial {
		h := &r.historial[i]
		if h.ClienteID == clienteID && h.ProductoID == productoID && h.Hasta == nil {
			h.Hasta = &hasta
		}
	}
	return nil
}

func (r *stubPrecioClienteRepo) CreateHistorialTx(_ context.Context, _ *gorm.DB, h *model.HistorialPrecioCliente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = uuid.New()
	r.historial = append(r.historial, *h)
	return nil
}

// ── Ventas ────────────────────────────────────────────────────────────────────

type stubVentaRepo struct {
	mu           sync.Mutex
	ventas       map[uuid.UUID]*model.Venta
	items        map[uuid.UUID][]model.VentaItem
	pagos        []model.VentaPago
	devoluciones []model.Devolucion
	seq          int64
	clientes     *stubClienteRepo
	trail        *lockTrail
}

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

func newStubVentaRepo(clientes *stubClienteRepo) *stubVentaRepo {
	return &stubVentaRepo{
		ventas:   map[uuid.UUID]*model.Venta{},
		items:    map[uuid.UUID][]model.VentaItem{},
		clientes: clientes,
	}
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

// snapshot assembles a detached copy with lines and payments. Caller holds mu.
func (r *stubVentaRepo) snapshot(id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	cp.Items = append([]model.VentaItem(nil), r.items[id]...)
	cp.Pagos = nil
	for _, p := range r.pagos {
		if p.VentaID == id {
			cp.Pagos = append(cp.Pagos, p)
		}
	}
	if cp.ClienteID != nil && r.clientes != nil {
		if c, err := r.clientes.FindByID(context.Background(), *cp.ClienteID); err == nil {
			cp.Cliente = c
		}
	}
	return &cp, nil
}

func (r *stubVentaRepo) CreateTx(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	header := *v
	header.Items, header.Pagos, header.Cliente = nil, nil, nil
	r.ventas[v.ID] = &header
	for _, it := range v.Items {
		it.Producto = nil
		r.items[v.ID] = append(r.items[v.ID], it)
	}
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(id)
}

func (r *stubVentaRepo) FindForUpdateTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	r.trail.add("venta", id)
	return r.FindByID(ctx, id)
}

func (r *stubVentaRepo) ClienteIDTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if v.ClienteID == nil {
		return nil, nil
	}
	cid := *v.ClienteID
	return &cid, nil
}

func (r *stubVentaRepo) UpdateTx(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	header := *v
	header.Items, header.Pagos, header.Cliente = nil, nil, nil
	r.ventas[v.ID] = &header
	return nil
}

func (r *stubVentaRepo) CreateItemTx(_ context.Context, _ *gorm.DB, item *model.VentaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.VentaID] = append(r.items[item.VentaID], *item)
	return nil
}

func (r *stubVentaRepo) UpdateItemTx(_ context.Context, _ *gorm.DB, item *model.VentaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.items[item.VentaID]
	for i := range lines {
		if lines[i].ID == item.ID {
			cp := *item
			cp.Producto = nil
			lines[i] = cp
		}
	}
	return nil
}

func (r *stubVentaRepo) DeleteItemTx(_ context.Context, _ *gorm.DB, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for vid, lines := range r.items {
		for i := range lines {
			if lines[i].ID == itemID {
				r.items[vid] = append(lines[:i], lines[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *stubVentaRepo) CreatePagoTx(_ context.Context, _ *gorm.DB, p *model.VentaPago) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.pagos = append(r.pagos, *p)
	return nil
}

func (r *stubVentaRepo) CreateDevolucionTx(_ context.Context, _ *gorm.DB, d *model.Devolucion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	r.devoluciones = append(r.devoluciones, *d)
	return nil
}

func (r *stubVentaRepo) SumReembolsosEfectivoTx(_ context.Context, _ *gorm.DB, ventaID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, d := range r.devoluciones {
		if d.VentaID != ventaID {
			continue
		}
		for _, re := range d.Reembolsos {
			if re.Metodo == model.MetodoEfectivo {
				sum = sum.Add(re.Monto)
			}
		}
	}
	return sum, nil
}

func (r *stubVentaRepo) NextNumeroFactura(_ context.Context, _ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *stubVentaRepo) ListAbiertasClienteTx(_ context.Context, _ *gorm.DB, clienteID uuid.UUID) ([]model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Venta
	for id, v := range r.ventas {
		if v.ClienteID != nil && *v.ClienteID == clienteID &&
			v.Flujo == model.FlujoCompletada && v.Saldo.IsPositive() {
			cp, _ := r.snapshot(id)
			out = append(out, *cp)
		}
	}
	// invoice numbers are sequential, so they break CompletadaAt ties
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CompletadaAt, out[j].CompletadaAt
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return *out[i].NumeroFactura < *out[j].NumeroFactura
	})
	return out, nil
}

func (r *stubVentaRepo) List(_ context.Context, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Venta
	for id := range r.ventas {
		cp, _ := r.snapshot(id)
		out = append(out, *cp)
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) ListCuentaCliente(_ context.Context, clienteID uuid.UUID, _ dto.EstadoCuentaFilter) ([]model.Venta, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Venta
	for id, v := range r.ventas {
		if v.ClienteID != nil && *v.ClienteID == clienteID && v.Flujo == model.FlujoCompletada {
			cp, _ := r.snapshot(id)
			out = append(out, *cp)
		}
	}
	return out, int64(len(out)), nil
}

// pagosEfectivo sums cash payments linked to a shift (for the caja stub).
func (r *stubVentaRepo) pagosEfectivo(sesionID uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.pagos {
		if p.Metodo == model.MetodoEfectivo && p.SesionCajaID != nil && *p.SesionCajaID == sesionID {
			sum = sum.Add(p.Monto)
		}
	}
	return sum
}

// ── Caja ──────────────────────────────────────────────────────────────────────

type stubCajaRepo struct {
	mu          sync.Mutex
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
	ventas      *stubVentaRepo
}

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

func newStubCajaRepo(ventas *stubVentaRepo) *stubCajaRepo {
	return &stubCajaRepo{sesiones: map[uuid.UUID]*model.SesionCaja{}, ventas: ventas}
}

func (r *stubCajaRepo) DB() *gorm.DB { return nil }

func (r *stubCajaRepo) CreateSesionTx(_ context.Context, _ *gorm.DB, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sesiones[s.ID] = &cp
	return nil
}

func (r *stubCajaRepo) FindSesionAbiertaTx(_ context.Context, _ *gorm.DB, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sesiones {
		if s.UsuarioID == usuarioID && s.Estado == model.SesionAbierta {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubCajaRepo) UpdateSesionTx(_ context.Context, _ *gorm.DB, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sesiones[s.ID] = &cp
	return nil
}

func (r *stubCajaRepo) ListSesiones(_ context.Context, _ dto.SesionFilter) ([]model.SesionCaja, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SesionCaja
	for _, s := range r.sesiones {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubCajaRepo) CreateMovimientoTx(_ context.Context, _ *gorm.DB, m *model.MovimientoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubCajaRepo) ListMovimientos(_ context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionCajaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubCajaRepo) SumMovimientosPorTipoTx(_ context.Context, _ *gorm.DB, sesionCajaID uuid.UUID) (map[model.TipoMovimientoCaja]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.TipoMovimientoCaja]decimal.Decimal{}
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionCajaID {
			out[m.Tipo] = out[m.Tipo].Add(m.Monto)
		}
	}
	return out, nil
}

func (r *stubCajaRepo) SumPagosEfectivoTx(_ context.Context, _ *gorm.DB, sesionCajaID uuid.UUID) (decimal.Decimal, error) {
	if r.ventas == nil {
		return decimal.Zero, nil
	}
	return r.ventas.pagosEfectivo(sesionCajaID), nil
}

func (r *stubCajaRepo) movimientosTipo(tipo model.TipoMovimientoCaja) []model.MovimientoCaja {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.Tipo == tipo {
			out = append(out, m)
		}
	}
	return out
}

// ── Proveedores / compras ─────────────────────────────────────────────────────

type stubProveedorRepo struct {
	mu          sync.Mutex
	proveedores map[uuid.UUID]*model.Proveedor
	trail       *lockTrail
}

var _ repository.ProveedorRepository = (*stubProveedorRepo)(nil)

func newStubProveedorRepo(ps ...*model.Proveedor) *stubProveedorRepo {
	r := &stubProveedorRepo{proveedores: map[uuid.UUID]*model.Proveedor{}}
	for _, p := range ps {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.proveedores[p.ID] = p
	}
	return r
}

func (r *stubProveedorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Proveedor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proveedores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProveedorRepo) AjustarSaldoTx(_ context.Context, _ *gorm.DB, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	r.trail.add("proveedor", id)
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proveedores[id]
	p.Saldo = p.Saldo.Add(delta)
	return p.Saldo, nil
}

func (r *stubProveedorRepo) saldo(id uuid.UUID) decimal.Decimal {
	p, _ := r.FindByID(context.Background(), id)
	return p.Saldo
}

type stubHistorialPrecioRepo struct {
	mu       sync.Mutex
	entradas []model.HistorialPrecio
}

var _ repository.HistorialPrecioRepository = (*stubHistorialPrecioRepo)(nil)

func (r *stubHistorialPrecioRepo) CreateTx(_ context.Context, _ *gorm.DB, h *model.HistorialPrecio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entradas = append(r.entradas, *h)
	return nil
}

func (r *stubHistorialPrecioRepo) ListByProducto(_ context.Context, productoID uuid.UUID, _, _ int) ([]model.HistorialPrecio, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.HistorialPrecio
	for _, h := range r.entradas {
		if h.ProductoID == productoID {
			out = append(out, h)
		}
	}
	return out, int64(len(out)), nil
}

type stubCompraRepo struct {
	mu      sync.Mutex
	compras map[uuid.UUID]*model.Compra
	items   map[uuid.UUID][]model.CompraItem
	pagos   []model.CompraPago
	trail   *lockTrail
}

var _ repository.CompraRepository = (*stubCompraRepo)(nil)

func newStubCompraRepo() *stubCompraRepo {
	return &stubCompraRepo{compras: map[uuid.UUID]*model.Compra{}, items: map[uuid.UUID][]model.CompraItem{}}
}

func (r *stubCompraRepo) DB() *gorm.DB { return nil }

func (r *stubCompraRepo) snapshot(id uuid.UUID) (*model.Compra, error) {
	c, ok := r.compras[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	cp.Items = append([]model.CompraItem(nil), r.items[id]...)
	cp.Pagos = nil
	for _, p := range r.pagos {
		if p.CompraID == id {
			cp.Pagos = append(cp.Pagos, p)
		}
	}
	return &cp, nil
}

func (r *stubCompraRepo) CreateTx(_ context.Context, _ *gorm.DB, c *model.Compra) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	header := *c
	header.Items, header.Pagos, header.Proveedor = nil, nil, nil
	r.compras[c.ID] = &header
	for _, it := range c.Items {
		it.CompraID = c.ID
		it.Producto = nil
		r.items[c.ID] = append(r.items[c.ID], it)
	}
	for _, p := range c.Pagos {
		p.CompraID = c.ID
		r.pagos = append(r.pagos, p)
	}
	return nil
}

func (r *stubCompraRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Compra, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(id)
}

func (r *stubCompraRepo) FindForUpdateTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Compra, error) {
	r.trail.add("compra", id)
	return r.FindByID(ctx, id)
}

func (r *stubCompraRepo) UpdateTx(_ context.Context, _ *gorm.DB, c *model.Compra) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	header := *c
	header.Items, header.Pagos, header.Proveedor = nil, nil, nil
	r.compras[c.ID] = &header
	return nil
}

func (r *stubCompraRepo) CreateItemTx(_ context.Context, _ *gorm.DB, item *model.CompraItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.CompraID] = append(r.items[item.CompraID], *item)
	return nil
}

func (r *stubCompraRepo) UpdateItemTx(_ context.Context, _ *gorm.DB, item *model.CompraItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.items[item.CompraID]
	for i := range lines {
		if lines[i].ID == item.ID {
			lines[i] = *item
		}
	}
	return nil
}

func (r *stubCompraRepo) DeleteItemTx(_ context.Context, _ *gorm.DB, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cid, lines := range r.items {
		for i := range lines {
			if lines[i].ID == itemID {
				r.items[cid] = append(lines[:i], lines[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *stubCompraRepo) CreatePagoTx(_ context.Context, _ *gorm.DB, p *model.CompraPago) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pagos = append(r.pagos, *p)
	return nil
}

func (r *stubCompraRepo) DeletePagoTx(_ context.Context, _ *gorm.DB, pagoID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pagos {
		if r.pagos[i].ID == pagoID {
			r.pagos = append(r.pagos[:i], r.pagos[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubCompraRepo) List(_ context.Context, _ dto.CompraFilter) ([]model.Compra, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Compra
	for id := range r.compras {
		cp, _ := r.snapshot(id)
		out = append(out, *cp)
	}
	return out, int64(len(out)), nil
}

// ── Async side effects ────────────────────────────────────────────────────────

type stubJobs struct {
	mu             sync.Mutex
	comprobantes   []worker.ComprobantePayload
	notificaciones []worker.NotificacionPayload
}

func (j *stubJobs) EnqueueComprobante(_ context.Context, p worker.ComprobantePayload) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.comprobantes = append(j.comprobantes, p)
	return nil
}

func (j *stubJobs) EnqueueNotificacion(_ context.Context, p worker.NotificacionPayload) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.notificaciones = append(j.notificaciones, p)
	return nil
}

// stubIdem is an in-memory idempotency store.
type stubIdem struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (s *stubIdem) CheckAndInsert(_ context.Context, key, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	if s.keys[module+key] {
		return errDuplicada
	}
	s.keys[module+key] = true
	return nil
}

func (s *stubIdem) Delete(_ context.Context, key, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, module+key)
	return nil
}
